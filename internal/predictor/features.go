// Package predictor implements a small trainable regressor that maps an
// engineered indicator window to next-step percentage price change, projected
// over 1d/7d/30d horizons. It is a heuristic signal, not a validated
// forecasting model.
package predictor

import (
	"github.com/tkaraxa/sibyl/internal/indicator"
)

const (
	windowSize    = 50
	featureOffset = 5
	numFeatures   = 8
)

// buildFeatures converts the trailing min(windowSize, N) prices/volumes into
// 8-dimensional feature vectors, one per index >= featureOffset inside the
// window. Returns nil when fewer than windowSize prices exist.
func buildFeatures(prices, volumes []float64) [][]float64 {
	if len(prices) < windowSize {
		return nil
	}

	window := prices[len(prices)-windowSize:]

	volumeWindow := make([]float64, windowSize)
	if len(volumes) >= windowSize {
		copy(volumeWindow, volumes[len(volumes)-windowSize:])
	}

	features := make([][]float64, 0, windowSize-featureOffset)

	for i := featureOffset; i < len(window); i++ {
		rsi := indicator.RSI(window[:i+1], 14)
		macd := indicator.MACDIndicator(window[:i+1], 12, 26, 9)
		ma20 := indicator.SMA(window[:i+1], minInt(20, i+1))
		volatility := indicator.Volatility(window[:i+1])

		priceChange := (window[i] - window[i-1]) / window[i-1]

		volumeRatio := 1.0
		if mean := meanOf(volumeWindow[:i+1]); mean > 0 {
			volumeRatio = volumeWindow[i] / mean
		}

		ma20Ratio := 1.0
		if window[i] > 0 {
			ma20Ratio = ma20 / window[i]
		}

		features = append(features, []float64{
			window[i],
			priceChange,
			rsi / 100.0,
			macd.Line,
			macd.Histogram,
			ma20Ratio,
			volatility / 100.0,
			volumeRatio,
		})
	}

	return features
}

// buildTargets produces the next-step percentage returns aligned with the
// feature rows. Row indices address the raw price series; the final row
// without a successor defaults to 0.
func buildTargets(featureCount int, prices []float64) []float64 {
	targets := make([]float64, featureCount)
	for i := 0; i < featureCount; i++ {
		if i+1 < len(prices) {
			targets[i] = (prices[i+1] - prices[i]) / prices[i]
		}
	}
	return targets
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
