// Package indicator provides pure technical-indicator functions over price
// series. All functions are stateless; calling them twice on the same series
// yields identical output.
package indicator

import (
	"math"
	"sort"

	"github.com/tkaraxa/sibyl/internal/core"
)

// RSI calculates the Relative Strength Index over the last period deltas.
// Returns 50.0 (neutral) when fewer than period+1 points exist and 100.0
// when the average loss is zero.
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50.0
	}

	var avgGain, avgLoss float64
	for i := len(prices) - period; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return core.Round2(100 - (100 / (1 + rs)))
}

// EMA calculates the full exponential moving average series, seeded with the
// first price. When the series is shorter than period it is returned
// unchanged; downstream MACD math depends on this pass-through.
func EMA(prices []float64, period int) []float64 {
	if len(prices) < period {
		return prices
	}

	multiplier := 2.0 / float64(period+1)
	ema := make([]float64, 0, len(prices))
	ema = append(ema, prices[0])

	for _, price := range prices[1:] {
		prev := ema[len(ema)-1]
		ema = append(ema, (price-prev)*multiplier+prev)
	}

	return ema
}

// SMA calculates the simple moving average of the last period points.
// Returns the last price when the series is shorter than period.
func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0.0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}

	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return core.Round2(sum / float64(period))
}

// MACDIndicator computes the MACD decomposition. The signal line is the EMA
// of the entire MACD-line series, not a trailing window. Returns a zeroed
// neutral structure when the series is shorter than slow.
func MACDIndicator(prices []float64, fast, slow, signal int) core.MACD {
	if len(prices) < slow {
		return core.MACD{Trend: core.SignalNeutral}
	}

	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)

	macdLine := emaFast[len(emaFast)-1] - emaSlow[len(emaSlow)-1]

	macdSeries := make([]float64, len(emaSlow))
	for i := range emaSlow {
		macdSeries[i] = emaFast[i] - emaSlow[i]
	}

	signalSeries := EMA(macdSeries, signal)
	var signalLine float64
	if len(signalSeries) > 0 {
		signalLine = signalSeries[len(signalSeries)-1]
	}

	histogram := macdLine - signalLine

	trend := core.SignalNeutral
	switch {
	case histogram > 0 && macdLine > signalLine:
		trend = core.SignalBullish
	case histogram < 0 && macdLine < signalLine:
		trend = core.SignalBearish
	}

	return core.MACD{
		Line:      core.Round4(macdLine),
		Signal:    core.Round4(signalLine),
		Histogram: core.Round4(histogram),
		Trend:     trend,
	}
}

// BollingerBands computes mean ± k·stddev over the trailing window,
// degenerating to flat bands at the last price when data is insufficient.
func BollingerBands(prices []float64, period, k int) core.Bands {
	if len(prices) < period {
		var current float64
		if len(prices) > 0 {
			current = prices[len(prices)-1]
		}
		return core.Bands{Upper: current, Middle: current, Lower: current}
	}

	window := prices[len(prices)-period:]
	mean := meanOf(window)
	std := stddevOf(window, mean)

	return core.Bands{
		Upper:  core.Round2(mean + float64(k)*std),
		Middle: core.Round2(mean),
		Lower:  core.Round2(mean - float64(k)*std),
	}
}

// SupportResistance returns the 25th/75th percentile of the entire sorted
// series as a simple global support/resistance proxy.
func SupportResistance(prices []float64) (support, resistance float64) {
	if len(prices) == 0 {
		return 0.0, 0.0
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	q1 := int(float64(len(sorted)) * 0.25)
	q3 := int(float64(len(sorted)) * 0.75)

	return core.Round2(sorted[q1]), core.Round2(sorted[q3])
}

// Volatility returns the annualized volatility of simple returns as a
// percentage, 0.0 when fewer than 2 points exist.
func Volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0.0
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
	}

	mean := meanOf(returns)
	std := stddevOf(returns, mean)

	return core.Round2(std * math.Sqrt(365) * 100)
}

// MarketPhase classifies the market regime from price-vs-MA relationships.
func MarketPhase(price, ma20, ma50, ma200 float64) string {
	above20 := price > ma20
	above50 := price > ma50
	above200 := price > ma200
	ma50Above200 := ma50 > ma200

	switch {
	case above20 && above50 && above200 && ma50Above200:
		return core.PhaseBull
	case !above20 && !above50 && !above200 && !ma50Above200:
		return core.PhaseBear
	case above200 && !above50:
		return core.PhaseCorrection
	default:
		return core.PhaseAccumulation
	}
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddevOf is the population standard deviation.
func stddevOf(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
