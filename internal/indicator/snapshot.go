package indicator

import "github.com/tkaraxa/sibyl/internal/core"

// Params holds the indicator periods used by Compute.
type Params struct {
	RSIPeriod          int
	MACDFast           int
	MACDSlow           int
	MACDSignal         int
	BollingerPeriod    int
	BollingerK         int
	FullFidelityPoints int
}

// DefaultParams returns the standard periods.
func DefaultParams() Params {
	return Params{
		RSIPeriod:          14,
		MACDFast:           12,
		MACDSlow:           26,
		MACDSignal:         9,
		BollingerPeriod:    20,
		BollingerK:         2,
		FullFidelityPoints: 50,
	}
}

// Compute combines all indicators into a snapshot. With fewer than
// FullFidelityPoints prices it short-circuits to the degenerate snapshot:
// every level pinned to the latest price, neutral RSI/MACD, phase Neutral,
// support/resistance at ±5%.
func Compute(prices []float64, p Params) core.IndicatorSnapshot {
	if len(prices) < p.FullFidelityPoints {
		var current float64
		if len(prices) > 0 {
			current = prices[len(prices)-1]
		}
		return core.IndicatorSnapshot{
			CurrentPrice: core.Round2(current),
			RSI:          50.0,
			MACD:         core.MACD{Trend: core.SignalNeutral},
			MA20:         core.Round2(current),
			MA50:         core.Round2(current),
			MA200:        core.Round2(current),
			Bollinger:    core.Bands{Upper: core.Round2(current), Middle: core.Round2(current), Lower: core.Round2(current)},
			Support:      core.Round2(current * 0.95),
			Resistance:   core.Round2(current * 1.05),
			Volatility:   0.0,
			MarketPhase:  core.PhaseNeutral,
		}
	}

	current := prices[len(prices)-1]

	ma20 := SMA(prices, 20)
	ma50 := SMA(prices, 50)
	ma200 := SMA(prices, 200)
	support, resistance := SupportResistance(prices)

	return core.IndicatorSnapshot{
		CurrentPrice: core.Round2(current),
		RSI:          RSI(prices, p.RSIPeriod),
		MACD:         MACDIndicator(prices, p.MACDFast, p.MACDSlow, p.MACDSignal),
		MA20:         ma20,
		MA50:         ma50,
		MA200:        ma200,
		Bollinger:    BollingerBands(prices, p.BollingerPeriod, p.BollingerK),
		Support:      support,
		Resistance:   resistance,
		Volatility:   Volatility(prices),
		MarketPhase:  MarketPhase(current, ma20, ma50, ma200),
	}
}
