// Package scorer fuses indicator, sentiment, and prediction inputs into a
// BUY/SELL/HOLD recommendation via an additive point system. The rules live
// in a data table so individual weights can be tuned without touching the
// decision flow.
package scorer

import (
	"fmt"
	"math"

	"github.com/tkaraxa/sibyl/internal/core"
)

// DefaultDecisionMargin is the score gap a side must win by to escape HOLD.
const DefaultDecisionMargin = 20.0

const maxReasons = 5

// factors is the flattened rule input extracted from the three sources.
type factors struct {
	rsi             float64
	macdTrend       string
	macdHistogram   float64
	marketPhase     string
	predictedChange float64
	sentiment       float64
}

type side int

const (
	buySide side = iota
	sellSide
)

// rule is one scoring entry: a predicate, the side and points it awards,
// and an optional reason template. Rules are evaluated in declaration
// order; reasons keep that order.
type rule struct {
	side   side
	points float64
	when   func(f factors) bool
	reason func(f factors) string
}

// rules is the full scoring table. Bands within a factor are disjoint, so
// declaration order only matters for reason ordering.
var rules = []rule{
	// RSI bands
	{buySide, 30, func(f factors) bool { return f.rsi < 30 },
		func(f factors) string {
			return fmt.Sprintf("RSI is oversold (%.1f) - potential buying opportunity", f.rsi)
		}},
	{sellSide, 30, func(f factors) bool { return f.rsi > 70 },
		func(f factors) string {
			return fmt.Sprintf("RSI is overbought (%.1f) - consider taking profits", f.rsi)
		}},
	{buySide, 15, func(f factors) bool { return f.rsi >= 30 && f.rsi < 40 },
		func(f factors) string {
			return fmt.Sprintf("RSI is below neutral (%.1f) - slight bullish bias", f.rsi)
		}},
	{sellSide, 15, func(f factors) bool { return f.rsi > 60 && f.rsi <= 70 },
		func(f factors) string {
			return fmt.Sprintf("RSI is above neutral (%.1f) - slight bearish bias", f.rsi)
		}},

	// MACD momentum
	{buySide, 20, func(f factors) bool { return f.macdTrend == core.SignalBullish && f.macdHistogram > 0 },
		func(factors) string { return "MACD shows bullish momentum" }},
	{sellSide, 20, func(f factors) bool { return f.macdTrend == core.SignalBearish && f.macdHistogram < 0 },
		func(factors) string { return "MACD shows bearish momentum" }},

	// Market phase
	{buySide, 15, func(f factors) bool { return f.marketPhase == core.PhaseBull },
		func(factors) string { return "Market is in Bull Market phase" }},
	{sellSide, 15, func(f factors) bool { return f.marketPhase == core.PhaseBear },
		func(factors) string { return "Market is in Bear Market phase" }},
	{buySide, 10, func(f factors) bool { return f.marketPhase == core.PhaseAccumulation },
		func(factors) string { return "Market is in Accumulation phase - good entry point" }},
	{sellSide, 10, func(f factors) bool { return f.marketPhase == core.PhaseCorrection },
		func(factors) string { return "Market is in Correction phase - caution advised" }},

	// 1-day predicted change. The weak bands carry no reason but always
	// award one side, so a flat market still leans somewhere.
	{buySide, 15, func(f factors) bool { return f.predictedChange > 2 },
		func(f factors) string {
			return fmt.Sprintf("ML model predicts %.1f%% price increase", f.predictedChange)
		}},
	{sellSide, 15, func(f factors) bool { return f.predictedChange < -2 },
		func(f factors) string {
			return fmt.Sprintf("ML model predicts %.1f%% price decrease", f.predictedChange)
		}},
	{buySide, 5, func(f factors) bool {
		return f.predictedChange > 0 && f.predictedChange <= 2
	}, nil},
	{sellSide, 5, func(f factors) bool {
		return f.predictedChange <= 0 && f.predictedChange >= -2
	}, nil},

	// Sentiment
	{buySide, 10, func(f factors) bool { return f.sentiment > 10 },
		func(factors) string { return "Positive sentiment detected" }},
	{sellSide, 10, func(f factors) bool { return f.sentiment < -10 },
		func(factors) string { return "Negative sentiment detected" }},
}

// Scorer scores analysis inputs into recommendations. It is stateless and
// safe for concurrent use.
type Scorer struct {
	margin float64
}

// New creates a Scorer with the given decision margin. A non-positive
// margin falls back to the default.
func New(margin float64) *Scorer {
	if margin <= 0 {
		margin = DefaultDecisionMargin
	}
	return &Scorer{margin: margin}
}

// Score runs the rule table and builds the recommendation with entry,
// stop-loss, and target levels around the decided action.
func (s *Scorer) Score(ind core.IndicatorSnapshot, sentiment float64, pred core.PredictionSet) core.Recommendation {
	f := factors{
		rsi:             ind.RSI,
		macdTrend:       ind.MACD.Trend,
		macdHistogram:   ind.MACD.Histogram,
		marketPhase:     ind.MarketPhase,
		predictedChange: pred.Horizons["1d"].ChangePercent,
		sentiment:       sentiment,
	}

	var buyScore, sellScore float64
	var reasons []string
	for _, r := range rules {
		if !r.when(f) {
			continue
		}
		if r.side == buySide {
			buyScore += r.points
		} else {
			sellScore += r.points
		}
		if r.reason != nil && len(reasons) < maxReasons {
			reasons = append(reasons, r.reason(f))
		}
	}

	diff := buyScore - sellScore

	var action core.Action
	var confidence float64
	switch {
	case diff > s.margin:
		action = core.ActionBuy
		confidence = math.Min(95, 50+diff)
	case diff < -s.margin:
		action = core.ActionSell
		confidence = math.Min(95, 50+math.Abs(diff))
	default:
		action = core.ActionHold
		confidence = 50
	}

	current := ind.CurrentPrice
	support := ind.Support
	resistance := ind.Resistance

	var entry, stop float64
	var targets core.Targets
	switch action {
	case core.ActionBuy:
		entry = math.Max(support, current*0.98)
		stop = support * 0.97
		targets = core.Targets{
			Target1: core.Round2(current * 1.03),
			Target2: core.Round2(current * 1.05),
			Target3: core.Round2(resistance),
		}
	case core.ActionSell:
		entry = math.Min(resistance, current*1.02)
		stop = resistance * 1.03
		targets = core.Targets{
			Target1: core.Round2(current * 0.97),
			Target2: core.Round2(current * 0.95),
			Target3: core.Round2(support),
		}
	default:
		entry = current
		if current > support {
			stop = support * 0.95
		} else {
			stop = current * 0.97
		}
		targets = core.Targets{
			Target1: core.Round2(current * 1.02),
			Target2: core.Round2(current * 1.05),
			Target3: core.Round2(resistance),
		}
	}

	if reasons == nil {
		reasons = []string{}
	}

	return core.Recommendation{
		Action:       action,
		Confidence:   core.Round1(confidence),
		CurrentPrice: core.Round2(current),
		EntryPrice:   core.Round2(entry),
		StopLoss:     core.Round2(stop),
		Targets:      targets,
		Timeframe:    timeframe(ind.Volatility),
		Reasons:      reasons,
		RiskLevel:    RiskLevel(ind.Volatility),
	}
}

func timeframe(volatility float64) string {
	if volatility > 50 {
		return "Short-term (1-7 days)"
	}
	return "Medium-term (7-30 days)"
}

// RiskLevel labels annualized volatility: High above 70, Medium above 40,
// Low otherwise.
func RiskLevel(volatility float64) string {
	switch {
	case volatility > 70:
		return core.RiskHigh
	case volatility > 40:
		return core.RiskMedium
	default:
		return core.RiskLow
	}
}
