package core

import "math"

// Action represents a trading recommendation action
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// MACD signal classifications
const (
	SignalBullish = "bullish"
	SignalBearish = "bearish"
	SignalNeutral = "neutral"
)

// Market phase labels derived from price-vs-moving-average relationships
const (
	PhaseBull         = "Bull Market"
	PhaseBear         = "Bear Market"
	PhaseCorrection   = "Correction"
	PhaseAccumulation = "Accumulation"
	PhaseNeutral      = "Neutral"
)

// Risk level labels, a pure function of annualized volatility
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// MarketData holds a price/volume series for an asset.
// Prices are chronological; Volumes align positionally and may be shorter.
type MarketData struct {
	Asset          string    `json:"asset"`
	CurrentPrice   float64   `json:"current_price"`
	PriceChange24h float64   `json:"price_change_24h"`
	Volume24h      float64   `json:"volume_24h"`
	Prices         []float64 `json:"prices"`
	Volumes        []float64 `json:"volumes"`
	Days           int       `json:"days"`
	Warning        string    `json:"warning,omitempty"`
}

// SentimentData holds the external social sentiment summary for an asset.
// A zero Balance is the neutral default; absence of data is never an error.
type SentimentData struct {
	Balance         float64 `json:"sentiment_balance"`
	SocialVolume    int     `json:"social_volume"`
	SocialDominance float64 `json:"social_dominance"`
	Message         string  `json:"message,omitempty"`
}

// MACD holds the MACD indicator decomposition.
// Sub-values are rounded to 4 decimals.
type MACD struct {
	Line      float64 `json:"macd_line"`
	Signal    float64 `json:"signal_line"`
	Histogram float64 `json:"histogram"`
	Trend     string  `json:"signal"`
}

// Bands holds Bollinger band levels
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSnapshot is the immutable per-request indicator set.
// Produced fresh by indicator.Compute and never mutated afterwards.
type IndicatorSnapshot struct {
	CurrentPrice float64 `json:"current_price"`
	RSI          float64 `json:"rsi"`
	MACD         MACD    `json:"macd"`
	MA20         float64 `json:"ma20"`
	MA50         float64 `json:"ma50"`
	MA200        float64 `json:"ma200"`
	Bollinger    Bands   `json:"bollinger_bands"`
	Support      float64 `json:"support"`
	Resistance   float64 `json:"resistance"`
	Volatility   float64 `json:"volatility"`
	MarketPhase  string  `json:"market_phase"`
}

// HorizonForecast is a single-horizon price projection
type HorizonForecast struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Confidence    float64 `json:"confidence"`
}

// PredictionSet maps horizon keys ("1d", "7d", "30d") to forecasts
type PredictionSet struct {
	CurrentPrice float64                    `json:"current_price"`
	Horizons     map[string]HorizonForecast `json:"predictions"`
}

// NeutralPredictions returns a zero-change prediction set anchored on price.
// Used when the predictor cannot train; a signal must always resolve.
func NeutralPredictions(price float64) PredictionSet {
	flat := HorizonForecast{Price: Round2(price), ChangePercent: 0, Confidence: 0}
	return PredictionSet{
		CurrentPrice: Round2(price),
		Horizons: map[string]HorizonForecast{
			"1d":  flat,
			"7d":  flat,
			"30d": flat,
		},
	}
}

// Targets holds the three price targets of a recommendation
type Targets struct {
	Target1 float64 `json:"target_1"`
	Target2 float64 `json:"target_2"`
	Target3 float64 `json:"target_3"`
}

// Recommendation is the scored trading decision with risk-managed levels
type Recommendation struct {
	Action       Action   `json:"recommendation"`
	Confidence   float64  `json:"confidence"`
	CurrentPrice float64  `json:"current_price"`
	EntryPrice   float64  `json:"entry_price"`
	StopLoss     float64  `json:"stop_loss"`
	Targets      Targets  `json:"targets"`
	Timeframe    string   `json:"timeframe"`
	Reasons      []string `json:"reasons"`
	RiskLevel    string   `json:"risk_level"`
}

// IndicatorSummary is the indicator subset exposed in the analysis output
type IndicatorSummary struct {
	RSI         float64 `json:"rsi"`
	MACD        MACD    `json:"macd"`
	MarketPhase string  `json:"market_phase"`
	Volatility  float64 `json:"volatility"`
}

// Analysis is the full engine output for one asset query
type Analysis struct {
	Asset          string           `json:"asset"`
	Days           int              `json:"days"`
	Recommendation Recommendation   `json:"recommendation"`
	Indicators     IndicatorSummary `json:"indicators"`
	Predictions    PredictionSet    `json:"predictions"`
	Warning        string           `json:"warning,omitempty"`
	Summary        string           `json:"summary,omitempty"`
}

// Round2 rounds to 2 decimals (prices, indicators)
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds to 4 decimals (MACD sub-values)
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Round1 rounds to 1 decimal (confidence, percentages)
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
