package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRoundHelpers(t *testing.T) {
	if got := Round2(3.14159); got != 3.14 {
		t.Errorf("Round2 = %v, want 3.14", got)
	}
	if got := Round4(0.000125); got != 0.0001 {
		t.Errorf("Round4 = %v, want 0.0001", got)
	}
	if got := Round1(52.449); got != 52.4 {
		t.Errorf("Round1 = %v, want 52.4", got)
	}
	if got := Round2(-1.005); got != -1.0 {
		t.Errorf("Round2(-1.005) = %v, want -1", got)
	}
}

func TestNeutralPredictions(t *testing.T) {
	p := NeutralPredictions(1234.567)

	if p.CurrentPrice != 1234.57 {
		t.Errorf("current price = %v, want 1234.57", p.CurrentPrice)
	}

	for _, h := range []string{"1d", "7d", "30d"} {
		f, ok := p.Horizons[h]
		if !ok {
			t.Fatalf("missing horizon %s", h)
		}
		if f.ChangePercent != 0 {
			t.Errorf("%s change = %v, want 0", h, f.ChangePercent)
		}
		if f.Price != 1234.57 {
			t.Errorf("%s price = %v, want 1234.57", h, f.Price)
		}
	}
}

func TestRecommendation_JSONRoundTrip(t *testing.T) {
	rec := Recommendation{
		Action:       ActionBuy,
		Confidence:   95,
		CurrentPrice: 50000.12,
		EntryPrice:   49000.5,
		StopLoss:     47530.49,
		Targets:      Targets{Target1: 51500.12, Target2: 52500.13, Target3: 53000},
		Timeframe:    "Medium-term (7-30 days)",
		Reasons:      []string{"RSI is oversold (28.3) - potential buying opportunity"},
		RiskLevel:    RiskMedium,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Recommendation
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(rec, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestAnalysis_JSONRoundTrip(t *testing.T) {
	a := Analysis{
		Asset: "bitcoin",
		Days:  30,
		Indicators: IndicatorSummary{
			RSI:         61.27,
			MACD:        MACD{Line: 12.3456, Signal: 10.1234, Histogram: 2.2222, Trend: SignalBullish},
			MarketPhase: PhaseBull,
			Volatility:  48.91,
		},
		Predictions: NeutralPredictions(50000),
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Analysis
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(a, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, a)
	}
}
