package market

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/retry"
)

type fakeProvider struct {
	name         string
	quote        *Quote
	quoteErr     error
	prices       []float64
	volumes      []float64
	historyErr   error
	quoteCalls   int
	historyCalls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchQuote(ctx context.Context, assetID string) (*Quote, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeProvider) FetchHistory(ctx context.Context, assetID string, days int) ([]float64, []float64, error) {
	f.historyCalls++
	if f.historyErr != nil {
		return nil, nil, f.historyErr
	}
	return f.prices, f.volumes, nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Millisecond,
		Multiplier:     2.0,
		RateLimitDelay: time.Millisecond,
	}
}

func newTestSource(providers ...Provider) *Source {
	return NewSource(providers, []string{"bitcoin", "ethereum"}, fastPolicy())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BTC", "bitcoin"},
		{"bitcoin", "bitcoin"},
		{"Eth", "ethereum"},
		{" ethereum ", "ethereum"},
		{"DOGE", "doge"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFetchPriceHistory_UnsupportedAsset(t *testing.T) {
	p := &fakeProvider{name: "fake"}
	s := newTestSource(p)

	_, err := s.FetchPriceHistory(context.Background(), "dogecoin", 30)
	if !errors.Is(err, core.ErrUnsupportedAsset) {
		t.Fatalf("expected UNSUPPORTED_ASSET, got %v", err)
	}
	if p.quoteCalls != 0 {
		t.Error("unsupported assets must not hit providers")
	}
}

func TestFetchPriceHistory_Success(t *testing.T) {
	p := &fakeProvider{
		name:    "fake",
		quote:   &Quote{Price: 65000, Change24h: 2.345, Volume24h: 3.1e10},
		prices:  []float64{64000, 64500, 65000},
		volumes: []float64{1e10, 1.1e10, 1.2e10},
	}
	s := newTestSource(p)

	data, err := s.FetchPriceHistory(context.Background(), "BTC", 30)
	if err != nil {
		t.Fatalf("FetchPriceHistory failed: %v", err)
	}

	if data.Asset != "bitcoin" {
		t.Errorf("asset = %s, want bitcoin (normalized)", data.Asset)
	}
	if data.CurrentPrice != 65000 {
		t.Errorf("current price = %v, want 65000", data.CurrentPrice)
	}
	if data.PriceChange24h != 2.35 {
		t.Errorf("24h change = %v, want 2.35 (rounded)", data.PriceChange24h)
	}
	if len(data.Prices) != 3 {
		t.Errorf("prices = %v, want full series", data.Prices)
	}
	if data.Warning != "" {
		t.Errorf("unexpected warning: %q", data.Warning)
	}
}

func TestFetchPriceHistory_DegradesOnHistoryFailure(t *testing.T) {
	p := &fakeProvider{
		name:       "fake",
		quote:      &Quote{Price: 65000, Volume24h: 3.1e10},
		historyErr: core.WrapError(core.ErrRateLimited, errors.New("429")),
	}
	s := newTestSource(p)

	data, err := s.FetchPriceHistory(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("history failure must not fail the fetch: %v", err)
	}

	if len(data.Prices) != 1 || data.Prices[0] != 65000 {
		t.Errorf("prices = %v, want single-point fallback", data.Prices)
	}
	if len(data.Volumes) != 1 || data.Volumes[0] != 3.1e10 {
		t.Errorf("volumes = %v, want 24h volume fallback", data.Volumes)
	}
	if data.Warning == "" {
		t.Error("degraded result must carry a warning")
	}
	if p.historyCalls != 3 {
		t.Errorf("history calls = %d, want 3 (retries exhausted)", p.historyCalls)
	}
}

func TestFetchPriceHistory_ZeroVolumeFallback(t *testing.T) {
	p := &fakeProvider{
		name:       "fake",
		quote:      &Quote{Price: 65000, Volume24h: 0},
		historyErr: errors.New("boom"),
	}
	s := newTestSource(p)

	data, err := s.FetchPriceHistory(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("FetchPriceHistory failed: %v", err)
	}
	if len(data.Volumes) != 0 {
		t.Errorf("volumes = %v, want empty when 24h volume is zero", data.Volumes)
	}
}

func TestFetchPriceHistory_FallsThroughProviders(t *testing.T) {
	primary := &fakeProvider{
		name:     "primary",
		quoteErr: fmt.Errorf("unexpected status: 500"),
	}
	fallback := &fakeProvider{
		name:   "fallback",
		quote:  &Quote{Price: 64000},
		prices: []float64{63000, 64000},
	}
	s := newTestSource(primary, fallback)

	data, err := s.FetchPriceHistory(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("FetchPriceHistory failed: %v", err)
	}

	// Status errors are permanent: one call on primary, then fall through.
	if primary.quoteCalls != 1 {
		t.Errorf("primary calls = %d, want 1", primary.quoteCalls)
	}
	if data.CurrentPrice != 64000 {
		t.Errorf("current price = %v, want fallback's 64000", data.CurrentPrice)
	}
	if fallback.historyCalls != 1 {
		t.Errorf("history should come from the provider that served the quote")
	}
}

func TestFetchPriceHistory_AllProvidersFail(t *testing.T) {
	p := &fakeProvider{name: "fake", quoteErr: errors.New("down")}
	s := newTestSource(p)

	_, err := s.FetchPriceHistory(context.Background(), "bitcoin", 30)
	if !errors.Is(err, core.ErrFetchFailed) {
		t.Errorf("expected FETCH_FAILED, got %v", err)
	}
}

func TestFetchPriceHistory_RetriesRateLimit(t *testing.T) {
	calls := 0
	p := &fakeProvider{name: "fake"}
	p.quoteErr = core.WrapError(core.ErrRateLimited, errors.New("429"))
	s := newTestSource(p)

	_, _ = s.FetchPriceHistory(context.Background(), "bitcoin", 30)
	calls = p.quoteCalls
	if calls != 3 {
		t.Errorf("quote calls = %d, want 3 (rate limits retry)", calls)
	}
}

func TestSupported(t *testing.T) {
	s := newTestSource(&fakeProvider{name: "fake"})

	if !s.Supported("BTC") {
		t.Error("BTC should normalize to a supported asset")
	}
	if s.Supported("dogecoin") {
		t.Error("dogecoin should not be supported")
	}
	if got := len(s.SupportedAssets()); got != 2 {
		t.Errorf("supported assets = %d, want 2", got)
	}
}
