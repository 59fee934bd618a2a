package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
)

func TestCoinGecko_Name(t *testing.T) {
	c := New("", "", 10*time.Second)
	if c.Name() != "coingecko" {
		t.Errorf("expected 'coingecko', got '%s'", c.Name())
	}
}

func TestCoinGecko_TierSelection(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		apiType string
		wantPro bool
	}{
		{"no key", "", "", false},
		{"demo key", "CG-abc123", "demo", false},
		{"pro type", "CG-abc123", "pro", true},
		{"pro in key", "CG-pro-abc123", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(tc.apiKey, tc.apiType, 10*time.Second)
			if c.pro != tc.wantPro {
				t.Errorf("pro = %v, want %v", c.pro, tc.wantPro)
			}
			wantBase := baseURL
			if tc.wantPro {
				wantBase = proBaseURL
			}
			if c.baseURL != wantBase {
				t.Errorf("baseURL = %s, want %s", c.baseURL, wantBase)
			}
		})
	}
}

func TestCoinGecko_FetchQuote(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("x-cg-demo-api-key")
		if r.URL.Path != "/simple/price" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"bitcoin":{"usd":65000.5,"usd_24h_change":2.34,"usd_24h_vol":31000000000}}`))
	}))
	defer server.Close()

	c := NewWithBaseURL("CG-demo-key", "", 5*time.Second, server.URL)
	quote, err := c.FetchQuote(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}

	if quote.Price != 65000.5 {
		t.Errorf("price = %v, want 65000.5", quote.Price)
	}
	if quote.Change24h != 2.34 {
		t.Errorf("change = %v, want 2.34", quote.Change24h)
	}
	if gotHeader != "CG-demo-key" {
		t.Errorf("demo key header = %q, want CG-demo-key", gotHeader)
	}
}

func TestCoinGecko_FetchQuote_MissingAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewWithBaseURL("", "", 5*time.Second, server.URL)
	_, err := c.FetchQuote(context.Background(), "bitcoin")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestCoinGecko_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewWithBaseURL("", "", 5*time.Second, server.URL)
	_, err := c.FetchQuote(context.Background(), "bitcoin")
	if !errors.Is(err, core.ErrRateLimited) {
		t.Errorf("expected RATE_LIMITED, got %v", err)
	}
}

func TestCoinGecko_FetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "daily" {
			t.Errorf("interval = %s, want daily", got)
		}
		w.Write([]byte(`{
			"prices":[[1700000000000,100.0],[1700086400000,101.5],[1700172800000,99.8]],
			"total_volumes":[[1700000000000,1000.0],[1700086400000,1100.0],[1700172800000,900.0]]
		}`))
	}))
	defer server.Close()

	c := NewWithBaseURL("", "", 5*time.Second, server.URL)
	prices, volumes, err := c.FetchHistory(context.Background(), "bitcoin", 3)
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}

	wantPrices := []float64{100.0, 101.5, 99.8}
	if len(prices) != len(wantPrices) {
		t.Fatalf("got %d prices, want %d", len(prices), len(wantPrices))
	}
	for i, p := range wantPrices {
		if prices[i] != p {
			t.Errorf("prices[%d] = %v, want %v", i, prices[i], p)
		}
	}
	if len(volumes) != 3 || volumes[1] != 1100.0 {
		t.Errorf("volumes = %v", volumes)
	}
}

func TestCoinGecko_FetchHistory_CapsDays(t *testing.T) {
	var gotDays string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDays = r.URL.Query().Get("days")
		w.Write([]byte(`{"prices":[],"total_volumes":[]}`))
	}))
	defer server.Close()

	c := NewWithBaseURL("", "", 5*time.Second, server.URL)
	if _, _, err := c.FetchHistory(context.Background(), "bitcoin", 900); err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	if gotDays != "365" {
		t.Errorf("days = %s, want 365 (free tier cap)", gotDays)
	}
}
