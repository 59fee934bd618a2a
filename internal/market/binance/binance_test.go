package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
)

func TestBinance_Name(t *testing.T) {
	b := New(10 * time.Second)
	if b.Name() != "binance" {
		t.Errorf("expected 'binance', got '%s'", b.Name())
	}
}

func TestBinance_UnsupportedAsset(t *testing.T) {
	b := New(10 * time.Second)
	_, err := b.FetchQuote(context.Background(), "dogecoin")
	if !errors.Is(err, core.ErrUnsupportedAsset) {
		t.Errorf("expected UNSUPPORTED_ASSET, got %v", err)
	}
}

func TestBinance_FetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %s, want BTCUSDT", got)
		}
		w.Write([]byte(`{
			"symbol":"BTCUSDT",
			"priceChangePercent":"-1.25",
			"lastPrice":"64321.10",
			"volume":"12345.6",
			"quoteVolume":"794000000.5"
		}`))
	}))
	defer server.Close()

	b := NewWithBaseURL(5*time.Second, server.URL)
	quote, err := b.FetchQuote(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}

	if quote.Price != 64321.10 {
		t.Errorf("price = %v, want 64321.10", quote.Price)
	}
	if quote.Change24h != -1.25 {
		t.Errorf("change = %v, want -1.25", quote.Change24h)
	}
	if quote.Volume24h != 794000000.5 {
		t.Errorf("volume = %v, want 794000000.5", quote.Volume24h)
	}
}

func TestBinance_FetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval = %s, want 1d", got)
		}
		w.Write([]byte(`[
			[1700000000000,"100.0","105.0","99.0","102.5","500.0",1700086399999,"51000.0",1000,"250.0","25500.0","0"],
			[1700086400000,"102.5","108.0","101.0","107.0","600.0",1700172799999,"63000.0",1200,"300.0","31500.0","0"]
		]`))
	}))
	defer server.Close()

	b := NewWithBaseURL(5*time.Second, server.URL)
	prices, volumes, err := b.FetchHistory(context.Background(), "ethereum", 2)
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}

	if len(prices) != 2 || prices[0] != 102.5 || prices[1] != 107.0 {
		t.Errorf("prices = %v, want close prices [102.5 107]", prices)
	}
	if len(volumes) != 2 || volumes[0] != 51000.0 {
		t.Errorf("volumes = %v, want quote volumes", volumes)
	}
}

func TestBinance_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	b := NewWithBaseURL(5*time.Second, server.URL)
	_, _, err := b.FetchHistory(context.Background(), "bitcoin", 5)
	if !errors.Is(err, core.ErrRateLimited) {
		t.Errorf("expected RATE_LIMITED, got %v", err)
	}
}
