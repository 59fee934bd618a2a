// Package binance implements the market Provider against the Binance spot
// API. It serves as the fallback source when CoinGecko is unavailable.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/market"
)

const baseURL = "https://api.binance.com"

// assetToSymbol maps canonical asset IDs to Binance USDT pairs.
var assetToSymbol = map[string]string{
	"bitcoin":  "BTCUSDT",
	"ethereum": "ETHUSDT",
}

// Binance implements the market Provider interface
type Binance struct {
	client  *http.Client
	baseURL string
}

// New creates a new Binance provider
func New(timeout time.Duration) *Binance {
	return &Binance{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// NewWithBaseURL creates a Binance provider with custom base URL (for testing)
func NewWithBaseURL(timeout time.Duration, url string) *Binance {
	b := New(timeout)
	b.baseURL = url
	return b
}

func (b *Binance) Name() string {
	return "binance"
}

func (b *Binance) symbol(assetID string) (string, error) {
	symbol, ok := assetToSymbol[assetID]
	if !ok {
		return "", core.WrapError(core.ErrUnsupportedAsset,
			fmt.Errorf("no binance pair for asset: %s", assetID))
	}
	return symbol, nil
}

func (b *Binance) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return core.WrapError(core.ErrRateLimited,
			fmt.Errorf("binance returned 429"))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// FetchQuote fetches the 24h ticker for the asset's USDT pair.
func (b *Binance) FetchQuote(ctx context.Context, assetID string) (*market.Quote, error) {
	symbol, err := b.symbol(assetID)
	if err != nil {
		return nil, err
	}

	var result ticker24hr
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", b.baseURL, symbol)
	if err := b.get(ctx, url, &result); err != nil {
		return nil, err
	}

	price, _ := strconv.ParseFloat(result.LastPrice, 64)
	changePercent, _ := strconv.ParseFloat(result.PriceChangePercent, 64)
	quoteVolume, _ := strconv.ParseFloat(result.QuoteVolume, 64)

	return &market.Quote{
		Price:     price,
		Change24h: changePercent,
		Volume24h: quoteVolume,
	}, nil
}

// FetchHistory fetches daily close prices and quote volumes from klines.
func (b *Binance) FetchHistory(ctx context.Context, assetID string, days int) ([]float64, []float64, error) {
	symbol, err := b.symbol(assetID)
	if err != nil {
		return nil, nil, err
	}
	if days < 1 {
		days = 1
	}
	if days > 1000 {
		days = 1000
	}

	var klines [][]any
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1d&limit=%d", b.baseURL, symbol, days)
	if err := b.get(ctx, url, &klines); err != nil {
		return nil, nil, err
	}

	prices := make([]float64, 0, len(klines))
	volumes := make([]float64, 0, len(klines))
	for _, k := range klines {
		// kline layout: openTime, open, high, low, close, volume, ...
		if len(k) < 8 {
			continue
		}
		closeStr, _ := k[4].(string)
		quoteVolumeStr, _ := k[7].(string)

		close, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			continue
		}
		quoteVolume, _ := strconv.ParseFloat(quoteVolumeStr, 64)

		prices = append(prices, close)
		volumes = append(volumes, quoteVolume)
	}

	return prices, volumes, nil
}

// Binance API response types
type ticker24hr struct {
	Symbol             string `json:"symbol"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
}
