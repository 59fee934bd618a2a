// Package coingecko implements the market Provider against the CoinGecko
// v3 API, supporting both the free/demo and pro tiers.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/market"
)

const (
	baseURL    = "https://api.coingecko.com/api/v3"
	proBaseURL = "https://pro-api.coingecko.com/api/v3"

	// CoinGecko free tier caps market_chart range at one year.
	maxHistoryDays = 365
)

// CoinGecko implements the market Provider interface
type CoinGecko struct {
	client  *http.Client
	baseURL string
	apiKey  string
	pro     bool
}

// New creates a CoinGecko provider. apiType "pro" (or a key containing
// "pro") selects the pro endpoint and header; anything else uses the
// demo/free tier.
func New(apiKey, apiType string, timeout time.Duration) *CoinGecko {
	pro := strings.EqualFold(apiType, "pro") ||
		(apiKey != "" && strings.Contains(strings.ToLower(apiKey), "pro"))

	base := baseURL
	if pro {
		base = proBaseURL
	}

	return &CoinGecko{
		client:  &http.Client{Timeout: timeout},
		baseURL: base,
		apiKey:  apiKey,
		pro:     pro,
	}
}

// NewWithBaseURL creates a CoinGecko provider with custom base URL (for testing)
func NewWithBaseURL(apiKey, apiType string, timeout time.Duration, url string) *CoinGecko {
	c := New(apiKey, apiType, timeout)
	c.baseURL = url
	return c
}

func (c *CoinGecko) Name() string {
	return "coingecko"
}

func (c *CoinGecko) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		if c.pro {
			req.Header.Set("x-cg-pro-api-key", c.apiKey)
		} else {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return core.WrapError(core.ErrRateLimited,
			fmt.Errorf("coingecko returned 429"))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// FetchQuote fetches the current USD price, 24h change, and 24h volume.
func (c *CoinGecko) FetchQuote(ctx context.Context, assetID string) (*market.Quote, error) {
	q := url.Values{}
	q.Set("ids", assetID)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	q.Set("include_24hr_vol", "true")

	var result map[string]map[string]float64
	if err := c.get(ctx, fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode()), &result); err != nil {
		return nil, err
	}

	data, ok := result[assetID]
	if !ok {
		return nil, core.WrapError(core.ErrNotFound,
			fmt.Errorf("no data for asset: %s", assetID))
	}

	return &market.Quote{
		Price:     data["usd"],
		Change24h: data["usd_24h_change"],
		Volume24h: data["usd_24h_vol"],
	}, nil
}

// FetchHistory fetches daily price and volume series from market_chart.
func (c *CoinGecko) FetchHistory(ctx context.Context, assetID string, days int) ([]float64, []float64, error) {
	if days > maxHistoryDays {
		days = maxHistoryDays
	}
	if days < 1 {
		days = 1
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", fmt.Sprintf("%d", days))
	q.Set("interval", "daily")

	var result struct {
		Prices       [][]float64 `json:"prices"`
		TotalVolumes [][]float64 `json:"total_volumes"`
	}
	url := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, assetID, q.Encode())
	if err := c.get(ctx, url, &result); err != nil {
		return nil, nil, err
	}

	prices := make([]float64, 0, len(result.Prices))
	for _, point := range result.Prices {
		if len(point) >= 2 {
			prices = append(prices, point[1])
		}
	}
	volumes := make([]float64, 0, len(result.TotalVolumes))
	for _, point := range result.TotalVolumes {
		if len(point) >= 2 {
			volumes = append(volumes, point[1])
		}
	}

	return prices, volumes, nil
}
