// Package market acquires price and volume series from upstream providers
// with bounded retries and graceful degradation when history is unavailable.
package market

import "context"

// Quote is a point-in-time price snapshot for an asset.
type Quote struct {
	Price     float64
	Change24h float64
	Volume24h float64
}

// Provider defines a price data source. Asset IDs use the canonical
// lowercase form ("bitcoin", "ethereum").
type Provider interface {
	// Name returns the provider identifier (e.g., "coingecko", "binance")
	Name() string

	// FetchQuote fetches the current quote for an asset
	FetchQuote(ctx context.Context, assetID string) (*Quote, error)

	// FetchHistory fetches up to days of daily close prices and volumes,
	// oldest first
	FetchHistory(ctx context.Context, assetID string, days int) (prices, volumes []float64, err error)
}
