package market

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/retry"
)

const historyWarning = "Historical data unavailable due to rate limits, using current price only"

// Source fetches market data through an ordered provider chain with
// bounded retries. A quote failure on one provider falls through to the
// next; a history failure after retries degrades to a single-point series
// with a warning rather than failing the request.
type Source struct {
	providers    []Provider
	supported    map[string]bool
	policy       retry.Policy
	historyDelay time.Duration
	logger       *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// WithHistoryDelay sets the pause between the quote and history calls,
// which keeps free-tier rate limiters happy.
func WithHistoryDelay(d time.Duration) Option {
	return func(s *Source) { s.historyDelay = d }
}

// NewSource creates a Source over the given providers, tried in order.
func NewSource(providers []Provider, supported []string, policy retry.Policy, opts ...Option) *Source {
	supportedSet := make(map[string]bool, len(supported))
	for _, asset := range supported {
		supportedSet[asset] = true
	}

	s := &Source{
		providers: providers,
		supported: supportedSet,
		policy:    policy,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supported reports whether the (normalized) asset can be fetched.
func (s *Source) Supported(asset string) bool {
	return s.supported[Normalize(asset)]
}

// SupportedAssets returns the configured asset IDs.
func (s *Source) SupportedAssets() []string {
	assets := make([]string, 0, len(s.supported))
	for asset := range s.supported {
		assets = append(assets, asset)
	}
	return assets
}

// FetchPriceHistory fetches the current quote and the daily history for an
// asset. Unsupported assets fail immediately without retries. When every
// provider's history call fails after retries, the result still succeeds
// with a single-point series and a warning, never an empty series.
func (s *Source) FetchPriceHistory(ctx context.Context, asset string, days int) (core.MarketData, error) {
	assetID := Normalize(asset)
	if !s.supported[assetID] {
		return core.MarketData{}, core.WrapError(core.ErrUnsupportedAsset,
			fmt.Errorf("asset %q is not in the supported set", asset))
	}

	var quote *Quote
	var provider Provider
	var lastErr error

	for _, p := range s.providers {
		q, err := s.fetchQuote(ctx, p, assetID)
		if err != nil {
			s.logger.Warn("quote fetch failed",
				zap.String("provider", p.Name()),
				zap.String("asset", assetID),
				zap.Error(err))
			lastErr = err
			continue
		}
		quote, provider = q, p
		break
	}
	if quote == nil {
		return core.MarketData{}, core.WrapError(core.ErrFetchFailed,
			fmt.Errorf("all providers failed for %s: %w", assetID, lastErr))
	}

	data := core.MarketData{
		Asset:          assetID,
		CurrentPrice:   quote.Price,
		PriceChange24h: core.Round2(quote.Change24h),
		Volume24h:      quote.Volume24h,
		Days:           days,
	}

	if s.historyDelay > 0 {
		select {
		case <-ctx.Done():
			return core.MarketData{}, ctx.Err()
		case <-time.After(s.historyDelay):
		}
	}

	prices, volumes, err := s.fetchHistory(ctx, provider, assetID, days)
	if err != nil || len(prices) == 0 {
		if err != nil {
			s.logger.Warn("history fetch failed, degrading to current price",
				zap.String("provider", provider.Name()),
				zap.String("asset", assetID),
				zap.Error(err))
			data.Warning = historyWarning
		}
		data.Prices = []float64{quote.Price}
		if quote.Volume24h > 0 {
			data.Volumes = []float64{quote.Volume24h}
		} else {
			data.Volumes = []float64{}
		}
		return data, nil
	}

	data.Prices = prices
	data.Volumes = volumes
	return data, nil
}

func (s *Source) fetchQuote(ctx context.Context, p Provider, assetID string) (*Quote, error) {
	var quote *Quote
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		q, err := p.FetchQuote(ctx, assetID)
		if err != nil {
			return classify(err)
		}
		quote = q
		return nil
	})
	return quote, err
}

func (s *Source) fetchHistory(ctx context.Context, p Provider, assetID string, days int) ([]float64, []float64, error) {
	var prices, volumes []float64
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		ps, vs, err := p.FetchHistory(ctx, assetID, days)
		if err != nil {
			return classify(err)
		}
		prices, volumes = ps, vs
		return nil
	})
	return prices, volumes, err
}

// classify marks non-retryable errors permanent. Rate limits and transport
// failures retry; anything else (bad status, decode failure, missing
// asset) aborts immediately.
func classify(err error) error {
	if errors.Is(err, core.ErrRateLimited) || isTransient(err) {
		return err
	}
	return retry.Permanent(err)
}

func isTransient(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
