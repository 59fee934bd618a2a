// Package engine orchestrates one analysis pass: fetch market data, compute
// indicators, train and run the predictor, fetch sentiment, and score the
// combined inputs into a recommendation.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/indicator"
	"github.com/tkaraxa/sibyl/internal/metrics"
	"github.com/tkaraxa/sibyl/internal/predictor"
	"github.com/tkaraxa/sibyl/internal/scorer"
)

// DataSource fetches market data for an asset.
type DataSource interface {
	FetchPriceHistory(ctx context.Context, asset string, days int) (core.MarketData, error)
}

// SentimentFetcher fetches the sentiment balance for an asset. It never
// fails; transport problems collapse to neutral values.
type SentimentFetcher interface {
	Fetch(ctx context.Context, assetID string, days int) core.SentimentData
}

// Engine runs the full analysis pipeline. Safe for concurrent use: each
// analysis trains its own predictor instance.
type Engine struct {
	source         DataSource
	sentiment      SentimentFetcher
	scorer         *scorer.Scorer
	params         indicator.Params
	minPricePoints int
	registry       *metrics.Registry
	logger         *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics registry.
func WithMetrics(registry *metrics.Registry) Option {
	return func(e *Engine) { e.registry = registry }
}

// WithMinPricePoints overrides the minimum series length (default 2).
func WithMinPricePoints(n int) Option {
	return func(e *Engine) { e.minPricePoints = n }
}

// New creates an Engine.
func New(source DataSource, sentiment SentimentFetcher, sc *scorer.Scorer, params indicator.Params, opts ...Option) *Engine {
	e := &Engine{
		source:         source,
		sentiment:      sentiment,
		scorer:         sc,
		params:         params,
		minPricePoints: 2,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze fetches market and sentiment data for an asset and analyzes the
// resulting series.
func (e *Engine) Analyze(ctx context.Context, asset string, days int) (core.Analysis, error) {
	start := time.Now()

	data, err := e.source.FetchPriceHistory(ctx, asset, days)
	if err != nil {
		return core.Analysis{}, err
	}

	var sent core.SentimentData
	if e.sentiment != nil {
		sent = e.sentiment.Fetch(ctx, data.Asset, days)
	}

	analysis, err := e.AnalyzeSeries(data, sent)
	if err != nil {
		return core.Analysis{}, err
	}

	if e.registry != nil {
		e.registry.RecordAnalysis(data.Asset, string(analysis.Recommendation.Action),
			time.Since(start).Seconds())
	}
	e.logger.Info("analysis complete",
		zap.String("asset", data.Asset),
		zap.String("action", string(analysis.Recommendation.Action)),
		zap.Float64("confidence", analysis.Recommendation.Confidence),
		zap.Int("points", len(data.Prices)))

	return analysis, nil
}

// AnalyzeSeries analyzes an already-fetched series. Fewer than the minimum
// number of price points is the caller-visible insufficient-data failure;
// predictor shortfalls are absorbed with a neutral prediction set.
func (e *Engine) AnalyzeSeries(data core.MarketData, sent core.SentimentData) (core.Analysis, error) {
	if len(data.Prices) < e.minPricePoints {
		return core.Analysis{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("need at least %d price points, got %d; request more history",
				e.minPricePoints, len(data.Prices)))
	}

	snapshot := indicator.Compute(data.Prices, e.params)

	preds, err := predictor.New().Predict(data.Prices, data.Volumes)
	if err != nil {
		// A signal must always resolve: fall back to a zero-change set.
		e.logger.Debug("predictor unavailable, using neutral predictions",
			zap.String("asset", data.Asset),
			zap.Error(err))
		if e.registry != nil {
			e.registry.RecordTraining("failed")
		}
		preds = core.NeutralPredictions(snapshot.CurrentPrice)
	} else if e.registry != nil {
		e.registry.RecordTraining("ok")
	}

	rec := e.scorer.Score(snapshot, sent.Balance, preds)

	return core.Analysis{
		Asset:          data.Asset,
		Days:           data.Days,
		Recommendation: rec,
		Indicators: core.IndicatorSummary{
			RSI:         snapshot.RSI,
			MACD:        snapshot.MACD,
			MarketPhase: snapshot.MarketPhase,
			Volatility:  snapshot.Volatility,
		},
		Predictions: preds,
		Warning:     data.Warning,
	}, nil
}
