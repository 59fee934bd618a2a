// Package app wires configuration into the full analysis pipeline: market
// data source, sentiment client, engine, report store, archive, summary
// narrator, notifiers, and the alert router.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tkaraxa/sibyl/internal/config"
	"github.com/tkaraxa/sibyl/internal/engine"
	"github.com/tkaraxa/sibyl/internal/explain"
	"github.com/tkaraxa/sibyl/internal/indicator"
	"github.com/tkaraxa/sibyl/internal/llm/factory"
	"github.com/tkaraxa/sibyl/internal/market"
	"github.com/tkaraxa/sibyl/internal/market/binance"
	"github.com/tkaraxa/sibyl/internal/market/coingecko"
	"github.com/tkaraxa/sibyl/internal/metrics"
	"github.com/tkaraxa/sibyl/internal/notifier"
	"github.com/tkaraxa/sibyl/internal/notifier/telegram"
	"github.com/tkaraxa/sibyl/internal/notifier/webhook"
	"github.com/tkaraxa/sibyl/internal/retry"
	"github.com/tkaraxa/sibyl/internal/router"
	"github.com/tkaraxa/sibyl/internal/scorer"
	"github.com/tkaraxa/sibyl/internal/sentiment"
	"github.com/tkaraxa/sibyl/internal/storage/archive"
	"github.com/tkaraxa/sibyl/internal/storage/report"
)

const defaultInterval = 1 * time.Hour

// App is the main application orchestrator
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Registry
	source    *market.Source
	engine    *engine.Engine
	reports   report.Store
	archiver  *archive.Archiver
	narrator  *explain.Narrator
	notifiers *notifier.Registry
	router    *router.Router

	watchlist []config.WatchlistItem
	interval  time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
}

// New builds an App from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	source := buildSource(cfg, logger)

	var sent engine.SentimentFetcher
	if cfg.Sentiment.AgentURL != "" {
		sent = sentiment.New(cfg.Sentiment.AgentURL, cfg.Sentiment.Timeout,
			sentiment.WithLogger(logger),
			sentiment.WithPollDelay(cfg.Sentiment.PollDelay))
	}

	params := indicator.Params{
		RSIPeriod:          cfg.Engine.RSIPeriod,
		MACDFast:           cfg.Engine.MACDFast,
		MACDSlow:           cfg.Engine.MACDSlow,
		MACDSignal:         cfg.Engine.MACDSignal,
		BollingerPeriod:    cfg.Engine.BollingerPeriod,
		BollingerK:         cfg.Engine.BollingerK,
		FullFidelityPoints: cfg.Engine.FullFidelityPoints,
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMinPricePoints(cfg.Engine.MinPricePoints),
	}
	if reg != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(reg))
	}
	eng := engine.New(source, sent, scorer.New(float64(cfg.Engine.DecisionMargin)), params, engineOpts...)

	maxReports := cfg.Server.MaxReports
	if maxReports <= 0 {
		maxReports = 500
	}
	reports := report.NewMemoryStore(maxReports)

	archiver, err := buildArchiver(cfg, logger)
	if err != nil {
		return nil, err
	}

	// The narrator is decorative: a broken LLM config disables summaries
	// instead of failing startup.
	narrator := explain.New(nil, logger)
	if cfg.LLM.Provider != "" {
		provider, err := factory.New(cfg.LLM)
		if err != nil {
			logger.Warn("LLM provider unavailable, summaries disabled", zap.Error(err))
		} else {
			narrator = explain.New(provider, logger)
		}
	}

	notifiers := notifier.NewRegistry()
	if err := registerNotifiers(notifiers, cfg.Notifiers); err != nil {
		return nil, err
	}

	rt := router.New(router.Config{
		MinConfidence: cfg.Router.MinConfidence,
		Cooldown:      time.Duration(cfg.Router.CooldownHours) * time.Hour,
	}, notifiers, logger)
	if reg != nil {
		rt.SetMetrics(reg)
		reg.SetWatchlistSize(len(cfg.Watchlist))
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		metrics:   reg,
		source:    source,
		engine:    eng,
		reports:   reports,
		archiver:  archiver,
		narrator:  narrator,
		notifiers: notifiers,
		router:    rt,
		watchlist: cfg.Watchlist,
		interval:  defaultInterval,
	}, nil
}

func buildSource(cfg *config.Config, logger *zap.Logger) *market.Source {
	providers := []market.Provider{
		coingecko.New(cfg.Source.APIKey, cfg.Source.APIType, cfg.Source.Timeout),
	}
	for _, name := range cfg.Source.Fallbacks {
		switch name {
		case "binance":
			providers = append(providers, binance.New(cfg.Source.Timeout))
		default:
			logger.Warn("unknown fallback provider, skipping", zap.String("provider", name))
		}
	}

	policy := retry.Policy{
		MaxAttempts:    cfg.Source.Retry.MaxAttempts,
		BaseDelay:      cfg.Source.Retry.BaseDelay,
		Multiplier:     cfg.Source.Retry.Multiplier,
		RateLimitDelay: cfg.Source.Retry.RateLimitDelay,
	}

	return market.NewSource(providers, cfg.Source.SupportedAssets, policy,
		market.WithLogger(logger),
		market.WithHistoryDelay(cfg.Source.HistoryDelay))
}

func buildArchiver(cfg *config.Config, logger *zap.Logger) (*archive.Archiver, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}

	var storage archive.Storage
	var err error
	switch cfg.Archive.Type {
	case "localfs", "":
		storage, err = archive.NewLocalFS(cfg.Archive.Path)
	case "s3":
		storage, err = archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Archive.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing archive: %w", err)
	}

	return archive.NewArchiver(storage, logger), nil
}

func registerNotifiers(registry *notifier.Registry, configs map[string]config.NotifierConfig) error {
	for name, nc := range configs {
		if !nc.Enabled {
			continue
		}

		var n notifier.Notifier
		var params map[string]any
		switch name {
		case "telegram":
			n = telegram.New("", "")
			params = map[string]any{
				"bot_token": nc.BotToken,
				"chat_id":   nc.ChatID,
			}
		case "webhook":
			n = webhook.New("", nil)
			params = map[string]any{
				"url":     nc.URL,
				"headers": nc.Headers,
			}
		default:
			return fmt.Errorf("unknown notifier type %q", name)
		}

		if err := n.Init(notifier.Config{Type: name, Params: params}); err != nil {
			return fmt.Errorf("initializing notifier %s: %w", name, err)
		}
		if err := registry.Register(n); err != nil {
			return err
		}
	}
	return nil
}

// Analyze runs the full pipeline for one asset: analysis, summary,
// persistence, archival, and alert routing. Archive and routing failures
// are logged, not returned; the report is the product.
func (a *App) Analyze(ctx context.Context, asset string, days int) (report.Report, error) {
	analysis, err := a.engine.Analyze(ctx, asset, days)
	if err != nil {
		return report.Report{}, err
	}

	if a.narrator.Enabled() {
		analysis.Summary = a.narrator.Narrate(ctx, analysis)
	}

	rep, err := a.reports.Save(ctx, analysis)
	if err != nil {
		return report.Report{}, err
	}

	if a.archiver != nil {
		if err := a.archiver.Archive(ctx, rep); err != nil {
			a.logger.Error("failed to archive report",
				zap.String("asset", asset),
				zap.String("report_id", rep.ID),
				zap.Error(err))
		}
	}

	if err := a.router.Route(notifier.Alert{
		Asset:          analysis.Asset,
		Recommendation: analysis.Recommendation,
		Warning:        analysis.Warning,
		GeneratedAt:    rep.CreatedAt,
	}); err != nil {
		a.logger.Error("failed to route alert",
			zap.String("asset", asset),
			zap.Error(err))
	}

	return rep, nil
}

// RegisterNotifier adds a notifier to the app
func (a *App) RegisterNotifier(n notifier.Notifier) error {
	return a.notifiers.Register(n)
}

// Reports exposes the report store for the API layer.
func (a *App) Reports() report.Store {
	return a.reports
}

// Metrics exposes the metrics registry, nil when metrics are disabled.
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// SupportedAssets returns the configured asset IDs.
func (a *App) SupportedAssets() []string {
	return a.source.SupportedAssets()
}

// SetInterval sets the watchlist analysis interval
func (a *App) SetInterval(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interval = d
}

// SetWatchlist replaces the monitored assets.
func (a *App) SetWatchlist(items []config.WatchlistItem) {
	a.mu.Lock()
	a.watchlist = items
	a.mu.Unlock()
	if a.metrics != nil {
		a.metrics.SetWatchlistSize(len(items))
	}
}

// GetWatchlist returns the monitored asset IDs.
func (a *App) GetWatchlist() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	assets := make([]string, len(a.watchlist))
	for i, item := range a.watchlist {
		assets[i] = item.Asset
	}
	return assets
}

// Start begins the periodic watchlist analysis loop. It blocks until the
// context is cancelled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	interval := a.interval
	a.mu.Unlock()

	a.logger.Info("watchlist monitor starting",
		zap.Int("assets", len(a.watchlist)),
		zap.Duration("interval", interval))

	a.router.StartCleanupRoutine(ctx, interval)

	// Initial run
	a.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("watchlist monitor shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

// Stop stops the monitoring loop
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce analyzes every watchlist asset a single time.
func (a *App) RunOnce(ctx context.Context) {
	a.mu.RLock()
	items := make([]config.WatchlistItem, len(a.watchlist))
	copy(items, a.watchlist)
	a.mu.RUnlock()

	if len(items) == 0 {
		a.logger.Debug("watchlist is empty")
		return
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return
		}

		days := item.Days
		if days <= 0 {
			days = a.cfg.Engine.DefaultDays
		}

		rep, err := a.Analyze(ctx, item.Asset, days)
		if err != nil {
			a.logger.Error("watchlist analysis failed",
				zap.String("asset", item.Asset),
				zap.Error(err))
			continue
		}

		a.logger.Info("watchlist analysis complete",
			zap.String("asset", item.Asset),
			zap.String("action", string(rep.Analysis.Recommendation.Action)),
			zap.Float64("confidence", rep.Analysis.Recommendation.Confidence))
	}
}

// GetStats returns application statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	reportCount, _ := a.reports.Count(context.Background(), report.ListFilter{})

	return map[string]any{
		"running":   a.running,
		"watchlist": len(a.watchlist),
		"notifiers": len(a.notifiers.GetAll()),
		"reports":   reportCount,
		"router":    a.router.GetStats(),
	}
}
