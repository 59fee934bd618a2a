// Package router filters trading recommendations and dispatches them to notifiers.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/metrics"
	"github.com/tkaraxa/sibyl/internal/notifier"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	MinConfidence float64       `mapstructure:"min_confidence"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		MinConfidence: 70,
		Cooldown:      4 * time.Hour,
	}
}

// Router routes recommendation alerts to notifiers with filtering.
// HOLD recommendations are never routed.
type Router struct {
	cfg       Config
	registry  *notifier.Registry
	logger    *zap.Logger
	metrics   *metrics.Registry
	cooldowns map[string]time.Time // asset -> last alert time
	mu        sync.RWMutex
}

// New creates a new alert router
func New(cfg Config, registry *notifier.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:       cfg,
		registry:  registry,
		logger:    logger,
		cooldowns: make(map[string]time.Time),
	}
}

// SetMetrics attaches a metrics registry for dispatch counters
func (r *Router) SetMetrics(m *metrics.Registry) {
	r.metrics = m
}

// Route processes an alert through filters and sends to notifiers
func (r *Router) Route(alert notifier.Alert) error {
	if !r.passesFilters(alert) {
		r.logger.Debug("alert filtered out",
			zap.String("asset", alert.Asset),
			zap.String("action", string(alert.Recommendation.Action)),
			zap.Float64("confidence", alert.Recommendation.Confidence),
		)
		return nil
	}

	// Update cooldown
	r.mu.Lock()
	r.cooldowns[alert.Asset] = time.Now()
	r.mu.Unlock()

	// Send to all notifiers (nil registry is allowed)
	if r.registry == nil {
		return nil
	}
	errors := r.registry.NotifyAll(alert)
	r.recordOutcomes(errors)

	if len(errors) > 0 {
		for name, err := range errors {
			r.logger.Error("notifier failed",
				zap.String("notifier", name),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("alert routed",
		zap.String("asset", alert.Asset),
		zap.String("action", string(alert.Recommendation.Action)),
		zap.Float64("confidence", alert.Recommendation.Confidence),
		zap.Int("notifiers", len(r.registry.GetAll())),
		zap.Int("errors", len(errors)),
	)

	return nil
}

// RouteBatch processes multiple alerts as a single batched dispatch
func (r *Router) RouteBatch(alerts []notifier.Alert) error {
	var filtered []notifier.Alert

	for _, alert := range alerts {
		if r.passesFilters(alert) {
			filtered = append(filtered, alert)

			r.mu.Lock()
			r.cooldowns[alert.Asset] = time.Now()
			r.mu.Unlock()
		}
	}

	if len(filtered) == 0 || r.registry == nil {
		return nil
	}

	errors := r.registry.NotifyAllBatch(filtered)
	r.recordOutcomes(errors)

	if len(errors) > 0 {
		for name, err := range errors {
			r.logger.Error("notifier failed on batch",
				zap.String("notifier", name),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("batch routed",
		zap.Int("total", len(alerts)),
		zap.Int("filtered", len(filtered)),
		zap.Int("errors", len(errors)),
	)

	return nil
}

// recordOutcomes bumps the routed counter once per registered notifier
func (r *Router) recordOutcomes(errors map[string]error) {
	if r.metrics == nil {
		return
	}
	for _, n := range r.registry.GetAll() {
		status := "ok"
		if _, failed := errors[n.Name()]; failed {
			status = "failed"
		}
		r.metrics.RecordRouted(n.Name(), status)
	}
}

// passesFilters checks if an alert passes all configured filters
func (r *Router) passesFilters(alert notifier.Alert) bool {
	// HOLD is not actionable, never dispatch it
	if alert.Recommendation.Action == core.ActionHold {
		return false
	}

	if alert.Recommendation.Confidence < r.cfg.MinConfidence {
		return false
	}

	r.mu.RLock()
	lastAlert, exists := r.cooldowns[alert.Asset]
	r.mu.RUnlock()

	if exists && time.Since(lastAlert) < r.cfg.Cooldown {
		return false
	}

	return true
}

// ClearCooldown removes cooldown for a specific asset
func (r *Router) ClearCooldown(asset string) {
	r.mu.Lock()
	delete(r.cooldowns, asset)
	r.mu.Unlock()
}

// ClearAllCooldowns removes all cooldowns
func (r *Router) ClearAllCooldowns() {
	r.mu.Lock()
	r.cooldowns = make(map[string]time.Time)
	r.mu.Unlock()
}

// CleanupExpiredCooldowns removes cooldown entries older than 2x the cooldown duration.
func (r *Router) CleanupExpiredCooldowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	expiry := r.cfg.Cooldown * 2
	removed := 0

	for asset, lastTime := range r.cooldowns {
		if now.Sub(lastTime) > expiry {
			delete(r.cooldowns, asset)
			removed++
		}
	}

	return removed
}

// StartCleanupRoutine starts a background goroutine that periodically cleans up expired cooldowns.
func (r *Router) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := r.CleanupExpiredCooldowns()
				if removed > 0 {
					r.logger.Debug("cleaned up expired cooldowns", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// GetStats returns router statistics
func (r *Router) GetStats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]any{
		"cooldowns_active": len(r.cooldowns),
		"min_confidence":   r.cfg.MinConfidence,
		"cooldown_seconds": r.cfg.Cooldown.Seconds(),
	}
}
