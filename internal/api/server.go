// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tkaraxa/sibyl/internal/api/middleware"
	"github.com/tkaraxa/sibyl/internal/metrics"
	"github.com/tkaraxa/sibyl/internal/storage/report"
)

// Analyzer runs the full analysis pipeline for one asset and persists the
// result. Implemented by app.App.
type Analyzer interface {
	Analyze(ctx context.Context, asset string, days int) (report.Report, error)
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	DefaultDays int
	MetricsPath string
}

// Dependencies holds everything the server routes to.
type Dependencies struct {
	Analyzer Analyzer
	Reports  report.Store
	Assets   []string
	Metrics  *metrics.Registry
}

// Server is the HTTP front for the analysis engine.
type Server struct {
	httpServer *http.Server
	deps       Dependencies
	cfg        Config
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("api: analyzer is required")
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 30
	}

	s := &Server{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes()

	handler := http.Handler(s.mux)
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // analyze calls block on upstream fetches
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	auth := middleware.APIKeyAuth(s.cfg.APIKey)

	// Health stays open for load balancer probes
	s.mux.HandleFunc("/api/health", s.handleHealth)

	s.mux.Handle("/api/analyze", auth(http.HandlerFunc(s.handleAnalyze)))
	s.mux.Handle("/api/recommendations", auth(http.HandlerFunc(s.handleRecommendations)))
	s.mux.Handle("/api/assets", auth(http.HandlerFunc(s.handleAssets)))

	if s.deps.Metrics != nil {
		path := s.cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle(path, promhttp.HandlerFor(s.deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
