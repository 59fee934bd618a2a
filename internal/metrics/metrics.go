package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	analysesTotal         *prometheus.CounterVec
	analysisDuration      prometheus.Histogram
	fetchAttemptsTotal    *prometheus.CounterVec
	trainingsTotal        *prometheus.CounterVec
	modelAccuracy         *prometheus.GaugeVec
	recommendationsRouted *prometheus.CounterVec
	watchlistAssets       prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sibyl_analyses_total",
			Help: "Total number of completed analyses",
		},
		[]string{"asset", "action"},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sibyl_analysis_duration_seconds",
			Help:    "Analysis duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.fetchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sibyl_fetch_attempts_total",
			Help: "Total number of upstream fetch attempts",
		},
		[]string{"provider", "outcome"},
	)
	r.trainingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sibyl_model_trainings_total",
			Help: "Total number of model training runs",
		},
		[]string{"status"},
	)
	r.modelAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sibyl_model_accuracy",
			Help: "Pseudo-accuracy of the most recent trained model",
		},
		[]string{"asset"},
	)
	r.recommendationsRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sibyl_recommendations_routed_total",
			Help: "Total number of recommendations routed to notifiers",
		},
		[]string{"notifier", "status"},
	)
	r.watchlistAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sibyl_watchlist_assets",
			Help: "Number of assets in the watchlist",
		},
	)

	reg.MustRegister(r.analysesTotal)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.fetchAttemptsTotal)
	reg.MustRegister(r.trainingsTotal)
	reg.MustRegister(r.modelAccuracy)
	reg.MustRegister(r.recommendationsRouted)
	reg.MustRegister(r.watchlistAssets)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordAnalysis records a completed analysis.
func (r *Registry) RecordAnalysis(asset, action string, duration float64) {
	r.analysesTotal.WithLabelValues(asset, action).Inc()
	r.analysisDuration.Observe(duration)
}

// RecordFetchAttempt records an upstream fetch attempt outcome
// ("ok", "error", or "rate_limited").
func (r *Registry) RecordFetchAttempt(provider, outcome string) {
	r.fetchAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordTraining records a model training run ("ok" or "failed").
func (r *Registry) RecordTraining(status string) {
	r.trainingsTotal.WithLabelValues(status).Inc()
}

// SetModelAccuracy sets the pseudo-accuracy of an asset's latest model.
func (r *Registry) SetModelAccuracy(asset string, accuracy float64) {
	r.modelAccuracy.WithLabelValues(asset).Set(accuracy)
}

// RecordRouted records a recommendation routed to a notifier.
func (r *Registry) RecordRouted(notifier, status string) {
	r.recommendationsRouted.WithLabelValues(notifier, status).Inc()
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	r.watchlistAssets.Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
