package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the integrator
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Wizard Metrics
	WizardSessionsOpen       prometheus.Gauge
	WizardSessionsTotal      *prometheus.CounterVec
	ConnectionTestsTotal     *prometheus.CounterVec
	ConnectionTestDuration   prometheus.Histogram
	ProviderActivationsTotal *prometheus.CounterVec

	// Worker Metrics
	ActivationQueueLength prometheus.Gauge
	ActivationsProcessed  *prometheus.CounterVec
}

// NewMetricsRegistry creates every metric and registers it with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkhub_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkhub_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "linkhub_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed by method",
			},
			[]string{"method"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkhub_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkhub_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Wizard Metrics
		WizardSessionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "linkhub_wizard_sessions_open",
				Help: "Setup wizard sessions currently open",
			},
		),
		WizardSessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkhub_wizard_sessions_total",
				Help: "Setup wizard sessions by outcome (opened, completed, cancelled, expired)",
			},
			[]string{"outcome"},
		),
		ConnectionTestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkhub_connection_tests_total",
				Help: "Credential tests by provider type and result",
			},
			[]string{"provider_type", "result"},
		),
		ConnectionTestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linkhub_connection_test_duration_seconds",
				Help:    "Credential test latency in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		ProviderActivationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkhub_provider_activations_total",
				Help: "Providers activated through the setup wizard by provider type",
			},
			[]string{"provider_type"},
		),

		// Worker Metrics
		ActivationQueueLength: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "linkhub_activation_queue_length",
				Help: "Messages in the provider activation stream",
			},
		),
		ActivationsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkhub_activations_processed_total",
				Help: "Activation events handled by the worker by result",
			},
			[]string{"result"},
		),
	}
}
