package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for one flight log process.
// A nil *MetricsRegistry is valid and records nothing.
type MetricsRegistry struct {
	Registry *prometheus.Registry

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Provider Metrics
	ProviderRequestsTotal *prometheus.CounterVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Flight log Metrics
	IngestOutcomesTotal  *prometheus.CounterVec
	RouteRebuildDuration prometheus.Histogram
	RoutesTotal          prometheus.Gauge
}

// NewMetricsRegistry initializes a private registry so tests and commands
// can build several without duplicate registration panics.
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MetricsRegistry{
		Registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightlog_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightlog_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flightlog_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method"},
		),

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightlog_provider_requests_total",
				Help: "Requests sent to flight data providers by provider and HTTP status",
			},
			[]string{"provider", "status_code"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightlog_cache_hits_total",
				Help: "Total cache hits by cache name",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightlog_cache_misses_total",
				Help: "Total cache misses by cache name",
			},
			[]string{"cache"},
		),

		IngestOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightlog_ingest_outcomes_total",
				Help: "Flight legs offered to the ingestion engine by outcome",
			},
			[]string{"outcome"},
		),
		RouteRebuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flightlog_route_rebuild_duration_seconds",
				Help:    "Time spent rebuilding the routes table",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		RoutesTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "flightlog_routes",
				Help: "Number of routes after the last rebuild",
			},
		),
	}
}

func (m *MetricsRegistry) ObserveIngest(outcome string) {
	if m == nil {
		return
	}
	m.IngestOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsRegistry) ObserveProviderRequest(provider, statusCode string) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, statusCode).Inc()
}

func (m *MetricsRegistry) ObserveCache(cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

func (m *MetricsRegistry) ObserveRouteRebuild(started time.Time, routes int) {
	if m == nil {
		return
	}
	m.RouteRebuildDuration.Observe(time.Since(started).Seconds())
	m.RoutesTotal.Set(float64(routes))
}
