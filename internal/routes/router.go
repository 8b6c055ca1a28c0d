package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"infinite-experiment/flightlog/internal/api"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/metrics"
	"infinite-experiment/flightlog/internal/middleware"
)

// Options tune the HTTP surface. The zero value disables rate limiting.
type Options struct {
	RateLimit float64
	RateBurst int
}

// RegisterRoutes builds the read-only HTTP surface of the flight log.
func RegisterRoutes(h *api.Handlers, metricsReg *metrics.MetricsRegistry, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))
	if opts.RateLimit > 0 {
		r.Use(middleware.RateLimitMiddleware(opts.RateLimit, opts.RateBurst))
	}

	r.Get("/healthCheck", h.HealthCheck())
	r.Get("/flights", h.ListFlights())
	r.Get("/flights.geojson", h.FlightsGeoJSON())
	r.Get("/routes.geojson", h.RoutesGeoJSON())

	if metricsReg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(metricsReg.Registry, promhttp.HandlerOpts{Registry: metricsReg.Registry}))
	}

	logging.Info("Router initialized", "metrics", metricsReg != nil, "rate_limit", opts.RateLimit)
	return r
}
