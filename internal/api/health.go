package api

import (
	"context"
	"net/http"
	"time"

	"infinite-experiment/flightlog/internal/models/dtos/responses"
)

// HealthCheck handles GET /healthCheck
func (h *Handlers) HealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]responses.ServiceStatus)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		storeStatus := responses.ServiceStatus{Status: "ok", Details: "Flight log store reachable"}
		if err := h.store.Ping(ctx); err != nil {
			storeStatus = responses.ServiceStatus{Status: "down", Details: err.Error()}
		}
		services["store"] = storeStatus

		overallStatus := "ok"
		statusCode := http.StatusOK
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}

		writeJSON(w, statusCode, "application/json", responses.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  h.upSince,
			Uptime:   time.Since(h.upSince).Round(time.Second).String(),
		})
	}
}
