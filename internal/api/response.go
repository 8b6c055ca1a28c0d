package api

import (
	"encoding/json"
	"net/http"
	"time"

	"infinite-experiment/flightlog/internal/constants"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/middleware"
	"infinite-experiment/flightlog/internal/models/dtos/responses"
)

func writeJSON(w http.ResponseWriter, statusCode int, contentType string, body interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

func respondWithSuccess[T any](w http.ResponseWriter, r *http.Request, statusCode int, data *T) {
	writeJSON(w, statusCode, "application/json", responses.APIResponse[T]{
		Status:    string(constants.APIStatusOk),
		RequestID: middleware.RequestID(r.Context()),
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

func respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, statusCode, "application/json", responses.APIResponse[any]{
		Status:    string(constants.APIStatusError),
		RequestID: middleware.RequestID(r.Context()),
		Timestamp: time.Now().UTC(),
		Error:     message,
	})
}
