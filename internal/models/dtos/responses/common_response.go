package responses

import "time"

// APIResponse wraps every JSON body except GeoJSON and health.
type APIResponse[T any] struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
	Data      *T        `json:"data,omitempty"`
}
