package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"infinite-experiment/flightlog/internal/constants"
	"infinite-experiment/flightlog/internal/metrics"
)

const DefaultHistorianBaseURL = "https://www.flighthistorian.com"

// HistorianProvider implements RecentFlightsProvider for Flight Historian
type HistorianProvider struct {
	rest restClient
}

var _ RecentFlightsProvider = (*HistorianProvider)(nil)

// NewHistorianProvider creates a Flight Historian client
func NewHistorianProvider(baseURL, apiKey string, timeout time.Duration, m *metrics.MetricsRegistry) *HistorianProvider {
	if baseURL == "" {
		baseURL = DefaultHistorianBaseURL
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HistorianProvider{
		rest: restClient{
			provider:   constants.ProviderHistorian,
			baseURL:    strings.TrimRight(baseURL, "/"),
			apiKey:     apiKey,
			authHeader: "api-key",
			client:     &http.Client{Timeout: timeout},
			metrics:    m,
		},
	}
}

// GetProviderType returns the provider type identifier
func (p *HistorianProvider) GetProviderType() string {
	return constants.ProviderHistorian
}

// GetRecentFlights fetches the account's recently completed flights.
// The response is never cached; overlap with earlier calls is expected.
func (p *HistorianProvider) GetRecentFlights(ctx context.Context) ([]json.RawMessage, int, error) {
	var flights []json.RawMessage
	status, err := p.rest.doGET(ctx, "/api/recent_flights", &flights)
	if err != nil {
		return nil, status, err
	}
	return flights, status, nil
}
