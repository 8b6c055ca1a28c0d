package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"infinite-experiment/flightlog/internal/common"
	"infinite-experiment/flightlog/internal/constants"
	"infinite-experiment/flightlog/internal/metrics"
	"infinite-experiment/flightlog/internal/models/dtos"
)

const (
	DefaultAeroAPIBaseURL = "https://aeroapi.flightaware.com/aeroapi"
	// DefaultAeroAPIInterval matches the Personal tier allowance.
	DefaultAeroAPIInterval = 8 * time.Second

	aeroCacheName = "aeroapi"
)

// AeroAPIOptions configures an AeroAPIProvider. Zero durations fall back to defaults,
// except MinInterval where a negative value disables pacing.
type AeroAPIOptions struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MinInterval time.Duration
	Cache       common.CacheInterface
	CacheTTL    time.Duration
	Metrics     *metrics.MetricsRegistry
}

// AeroAPIProvider implements FlightLookupProvider for FlightAware AeroAPI v4
type AeroAPIProvider struct {
	rest     restClient
	cache    common.CacheInterface
	cacheTTL time.Duration
	metrics  *metrics.MetricsRegistry
}

var _ FlightLookupProvider = (*AeroAPIProvider)(nil)

// NewAeroAPIProvider creates a provider whose requests share one limiter,
// so concurrent lookups are spaced by MinInterval.
func NewAeroAPIProvider(opts AeroAPIOptions) *AeroAPIProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAeroAPIBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MinInterval == 0 {
		opts.MinInterval = DefaultAeroAPIInterval
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Hour
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	return &AeroAPIProvider{
		rest: restClient{
			provider:   constants.ProviderAeroAPI,
			baseURL:    strings.TrimRight(opts.BaseURL, "/"),
			apiKey:     opts.APIKey,
			authHeader: "x-apikey",
			client:     &http.Client{Timeout: opts.Timeout},
			limiter:    rate.NewLimiter(limit, 1),
			metrics:    opts.Metrics,
		},
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		metrics:  opts.Metrics,
	}
}

// GetProviderType returns the provider type identifier
func (p *AeroAPIProvider) GetProviderType() string {
	return constants.ProviderAeroAPI
}

// GetFlights returns the raw flight objects for ident, newest first as
// AeroAPI orders them. An empty result is reported as NO_FLIGHTS_FOUND.
func (p *AeroAPIProvider) GetFlights(ctx context.Context, ident, identType string) ([]json.RawMessage, int, error) {
	ident = strings.ToUpper(strings.TrimSpace(ident))
	if ident == "" {
		return nil, 0, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Flight ident cannot be empty",
		}
	}

	endpoint := "/flights/" + url.PathEscape(ident)
	if identType != "" {
		endpoint += "?ident_type=" + url.QueryEscape(identType)
	}

	var resp dtos.AeroFlightsResponse
	status, err := p.cachedGET(ctx, constants.CachePrefixAeroFlights.Key(identType, ident), endpoint, &resp)
	if err != nil {
		return nil, status, err
	}
	if len(resp.Flights) == 0 {
		return nil, status, &ProviderError{
			Code:    constants.ErrCodeNoFlightsFound,
			Message: fmt.Sprintf("%s returned no flights for %s", constants.ProviderAeroAPI, ident),
		}
	}
	return resp.Flights, status, nil
}

// GetTrack returns the positions flown by one flight, surface movement included.
func (p *AeroAPIProvider) GetTrack(ctx context.Context, faFlightID string) (*dtos.AeroTrack, int, error) {
	if faFlightID == "" {
		return nil, 0, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "FlightAware flight id cannot be empty",
		}
	}

	endpoint := fmt.Sprintf("/flights/%s/track?include_estimated_positions=true&include_surface_positions=true", url.PathEscape(faFlightID))
	var track dtos.AeroTrack
	status, err := p.cachedGET(ctx, constants.CachePrefixAeroTrack.Key(faFlightID), endpoint, &track)
	if err != nil {
		return nil, status, err
	}
	return &track, status, nil
}

// GetAirport returns airport metadata, coordinates included, for an ICAO or IATA code.
func (p *AeroAPIProvider) GetAirport(ctx context.Context, code string) (*dtos.AeroAirportInfo, int, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, 0, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Airport code cannot be empty",
		}
	}

	var info dtos.AeroAirportInfo
	status, err := p.cachedGET(ctx, constants.CachePrefixAirport.Key("aero", code), "/airports/"+url.PathEscape(code), &info)
	if err != nil {
		return nil, status, err
	}
	return &info, status, nil
}

// cachedGET decodes the response for endpoint into result, serving it from
// the cache when possible. Bodies are cached as strings so both cache
// backends hand them back unchanged, and concurrent lookups of one key
// make a single request.
func (p *AeroAPIProvider) cachedGET(ctx context.Context, key, endpoint string, result interface{}) (int, error) {
	if p.cache == nil {
		return p.rest.doGET(ctx, endpoint, result)
	}

	status := http.StatusOK
	fetched := false
	v, err := p.cache.GetOrSet(key, p.cacheTTL, func() (any, error) {
		fetched = true
		body, code, err := p.rest.getBody(ctx, endpoint)
		status = code
		if err != nil {
			return nil, err
		}
		if !json.Valid(body) {
			return nil, decodeBody(body, result)
		}
		return string(body), nil
	})
	p.metrics.ObserveCache(aeroCacheName, !fetched)
	if err != nil {
		return status, err
	}

	body, ok := v.(string)
	if !ok {
		p.cache.Delete(key)
		return p.rest.doGET(ctx, endpoint, result)
	}
	return status, decodeBody([]byte(body), result)
}

// IsNotFound reports whether err means the provider has nothing for the lookup.
func IsNotFound(err error) bool {
	switch ErrorCode(err) {
	case constants.ErrCodeResourceNotFound, constants.ErrCodeNoFlightsFound:
		return true
	}
	return false
}
