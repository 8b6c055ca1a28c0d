package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"infinite-experiment/flightlog/internal/constants"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/metrics"
)

// restClient holds what both flight data providers share: a base URL, an
// API key sent in a provider-specific header and an optional pacing limiter.
type restClient struct {
	provider   string
	baseURL    string
	apiKey     string
	authHeader string
	client     *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.MetricsRegistry
}

// getBody performs an authenticated GET and returns the response body.
func (c *restClient) getBody(ctx context.Context, endpoint string) ([]byte, int, error) {
	if c.apiKey == "" {
		return nil, 0, &ProviderError{
			Code:    constants.ErrCodeMissingAPIKey,
			Message: fmt.Sprintf("%s: %s", c.provider, constants.GetErrorMessage(constants.ErrCodeMissingAPIKey)),
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, newProviderError(constants.ErrCodeNetworkError, err)
		}
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     err,
		}
	}
	req.Header.Set(c.authHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	logging.Debug("Provider request", "provider", c.provider, "endpoint", endpoint)
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveProviderRequest(c.provider, "error")
		return nil, 0, newProviderError(constants.ErrCodeNetworkError, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveProviderRequest(c.provider, strconv.Itoa(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to read response body",
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, c.buildHTTPError(resp.StatusCode, endpoint, string(body))
	}
	return body, resp.StatusCode, nil
}

// doGET performs a GET request and decodes the JSON body into result.
func (c *restClient) doGET(ctx context.Context, endpoint string, result interface{}) (int, error) {
	body, status, err := c.getBody(ctx, endpoint)
	if err != nil {
		return status, err
	}
	if err := decodeBody(body, result); err != nil {
		return status, err
	}
	return status, nil
}

func decodeBody(body []byte, result interface{}) error {
	if err := json.Unmarshal(body, result); err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeDecodeFailed,
			Message: "Failed to decode response",
			Details: truncate(string(body), 512),
			Err:     err,
		}
	}
	return nil
}

// buildHTTPError creates appropriate error based on status code
func (c *restClient) buildHTTPError(statusCode int, endpoint string, body string) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: fmt.Sprintf("%s rejected the API key for %s", c.provider, endpoint),
			Details: body,
		}
	case http.StatusNotFound:
		return &ProviderError{
			Code:    constants.ErrCodeResourceNotFound,
			Message: fmt.Sprintf("Resource not found: %s", endpoint),
			Details: body,
		}
	case http.StatusTooManyRequests:
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: body,
		}
	case http.StatusBadRequest:
		return &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: fmt.Sprintf("Bad request to %s", endpoint),
			Details: body,
		}
	default:
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: fmt.Sprintf("HTTP %d from %s %s", statusCode, c.provider, endpoint),
			Details: body,
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
