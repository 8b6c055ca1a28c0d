package constants

// Flight data provider error codes

// Credential and transport errors
const (
	ErrCodeMissingAPIKey        = "MISSING_API_KEY"
	ErrCodeInvalidAPIKey        = "INVALID_API_KEY"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeNetworkError         = "NETWORK_ERROR"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
)

// Lookup errors
const (
	ErrCodeResourceNotFound = "RESOURCE_NOT_FOUND"
	ErrCodeNoFlightsFound   = "NO_FLIGHTS_FOUND"
	ErrCodeFlightInProgress = "FLIGHT_IN_PROGRESS"
)

// Data validation errors
const (
	ErrCodeInvalidDataFormat = "INVALID_DATA_FORMAT"
	ErrCodeDecodeFailed      = "DECODE_FAILED"
)

// Provider names as stored in flights.geom_source and metric labels
const (
	ProviderAeroAPI   = "FlightAware"
	ProviderHistorian = "FlightHistorian"
)

var DataProviderErrorMessages = map[string]string{
	ErrCodeMissingAPIKey:        "No API key is configured for this provider",
	ErrCodeInvalidAPIKey:        "The provider rejected the API key",
	ErrCodeRateLimited:          "Rate limit exceeded. Please try again later",
	ErrCodeNetworkError:         "Unable to reach the flight data provider. Please check your internet connection",
	ErrCodeAuthenticationFailed: "Authentication with the flight data provider failed",

	ErrCodeResourceNotFound: "The requested flight resource was not found",
	ErrCodeNoFlightsFound:   "The provider returned no flights for this lookup",
	ErrCodeFlightInProgress: "The flight has not completed yet",

	ErrCodeInvalidDataFormat: "The request or response data format is invalid",
	ErrCodeDecodeFailed:      "The provider response could not be decoded",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := DataProviderErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
