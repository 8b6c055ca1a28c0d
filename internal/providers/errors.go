package providers

import (
	"errors"
	"fmt"

	"infinite-experiment/flightlog/internal/constants"
)

var (
	// ErrFlightInProgress marks a provider flight that has not arrived yet.
	ErrFlightInProgress = errors.New("flight has not completed")
	ErrFlightCancelled  = errors.New("flight was cancelled")
)

// ProviderError represents a provider-specific error
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(code string, err error) *ProviderError {
	return &ProviderError{
		Code:    code,
		Message: constants.GetErrorMessage(code),
		Err:     err,
	}
}

// ErrorCode returns the provider error code carried anywhere in err's chain.
func ErrorCode(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
