package wave

import (
	"errors"
	"fmt"
)

var (
	// ErrScanFailed matches every error that means WAVE did not produce a
	// report: API errors and unexpected HTTP statuses.
	ErrScanFailed = errors.New("wave scan failed")

	// ErrMissingAPIKey is returned when Scan is called without an API key.
	ErrMissingAPIKey = errors.New("wave api key is required")

	// ErrMissingURL is returned when Scan is called without a page URL.
	ErrMissingURL = errors.New("url to scan is required")
)

// APIError is an error reported by the WAVE API in the response body,
// such as an invalid key or exhausted credits.
type APIError struct {
	// Message is the API's explanation, suitable for showing to users.
	Message string
}

// Error implements error.
func (e *APIError) Error() string {
	return "wave api error: " + e.Message
}

// Is makes APIError match ErrScanFailed.
func (e *APIError) Is(target error) bool {
	return target == ErrScanFailed
}

// HTTPError is returned when the WAVE API answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
}

// Error implements error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("wave api returned HTTP %s", e.Status)
}

// Is makes HTTPError match ErrScanFailed.
func (e *HTTPError) Is(target error) bool {
	return target == ErrScanFailed
}
