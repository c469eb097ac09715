package census

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrFetchExhausted is returned when all retry attempts are exhausted.
	ErrFetchExhausted = errors.New("fetch retries exhausted")

	// ErrFetchRejected is returned on a non-retryable API rejection
	// (4xx other than rate limiting, e.g. a bad credential or variable name).
	ErrFetchRejected = errors.New("fetch rejected by API")

	// ErrFetchMalformed is returned when a response body cannot be parsed
	// into the expected array-of-arrays shape.
	ErrFetchMalformed = errors.New("malformed API response")

	// ErrContextCancelled is returned when the context is cancelled during
	// retry backoff.
	ErrContextCancelled = errors.New("context cancelled")
)

// APIError represents an upstream API error with its classification.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("census API %s error: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("census API %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// shouldRetry determines if an error should be retried based on its
// classification.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassClient:
		// 4xx rejections cannot succeed on a second attempt
		return false
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// classify extracts the error class from an attempt error. Anything that is
// not an APIError (parse failures and the like) is never retried.
func classify(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ""
}
