package census

import (
	"errors"
	"fmt"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{
			name:       "client error should not retry",
			errorClass: ErrorClassClient,
			expected:   false,
		},
		{
			name:       "server error should retry",
			errorClass: ErrorClassServer,
			expected:   true,
		},
		{
			name:       "rate limit should retry",
			errorClass: ErrorClassRateLimit,
			expected:   true,
		},
		{
			name:       "network error should retry",
			errorClass: ErrorClassNetwork,
			expected:   true,
		},
		{
			name:       "empty error class should not retry",
			errorClass: "",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shouldRetry(tt.errorClass)
			if result != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, result, tt.expected)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name: "status error",
			apiError: &APIError{
				StatusCode: 500,
				Class:      ErrorClassServer,
				Message:    "Internal server error",
			},
			expected: "census API server error (status 500): Internal server error",
		},
		{
			name: "rejection",
			apiError: &APIError{
				StatusCode: 400,
				Class:      ErrorClassClient,
				Message:    "error: unknown variable 'B99999_001E'",
			},
			expected: "census API client error (status 400): error: unknown variable 'B99999_001E'",
		},
		{
			name: "network error with cause",
			apiError: &APIError{
				Class: ErrorClassNetwork,
				Err:   errors.New("connection refused"),
			},
			expected: "census API network error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.apiError.Error()
			if result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	wrappedErr := errors.New("wrapped error")
	apiErr := &APIError{
		Class: ErrorClassNetwork,
		Err:   wrappedErr,
	}

	if unwrapped := apiErr.Unwrap(); unwrapped != wrappedErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, wrappedErr)
	}

	if !errors.Is(apiErr, wrappedErr) {
		t.Error("errors.Is should work with wrapped error")
	}
}

func TestClassify(t *testing.T) {
	apiErr := &APIError{StatusCode: 503, Class: ErrorClassServer}

	if got := classify(apiErr); got != ErrorClassServer {
		t.Errorf("classify(APIError) = %q, want %q", got, ErrorClassServer)
	}

	wrapped := fmt.Errorf("fetch chunk 2: %w", apiErr)
	if got := classify(wrapped); got != ErrorClassServer {
		t.Errorf("classify(wrapped APIError) = %q, want %q", got, ErrorClassServer)
	}

	if got := classify(errors.New("parse failure")); got != "" {
		t.Errorf("classify(plain error) = %q, want empty class", got)
	}
}
