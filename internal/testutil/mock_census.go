// Package testutil provides testing utilities for the ACS downloader.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockResponse defines the behavior of one mock census API endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockCensus is a configurable mock census API server for testing.
type MockCensus struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	LastQuery    url.Values
}

// NewMockCensus creates a new mock census API server.
func NewMockCensus() *MockCensus {
	mock := &MockCensus{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastQuery = r.URL.Query()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCensus) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCensus) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCensus) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastQuery = nil
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCensus) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCensus) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockCensus) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// DataPath returns the data endpoint path for a year and dataset.
func DataPath(year int, dataset string) string {
	return fmt.Sprintf("/data/%d/%s", year, dataset)
}

// GroupPath returns the group metadata path for a year, dataset and group.
func GroupPath(year int, dataset, group string) string {
	return fmt.Sprintf("/data/%d/%s/groups/%s.json", year, dataset, group)
}

// DataBody builds the API's array-of-arrays JSON body from a header and rows.
func DataBody(header []string, rows ...[]string) string {
	all := append([][]string{header}, rows...)
	b, err := json.Marshal(all)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// GroupBody builds a group metadata JSON body listing the given variables.
func GroupBody(vars ...string) string {
	variables := make(map[string]any, len(vars)+1)
	for _, v := range vars {
		variables[v] = map[string]string{"label": "Estimate!!" + v}
	}
	// The real endpoint lists NAME alongside the group's own variables.
	variables["NAME"] = map[string]string{"label": "Geographic Area Name"}

	b, err := json.Marshal(map[string]any{"variables": variables})
	if err != nil {
		panic(err)
	}
	return string(b)
}

// BlockGroupRow builds one data row for the standard column layout
// NAME, vars..., state, county, tract, block group.
func BlockGroupRow(name string, values []string, state, county, tract, blockGroup string) []string {
	row := append([]string{name}, values...)
	return append(row, state, county, tract, blockGroup)
}

// NewOKResponse creates a 200 response with the given body.
func NewOKResponse(body string) MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: body}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       "You have exceeded your request limit",
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal server error",
	}
}

// NewBadRequestResponse creates a 400 response as the API returns it for an
// unknown variable name.
func NewBadRequestResponse(variable string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       fmt.Sprintf("error: error: unknown variable '%s'", variable),
	}
}

// FlakyHandler fails with the given status n times, then serves body with
// status 200.
func FlakyHandler(failures int, failStatus int, body string) func(w http.ResponseWriter, r *http.Request) {
	var mu sync.Mutex
	count := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		n := count
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if n <= failures {
			w.WriteHeader(failStatus)
			w.Write([]byte("temporary failure"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}
