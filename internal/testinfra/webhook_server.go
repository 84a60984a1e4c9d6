// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// WebhookCapture represents a captured webhook request.
type WebhookCapture struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// MockWebhookServer provides a mock HTTP server for testing webhook deliveries.
// It captures all incoming requests for verification.
type MockWebhookServer struct {
	Server   *httptest.Server
	captures []WebhookCapture
	mu       sync.Mutex

	status int
}

// NewMockWebhookServer creates a new mock webhook server that answers every
// request with status. The server is closed when the test ends.
func NewMockWebhookServer(t *testing.T, status int) *MockWebhookServer {
	t.Helper()

	mws := &MockWebhookServer{
		status:   status,
		captures: make([]WebhookCapture, 0),
	}

	mws.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()

		mws.mu.Lock()
		mws.captures = append(mws.captures, WebhookCapture{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		code := mws.status
		mws.mu.Unlock()

		w.WriteHeader(code)
	}))
	t.Cleanup(mws.Server.Close)

	return mws
}

// URL returns the server URL.
func (m *MockWebhookServer) URL() string {
	return m.Server.URL
}

// SetStatus changes the status returned for subsequent requests.
func (m *MockWebhookServer) SetStatus(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = code
}

// Captures returns all captured requests.
func (m *MockWebhookServer) Captures() []WebhookCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]WebhookCapture, len(m.captures))
	copy(result, m.captures)
	return result
}

// WaitForCaptures waits until at least n requests are captured or timeout.
func (m *MockWebhookServer) WaitForCaptures(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		count := len(m.captures)
		m.mu.Unlock()
		if count >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
