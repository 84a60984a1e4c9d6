// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name       string
		incoming   string
		wantReused bool
	}{
		{"generated when absent", "", false},
		{"client ID reused", "req-abc_123.4", true},
		{"unsafe client ID replaced", "bad id\nforged", false},
		{"overlong client ID replaced", strings.Repeat("a", maxIDLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxID, chiID, corrID string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = GetRequestID(r.Context())
				chiID = chimiddleware.GetReqID(r.Context())
				corrID = logging.CorrelationIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			if got == "" {
				t.Fatal("X-Request-ID response header is empty")
			}
			if (got == tt.incoming) != tt.wantReused {
				t.Errorf("X-Request-ID = %q, incoming %q, wantReused %v", got, tt.incoming, tt.wantReused)
			}
			if ctxID != got || chiID != got {
				t.Errorf("context IDs = %q/%q, want %q", ctxID, chiID, got)
			}
			if corrID == "" || rec.Header().Get(HeaderCorrelationID) != corrID {
				t.Errorf("correlation ID = %q, header %q", corrID, rec.Header().Get(HeaderCorrelationID))
			}
		})
	}
}

func TestRequestID_CorrelationPropagated(t *testing.T) {
	var corrID string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corrID = logging.CorrelationIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "upstream-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if corrID != "upstream-42" {
		t.Errorf("correlation ID = %q, want upstream-42", corrID)
	}
}

func newRoutedServer(h func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(h)
	r.Get("/api/v1/reports/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

func TestPrometheusMetrics_RoutePatternLabel(t *testing.T) {
	srv := newRoutedServer(PrometheusMetrics)
	const pattern = "/api/v1/reports/{id}"
	before200 := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, pattern, "200"))
	before404 := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, pattern, "404"))

	for _, id := range []string{"a1", "b2", "missing"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+id, nil))
	}

	if got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, pattern, "200")) - before200; got != 2 {
		t.Errorf("200 count delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, pattern, "404")) - before404; got != 1 {
		t.Errorf("404 count delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.APIActiveRequests); got != 0 {
		t.Errorf("active requests = %v after completion, want 0", got)
	}
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	h := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "200"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "200")) - before; got != 1 {
		t.Errorf("unmatched count delta = %v, want 1", got)
	}
}

func TestPerformanceMonitor_Middleware(t *testing.T) {
	pm := NewPerformanceMonitor(10, 0)
	srv := newRoutedServer(pm.Middleware)

	for _, path := range []string{"/api/v1/reports/a", "/api/v1/reports/b", "/boom"} {
		srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := pm.GetStats()
	if len(got) != 2 {
		t.Fatalf("GetStats() = %d endpoints, want 2", len(got))
	}
	if got[0].Endpoint != "GET /api/v1/reports/{id}" || got[0].RequestCount != 2 {
		t.Errorf("busiest = %+v, want reports pattern with 2 requests", got[0])
	}
	if got[1].Endpoint != "GET /boom" || got[1].ErrorCount != 1 {
		t.Errorf("second = %+v, want /boom with 1 error", got[1])
	}
}

func TestPerformanceMonitor_Window(t *testing.T) {
	pm := NewPerformanceMonitor(3, 0)
	for i := 1; i <= 5; i++ {
		pm.RecordRequest(&RequestMetrics{Path: "/x", Method: http.MethodGet, DurationMS: float64(i * 10), StatusCode: 200, Timestamp: time.Now()})
	}

	recent := pm.GetRecentMetrics(10)
	if len(recent) != 3 {
		t.Fatalf("GetRecentMetrics() = %d samples, want 3", len(recent))
	}
	if recent[0].DurationMS != 30 || recent[2].DurationMS != 50 {
		t.Errorf("window = %v..%v, want 30..50", recent[0].DurationMS, recent[2].DurationMS)
	}

	s := pm.GetStats()[0]
	if s.AvgDuration != 40 || s.P50Duration != 40 || s.MaxDuration != 50 {
		t.Errorf("stats = %+v, want avg 40, p50 40, max 50", s)
	}
}

func TestNewPerformanceMonitor_Default(t *testing.T) {
	if pm := NewPerformanceMonitor(0, 0); pm.maxSamples != 1000 {
		t.Errorf("maxSamples = %d, want 1000", pm.maxSamples)
	}
}
