// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/stats"
)

// RequestMetrics is one observed request.
type RequestMetrics struct {
	Path       string    `json:"path"`
	Method     string    `json:"method"`
	DurationMS float64   `json:"duration_ms"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// EndpointStats aggregates the retained samples of one endpoint.
type EndpointStats struct {
	Endpoint     string  `json:"endpoint"`
	RequestCount int     `json:"request_count"`
	ErrorCount   int     `json:"error_count"`
	AvgDuration  float64 `json:"avg_duration_ms"`
	P50Duration  float64 `json:"p50_duration_ms"`
	P95Duration  float64 `json:"p95_duration_ms"`
	P99Duration  float64 `json:"p99_duration_ms"`
	MaxDuration  float64 `json:"max_duration_ms"`
}

// PerformanceMonitor keeps a sliding window of recent requests and logs slow
// ones. It backs the server's own latency endpoint.
type PerformanceMonitor struct {
	mu          sync.RWMutex
	samples     []RequestMetrics
	maxSamples  int
	slowRequest time.Duration
}

// NewPerformanceMonitor retains up to maxSamples requests. Requests slower
// than slow are logged at warn; zero disables the log.
func NewPerformanceMonitor(maxSamples int, slow time.Duration) *PerformanceMonitor {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &PerformanceMonitor{
		samples:     make([]RequestMetrics, 0, maxSamples),
		maxSamples:  maxSamples,
		slowRequest: slow,
	}
}

// RecordRequest adds a sample, dropping the oldest beyond capacity.
func (pm *PerformanceMonitor) RecordRequest(m *RequestMetrics) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.samples = append(pm.samples, *m)
	if len(pm.samples) > pm.maxSamples {
		pm.samples = pm.samples[len(pm.samples)-pm.maxSamples:]
	}
}

// GetStats returns per-endpoint statistics, busiest first.
func (pm *PerformanceMonitor) GetStats() []EndpointStats {
	pm.mu.RLock()
	durations := make(map[string][]float64)
	errCount := make(map[string]int)
	for _, m := range pm.samples {
		key := m.Method + " " + m.Path
		durations[key] = append(durations[key], m.DurationMS)
		if m.StatusCode >= http.StatusInternalServerError {
			errCount[key]++
		}
	}
	pm.mu.RUnlock()

	out := make([]EndpointStats, 0, len(durations))
	for endpoint, ds := range durations {
		sort.Float64s(ds)
		out = append(out, EndpointStats{
			Endpoint:     endpoint,
			RequestCount: len(ds),
			ErrorCount:   errCount[endpoint],
			AvgDuration:  stats.Round(stats.Mean(ds), 2),
			P50Duration:  stats.Round(stats.PercentileSorted(ds, 50), 2),
			P95Duration:  stats.Round(stats.PercentileSorted(ds, 95), 2),
			P99Duration:  stats.Round(stats.PercentileSorted(ds, 99), 2),
			MaxDuration:  ds[len(ds)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestCount != out[j].RequestCount {
			return out[i].RequestCount > out[j].RequestCount
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	return out
}

// GetRecentMetrics returns up to n of the newest samples, oldest first.
func (pm *PerformanceMonitor) GetRecentMetrics(n int) []RequestMetrics {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if n > len(pm.samples) {
		n = len(pm.samples)
	}
	recent := make([]RequestMetrics, n)
	copy(recent, pm.samples[len(pm.samples)-n:])
	return recent
}

// Middleware records every request passing through it.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		pm.RecordRequest(&RequestMetrics{
			Path:       routePattern(r),
			Method:     r.Method,
			DurationMS: float64(elapsed.Microseconds()) / 1000,
			StatusCode: status,
			Timestamp:  start,
		})

		if pm.slowRequest > 0 && elapsed > pm.slowRequest {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", elapsed).
				Dur("threshold", pm.slowRequest).
				Msg("slow request")
		}
	})
}
