// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// histogramCount returns the sample count of one histogram series.
func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	m, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T is not a metric", o)
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return out.GetHistogram().GetSampleCount()
}

// TestRecordIngest tests ingest metric recording
func TestRecordIngest(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		rows        int
		dropped     int
		err         error
		wantRows    float64
		wantErrors  float64
		wantSamples uint64
	}{
		{
			name:        "successful csv read",
			format:      "csv_test",
			rows:        120,
			dropped:     3,
			wantRows:    120,
			wantSamples: 1,
		},
		{
			name:        "failed json read",
			format:      "json_test",
			rows:        50,
			err:         errors.New("read_json_auto: malformed"),
			wantErrors:  1,
			wantSamples: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordIngest(tt.format, tt.rows, tt.dropped, 10*time.Millisecond, tt.err)

			if got := testutil.ToFloat64(IngestRowsRead.WithLabelValues(tt.format)); got != tt.wantRows {
				t.Errorf("rows read = %v, want %v", got, tt.wantRows)
			}
			if got := testutil.ToFloat64(IngestErrors.WithLabelValues(tt.format)); got != tt.wantErrors {
				t.Errorf("errors = %v, want %v", got, tt.wantErrors)
			}
			if got := histogramCount(t, IngestDuration.WithLabelValues(tt.format)); got != tt.wantSamples {
				t.Errorf("duration samples = %d, want %d", got, tt.wantSamples)
			}
		})
	}
}

// TestRecordPipelineRun tests pipeline run counters
func TestRecordPipelineRun(t *testing.T) {
	before := testutil.ToFloat64(PipelineRuns.WithLabelValues("success"))
	eventsBefore := testutil.ToFloat64(EventsProcessed)

	RecordPipelineRun("success", 100, 50*time.Millisecond)
	RecordPipelineRun("no_usable_rows", 0, time.Millisecond)

	if got := testutil.ToFloat64(PipelineRuns.WithLabelValues("success")) - before; got != 1 {
		t.Errorf("success runs delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(EventsProcessed) - eventsBefore; got != 100 {
		t.Errorf("events delta = %v, want 100", got)
	}
}

// TestRecordDetectorRun tests detector duration and error recording
func TestRecordDetectorRun(t *testing.T) {
	RecordDetectorRun("detector_test", time.Millisecond, nil)
	RecordDetectorRun("detector_test", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(DetectorErrors.WithLabelValues("detector_test")); got != 1 {
		t.Errorf("detector errors = %v, want 1", got)
	}
	if got := histogramCount(t, DetectorDuration.WithLabelValues("detector_test")); got != 2 {
		t.Errorf("duration samples = %d, want 2", got)
	}
}

// TestRecordDetection tests per-severity detection counts
func TestRecordDetection(t *testing.T) {
	RecordDetection("bf_test", "CRITICAL")
	RecordDetection("bf_test", "CRITICAL")
	RecordDetection("bf_test", "WARNING")

	if got := testutil.ToFloat64(DetectionsTotal.WithLabelValues("bf_test", "CRITICAL")); got != 2 {
		t.Errorf("critical = %v, want 2", got)
	}
	if got := testutil.ToFloat64(DetectionsTotal.WithLabelValues("bf_test", "WARNING")); got != 1 {
		t.Errorf("warning = %v, want 1", got)
	}
}

// TestRecordSpikes verifies zero counts are not recorded
func TestRecordSpikes(t *testing.T) {
	RecordSpikes("spike_test", 0)
	RecordSpikes("spike_test", 3)

	if got := testutil.ToFloat64(SpikesDetected.WithLabelValues("spike_test")); got != 3 {
		t.Errorf("spikes = %v, want 3", got)
	}
}

// TestRecordNotification tests delivery success and failure counters
func TestRecordNotification(t *testing.T) {
	RecordNotification("notify_test", nil)
	RecordNotification("notify_test", errors.New("timeout"))
	RecordNotification("notify_test", nil)

	if got := testutil.ToFloat64(NotificationsSent.WithLabelValues("notify_test")); got != 2 {
		t.Errorf("sent = %v, want 2", got)
	}
	if got := testutil.ToFloat64(NotificationErrors.WithLabelValues("notify_test")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
	}{
		{name: "health", method: "GET", endpoint: "/api/v1/health", statusCode: "200"},
		{name: "analyze", method: "POST", endpoint: "/api/v1/analyze", statusCode: "200"},
		{name: "missing report", method: "GET", endpoint: "/api/v1/reports/{id}", statusCode: "404"},
		{name: "rate limited", method: "POST", endpoint: "/api/v1/analyze/upload", statusCode: "429"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.statusCode))
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, 5*time.Millisecond)
			after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.statusCode))
			if after-before != 1 {
				t.Errorf("request count delta = %v, want 1", after-before)
			}
		})
	}
}

// TestTrackActiveRequest_RequestLifecycle simulates realistic request lifecycle
func TestTrackActiveRequest_RequestLifecycle(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)

	for i := 0; i < 10; i++ {
		TrackActiveRequest(true)
	}
	if got := testutil.ToFloat64(APIActiveRequests) - start; got != 10 {
		t.Errorf("active delta = %v, want 10", got)
	}

	for i := 0; i < 10; i++ {
		TrackActiveRequest(false)
	}
	if got := testutil.ToFloat64(APIActiveRequests); got != start {
		t.Errorf("active = %v, want %v", got, start)
	}
}

// TestRecordCacheLookup tests hit and miss counters
func TestRecordCacheLookup(t *testing.T) {
	RecordCacheLookup("reports_test", true)
	RecordCacheLookup("reports_test", false)
	RecordCacheLookup("reports_test", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("reports_test")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("reports_test")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestRecordRateLimitHit(t *testing.T) {
	before := testutil.ToFloat64(APIRateLimitHits.WithLabelValues("/rl_test"))
	RecordRateLimitHit("/rl_test")
	if got := testutil.ToFloat64(APIRateLimitHits.WithLabelValues("/rl_test")) - before; got != 1 {
		t.Errorf("rate limit hits delta = %v, want 1", got)
	}
}

// TestConcurrentMetricRecording tests thread safety of metric recording
func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	numGoroutines := 50
	operationsPerGoroutine := 20

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordDetection("concurrent_test", "WARNING")
				RecordAlert("Security", "WARNING")
				TrackActiveRequest(true)
				TrackActiveRequest(false)
			}
		}()
	}
	wg.Wait()

	want := float64(numGoroutines * operationsPerGoroutine)
	if got := testutil.ToFloat64(DetectionsTotal.WithLabelValues("concurrent_test", "WARNING")); got != want {
		t.Errorf("detections = %v, want %v", got, want)
	}
}

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		IngestDuration,
		IngestRowsRead,
		IngestRowsDropped,
		IngestErrors,
		PipelineRuns,
		PipelineDuration,
		PipelineStageDuration,
		EventsProcessed,
		DetectorDuration,
		DetectionsTotal,
		DetectorErrors,
		SpikesDetected,
		AlertsGenerated,
		NotificationsSent,
		NotificationErrors,
		APIRequestsTotal,
		APIRequestDuration,
		APIActiveRequests,
		APIRateLimitHits,
		CacheHits,
		CacheMisses,
		CacheSize,
		CacheEvictions,
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerTransitions,
		AppInfo,
	}

	for _, m := range collectors {
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("Metric has no descriptors")
		}
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	RecordStage("security", time.Millisecond)
	RecordAPIRequest("GET", "/test", "200", time.Millisecond)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}

func BenchmarkRecordDetection(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordDetection("brute_force", "WARNING")
	}
}

func BenchmarkRecordAPIRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordAPIRequest("GET", "/api/v1/health", "200", 25*time.Millisecond)
	}
}
