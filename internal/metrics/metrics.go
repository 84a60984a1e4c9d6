// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest Metrics
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loglens_ingest_duration_seconds",
			Help:    "Duration of DuckDB log file reads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	IngestRowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loglens_ingest_rows_read_total",
			Help: "Total number of raw log rows read",
		},
		[]string{"format"},
	)

	IngestRowsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loglens_ingest_rows_dropped_total",
			Help: "Total number of rows dropped during normalization",
		},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loglens_ingest_errors_total",
			Help: "Total number of ingest failures",
		},
		[]string{"format"},
	)

	// Pipeline Metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loglens_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"result"}, // "success", "no_usable_rows", "error"
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loglens_pipeline_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loglens_pipeline_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	EventsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loglens_events_processed_total",
			Help: "Total number of normalized events analyzed",
		},
	)

	// Detector Metrics
	DetectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loglens_detector_duration_seconds",
			Help:    "Duration of a single detector pass in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"detector"},
	)

	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loglens_detections_total",
			Help: "Total number of security detections",
		},
		[]string{"detector", "severity"},
	)

	DetectorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loglens_detector_errors_total",
			Help: "Total number of detector failures",
		},
		[]string{"detector"},
	)

	SpikesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loglens_spikes_detected_total",
			Help: "Total number of z-score spikes detected",
		},
		[]string{"metric"}, // "latency", "error_rate", "service_latency"
	)

	// Alert Metrics
	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loglens_alerts_generated_total",
			Help: "Total number of alerts generated",
		},
		[]string{"category", "severity"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loglens_notifications_sent_total",
			Help: "Total number of alert notifications delivered",
		},
		[]string{"notifier"},
	)

	NotificationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loglens_notification_errors_total",
			Help: "Total number of failed alert notifications",
		},
		[]string{"notifier"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Report Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordIngest records one file read through DuckDB.
func RecordIngest(format string, rows, dropped int, duration time.Duration, err error) {
	IngestDuration.WithLabelValues(format).Observe(duration.Seconds())
	if err != nil {
		IngestErrors.WithLabelValues(format).Inc()
		return
	}
	IngestRowsRead.WithLabelValues(format).Add(float64(rows))
	IngestRowsDropped.Add(float64(dropped))
}

// RecordPipelineRun records a finished pipeline run. result is one of
// "success", "no_usable_rows" or "error".
func RecordPipelineRun(result string, events int, duration time.Duration) {
	PipelineRuns.WithLabelValues(result).Inc()
	PipelineDuration.Observe(duration.Seconds())
	EventsProcessed.Add(float64(events))
}

// RecordStage records the duration of one pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordDetectorRun records a detector pass and its error, if any.
func RecordDetectorRun(detector string, duration time.Duration, err error) {
	DetectorDuration.WithLabelValues(detector).Observe(duration.Seconds())
	if err != nil {
		DetectorErrors.WithLabelValues(detector).Inc()
	}
}

// RecordDetection counts one detection.
func RecordDetection(detector, severity string) {
	DetectionsTotal.WithLabelValues(detector, severity).Inc()
}

// RecordSpikes adds n spikes for a metric.
func RecordSpikes(metric string, n int) {
	if n > 0 {
		SpikesDetected.WithLabelValues(metric).Add(float64(n))
	}
}

// RecordAlert counts one generated alert.
func RecordAlert(category, severity string) {
	AlertsGenerated.WithLabelValues(category, severity).Inc()
}

// RecordNotification records a delivery attempt.
func RecordNotification(notifier string, err error) {
	if err != nil {
		NotificationErrors.WithLabelValues(notifier).Inc()
		return
	}
	NotificationsSent.WithLabelValues(notifier).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup records a hit or miss on a named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordRateLimitHit counts a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}
