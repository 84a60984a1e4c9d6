// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto at
package init, so importing the package is enough to expose them.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8089/metrics

# Available Metrics

Ingest:
  - loglens_ingest_duration_seconds (histogram, labels: format)
  - loglens_ingest_rows_read_total (counter, labels: format)
  - loglens_ingest_rows_dropped_total (counter)
  - loglens_ingest_errors_total (counter, labels: format)

Pipeline:
  - loglens_pipeline_runs_total (counter, labels: result)
  - loglens_pipeline_duration_seconds (histogram)
  - loglens_pipeline_stage_duration_seconds (histogram, labels: stage)
  - loglens_events_processed_total (counter)

Detection and alerting:
  - loglens_detector_duration_seconds (histogram, labels: detector)
  - loglens_detections_total (counter, labels: detector, severity)
  - loglens_detector_errors_total (counter, labels: detector)
  - loglens_spikes_detected_total (counter, labels: metric)
  - loglens_alerts_generated_total (counter, labels: category, severity)
  - loglens_notifications_sent_total / loglens_notification_errors_total
    (counter, labels: notifier)

HTTP API:
  - api_requests_total (counter, labels: method, endpoint, status_code)
  - api_request_duration_seconds (histogram, labels: method, endpoint)
  - api_active_requests (gauge)
  - api_rate_limit_hits_total (counter, labels: endpoint)

Report cache and circuit breaker:
  - cache_hits_total, cache_misses_total, cache_evictions_total (counter, labels: cache)
  - cache_entries (gauge, labels: cache)
  - circuit_breaker_state (gauge, labels: name; 0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total (counter, labels: name, result)
  - circuit_breaker_state_transitions_total (counter, labels: name, from_state, to_state)

# Usage

	start := time.Now()
	findings, err := detector.Detect(ctx, table)
	metrics.RecordDetectorRun(string(detector.Type()), time.Since(start), err)
*/
package metrics
