// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package performance computes per-service latency and reliability findings.

For each service it reports latency percentiles, SLA breaches against the
configured objectives, a composite health score with a RAG status and the
likely bottlenecks. Hourly throughput and status-category breakdowns are
reported alongside.

Health score:

	score_errors  = (1 - clip(error_rate, 0, 0.1) / 0.1) × 100
	score_latency = clip(1 - (clip(avg_latency, 0, 2000) - 200) / 1800, 0, 1) × 100
	health        = 0.6 × score_errors + 0.4 × score_latency

A table without a service column is analyzed as the single service
"unknown-service".
*/
package performance
