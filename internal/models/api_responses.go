// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package models

import (
	"time"
)

// Response status values.
const (
	StatusOK    = "success"
	StatusError = "error"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
//	{
//	  "status": "success",
//	  "data": {"run_id": "...", "alerts": [...]},
//	  "metadata": {"timestamp": "2026-05-01T12:00:00Z", "query_time_ms": 45}
//	}
//
// On failure Status is "error", Data is null and Error carries a stable code:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "error": {"code": "NO_USABLE_ROWS", "message": "no usable rows"},
//	  "metadata": {"timestamp": "2026-05-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata describes how a response was produced. QueryTimeMS is the pipeline
// time for fresh analyses and 0 for cached reports.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Count       *int      `json:"count,omitempty"`
}

// APIError is the error member of the envelope.
//
// Codes:
//   - VALIDATION_ERROR: malformed body, parameters or upload
//   - NOT_FOUND: unknown or expired report ID
//   - NO_USABLE_ROWS: the input had no row with a parseable timestamp
//   - UNSUPPORTED_FORMAT: upload extension is not csv, json or parquet
//   - RATE_LIMIT_EXCEEDED: per-IP limit reached
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is returned by the health endpoint.
type HealthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	CachedReports int     `json:"cached_reports"`
	Notifiers     int     `json:"notifiers"`
	Uptime        float64 `json:"uptime_seconds"`
}
