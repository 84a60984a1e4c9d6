// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package api serves the analysis pipeline over HTTP with the chi router.

Endpoints:

	GET  /api/v1/health                        liveness and cache/notifier status
	POST /api/v1/analyze                       {"events": [...], "signals": {...}} -> report
	POST /api/v1/analyze/upload                multipart "file" (csv, json, parquet) -> report
	GET  /api/v1/reports                       IDs of cached reports, newest first
	GET  /api/v1/reports/{id}                  cached report
	GET  /api/v1/reports/{id}/alerts           alert feed, ?severity= and ?category= filters
	GET  /api/v1/reports/{id}/alerts.csv       alert feed as CSV
	GET  /api/v1/server/performance            request latency by route
	GET  /metrics                              Prometheus

Every JSON response uses the models.APIResponse envelope. Errors carry a
stable code (VALIDATION_ERROR, NOT_FOUND, NO_USABLE_ROWS, UNSUPPORTED_FORMAT,
RATE_LIMIT_EXCEEDED, TIMEOUT, INTERNAL_ERROR).

Finished reports are kept in an LRU keyed by run ID. When a dispatcher is
configured, alerts of each new report are delivered to the notifiers in the
background after the response is written.
*/
package api
