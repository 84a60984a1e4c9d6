// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package middleware provides HTTP middleware for the LogLens API server.

All middleware has the chi signature func(http.Handler) http.Handler:

  - RequestID: X-Request-ID and X-Correlation-ID propagation into the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by route pattern
  - PerformanceMonitor.Middleware: sliding window of request latencies with slow-request logging

Typical stack, outermost first:

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(monitor.Middleware)

CORS, rate limiting and compression come from go-chi/cors, go-chi/httprate
and chi's own middleware package and are wired in internal/api.
*/
package middleware
