// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/loglens/internal/alerts"
	"github.com/tomtom215/loglens/internal/cache"
	"github.com/tomtom215/loglens/internal/config"
	"github.com/tomtom215/loglens/internal/ingest"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/middleware"
	"github.com/tomtom215/loglens/internal/pipeline"
)

// reportCacheName labels the report cache metrics.
const reportCacheName = "reports"

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, notification fan-out (this file)
//   - handlers_helpers.go: envelope and validation helpers
//   - handlers_health.go: health and server performance
//   - handlers_analyze.go: JSON and upload analysis
//   - handlers_reports.go: cached reports, alert listing and CSV export
type Handler struct {
	config     *config.Config
	pipeline   *pipeline.Pipeline
	reader     *ingest.Reader
	dispatcher *alerts.Dispatcher
	reports    *cache.LRU[*pipeline.Report]
	perfMon    *middleware.PerformanceMonitor
	startTime  time.Time
	version    string

	notifications sync.WaitGroup
}

// NewHandler creates the API handler. reader may be nil, which disables the
// upload endpoint; dispatcher may be nil, which disables alert delivery.
//
//	handler := api.NewHandler(cfg, p, reader, dispatcher)
//	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Server))
//	http.ListenAndServe(addr, router.SetupChi())
func NewHandler(cfg *config.Config, p *pipeline.Pipeline, reader *ingest.Reader, dispatcher *alerts.Dispatcher) *Handler {
	return &Handler{
		config:     cfg,
		pipeline:   p,
		reader:     reader,
		dispatcher: dispatcher,
		reports:    cache.NewLRU[*pipeline.Report](reportCacheName, cfg.Server.ReportCacheSize, cfg.Server.ReportCacheTTL),
		perfMon:    middleware.NewPerformanceMonitor(1000, cfg.Server.Timeout/2),
		startTime:  time.Now(),
		version:    "dev",
	}
}

// WithVersion sets the version reported by the health endpoint.
func (h *Handler) WithVersion(v string) *Handler {
	h.version = v
	return h
}

// Reports exposes the report cache so its janitor can be supervised.
func (h *Handler) Reports() *cache.LRU[*pipeline.Report] {
	return h.reports
}

// WaitForNotifications blocks until background alert deliveries finish or
// ctx ends.
func (h *Handler) WaitForNotifications(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.notifications.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notify delivers the report's alerts in the background. Delivery outlives
// the request but is bounded by the server timeout.
func (h *Handler) notify(ctx context.Context, report *pipeline.Report) {
	if h.dispatcher == nil || h.dispatcher.Active() == 0 || len(report.Alerts) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	h.notifications.Add(1)
	go func() {
		defer h.notifications.Done()
		ctx, cancel := context.WithTimeout(ctx, h.config.Server.Timeout)
		defer cancel()

		stats := h.dispatcher.Notify(ctx, report.Alerts)
		logging.Ctx(ctx).Info().
			Str("run_id", report.RunID).
			Int("sent", stats.Sent).
			Int("failed", stats.Failed).
			Msg("alerts delivered")
	}()
}
