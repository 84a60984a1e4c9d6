// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/loglens/internal/models"
)

// Health reports liveness together with cache and notifier state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	notifiers := 0
	if h.dispatcher != nil {
		notifiers = h.dispatcher.Active()
	}

	respondSuccess(w, r, http.StatusOK, models.HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		CachedReports: h.reports.Len(),
		Notifiers:     notifiers,
		Uptime:        time.Since(h.startTime).Seconds(),
	}, models.Metadata{})
}

// ServerPerformance returns request latency statistics per route.
func (h *Handler) ServerPerformance(w http.ResponseWriter, r *http.Request) {
	stats := h.perfMon.GetStats()
	respondSuccess(w, r, http.StatusOK, stats, models.Metadata{Count: intPtr(len(stats))})
}
