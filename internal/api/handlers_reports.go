// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/loglens/internal/alerts"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/pipeline"
)

// AlertsResponse is the data member of the alert listing.
type AlertsResponse struct {
	RunID   string         `json:"run_id"`
	Alerts  []alerts.Alert `json:"alerts"`
	Summary alerts.Summary `json:"summary"`
}

// ListReports returns the IDs of cached reports, most recently used first.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ids := h.reports.Keys()
	respondSuccess(w, r, http.StatusOK, ids, models.Metadata{Count: intPtr(len(ids))})
}

// GetReport returns a cached report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.lookupReport(w, r)
	if !ok {
		return
	}
	respondSuccess(w, r, http.StatusOK, report, models.Metadata{Cached: true})
}

// ReportAlerts lists a report's alerts, optionally filtered by minimum
// severity and category.
func (h *Handler) ReportAlerts(w http.ResponseWriter, r *http.Request) {
	query, ok := parseAlertsQuery(w, r)
	if !ok {
		return
	}
	report, ok := h.lookupReport(w, r)
	if !ok {
		return
	}

	feed := filterAlerts(report.Alerts, query)
	respondSuccess(w, r, http.StatusOK, AlertsResponse{
		RunID:   report.RunID,
		Alerts:  feed,
		Summary: alerts.Summarize(feed),
	}, models.Metadata{Cached: true, Count: intPtr(len(feed))})
}

// ReportAlertsCSV exports a report's alerts as CSV. The filters of
// ReportAlerts apply.
func (h *Handler) ReportAlertsCSV(w http.ResponseWriter, r *http.Request) {
	query, ok := parseAlertsQuery(w, r)
	if !ok {
		return
	}
	report, ok := h.lookupReport(w, r)
	if !ok {
		return
	}

	data, err := alerts.ExportCSV(filterAlerts(report.Alerts, query))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "CSV export failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="loglens-alerts-%s.csv"`, report.RunID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) lookupReport(w http.ResponseWriter, r *http.Request) (*pipeline.Report, bool) {
	id := chi.URLParam(r, "id")
	report, ok := h.reports.Get(id)
	if !ok {
		status, code, message := classifyError(ErrReportNotFound)
		respondError(w, r, status, code, message, nil)
		return nil, false
	}
	return report, true
}

func parseAlertsQuery(w http.ResponseWriter, r *http.Request) (AlertsQuery, bool) {
	q := AlertsQuery{
		Severity: r.URL.Query().Get("severity"),
		Category: strings.ToLower(r.URL.Query().Get("category")),
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return q, false
	}
	return q, true
}

func filterAlerts(feed []alerts.Alert, q AlertsQuery) []alerts.Alert {
	minSeverity, _ := models.ParseSeverity(q.Severity)
	out := alerts.Filter(feed, minSeverity)
	if q.Category == "" {
		return out
	}
	kept := out[:0]
	for i := range out {
		if strings.EqualFold(string(out[i].Category), q.Category) {
			kept = append(kept, out[i])
		}
	}
	return kept
}
