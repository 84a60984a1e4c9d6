// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import "github.com/tomtom215/loglens/internal/risk"

// AnalyzeRequest is the body of POST /api/v1/analyze. Events are raw records
// with arbitrary column names; they are normalized like file rows.
type AnalyzeRequest struct {
	Events  []map[string]any `json:"events" validate:"required,min=1"`
	Signals *risk.Signals    `json:"signals,omitempty"`
}

// AlertsQuery holds the filters of GET /api/v1/reports/{id}/alerts.
// Category is lower-cased before validation.
type AlertsQuery struct {
	Severity string `validate:"omitempty,severity"`
	Category string `validate:"omitempty,oneof=security performance anomaly risk"`
}
