// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/loglens/internal/ingest"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/validation"
)

// Error codes for API responses.
const (
	ErrCodeValidation        = validation.CodeValidationError
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeNoUsableRows      = "NO_USABLE_ROWS"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeUnavailable       = "SERVICE_UNAVAILABLE"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// ErrReportNotFound is returned for unknown or expired run IDs.
var ErrReportNotFound = errors.New("report not found")

// classifyError maps an analysis error to a status, code and client message.
// Internal errors get a generic message; the cause is only logged.
func classifyError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, models.ErrNoUsableRows):
		return http.StatusUnprocessableEntity, ErrCodeNoUsableRows, "No row has a parseable timestamp"
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, ErrCodeUnsupportedFormat, err.Error()
	case errors.Is(err, ErrReportNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "Report not found or expired"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, ErrCodeTimeout, "Analysis did not finish in time"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "Analysis failed"
	}
}
