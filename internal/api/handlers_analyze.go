// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loglens/internal/ingest"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/risk"
)

// uploadField is the multipart field holding the log file.
const uploadField = "file"

// Analyze runs the pipeline over the records in the JSON body.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Server.MaxUploadBytes)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondBodyError(w, r, err, "Invalid JSON body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	table, quality, err := ingest.FromRecords(req.Events)
	if err != nil {
		respondAnalysisError(w, r, err)
		return
	}

	var signals risk.Signals
	if req.Signals != nil {
		signals = *req.Signals
	}
	h.runAndRespond(w, r, table, quality, signals)
}

// AnalyzeUpload runs the pipeline over an uploaded log file. The optional
// "signals" form field holds the signals JSON.
func (h *Handler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "File ingest is not configured", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.Server.MaxUploadBytes); err != nil {
		h.respondBodyError(w, r, err, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, fmt.Sprintf("Form field %q is required", uploadField), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondBodyError(w, r, err, "Could not read uploaded file")
		return
	}

	var signals risk.Signals
	if raw := r.FormValue("signals"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &signals); err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Invalid signals JSON", nil)
			return
		}
	}

	table, quality, err := h.reader.ReadBytes(r.Context(), header.Filename, data)
	if err != nil {
		respondAnalysisError(w, r, err)
		return
	}
	h.runAndRespond(w, r, table, quality, signals)
}

// runAndRespond runs the pipeline with the server timeout, caches the report,
// starts alert delivery and writes 201 with a Location header.
func (h *Handler) runAndRespond(w http.ResponseWriter, r *http.Request, table *models.EventTable, quality *models.QualityReport, signals risk.Signals) {
	ctx, cancel := context.WithTimeout(r.Context(), h.config.Server.Timeout)
	defer cancel()

	start := time.Now()
	report, err := h.pipeline.Run(ctx, table, signals)
	if err != nil {
		respondAnalysisError(w, r, err)
		return
	}
	report.Quality = quality

	h.reports.Add(report.RunID, report)
	h.notify(r.Context(), report)

	w.Header().Set("Location", "/api/v1/reports/"+report.RunID)
	respondSuccess(w, r, http.StatusCreated, report, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

// respondBodyError distinguishes oversized bodies from malformed ones.
func (h *Handler) respondBodyError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodeValidation,
			fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), nil)
		return
	}
	respondError(w, r, http.StatusBadRequest, ErrCodeValidation, message, nil)
}
