// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package validation wraps go-playground/validator v10 in a process-wide
// singleton shared by configuration loading and HTTP request decoding.
//
// Failures are translated to readable messages and, for the API, to a
// VALIDATION_ERROR body:
//
//	type AnalyzeQuery struct {
//	    Severity string `validate:"omitempty,severity"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// Besides the built-in tags the validator knows "severity" (INFO, WARNING or
// CRITICAL in any case) and "ascending" (a strictly increasing []float64, used
// for tier edges).
package validation
