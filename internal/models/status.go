// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package models

import (
	"math"
	"strconv"
	"strings"
)

// StatusCategory is the coarse class of a response status.
type StatusCategory string

// Status categories. StatusFailure only arises from keyword statuses such as
// "denied" that carry no numeric code.
const (
	StatusSuccess     StatusCategory = "success"
	StatusRedirect    StatusCategory = "redirect"
	StatusClientError StatusCategory = "client_error"
	StatusServerError StatusCategory = "server_error"
	StatusFailure     StatusCategory = "failure"
	StatusOther       StatusCategory = "other"
	StatusUnknown     StatusCategory = "unknown"
)

// IsFailure reports whether the category counts as a failed request.
func (c StatusCategory) IsFailure() bool {
	switch c {
	case StatusClientError, StatusServerError, StatusFailure:
		return true
	default:
		return false
	}
}

var (
	successKeywords = map[string]bool{"success": true, "ok": true, "succeeded": true, "allowed": true}
	failureKeywords = map[string]bool{
		"fail": true, "failed": true, "failure": true, "error": true, "denied": true,
		"unauthorized": true, "forbidden": true, "blocked": true,
	}
)

// ClassifyStatus parses a raw status value and returns its numeric code (0 when
// not numeric) and category. Numeric values such as "404" or "404.0" use the
// HTTP ranges; anything else falls back to keyword matching.
func ClassifyStatus(raw string) (int, StatusCategory) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, StatusUnknown
	}

	if code, ok := parseStatusCode(s); ok {
		return code, CategoryForCode(code)
	}

	lower := strings.ToLower(s)
	switch {
	case successKeywords[lower]:
		return 0, StatusSuccess
	case failureKeywords[lower]:
		return 0, StatusFailure
	default:
		return 0, StatusOther
	}
}

// CategoryForCode maps a numeric HTTP status to its category.
func CategoryForCode(code int) StatusCategory {
	switch {
	case code >= 200 && code < 300:
		return StatusSuccess
	case code >= 300 && code < 400:
		return StatusRedirect
	case code >= 400 && code < 500:
		return StatusClientError
	case code >= 500 && code < 600:
		return StatusServerError
	default:
		return StatusOther
	}
}

func parseStatusCode(s string) (int, bool) {
	if code, err := strconv.Atoi(s); err == nil {
		return code, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
