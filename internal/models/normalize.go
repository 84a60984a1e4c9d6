// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/loglens/internal/stats"
)

// RawRecord is one source row keyed by source column name with text values.
type RawRecord map[string]string

// ColumnAliases lists the accepted source header names for each canonical column.
// Header matching is exact after lower-casing and replacing spaces and dashes
// with underscores.
var ColumnAliases = map[Column][]string{
	ColTimestamp: {"timestamp", "time", "datetime", "date", "login_time", "event_time", "created_at", "log_time"},
	ColUserID:    {"user_id", "user", "username", "user_name", "uid", "account", "login"},
	ColIPAddress: {"ip_address", "ip", "src_ip", "source_ip", "client_ip", "remote_addr"},
	ColStatus:    {"status", "status_code", "http_status", "response_code", "result", "outcome"},
	ColMethod:    {"method", "http_method", "request_method", "action", "operation"},
	ColEndpoint:  {"endpoint", "path", "url", "uri", "request_path", "route", "resource"},
	ColService:   {"service", "service_name", "app", "application", "module", "component"},
	ColLatency:   {"latency_ms", "latency", "response_time", "duration", "elapsed_ms", "time_ms", "response_time_ms"},
	ColCountry:   {"country", "geo_country", "location", "region", "geo"},
	ColUserAgent: {"user_agent", "ua", "browser", "client"},
	ColSessionID: {"session_id", "session", "sid", "request_id"},
	ColBytesSent: {"bytes_sent", "bytes", "response_size", "size", "content_length"},
}

// Fill values for text columns that are present in the source but empty in a row.
const (
	DefaultUserID    = "unknown"
	DefaultIPAddress = "0.0.0.0"
	DefaultMethod    = "GET"
	DefaultEndpoint  = "/unknown"
	DefaultService   = "unknown-service"
	DefaultCountry   = "UNKNOWN"
	DefaultUserAgent = "unknown"
	DefaultSessionID = "unknown"
)

// IsUnknownCountry reports whether a country value is a placeholder.
func IsUnknownCountry(c string) bool {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case "", "unknown", "n/a", "-":
		return true
	default:
		return false
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"02/Jan/2006:15:04:05 -0700",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02",
}

// minEpochSeconds rejects small numbers in a timestamp column as epochs.
// 1e9 is 2001-09-09.
const minEpochSeconds = 1e9

// ParseTimestamp accepts the common log timestamp layouts and Unix epoch
// seconds or milliseconds from 2001 on. Zones default to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && n >= minEpochSeconds {
		if n > 1e12 {
			return time.UnixMilli(int64(n)).UTC(), nil
		}
		sec, frac := math.Modf(n)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// MapColumns resolves source headers to canonical columns. The first header
// matching an alias wins and each header is used at most once.
func MapColumns(headers []string) map[Column]string {
	used := make(map[string]bool, len(headers))
	mapping := make(map[Column]string, len(AllColumns))
	for _, col := range AllColumns {
		for _, h := range headers {
			if used[h] {
				continue
			}
			if matchesAlias(h, ColumnAliases[col]) {
				mapping[col] = h
				used[h] = true
				break
			}
		}
	}
	return mapping
}

func matchesAlias(header string, aliases []string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	for _, a := range aliases {
		if h == a {
			return true
		}
	}
	return false
}

// QualityReport summarizes what normalization found and repaired.
type QualityReport struct {
	TotalRows       int       `json:"total_rows"`
	UsableRows      int       `json:"usable_rows"`
	DroppedRows     int       `json:"dropped_rows"`
	Columns         []Column  `json:"columns"`
	MissingColumns  []Column  `json:"missing_columns"`
	FilledLatency   int       `json:"filled_latency"`
	NegativeLatency int       `json:"negative_latency"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	SpanHours       float64   `json:"span_hours"`
	QualityScore    float64   `json:"quality_score"`
	Issues          []string  `json:"issues"`
}

// Normalize converts raw rows into an EventTable. Rows whose timestamp cannot
// be parsed are dropped; if none survive, or no timestamp column exists, the
// error wraps ErrNoUsableRows.
//
//nolint:gocyclo // one pass over every schema column
func Normalize(headers []string, rows []RawRecord) (*EventTable, *QualityReport, error) {
	mapping := MapColumns(headers)
	report := &QualityReport{TotalRows: len(rows), Issues: []string{}}

	tsCol, ok := mapping[ColTimestamp]
	if !ok {
		return nil, report, fmt.Errorf("%w: no timestamp column among %v", ErrNoUsableRows, headers)
	}

	present := make([]Column, 0, len(mapping))
	for _, c := range AllColumns {
		if _, ok := mapping[c]; ok {
			present = append(present, c)
		} else {
			report.MissingColumns = append(report.MissingColumns, c)
		}
	}
	report.Columns = present

	nulls := make(map[Column]int, len(present))
	field := func(row RawRecord, c Column, def string) string {
		src, ok := mapping[c]
		if !ok {
			return def
		}
		v := strings.TrimSpace(row[src])
		if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "nan") {
			nulls[c]++
			return def
		}
		return v
	}

	events := make([]Event, 0, len(rows))
	latencyMissing := make([]bool, 0, len(rows))
	observed := make([]float64, 0, len(rows))

	for _, row := range rows {
		ts, err := ParseTimestamp(row[tsCol])
		if err != nil {
			report.DroppedRows++
			continue
		}

		e := Event{
			Timestamp: ts,
			UserID:    field(row, ColUserID, DefaultUserID),
			IPAddress: field(row, ColIPAddress, DefaultIPAddress),
			Method:    strings.ToUpper(field(row, ColMethod, DefaultMethod)),
			Endpoint:  field(row, ColEndpoint, DefaultEndpoint),
			Service:   field(row, ColService, DefaultService),
			Country:   field(row, ColCountry, DefaultCountry),
			UserAgent: field(row, ColUserAgent, DefaultUserAgent),
			SessionID: field(row, ColSessionID, DefaultSessionID),
		}

		missing := true
		if raw := field(row, ColLatency, ""); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) {
				if v < 0 {
					report.NegativeLatency++
					v = 0
				}
				e.LatencyMs = v
				observed = append(observed, v)
				missing = false
			}
		}

		if raw := field(row, ColBytesSent, ""); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
				e.BytesSent = int64(v)
			}
		}

		e.Derive(field(row, ColStatus, ""))
		events = append(events, e)
		latencyMissing = append(latencyMissing, missing)
	}

	if _, hasLatency := mapping[ColLatency]; hasLatency {
		median := stats.Median(observed)
		for i, m := range latencyMissing {
			if m {
				events[i].LatencyMs = median
				report.FilledLatency++
			}
		}
	}

	table, err := NewEventTable(events, present...)
	if err != nil {
		return nil, report, fmt.Errorf("%w: %d of %d rows had unparseable timestamps", ErrNoUsableRows, report.DroppedRows, report.TotalRows)
	}

	report.UsableRows = table.Len()
	report.Start, report.End = table.TimeRange()
	report.SpanHours = stats.Round(report.End.Sub(report.Start).Hours(), 1)
	report.QualityScore = scoreQuality(report, nulls)

	return table, report, nil
}

// scoreQuality starts at 100 and deducts for sparse columns, negative
// latencies and dropped rows.
func scoreQuality(r *QualityReport, nulls map[Column]int) float64 {
	penalty := 0.0
	for _, c := range r.Columns {
		pct := stats.SafeDivide(float64(nulls[c]), float64(r.UsableRows), 0) * 100
		if pct > 20 {
			r.Issues = append(r.Issues, fmt.Sprintf("Column '%s' has %.1f%% null values", c, pct))
			penalty += math.Min(pct/10, 5)
		}
	}
	if r.NegativeLatency > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%d records with negative latency", r.NegativeLatency))
		penalty += 2
	}
	if r.DroppedRows > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%d records dropped for unparseable timestamps", r.DroppedRows))
	}
	return math.Max(0, 100-penalty)
}
