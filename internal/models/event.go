// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package models

import (
	"errors"
	"sort"
	"time"
)

// ErrNoUsableRows is returned when normalization leaves no events to analyze,
// typically because every timestamp failed to parse. It is the only error that
// halts a pipeline run.
var ErrNoUsableRows = errors.New("no usable rows in event table")

// Column names an optional field of the normalized event schema.
type Column string

// Canonical column names. Timestamp is always present in a valid table.
const (
	ColTimestamp Column = "timestamp"
	ColUserID    Column = "user_id"
	ColIPAddress Column = "ip_address"
	ColStatus    Column = "status"
	ColMethod    Column = "method"
	ColEndpoint  Column = "endpoint"
	ColService   Column = "service"
	ColLatency   Column = "latency_ms"
	ColCountry   Column = "country"
	ColUserAgent Column = "user_agent"
	ColSessionID Column = "session_id"
	ColBytesSent Column = "bytes_sent"
)

// AllColumns lists every canonical column in schema order.
var AllColumns = []Column{
	ColTimestamp, ColUserID, ColIPAddress, ColStatus, ColMethod, ColEndpoint,
	ColService, ColLatency, ColCountry, ColUserAgent, ColSessionID, ColBytesSent,
}

// Event is one normalized log line. Derived fields are computed once by
// NewEvent and never change afterwards.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	Status    int       `json:"status"`
	Method    string    `json:"method"`
	Endpoint  string    `json:"endpoint"`
	Service   string    `json:"service"`
	LatencyMs float64   `json:"latency_ms"`
	Country   string    `json:"country"`
	UserAgent string    `json:"user_agent"`
	SessionID string    `json:"session_id"`
	BytesSent int64     `json:"bytes_sent"`

	StatusCategory StatusCategory `json:"status_category"`
	IsFailure      bool           `json:"is_failure"`
	Hour           int            `json:"hour"`
	DayOfWeek      time.Weekday   `json:"day_of_week"`
	Date           string         `json:"date"`
	HourBucket     time.Time      `json:"hour_bucket"`
}

// Derive fills the time-derived fields and the status classification from
// Timestamp and the raw status value. rawStatus is the status exactly as it
// appeared in the source, used for keyword fallback when it is not numeric.
func (e *Event) Derive(rawStatus string) {
	e.Timestamp = e.Timestamp.UTC()
	e.Hour = e.Timestamp.Hour()
	e.DayOfWeek = e.Timestamp.Weekday()
	e.Date = e.Timestamp.Format("2006-01-02")
	e.HourBucket = e.Timestamp.Truncate(time.Hour)

	code, category := ClassifyStatus(rawStatus)
	e.Status = code
	e.StatusCategory = category
	e.IsFailure = category.IsFailure()
}

// EventTable is the read-only, timestamp-sorted batch every analyzer consumes.
// Analyzers must treat the slice returned by Events as immutable.
type EventTable struct {
	events  []Event
	columns map[Column]bool
}

// NewEventTable copies events, sorts them by timestamp (stable, so equal
// timestamps keep source order) and records which optional columns the source
// provided. It returns ErrNoUsableRows for an empty batch.
func NewEventTable(events []Event, columns ...Column) (*EventTable, error) {
	if len(events) == 0 {
		return nil, ErrNoUsableRows
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	cols := make(map[Column]bool, len(columns)+1)
	cols[ColTimestamp] = true
	for _, c := range columns {
		cols[c] = true
	}

	return &EventTable{events: sorted, columns: cols}, nil
}

// Len returns the number of events.
func (t *EventTable) Len() int {
	return len(t.events)
}

// Events returns the sorted events. Callers must not modify the slice.
func (t *EventTable) Events() []Event {
	return t.events
}

// HasColumn reports whether the source supplied the given column.
func (t *EventTable) HasColumn(c Column) bool {
	return t.columns[c]
}

// HasColumns reports whether every given column is present.
func (t *EventTable) HasColumns(cols ...Column) bool {
	for _, c := range cols {
		if !t.columns[c] {
			return false
		}
	}
	return true
}

// Columns returns the present columns in schema order.
func (t *EventTable) Columns() []Column {
	out := make([]Column, 0, len(t.columns))
	for _, c := range AllColumns {
		if t.columns[c] {
			out = append(out, c)
		}
	}
	return out
}

// TimeRange returns the first and last event timestamps.
func (t *EventTable) TimeRange() (start, end time.Time) {
	return t.events[0].Timestamp, t.events[len(t.events)-1].Timestamp
}

// FailureRate returns the share of failed events in [0,1].
func (t *EventTable) FailureRate() float64 {
	failures := 0
	for i := range t.events {
		if t.events[i].IsFailure {
			failures++
		}
	}
	return float64(failures) / float64(len(t.events))
}
