// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package testinfra

import (
	"strconv"
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/models"
)

// BaseTime is the fixed origin used by fixtures so results are reproducible.
var BaseTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// At returns BaseTime shifted by d.
func At(d time.Duration) time.Time {
	return BaseTime.Add(d)
}

// EventOption customizes a fixture event.
type EventOption func(*models.Event, *string)

// WithUser sets the user ID.
func WithUser(id string) EventOption {
	return func(e *models.Event, _ *string) { e.UserID = id }
}

// WithIP sets the IP address.
func WithIP(ip string) EventOption {
	return func(e *models.Event, _ *string) { e.IPAddress = ip }
}

// WithStatus sets the raw status value.
func WithStatus(status int) EventOption {
	return func(_ *models.Event, raw *string) { *raw = strconv.Itoa(status) }
}

// WithRawStatus sets a non-numeric raw status such as "failed".
func WithRawStatus(raw string) EventOption {
	return func(_ *models.Event, r *string) { *r = raw }
}

// WithEndpoint sets the endpoint.
func WithEndpoint(path string) EventOption {
	return func(e *models.Event, _ *string) { e.Endpoint = path }
}

// WithService sets the service name.
func WithService(name string) EventOption {
	return func(e *models.Event, _ *string) { e.Service = name }
}

// WithLatency sets the latency in milliseconds.
func WithLatency(ms float64) EventOption {
	return func(e *models.Event, _ *string) { e.LatencyMs = ms }
}

// WithCountry sets the country.
func WithCountry(c string) EventOption {
	return func(e *models.Event, _ *string) { e.Country = c }
}

// WithSession sets the session ID.
func WithSession(id string) EventOption {
	return func(e *models.Event, _ *string) { e.SessionID = id }
}

// WithBytes sets bytes sent.
func WithBytes(n int64) EventOption {
	return func(e *models.Event, _ *string) { e.BytesSent = n }
}

// NewEvent builds a derived event at ts. Defaults describe a successful GET
// of /api/items by user "alice" from 10.0.0.1.
func NewEvent(ts time.Time, opts ...EventOption) models.Event {
	e := models.Event{
		Timestamp: ts,
		UserID:    "alice",
		IPAddress: "10.0.0.1",
		Method:    "GET",
		Endpoint:  "/api/items",
		Service:   "api",
		LatencyMs: 100,
		Country:   "US",
		UserAgent: "curl/8.0",
		SessionID: "s1",
	}
	raw := "200"
	for _, opt := range opts {
		opt(&e, &raw)
	}
	e.Derive(raw)
	return e
}

// FailedLogin builds a 401 POST to /login.
func FailedLogin(ts time.Time, ip, user string, opts ...EventOption) models.Event {
	base := []EventOption{WithIP(ip), WithUser(user), WithStatus(401), WithEndpoint("/login")}
	ev := NewEvent(ts, append(base, opts...)...)
	ev.Method = "POST"
	return ev
}

// FullColumns lists every canonical column.
func FullColumns() []models.Column {
	return models.AllColumns
}

// Table builds an event table, failing the test on error. With no columns
// given every canonical column is marked present.
func Table(t testing.TB, events []models.Event, cols ...models.Column) *models.EventTable {
	t.Helper()
	if len(cols) == 0 {
		cols = FullColumns()
	}
	table, err := models.NewEventTable(events, cols...)
	if err != nil {
		t.Fatalf("NewEventTable() error = %v", err)
	}
	return table
}

// Spread returns n timestamps starting at start, step apart.
func Spread(start time.Time, n int, step time.Duration) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * step)
	}
	return out
}
