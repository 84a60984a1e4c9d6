// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"short", "***"},
		{"exactlytwelv", "***"},
		{"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9", "eyJh...VCJ9"},
		{"1234567890123456", "1234...3456"},
	}

	for _, tt := range tests {
		if result := SanitizeToken(tt.input); result != tt.expected {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestSanitizeUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"short", "***"},
		{"12345678", "***"},
		{"user-12345678", "user...5678"},
		{"a-very-long-user-id", "a-ve...r-id"},
	}

	for _, tt := range tests {
		if result := SanitizeUserID(tt.input); result != tt.expected {
			t.Errorf("SanitizeUserID(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value, expected string
	}{
		{"Authorization", "Bearer 0123456789abcdef", "Bear...cdef"},
		{"api_key", "short", "***"},
		{"countries", "DE,FR,US", "DE,FR,US"},
	}
	for _, tt := range tests {
		if result := SanitizeValue(tt.key, tt.value); result != tt.expected {
			t.Errorf("SanitizeValue(%q, %q) = %q, want %q", tt.key, tt.value, result, tt.expected)
		}
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	return line
}

func TestSecurityLogger_LogEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(zerolog.New(&buf))

	l.LogEvent(&SecurityEvent{
		Event:       "brute_force",
		Severity:    "CRITICAL",
		IPAddress:   "203.0.113.9",
		UserID:      "administrator",
		Technique:   "T1110",
		Count:       12,
		WindowStart: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Details:     map[string]string{"token": "abcdefghijklmnop", "country": "RU"},
	})

	line := decodeLine(t, &buf)
	want := map[string]any{
		"level":           "warn",
		"component":       "security",
		"event":           "brute_force",
		"severity":        "CRITICAL",
		"ip":              "203.0.113.9",
		"user_id":         "administrator",
		"mitre_technique": "T1110",
		"count":           float64(12),
		"token":           "abcd...mnop",
		"country":         "RU",
		"message":         "security finding",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s = %v, want %v", k, line[k], v)
		}
	}
	if _, ok := line["window_start"]; !ok {
		t.Error("window_start missing")
	}
}

func TestSecurityLogger_MasksUsers(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(zerolog.New(&buf)).WithUserMasking(true)

	l.LogEvent(&SecurityEvent{Event: "geo_anomaly", Severity: "WARNING", UserID: "administrator"})

	line := decodeLine(t, &buf)
	if line["user_id"] != "admi...ator" {
		t.Errorf("user_id = %v, want masked", line["user_id"])
	}
	if line["level"] != "info" {
		t.Errorf("level = %v, want info for WARNING", line["level"])
	}
	if strings.Contains(buf.String(), `"count"`) {
		t.Error("zero count should be omitted")
	}
}
