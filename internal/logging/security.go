// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package logging

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SecurityEvent is one security finding written to the audit trail.
type SecurityEvent struct {
	// Event is the finding type, e.g. "brute_force".
	Event string
	// Severity is INFO, WARNING or CRITICAL.
	Severity string
	// IPAddress is the attacking or affected IP, if any.
	IPAddress string
	// UserID is the affected account, if any.
	UserID string
	// Technique is the MITRE ATT&CK technique ID.
	Technique string
	// Count is the finding's headline count (attempts, users, countries).
	Count int
	// WindowStart is the start of the detection window.
	WindowStart time.Time
	// Details holds extra fields; sensitive keys are masked.
	Details map[string]string
}

// SecurityLogger writes security findings as structured audit lines under the
// "security" component.
type SecurityLogger struct {
	logger    zerolog.Logger
	maskUsers bool
}

// NewSecurityLoggerWithLogger creates a security logger on logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "security").Logger(),
	}
}

// WithUserMasking masks user IDs in every subsequent line.
func (l *SecurityLogger) WithUserMasking(mask bool) *SecurityLogger {
	l.maskUsers = mask
	return l
}

// LogEvent writes one finding. CRITICAL findings log at warn level, the rest
// at info.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	if event.Severity == "CRITICAL" {
		e = l.logger.Warn()
	}
	e = e.Str("event", event.Event)

	if event.Severity != "" {
		e = e.Str("severity", event.Severity)
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.UserID != "" {
		user := event.UserID
		if l.maskUsers {
			user = SanitizeUserID(user)
		}
		e = e.Str("user_id", user)
	}
	if event.Technique != "" {
		e = e.Str("mitre_technique", event.Technique)
	}
	if event.Count > 0 {
		e = e.Int("count", event.Count)
	}
	if !event.WindowStart.IsZero() {
		e = e.Time("window_start", event.WindowStart)
	}
	for k, v := range event.Details {
		e = e.Str(k, truncateString(SanitizeValue(k, v), 200))
	}

	e.Msg("security finding")
}

// SanitizeToken masks a token, showing only the first and last 4 characters.
// Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9" -> "eyJh...VCJ9"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUserID masks a user ID for privacy.
// Example: "user-12345678" -> "user...5678"
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

var sensitiveKeys = map[string]bool{
	"token":         true,
	"password":      true,
	"secret":        true,
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"bearer":        true,
	"cookie":        true,
	"session":       true,
	"session_id":    true,
}

// SanitizeValue masks value when key names a credential. Finding details
// pass through here before they are logged.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	return value
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
