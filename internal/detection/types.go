// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"context"
	"time"

	"github.com/tomtom215/loglens/internal/models"
)

// DetectionType identifies the security detector that produced a record.
type DetectionType string

const (
	// TypeBruteForce flags repeated failed logins from one IP.
	TypeBruteForce DetectionType = "brute_force"

	// TypeCredentialStuffing flags one IP failing against many accounts.
	TypeCredentialStuffing DetectionType = "credential_stuffing"

	// TypeGeoAnomaly flags accounts seen from many countries.
	TypeGeoAnomaly DetectionType = "geo_anomaly"
)

// Severity is shared with the other analyzers.
type Severity = models.Severity

const (
	SeverityInfo     = models.SeverityInfo
	SeverityWarning  = models.SeverityWarning
	SeverityCritical = models.SeverityCritical
)

// WindowPolicy selects how the brute-force detector windows events.
type WindowPolicy string

const (
	// WindowSliding evaluates a window starting at every event.
	WindowSliding WindowPolicy = "sliding"

	// WindowFixed buckets events into clock-aligned, non-overlapping windows.
	WindowFixed WindowPolicy = "fixed"
)

// BruteForceConfig configures the brute-force detector.
type BruteForceConfig struct {
	// Threshold is the minimum failed logins in one window.
	Threshold int `json:"threshold"`

	// Window is the window length.
	Window time.Duration `json:"window"`

	// Policy chooses sliding or fixed windows.
	Policy WindowPolicy `json:"policy"`

	// AuthEndpoints are the paths that count as login attempts.
	AuthEndpoints []string `json:"auth_endpoints"`
}

// DefaultBruteForceConfig returns sensible defaults.
func DefaultBruteForceConfig() BruteForceConfig {
	return BruteForceConfig{
		Threshold:     5,
		Window:        10 * time.Minute,
		Policy:        WindowSliding,
		AuthEndpoints: []string{"/login", "/auth", "/signin", "/authenticate", "/token"},
	}
}

// CredentialStuffingConfig configures the credential-stuffing detector.
type CredentialStuffingConfig struct {
	// Threshold is the minimum distinct users targeted in one window.
	Threshold int `json:"threshold"`

	// Window is the window length; the window end is inclusive.
	Window time.Duration `json:"window"`

	// Stride evaluates every Stride-th start event. 1 is exhaustive.
	Stride int `json:"stride"`

	// AutoStride derives the stride from the per-IP event count (n/20).
	AutoStride bool `json:"auto_stride"`
}

// DefaultCredentialStuffingConfig returns sensible defaults.
func DefaultCredentialStuffingConfig() CredentialStuffingConfig {
	return CredentialStuffingConfig{
		Threshold: 3,
		Window:    5 * time.Minute,
		Stride:    1,
	}
}

// GeoAnomalyConfig configures the geo-anomaly detector.
type GeoAnomalyConfig struct {
	// MinCountries flags users seen from at least this many countries.
	MinCountries int `json:"min_countries"`

	// CriticalCountries escalates to CRITICAL at this many countries.
	CriticalCountries int `json:"critical_countries"`
}

// DefaultGeoAnomalyConfig returns sensible defaults.
func DefaultGeoAnomalyConfig() GeoAnomalyConfig {
	return GeoAnomalyConfig{
		MinCountries:      3,
		CriticalCountries: 5,
	}
}

// Detection is one finding from a security detector. Only the fields relevant
// to its Type are populated.
type Detection struct {
	Type      DetectionType `json:"detection_type"`
	IPAddress string        `json:"ip_address,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	FirstSeen time.Time     `json:"first_seen"`
	LastSeen  time.Time     `json:"last_seen"`

	// Brute force.
	AttemptCount int `json:"attempt_count,omitempty"`

	// Credential stuffing.
	UniqueUsersTargeted int `json:"unique_users_targeted,omitempty"`
	TotalAttempts       int `json:"total_attempts,omitempty"`

	// Geo anomaly.
	CountryCount   int      `json:"country_count,omitempty"`
	Countries      []string `json:"countries,omitempty"`
	PrimaryCountry string   `json:"primary_country,omitempty"`
	AnomalyType    string   `json:"anomaly_type,omitempty"`

	TargetedUsers  []string `json:"targeted_users,omitempty"`
	Country        string   `json:"country,omitempty"`
	Severity       Severity `json:"severity"`
	MITRETechnique string   `json:"mitre_technique"`
	MITREName      string   `json:"mitre_name"`
	MITRETactic    string   `json:"mitre_tactic"`
}

// Subject returns the entity the detection is about.
func (d *Detection) Subject() string {
	if d.IPAddress != "" {
		return d.IPAddress
	}
	return d.UserID
}

// HeadlineCount returns the count that triggered the detection: attempts for
// brute force, targeted users for credential stuffing and countries for geo
// anomalies.
func (d *Detection) HeadlineCount() int {
	switch d.Type {
	case TypeBruteForce:
		return d.AttemptCount
	case TypeCredentialStuffing:
		return d.UniqueUsersTargeted
	case TypeGeoAnomaly:
		return d.CountryCount
	default:
		return 0
	}
}

// Detector is the interface implemented by every windowed security detector.
// Detect must not modify the table and must return an empty, non-nil slice
// when it finds nothing or when a required column is absent.
type Detector interface {
	// Type returns the detection type.
	Type() DetectionType

	// Detect scans the table and returns findings in a deterministic order.
	Detect(ctx context.Context, table *models.EventTable) ([]Detection, error)

	// Enabled returns whether this detector is enabled.
	Enabled() bool

	// SetEnabled enables or disables the detector.
	SetEnabled(enabled bool)
}
