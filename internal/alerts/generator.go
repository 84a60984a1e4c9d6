// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package alerts

import (
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/loglens/internal/anomaly"
	"github.com/tomtom215/loglens/internal/detection"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/performance"
	"github.com/tomtom215/loglens/internal/risk"
)

const (
	defaultLatencySpikeCritical = 5
	defaultErrorSpikeCritical   = 3
	zScoreMethod                = "rolling z-score"
)

// Config tunes the summary alerts.
type Config struct {
	// HighRiskScore is reported in the high-risk IP alert details.
	HighRiskScore float64

	// LatencySpikeCritical escalates the latency alert to CRITICAL at this
	// many spikes or more.
	LatencySpikeCritical int

	// ErrorSpikeCritical escalates the error alert to CRITICAL above this
	// many spikes.
	ErrorSpikeCritical int
}

// DefaultConfig returns the stock escalation thresholds.
func DefaultConfig() Config {
	return Config{
		HighRiskScore:        70,
		LatencySpikeCritical: defaultLatencySpikeCritical,
		ErrorSpikeCritical:   defaultErrorSpikeCritical,
	}
}

// Inputs are the analyzer results an alert run draws from. Nil inputs are
// skipped.
type Inputs struct {
	Security    *detection.SecurityReport
	Performance *performance.Report
	Anomaly     *anomaly.Report
	Risk        *risk.Summary
}

// Generator builds alert feeds.
type Generator struct {
	config Config
	now    func() time.Time
}

// NewGenerator returns a generator that stamps summary alerts with the
// current time.
func NewGenerator(config Config) *Generator {
	if config.LatencySpikeCritical <= 0 {
		config.LatencySpikeCritical = defaultLatencySpikeCritical
	}
	if config.ErrorSpikeCritical <= 0 {
		config.ErrorSpikeCritical = defaultErrorSpikeCritical
	}
	return &Generator{config: config, now: time.Now}
}

// WithClock replaces the generator's clock.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// builder accumulates alerts and numbers them by position.
type builder struct {
	alerts []Alert
	now    time.Time
}

func (b *builder) add(prefix string, a Alert) {
	a.ID = fmt.Sprintf("%s-%04d", prefix, len(b.alerts)+1)
	if a.Timestamp.IsZero() {
		a.Timestamp = b.now
	}
	if a.Details == nil {
		a.Details = map[string]any{}
	}
	b.alerts = append(b.alerts, a)
}

// Generate builds the alert feed and returns it severity-sorted. The result
// is never nil.
func (g *Generator) Generate(in Inputs) []Alert {
	b := &builder{alerts: make([]Alert, 0), now: g.now().UTC()}

	if in.Security != nil {
		g.security(b, in.Security)
	}
	if in.Performance != nil {
		g.performance(b, in.Performance)
	}
	if in.Anomaly != nil {
		g.anomalies(b, in.Anomaly)
	}
	if in.Risk != nil {
		g.risk(b, in.Risk)
	}

	sort.SliceStable(b.alerts, func(i, j int) bool {
		return b.alerts[i].Severity.Rank() < b.alerts[j].Severity.Rank()
	})

	for i := range b.alerts {
		metrics.RecordAlert(string(b.alerts[i].Category), string(b.alerts[i].Severity))
	}
	return b.alerts
}

func (g *Generator) security(b *builder, r *detection.SecurityReport) {
	for _, d := range r.BruteForce {
		b.add(PrefixBruteForce, Alert{
			Title:       "Brute Force Attack Detected",
			Description: fmt.Sprintf("IP %s made %d failed login attempts.", d.IPAddress, d.AttemptCount),
			Severity:    severityOr(d.Severity, models.SeverityCritical),
			Category:    CategorySecurity,
			Timestamp:   d.Timestamp,
			Details: map[string]any{
				"ip_address":    d.IPAddress,
				"attempt_count": d.AttemptCount,
				"country":       d.Country,
				"first_seen":    d.FirstSeen,
				"last_seen":     d.LastSeen,
			},
			Source:         SourceSecurityEngine,
			MITRETechnique: d.MITRETechnique,
			MITREName:      d.MITREName,
		})
	}

	for _, d := range r.CredentialStuffing {
		b.add(PrefixCredentialStuffing, Alert{
			Title:       "Credential Stuffing Pattern",
			Description: fmt.Sprintf("IP %s targeted %d unique accounts.", d.IPAddress, d.UniqueUsersTargeted),
			Severity:    severityOr(d.Severity, models.SeverityCritical),
			Category:    CategorySecurity,
			Timestamp:   d.Timestamp,
			Details: map[string]any{
				"ip_address":     d.IPAddress,
				"total_attempts": d.TotalAttempts,
				"targeted_users": d.TargetedUsers,
				"country":        d.Country,
			},
			Source:         SourceSecurityEngine,
			MITRETechnique: d.MITRETechnique,
			MITREName:      d.MITREName,
		})
	}

	for _, d := range r.GeoAnomalies {
		b.add(PrefixGeoAnomaly, Alert{
			Title:       "Geographic Anomaly",
			Description: fmt.Sprintf("User %s accessed from %d countries.", d.UserID, d.CountryCount),
			Severity:    severityOr(d.Severity, models.SeverityWarning),
			Category:    CategorySecurity,
			Timestamp:   d.Timestamp,
			Details: map[string]any{
				"user_id":         d.UserID,
				"countries":       d.Countries,
				"primary_country": d.PrimaryCountry,
				"anomaly_type":    d.AnomalyType,
			},
			Source:         SourceSecurityEngine,
			MITRETechnique: d.MITRETechnique,
			MITREName:      d.MITREName,
		})
	}

	if r.HighRiskIPs > 0 {
		b.add(PrefixHighRiskIPs, Alert{
			Title:       "High-Risk IPs Detected",
			Description: fmt.Sprintf("%d IP addresses flagged with elevated risk scores.", r.HighRiskIPs),
			Severity:    models.SeverityWarning,
			Category:    CategorySecurity,
			Details: map[string]any{
				"high_risk_ips":  r.HighRiskIPs,
				"total_ips":      r.TotalIPs,
				"risk_threshold": g.config.HighRiskScore,
			},
			Source: SourceIPReputation,
		})
	}
}

func (g *Generator) performance(b *builder, r *performance.Report) {
	for _, s := range r.SLABreaches {
		b.add(PrefixSLABreach, Alert{
			Title:       "SLA Breach: " + s.Service,
			Description: s.Details,
			Severity:    severityOr(s.Severity, models.SeverityWarning),
			Category:    CategoryPerformance,
			Details: map[string]any{
				"service":          s.Service,
				"breaches":         s.Breaches,
				"p95_latency_ms":   s.P95LatencyMs,
				"p99_latency_ms":   s.P99LatencyMs,
				"error_rate_pct":   s.ErrorRatePct,
				"availability_pct": s.AvailabilityPct,
			},
			Source: SourceSLAMonitor,
		})
	}

	for _, bn := range r.Bottlenecks {
		b.add(PrefixBottleneck, Alert{
			Title:       "Bottleneck: " + bn.Service,
			Description: bn.Detail,
			Severity:    severityOr(bn.Severity, models.SeverityWarning),
			Category:    CategoryPerformance,
			Details:     map[string]any{"service": bn.Service, "type": bn.Type},
			Source:      SourceBottleneckDetector,
		})
	}
}

func (g *Generator) anomalies(b *builder, r *anomaly.Report) {
	if n := r.TotalLatencySpikes; n > 0 {
		sev := models.SeverityWarning
		if n >= g.config.LatencySpikeCritical {
			sev = models.SeverityCritical
		}
		b.add(PrefixLatencySpikes, Alert{
			Title:       "Latency Anomalies Detected",
			Description: fmt.Sprintf("%d time periods with abnormal latency patterns.", n),
			Severity:    sev,
			Category:    CategoryAnomaly,
			Details: map[string]any{
				"spikes":           n,
				"method":           zScoreMethod,
				"spiking_services": r.SpikingServices,
			},
			Source: SourceAnomalyEngine,
		})
	}

	if n := r.TotalErrorSpikes; n > 0 {
		sev := models.SeverityWarning
		if n > g.config.ErrorSpikeCritical {
			sev = models.SeverityCritical
		}
		b.add(PrefixErrorSpikes, Alert{
			Title:       "Error Rate Anomalies",
			Description: fmt.Sprintf("%d time periods with unusual error rate spikes.", n),
			Severity:    sev,
			Category:    CategoryAnomaly,
			Details:     map[string]any{"spikes": n, "method": zScoreMethod},
			Source:      SourceAnomalyEngine,
		})
	}
}

func (g *Generator) risk(b *builder, s *risk.Summary) {
	if s.CriticalUsers == 0 {
		return
	}
	users := make([]string, 0, s.CriticalUsers)
	for _, u := range s.TopUsers {
		if u.Tier == models.TierCritical {
			users = append(users, u.UserID)
		}
	}
	b.add(PrefixCriticalUsers, Alert{
		Title:       "Critical-Risk Users Identified",
		Description: fmt.Sprintf("%d user(s) in the Critical risk tier.", s.CriticalUsers),
		Severity:    models.SeverityCritical,
		Category:    CategoryRisk,
		Details: map[string]any{
			"critical_users": s.CriticalUsers,
			"users":          users,
		},
		Source: SourceRiskScoring,
	})
}

func severityOr(s, def models.Severity) models.Severity {
	if s == "" {
		return def
	}
	return s
}
