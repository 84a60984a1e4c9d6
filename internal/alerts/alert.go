// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package alerts maps analyzer output to a flat, severity-sorted alert feed and
delivers it to external systems.

Alerts are generated in a fixed order (security, performance, anomaly, risk)
and then stably sorted CRITICAL, WARNING, INFO, anything else. Each ID is the
source prefix followed by the alert's 1-based position at creation time, so a
run's IDs are unique but not contiguous after sorting:

	SEC-BF-0001     brute force, one per detection
	SEC-CS-0002     credential stuffing, one per detection
	SEC-GEO-0003    geo anomaly, one per detection
	SEC-IP-0004     high-risk IP count
	PERF-SLA-0005   SLA breach, one per service
	PERF-BN-0006    bottleneck, one per finding
	ANOM-LAT-0007   latency spike count
	ANOM-ERR-0008   error-rate spike count
	RISK-USR-0009   critical-risk user count

Notifiers receive every alert at or above a minimum severity. Delivery
failures are logged and counted but never returned to the caller.
*/
package alerts

import (
	"time"

	"github.com/tomtom215/loglens/internal/models"
)

// Category groups alerts by the analyzer that raised them.
type Category string

const (
	CategorySecurity    Category = "Security"
	CategoryPerformance Category = "Performance"
	CategoryAnomaly     Category = "Anomaly"
	CategoryRisk        Category = "Risk"
)

// ID prefixes.
const (
	PrefixBruteForce         = "SEC-BF"
	PrefixCredentialStuffing = "SEC-CS"
	PrefixGeoAnomaly         = "SEC-GEO"
	PrefixHighRiskIPs        = "SEC-IP"
	PrefixSLABreach          = "PERF-SLA"
	PrefixBottleneck         = "PERF-BN"
	PrefixLatencySpikes      = "ANOM-LAT"
	PrefixErrorSpikes        = "ANOM-ERR"
	PrefixCriticalUsers      = "RISK-USR"
)

// Source tags.
const (
	SourceSecurityEngine     = "security_engine"
	SourceIPReputation       = "ip_reputation"
	SourceSLAMonitor         = "sla_monitor"
	SourceBottleneckDetector = "bottleneck_detector"
	SourceAnomalyEngine      = "anomaly_engine"
	SourceRiskScoring        = "risk_scoring"
)

// Alert is one entry in the alert feed.
type Alert struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Severity       models.Severity `json:"severity"`
	Category       Category        `json:"category"`
	Timestamp      time.Time       `json:"timestamp"`
	Details        map[string]any  `json:"details"`
	Source         string          `json:"source"`
	MITRETechnique string          `json:"mitre_technique,omitempty"`
	MITREName      string          `json:"mitre_name,omitempty"`
}

// Filter returns the alerts at or above min, preserving order. An empty min
// keeps everything.
func Filter(alerts []Alert, min models.Severity) []Alert {
	out := make([]Alert, 0, len(alerts))
	for i := range alerts {
		if min == "" || alerts[i].Severity.AtLeast(min) {
			out = append(out, alerts[i])
		}
	}
	return out
}

// Summary counts alerts by severity and category.
type Summary struct {
	Total      int              `json:"total"`
	Critical   int              `json:"critical"`
	Warning    int              `json:"warning"`
	Info       int              `json:"info"`
	ByCategory map[Category]int `json:"by_category"`
}

// Summarize counts alerts. ByCategory only holds categories that occur.
func Summarize(alerts []Alert) Summary {
	s := Summary{Total: len(alerts), ByCategory: make(map[Category]int)}
	for i := range alerts {
		switch alerts[i].Severity {
		case models.SeverityCritical:
			s.Critical++
		case models.SeverityWarning:
			s.Warning++
		case models.SeverityInfo:
			s.Info++
		}
		s.ByCategory[alerts[i].Category]++
	}
	return s
}
