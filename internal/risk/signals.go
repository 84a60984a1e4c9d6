// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package risk

import "strings"

// Signals are the optional external inputs to user fusion. Any field may be
// nil; a missing signal contributes 0 to its component.
type Signals struct {
	// SessionAnomaly maps session ID to an anomaly score on a [-1,1]-like
	// scale where lower is more anomalous.
	SessionAnomaly map[string]float64 `json:"session_anomaly,omitempty"`

	// ClusterLabels maps user ID to a behaviour cluster label.
	ClusterLabels map[string]string `json:"cluster_labels,omitempty"`

	// IPReputation maps IP address to its 0-100 reputation score.
	IPReputation map[string]float64 `json:"ip_reputation,omitempty"`
}

// withDefaults replaces absent signals with empty ones so every lookup in
// fusion yields the zero value instead of needing a presence check.
func (s Signals) withDefaults() Signals {
	if s.SessionAnomaly == nil {
		s.SessionAnomaly = map[string]float64{}
	}
	if s.ClusterLabels == nil {
		s.ClusterLabels = map[string]string{}
	}
	if s.IPReputation == nil {
		s.IPReputation = map[string]float64{}
	}
	return s
}

// Cluster label keywords and the scores they map to.
const (
	clusterSuspiciousKeyword = "Suspicious"
	clusterPowerKeyword      = "Power"
	clusterSuspiciousScore   = 80
	clusterPowerScore        = 20
)

// ClusterScore maps a label to a component score by keyword.
func ClusterScore(label string) float64 {
	switch {
	case strings.Contains(label, clusterSuspiciousKeyword):
		return clusterSuspiciousScore
	case strings.Contains(label, clusterPowerKeyword):
		return clusterPowerScore
	default:
		return 0
	}
}

// AnomalyScore converts an average anomaly score to a 0-100 component:
// (0 - avg) × 50 + 50, clipped by the caller.
func AnomalyScore(avg float64) float64 {
	return (0-avg)*50 + 50
}
