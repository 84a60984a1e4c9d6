// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package risk

import (
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// Summary describes the risk distribution of one run.
type Summary struct {
	TotalUsersScored     int                 `json:"total_users_scored"`
	TotalIPsScored       int                 `json:"total_ips_scored"`
	UserTierDistribution map[models.Tier]int `json:"user_risk_distribution"`
	IPTierDistribution   map[models.Tier]int `json:"ip_risk_distribution"`
	AvgRiskScore         float64             `json:"avg_risk_score"`
	CriticalUsers        int                 `json:"critical_users"`
	HighRiskUsers        int                 `json:"high_risk_users"`
	CriticalIPs          int                 `json:"critical_ips"`
	TopUsers             []UserRisk          `json:"top_users"`
}

// Summarize counts tiers and picks the riskiest users. users must already be
// sorted by score. HighRiskUsers counts High and Critical.
func (e *Engine) Summarize(users []UserRisk, ips []IPRisk) Summary {
	s := Summary{
		TotalUsersScored:     len(users),
		TotalIPsScored:       len(ips),
		UserTierDistribution: emptyDistribution(),
		IPTierDistribution:   emptyDistribution(),
	}

	scores := make([]float64, 0, len(users))
	for _, u := range users {
		s.UserTierDistribution[u.Tier]++
		scores = append(scores, u.Score)
		switch u.Tier {
		case models.TierCritical:
			s.CriticalUsers++
			s.HighRiskUsers++
		case models.TierHigh:
			s.HighRiskUsers++
		}
	}
	s.AvgRiskScore = stats.Round(stats.Mean(scores), 1)

	for _, ip := range ips {
		s.IPTierDistribution[ip.Tier]++
		if ip.Tier == models.TierCritical {
			s.CriticalIPs++
		}
	}

	n := min(e.config.TopUsers, len(users))
	s.TopUsers = make([]UserRisk, n)
	copy(s.TopUsers, users[:n])
	return s
}

func emptyDistribution() map[models.Tier]int {
	d := make(map[models.Tier]int, len(models.Tiers))
	for _, t := range models.Tiers {
		d[t] = 0
	}
	return d
}
