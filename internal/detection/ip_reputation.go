// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"context"
	"sort"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// Reputation component weights.
const (
	reputationWeightFailure    = 0.50
	reputationWeightVolume     = 0.20
	reputationWeightUserSpread = 0.30
)

// IPReputation is the scored aggregate profile of one IP address.
type IPReputation struct {
	IPAddress       string      `json:"ip_address"`
	TotalRequests   int         `json:"total_requests"`
	FailureCount    int         `json:"failure_count"`
	FailureRate     float64     `json:"failure_rate"`
	UniqueUsers     int         `json:"unique_users"`
	UniqueEndpoints int         `json:"unique_endpoints"`
	UniqueCountries int         `json:"unique_countries"`
	ScoreFailure    float64     `json:"score_failure"`
	ScoreVolume     float64     `json:"score_volume"`
	ScoreUserSpread float64     `json:"score_user_spread"`
	Score           float64     `json:"reputation_score"`
	Tier            models.Tier `json:"risk_tier"`
}

// ReputationScorer computes a 0-100 reputation score per IP from aggregate
// counts. It has no windowing and no configuration beyond the tier bins.
type ReputationScorer struct {
	tiers models.TierBins
}

// NewReputationScorer creates a scorer using the given tier bins.
func NewReputationScorer(tiers models.TierBins) *ReputationScorer {
	return &ReputationScorer{tiers: tiers}
}

type ipAggregate struct {
	total, failures int
	users           map[string]struct{}
	endpoints       map[string]struct{}
	countries       map[string]struct{}
}

// Score returns one record per IP sorted by score descending, then IP.
func (s *ReputationScorer) Score(ctx context.Context, table *models.EventTable) ([]IPReputation, error) {
	out := make([]IPReputation, 0)
	if !table.HasColumn(models.ColIPAddress) {
		return out, nil
	}

	hasUsers := table.HasColumn(models.ColUserID)
	hasEndpoints := table.HasColumn(models.ColEndpoint)
	hasCountries := table.HasColumn(models.ColCountry)

	aggs := make(map[string]*ipAggregate)
	events := table.Events()
	for i := range events {
		e := &events[i]
		a, ok := aggs[e.IPAddress]
		if !ok {
			a = &ipAggregate{
				users:     make(map[string]struct{}),
				endpoints: make(map[string]struct{}),
				countries: make(map[string]struct{}),
			}
			aggs[e.IPAddress] = a
		}
		a.total++
		if e.IsFailure {
			a.failures++
		}
		if hasUsers {
			a.users[e.UserID] = struct{}{}
		}
		if hasEndpoints {
			a.endpoints[e.Endpoint] = struct{}{}
		}
		if hasCountries && !models.IsUnknownCountry(e.Country) {
			a.countries[e.Country] = struct{}{}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	volumes := make([]float64, 0, len(aggs))
	for _, a := range aggs {
		volumes = append(volumes, float64(a.total))
	}
	p95 := stats.Percentile(volumes, 95)

	for ip, a := range aggs {
		rate := stats.SafeDivide(float64(a.failures), float64(a.total), 0)
		rec := IPReputation{
			IPAddress:       ip,
			TotalRequests:   a.total,
			FailureCount:    a.failures,
			FailureRate:     rate,
			UniqueUsers:     len(a.users),
			UniqueEndpoints: len(a.endpoints),
			UniqueCountries: len(a.countries),
			ScoreFailure:    stats.Clip100(rate * 100),
			ScoreVolume:     volumeScore(float64(a.total), p95),
			ScoreUserSpread: userSpreadScore(len(a.users)),
		}
		composite := rec.ScoreFailure*reputationWeightFailure +
			rec.ScoreVolume*reputationWeightVolume +
			rec.ScoreUserSpread*reputationWeightUserSpread
		rec.Score = stats.Round(stats.Clip100(composite), 1)
		rec.Tier = s.tiers.Classify(rec.Score)
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].IPAddress < out[j].IPAddress
	})
	return out, nil
}

// volumeScore is 80 above the 95th percentile and scales linearly to 40 at it.
func volumeScore(count, p95 float64) float64 {
	if count > p95 {
		return 80
	}
	return stats.SafeDivide(count, p95, 0) * 40
}

// userSpreadScore is 0 up to five users, then 60 plus 4 per extra user.
func userSpreadScore(users int) float64 {
	if users <= 5 {
		return 0
	}
	return stats.Clip100(60 + float64(users-5)*4)
}

// ReputationIndex maps IPs to their reputation score for fusion lookups.
func ReputationIndex(recs []IPReputation) map[string]float64 {
	idx := make(map[string]float64, len(recs))
	for _, r := range recs {
		idx[r.IPAddress] = r.Score
	}
	return idx
}

// CountHighRisk counts records with a score at or above threshold.
func CountHighRisk(recs []IPReputation, threshold float64) int {
	n := 0
	for _, r := range recs {
		if r.Score >= threshold {
			n++
		}
	}
	return n
}
