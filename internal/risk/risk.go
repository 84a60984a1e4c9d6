// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package risk fuses heterogeneous signals into per-user and per-IP composite
risk scores.

User components (0-100 each) and weights:

	score_failure  0.25  failure rate × 100
	score_anomaly  0.25  (0 - avg session anomaly score) × 50 + 50
	score_geo      0.15  ≥5 countries 100, ≥3 60, ≥2 30
	score_cluster  0.15  "Suspicious" label 80, "Power" label 20
	score_volume   0.10  requests > p99 70, > p95 40
	score_ip_rep   0.10  reputation of the user's most frequent IP

Each component is clipped to [0,100] before weighting and the sum is clipped
and rounded to one decimal. Missing signals contribute 0; weights are never
re-normalized.

IP components and weights:

	score_failure  0.40  failure rate × 100
	score_spread   0.30  >5 users 60, else users × 10
	score_volume   0.30  requests > p95 70, else 20
*/
package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

const (
	weightTolerance = 1e-9
	defaultTopUsers = 10
)

// UserWeights are the per-user component weights.
type UserWeights struct {
	Failure float64 `json:"failure"`
	Anomaly float64 `json:"anomaly"`
	Geo     float64 `json:"geo"`
	Cluster float64 `json:"cluster"`
	Volume  float64 `json:"volume"`
	IPRep   float64 `json:"ip_rep"`
}

// DefaultUserWeights returns 0.25/0.25/0.15/0.15/0.10/0.10.
func DefaultUserWeights() UserWeights {
	return UserWeights{Failure: 0.25, Anomaly: 0.25, Geo: 0.15, Cluster: 0.15, Volume: 0.10, IPRep: 0.10}
}

// Sum returns the total weight.
func (w UserWeights) Sum() float64 {
	return w.Failure + w.Anomaly + w.Geo + w.Cluster + w.Volume + w.IPRep
}

func (w UserWeights) values() []float64 {
	return []float64{w.Failure, w.Anomaly, w.Geo, w.Cluster, w.Volume, w.IPRep}
}

// IPWeights are the per-IP component weights.
type IPWeights struct {
	Failure float64 `json:"failure"`
	Spread  float64 `json:"spread"`
	Volume  float64 `json:"volume"`
}

// DefaultIPWeights returns 0.40/0.30/0.30.
func DefaultIPWeights() IPWeights {
	return IPWeights{Failure: 0.40, Spread: 0.30, Volume: 0.30}
}

// Sum returns the total weight.
func (w IPWeights) Sum() float64 {
	return w.Failure + w.Spread + w.Volume
}

func (w IPWeights) values() []float64 {
	return []float64{w.Failure, w.Spread, w.Volume}
}

// Config configures fusion.
type Config struct {
	UserWeights UserWeights     `json:"user_weights"`
	IPWeights   IPWeights       `json:"ip_weights"`
	Tiers       models.TierBins `json:"tiers"`

	// TopUsers bounds the riskiest-user list in the summary.
	TopUsers int `json:"top_users"`
}

// DefaultConfig returns the stock weights and tier bins.
func DefaultConfig() Config {
	return Config{
		UserWeights: DefaultUserWeights(),
		IPWeights:   DefaultIPWeights(),
		Tiers:       models.DefaultTierBins(),
		TopUsers:    defaultTopUsers,
	}
}

// Validate checks that weights are non-negative and sum to 1 and that the
// tier bins are well formed.
func (c Config) Validate() error {
	if err := checkWeights("user", c.UserWeights.values(), c.UserWeights.Sum()); err != nil {
		return err
	}
	if err := checkWeights("ip", c.IPWeights.values(), c.IPWeights.Sum()); err != nil {
		return err
	}
	if err := c.Tiers.Validate(); err != nil {
		return fmt.Errorf("risk tiers: %w", err)
	}
	if c.TopUsers < 0 {
		return errors.New("top users must not be negative")
	}
	return nil
}

func checkWeights(kind string, values []float64, sum float64) error {
	for _, v := range values {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%s weights must be non-negative, got %v", kind, values)
		}
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%s weights sum to %v, want 1", kind, sum)
	}
	return nil
}

// Composite clips every component to [0,100], takes the weighted sum, clips
// it again and rounds to one decimal. Components and weights pair by index.
func Composite(components, weights []float64) float64 {
	sum := 0.0
	for i, c := range components {
		if i >= len(weights) {
			break
		}
		sum += stats.Clip100(c) * weights[i]
	}
	return stats.Round(stats.Clip100(sum), 1)
}
