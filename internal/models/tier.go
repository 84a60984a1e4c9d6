// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package models

import "fmt"

// Tier is a coarse risk band derived from a 0-100 composite score.
type Tier string

// Risk tiers in ascending order.
const (
	TierLow      Tier = "Low"
	TierMedium   Tier = "Medium"
	TierHigh     Tier = "High"
	TierCritical Tier = "Critical"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierLow, TierMedium, TierHigh, TierCritical}

// TierBins holds the five right-inclusive bin edges for Low, Medium, High and
// Critical: a score s falls in tier i when Edges[i] < s <= Edges[i+1].
type TierBins struct {
	Edges []float64 `koanf:"edges" json:"edges"`
}

// DefaultTierBins returns (-1,25], (25,50], (50,70], (70,100].
func DefaultTierBins() TierBins {
	return TierBins{Edges: []float64{-1, 25, 50, 70, 100}}
}

// Validate checks that there are five strictly ascending edges.
func (b TierBins) Validate() error {
	if len(b.Edges) != len(Tiers)+1 {
		return fmt.Errorf("tier edges need %d values, got %d", len(Tiers)+1, len(b.Edges))
	}
	for i := 1; i < len(b.Edges); i++ {
		if b.Edges[i] <= b.Edges[i-1] {
			return fmt.Errorf("tier edges must be strictly ascending, got %v", b.Edges)
		}
	}
	return nil
}

// Classify returns the tier for a score. Scores at or below the lowest edge
// land in Low and scores above the highest edge land in Critical.
func (b TierBins) Classify(score float64) Tier {
	if len(b.Edges) != len(Tiers)+1 {
		b = DefaultTierBins()
	}
	for i := 1; i < len(b.Edges); i++ {
		if score <= b.Edges[i] {
			return Tiers[i-1]
		}
	}
	return TierCritical
}
