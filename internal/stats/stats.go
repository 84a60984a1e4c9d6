// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package stats holds the small numeric kernels shared by the analyzers:
// fail-safe division, clipping, rounding, percentiles, rolling windows and
// modes. Every function is total: degenerate input yields a documented
// default instead of NaN or a panic.
package stats

import (
	"math"
	"sort"
)

// SafeDivide returns num/den, or def when den is zero or the result is not finite.
func SafeDivide(num, den, def float64) float64 {
	if den == 0 {
		return def
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return def
	}
	return r
}

// Clip bounds v to [lo, hi]. NaN clips to lo.
func Clip(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// Clip100 bounds a score to [0, 100].
func Clip100(v float64) float64 {
	return Clip(v, 0, 100)
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (n-1 denominator). The second
// result is false when fewer than two values are given.
func StdDev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1)), true
}

// Percentile returns the p-th percentile (0-100) using linear interpolation
// between closest ranks. It does not modify values. Empty input returns 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return PercentileSorted(sorted, p)
}

// PercentileSorted is Percentile for input already sorted ascending.
func PercentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := Clip(p, 0, 100) / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Median is the 50th percentile.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Rolling computes trailing rolling means and sample standard deviations over
// windows of size window ending at each index, requiring one observation.
// Where the deviation is undefined (a single observation) or zero, the
// returned std is 1 so callers can divide unconditionally.
func Rolling(values []float64, window int) (means, stds []float64) {
	if window < 1 {
		window = 1
	}
	means = make([]float64, len(values))
	stds = make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		w := values[start : i+1]
		means[i] = Mean(w)
		sd, ok := StdDev(w)
		if !ok || sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		stds[i] = sd
	}
	return means, stds
}

// Baseline computes, for each index, the mean and sample standard deviation
// of the up to window values preceding it. Index 0 has no history and uses
// itself. Undefined or zero deviations are returned as 1.
func Baseline(values []float64, window int) (means, stds []float64) {
	if window < 1 {
		window = 1
	}
	means = make([]float64, len(values))
	stds = make([]float64, len(values))
	for i := range values {
		start := i - window
		if start < 0 {
			start = 0
		}
		w := values[start:i]
		if len(w) == 0 {
			w = values[i : i+1]
		}
		means[i] = Mean(w)
		sd, ok := StdDev(w)
		if !ok || sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		stds[i] = sd
	}
	return means, stds
}

// Mode returns the most frequent value. Ties resolve to the lexically
// smallest value so the result is deterministic. Empty input returns def.
func Mode(values []string, def string) string {
	if len(values) == 0 {
		return def
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

// Trend is an ordinary least-squares fit of y against x = 0..n-1.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// LinearTrend fits y = slope*x + intercept over x = 0..len(y)-1. Fewer than
// two points yield a flat trend through the single value (or zero).
func LinearTrend(y []float64) Trend {
	n := float64(len(y))
	if len(y) < 2 {
		return Trend{Intercept: Mean(y)}
	}
	var sx, sy, sxx, sxy float64
	for i, v := range y {
		x := float64(i)
		sx += x
		sy += v
		sxx += x * x
		sxy += x * v
	}
	den := n*sxx - sx*sx
	slope := SafeDivide(n*sxy-sx*sy, den, 0)
	intercept := (sy - slope*sx) / n

	meanY := sy / n
	var ssTot, ssRes float64
	for i, v := range y {
		pred := slope*float64(i) + intercept
		ssRes += (v - pred) * (v - pred)
		ssTot += (v - meanY) * (v - meanY)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	return Trend{Slope: slope, Intercept: intercept, RSquared: r2}
}

// MovingAverage returns the trailing mean over window values, using however
// many values are available at the start of the series.
func MovingAverage(values []float64, window int) []float64 {
	means, _ := Rolling(values, window)
	return means
}
