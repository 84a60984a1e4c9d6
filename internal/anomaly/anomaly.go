// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package anomaly flags time buckets whose aggregate metric deviates from its
recent history.

Each series is scored with a trailing rolling z-score: the baseline for a
bucket is the mean and sample standard deviation of the up to Window buckets
before it. A bucket is a spike when |z| exceeds Threshold.

Three series are scored per run:

  - global hourly mean latency
  - global hourly error rate (failed / total × 100)
  - hourly mean latency for each service independently
*/
package anomaly

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// Direction is the side of the baseline a bucket fell on.
type Direction string

const (
	DirectionHigh   Direction = "HIGH"
	DirectionLow    Direction = "LOW"
	DirectionNormal Direction = "NORMAL"
)

// Metric names used for spike counters.
const (
	MetricLatency        = "latency"
	MetricErrorRate      = "error_rate"
	MetricServiceLatency = "service_latency"
)

const (
	defaultWindow    = 20
	defaultThreshold = 2.5

	// criticalFactor scales the threshold above which a spike is CRITICAL.
	criticalFactor = 1.5
)

// Config holds the rolling z-score parameters.
type Config struct {
	// Window is the number of preceding buckets in the baseline.
	Window int `json:"window"`

	// Threshold is the |z| above which a bucket is a spike.
	Threshold float64 `json:"threshold"`
}

// DefaultConfig returns a 20 bucket window with a 2.5 threshold.
func DefaultConfig() Config {
	return Config{Window: defaultWindow, Threshold: defaultThreshold}
}

// Validate checks the parameters.
func (c Config) Validate() error {
	if c.Window < 1 {
		return errors.New("zscore window must be at least 1")
	}
	if c.Threshold <= 0 || math.IsNaN(c.Threshold) {
		return errors.New("zscore threshold must be positive")
	}
	return nil
}

// Point is one aggregated bucket of a series.
type Point struct {
	Bucket time.Time
	Value  float64
	Count  int
}

// Spike is the scored form of a bucket. Every bucket of a series produces one,
// whether or not it is a spike.
type Spike struct {
	Bucket      time.Time       `json:"hour_bucket"`
	Value       float64         `json:"value"`
	Count       int             `json:"count"`
	RollingMean float64         `json:"rolling_mean"`
	RollingStd  float64         `json:"rolling_std"`
	ZScore      float64         `json:"zscore"`
	IsSpike     bool            `json:"is_spike"`
	Direction   Direction       `json:"direction"`
	Severity    models.Severity `json:"severity"`
	Service     string          `json:"service,omitempty"`
}

// Report holds the scored series and the spikes found in them.
type Report struct {
	LatencySeries        []Spike `json:"latency_series"`
	ErrorRateSeries      []Spike `json:"error_rate_series"`
	ServiceLatencySeries []Spike `json:"service_latency_series"`

	LatencySpikes        []Spike `json:"latency_spikes"`
	ErrorRateSpikes      []Spike `json:"error_rate_spikes"`
	ServiceLatencySpikes []Spike `json:"service_latency_spikes"`

	TotalLatencySpikes        int `json:"total_latency_spikes"`
	TotalErrorSpikes          int `json:"total_error_spikes"`
	TotalServiceLatencySpikes int `json:"total_service_latency_spikes"`

	// SpikingServices lists services with at least one latency spike.
	SpikingServices []string `json:"spiking_services"`
}

// Engine scores series with a rolling z-score.
type Engine struct {
	config Config
}

// NewEngine validates config and returns an engine.
func NewEngine(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: config}, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config {
	return e.config
}

// Score computes z-scores for a series ordered by bucket.
func (e *Engine) Score(points []Point) []Spike {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	means, stds := stats.Baseline(values, e.config.Window)

	out := make([]Spike, len(points))
	for i, p := range points {
		z := (p.Value - means[i]) / stds[i]
		out[i] = Spike{
			Bucket:      p.Bucket,
			Value:       p.Value,
			Count:       p.Count,
			RollingMean: stats.Round(means[i], 2),
			RollingStd:  stats.Round(stds[i], 2),
			ZScore:      stats.Round(z, 3),
		}
		e.classify(&out[i], z)
	}
	return out
}

// classify uses the unrounded z so rounding never moves a bucket across the
// threshold.
func (e *Engine) classify(s *Spike, z float64) {
	t := e.config.Threshold
	switch {
	case z > t:
		s.Direction = DirectionHigh
	case z < -t:
		s.Direction = DirectionLow
	default:
		s.Direction = DirectionNormal
	}
	s.IsSpike = math.Abs(z) > t
	switch {
	case !s.IsSpike:
		s.Severity = models.SeverityInfo
	case math.Abs(z) > t*criticalFactor:
		s.Severity = models.SeverityCritical
	default:
		s.Severity = models.SeverityWarning
	}
}

// Analyze scores the latency, error-rate and per-service latency series of
// table. Series whose source column is absent are left empty.
func (e *Engine) Analyze(ctx context.Context, table *models.EventTable) (*Report, error) {
	events := table.Events()
	report := &Report{
		LatencySeries:        []Spike{},
		ErrorRateSeries:      []Spike{},
		ServiceLatencySeries: []Spike{},
		SpikingServices:      []string{},
	}

	if table.HasColumn(models.ColLatency) {
		report.LatencySeries = e.Score(LatencySeries(events))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if table.HasColumn(models.ColStatus) {
		report.ErrorRateSeries = e.Score(ErrorRateSeries(events))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if table.HasColumns(models.ColService, models.ColLatency) {
		for _, svc := range serviceNames(events) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			series := e.Score(LatencySeries(filterService(events, svc)))
			for i := range series {
				series[i].Service = svc
			}
			report.ServiceLatencySeries = append(report.ServiceLatencySeries, series...)
			if countSpikes(series) > 0 {
				report.SpikingServices = append(report.SpikingServices, svc)
			}
		}
	}

	report.LatencySpikes = spikesOnly(report.LatencySeries)
	report.ErrorRateSpikes = spikesOnly(report.ErrorRateSeries)
	report.ServiceLatencySpikes = spikesOnly(report.ServiceLatencySeries)
	report.TotalLatencySpikes = len(report.LatencySpikes)
	report.TotalErrorSpikes = len(report.ErrorRateSpikes)
	report.TotalServiceLatencySpikes = len(report.ServiceLatencySpikes)

	metrics.RecordSpikes(MetricLatency, report.TotalLatencySpikes)
	metrics.RecordSpikes(MetricErrorRate, report.TotalErrorSpikes)
	metrics.RecordSpikes(MetricServiceLatency, report.TotalServiceLatencySpikes)

	return report, nil
}

// LatencySeries aggregates mean latency per hour bucket, ordered by bucket.
func LatencySeries(events []models.Event) []Point {
	return aggregate(events, func(bucket []models.Event) float64 {
		sum := 0.0
		for i := range bucket {
			sum += bucket[i].LatencyMs
		}
		return sum / float64(len(bucket))
	})
}

// ErrorRateSeries aggregates the failure percentage per hour bucket, rounded
// to two decimals, ordered by bucket.
func ErrorRateSeries(events []models.Event) []Point {
	return aggregate(events, func(bucket []models.Event) float64 {
		failed := 0
		for i := range bucket {
			if bucket[i].IsFailure {
				failed++
			}
		}
		return stats.Round(stats.SafeDivide(float64(failed), float64(len(bucket)), 0)*100, 2)
	})
}

// aggregate groups events by HourBucket. Events are timestamp-sorted, so
// buckets arrive in order and each is contiguous.
func aggregate(events []models.Event, value func([]models.Event) float64) []Point {
	points := make([]Point, 0)
	start := 0
	for i := 1; i <= len(events); i++ {
		if i < len(events) && events[i].HourBucket.Equal(events[start].HourBucket) {
			continue
		}
		bucket := events[start:i]
		points = append(points, Point{
			Bucket: events[start].HourBucket,
			Value:  value(bucket),
			Count:  len(bucket),
		})
		start = i
	}
	return points
}

func serviceNames(events []models.Event) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for i := range events {
		if !seen[events[i].Service] {
			seen[events[i].Service] = true
			names = append(names, events[i].Service)
		}
	}
	sort.Strings(names)
	return names
}

func filterService(events []models.Event, service string) []models.Event {
	out := make([]models.Event, 0)
	for i := range events {
		if events[i].Service == service {
			out = append(out, events[i])
		}
	}
	return out
}

func spikesOnly(series []Spike) []Spike {
	out := make([]Spike, 0)
	for _, s := range series {
		if s.IsSpike {
			out = append(out, s)
		}
	}
	return out
}

func countSpikes(series []Spike) int {
	n := 0
	for _, s := range series {
		if s.IsSpike {
			n++
		}
	}
	return n
}
