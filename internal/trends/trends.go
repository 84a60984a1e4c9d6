// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package trends fits moving averages and linear trends to hourly and daily
// traffic aggregates.
package trends

import (
	"context"
	"math"
	"time"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// Direction is the qualitative slope of a trend.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

const (
	// slopeBand is the |slope| below which a trend is stable.
	slopeBand      = 0.5
	minTrendPoints = 3
	defaultHorizon = 6
	dailyMovingAvg = 3
)

// hourlyWindows are the moving-average widths, in buckets, for hourly series.
var hourlyWindows = [3]int{3, 6, 12}

// HourlyPoint aggregates one metric over one hour bucket.
type HourlyPoint struct {
	Bucket time.Time `json:"hour_bucket"`
	Avg    float64   `json:"avg_value"`
	Min    float64   `json:"min_value"`
	Max    float64   `json:"max_value"`
	Count  int       `json:"count"`
	MA3    float64   `json:"ma_3h"`
	MA6    float64   `json:"ma_6h"`
	MA12   float64   `json:"ma_12h"`
}

// DailyPoint aggregates latency and errors over one date.
type DailyPoint struct {
	Date          string  `json:"date"`
	AvgLatencyMs  float64 `json:"avg_value"`
	TotalRequests int     `json:"total_requests"`
	ErrorCount    int     `json:"error_count"`
	ErrorRate     float64 `json:"error_rate"`
	MA3           float64 `json:"ma_3d"`
}

// Trend is a fitted linear trend.
type Trend struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	RSquared  float64   `json:"r_squared"`
	Direction Direction `json:"trend"`
}

// Forecast is a projected hourly request count.
type Forecast struct {
	Bucket   time.Time `json:"hour_bucket"`
	Requests float64   `json:"requests"`
}

// Report holds every trend of a run.
type Report struct {
	HourlyLatency []HourlyPoint `json:"hourly_latency"`
	DailyLatency  []DailyPoint  `json:"daily_latency"`
	HourlyBytes   []HourlyPoint `json:"hourly_throughput"`
	LatencyTrend  Trend         `json:"latency_trend"`
	BytesTrend    Trend         `json:"throughput_trend"`
	VolumeTrend   Trend         `json:"volume_trend"`
	Forecast      []Forecast    `json:"forecast"`
}

// Forecaster builds trend reports.
type Forecaster struct {
	horizon int
}

// NewForecaster returns a forecaster projecting horizon hours (6 when < 1).
func NewForecaster(horizon int) *Forecaster {
	if horizon < 1 {
		horizon = defaultHorizon
	}
	return &Forecaster{horizon: horizon}
}

// Analyze computes the hourly and daily series, their trends and a volume
// forecast.
func (f *Forecaster) Analyze(ctx context.Context, table *models.EventTable) (*Report, error) {
	events := table.Events()
	report := &Report{
		HourlyLatency: []HourlyPoint{},
		DailyLatency:  []DailyPoint{},
		HourlyBytes:   []HourlyPoint{},
		LatencyTrend:  Fit(nil),
		BytesTrend:    Fit(nil),
	}

	if table.HasColumn(models.ColLatency) {
		report.HourlyLatency = Hourly(events, func(e *models.Event) float64 { return e.LatencyMs })
		report.DailyLatency = Daily(events)
		report.LatencyTrend = Fit(avgValues(report.HourlyLatency))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if table.HasColumn(models.ColBytesSent) {
		report.HourlyBytes = Hourly(events, func(e *models.Event) float64 { return float64(e.BytesSent) })
		report.BytesTrend = Fit(avgValues(report.HourlyBytes))
	}

	volume := Hourly(events, func(*models.Event) float64 { return 0 })
	counts := make([]float64, len(volume))
	for i, p := range volume {
		counts[i] = float64(p.Count)
	}
	report.VolumeTrend = Fit(counts)
	report.Forecast = project(volume, counts, f.horizon)

	return report, nil
}

// Hourly aggregates metric per hour bucket with 3, 6 and 12 bucket moving
// averages of the hourly mean.
func Hourly(events []models.Event, metric func(*models.Event) float64) []HourlyPoint {
	out := make([]HourlyPoint, 0)
	start := 0
	for i := 1; i <= len(events); i++ {
		if i < len(events) && events[i].HourBucket.Equal(events[start].HourBucket) {
			continue
		}
		p := HourlyPoint{Bucket: events[start].HourBucket, Min: math.Inf(1), Max: math.Inf(-1)}
		sum := 0.0
		for j := start; j < i; j++ {
			v := metric(&events[j])
			sum += v
			p.Min = math.Min(p.Min, v)
			p.Max = math.Max(p.Max, v)
		}
		p.Count = i - start
		p.Avg = sum / float64(p.Count)
		out = append(out, p)
		start = i
	}

	avgs := avgValues(out)
	ma := [3][]float64{}
	for k, w := range hourlyWindows {
		ma[k] = stats.MovingAverage(avgs, w)
	}
	for i := range out {
		out[i].MA3 = stats.Round(ma[0][i], 2)
		out[i].MA6 = stats.Round(ma[1][i], 2)
		out[i].MA12 = stats.Round(ma[2][i], 2)
		out[i].Avg = stats.Round(out[i].Avg, 2)
	}
	return out
}

// Daily aggregates latency and failures per date with a 3-day moving average.
func Daily(events []models.Event) []DailyPoint {
	out := make([]DailyPoint, 0)
	sums := make([]float64, 0)
	for i := range events {
		e := &events[i]
		if len(out) == 0 || out[len(out)-1].Date != e.Date {
			out = append(out, DailyPoint{Date: e.Date})
			sums = append(sums, 0)
		}
		d := &out[len(out)-1]
		d.TotalRequests++
		sums[len(sums)-1] += e.LatencyMs
		if e.IsFailure {
			d.ErrorCount++
		}
	}

	avgs := make([]float64, len(out))
	for i := range out {
		avgs[i] = sums[i] / float64(out[i].TotalRequests)
	}
	ma := stats.MovingAverage(avgs, dailyMovingAvg)
	for i := range out {
		out[i].AvgLatencyMs = stats.Round(avgs[i], 2)
		out[i].ErrorRate = stats.Round(float64(out[i].ErrorCount)/float64(out[i].TotalRequests)*100, 2)
		out[i].MA3 = stats.Round(ma[i], 2)
	}
	return out
}

// Fit fits a least-squares line to y after dropping NaNs. Fewer than three
// points yield a zero stable trend.
func Fit(y []float64) Trend {
	clean := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) < minTrendPoints {
		return Trend{Direction: Stable}
	}

	lt := stats.LinearTrend(clean)
	dir := Stable
	switch {
	case lt.Slope > slopeBand:
		dir = Increasing
	case lt.Slope < -slopeBand:
		dir = Decreasing
	}
	return Trend{
		Slope:     stats.Round(lt.Slope, 4),
		Intercept: stats.Round(lt.Intercept, 2),
		RSquared:  stats.Round(lt.RSquared, 4),
		Direction: dir,
	}
}

// project extends the unrounded volume fit horizon hours past the last bucket.
func project(volume []HourlyPoint, counts []float64, horizon int) []Forecast {
	out := make([]Forecast, 0, horizon)
	if len(volume) < minTrendPoints {
		return out
	}
	lt := stats.LinearTrend(counts)
	last := volume[len(volume)-1].Bucket
	n := len(counts)
	for k := 1; k <= horizon; k++ {
		x := float64(n - 1 + k)
		out = append(out, Forecast{
			Bucket:   last.Add(time.Duration(k) * time.Hour),
			Requests: stats.Round(math.Max(0, lt.Slope*x+lt.Intercept), 1),
		})
	}
	return out
}

func avgValues(points []HourlyPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Avg
	}
	return out
}
