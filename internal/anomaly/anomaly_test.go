// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package anomaly

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/testinfra"
)

func points(values ...float64) []Point {
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Bucket: testinfra.At(time.Duration(i) * time.Hour), Value: v, Count: 1}
	}
	return out
}

func mustEngine(t *testing.T, window int, threshold float64) *Engine {
	t.Helper()
	e, err := NewEngine(Config{Window: window, Threshold: threshold})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestScoreLatencySpikeScenario(t *testing.T) {
	e := mustEngine(t, 5, 2.5)
	series := e.Score(points(100, 100, 100, 100, 100, 100, 100, 100, 100, 1000))

	last := series[len(series)-1]
	if !last.IsSpike {
		t.Fatalf("last bucket IsSpike = false (z=%v)", last.ZScore)
	}
	if last.Direction != DirectionHigh {
		t.Errorf("Direction = %v, want HIGH", last.Direction)
	}
	if last.Severity != models.SeverityCritical {
		t.Errorf("Severity = %v, want CRITICAL", last.Severity)
	}
	for i, s := range series[:len(series)-1] {
		if s.IsSpike || s.Direction != DirectionNormal || s.Severity != models.SeverityInfo {
			t.Errorf("bucket %d = %+v, want NORMAL/INFO", i, s)
		}
	}
}

func TestScoreFirstBucketIsNeutral(t *testing.T) {
	e := mustEngine(t, 20, 2.5)
	series := e.Score(points(5000))
	if series[0].ZScore != 0 || series[0].RollingStd != 1 || series[0].IsSpike {
		t.Errorf("first bucket = %+v, want z=0 std=1 no spike", series[0])
	}
}

func TestScoreDirectionAndSeverity(t *testing.T) {
	// Baseline of [10, 20] has mean 15 and std sqrt(50) ~ 7.07.
	std := math.Sqrt(50)
	tests := []struct {
		name      string
		value     float64
		direction Direction
		severity  models.Severity
		spike     bool
	}{
		{"within threshold", 15 + 2*std, DirectionNormal, models.SeverityInfo, false},
		{"high warning", 15 + 3*std, DirectionHigh, models.SeverityWarning, true},
		{"high critical", 15 + 4*std, DirectionHigh, models.SeverityCritical, true},
		{"low warning", 15 - 3*std, DirectionLow, models.SeverityWarning, true},
		{"low critical", 15 - 4*std, DirectionLow, models.SeverityCritical, true},
	}

	e := mustEngine(t, 2, 2.5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Score(points(10, 20, tt.value))[2]
			if got.IsSpike != tt.spike {
				t.Errorf("IsSpike = %v, want %v (z=%v)", got.IsSpike, tt.spike, got.ZScore)
			}
			if got.Direction != tt.direction {
				t.Errorf("Direction = %v, want %v", got.Direction, tt.direction)
			}
			if got.Severity != tt.severity {
				t.Errorf("Severity = %v, want %v", got.Severity, tt.severity)
			}
		})
	}
}

func TestScoreConstantSeries(t *testing.T) {
	e := mustEngine(t, 3, 2.5)
	for i, s := range e.Score(points(7, 7, 7, 7, 7)) {
		if s.ZScore != 0 || s.IsSpike {
			t.Errorf("bucket %d = %+v, want z=0", i, s)
		}
	}
}

func TestErrorRateSeries(t *testing.T) {
	var events []models.Event
	// Hour 0: 1 of 3 failed. Hour 1: none failed.
	events = append(events,
		testinfra.NewEvent(testinfra.At(0)),
		testinfra.NewEvent(testinfra.At(time.Minute), testinfra.WithStatus(500)),
		testinfra.NewEvent(testinfra.At(2*time.Minute)),
		testinfra.NewEvent(testinfra.At(time.Hour)),
	)
	table := testinfra.Table(t, events)

	got := ErrorRateSeries(table.Events())
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Value != 33.33 || got[0].Count != 3 {
		t.Errorf("hour 0 = %+v, want 33.33 over 3", got[0])
	}
	if got[1].Value != 0 {
		t.Errorf("hour 1 = %v, want 0", got[1].Value)
	}
}

func spikyTable(t *testing.T) *models.EventTable {
	t.Helper()
	var events []models.Event
	for h := 0; h < 10; h++ {
		latency := 100.0
		status := 200
		if h == 9 {
			latency = 5000
			status = 503
		}
		for i := 0; i < 4; i++ {
			ts := testinfra.At(time.Duration(h)*time.Hour + time.Duration(i)*time.Minute)
			events = append(events,
				testinfra.NewEvent(ts, testinfra.WithService("checkout"), testinfra.WithLatency(latency), testinfra.WithStatus(status)),
				testinfra.NewEvent(ts, testinfra.WithService("search"), testinfra.WithLatency(80)),
			)
		}
	}
	return testinfra.Table(t, events)
}

func TestAnalyze(t *testing.T) {
	e := mustEngine(t, 5, 2.5)
	report, err := e.Analyze(context.Background(), spikyTable(t))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(report.LatencySeries) != 10 {
		t.Errorf("len(LatencySeries) = %d, want 10", len(report.LatencySeries))
	}
	if report.TotalLatencySpikes != 1 {
		t.Errorf("TotalLatencySpikes = %d, want 1", report.TotalLatencySpikes)
	}
	if report.TotalErrorSpikes != 1 {
		t.Errorf("TotalErrorSpikes = %d, want 1", report.TotalErrorSpikes)
	}
	if !reflect.DeepEqual(report.SpikingServices, []string{"checkout"}) {
		t.Errorf("SpikingServices = %v, want [checkout]", report.SpikingServices)
	}
	if report.TotalServiceLatencySpikes != 1 || report.ServiceLatencySpikes[0].Service != "checkout" {
		t.Errorf("service spikes = %+v, want one for checkout", report.ServiceLatencySpikes)
	}
	if len(report.ServiceLatencySeries) != 20 {
		t.Errorf("len(ServiceLatencySeries) = %d, want 20", len(report.ServiceLatencySeries))
	}
}

func TestAnalyzeMissingColumns(t *testing.T) {
	table := testinfra.Table(t, []models.Event{testinfra.NewEvent(testinfra.At(0))},
		models.ColUserID, models.ColIPAddress)

	e := mustEngine(t, 5, 2.5)
	report, err := e.Analyze(context.Background(), table)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.LatencySeries == nil || len(report.LatencySeries) != 0 {
		t.Errorf("LatencySeries = %v, want empty", report.LatencySeries)
	}
	if report.ErrorRateSpikes == nil || report.ServiceLatencySpikes == nil {
		t.Error("spike lists must be non-nil")
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := mustEngine(t, 5, 2.5)
	if _, err := e.Analyze(ctx, spikyTable(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want context.Canceled", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"zero window", Config{Window: 0, Threshold: 2.5}, true},
		{"zero threshold", Config{Window: 5, Threshold: 0}, true},
		{"nan threshold", Config{Window: 5, Threshold: math.NaN()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
