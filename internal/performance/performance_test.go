// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package performance

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/testinfra"
)

func mustAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	return a
}

// twoServiceTable has a healthy "api" in hour 0 and a slow, failing "db" in
// hour 2.
func twoServiceTable(t *testing.T) *models.EventTable {
	t.Helper()
	var events []models.Event
	for i := 0; i < 20; i++ {
		events = append(events, testinfra.NewEvent(testinfra.At(time.Duration(i)*time.Minute),
			testinfra.WithService("api"), testinfra.WithLatency(100), testinfra.WithBytes(10)))
	}
	for i := 0; i < 10; i++ {
		status := 200
		if i < 2 {
			status = 500
		}
		events = append(events, testinfra.NewEvent(testinfra.At(2*time.Hour+time.Duration(i)*time.Minute),
			testinfra.WithService("db"), testinfra.WithLatency(1200), testinfra.WithStatus(status)))
	}
	return testinfra.Table(t, events)
}

func TestAnalyzeTwoServices(t *testing.T) {
	report, err := mustAnalyzer(t).Analyze(context.Background(), twoServiceTable(t))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	t.Run("health", func(t *testing.T) {
		if len(report.ServiceHealth) != 2 {
			t.Fatalf("len(ServiceHealth) = %d, want 2", len(report.ServiceHealth))
		}
		db, api := report.ServiceHealth[0], report.ServiceHealth[1]
		if db.Service != "db" {
			t.Errorf("least healthy = %s, want db", db.Service)
		}
		if db.HealthScore != 17.8 || db.RAG != RAGRed {
			t.Errorf("db health = %v/%v, want 17.8/RED", db.HealthScore, db.RAG)
		}
		if db.ScoreErrors != 0 || db.ScoreLatency != 44.4 {
			t.Errorf("db components = %v/%v, want 0/44.4", db.ScoreErrors, db.ScoreLatency)
		}
		if api.HealthScore != 100 || api.RAG != RAGGreen {
			t.Errorf("api health = %v/%v, want 100/GREEN", api.HealthScore, api.RAG)
		}
		if report.OverallHealthScore != 58.9 {
			t.Errorf("OverallHealthScore = %v, want 58.9", report.OverallHealthScore)
		}
	})

	t.Run("sla", func(t *testing.T) {
		if report.ServicesBreachingSLA != 1 || len(report.SLABreaches) != 1 {
			t.Fatalf("breaches = %+v, want only db", report.SLABreaches)
		}
		b := report.SLABreaches[0]
		if b.Service != "db" || b.BreachCount != 4 || b.Severity != models.SeverityCritical {
			t.Errorf("breach = %+v, want db with 4 breaches CRITICAL", b)
		}
		want := "p95 latency 1200ms > 500ms; p99 latency 1200ms > 1000ms; Error rate 20.0% > 5%; Availability 80.0% < 99.5%"
		if b.Details != want {
			t.Errorf("Details = %q, want %q", b.Details, want)
		}
	})

	t.Run("bottlenecks", func(t *testing.T) {
		if len(report.Bottlenecks) != 2 {
			t.Fatalf("len(Bottlenecks) = %d, want 2", len(report.Bottlenecks))
		}
		lat, errs := report.Bottlenecks[0], report.Bottlenecks[1]
		if lat.Type != BottleneckLatency || lat.Severity != models.SeverityCritical {
			t.Errorf("first bottleneck = %+v", lat)
		}
		if !strings.HasPrefix(lat.Detail, "Average latency 1200ms (σ=0ms)") {
			t.Errorf("Detail = %q", lat.Detail)
		}
		if errs.Type != BottleneckErrorRate || errs.Service != "db" || errs.Severity != models.SeverityCritical {
			t.Errorf("second bottleneck = %+v", errs)
		}
	})

	t.Run("percentiles", func(t *testing.T) {
		if len(report.LatencyPercentiles) != 2 {
			t.Fatalf("len(LatencyPercentiles) = %d, want 2", len(report.LatencyPercentiles))
		}
		api := report.LatencyPercentiles[0]
		if api.Service != "api" || api.P99 != 100 || api.Count != 20 || api.Std != 0 {
			t.Errorf("api percentiles = %+v", api)
		}
	})

	t.Run("throughput", func(t *testing.T) {
		if len(report.Throughput) != 3 {
			t.Fatalf("len(Throughput) = %d, want 3 hourly buckets", len(report.Throughput))
		}
		if got := report.Throughput[0]; got.RequestCount != 20 || got.BytesSent != 200 || got.RequestsPerSecond != 0.006 {
			t.Errorf("hour 0 = %+v", got)
		}
		if got := report.Throughput[1]; got.RequestCount != 0 || got.ErrorRate != 0 {
			t.Errorf("empty hour = %+v, want zero counts", got)
		}
		if got := report.Throughput[2]; got.ErrorCount != 2 || got.ErrorRate != 20 || got.AvgLatencyMs != 1200 {
			t.Errorf("hour 2 = %+v", got)
		}
	})

	t.Run("error rates", func(t *testing.T) {
		var db []ErrorRate
		for _, r := range report.ErrorRates {
			if r.Service == "db" {
				db = append(db, r)
			}
		}
		if len(db) != 2 {
			t.Fatalf("db error rates = %+v, want 2 categories", db)
		}
		if db[0].StatusCategory != models.StatusServerError || db[0].Percentage != 20 {
			t.Errorf("db[0] = %+v, want server_error 20%%", db[0])
		}
		if db[1].StatusCategory != models.StatusSuccess || db[1].Percentage != 80 {
			t.Errorf("db[1] = %+v, want success 80%%", db[1])
		}
	})
}

func TestAnalyzeWithoutServiceColumn(t *testing.T) {
	events := []models.Event{
		testinfra.NewEvent(testinfra.At(0), testinfra.WithService("ignored")),
		testinfra.NewEvent(testinfra.At(time.Minute), testinfra.WithService("other")),
	}
	table := testinfra.Table(t, events, models.ColUserID, models.ColLatency, models.ColStatus)

	report, err := mustAnalyzer(t).Analyze(context.Background(), table)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(report.ServiceHealth) != 1 || report.ServiceHealth[0].Service != models.DefaultService {
		t.Errorf("ServiceHealth = %+v, want single %s", report.ServiceHealth, models.DefaultService)
	}
	if report.ServiceHealth[0].TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", report.ServiceHealth[0].TotalRequests)
	}
}

func TestBottlenecksCapped(t *testing.T) {
	var events []models.Event
	for i, latency := range []float64{600, 700, 800, 900} {
		svc := fmt.Sprintf("s%d", i+1)
		ts := testinfra.At(time.Duration(i) * time.Minute)
		events = append(events,
			testinfra.NewEvent(ts, testinfra.WithService(svc), testinfra.WithLatency(latency)),
			testinfra.NewEvent(ts, testinfra.WithService(svc), testinfra.WithLatency(latency), testinfra.WithStatus(500)),
		)
	}

	report, err := mustAnalyzer(t).Analyze(context.Background(), testinfra.Table(t, events))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(report.Bottlenecks) != 5 {
		t.Fatalf("len(Bottlenecks) = %d, want 5", len(report.Bottlenecks))
	}
	wantServices := []string{"s4", "s3", "s2", "s1", "s2"}
	for i, b := range report.Bottlenecks {
		if b.Service != wantServices[i] {
			t.Errorf("bottleneck[%d].Service = %s, want %s", i, b.Service, wantServices[i])
		}
	}
	if report.Bottlenecks[0].Severity != models.SeverityWarning {
		t.Errorf("900ms severity = %v, want WARNING", report.Bottlenecks[0].Severity)
	}
	if report.Bottlenecks[4].Type != BottleneckErrorRate {
		t.Errorf("last bottleneck type = %s, want %s", report.Bottlenecks[4].Type, BottleneckErrorRate)
	}
}

func TestRAGClassify(t *testing.T) {
	rag := DefaultConfig().RAG
	tests := []struct {
		score float64
		want  RAGStatus
	}{
		{100, RAGGreen},
		{85, RAGGreen},
		{84.9, RAGAmber},
		{60, RAGAmber},
		{59.9, RAGRed},
		{0, RAGRed},
	}
	for _, tt := range tests {
		if got := rag.Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	bad := DefaultConfig()
	bad.RAG.Amber = 90
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"amber above green", bad, true},
		{"negative latency", Config{SLA: SLAConfig{P95LatencyMs: -1, P99LatencyMs: 1}, RAG: RAGConfig{Green: 85, Amber: 60}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOverallHealthNoServices(t *testing.T) {
	if got := overallHealth(nil); got != 100 {
		t.Errorf("overallHealth(nil) = %v, want 100", got)
	}
}
