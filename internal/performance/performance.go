// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package performance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// RAGStatus is the traffic-light health of a service.
type RAGStatus string

const (
	RAGGreen RAGStatus = "GREEN"
	RAGAmber RAGStatus = "AMBER"
	RAGRed   RAGStatus = "RED"
)

// Bottleneck kinds.
const (
	BottleneckLatency   = "High Latency"
	BottleneckErrorRate = "High Error Rate"
)

const (
	slowLatencyMs      = 500
	criticalLatencyMs  = 1000
	highErrorRate      = 0.05
	criticalErrorRate  = 0.10
	bottlenecksPerKind = 3
	maxBottlenecks     = 5

	// Health scoring bands.
	errorRateFloor   = 0.10
	latencyGoodMs    = 200
	latencyCeilingMs = 2000
	healthErrWeight  = 0.6
	healthLatWeight  = 0.4
)

// SLAConfig holds the service level objectives checked per service.
type SLAConfig struct {
	P95LatencyMs    float64 `json:"p95_latency_ms"`
	P99LatencyMs    float64 `json:"p99_latency_ms"`
	ErrorRatePct    float64 `json:"error_rate_pct"`
	AvailabilityPct float64 `json:"availability_pct"`
}

// RAGConfig holds the health score thresholds for GREEN and AMBER.
type RAGConfig struct {
	Green float64 `json:"green"`
	Amber float64 `json:"amber"`
}

// Config configures the analyzer.
type Config struct {
	SLA SLAConfig `json:"sla"`
	RAG RAGConfig `json:"rag"`
}

// DefaultConfig returns the stock objectives: p95 500ms, p99 1000ms, 5% errors,
// 99.5% availability, GREEN at 85 and AMBER at 60.
func DefaultConfig() Config {
	return Config{
		SLA: SLAConfig{
			P95LatencyMs:    500,
			P99LatencyMs:    1000,
			ErrorRatePct:    5.0,
			AvailabilityPct: 99.5,
		},
		RAG: RAGConfig{Green: 85, Amber: 60},
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.SLA.P95LatencyMs <= 0 || c.SLA.P99LatencyMs <= 0 {
		return errors.New("sla latency objectives must be positive")
	}
	if c.SLA.ErrorRatePct < 0 || c.SLA.ErrorRatePct > 100 {
		return fmt.Errorf("sla error rate %v outside [0,100]", c.SLA.ErrorRatePct)
	}
	if c.SLA.AvailabilityPct < 0 || c.SLA.AvailabilityPct > 100 {
		return fmt.Errorf("sla availability %v outside [0,100]", c.SLA.AvailabilityPct)
	}
	if c.RAG.Amber >= c.RAG.Green {
		return fmt.Errorf("rag amber threshold %v must be below green %v", c.RAG.Amber, c.RAG.Green)
	}
	return nil
}

// Classify maps a health score to its RAG status.
func (c RAGConfig) Classify(score float64) RAGStatus {
	switch {
	case score >= c.Green:
		return RAGGreen
	case score >= c.Amber:
		return RAGAmber
	default:
		return RAGRed
	}
}

// LatencyStats summarizes one service's latency distribution.
type LatencyStats struct {
	Service string  `json:"service"`
	P50     float64 `json:"p50"`
	P75     float64 `json:"p75"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Count   int     `json:"count"`
}

// SLABreach records every objective a service missed.
type SLABreach struct {
	Service         string          `json:"service"`
	Details         string          `json:"breach_details"`
	Breaches        []string        `json:"breaches"`
	BreachCount     int             `json:"breach_count"`
	P95LatencyMs    float64         `json:"p95_latency"`
	P99LatencyMs    float64         `json:"p99_latency"`
	ErrorRatePct    float64         `json:"error_rate_pct"`
	AvailabilityPct float64         `json:"availability_pct"`
	Severity        models.Severity `json:"severity"`
}

// ServiceHealth is the composite health of a service.
type ServiceHealth struct {
	Service       string    `json:"service"`
	TotalRequests int       `json:"total_requests"`
	ErrorCount    int       `json:"error_count"`
	ErrorRate     float64   `json:"error_rate"`
	AvgLatencyMs  float64   `json:"avg_latency"`
	P95LatencyMs  float64   `json:"p95_latency"`
	ScoreErrors   float64   `json:"score_errors"`
	ScoreLatency  float64   `json:"score_latency"`
	HealthScore   float64   `json:"health_score"`
	RAG           RAGStatus `json:"rag_status"`
}

// Bottleneck is a likely root cause with a remediation hint.
type Bottleneck struct {
	Type     string          `json:"type"`
	Service  string          `json:"service"`
	Detail   string          `json:"detail"`
	Severity models.Severity `json:"severity"`
}

// Throughput is one hourly traffic bucket.
type Throughput struct {
	Bucket            time.Time `json:"timestamp"`
	RequestCount      int       `json:"request_count"`
	ErrorCount        int       `json:"error_count"`
	ErrorRate         float64   `json:"error_rate"`
	AvgLatencyMs      float64   `json:"avg_latency"`
	BytesSent         int64     `json:"bytes_sent"`
	RequestsPerSecond float64   `json:"requests_per_second"`
}

// ErrorRate is the share of one status category within a service.
type ErrorRate struct {
	Service        string                `json:"service"`
	StatusCategory models.StatusCategory `json:"status_category"`
	Count          int                   `json:"count"`
	Total          int                   `json:"total"`
	Percentage     float64               `json:"percentage"`
}

// Report is the output of one analysis.
type Report struct {
	LatencyPercentiles   []LatencyStats  `json:"latency_percentiles"`
	SLABreaches          []SLABreach     `json:"sla_breaches"`
	Throughput           []Throughput    `json:"throughput"`
	ErrorRates           []ErrorRate     `json:"error_rates"`
	ServiceHealth        []ServiceHealth `json:"service_health"`
	Bottlenecks          []Bottleneck    `json:"bottlenecks"`
	OverallHealthScore   float64         `json:"overall_health_score"`
	ServicesBreachingSLA int             `json:"services_breaching_sla"`
}

// Analyzer computes service-level performance findings.
type Analyzer struct {
	config Config
}

// NewAnalyzer validates config and returns an analyzer.
func NewAnalyzer(config Config) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{config: config}, nil
}

// serviceGroup holds one service's events and precomputed aggregates.
type serviceGroup struct {
	name      string
	events    []models.Event
	latencies []float64 // sorted ascending
	failures  int
}

func (g *serviceGroup) errorRate() float64 {
	return stats.SafeDivide(float64(g.failures), float64(len(g.events)), 0)
}

// Analyze runs every performance check over table. Without a service column
// all events belong to a single "unknown-service".
func (a *Analyzer) Analyze(ctx context.Context, table *models.EventTable) (*Report, error) {
	groups := groupByService(table)
	hasLatency := table.HasColumn(models.ColLatency)

	report := &Report{
		LatencyPercentiles: []LatencyStats{},
		SLABreaches:        []SLABreach{},
		ErrorRates:         []ErrorRate{},
		ServiceHealth:      make([]ServiceHealth, 0, len(groups)),
	}

	if hasLatency {
		for _, g := range groups {
			report.LatencyPercentiles = append(report.LatencyPercentiles, latencyStats(g))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, g := range groups {
		if b, ok := a.checkSLA(g); ok {
			report.SLABreaches = append(report.SLABreaches, b)
		}
		report.ServiceHealth = append(report.ServiceHealth, a.health(g))
	}
	sort.SliceStable(report.ServiceHealth, func(i, j int) bool {
		return report.ServiceHealth[i].HealthScore < report.ServiceHealth[j].HealthScore
	})
	report.ServicesBreachingSLA = len(report.SLABreaches)

	if table.HasColumn(models.ColStatus) {
		report.ErrorRates = errorRates(groups)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Throughput = HourlyThroughput(table.Events())
	report.Bottlenecks = bottlenecks(groups, hasLatency)
	report.OverallHealthScore = overallHealth(report.ServiceHealth)

	return report, nil
}

// groupByService returns one group per service, ordered by name.
func groupByService(table *models.EventTable) []*serviceGroup {
	byName := make(map[string]*serviceGroup)
	withService := table.HasColumn(models.ColService)
	for _, e := range table.Events() {
		name := models.DefaultService
		if withService && e.Service != "" {
			name = e.Service
		}
		g, ok := byName[name]
		if !ok {
			g = &serviceGroup{name: name}
			byName[name] = g
		}
		g.events = append(g.events, e)
		g.latencies = append(g.latencies, e.LatencyMs)
		if e.IsFailure {
			g.failures++
		}
	}

	out := make([]*serviceGroup, 0, len(byName))
	for _, g := range byName {
		sort.Float64s(g.latencies)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func latencyStats(g *serviceGroup) LatencyStats {
	std, _ := stats.StdDev(g.latencies)
	return LatencyStats{
		Service: g.name,
		P50:     stats.Round(stats.PercentileSorted(g.latencies, 50), 1),
		P75:     stats.Round(stats.PercentileSorted(g.latencies, 75), 1),
		P95:     stats.Round(stats.PercentileSorted(g.latencies, 95), 1),
		P99:     stats.Round(stats.PercentileSorted(g.latencies, 99), 1),
		Mean:    stats.Round(stats.Mean(g.latencies), 1),
		Std:     stats.Round(std, 1),
		Count:   len(g.events),
	}
}

func (a *Analyzer) checkSLA(g *serviceGroup) (SLABreach, bool) {
	sla := a.config.SLA
	p95 := stats.PercentileSorted(g.latencies, 95)
	p99 := stats.PercentileSorted(g.latencies, 99)
	errPct := stats.Round(g.errorRate()*100, 2)
	avail := stats.Round(100-errPct, 2)

	var breaches []string
	if p95 > sla.P95LatencyMs {
		breaches = append(breaches, fmt.Sprintf("p95 latency %.0fms > %sms", p95, formatThreshold(sla.P95LatencyMs)))
	}
	if p99 > sla.P99LatencyMs {
		breaches = append(breaches, fmt.Sprintf("p99 latency %.0fms > %sms", p99, formatThreshold(sla.P99LatencyMs)))
	}
	if errPct > sla.ErrorRatePct {
		breaches = append(breaches, fmt.Sprintf("Error rate %.1f%% > %s%%", errPct, formatThreshold(sla.ErrorRatePct)))
	}
	if avail < sla.AvailabilityPct {
		breaches = append(breaches, fmt.Sprintf("Availability %.1f%% < %s%%", avail, formatThreshold(sla.AvailabilityPct)))
	}
	if len(breaches) == 0 {
		return SLABreach{}, false
	}

	severity := models.SeverityWarning
	if len(breaches) >= 2 {
		severity = models.SeverityCritical
	}
	return SLABreach{
		Service:         g.name,
		Details:         strings.Join(breaches, "; "),
		Breaches:        breaches,
		BreachCount:     len(breaches),
		P95LatencyMs:    stats.Round(p95, 1),
		P99LatencyMs:    stats.Round(p99, 1),
		ErrorRatePct:    errPct,
		AvailabilityPct: avail,
		Severity:        severity,
	}, true
}

// formatThreshold prints 500 as "500" and 99.5 as "99.5".
func formatThreshold(v float64) string {
	return fmt.Sprintf("%g", v)
}

func (a *Analyzer) health(g *serviceGroup) ServiceHealth {
	er := g.errorRate()
	avg := stats.Mean(g.latencies)

	scoreErrors := stats.Round((1-stats.Clip(er, 0, errorRateFloor)/errorRateFloor)*100, 1)
	latencyFrac := 1 - (stats.Clip(avg, 0, latencyCeilingMs)-latencyGoodMs)/(latencyCeilingMs-latencyGoodMs)
	scoreLatency := stats.Round(stats.Clip(latencyFrac, 0, 1)*100, 1)
	score := stats.Round(scoreErrors*healthErrWeight+scoreLatency*healthLatWeight, 1)

	return ServiceHealth{
		Service:       g.name,
		TotalRequests: len(g.events),
		ErrorCount:    g.failures,
		ErrorRate:     stats.Round(er, 4),
		AvgLatencyMs:  stats.Round(avg, 1),
		P95LatencyMs:  stats.Round(stats.PercentileSorted(g.latencies, 95), 1),
		ScoreErrors:   scoreErrors,
		ScoreLatency:  scoreLatency,
		HealthScore:   score,
		RAG:           a.config.RAG.Classify(score),
	}
}

func errorRates(groups []*serviceGroup) []ErrorRate {
	out := make([]ErrorRate, 0)
	for _, g := range groups {
		counts := make(map[models.StatusCategory]int)
		for i := range g.events {
			counts[g.events[i].StatusCategory]++
		}
		cats := make([]models.StatusCategory, 0, len(counts))
		for c := range counts {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, c := range cats {
			out = append(out, ErrorRate{
				Service:        g.name,
				StatusCategory: c,
				Count:          counts[c],
				Total:          len(g.events),
				Percentage:     stats.Round(float64(counts[c])/float64(len(g.events))*100, 2),
			})
		}
	}
	return out
}

// HourlyThroughput buckets events by hour from the first to the last event.
// Hours without traffic appear with zero counts.
func HourlyThroughput(events []models.Event) []Throughput {
	out := make([]Throughput, 0)
	if len(events) == 0 {
		return out
	}
	first := events[0].HourBucket
	last := events[len(events)-1].HourBucket

	idx := 0
	for b := first; !b.After(last); b = b.Add(time.Hour) {
		t := Throughput{Bucket: b}
		latency := 0.0
		for idx < len(events) && events[idx].HourBucket.Equal(b) {
			e := events[idx]
			t.RequestCount++
			if e.IsFailure {
				t.ErrorCount++
			}
			t.BytesSent += e.BytesSent
			latency += e.LatencyMs
			idx++
		}
		t.ErrorRate = stats.Round(stats.SafeDivide(float64(t.ErrorCount), float64(t.RequestCount), 0)*100, 2)
		t.AvgLatencyMs = stats.Round(stats.SafeDivide(latency, float64(t.RequestCount), 0), 1)
		t.RequestsPerSecond = stats.Round(float64(t.RequestCount)/time.Hour.Seconds(), 3)
		out = append(out, t)
	}
	return out
}

func bottlenecks(groups []*serviceGroup, hasLatency bool) []Bottleneck {
	out := make([]Bottleneck, 0)

	if hasLatency {
		slow := make([]*serviceGroup, len(groups))
		copy(slow, groups)
		sort.SliceStable(slow, func(i, j int) bool {
			return stats.Mean(slow[i].latencies) > stats.Mean(slow[j].latencies)
		})
		for _, g := range slow[:min(bottlenecksPerKind, len(slow))] {
			mean := stats.Mean(g.latencies)
			if mean <= slowLatencyMs {
				continue
			}
			std, ok := stats.StdDev(g.latencies)
			if !ok || math.IsNaN(std) {
				std = 0
			}
			severity := models.SeverityWarning
			if mean >= criticalLatencyMs {
				severity = models.SeverityCritical
			}
			out = append(out, Bottleneck{
				Type:     BottleneckLatency,
				Service:  g.name,
				Detail:   fmt.Sprintf("Average latency %.0fms (σ=%.0fms). Consider caching or query optimization.", mean, std),
				Severity: severity,
			})
		}
	}

	failing := make([]*serviceGroup, len(groups))
	copy(failing, groups)
	sort.SliceStable(failing, func(i, j int) bool {
		return failing[i].errorRate() > failing[j].errorRate()
	})
	for _, g := range failing[:min(bottlenecksPerKind, len(failing))] {
		rate := g.errorRate()
		if rate <= highErrorRate {
			continue
		}
		severity := models.SeverityWarning
		if rate >= criticalErrorRate {
			severity = models.SeverityCritical
		}
		out = append(out, Bottleneck{
			Type:     BottleneckErrorRate,
			Service:  g.name,
			Detail:   fmt.Sprintf("Error rate %.1f%%. Investigate upstream dependencies and failure modes.", rate*100),
			Severity: severity,
		})
	}

	if len(out) > maxBottlenecks {
		out = out[:maxBottlenecks]
	}
	return out
}

func overallHealth(health []ServiceHealth) float64 {
	if len(health) == 0 {
		return 100
	}
	sum := 0.0
	for _, h := range health {
		sum += h.HealthScore
	}
	return stats.Round(sum/float64(len(health)), 1)
}
