// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package pipeline runs one full analysis pass over an event table.

Stages:

	1. fan-out     security, anomaly, performance, usage, trends (parallel)
	2. fusion      per-user and per-IP risk from the stage 1 outputs and signals
	3. alerts      alert feed and summary

Stage 1 analyzers share only the read-only table. An analyzer error other than
context cancellation is recorded as a warning and leaves that section empty;
only an empty table or a cancelled context fails the run.
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/loglens/internal/alerts"
	"github.com/tomtom215/loglens/internal/anomaly"
	"github.com/tomtom215/loglens/internal/detection"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/performance"
	"github.com/tomtom215/loglens/internal/risk"
	"github.com/tomtom215/loglens/internal/trends"
	"github.com/tomtom215/loglens/internal/usage"
)

// Stage names as recorded in metrics and warnings.
const (
	StageSecurity    = "security"
	StageAnomaly     = "anomaly"
	StagePerformance = "performance"
	StageUsage       = "usage"
	StageTrends      = "trends"
	StageRisk        = "risk"
	StageAlerts      = "alerts"
)

// Config bundles the analyzer configurations.
type Config struct {
	Security    detection.SecurityConfig
	Anomaly     anomaly.Config
	Performance performance.Config
	Risk        risk.Config
	Alerts      alerts.Config

	TopEndpoints    int
	ForecastHorizon int

	// UseProfileLabels feeds usage profiler user types to risk fusion as
	// cluster labels when the caller supplies none. Off unless configured.
	UseProfileLabels bool

	// MaskUserIDs masks user IDs in the security finding audit log.
	MaskUserIDs bool
}

// DefaultConfig returns every analyzer's defaults.
func DefaultConfig() Config {
	return Config{
		Security:        detection.DefaultSecurityConfig(),
		Anomaly:         anomaly.DefaultConfig(),
		Performance:     performance.DefaultConfig(),
		Risk:            risk.DefaultConfig(),
		Alerts:          alerts.DefaultConfig(),
		TopEndpoints:    10,
		ForecastHorizon: 6,
	}
}

// Report is the result of one run.
type Report struct {
	RunID        string                    `json:"run_id"`
	GeneratedAt  time.Time                 `json:"generated_at"`
	Events       int                       `json:"events"`
	Quality      *models.QualityReport     `json:"quality,omitempty"`
	Security     *detection.SecurityReport `json:"security"`
	Anomaly      *anomaly.Report           `json:"anomaly"`
	Performance  *performance.Report       `json:"performance"`
	Usage        *usage.Report             `json:"usage"`
	Trends       *trends.Report            `json:"trends"`
	Risk         *risk.Result              `json:"risk"`
	Alerts       []alerts.Alert            `json:"alerts"`
	AlertSummary alerts.Summary            `json:"alert_summary"`
	Warnings     []string                  `json:"warnings"`
}

// Pipeline holds the constructed analyzers. It is safe for concurrent runs.
type Pipeline struct {
	security    *detection.SecurityAnalyzer
	anomaly     *anomaly.Engine
	performance *performance.Analyzer
	usage       *usage.Profiler
	trends      *trends.Forecaster
	risk        *risk.Engine
	alerts      *alerts.Generator

	useProfileLabels bool
	maskUserIDs      bool
	now              func() time.Time
}

// New builds every analyzer, failing on the first invalid configuration.
func New(cfg Config) (*Pipeline, error) {
	sec, err := detection.NewSecurityAnalyzer(cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("security analyzer: %w", err)
	}
	anom, err := anomaly.NewEngine(cfg.Anomaly)
	if err != nil {
		return nil, fmt.Errorf("anomaly engine: %w", err)
	}
	perf, err := performance.NewAnalyzer(cfg.Performance)
	if err != nil {
		return nil, fmt.Errorf("performance analyzer: %w", err)
	}
	fusion, err := risk.NewEngine(cfg.Risk)
	if err != nil {
		return nil, fmt.Errorf("risk engine: %w", err)
	}

	return &Pipeline{
		security:         sec,
		anomaly:          anom,
		performance:      perf,
		usage:            usage.NewProfiler(cfg.TopEndpoints),
		trends:           trends.NewForecaster(cfg.ForecastHorizon),
		risk:             fusion,
		alerts:           alerts.NewGenerator(cfg.Alerts),
		useProfileLabels: cfg.UseProfileLabels,
		maskUserIDs:      cfg.MaskUserIDs,
		now:              time.Now,
	}, nil
}

// WithClock replaces the report and alert clock.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	p.alerts = p.alerts.WithClock(now)
	return p
}

// Security exposes the security analyzer so callers can toggle detectors.
func (p *Pipeline) Security() *detection.SecurityAnalyzer {
	return p.security
}

// Run analyzes table. signals may be zero; absent IP reputation is taken from
// the security stage and absent cluster labels from the usage profiler when
// enabled. The error wraps models.ErrNoUsableRows for an empty table.
func (p *Pipeline) Run(ctx context.Context, table *models.EventTable, signals risk.Signals) (*Report, error) {
	start := time.Now()
	if table == nil || table.Len() == 0 {
		metrics.RecordPipelineRun("no_usable_rows", 0, time.Since(start))
		return nil, fmt.Errorf("pipeline: %w", models.ErrNoUsableRows)
	}

	runID := uuid.New().String()
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())
	}
	ctx = logging.ContextWithRunID(ctx, runID)

	report, err := p.run(ctx, table, signals)
	if err != nil {
		metrics.RecordPipelineRun("error", table.Len(), time.Since(start))
		logging.CtxErr(ctx, err).Msg("pipeline run failed")
		return nil, err
	}
	report.RunID = runID
	report.GeneratedAt = p.now().UTC()
	report.Events = table.Len()

	metrics.RecordPipelineRun("success", table.Len(), time.Since(start))
	logging.Ctx(ctx).Info().
		Int("events", report.Events).
		Int("alerts", report.AlertSummary.Total).
		Int("critical", report.AlertSummary.Critical).
		Int("warnings", len(report.Warnings)).
		Dur("duration", time.Since(start)).
		Msg("pipeline run complete")

	return report, nil
}

func (p *Pipeline) run(ctx context.Context, table *models.EventTable, signals risk.Signals) (*Report, error) {
	report := &Report{Warnings: []string{}}
	var warnings [5]error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := timed(StageSecurity, func() (*detection.SecurityReport, error) {
			return p.security.Analyze(gctx, table)
		})
		report.Security = r
		return classify(gctx, StageSecurity, err, &warnings[0])
	})
	g.Go(func() error {
		r, err := timed(StageAnomaly, func() (*anomaly.Report, error) {
			return p.anomaly.Analyze(gctx, table)
		})
		report.Anomaly = r
		return classify(gctx, StageAnomaly, err, &warnings[1])
	})
	g.Go(func() error {
		r, err := timed(StagePerformance, func() (*performance.Report, error) {
			return p.performance.Analyze(gctx, table)
		})
		report.Performance = r
		return classify(gctx, StagePerformance, err, &warnings[2])
	})
	g.Go(func() error {
		r, err := timed(StageUsage, func() (*usage.Report, error) {
			return p.usage.Analyze(gctx, table)
		})
		report.Usage = r
		return classify(gctx, StageUsage, err, &warnings[3])
	})
	g.Go(func() error {
		r, err := timed(StageTrends, func() (*trends.Report, error) {
			return p.trends.Analyze(gctx, table)
		})
		report.Trends = r
		return classify(gctx, StageTrends, err, &warnings[4])
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, w := range warnings {
		if w != nil {
			report.Warnings = append(report.Warnings, w.Error())
		}
	}
	p.auditFindings(ctx, report.Security)

	signals = p.completeSignals(signals, report)

	fused, err := timed(StageRisk, func() (*risk.Result, error) {
		return p.risk.Fuse(ctx, table, signals)
	})
	if err != nil {
		return nil, fmt.Errorf("risk fusion: %w", err)
	}
	report.Risk = fused

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alertStart := time.Now()
	report.Alerts = p.alerts.Generate(alerts.Inputs{
		Security:    report.Security,
		Performance: report.Performance,
		Anomaly:     report.Anomaly,
		Risk:        &fused.Summary,
	})
	report.AlertSummary = alerts.Summarize(report.Alerts)
	metrics.RecordStage(StageAlerts, time.Since(alertStart))

	return report, nil
}

// completeSignals fills absent signal tables from stage 1 results.
func (p *Pipeline) completeSignals(s risk.Signals, report *Report) risk.Signals {
	if s.IPReputation == nil && report.Security != nil {
		s.IPReputation = make(map[string]float64, len(report.Security.IPReputation))
		for _, rep := range report.Security.IPReputation {
			s.IPReputation[rep.IPAddress] = rep.Score
		}
	}
	if len(s.ClusterLabels) == 0 && p.useProfileLabels && report.Usage != nil {
		s.ClusterLabels = report.Usage.Labels()
	}
	return s
}

// auditFindings writes one security log line per detection.
func (p *Pipeline) auditFindings(ctx context.Context, sec *detection.SecurityReport) {
	if sec == nil {
		return
	}
	audit := logging.NewSecurityLoggerWithLogger(*logging.Ctx(ctx)).WithUserMasking(p.maskUserIDs)
	for _, group := range [][]detection.Detection{sec.BruteForce, sec.CredentialStuffing, sec.GeoAnomalies} {
		for i := range group {
			d := &group[i]
			var details map[string]string
			if d.Country != "" {
				details = map[string]string{"country": d.Country}
			}
			audit.LogEvent(&logging.SecurityEvent{
				Event:       string(d.Type),
				Severity:    string(d.Severity),
				IPAddress:   d.IPAddress,
				UserID:      d.UserID,
				Technique:   d.MITRETechnique,
				Count:       d.HeadlineCount(),
				WindowStart: d.Timestamp,
				Details:     details,
			})
		}
	}
}

func timed[T any](stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	metrics.RecordStage(stage, time.Since(start))
	return v, err
}

// classify turns a stage error into either a fatal error (cancellation) or a
// warning stored in w.
func classify(ctx context.Context, stage string, err error, w *error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return err
	}
	*w = fmt.Errorf("%s: %w", stage, err)
	logging.CtxErr(ctx, err).Str("stage", stage).Msg("analyzer failed, continuing")
	return nil
}
