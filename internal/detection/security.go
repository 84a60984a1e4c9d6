// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// Risk index contributions and caps.
const (
	riskPerBruteForce    = 5
	riskCapBruteForce    = 30
	riskPerStuffing      = 10
	riskCapStuffing      = 30
	riskPerGeoAnomaly    = 3
	riskCapGeoAnomaly    = 20
	riskPerHighRiskIP    = 2
	riskCapHighRiskIP    = 20
	riskIndexMax         = 100
	defaultHighRiskScore = 70
)

// SecurityConfig configures the security analyzer.
type SecurityConfig struct {
	Engine EngineConfig

	// HighRiskScore is the reputation score at or above which an IP counts
	// as high risk.
	HighRiskScore float64

	// IPTiers bins reputation scores into tiers.
	IPTiers models.TierBins
}

// DefaultSecurityConfig returns sensible defaults.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		Engine:        DefaultEngineConfig(),
		HighRiskScore: defaultHighRiskScore,
		IPTiers:       models.DefaultTierBins(),
	}
}

// SecurityReport bundles every security finding of one run.
type SecurityReport struct {
	BruteForce         []Detection      `json:"brute_force"`
	CredentialStuffing []Detection      `json:"credential_stuffing"`
	GeoAnomalies       []Detection      `json:"geo_anomalies"`
	IPReputation       []IPReputation   `json:"ip_reputation"`
	MITREHits          []MITREHit       `json:"mitre_hits"`
	Techniques         []MITRETechnique `json:"mitre_techniques"`
	TotalIPs           int              `json:"total_ips"`
	HighRiskIPs        int              `json:"high_risk_ips"`
	FailureRatePct     float64          `json:"failure_rate_pct"`
	TotalThreats       int              `json:"total_threats"`
	RiskIndex          float64          `json:"risk_index"`
}

// SecurityAnalyzer runs the detector engine and the reputation scorer.
type SecurityAnalyzer struct {
	engine *Engine
	scorer *ReputationScorer
	config SecurityConfig
}

// NewSecurityAnalyzer builds the default detectors from config.
func NewSecurityAnalyzer(config SecurityConfig) (*SecurityAnalyzer, error) {
	if config.HighRiskScore <= 0 {
		config.HighRiskScore = defaultHighRiskScore
	}
	if len(config.IPTiers.Edges) == 0 {
		config.IPTiers = models.DefaultTierBins()
	}
	if err := config.IPTiers.Validate(); err != nil {
		return nil, fmt.Errorf("ip tiers: %w", err)
	}

	engine, err := NewDefaultEngine(config.Engine)
	if err != nil {
		return nil, err
	}
	return &SecurityAnalyzer{
		engine: engine,
		scorer: NewReputationScorer(config.IPTiers),
		config: config,
	}, nil
}

// Engine exposes the detector engine so callers can toggle detectors.
func (a *SecurityAnalyzer) Engine() *Engine {
	return a.engine
}

// Analyze runs detection and reputation scoring concurrently. Detector errors
// are returned alongside a report holding whatever did succeed.
func (a *SecurityAnalyzer) Analyze(ctx context.Context, table *models.EventTable) (*SecurityReport, error) {
	var (
		results   Results
		detectErr error
		reps      []IPReputation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, detectErr = a.engine.Run(gctx, table)
		return nil
	})
	g.Go(func() error {
		var err error
		reps, err = a.scorer.Score(gctx, table)
		if err != nil {
			return fmt.Errorf("ip reputation: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mitre := a.config.Engine.MITRE
	if mitre == nil {
		mitre = DefaultMITREMapping()
	}

	report := &SecurityReport{
		BruteForce:         results.Get(TypeBruteForce),
		CredentialStuffing: results.Get(TypeCredentialStuffing),
		GeoAnomalies:       results.Get(TypeGeoAnomaly),
		IPReputation:       reps,
		TotalIPs:           len(reps),
		HighRiskIPs:        CountHighRisk(reps, a.config.HighRiskScore),
		FailureRatePct:     stats.Round(table.FailureRate()*100, 2),
	}
	report.TotalThreats = len(report.BruteForce) + len(report.CredentialStuffing)
	report.MITREHits = mitre.MapTechniques(report.BruteForce, report.CredentialStuffing, report.GeoAnomalies)
	report.Techniques = ObservedTechniques(report.MITREHits)
	report.RiskIndex = RiskIndex(len(report.BruteForce), len(report.CredentialStuffing),
		len(report.GeoAnomalies), report.HighRiskIPs)

	return report, detectErr
}

// RiskIndex is the capped 0-100 headline security score.
func RiskIndex(bruteForce, stuffing, geo, highRiskIPs int) float64 {
	score := math.Min(float64(bruteForce*riskPerBruteForce), riskCapBruteForce) +
		math.Min(float64(stuffing*riskPerStuffing), riskCapStuffing) +
		math.Min(float64(geo*riskPerGeoAnomaly), riskCapGeoAnomaly) +
		math.Min(float64(highRiskIPs*riskPerHighRiskIP), riskCapHighRiskIP)
	return math.Min(score, riskIndexMax)
}
