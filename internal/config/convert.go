// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package config

import (
	"os"
	"time"

	"github.com/tomtom215/loglens/internal/alerts"
	"github.com/tomtom215/loglens/internal/anomaly"
	"github.com/tomtom215/loglens/internal/detection"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/performance"
	"github.com/tomtom215/loglens/internal/pipeline"
	"github.com/tomtom215/loglens/internal/risk"
)

// Pipeline converts the configuration into analyzer settings.
func (c *Config) Pipeline() pipeline.Config {
	d := c.Detection
	engine := detection.DefaultEngineConfig()
	engine.BruteForce = detection.BruteForceConfig{
		Threshold:     d.BruteForceThreshold,
		Window:        time.Duration(d.BruteForceWindowMin) * time.Minute,
		Policy:        detection.WindowPolicy(d.BruteForcePolicy),
		AuthEndpoints: append([]string(nil), d.AuthEndpoints...),
	}
	engine.CredentialStuffing = detection.CredentialStuffingConfig{
		Threshold:  d.CredentialStuffingThreshold,
		Window:     time.Duration(d.CredentialStuffingWindowMin) * time.Minute,
		Stride:     d.CredentialStuffingStride,
		AutoStride: d.CredentialStuffingAutoStride,
	}
	engine.GeoAnomaly = detection.GeoAnomalyConfig{
		MinCountries:      d.GeoMinCountries,
		CriticalCountries: d.GeoCriticalCountries,
	}

	tiers := models.TierBins{Edges: append([]float64(nil), c.Risk.TierEdges...)}

	return pipeline.Config{
		Security: detection.SecurityConfig{
			Engine:        engine,
			HighRiskScore: d.HighRiskScore,
			IPTiers:       tiers,
		},
		Anomaly: anomaly.Config{
			Window:    c.Anomaly.ZScoreWindow,
			Threshold: c.Anomaly.ZScoreThreshold,
		},
		Performance: performance.Config{
			SLA: performance.SLAConfig{
				P95LatencyMs:    c.Performance.P95LatencyMs,
				P99LatencyMs:    c.Performance.P99LatencyMs,
				ErrorRatePct:    c.Performance.ErrorRatePct,
				AvailabilityPct: c.Performance.AvailabilityPct,
			},
			RAG: performance.RAGConfig{
				Green: c.Performance.HealthGreen,
				Amber: c.Performance.HealthAmber,
			},
		},
		Risk: c.RiskEngine(),
		Alerts: alerts.Config{
			HighRiskScore:        d.HighRiskScore,
			LatencySpikeCritical: c.Alerts.LatencySpikeCritical,
			ErrorSpikeCritical:   c.Alerts.ErrorSpikeCritical,
		},
		TopEndpoints:     c.Usage.TopEndpoints,
		ForecastHorizon:  c.Usage.ForecastHorizon,
		UseProfileLabels: c.Usage.UseProfileLabels,
		MaskUserIDs:      c.Logging.MaskUserIDs,
	}
}

// RiskEngine converts the risk section into fusion settings.
func (c *Config) RiskEngine() risk.Config {
	r := c.Risk
	return risk.Config{
		UserWeights: risk.UserWeights{
			Failure: r.WeightFailure,
			Anomaly: r.WeightAnomaly,
			Geo:     r.WeightGeo,
			Cluster: r.WeightCluster,
			Volume:  r.WeightVolume,
			IPRep:   r.WeightIPRep,
		},
		IPWeights: risk.IPWeights{
			Failure: r.IPWeightFailure,
			Spread:  r.IPWeightSpread,
			Volume:  r.IPWeightVolume,
		},
		Tiers:    models.TierBins{Edges: append([]float64(nil), r.TierEdges...)},
		TopUsers: r.TopUsers,
	}
}

// WebhookNotifier returns the webhook notifier settings.
func (c *Config) WebhookNotifier() alerts.WebhookConfig {
	w := c.Alerts.Webhook
	return alerts.WebhookConfig{
		URL:             w.URL,
		Headers:         w.Headers,
		Enabled:         w.Enabled,
		RateLimitMs:     w.RateLimitMs,
		Timeout:         w.Timeout,
		BreakerFailures: w.BreakerFailures,
	}
}

// NATSNotifier returns the NATS notifier settings.
func (c *Config) NATSNotifier() alerts.NATSConfig {
	n := c.Alerts.NATS
	return alerts.NATSConfig{
		URL:             n.URL,
		SubjectPrefix:   n.SubjectPrefix,
		Enabled:         n.Enabled,
		MaxReconnects:   n.MaxReconnects,
		ReconnectWait:   n.ReconnectWait,
		BreakerFailures: n.BreakerFailures,
	}
}

// NotifyMinSeverity returns the parsed delivery threshold; empty delivers all.
func (c *Config) NotifyMinSeverity() models.Severity {
	sev, _ := models.ParseSeverity(c.Alerts.NotifyMinSeverity)
	return sev
}

// Logger returns the logging settings.
func (c *Config) Logger() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Caller: c.Logging.Caller,
		Output: os.Stderr,
	}
}
