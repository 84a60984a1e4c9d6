// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package config

import (
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/detection"
	"github.com/tomtom215/loglens/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero brute force threshold", func(c *Config) { c.Detection.BruteForceThreshold = 0 }, true},
		{"unknown window policy", func(c *Config) { c.Detection.BruteForcePolicy = "tumbling" }, true},
		{"no auth endpoints", func(c *Config) { c.Detection.AuthEndpoints = nil }, true},
		{"geo critical below min", func(c *Config) { c.Detection.GeoCriticalCountries = 2 }, true},
		{"high risk score above 100", func(c *Config) { c.Detection.HighRiskScore = 120 }, true},
		{"zero zscore threshold", func(c *Config) { c.Anomaly.ZScoreThreshold = 0 }, true},
		{"p95 above p99", func(c *Config) { c.Performance.P95LatencyMs = 2000 }, true},
		{"amber equals green", func(c *Config) { c.Performance.HealthAmber = 85 }, true},
		{"weights do not sum to one", func(c *Config) { c.Risk.WeightFailure = 0.5 }, true},
		{"ip weights do not sum to one", func(c *Config) { c.Risk.IPWeightSpread = 0 }, true},
		{"tier edges not ascending", func(c *Config) { c.Risk.TierEdges = []float64{-1, 50, 25, 70, 100} }, true},
		{"four tier edges", func(c *Config) { c.Risk.TierEdges = []float64{-1, 25, 50, 100} }, true},
		{"webhook enabled without url", func(c *Config) { c.Alerts.Webhook.Enabled = true }, true},
		{"webhook ftp url", func(c *Config) {
			c.Alerts.Webhook.Enabled = true
			c.Alerts.Webhook.URL = "ftp://hooks.example.com"
		}, true},
		{"webhook url with path", func(c *Config) {
			c.Alerts.Webhook.Enabled = true
			c.Alerts.Webhook.URL = "https://hooks.example.com/services/T0/B0"
		}, false},
		{"nats enabled with http url", func(c *Config) {
			c.Alerts.NATS.Enabled = true
			c.Alerts.NATS.URL = "http://127.0.0.1:4222"
		}, true},
		{"nats enabled", func(c *Config) { c.Alerts.NATS.Enabled = true }, false},
		{"unknown notify severity", func(c *Config) { c.Alerts.NotifyMinSeverity = "LOUD" }, true},
		{"lower-case notify severity", func(c *Config) { c.Alerts.NotifyMinSeverity = "critical" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"production wildcard cors", func(c *Config) { c.Server.Environment = "production" }, true},
		{"production explicit cors", func(c *Config) {
			c.Server.Environment = "production"
			c.Server.CORSOrigins = []string{"https://ops.example.com"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPipeline_Conversion(t *testing.T) {
	cfg := defaultConfig()
	cfg.Detection.BruteForceWindowMin = 3
	cfg.Detection.BruteForcePolicy = "fixed"
	cfg.Detection.CredentialStuffingWindowMin = 2
	cfg.Detection.HighRiskScore = 55
	cfg.Risk.TierEdges = []float64{-1, 10, 20, 30, 100}

	p := cfg.Pipeline()
	bf := p.Security.Engine.BruteForce
	if bf.Window != 3*time.Minute || bf.Policy != detection.WindowFixed {
		t.Errorf("brute force window/policy = %v/%s, want 3m/fixed", bf.Window, bf.Policy)
	}
	if got := p.Security.Engine.CredentialStuffing.Window; got != 2*time.Minute {
		t.Errorf("stuffing window = %v, want 2m", got)
	}
	if p.Security.HighRiskScore != 55 || p.Alerts.HighRiskScore != 55 {
		t.Errorf("high risk score = %v/%v, want 55", p.Security.HighRiskScore, p.Alerts.HighRiskScore)
	}
	if got := p.Risk.Tiers.Classify(25); got != models.TierHigh {
		t.Errorf("Classify(25) = %s, want High with custom edges", got)
	}
	if p.Security.Engine.MITRE == nil {
		t.Error("MITRE mapping missing")
	}

	cfg.Risk.TierEdges[1] = 99
	if p.Risk.Tiers.Edges[1] != 10 {
		t.Error("pipeline config shares the tier edge slice with the source config")
	}
}

func TestNotifierConversion(t *testing.T) {
	cfg := defaultConfig()
	cfg.Alerts.NATS.Enabled = true
	n := cfg.NATSNotifier()
	if !n.Enabled || n.URL != "nats://127.0.0.1:4222" || n.SubjectPrefix != "loglens.alerts" {
		t.Errorf("NATSNotifier() = %+v", n)
	}
	if n.MaxReconnects != 10 || n.ReconnectWait != time.Second {
		t.Errorf("reconnects = %d/%v", n.MaxReconnects, n.ReconnectWait)
	}

	w := cfg.WebhookNotifier()
	if w.Enabled || w.RateLimitMs != 500 || w.BreakerFailures != 5 {
		t.Errorf("WebhookNotifier() = %+v", w)
	}
}

func TestNotifyMinSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want models.Severity
	}{
		{"WARNING", models.SeverityWarning},
		{"critical", models.SeverityCritical},
		{"", ""},
	}
	for _, tt := range tests {
		cfg := defaultConfig()
		cfg.Alerts.NotifyMinSeverity = tt.in
		if got := cfg.NotifyMinSeverity(); got != tt.want {
			t.Errorf("NotifyMinSeverity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLogger(t *testing.T) {
	cfg := defaultConfig()
	cfg.Logging.Level = "debug"
	lc := cfg.Logger()
	if lc.Level != "debug" || lc.Format != "json" || lc.Output == nil {
		t.Errorf("Logger() = %+v", lc)
	}
}
