// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package config

import (
	"fmt"

	"github.com/tomtom215/loglens/internal/validation"
)

// Validate runs the struct tag rules and then the cross-field checks.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validatePerformance(); err != nil {
		return err
	}
	if err := c.validateRisk(); err != nil {
		return err
	}
	if err := c.validateNotifiers(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateDetection() error {
	d := c.Detection
	if d.GeoCriticalCountries < d.GeoMinCountries {
		return fmt.Errorf("GEO_CRITICAL_COUNTRIES (%d) must be at least GEO_MIN_COUNTRIES (%d)",
			d.GeoCriticalCountries, d.GeoMinCountries)
	}
	return nil
}

func (c *Config) validatePerformance() error {
	p := c.Performance
	if p.P95LatencyMs > p.P99LatencyMs {
		return fmt.Errorf("SLA_P95_LATENCY_MS (%v) must not exceed SLA_P99_LATENCY_MS (%v)",
			p.P95LatencyMs, p.P99LatencyMs)
	}
	if p.HealthAmber >= p.HealthGreen {
		return fmt.Errorf("HEALTH_AMBER (%v) must be below HEALTH_GREEN (%v)", p.HealthAmber, p.HealthGreen)
	}
	return nil
}

// validateRisk builds the fusion config so the weight sums and tier bins are
// checked by the same code that uses them.
func (c *Config) validateRisk() error {
	rc := c.RiskEngine()
	if err := rc.Validate(); err != nil {
		return fmt.Errorf("risk configuration: %w", err)
	}
	return nil
}

func (c *Config) validateNotifiers() error {
	if c.Alerts.Webhook.Enabled {
		if c.Alerts.Webhook.URL == "" {
			return fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_ENABLED=true")
		}
		if err := validateHTTPURL(c.Alerts.Webhook.URL, "WEBHOOK_URL"); err != nil {
			return err
		}
	}
	if c.Alerts.NATS.Enabled {
		if err := validateNATSURL(c.Alerts.NATS.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS must not contain * when ENVIRONMENT=production")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
