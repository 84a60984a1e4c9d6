// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package config loads LogLens configuration with Koanf v2.

Sources, later layers winning:

 1. built-in defaults (defaultConfig), equal to each analyzer's defaults
 2. an optional YAML file: CONFIG_PATH, then loglens.yaml, loglens.yml,
    config.yaml and /etc/loglens/config.yaml
 3. environment variables from a fixed table; anything else is ignored

Example file:

	detection:
	  brute_force_threshold: 5
	  brute_force_window_min: 10
	  credential_stuffing_threshold: 3
	  high_risk_score: 70
	anomaly:
	  zscore_window: 20
	  zscore_threshold: 2.5
	performance:
	  sla_p95_latency_ms: 500
	risk:
	  tier_edges: [-1, 25, 50, 70, 100]
	alerts:
	  webhook:
	    enabled: true
	    url: https://hooks.example.com/loglens

Common environment variables:

	BRUTE_FORCE_THRESHOLD, BRUTE_FORCE_WINDOW_MIN
	CREDENTIAL_STUFFING_THRESHOLD, CREDENTIAL_STUFFING_WINDOW_MIN
	HIGH_RISK_SCORE, ZSCORE_WINDOW, ZSCORE_THRESHOLD
	SLA_P95_LATENCY_MS, SLA_P99_LATENCY_MS, SLA_ERROR_RATE_PCT
	RISK_TIER_EDGES (comma-separated)
	WEBHOOK_ENABLED, WEBHOOK_URL, NATS_ENABLED, NATS_URL
	HTTP_PORT, CORS_ORIGINS, LOG_LEVEL, LOG_FORMAT

Validate applies validator struct tags (see internal/validation) and then
cross-field rules: AMBER below GREEN, p95 not above p99, geo critical count not
below the minimum, fusion weights summing to 1, and notifier URLs present and
well-formed when enabled. Production mode rejects wildcard CORS.

Pipeline, RiskEngine, WebhookNotifier, NATSNotifier and Logger convert the
loaded values into the settings types of the packages that consume them.
*/
package config
