// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"loglens.yaml",
	"loglens.yml",
	"config.yaml",
	"/etc/loglens/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. They match each analyzer's own
// defaults so an empty configuration reproduces library behaviour.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			Timeout:         60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
			MaxUploadBytes:  64 << 20,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
			ReportCacheSize: 64,
			ReportCacheTTL:  time.Hour,
		},
		Detection: DetectionConfig{
			BruteForceThreshold:         5,
			BruteForceWindowMin:         10,
			BruteForcePolicy:            "sliding",
			AuthEndpoints:               []string{"/login", "/auth", "/signin", "/authenticate", "/token"},
			CredentialStuffingThreshold: 3,
			CredentialStuffingWindowMin: 5,
			CredentialStuffingStride:    1,
			GeoMinCountries:             3,
			GeoCriticalCountries:        5,
			HighRiskScore:               70,
		},
		Anomaly: AnomalyConfig{
			ZScoreWindow:    20,
			ZScoreThreshold: 2.5,
		},
		Performance: PerformanceConfig{
			P95LatencyMs:    500,
			P99LatencyMs:    1000,
			ErrorRatePct:    5,
			AvailabilityPct: 99.5,
			HealthGreen:     85,
			HealthAmber:     60,
		},
		Risk: RiskConfig{
			WeightFailure:   0.25,
			WeightAnomaly:   0.25,
			WeightGeo:       0.15,
			WeightCluster:   0.15,
			WeightVolume:    0.10,
			WeightIPRep:     0.10,
			IPWeightFailure: 0.40,
			IPWeightSpread:  0.30,
			IPWeightVolume:  0.30,
			TierEdges:       []float64{-1, 25, 50, 70, 100},
			TopUsers:        10,
		},
		Usage: UsageConfig{
			TopEndpoints:    10,
			ForecastHorizon: 6,
		},
		Alerts: AlertsConfig{
			LatencySpikeCritical: 5,
			ErrorSpikeCritical:   3,
			NotifyMinSeverity:    "WARNING",
			Webhook: WebhookConfig{
				RateLimitMs:     500,
				Timeout:         10 * time.Second,
				BreakerFailures: 5,
			},
			NATS: NATSConfig{
				URL:             "nats://127.0.0.1:4222",
				SubjectPrefix:   "loglens.alerts",
				MaxReconnects:   10,
				ReconnectWait:   time.Second,
				BreakerFailures: 5,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	return defaultConfig()
}

// LoadWithKoanf loads configuration in three layers, later layers winning:
//  1. built-in defaults
//  2. optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. environment variables listed in envMappings
func LoadWithKoanf() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is LoadWithKoanf with an explicit config file path. An empty path
// skips the file layer; a missing file is an error.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"detection.auth_endpoints",
	"risk.tier_edges",
}

// processSliceFields converts comma-separated env values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config paths.
// Variables not listed are ignored.
var envMappings = map[string]string{
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"environment":         "server.environment",
	"max_upload_bytes":    "server.max_upload_bytes",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"report_cache_size":   "server.report_cache_size",
	"report_cache_ttl":    "server.report_cache_ttl",

	"duckdb_threads":    "ingest.threads",
	"duckdb_max_memory": "ingest.max_memory",
	"ingest_max_rows":   "ingest.max_rows",

	"brute_force_threshold":           "detection.brute_force_threshold",
	"brute_force_window_min":          "detection.brute_force_window_min",
	"brute_force_policy":              "detection.brute_force_policy",
	"auth_endpoints":                  "detection.auth_endpoints",
	"credential_stuffing_threshold":   "detection.credential_stuffing_threshold",
	"credential_stuffing_window_min":  "detection.credential_stuffing_window_min",
	"credential_stuffing_stride":      "detection.credential_stuffing_stride",
	"credential_stuffing_auto_stride": "detection.credential_stuffing_auto_stride",
	"geo_min_countries":               "detection.geo_min_countries",
	"geo_critical_countries":          "detection.geo_critical_countries",
	"high_risk_score":                 "detection.high_risk_score",

	"zscore_window":    "anomaly.zscore_window",
	"zscore_threshold": "anomaly.zscore_threshold",

	"sla_p95_latency_ms":   "performance.sla_p95_latency_ms",
	"sla_p99_latency_ms":   "performance.sla_p99_latency_ms",
	"sla_error_rate_pct":   "performance.sla_error_rate_pct",
	"sla_availability_pct": "performance.sla_availability_pct",
	"health_green":         "performance.health_green",
	"health_amber":         "performance.health_amber",

	"risk_tier_edges": "risk.tier_edges",
	"risk_top_users":  "risk.top_users",

	"top_endpoints":      "usage.top_endpoints",
	"forecast_horizon":   "usage.forecast_horizon",
	"use_profile_labels": "usage.use_profile_labels",

	"alert_latency_spike_critical": "alerts.latency_spike_critical",
	"alert_error_spike_critical":   "alerts.error_spike_critical",
	"notify_min_severity":          "alerts.notify_min_severity",
	"webhook_enabled":              "alerts.webhook.enabled",
	"webhook_url":                  "alerts.webhook.url",
	"webhook_rate_limit_ms":        "alerts.webhook.rate_limit_ms",
	"webhook_timeout":              "alerts.webhook.timeout",
	"nats_enabled":                 "alerts.nats.enabled",
	"nats_url":                     "alerts.nats.url",
	"nats_subject_prefix":          "alerts.nats.subject_prefix",

	"log_level":         "logging.level",
	"log_format":        "logging.format",
	"log_caller":        "logging.caller",
	"log_mask_user_ids": "logging.mask_user_ids",
}

// envTransformFunc maps an environment variable name to its config path, or
// "" to skip it.
//
//	BRUTE_FORCE_THRESHOLD -> detection.brute_force_threshold
//	WEBHOOK_URL           -> alerts.webhook.url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
