// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package config

import (
	"time"

	"github.com/tomtom215/loglens/internal/ingest"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Ingest      ingest.Config     `koanf:"ingest"`
	Detection   DetectionConfig   `koanf:"detection"`
	Anomaly     AnomalyConfig     `koanf:"anomaly"`
	Performance PerformanceConfig `koanf:"performance"`
	Risk        RiskConfig        `koanf:"risk"`
	Usage       UsageConfig       `koanf:"usage"`
	Alerts      AlertsConfig      `koanf:"alerts"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `koanf:"environment" validate:"oneof=development production"`

	// MaxUploadBytes bounds request bodies on the analyze endpoints.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" validate:"min=1024"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// Finished reports are kept in an LRU for the report endpoints.
	ReportCacheSize int           `koanf:"report_cache_size" validate:"min=1"`
	ReportCacheTTL  time.Duration `koanf:"report_cache_ttl" validate:"gt=0"`
}

// DetectionConfig holds the security detector thresholds.
type DetectionConfig struct {
	BruteForceThreshold int      `koanf:"brute_force_threshold" validate:"min=1"`
	BruteForceWindowMin int      `koanf:"brute_force_window_min" validate:"min=1"`
	BruteForcePolicy    string   `koanf:"brute_force_policy" validate:"oneof=sliding fixed"`
	AuthEndpoints       []string `koanf:"auth_endpoints" validate:"min=1,dive,required"`

	CredentialStuffingThreshold  int  `koanf:"credential_stuffing_threshold" validate:"min=2"`
	CredentialStuffingWindowMin  int  `koanf:"credential_stuffing_window_min" validate:"min=1"`
	CredentialStuffingStride     int  `koanf:"credential_stuffing_stride" validate:"min=1"`
	CredentialStuffingAutoStride bool `koanf:"credential_stuffing_auto_stride"`

	GeoMinCountries      int `koanf:"geo_min_countries" validate:"min=2"`
	GeoCriticalCountries int `koanf:"geo_critical_countries" validate:"min=2"`

	// HighRiskScore is the IP reputation at or above which an IP is high risk.
	HighRiskScore float64 `koanf:"high_risk_score" validate:"gte=0,lte=100"`
}

// AnomalyConfig holds the rolling z-score parameters.
type AnomalyConfig struct {
	ZScoreWindow    int     `koanf:"zscore_window" validate:"min=1"`
	ZScoreThreshold float64 `koanf:"zscore_threshold" validate:"gt=0"`
}

// PerformanceConfig holds SLA objectives and health score bands.
type PerformanceConfig struct {
	P95LatencyMs    float64 `koanf:"sla_p95_latency_ms" validate:"gt=0"`
	P99LatencyMs    float64 `koanf:"sla_p99_latency_ms" validate:"gt=0"`
	ErrorRatePct    float64 `koanf:"sla_error_rate_pct" validate:"gte=0,lte=100"`
	AvailabilityPct float64 `koanf:"sla_availability_pct" validate:"gte=0,lte=100"`
	HealthGreen     float64 `koanf:"health_green" validate:"gte=0,lte=100"`
	HealthAmber     float64 `koanf:"health_amber" validate:"gte=0,lte=100"`
}

// RiskConfig holds the fusion weights and tier edges.
type RiskConfig struct {
	WeightFailure float64 `koanf:"weight_failure" validate:"gte=0,lte=1"`
	WeightAnomaly float64 `koanf:"weight_anomaly" validate:"gte=0,lte=1"`
	WeightGeo     float64 `koanf:"weight_geo" validate:"gte=0,lte=1"`
	WeightCluster float64 `koanf:"weight_cluster" validate:"gte=0,lte=1"`
	WeightVolume  float64 `koanf:"weight_volume" validate:"gte=0,lte=1"`
	WeightIPRep   float64 `koanf:"weight_ip_reputation" validate:"gte=0,lte=1"`

	IPWeightFailure float64 `koanf:"ip_weight_failure" validate:"gte=0,lte=1"`
	IPWeightSpread  float64 `koanf:"ip_weight_spread" validate:"gte=0,lte=1"`
	IPWeightVolume  float64 `koanf:"ip_weight_volume" validate:"gte=0,lte=1"`

	// TierEdges are the five bin edges for Low, Medium, High and Critical.
	TierEdges []float64 `koanf:"tier_edges" validate:"len=5,ascending"`
	TopUsers  int       `koanf:"top_users" validate:"min=1"`
}

// UsageConfig configures the usage profiler and trend forecaster.
type UsageConfig struct {
	TopEndpoints     int  `koanf:"top_endpoints" validate:"min=1"`
	ForecastHorizon  int  `koanf:"forecast_horizon" validate:"min=1"`
	UseProfileLabels bool `koanf:"use_profile_labels"`
}

// AlertsConfig configures alert escalation and delivery.
type AlertsConfig struct {
	LatencySpikeCritical int `koanf:"latency_spike_critical" validate:"min=1"`
	ErrorSpikeCritical   int `koanf:"error_spike_critical" validate:"min=0"`

	// NotifyMinSeverity is the lowest severity delivered to notifiers.
	NotifyMinSeverity string `koanf:"notify_min_severity" validate:"omitempty,severity"`

	Webhook WebhookConfig `koanf:"webhook"`
	NATS    NATSConfig    `koanf:"nats"`
}

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	Enabled         bool              `koanf:"enabled"`
	URL             string            `koanf:"url"`
	Headers         map[string]string `koanf:"headers"`
	RateLimitMs     int               `koanf:"rate_limit_ms" validate:"min=0"`
	Timeout         time.Duration     `koanf:"timeout" validate:"gte=0"`
	BreakerFailures uint32            `koanf:"breaker_failures"`
}

// NATSConfig configures the NATS notifier.
type NATSConfig struct {
	Enabled         bool          `koanf:"enabled"`
	URL             string        `koanf:"url"`
	SubjectPrefix   string        `koanf:"subject_prefix" validate:"required"`
	MaxReconnects   int           `koanf:"max_reconnects" validate:"gte=-1"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait" validate:"gte=0"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`

	// MaskUserIDs masks user IDs in security finding log lines.
	MaskUserIDs bool `koanf:"mask_user_ids"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load is an alias for LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
