// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package logging provides the zerolog-based structured logging used across
// LogLens.
//
// The CLI configures the global logger once, after the configuration is
// loaded, and tags every line with the running command:
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Service: "loglens-serve"})
//	logging.Warn().Err(err).Str("url", url).Msg("NATS notifier unavailable")
//
// Until Init runs, the LOG_LEVEL environment variable sets the level.
//
// # Context
//
// An analyze invocation or HTTP request carries a correlation ID, requests
// also carry a request ID, and each pipeline run a run ID. Ctx adds whichever
// are present:
//
//	ctx = logging.ContextWithRunID(ctx, runID)
//	logging.Ctx(ctx).Info().Int("alerts", n).Msg("pipeline run complete")
//
// # Security findings
//
// SecurityLogger writes one audit line per detection under the "security"
// component, optionally masking user IDs.
//
// # slog
//
// NewSlogLogger adapts the global logger to log/slog for the suture
// supervisor (through sutureslog) and the watermill NATS publisher.
package logging
