// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Command loglens analyzes access and application logs for security threats,
// performance regressions and risky users.
//
// # Commands
//
//	loglens analyze <file> [--signals signals.json] [--format table|json]
//	                       [--alerts-csv alerts.csv] [--notify]
//	loglens serve
//	loglens version
//
// analyze runs one pipeline pass over a CSV, JSON lines or Parquet file and
// prints the report. serve exposes the same pipeline over HTTP under a suture
// supervisor tree until SIGINT or SIGTERM.
//
// # Configuration
//
// Configuration is loaded via koanf with layered sources (highest priority wins):
//   - Environment variables (BRUTE_FORCE_THRESHOLD, WEBHOOK_URL, ...)
//   - Config file (--config, CONFIG_PATH, or loglens.yaml in the working directory)
//   - Built-in defaults
//
// # Example Usage
//
//	loglens analyze access.csv --format table --alerts-csv alerts.csv
//
//	WEBHOOK_ENABLED=true WEBHOOK_URL=https://hooks.example.com/x \
//	    loglens analyze access.csv --notify
//
//	loglens serve --config /etc/loglens/config.yaml
package main

import (
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
