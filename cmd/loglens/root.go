// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/loglens/internal/alerts"
	"github.com/tomtom215/loglens/internal/config"
	"github.com/tomtom215/loglens/internal/logging"
)

// app carries state shared by all subcommands once the root has run.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	config *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "loglens",
		Short: "Log security and performance intelligence",
		Long: `loglens ingests access and application logs and reports brute force,
credential stuffing and geo anomalies, latency and error spikes, SLA breaches,
usage profiles, trends and fused per-user and per-IP risk.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: $CONFIG_PATH or ./loglens.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "override logging.format (json, console)")

	root.AddCommand(newAnalyzeCommand(a))
	root.AddCommand(newServeCommand(a))
	root.AddCommand(newVersionCommand())
	return root
}

// init loads configuration and configures the global logger.
func (a *app) init(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFrom(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	lc := cfg.Logger()
	lc.Output = cmd.ErrOrStderr()
	lc.Service = "loglens-" + cmd.Name()
	logging.Init(lc)

	a.config = cfg
	return nil
}

// dispatcher builds the alert dispatcher from configuration. A NATS
// connection failure disables that notifier but is not fatal. The returned
// func releases notifier connections.
func (a *app) dispatcher() (*alerts.Dispatcher, func()) {
	d := alerts.NewDispatcher(a.config.NotifyMinSeverity())
	d.Register(alerts.NewWebhookNotifier(a.config.WebhookNotifier()))

	closeFn := func() {}
	if a.config.Alerts.NATS.Enabled {
		n, err := alerts.NewNATSNotifier(a.config.NATSNotifier())
		if err != nil {
			logging.Warn().Err(err).Str("url", a.config.Alerts.NATS.URL).Msg("NATS notifier unavailable")
		} else {
			d.Register(n)
			closeFn = func() {
				if err := n.Close(); err != nil {
					logging.Warn().Err(err).Msg("close NATS notifier")
				}
			}
		}
	}
	return d, closeFn
}
