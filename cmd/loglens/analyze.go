// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/loglens/internal/alerts"
	"github.com/tomtom215/loglens/internal/ingest"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/pipeline"
	"github.com/tomtom215/loglens/internal/risk"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type analyzeOptions struct {
	signalsPath string
	format      string
	alertsCSV   string
	notify      bool
}

func newAnalyzeCommand(a *app) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze one log file and print the report",
		Long: `Reads a CSV, TSV, JSON lines or Parquet log file, runs every analyzer and
prints the report. Optional ML signals (session anomaly scores, cluster labels,
IP reputation) are read from a JSON file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatTable && opts.format != formatJSON {
				return fmt.Errorf("unknown --format %q (table or json)", opts.format)
			}
			return runAnalyze(cmd, a, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.signalsPath, "signals", "", "JSON file with session_anomaly, cluster_labels and ip_reputation")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatTable, "output format: table or json")
	cmd.Flags().StringVar(&opts.alertsCSV, "alerts-csv", "", "write the alert feed as CSV to this path")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "deliver alerts to the configured webhook and NATS notifiers")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, opts *analyzeOptions, path string) error {
	ctx := logging.ContextWithCorrelationID(cmd.Context(), logging.GenerateCorrelationID())

	signals, err := loadSignals(opts.signalsPath)
	if err != nil {
		return err
	}

	p, err := pipeline.New(a.config.Pipeline())
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	reader, err := ingest.NewReader(a.config.Ingest)
	if err != nil {
		return err
	}
	defer reader.Close()

	table, quality, err := reader.ReadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	report, err := p.Run(ctx, table, signals)
	if err != nil {
		return err
	}
	report.Quality = quality

	if opts.alertsCSV != "" {
		if err := writeAlertsCSV(opts.alertsCSV, report.Alerts); err != nil {
			return err
		}
		logging.Ctx(ctx).Info().Str("path", opts.alertsCSV).Int("alerts", len(report.Alerts)).Msg("alerts exported")
	}

	var delivery *alerts.DeliveryStats
	if opts.notify {
		d, closeFn := a.dispatcher()
		defer closeFn()
		stats := d.Notify(ctx, report.Alerts)
		delivery = &stats
	}

	out := cmd.OutOrStdout()
	if opts.format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	renderReport(out, report)
	if delivery != nil {
		renderDelivery(out, *delivery)
	}
	return nil
}

// loadSignals reads optional ML signals. An empty path yields zero signals.
func loadSignals(path string) (risk.Signals, error) {
	var s risk.Signals
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read signals: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode signals %s: %w", path, err)
	}
	return s, nil
}

func writeAlertsCSV(path string, feed []alerts.Alert) error {
	data, err := alerts.ExportCSV(feed)
	if err != nil {
		return fmt.Errorf("export alerts: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write alerts csv: %w", err)
	}
	return nil
}
