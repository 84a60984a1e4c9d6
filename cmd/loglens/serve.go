// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/loglens/internal/api"
	"github.com/tomtom215/loglens/internal/ingest"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/pipeline"
	"github.com/tomtom215/loglens/internal/supervisor"
	"github.com/tomtom215/loglens/internal/supervisor/services"
)

const janitorInterval = 5 * time.Minute

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis HTTP API",
		Long: `Serves the analysis pipeline over HTTP (POST /api/v1/analyze,
POST /api/v1/analyze/upload, GET /api/v1/reports/...) with Prometheus metrics
on /metrics. Runs until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.config
	logging.Info().Str("version", version).Str("environment", cfg.Server.Environment).Msg("Starting LogLens with supervisor tree")

	p, err := pipeline.New(cfg.Pipeline())
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	reader, err := ingest.NewReader(cfg.Ingest)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing DuckDB reader")
		}
	}()

	dispatcher, closeNotifiers := a.dispatcher()
	defer closeNotifiers()
	logging.Info().Int("notifiers", dispatcher.Active()).Msg("Alert dispatcher ready")

	handler := api.NewHandler(cfg, p, reader, dispatcher).WithVersion(version)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Server))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMaintenanceService(handler.Reports().Janitor(janitorInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout).
		WithDrain(handler.WaitForNotifications))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("LogLens stopped gracefully")
	return nil
}
