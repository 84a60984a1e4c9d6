// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package supervisor runs the long-lived parts of `loglens serve` under a suture
v4 supervisor tree.

	loglens
	├── maintenance-layer
	│   └── cache-janitor-reports
	└── api-layer
	    └── http-server

Each layer restarts its own services with suture's backoff. Supervisor events
(service panics, restarts, backoff) are written through sutureslog to the
zerolog logger, using logging.NewSlogLogger.

Usage:

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(handler.Reports().Janitor(5 * time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout).
	    WithDrain(handler.WaitForNotifications))
	err := tree.Serve(ctx)
*/
package supervisor
