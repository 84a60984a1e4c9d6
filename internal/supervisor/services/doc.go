// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package services adapts LogLens components to suture's Serve(ctx) error
// contract. The report cache janitor already satisfies it directly; the HTTP
// server needs the ListenAndServe/Shutdown translation provided here.
package services
