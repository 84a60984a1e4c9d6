// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package models defines the normalized event schema every analyzer reads.

Key Components:

  - Event: one log line with derived time and status fields
  - EventTable: the timestamp-sorted, read-only batch for one analysis run
  - ClassifyStatus: numeric HTTP ranges with keyword fallback
  - Normalize: raw rows to EventTable, with header aliasing, null filling,
    median latency fill and a QualityReport

Column Presence:

EventTable remembers which optional columns the source supplied. Analyzers
call HasColumn before relying on a field and return empty results when a
required column is absent, so a sparse log degrades to "no findings" instead
of failing the run.

Fatal Errors:

ErrNoUsableRows is returned when no row has a parseable timestamp. It is the
only condition that aborts a pipeline run.
*/
package models
