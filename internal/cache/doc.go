// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package cache provides a generic in-memory LRU cache with TTL expiry.

The API server keeps recent pipeline reports here so that alert listings and
CSV exports can be served by run ID without re-running the analysis:

	reports := cache.NewLRU[*pipeline.Report]("reports", 128, time.Hour)
	reports.Add(report.RunID, report)
	if r, ok := reports.Get(runID); ok {
	    // serve r
	}

Expired entries are dropped lazily on Get and in bulk by CleanupExpired. The
Janitor runs CleanupExpired on an interval and is started as a supervised
service. Hits, misses, evictions and size are exported as Prometheus series
labelled with the cache name.
*/
package cache
