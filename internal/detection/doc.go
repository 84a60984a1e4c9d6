// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package detection provides rule-based security detectors that scan a
// normalized event table for attack patterns such as brute force, credential
// stuffing and accounts roaming across many countries.
//
// Detection Architecture:
//
//	EventTable -> Engine (parallel detectors) -> Results  --+
//	           -> ReputationScorer -> []IPReputation      --+--> SecurityReport
//
// Every detector is a pure function of the table: it never mutates the input,
// returns findings in a deterministic order and degrades to an empty result
// when a column it needs is missing.
//
// Supported Detectors:
//   - Brute Force: repeated failed logins per IP within a window, with a
//     sliding (default) or clock-aligned fixed window policy
//   - Credential Stuffing: one IP failing against many distinct accounts
//     within a short span
//   - Geo Anomaly: users seen from an unusual number of countries
//
// Each finding is stamped with a MITRE ATT&CK technique from a configurable
// lookup table. The reputation scorer adds a 0-100 score per IP and the
// security report folds everything into a capped risk index.
package detection
