// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"sort"
	"time"
)

// MITRETechnique is one ATT&CK technique entry used for reporting.
type MITRETechnique struct {
	ID          string `json:"technique_id" koanf:"technique_id"`
	Name        string `json:"technique_name" koanf:"technique_name"`
	Tactic      string `json:"tactic" koanf:"tactic"`
	Description string `json:"description" koanf:"description"`
}

// MITRE lookup keys. Detection types map onto these; anything unmapped falls
// back to MITREValidAccounts.
const (
	MITREBruteForce          = "brute_force"
	MITRECredentialStuffing  = "credential_stuffing"
	MITREValidAccounts       = "valid_accounts"
	MITREAccountManipulation = "account_manipulation"
	MITRERemoteServices      = "remote_services"
)

// MITREMapping is an immutable lookup from key to technique. It has no effect
// on detection logic.
type MITREMapping map[string]MITRETechnique

// DefaultMITREMapping returns the built-in technique table.
func DefaultMITREMapping() MITREMapping {
	return MITREMapping{
		MITREBruteForce: {
			ID:          "T1110",
			Name:        "Brute Force",
			Tactic:      "Credential Access",
			Description: "Adversary attempts to gain access by systematically trying passwords.",
		},
		MITRECredentialStuffing: {
			ID:          "T1110.004",
			Name:        "Credential Stuffing",
			Tactic:      "Credential Access",
			Description: "Use of previously compromised credentials across multiple accounts.",
		},
		MITREValidAccounts: {
			ID:          "T1078",
			Name:        "Valid Accounts",
			Tactic:      "Defense Evasion / Initial Access",
			Description: "Adversary uses legitimate credentials to access systems.",
		},
		MITREAccountManipulation: {
			ID:          "T1098",
			Name:        "Account Manipulation",
			Tactic:      "Persistence",
			Description: "Adversary manipulates accounts to maintain access.",
		},
		MITRERemoteServices: {
			ID:          "T1021",
			Name:        "Remote Services",
			Tactic:      "Lateral Movement",
			Description: "Adversary uses remote services to move laterally.",
		},
	}
}

// Lookup returns the technique for a detection type, falling back to valid
// accounts. A nil or incomplete mapping falls back to the defaults.
func (m MITREMapping) Lookup(t DetectionType) MITRETechnique {
	key := string(t)
	if t == TypeGeoAnomaly {
		key = MITREValidAccounts
	}
	if tech, ok := m[key]; ok {
		return tech
	}
	if tech, ok := m[MITREValidAccounts]; ok {
		return tech
	}
	return DefaultMITREMapping()[MITREValidAccounts]
}

// MITREHit is one detection expressed as an ATT&CK technique observation.
type MITREHit struct {
	MITRETechnique
	DetectionSource DetectionType `json:"detection_source"`
	Severity        Severity      `json:"severity"`
	Timestamp       time.Time     `json:"timestamp"`
	Subject         string        `json:"subject"`
}

// MapTechniques flattens detections into technique observations in input order.
func (m MITREMapping) MapTechniques(detections ...[]Detection) []MITREHit {
	hits := make([]MITREHit, 0)
	for _, set := range detections {
		for i := range set {
			d := &set[i]
			hits = append(hits, MITREHit{
				MITRETechnique:  m.Lookup(d.Type),
				DetectionSource: d.Type,
				Severity:        d.Severity,
				Timestamp:       d.Timestamp,
				Subject:         d.Subject(),
			})
		}
	}
	return hits
}

// ObservedTechniques returns the distinct techniques in hits, sorted by ID.
func ObservedTechniques(hits []MITREHit) []MITRETechnique {
	seen := make(map[string]MITRETechnique)
	for _, h := range hits {
		seen[h.ID] = h.MITRETechnique
	}
	out := make([]MITRETechnique, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m MITREMapping) stamp(d *Detection) {
	tech := m.Lookup(d.Type)
	d.MITRETechnique = tech.ID
	d.MITREName = tech.Name
	d.MITRETactic = tech.Tactic
}
