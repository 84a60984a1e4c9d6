// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"sort"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// unknownCountry is reported when a window has no country signal.
const unknownCountry = "Unknown"

// ipGroup is one IP's filtered events in timestamp order.
type ipGroup struct {
	ip     string
	events []*models.Event
}

// groupByIP partitions the events that pass keep by IP address. Groups are
// returned sorted by IP and each group keeps the table's timestamp order.
func groupByIP(table *models.EventTable, keep func(*models.Event) bool) []ipGroup {
	events := table.Events()
	index := make(map[string]int)
	groups := make([]ipGroup, 0)

	for i := range events {
		e := &events[i]
		if !keep(e) {
			continue
		}
		gi, ok := index[e.IPAddress]
		if !ok {
			gi = len(groups)
			index[e.IPAddress] = gi
			groups = append(groups, ipGroup{ip: e.IPAddress})
		}
		groups[gi].events = append(groups[gi].events, e)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].ip < groups[j].ip })
	return groups
}

// distinctUsers returns the distinct user IDs in order of first appearance,
// truncated to limit (no limit when limit <= 0).
func distinctUsers(window []*models.Event, limit int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, e := range window {
		if seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true
		out = append(out, e.UserID)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// windowCountry returns the most common country in a window, or Unknown
// when the table has no country column.
func windowCountry(table *models.EventTable, window []*models.Event) string {
	if !table.HasColumn(models.ColCountry) || len(window) == 0 {
		return unknownCountry
	}
	countries := make([]string, len(window))
	for i, e := range window {
		countries[i] = e.Country
	}
	return stats.Mode(countries, unknownCountry)
}
