// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/loglens/internal/models"
)

// maxTargetedUsers caps the user list attached to a brute-force record.
const maxTargetedUsers = 5

// BruteForceDetector flags IPs with repeated failed logins in a short window.
type BruteForceDetector struct {
	config  BruteForceConfig
	mitre   MITREMapping
	enabled bool
	mu      sync.RWMutex
}

// NewBruteForceDetector creates a new brute-force detector.
func NewBruteForceDetector(config BruteForceConfig, mitre MITREMapping) (*BruteForceDetector, error) {
	d := &BruteForceDetector{mitre: mitre, enabled: true}
	if err := d.Configure(config); err != nil {
		return nil, err
	}
	return d, nil
}

// Type returns the detection type.
func (d *BruteForceDetector) Type() DetectionType {
	return TypeBruteForce
}

// Detect scans failed logins per IP. With the sliding policy a window opens at
// every event and, once a window reaches the threshold, scanning resumes after
// it so records never overlap. With the fixed policy events are bucketed into
// clock-aligned windows and every bucket at or over the threshold is reported.
func (d *BruteForceDetector) Detect(ctx context.Context, table *models.EventTable) ([]Detection, error) {
	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	results := make([]Detection, 0)
	if !table.HasColumn(models.ColIPAddress) {
		return results, nil
	}

	auth := make(map[string]bool, len(config.AuthEndpoints))
	for _, p := range config.AuthEndpoints {
		auth[normalizePath(p)] = true
	}
	checkEndpoint := table.HasColumn(models.ColEndpoint)

	groups := groupByIP(table, func(e *models.Event) bool {
		if !e.IsFailure {
			return false
		}
		return !checkEndpoint || auth[normalizePath(e.Endpoint)]
	})

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var windows []span
		if config.Policy == WindowFixed {
			windows = fixedWindows(g.events, config.Window)
		} else {
			windows = slidingWindows(g.events, config.Window, config.Threshold)
		}
		for _, w := range windows {
			count := w.end - w.start
			if count < config.Threshold {
				continue
			}
			results = append(results, d.record(table, g.ip, w, g.events[w.start:w.end], config))
		}
	}

	return results, nil
}

func (d *BruteForceDetector) record(table *models.EventTable, ip string, w span, window []*models.Event, config BruteForceConfig) Detection {
	severity := SeverityWarning
	if len(window) >= 2*config.Threshold {
		severity = SeverityCritical
	}

	var users []string
	if table.HasColumn(models.ColUserID) {
		users = distinctUsers(window, maxTargetedUsers)
	}

	det := Detection{
		Type:          TypeBruteForce,
		IPAddress:     ip,
		Timestamp:     w.opened,
		FirstSeen:     window[0].Timestamp,
		LastSeen:      window[len(window)-1].Timestamp,
		AttemptCount:  len(window),
		TargetedUsers: users,
		Country:       windowCountry(table, window),
		Severity:      severity,
	}
	d.mitre.stamp(&det)
	return det
}

// span is the half-open index range [start, end) of one window and the
// instant the window opened.
type span struct {
	start, end int
	opened     time.Time
}

// slidingWindows finds non-overlapping windows [t_i, t_i+window) that reach
// threshold. Both pointers only move forward, so the scan is linear.
func slidingWindows(events []*models.Event, window time.Duration, threshold int) []span {
	out := make([]span, 0)
	j := 0
	for i := 0; i < len(events); {
		if j < i {
			j = i
		}
		limit := events[i].Timestamp.Add(window)
		for j < len(events) && events[j].Timestamp.Before(limit) {
			j++
		}
		if j-i >= threshold {
			out = append(out, span{start: i, end: j, opened: events[i].Timestamp})
			i = j
			continue
		}
		i++
	}
	return out
}

// fixedWindows splits events into buckets of the given length aligned to the
// Unix epoch. Every non-empty bucket is returned.
func fixedWindows(events []*models.Event, window time.Duration) []span {
	out := make([]span, 0)
	for i := 0; i < len(events); {
		bucket := epochBucket(events[i].Timestamp, window)
		end := bucket.Add(window)
		j := i
		for j < len(events) && events[j].Timestamp.Before(end) {
			j++
		}
		out = append(out, span{start: i, end: j, opened: bucket})
		i = j
	}
	return out
}

// epochBucket truncates ts to a multiple of window counted from the Unix
// epoch. time.Time.Truncate counts from year 1, which differs for windows
// that do not divide a day.
func epochBucket(ts time.Time, window time.Duration) time.Time {
	n := ts.UnixNano()
	w := int64(window)
	r := n % w
	if r < 0 {
		r += w
	}
	return time.Unix(0, n-r).In(ts.Location())
}

// normalizePath lower-cases an endpoint and strips any query string and
// trailing slash so "/Login/?next=/" matches "/login".
func normalizePath(endpoint string) string {
	p := strings.ToLower(strings.TrimSpace(endpoint))
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// Configure validates and applies a new configuration.
func (d *BruteForceDetector) Configure(config BruteForceConfig) error {
	if config.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	if config.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	switch config.Policy {
	case WindowSliding, WindowFixed:
	case "":
		config.Policy = WindowSliding
	default:
		return fmt.Errorf("unknown window policy %q", config.Policy)
	}
	if len(config.AuthEndpoints) == 0 {
		config.AuthEndpoints = DefaultBruteForceConfig().AuthEndpoints
	}

	d.mu.Lock()
	d.config = config
	d.mu.Unlock()
	return nil
}

// Enabled returns whether this detector is enabled.
func (d *BruteForceDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *BruteForceDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// Config returns the current configuration.
func (d *BruteForceDetector) Config() BruteForceConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}
