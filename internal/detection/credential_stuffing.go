// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/loglens/internal/models"
)

// maxStuffedUsers caps the user list attached to a credential-stuffing record.
const maxStuffedUsers = 10

// CredentialStuffingDetector flags IPs whose failures target many distinct
// accounts within a short span. At most one record is produced per IP.
type CredentialStuffingDetector struct {
	config  CredentialStuffingConfig
	mitre   MITREMapping
	enabled bool
	mu      sync.RWMutex
}

// NewCredentialStuffingDetector creates a new credential-stuffing detector.
func NewCredentialStuffingDetector(config CredentialStuffingConfig, mitre MITREMapping) (*CredentialStuffingDetector, error) {
	d := &CredentialStuffingDetector{mitre: mitre, enabled: true}
	if err := d.Configure(config); err != nil {
		return nil, err
	}
	return d, nil
}

// Type returns the detection type.
func (d *CredentialStuffingDetector) Type() DetectionType {
	return TypeCredentialStuffing
}

// Detect evaluates the window [t, t+window] (both ends inclusive) opening at
// each failure per IP and reports the first one holding at least Threshold
// distinct users. A two-pointer scan keeps a running distinct-user count so
// each IP costs O(n) with the default stride of 1.
func (d *CredentialStuffingDetector) Detect(ctx context.Context, table *models.EventTable) ([]Detection, error) {
	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	results := make([]Detection, 0)
	if !table.HasColumns(models.ColIPAddress, models.ColUserID) {
		return results, nil
	}

	groups := groupByIP(table, func(e *models.Event) bool { return e.IsFailure })

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if start, end, users, ok := firstStuffedWindow(g.events, config); ok {
			results = append(results, d.record(table, g.ip, g.events[start:end], users))
		}
	}

	return results, nil
}

// firstStuffedWindow returns the index range and distinct-user count of the
// first qualifying window.
func firstStuffedWindow(events []*models.Event, config CredentialStuffingConfig) (start, end, users int, ok bool) {
	stride := config.Stride
	if config.AutoStride {
		stride = len(events) / 20
	}
	if stride < 1 {
		stride = 1
	}

	counts := make(map[string]int)
	j := 0
	for i := 0; i < len(events); i++ {
		limit := events[i].Timestamp.Add(config.Window)
		for j < len(events) && !events[j].Timestamp.After(limit) {
			counts[events[j].UserID]++
			j++
		}

		if i%stride == 0 && len(counts) >= config.Threshold {
			return i, j, len(counts), true
		}

		u := events[i].UserID
		counts[u]--
		if counts[u] == 0 {
			delete(counts, u)
		}
	}
	return 0, 0, 0, false
}

func (d *CredentialStuffingDetector) record(table *models.EventTable, ip string, window []*models.Event, users int) Detection {
	det := Detection{
		Type:                TypeCredentialStuffing,
		IPAddress:           ip,
		Timestamp:           window[0].Timestamp,
		FirstSeen:           window[0].Timestamp,
		LastSeen:            window[len(window)-1].Timestamp,
		UniqueUsersTargeted: users,
		TotalAttempts:       len(window),
		TargetedUsers:       distinctUsers(window, maxStuffedUsers),
		Country:             windowCountry(table, window),
		Severity:            SeverityCritical,
	}
	d.mitre.stamp(&det)
	return det
}

// Configure validates and applies a new configuration.
func (d *CredentialStuffingDetector) Configure(config CredentialStuffingConfig) error {
	if config.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	if config.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if config.Stride < 0 {
		return fmt.Errorf("stride must not be negative")
	}
	if config.Stride == 0 {
		config.Stride = 1
	}

	d.mu.Lock()
	d.config = config
	d.mu.Unlock()
	return nil
}

// Enabled returns whether this detector is enabled.
func (d *CredentialStuffingDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *CredentialStuffingDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// Config returns the current configuration.
func (d *CredentialStuffingDetector) Config() CredentialStuffingConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}
