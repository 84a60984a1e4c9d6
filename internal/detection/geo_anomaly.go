// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// GeoAnomalyType labels the only geo anomaly pattern currently detected.
const GeoAnomalyType = "geo_deviation"

// GeoAnomalyDetector flags users seen from an unusual number of countries
// across the whole batch.
type GeoAnomalyDetector struct {
	config  GeoAnomalyConfig
	mitre   MITREMapping
	enabled bool
	mu      sync.RWMutex
}

// NewGeoAnomalyDetector creates a new geo-anomaly detector.
func NewGeoAnomalyDetector(config GeoAnomalyConfig, mitre MITREMapping) (*GeoAnomalyDetector, error) {
	d := &GeoAnomalyDetector{mitre: mitre, enabled: true}
	if err := d.Configure(config); err != nil {
		return nil, err
	}
	return d, nil
}

// Type returns the detection type.
func (d *GeoAnomalyDetector) Type() DetectionType {
	return TypeGeoAnomaly
}

type userGeo struct {
	countries []string
	seen      map[string]bool
	first     *models.Event
	last      *models.Event
}

// Detect counts distinct known countries per user. Results are sorted by
// country count descending, then user ID.
func (d *GeoAnomalyDetector) Detect(ctx context.Context, table *models.EventTable) ([]Detection, error) {
	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	results := make([]Detection, 0)
	if !table.HasColumns(models.ColUserID, models.ColCountry) {
		return results, nil
	}

	users := make(map[string]*userGeo)
	events := table.Events()
	for i := range events {
		e := &events[i]
		if models.IsUnknownCountry(e.Country) {
			continue
		}
		u, ok := users[e.UserID]
		if !ok {
			u = &userGeo{seen: make(map[string]bool), first: e}
			users[e.UserID] = u
		}
		u.countries = append(u.countries, e.Country)
		u.seen[e.Country] = true
		u.last = e
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for id, u := range users {
		if len(u.seen) < config.MinCountries {
			continue
		}
		distinct := make([]string, 0, len(u.seen))
		for c := range u.seen {
			distinct = append(distinct, c)
		}
		sort.Strings(distinct)

		severity := SeverityWarning
		if len(distinct) >= config.CriticalCountries {
			severity = SeverityCritical
		}

		det := Detection{
			Type:           TypeGeoAnomaly,
			UserID:         id,
			Timestamp:      u.first.Timestamp,
			FirstSeen:      u.first.Timestamp,
			LastSeen:       u.last.Timestamp,
			CountryCount:   len(distinct),
			Countries:      distinct,
			PrimaryCountry: stats.Mode(u.countries, unknownCountry),
			AnomalyType:    GeoAnomalyType,
			Country:        stats.Mode(u.countries, unknownCountry),
			Severity:       severity,
		}
		d.mitre.stamp(&det)
		results = append(results, det)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CountryCount != results[j].CountryCount {
			return results[i].CountryCount > results[j].CountryCount
		}
		return results[i].UserID < results[j].UserID
	})
	return results, nil
}

// Configure validates and applies a new configuration.
func (d *GeoAnomalyDetector) Configure(config GeoAnomalyConfig) error {
	if config.MinCountries < 2 {
		return fmt.Errorf("min_countries must be at least 2")
	}
	if config.CriticalCountries < config.MinCountries {
		return fmt.Errorf("critical_countries must be at least min_countries")
	}

	d.mu.Lock()
	d.config = config
	d.mu.Unlock()
	return nil
}

// Enabled returns whether this detector is enabled.
func (d *GeoAnomalyDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *GeoAnomalyDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
