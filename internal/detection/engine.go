// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
)

// Engine runs the registered detectors over one event table.
type Engine struct {
	detectors map[DetectionType]Detector
	order     []DetectionType

	mu      sync.RWMutex
	enabled bool
}

// EngineConfig configures the detection engine.
type EngineConfig struct {
	BruteForce         BruteForceConfig
	CredentialStuffing CredentialStuffingConfig
	GeoAnomaly         GeoAnomalyConfig
	MITRE              MITREMapping
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BruteForce:         DefaultBruteForceConfig(),
		CredentialStuffing: DefaultCredentialStuffingConfig(),
		GeoAnomaly:         DefaultGeoAnomalyConfig(),
		MITRE:              DefaultMITREMapping(),
	}
}

// NewEngine creates an empty detection engine.
func NewEngine() *Engine {
	return &Engine{
		detectors: make(map[DetectionType]Detector),
		enabled:   true,
	}
}

// NewDefaultEngine creates an engine with the brute-force, credential-stuffing
// and geo-anomaly detectors registered.
func NewDefaultEngine(config EngineConfig) (*Engine, error) {
	if config.MITRE == nil {
		config.MITRE = DefaultMITREMapping()
	}

	bf, err := NewBruteForceDetector(config.BruteForce, config.MITRE)
	if err != nil {
		return nil, fmt.Errorf("brute force detector: %w", err)
	}
	cs, err := NewCredentialStuffingDetector(config.CredentialStuffing, config.MITRE)
	if err != nil {
		return nil, fmt.Errorf("credential stuffing detector: %w", err)
	}
	geo, err := NewGeoAnomalyDetector(config.GeoAnomaly, config.MITRE)
	if err != nil {
		return nil, fmt.Errorf("geo anomaly detector: %w", err)
	}

	e := NewEngine()
	e.RegisterDetector(bf)
	e.RegisterDetector(cs)
	e.RegisterDetector(geo)
	return e, nil
}

// RegisterDetector adds a detector to the engine. Registering a second
// detector of the same type replaces the first.
func (e *Engine) RegisterDetector(detector Detector) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := detector.Type()
	if _, exists := e.detectors[t]; !exists {
		e.order = append(e.order, t)
	}
	e.detectors[t] = detector

	logging.Debug().Str("detector", string(t)).Msg("registered detector")
}

// GetDetector returns a detector by type.
func (e *Engine) GetDetector(t DetectionType) (Detector, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.detectors[t]
	return d, ok
}

// Results holds the findings of one engine run keyed by detection type.
// Disabled detectors have no entry.
type Results map[DetectionType][]Detection

// Get returns the findings for t, or an empty slice.
func (r Results) Get(t DetectionType) []Detection {
	if d, ok := r[t]; ok && d != nil {
		return d
	}
	return []Detection{}
}

// Run executes every enabled detector in parallel against the table. Each
// detector only reads the table. A failing detector does not stop the others;
// its error is reported as "<type>: <err>" and all errors are joined.
func (e *Engine) Run(ctx context.Context, table *models.EventTable) (Results, error) {
	detectors := e.enabledDetectors()
	results := make(Results, len(detectors))
	if len(detectors) == 0 {
		return results, nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range detectors {
		g.Go(func() error {
			t := d.Type()
			start := time.Now()
			found, err := d.Detect(gctx, table)
			metrics.RecordDetectorRun(string(t), time.Since(start), err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logging.CtxErr(ctx, err).Str("detector", string(t)).Msg("detector failed")
				errs = append(errs, fmt.Errorf("%s: %w", t, err))
				return nil
			}
			for i := range found {
				metrics.RecordDetection(string(t), string(found[i].Severity))
			}
			results[t] = found
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return results, errors.Join(errs...)
}

func (e *Engine) enabledDetectors() []Detector {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.enabled {
		return nil
	}
	out := make([]Detector, 0, len(e.order))
	for _, t := range e.order {
		if d := e.detectors[t]; d.Enabled() {
			out = append(out, d)
		}
	}
	return out
}

// SetEnabled enables or disables the detection engine.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// Enabled returns whether the engine is enabled.
func (e *Engine) Enabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled
}
