// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package detection

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/testinfra"
)

// mockDetector implements Detector for testing
type mockDetector struct {
	typ     DetectionType
	found   []Detection
	err     error
	enabled bool
	calls   int
	mu      sync.Mutex
}

func (m *mockDetector) Type() DetectionType { return m.typ }

func (m *mockDetector) Detect(_ context.Context, _ *models.EventTable) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.found, nil
}

func (m *mockDetector) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

func (m *mockDetector) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// attackTable mixes a brute-force burst, a stuffing run and a roaming user.
func attackTable(t *testing.T) *models.EventTable {
	t.Helper()
	var events []models.Event
	for i := 0; i < 12; i++ {
		events = append(events, testinfra.FailedLogin(testinfra.At(time.Duration(i)*10*time.Second), "192.0.2.1", "admin"))
	}
	for i, u := range []string{"u1", "u2", "u3", "u4", "u5"} {
		events = append(events, testinfra.FailedLogin(testinfra.At(time.Duration(i)*20*time.Second), "192.0.2.2", u,
			testinfra.WithEndpoint("/api/items")))
	}
	for i, c := range []string{"US", "GB", "DE"} {
		events = append(events, testinfra.NewEvent(testinfra.At(time.Duration(i)*time.Hour),
			testinfra.WithUser("roamer"), testinfra.WithIP("10.5.5.5"), testinfra.WithCountry(c)))
	}
	return testinfra.Table(t, events)
}

func TestEngineRunDefaultDetectors(t *testing.T) {
	engine, err := NewDefaultEngine(DefaultEngineConfig())
	if err != nil {
		t.Fatalf("NewDefaultEngine() error = %v", err)
	}

	results, err := engine.Run(context.Background(), attackTable(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	bf := results.Get(TypeBruteForce)
	if len(bf) != 1 || bf[0].IPAddress != "192.0.2.1" {
		t.Errorf("brute force = %+v, want one detection for 192.0.2.1", bf)
	}
	cs := results.Get(TypeCredentialStuffing)
	if len(cs) != 1 || cs[0].IPAddress != "192.0.2.2" {
		t.Errorf("credential stuffing = %+v, want one detection for 192.0.2.2", cs)
	}
	geo := results.Get(TypeGeoAnomaly)
	if len(geo) != 1 || geo[0].UserID != "roamer" {
		t.Errorf("geo = %+v, want one detection for roamer", geo)
	}
}

func TestEngineRunIsIdempotent(t *testing.T) {
	engine, err := NewDefaultEngine(DefaultEngineConfig())
	if err != nil {
		t.Fatalf("NewDefaultEngine() error = %v", err)
	}
	table := attackTable(t)

	first, err := engine.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := engine.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same table produced different results")
	}
}

func TestEngineCollectsDetectorErrors(t *testing.T) {
	sentinel := errors.New("column exploded")
	engine := NewEngine()
	engine.RegisterDetector(&mockDetector{typ: TypeBruteForce, err: sentinel, enabled: true})
	engine.RegisterDetector(&mockDetector{typ: TypeGeoAnomaly, enabled: true,
		found: []Detection{{Type: TypeGeoAnomaly, UserID: "x", Severity: SeverityWarning}}})

	results, err := engine.Run(context.Background(), attackTable(t))
	if err == nil {
		t.Fatal("Run() error = nil, want joined error")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("errors.Is(err, sentinel) = false for %v", err)
	}
	if !strings.HasPrefix(err.Error(), "brute_force: ") {
		t.Errorf("error = %q, want brute_force prefix", err.Error())
	}
	if len(results.Get(TypeGeoAnomaly)) != 1 {
		t.Error("healthy detector results were dropped")
	}
	if got := results.Get(TypeBruteForce); got == nil || len(got) != 0 {
		t.Errorf("failed detector results = %v, want empty", got)
	}
}

func TestEngineSkipsDisabled(t *testing.T) {
	disabled := &mockDetector{typ: TypeBruteForce, enabled: false}
	enabled := &mockDetector{typ: TypeGeoAnomaly, enabled: true}
	engine := NewEngine()
	engine.RegisterDetector(disabled)
	engine.RegisterDetector(enabled)

	if _, err := engine.Run(context.Background(), attackTable(t)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if disabled.calls != 0 {
		t.Errorf("disabled detector called %d times", disabled.calls)
	}
	if enabled.calls != 1 {
		t.Errorf("enabled detector called %d times, want 1", enabled.calls)
	}

	engine.SetEnabled(false)
	results, err := engine.Run(context.Background(), attackTable(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("disabled engine returned %d result sets", len(results))
	}
}

func TestEngineRegisterReplaces(t *testing.T) {
	engine := NewEngine()
	engine.RegisterDetector(&mockDetector{typ: TypeBruteForce, enabled: true})
	replacement := &mockDetector{typ: TypeBruteForce, enabled: true}
	engine.RegisterDetector(replacement)

	got, ok := engine.GetDetector(TypeBruteForce)
	if !ok || got != Detector(replacement) {
		t.Error("GetDetector() did not return the replacement")
	}
	if len(engine.order) != 1 {
		t.Errorf("len(order) = %d, want 1", len(engine.order))
	}
}

func TestEngineCanceledContext(t *testing.T) {
	engine, err := NewDefaultEngine(DefaultEngineConfig())
	if err != nil {
		t.Fatalf("NewDefaultEngine() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Run(ctx, attackTable(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestSecurityAnalyzer(t *testing.T) {
	analyzer, err := NewSecurityAnalyzer(DefaultSecurityConfig())
	if err != nil {
		t.Fatalf("NewSecurityAnalyzer() error = %v", err)
	}

	report, err := analyzer.Analyze(context.Background(), attackTable(t))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.TotalThreats != 2 {
		t.Errorf("TotalThreats = %d, want 2", report.TotalThreats)
	}
	if report.TotalIPs != 3 {
		t.Errorf("TotalIPs = %d, want 3", report.TotalIPs)
	}
	// 17 of 20 events are failures.
	if report.FailureRatePct != 85 {
		t.Errorf("FailureRatePct = %v, want 85", report.FailureRatePct)
	}
	if len(report.MITREHits) != 3 {
		t.Errorf("len(MITREHits) = %d, want 3", len(report.MITREHits))
	}
	ids := make([]string, 0, len(report.Techniques))
	for _, tech := range report.Techniques {
		ids = append(ids, tech.ID)
	}
	if want := []string{"T1078", "T1110", "T1110.004"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("techniques = %v, want %v", ids, want)
	}
	want := RiskIndex(1, 1, 1, report.HighRiskIPs)
	if report.RiskIndex != want {
		t.Errorf("RiskIndex = %v, want %v", report.RiskIndex, want)
	}
}

func TestSecurityAnalyzerQuietTraffic(t *testing.T) {
	var events []models.Event
	for i := 0; i < 50; i++ {
		events = append(events, testinfra.NewEvent(testinfra.At(time.Duration(i)*time.Minute),
			testinfra.WithUser(fmt.Sprintf("user%d", i%5)), testinfra.WithIP(fmt.Sprintf("10.0.0.%d", i%5))))
	}

	analyzer, err := NewSecurityAnalyzer(DefaultSecurityConfig())
	if err != nil {
		t.Fatalf("NewSecurityAnalyzer() error = %v", err)
	}
	report, err := analyzer.Analyze(context.Background(), testinfra.Table(t, events))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.TotalThreats != 0 || report.RiskIndex != 0 || report.HighRiskIPs != 0 {
		t.Errorf("threats/risk/highRisk = %d/%v/%d, want all zero",
			report.TotalThreats, report.RiskIndex, report.HighRiskIPs)
	}
	if report.BruteForce == nil || report.GeoAnomalies == nil || report.MITREHits == nil {
		t.Error("empty findings must be non-nil slices")
	}
}
