// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package usage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/testinfra"
)

// usageTable holds four users inside one hour: a power user across four
// services, a failing user, a light user and a normal user.
func usageTable(t *testing.T) *models.EventTable {
	t.Helper()
	var events []models.Event
	minute := 0
	next := func() time.Time {
		minute++
		return testinfra.At(time.Duration(minute) * time.Minute)
	}

	for i := 0; i < 10; i++ {
		events = append(events, testinfra.NewEvent(next(), testinfra.WithUser("heavy"), testinfra.WithSession("h"),
			testinfra.WithService(fmt.Sprintf("svc%d", i%4+1)), testinfra.WithEndpoint("/api/search")))
	}
	for i := 0; i < 4; i++ {
		status := 401
		if i == 0 {
			status = 200
		}
		events = append(events, testinfra.NewEvent(next(), testinfra.WithUser("bad"), testinfra.WithSession("b"),
			testinfra.WithStatus(status), testinfra.WithEndpoint("/login")))
	}
	events = append(events, testinfra.NewEvent(next(), testinfra.WithUser("light"), testinfra.WithSession("l")))
	for i := 0; i < 5; i++ {
		events = append(events, testinfra.NewEvent(next(), testinfra.WithUser("normal"), testinfra.WithSession("n"),
			testinfra.WithCountry([]string{"US", "Unknown"}[i%2])))
	}
	return testinfra.Table(t, events)
}

func TestProfiles(t *testing.T) {
	profiles := Profiles(usageTable(t))
	if len(profiles) != 4 {
		t.Fatalf("len(profiles) = %d, want 4", len(profiles))
	}

	tests := []struct {
		user     string
		requests int
		userType UserType
	}{
		{"heavy", 10, UserPower},
		{"normal", 5, UserNormal},
		{"bad", 4, UserSuspicious},
		{"light", 1, UserLight},
	}
	for i, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			got := profiles[i]
			if got.UserID != tt.user {
				t.Fatalf("profiles[%d] = %s, want %s", i, got.UserID, tt.user)
			}
			if got.TotalRequests != tt.requests {
				t.Errorf("TotalRequests = %d, want %d", got.TotalRequests, tt.requests)
			}
			if got.UserType != tt.userType {
				t.Errorf("UserType = %s, want %s", got.UserType, tt.userType)
			}
		})
	}

	bad := profiles[2]
	if bad.FailureRate != 75 || bad.TopEndpoint != "/login" {
		t.Errorf("bad = %+v, want 75%% failures on /login", bad)
	}
	if profiles[0].UniqueServices != 4 {
		t.Errorf("heavy UniqueServices = %d, want 4", profiles[0].UniqueServices)
	}
	if profiles[1].UniqueCountries != 1 {
		t.Errorf("normal UniqueCountries = %d, want 1 (placeholder excluded)", profiles[1].UniqueCountries)
	}
}

func TestSessions(t *testing.T) {
	sessions, st := Sessions(usageTable(t))
	if st.TotalSessions != 4 || len(sessions) != 4 {
		t.Fatalf("TotalSessions = %d, want 4", st.TotalSessions)
	}
	if sessions[0].SessionID != "h" || sessions[0].DurationSec != 540 {
		t.Errorf("first session = %+v, want h lasting 540s", sessions[0])
	}
	if st.AvgRequestsPerSession != 5 {
		t.Errorf("AvgRequestsPerSession = %v, want 5", st.AvgRequestsPerSession)
	}
	if st.SessionsWithErrorsPct != 25 || st.DropOffRatePct != 25 {
		t.Errorf("errors/drop-off = %v/%v, want 25/25", st.SessionsWithErrorsPct, st.DropOffRatePct)
	}
}

func TestHeatmap(t *testing.T) {
	cells := Heatmap(usageTable(t).Events())
	if len(cells) != 24 {
		t.Fatalf("len(cells) = %d, want 24 for one weekday", len(cells))
	}
	for _, c := range cells {
		want := 0
		if c.Hour == testinfra.BaseTime.Hour() {
			want = 20
		}
		if c.DayOfWeek != testinfra.BaseTime.Weekday() || c.Count != want {
			t.Errorf("cell %+v, want count %d on %v", c, want, testinfra.BaseTime.Weekday())
		}
	}
}

func TestAnalyze(t *testing.T) {
	report, err := NewProfiler(2).Analyze(context.Background(), usageTable(t))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.TotalUsers != 4 || report.SuspiciousUsers != 1 {
		t.Errorf("users/suspicious = %d/%d, want 4/1", report.TotalUsers, report.SuspiciousUsers)
	}
	if len(report.TopEndpoints) != 2 || report.TopEndpoints[0].Endpoint != "/api/search" {
		t.Errorf("TopEndpoints = %+v", report.TopEndpoints)
	}
	if report.TopEndpoints[1].Endpoint != "/api/items" || report.TopEndpoints[1].RequestCount != 6 {
		t.Errorf("second endpoint = %+v, want /api/items x6", report.TopEndpoints[1])
	}
	if got := report.Labels()["bad"]; got != string(UserSuspicious) {
		t.Errorf("Labels()[bad] = %q, want Suspicious", got)
	}
	if report.ServiceUsage[0].Service != "api" || report.ServiceUsage[0].RequestCount != 10 {
		t.Errorf("busiest service = %+v, want api x10", report.ServiceUsage[0])
	}
}

func TestAnalyzeWithoutUserColumn(t *testing.T) {
	table := testinfra.Table(t, []models.Event{testinfra.NewEvent(testinfra.At(0))}, models.ColLatency)
	report, err := NewProfiler(0).Analyze(context.Background(), table)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Profiles == nil || len(report.Profiles) != 0 || report.TotalUsers != 0 {
		t.Errorf("Profiles = %v, want empty", report.Profiles)
	}
	if report.Sessions == nil || report.TopEndpoints == nil || report.ServiceUsage == nil {
		t.Error("absent sections must be empty, not nil")
	}
}
