// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package usage builds per-user behaviour profiles, session statistics and
// endpoint/service usage breakdowns.
package usage

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// UserType is the rule-based behaviour label of a user.
type UserType string

const (
	UserSuspicious UserType = "Suspicious"
	UserPower      UserType = "Power User"
	UserLight      UserType = "Light User"
	UserNormal     UserType = "Normal User"
)

const (
	suspiciousFailurePct = 50
	powerUserServices    = 3
	defaultTopEndpoints  = 10
)

// UserProfile is the behaviour baseline of one user.
type UserProfile struct {
	UserID          string    `json:"user_id"`
	TotalRequests   int       `json:"total_requests"`
	FailureCount    int       `json:"failure_count"`
	FailureRate     float64   `json:"failure_rate"`
	AvgLatencyMs    float64   `json:"avg_latency"`
	TotalBytes      int64     `json:"total_bytes"`
	UniqueServices  int       `json:"unique_services"`
	UniqueIPs       int       `json:"unique_ips"`
	UniqueEndpoints int       `json:"unique_endpoints"`
	UniqueCountries int       `json:"unique_countries"`
	Sessions        int       `json:"sessions"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	TopEndpoint     string    `json:"top_endpoint,omitempty"`
	UserType        UserType  `json:"user_type"`
}

// HeatmapCell is the request count for one hour of one weekday.
type HeatmapCell struct {
	DayOfWeek time.Weekday `json:"day_of_week"`
	Hour      int          `json:"hour"`
	Count     int          `json:"count"`
}

// Session summarizes the requests sharing a session ID.
type Session struct {
	SessionID      string    `json:"session_id"`
	Start          time.Time `json:"start_time"`
	End            time.Time `json:"end_time"`
	DurationSec    float64   `json:"duration_sec"`
	RequestCount   int       `json:"request_count"`
	UniqueServices int       `json:"unique_services"`
	FailureCount   int       `json:"failure_count"`
	AvgLatencyMs   float64   `json:"avg_latency"`
	HasFailure     bool      `json:"has_failure"`
}

// SessionStats aggregates every session of a run.
type SessionStats struct {
	TotalSessions         int     `json:"total_sessions"`
	AvgDurationSec        float64 `json:"avg_duration_sec"`
	AvgRequestsPerSession float64 `json:"avg_requests_per_session"`
	SessionsWithErrorsPct float64 `json:"sessions_with_errors_pct"`
	DropOffRatePct        float64 `json:"drop_off_rate_pct"`
}

// EndpointUsage is the traffic of one endpoint.
type EndpointUsage struct {
	Endpoint     string  `json:"endpoint"`
	RequestCount int     `json:"request_count"`
	AvgLatencyMs float64 `json:"avg_latency"`
	ErrorRate    float64 `json:"error_rate"`
}

// ServiceUsage is the traffic of one service.
type ServiceUsage struct {
	Service      string  `json:"service"`
	RequestCount int     `json:"request_count"`
	UniqueUsers  int     `json:"unique_users"`
	AvgLatencyMs float64 `json:"avg_latency"`
	ErrorCount   int     `json:"error_count"`
	ErrorRate    float64 `json:"error_rate"`
}

// Report is the output of one profiling pass.
type Report struct {
	Profiles        []UserProfile   `json:"user_profiles"`
	Heatmap         []HeatmapCell   `json:"heatmap"`
	Sessions        []Session       `json:"sessions"`
	SessionStats    SessionStats    `json:"session_stats"`
	TopEndpoints    []EndpointUsage `json:"top_endpoints"`
	ServiceUsage    []ServiceUsage  `json:"service_usage"`
	TotalUsers      int             `json:"total_users"`
	SuspiciousUsers int             `json:"suspicious_users"`
}

// Labels returns user ID → user type, suitable as a cluster label signal.
func (r *Report) Labels() map[string]string {
	out := make(map[string]string, len(r.Profiles))
	for _, p := range r.Profiles {
		out[p.UserID] = string(p.UserType)
	}
	return out
}

// Profiler builds usage reports.
type Profiler struct {
	topEndpoints int
}

// NewProfiler returns a profiler reporting the top n endpoints (10 when n < 1).
func NewProfiler(n int) *Profiler {
	if n < 1 {
		n = defaultTopEndpoints
	}
	return &Profiler{topEndpoints: n}
}

// Analyze profiles table. Sections whose columns are missing are empty.
func (p *Profiler) Analyze(ctx context.Context, table *models.EventTable) (*Report, error) {
	events := table.Events()
	report := &Report{
		Profiles:     []UserProfile{},
		Sessions:     []Session{},
		TopEndpoints: []EndpointUsage{},
		ServiceUsage: []ServiceUsage{},
	}

	if table.HasColumn(models.ColUserID) {
		report.Profiles = Profiles(table)
		report.TotalUsers = len(report.Profiles)
		for _, prof := range report.Profiles {
			if prof.UserType == UserSuspicious {
				report.SuspiciousUsers++
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Heatmap = Heatmap(events)

	if table.HasColumn(models.ColSessionID) {
		report.Sessions, report.SessionStats = Sessions(table)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if table.HasColumn(models.ColEndpoint) {
		report.TopEndpoints = TopEndpoints(events, p.topEndpoints)
	}
	if table.HasColumn(models.ColService) {
		report.ServiceUsage = Services(table)
	}
	return report, nil
}

type userAgg struct {
	profile   UserProfile
	latency   float64
	services  map[string]bool
	ips       map[string]bool
	endpoints map[string]int
	countries map[string]bool
	sessions  map[string]bool
}

// Profiles builds one profile per user, sorted by request count descending
// then user ID.
func Profiles(table *models.EventTable) []UserProfile {
	events := table.Events()
	byUser := make(map[string]*userAgg)
	order := make([]string, 0)

	for i := range events {
		e := &events[i]
		agg, ok := byUser[e.UserID]
		if !ok {
			agg = &userAgg{
				profile:   UserProfile{UserID: e.UserID, FirstSeen: e.Timestamp},
				services:  make(map[string]bool),
				ips:       make(map[string]bool),
				endpoints: make(map[string]int),
				countries: make(map[string]bool),
				sessions:  make(map[string]bool),
			}
			byUser[e.UserID] = agg
			order = append(order, e.UserID)
		}
		agg.profile.TotalRequests++
		agg.profile.LastSeen = e.Timestamp
		agg.profile.TotalBytes += e.BytesSent
		agg.latency += e.LatencyMs
		if e.IsFailure {
			agg.profile.FailureCount++
		}
		agg.services[e.Service] = true
		agg.ips[e.IPAddress] = true
		agg.endpoints[e.Endpoint]++
		if !models.IsUnknownCountry(e.Country) {
			agg.countries[e.Country] = true
		}
		agg.sessions[e.SessionID] = true
	}

	counts := make([]float64, 0, len(order))
	for _, id := range order {
		counts = append(counts, float64(byUser[id].profile.TotalRequests))
	}
	p75 := stats.Percentile(counts, 75)
	p25 := stats.Percentile(counts, 25)

	has := func(c models.Column, n int) int {
		if table.HasColumn(c) {
			return n
		}
		return 0
	}

	out := make([]UserProfile, 0, len(order))
	for _, id := range order {
		agg := byUser[id]
		prof := agg.profile
		n := float64(prof.TotalRequests)
		prof.FailureRate = stats.Round(float64(prof.FailureCount)/n*100, 2)
		prof.AvgLatencyMs = stats.Round(agg.latency/n, 1)
		prof.UniqueServices = has(models.ColService, len(agg.services))
		prof.UniqueIPs = has(models.ColIPAddress, len(agg.ips))
		prof.UniqueEndpoints = has(models.ColEndpoint, len(agg.endpoints))
		prof.UniqueCountries = has(models.ColCountry, len(agg.countries))
		prof.Sessions = has(models.ColSessionID, len(agg.sessions))
		if table.HasColumn(models.ColEndpoint) {
			prof.TopEndpoint = topKey(agg.endpoints)
		}
		prof.UserType = classify(prof, p75, p25)
		out = append(out, prof)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalRequests != out[j].TotalRequests {
			return out[i].TotalRequests > out[j].TotalRequests
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func classify(p UserProfile, p75, p25 float64) UserType {
	n := float64(p.TotalRequests)
	switch {
	case p.FailureRate > suspiciousFailurePct:
		return UserSuspicious
	case n > p75 && p.UniqueServices > powerUserServices:
		return UserPower
	case n < p25:
		return UserLight
	default:
		return UserNormal
	}
}

// topKey returns the most frequent key, lexically smallest on ties.
func topKey(counts map[string]int) string {
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best
}

// Heatmap counts requests per weekday and hour. Every weekday with traffic
// gets all 24 hours.
func Heatmap(events []models.Event) []HeatmapCell {
	var grid [7][24]int
	var seen [7]bool
	for i := range events {
		grid[events[i].DayOfWeek][events[i].Hour]++
		seen[events[i].DayOfWeek] = true
	}

	out := make([]HeatmapCell, 0)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !seen[d] {
			continue
		}
		for h := 0; h < 24; h++ {
			out = append(out, HeatmapCell{DayOfWeek: d, Hour: h, Count: grid[d][h]})
		}
	}
	return out
}

// Sessions reconstructs sessions ordered by start time, then ID.
func Sessions(table *models.EventTable) ([]Session, SessionStats) {
	type sessAgg struct {
		s        Session
		latency  float64
		services map[string]bool
		lastFail bool
	}
	events := table.Events()
	byID := make(map[string]*sessAgg)
	for i := range events {
		e := &events[i]
		agg, ok := byID[e.SessionID]
		if !ok {
			agg = &sessAgg{s: Session{SessionID: e.SessionID, Start: e.Timestamp}, services: make(map[string]bool)}
			byID[e.SessionID] = agg
		}
		agg.s.End = e.Timestamp
		agg.s.RequestCount++
		agg.latency += e.LatencyMs
		agg.services[e.Service] = true
		if e.IsFailure {
			agg.s.FailureCount++
		}
		agg.lastFail = e.IsFailure
	}

	sessions := make([]Session, 0, len(byID))
	var durations, requests float64
	withErrors, droppedOff := 0, 0
	for _, agg := range byID {
		s := agg.s
		s.DurationSec = s.End.Sub(s.Start).Seconds()
		s.AvgLatencyMs = stats.Round(agg.latency/float64(s.RequestCount), 1)
		s.UniqueServices = 1
		if table.HasColumn(models.ColService) {
			s.UniqueServices = len(agg.services)
		}
		s.HasFailure = s.FailureCount > 0
		if s.HasFailure {
			withErrors++
		}
		if agg.lastFail {
			droppedOff++
		}
		durations += s.DurationSec
		requests += float64(s.RequestCount)
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].Start.Equal(sessions[j].Start) {
			return sessions[i].Start.Before(sessions[j].Start)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})

	n := float64(len(sessions))
	return sessions, SessionStats{
		TotalSessions:         len(sessions),
		AvgDurationSec:        stats.Round(stats.SafeDivide(durations, n, 0), 1),
		AvgRequestsPerSession: stats.Round(stats.SafeDivide(requests, n, 0), 1),
		SessionsWithErrorsPct: stats.Round(stats.SafeDivide(float64(withErrors), n, 0)*100, 1),
		DropOffRatePct:        stats.Round(stats.SafeDivide(float64(droppedOff), n, 0)*100, 1),
	}
}

// TopEndpoints returns the n most requested endpoints.
func TopEndpoints(events []models.Event, n int) []EndpointUsage {
	type epAgg struct {
		count, failed int
		latency       float64
	}
	byPath := make(map[string]*epAgg)
	for i := range events {
		agg, ok := byPath[events[i].Endpoint]
		if !ok {
			agg = &epAgg{}
			byPath[events[i].Endpoint] = agg
		}
		agg.count++
		agg.latency += events[i].LatencyMs
		if events[i].IsFailure {
			agg.failed++
		}
	}

	out := make([]EndpointUsage, 0, len(byPath))
	for path, agg := range byPath {
		out = append(out, EndpointUsage{
			Endpoint:     path,
			RequestCount: agg.count,
			AvgLatencyMs: stats.Round(agg.latency/float64(agg.count), 1),
			ErrorRate:    stats.Round(float64(agg.failed)/float64(agg.count)*100, 2),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestCount != out[j].RequestCount {
			return out[i].RequestCount > out[j].RequestCount
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Services returns per-service usage, busiest first.
func Services(table *models.EventTable) []ServiceUsage {
	type svcAgg struct {
		u       ServiceUsage
		latency float64
		users   map[string]bool
	}
	events := table.Events()
	bySvc := make(map[string]*svcAgg)
	for i := range events {
		e := &events[i]
		agg, ok := bySvc[e.Service]
		if !ok {
			agg = &svcAgg{u: ServiceUsage{Service: e.Service}, users: make(map[string]bool)}
			bySvc[e.Service] = agg
		}
		agg.u.RequestCount++
		agg.latency += e.LatencyMs
		agg.users[e.UserID] = true
		if e.IsFailure {
			agg.u.ErrorCount++
		}
	}

	out := make([]ServiceUsage, 0, len(bySvc))
	for _, agg := range bySvc {
		u := agg.u
		n := float64(u.RequestCount)
		u.AvgLatencyMs = stats.Round(agg.latency/n, 1)
		u.ErrorRate = stats.Round(float64(u.ErrorCount)/n*100, 2)
		if table.HasColumn(models.ColUserID) {
			u.UniqueUsers = len(agg.users)
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestCount != out[j].RequestCount {
			return out[i].RequestCount > out[j].RequestCount
		}
		return out[i].Service < out[j].Service
	})
	return out
}
