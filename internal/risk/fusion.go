// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package risk

import (
	"context"
	"sort"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/stats"
)

// Stepped component thresholds.
const (
	geoCountriesCritical = 5
	geoCountriesHigh     = 3
	geoCountriesSome     = 2
	geoScoreCritical     = 100
	geoScoreHigh         = 60
	geoScoreSome         = 30

	userVolumeP99Score = 70
	userVolumeP95Score = 40

	ipSpreadUsers     = 5
	ipSpreadScore     = 60
	ipSpreadPerUser   = 10
	ipVolumeHighScore = 70
	ipVolumeBaseScore = 20
)

// UserComponents are the six per-user component scores.
type UserComponents struct {
	Failure float64 `json:"score_failure"`
	Anomaly float64 `json:"score_anomaly"`
	Geo     float64 `json:"score_geo"`
	Cluster float64 `json:"score_cluster"`
	Volume  float64 `json:"score_volume"`
	IPRep   float64 `json:"score_ip_rep"`
}

func (c UserComponents) values() []float64 {
	return []float64{c.Failure, c.Anomaly, c.Geo, c.Cluster, c.Volume, c.IPRep}
}

// Score returns the composite for c under w.
func (w UserWeights) Score(c UserComponents) float64 {
	return Composite(c.values(), w.values())
}

// UserRisk is the fused risk record of one user.
type UserRisk struct {
	UserID          string  `json:"user_id"`
	TotalRequests   int     `json:"total_requests"`
	FailureRate     float64 `json:"failure_rate"`
	UniqueIPs       int     `json:"unique_ips"`
	UniqueCountries int     `json:"unique_countries"`
	AvgLatencyMs    float64 `json:"avg_latency"`
	PrimaryIP       string  `json:"primary_ip,omitempty"`
	UserComponents
	Score float64     `json:"risk_score"`
	Tier  models.Tier `json:"risk_tier"`
}

// IPComponents are the three per-IP component scores.
type IPComponents struct {
	Failure float64 `json:"score_failure"`
	Spread  float64 `json:"score_spread"`
	Volume  float64 `json:"score_volume"`
}

func (c IPComponents) values() []float64 {
	return []float64{c.Failure, c.Spread, c.Volume}
}

// Score returns the composite for c under w.
func (w IPWeights) Score(c IPComponents) float64 {
	return Composite(c.values(), w.values())
}

// IPRisk is the fused risk record of one IP address.
type IPRisk struct {
	IPAddress       string  `json:"ip_address"`
	TotalRequests   int     `json:"total_requests"`
	FailureRate     float64 `json:"failure_rate"`
	UniqueUsers     int     `json:"unique_users"`
	UniqueCountries int     `json:"unique_countries"`
	IPComponents
	Score float64     `json:"risk_score"`
	Tier  models.Tier `json:"risk_tier"`
}

// Result is the output of one fusion pass.
type Result struct {
	Users   []UserRisk `json:"users"`
	IPs     []IPRisk   `json:"ips"`
	Summary Summary    `json:"summary"`
}

// Engine fuses signals into risk records.
type Engine struct {
	config Config
}

// NewEngine validates config and returns an engine.
func NewEngine(config Config) (*Engine, error) {
	if config.TopUsers == 0 {
		config.TopUsers = defaultTopUsers
	}
	if len(config.Tiers.Edges) == 0 {
		config.Tiers = models.DefaultTierBins()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: config}, nil
}

// Fuse scores every user and IP and summarizes the result.
func (e *Engine) Fuse(ctx context.Context, table *models.EventTable, signals Signals) (*Result, error) {
	users := e.ScoreUsers(table, signals)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ips := e.ScoreIPs(table)
	return &Result{
		Users:   users,
		IPs:     ips,
		Summary: e.Summarize(users, ips),
	}, nil
}

type entityAgg struct {
	requests  int
	failures  int
	latency   float64
	peers     map[string]bool
	countries map[string]bool
	sessions  map[string]bool
	ips       []string
}

func newEntityAgg() *entityAgg {
	return &entityAgg{
		peers:     make(map[string]bool),
		countries: make(map[string]bool),
		sessions:  make(map[string]bool),
	}
}

func (a *entityAgg) add(e *models.Event, peer string) {
	a.requests++
	a.latency += e.LatencyMs
	if e.IsFailure {
		a.failures++
	}
	a.peers[peer] = true
	if !models.IsUnknownCountry(e.Country) {
		a.countries[e.Country] = true
	}
}

func (a *entityAgg) failureRate() float64 {
	return stats.SafeDivide(float64(a.failures), float64(a.requests), 0)
}

// ScoreUsers returns one record per user, sorted by score descending then
// user ID. It returns an empty slice when the table has no user column.
func (e *Engine) ScoreUsers(table *models.EventTable, signals Signals) []UserRisk {
	out := make([]UserRisk, 0)
	if !table.HasColumn(models.ColUserID) {
		return out
	}
	signals = signals.withDefaults()

	hasIP := table.HasColumn(models.ColIPAddress)
	hasCountry := table.HasColumn(models.ColCountry)
	hasSession := table.HasColumn(models.ColSessionID)

	byUser := make(map[string]*entityAgg)
	order := make([]string, 0)
	for i, events := 0, table.Events(); i < len(events); i++ {
		ev := &events[i]
		agg, ok := byUser[ev.UserID]
		if !ok {
			agg = newEntityAgg()
			byUser[ev.UserID] = agg
			order = append(order, ev.UserID)
		}
		agg.add(ev, ev.IPAddress)
		agg.ips = append(agg.ips, ev.IPAddress)
		agg.sessions[ev.SessionID] = true
	}

	counts := make([]float64, 0, len(order))
	for _, id := range order {
		counts = append(counts, float64(byUser[id].requests))
	}
	p99 := stats.Percentile(counts, 99)
	p95 := stats.Percentile(counts, 95)

	for _, id := range order {
		agg := byUser[id]
		r := UserRisk{
			UserID:        id,
			TotalRequests: agg.requests,
			FailureRate:   stats.Round(agg.failureRate(), 4),
			AvgLatencyMs:  stats.Round(agg.latency/float64(agg.requests), 1),
		}
		if hasIP {
			r.UniqueIPs = len(agg.peers)
			r.PrimaryIP = stats.Mode(agg.ips, "")
		}
		if hasCountry {
			r.UniqueCountries = len(agg.countries)
		}

		r.Failure = stats.Clip100(agg.failureRate() * 100)
		if hasSession {
			r.Anomaly = anomalyComponent(agg.sessions, signals.SessionAnomaly)
		}
		r.Geo = geoComponent(r.UniqueCountries)
		r.Cluster = ClusterScore(signals.ClusterLabels[id])
		r.Volume = userVolumeComponent(float64(agg.requests), p95, p99)
		if hasIP {
			r.IPRep = stats.Clip100(signals.IPReputation[r.PrimaryIP])
		}

		r.Score = e.config.UserWeights.Score(r.UserComponents)
		r.Tier = e.config.Tiers.Classify(r.Score)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// anomalyComponent averages the scores of the user's scored sessions. Users
// with no scored session get 0.
func anomalyComponent(sessions map[string]bool, scores map[string]float64) float64 {
	sum, n := 0.0, 0
	for s := range sessions {
		if v, ok := scores[s]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return stats.Round(stats.Clip100(AnomalyScore(sum/float64(n))), 2)
}

func geoComponent(countries int) float64 {
	switch {
	case countries >= geoCountriesCritical:
		return geoScoreCritical
	case countries >= geoCountriesHigh:
		return geoScoreHigh
	case countries >= geoCountriesSome:
		return geoScoreSome
	default:
		return 0
	}
}

func userVolumeComponent(requests, p95, p99 float64) float64 {
	switch {
	case requests > p99:
		return userVolumeP99Score
	case requests > p95:
		return userVolumeP95Score
	default:
		return 0
	}
}

// ScoreIPs returns one record per IP, sorted by score descending then IP. It
// returns an empty slice when the table has no IP column.
func (e *Engine) ScoreIPs(table *models.EventTable) []IPRisk {
	out := make([]IPRisk, 0)
	if !table.HasColumn(models.ColIPAddress) {
		return out
	}
	hasUser := table.HasColumn(models.ColUserID)
	hasCountry := table.HasColumn(models.ColCountry)

	byIP := make(map[string]*entityAgg)
	order := make([]string, 0)
	for i, events := 0, table.Events(); i < len(events); i++ {
		ev := &events[i]
		agg, ok := byIP[ev.IPAddress]
		if !ok {
			agg = newEntityAgg()
			byIP[ev.IPAddress] = agg
			order = append(order, ev.IPAddress)
		}
		agg.add(ev, ev.UserID)
	}

	counts := make([]float64, 0, len(order))
	for _, ip := range order {
		counts = append(counts, float64(byIP[ip].requests))
	}
	p95 := stats.Percentile(counts, 95)

	for _, ip := range order {
		agg := byIP[ip]
		r := IPRisk{
			IPAddress:     ip,
			TotalRequests: agg.requests,
			FailureRate:   stats.Round(agg.failureRate(), 4),
		}
		if hasUser {
			r.UniqueUsers = len(agg.peers)
		}
		if hasCountry {
			r.UniqueCountries = len(agg.countries)
		}

		r.Failure = stats.Clip100(agg.failureRate() * 100)
		r.Spread = float64(r.UniqueUsers * ipSpreadPerUser)
		if r.UniqueUsers > ipSpreadUsers {
			r.Spread = ipSpreadScore
		}
		r.Volume = ipVolumeBaseScore
		if float64(agg.requests) > p95 {
			r.Volume = ipVolumeHighScore
		}

		r.Score = e.config.IPWeights.Score(r.IPComponents)
		r.Tier = e.config.Tiers.Classify(r.Score)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].IPAddress < out[j].IPAddress
	})
	return out
}
