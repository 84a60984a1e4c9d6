// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/tomtom215/loglens/internal/alerts"
	"github.com/tomtom215/loglens/internal/detection"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/performance"
	"github.com/tomtom215/loglens/internal/pipeline"
)

var (
	headerColor   = color.New(color.FgWhite, color.Bold)
	sectionColor  = color.New(color.FgCyan, color.Bold)
	criticalColor = color.New(color.FgRed, color.Bold)
	warningColor  = color.New(color.FgYellow)
	infoColor     = color.New(color.FgCyan)
	okColor       = color.New(color.FgGreen)
)

func severityColor(s models.Severity) *color.Color {
	switch s {
	case models.SeverityCritical:
		return criticalColor
	case models.SeverityWarning:
		return warningColor
	case models.SeverityInfo:
		return infoColor
	default:
		return nil
	}
}

func ragColor(r performance.RAGStatus) *color.Color {
	switch r {
	case performance.RAGRed:
		return criticalColor
	case performance.RAGAmber:
		return warningColor
	default:
		return okColor
	}
}

func tierColor(t models.Tier) *color.Color {
	switch t {
	case models.TierCritical:
		return criticalColor
	case models.TierHigh:
		return warningColor
	default:
		return nil
	}
}

// cell is table text with an optional colour; nil prints plain.
type cell struct {
	text  string
	color *color.Color
}

func c(text string) cell { return cell{text: text} }

func colored(col *color.Color, text string) cell { return cell{text: text, color: col} }

type table struct {
	headers []string
	rows    [][]cell
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) add(row ...cell) {
	t.rows = append(t.rows, row)
}

// render pads on the plain text so colour codes do not skew the columns.
func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cl := range row {
			if len(cl.text) > widths[i] {
				widths[i] = len(cl.text)
			}
		}
	}

	for i, h := range t.headers {
		headerColor.Fprintf(w, "%-*s  ", widths[i], h)
	}
	fmt.Fprintln(w)
	for i := range t.headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(w)
	for _, row := range t.rows {
		for i, cl := range row {
			padded := fmt.Sprintf("%-*s  ", widths[i], cl.text)
			if cl.color != nil {
				cl.color.Fprint(w, padded)
			} else {
				fmt.Fprint(w, padded)
			}
		}
		fmt.Fprintln(w)
	}
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	sectionColor.Fprintln(w, title)
}

func none(w io.Writer, what string) {
	okColor.Fprintf(w, "%s: none detected\n", what)
}

func f1(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

// renderReport prints a human-readable report.
func renderReport(w io.Writer, r *pipeline.Report) {
	headerColor.Fprintf(w, "LogLens report %s\n", r.RunID)
	fmt.Fprintf(w, "Generated %s, %d events\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"), r.Events)
	if q := r.Quality; q != nil {
		fmt.Fprintf(w, "Data quality %s/100 (%d of %d rows usable, %s to %s)\n",
			f1(q.QualityScore), q.UsableRows, q.TotalRows,
			q.Start.Format("2006-01-02 15:04"), q.End.Format("2006-01-02 15:04"))
		for _, issue := range q.Issues {
			warningColor.Fprintf(w, "  ! %s\n", issue)
		}
	}
	for _, warn := range r.Warnings {
		warningColor.Fprintf(w, "warning: %s\n", warn)
	}

	renderSecurity(w, r.Security)
	renderPerformance(w, r.Performance)
	renderAnomalies(w, r)
	renderRisk(w, r)
	renderTrends(w, r)
	renderAlerts(w, r.Alerts, r.AlertSummary)
}

func renderSecurity(w io.Writer, s *detection.SecurityReport) {
	section(w, "SECURITY")
	if s == nil {
		none(w, "Security findings")
		return
	}
	fmt.Fprintf(w, "Risk index %s, %d threats, %d/%d high-risk IPs, failure rate %s%%\n",
		f1(s.RiskIndex), s.TotalThreats, s.HighRiskIPs, s.TotalIPs, f1(s.FailureRatePct))

	var findings []detection.Detection
	findings = append(findings, s.BruteForce...)
	findings = append(findings, s.CredentialStuffing...)
	findings = append(findings, s.GeoAnomalies...)
	if len(findings) == 0 {
		none(w, "Threats")
		return
	}
	t := newTable("TYPE", "SEVERITY", "IP", "USER", "COUNT", "MITRE")
	for i := range findings {
		d := &findings[i]
		t.add(
			c(string(d.Type)),
			colored(severityColor(d.Severity), string(d.Severity)),
			c(d.IPAddress),
			c(d.UserID),
			c(strconv.Itoa(d.HeadlineCount())),
			c(d.MITRETechnique),
		)
	}
	t.render(w)
}

func renderPerformance(w io.Writer, p *performance.Report) {
	section(w, "PERFORMANCE")
	if p == nil || len(p.ServiceHealth) == 0 {
		none(w, "Service metrics")
		return
	}
	fmt.Fprintf(w, "Overall health %s/100, %d services breaching SLA\n", f1(p.OverallHealthScore), p.ServicesBreachingSLA)

	t := newTable("SERVICE", "REQUESTS", "ERROR %", "AVG MS", "P95 MS", "HEALTH", "STATUS")
	for _, h := range p.ServiceHealth {
		t.add(
			c(h.Service),
			c(strconv.Itoa(h.TotalRequests)),
			c(f1(h.ErrorRate*100)),
			c(f1(h.AvgLatencyMs)),
			c(f1(h.P95LatencyMs)),
			c(f1(h.HealthScore)),
			colored(ragColor(h.RAG), string(h.RAG)),
		)
	}
	t.render(w)

	if len(p.SLABreaches) == 0 {
		none(w, "SLA breaches")
		return
	}
	for _, b := range p.SLABreaches {
		line := fmt.Sprintf("  %s %s: %s\n", b.Severity, b.Service, b.Details)
		if col := severityColor(b.Severity); col != nil {
			col.Fprint(w, line)
		} else {
			fmt.Fprint(w, line)
		}
	}
}

func renderAnomalies(w io.Writer, r *pipeline.Report) {
	section(w, "ANOMALIES")
	a := r.Anomaly
	if a == nil || a.TotalLatencySpikes+a.TotalErrorSpikes+a.TotalServiceLatencySpikes == 0 {
		none(w, "Anomalies")
		return
	}
	fmt.Fprintf(w, "%d latency spikes, %d error rate spikes, %d service latency spikes\n",
		a.TotalLatencySpikes, a.TotalErrorSpikes, a.TotalServiceLatencySpikes)
	if len(a.SpikingServices) > 0 {
		fmt.Fprintf(w, "Spiking services: %s\n", strings.Join(a.SpikingServices, ", "))
	}
}

func renderRisk(w io.Writer, r *pipeline.Report) {
	section(w, "RISK")
	if r.Risk == nil || r.Risk.Summary.TotalUsersScored+r.Risk.Summary.TotalIPsScored == 0 {
		none(w, "Risk scores")
		return
	}
	s := r.Risk.Summary
	fmt.Fprintf(w, "%d users, %d IPs scored; average %s; %d critical users, %d high risk users, %d critical IPs\n",
		s.TotalUsersScored, s.TotalIPsScored, f1(s.AvgRiskScore), s.CriticalUsers, s.HighRiskUsers, s.CriticalIPs)
	if len(s.TopUsers) == 0 {
		return
	}
	t := newTable("USER", "SCORE", "TIER", "REQUESTS", "FAIL %", "IPS", "COUNTRIES")
	for _, u := range s.TopUsers {
		t.add(
			c(u.UserID),
			c(f1(u.Score)),
			colored(tierColor(u.Tier), string(u.Tier)),
			c(strconv.Itoa(u.TotalRequests)),
			c(f1(u.FailureRate*100)),
			c(strconv.Itoa(u.UniqueIPs)),
			c(strconv.Itoa(u.UniqueCountries)),
		)
	}
	t.render(w)
}

func renderTrends(w io.Writer, r *pipeline.Report) {
	section(w, "TRENDS")
	if r.Trends == nil {
		none(w, "Trends")
		return
	}
	t := r.Trends
	fmt.Fprintf(w, "Latency %s, throughput %s, volume %s\n",
		t.LatencyTrend.Direction, t.BytesTrend.Direction, t.VolumeTrend.Direction)
}

func renderAlerts(w io.Writer, feed []alerts.Alert, s alerts.Summary) {
	section(w, "ALERTS")
	if len(feed) == 0 {
		none(w, "Alerts")
		return
	}
	fmt.Fprintf(w, "%d alerts: ", s.Total)
	criticalColor.Fprintf(w, "%d critical", s.Critical)
	fmt.Fprint(w, ", ")
	warningColor.Fprintf(w, "%d warning", s.Warning)
	fmt.Fprint(w, ", ")
	infoColor.Fprintf(w, "%d info\n", s.Info)

	t := newTable("ID", "SEVERITY", "CATEGORY", "TITLE")
	for i := range feed {
		a := &feed[i]
		t.add(
			c(a.ID),
			colored(severityColor(a.Severity), string(a.Severity)),
			c(string(a.Category)),
			c(a.Title),
		)
	}
	t.render(w)
}

func renderDelivery(w io.Writer, s alerts.DeliveryStats) {
	section(w, "DELIVERY")
	if s.Failed > 0 {
		warningColor.Fprintf(w, "%d deliveries sent, %d failed\n", s.Sent, s.Failed)
		return
	}
	okColor.Fprintf(w, "%d deliveries sent\n", s.Sent)
}
