// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/tomtom215/loglens/internal/alerts"
	"github.com/tomtom215/loglens/internal/pipeline"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// workspace holds a quiet config file and an access log with a brute force
// burst from 198.51.100.7 against admin.
type workspace struct {
	dir    string
	config string
	log    string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:    dir,
		config: filepath.Join(dir, "loglens.yaml"),
		log:    filepath.Join(dir, "access.csv"),
	}

	var b strings.Builder
	b.WriteString("time,src_ip,user,status,path,response_time\n")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "2026-05-01 09:00:%02d,198.51.100.7,admin,401,/login,80\n", i*5)
	}
	b.WriteString("2026-05-01 09:05:00,203.0.113.10,alice,200,/api/items,120\n")

	writeFile(t, ws.config, "logging:\n  level: error\n")
	writeFile(t, ws.log, b.String())
	return ws
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// execute runs the root command and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	root := newRootCommand()
	want := map[string]bool{"analyze": false, "serve": false, "version": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "loglens "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestAnalyze_Table(t *testing.T) {
	ws := newWorkspace(t)
	out, err := execute(t, "analyze", ws.log, "--config", ws.config)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	for _, want := range []string{"SECURITY", "brute_force", "198.51.100.7", "ALERTS", alerts.PrefixBruteForce, "Data quality"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("output contains colour codes with NoColor set")
	}
}

func TestAnalyze_JSON(t *testing.T) {
	ws := newWorkspace(t)
	out, err := execute(t, "analyze", ws.log, "--config", ws.config, "--format", "json")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	var report pipeline.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("unmarshal report: %v\n%s", err, out)
	}
	if report.Events != 9 {
		t.Errorf("Events = %d, want 9", report.Events)
	}
	if report.Quality == nil || report.Quality.TotalRows != 9 {
		t.Errorf("Quality = %+v, want 9 total rows", report.Quality)
	}
	if report.Security == nil || len(report.Security.BruteForce) == 0 {
		t.Error("brute force burst not detected")
	}
}

func TestAnalyze_AlertsCSV(t *testing.T) {
	ws := newWorkspace(t)
	path := filepath.Join(ws.dir, "alerts.csv")
	if _, err := execute(t, "analyze", ws.log, "--config", ws.config, "--format", "json", "--alerts-csv", path); err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open alerts csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse alerts csv: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("rows = %d, want header and at least one alert", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(alerts.CSVHeader, ",") {
		t.Errorf("header = %v, want %v", rows[0], alerts.CSVHeader)
	}
}

func TestAnalyze_Signals(t *testing.T) {
	ws := newWorkspace(t)
	signals := filepath.Join(ws.dir, "signals.json")
	writeFile(t, signals, `{"cluster_labels":{"admin":"Normal User"},"ip_reputation":{"198.51.100.7":5}}`)

	out, err := execute(t, "analyze", ws.log, "--config", ws.config, "--format", "json", "--signals", signals)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	var report pipeline.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	for _, u := range report.Risk.Users {
		if u.UserID == "admin" && (u.Cluster != 0 || u.IPRep != 5) {
			t.Errorf("admin cluster/iprep = %v/%v, want 0/5 from signals", u.Cluster, u.IPRep)
		}
	}
}

func TestAnalyze_Errors(t *testing.T) {
	ws := newWorkspace(t)
	badSignals := filepath.Join(ws.dir, "bad.json")
	writeFile(t, badSignals, "{not json")

	tests := []struct {
		name string
		args []string
	}{
		{"no file argument", []string{"analyze", "--config", ws.config}},
		{"unknown format", []string{"analyze", ws.log, "--config", ws.config, "--format", "xml"}},
		{"missing file", []string{"analyze", filepath.Join(ws.dir, "absent.csv"), "--config", ws.config}},
		{"unsupported extension", []string{"analyze", ws.config, "--config", ws.config}},
		{"bad signals", []string{"analyze", ws.log, "--config", ws.config, "--signals", badSignals}},
		{"missing config", []string{"analyze", ws.log, "--config", filepath.Join(ws.dir, "absent.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("Execute() error = nil")
			}
		})
	}
}

func TestRenderReport_NoneDetected(t *testing.T) {
	var buf bytes.Buffer
	renderReport(&buf, &pipeline.Report{RunID: "run-1"})
	out := buf.String()
	for _, want := range []string{"Security findings: none detected", "Alerts: none detected", "Risk scores: none detected"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	tb := newTable("ID", "SEVERITY")
	tb.add(c("SEC-BF-0001"), colored(criticalColor, "CRITICAL"))
	tb.render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[2], "SEC-BF-0001  CRITICAL") {
		t.Errorf("row = %q", lines[2])
	}
	if !strings.HasPrefix(lines[1], strings.Repeat("-", len("SEC-BF-0001"))+"  ") {
		t.Errorf("separator = %q", lines[1])
	}
}
