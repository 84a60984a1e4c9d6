// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package alerts

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

// CSVHeader is the fixed header row of the alert export.
var CSVHeader = []string{"id", "title", "description", "severity", "category", "timestamp", "details", "source"}

// WriteCSV writes the header and one row per alert. details is the JSON
// encoding of the details map and timestamps are RFC 3339.
func WriteCSV(w io.Writer, alerts []Alert) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i := range alerts {
		a := &alerts[i]
		details, err := json.Marshal(a.Details)
		if err != nil {
			return fmt.Errorf("encode details of %s: %w", a.ID, err)
		}
		row := []string{
			a.ID,
			a.Title,
			a.Description,
			string(a.Severity),
			string(a.Category),
			a.Timestamp.UTC().Format(time.RFC3339),
			string(details),
			a.Source,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", a.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV renders the alert feed as CSV.
func ExportCSV(alerts []Alert) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, alerts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
