// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package ingest turns log files into a normalized event table.

Files are read through an in-memory DuckDB instance using its auto-detecting
table functions:

	.csv .tsv .log     read_csv_auto(path, all_varchar = true)
	.json .jsonl       read_json_auto(path)
	.ndjson
	.parquet           read_parquet(path)

Every cell is converted to text and handed to models.Normalize, which maps
headers onto the canonical schema, fills gaps and derives time fields. The
analyzers never depend on this package.
*/
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
)

// Format is a supported input file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported log file format")

// DetectFormat maps a file name to its format by extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".log", ".txt":
		return FormatCSV, nil
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Config configures the DuckDB reader.
type Config struct {
	// Threads bounds DuckDB worker threads; 0 lets DuckDB decide.
	Threads int `koanf:"threads" validate:"min=0"`

	// MaxMemory caps DuckDB memory, e.g. "1GB". Empty uses the default.
	MaxMemory string `koanf:"max_memory"`

	// MaxRows stops reading after this many rows; 0 reads everything.
	MaxRows int `koanf:"max_rows" validate:"min=0"`
}

// Reader reads log files through DuckDB.
type Reader struct {
	db     *sql.DB
	config Config
}

// NewReader opens an in-memory DuckDB database.
func NewReader(cfg Config) (*Reader, error) {
	params := []string{"autoinstall_known_extensions=false", "autoload_known_extensions=false"}
	if cfg.Threads > 0 {
		params = append(params, fmt.Sprintf("threads=%d", cfg.Threads))
	}
	if cfg.MaxMemory != "" {
		params = append(params, "max_memory="+cfg.MaxMemory)
	}

	db, err := sql.Open("duckdb", ":memory:?"+strings.Join(params, "&"))
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	return &Reader{db: db, config: cfg}, nil
}

// Close releases the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// ReadFile reads and normalizes one log file. The error wraps
// models.ErrNoUsableRows when no row has a parseable timestamp.
func (r *Reader) ReadFile(ctx context.Context, path string) (*models.EventTable, *models.QualityReport, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("stat log file: %w", err)
	}

	start := time.Now()
	headers, rows, err := r.query(ctx, format, path)
	if err != nil {
		metrics.RecordIngest(string(format), 0, 0, time.Since(start), err)
		return nil, nil, err
	}

	table, report, err := models.Normalize(headers, rows)
	if err != nil {
		metrics.RecordIngest(string(format), len(rows), len(rows), time.Since(start), err)
		return nil, report, err
	}
	metrics.RecordIngest(string(format), len(rows), report.DroppedRows, time.Since(start), nil)

	logging.Ctx(ctx).Info().
		Str("file", filepath.Base(path)).
		Str("format", string(format)).
		Int("rows", report.TotalRows).
		Int("dropped", report.DroppedRows).
		Float64("quality", report.QualityScore).
		Dur("duration", time.Since(start)).
		Msg("log file ingested")

	return table, report, nil
}

// ReadBytes writes data to a temporary file named like name and reads it.
// It serves uploads, whose format is known only from the file name.
func (r *Reader) ReadBytes(ctx context.Context, name string, data []byte) (*models.EventTable, *models.QualityReport, error) {
	if _, err := DetectFormat(name); err != nil {
		return nil, nil, err
	}

	f, err := os.CreateTemp("", "loglens-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return nil, nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, nil, fmt.Errorf("close temp file: %w", err)
	}
	return r.ReadFile(ctx, f.Name())
}

func (r *Reader) query(ctx context.Context, format Format, path string) ([]string, []models.RawRecord, error) {
	lit := quoteLiteral(path)
	var source string
	switch format {
	case FormatCSV:
		source = fmt.Sprintf("read_csv_auto(%s, all_varchar = true)", lit)
	case FormatJSON:
		source = fmt.Sprintf("read_json_auto(%s)", lit)
	case FormatParquet:
		source = fmt.Sprintf("read_parquet(%s)", lit)
	}

	q := "SELECT * FROM " + source
	if r.config.MaxRows > 0 {
		q += fmt.Sprintf(" LIMIT %d", r.config.MaxRows)
	}

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s file: %w", format, err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}

	records := make([]models.RawRecord, 0)
	values := make([]any, len(headers))
	ptrs := make([]any, len(headers))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row %d: %w", len(records)+1, err)
		}
		rec := make(models.RawRecord, len(headers))
		for i, h := range headers {
			rec[h] = Stringify(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return headers, records, nil
}

// FromRecords normalizes already-decoded records, such as a JSON request
// body. Headers are the union of keys, sorted within each record.
func FromRecords(records []map[string]any) (*models.EventTable, *models.QualityReport, error) {
	headers := make([]string, 0)
	seen := make(map[string]bool)
	rows := make([]models.RawRecord, 0, len(records))
	for _, rec := range records {
		row := make(models.RawRecord, len(rec))
		for k, v := range rec {
			row[k] = Stringify(v)
		}
		rows = append(rows, row)
	}
	for _, rec := range records {
		for _, k := range sortedKeys(rec) {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	return models.Normalize(headers, rows)
}

// Stringify renders a scanned or decoded cell as text. Nil becomes "".
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
