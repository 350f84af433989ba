package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// timestampLayout is fixed-width so rows sort chronologically as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteExporter stores trace records in a generation_traces table.
type SQLiteExporter struct {
	db      *sql.DB
	ownsDB  bool
	closeMu sync.Mutex
	closed  bool
}

// NewSQLiteExporter opens (or creates) the database at dbPath.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteExporter(dbPath string) (*SQLiteExporter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writes
	db.SetMaxOpenConns(1)

	exporter, err := newSQLiteExporter(db, true)
	if err != nil {
		db.Close()
		return nil, err
	}
	return exporter, nil
}

// NewSQLiteExporterDB uses an already opened database. Close does not close db.
func NewSQLiteExporterDB(db *sql.DB) (*SQLiteExporter, error) {
	return newSQLiteExporter(db, false)
}

func newSQLiteExporter(db *sql.DB, ownsDB bool) (*SQLiteExporter, error) {
	e := &SQLiteExporter{db: db, ownsDB: ownsDB}
	if err := e.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return e, nil
}

func (e *SQLiteExporter) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generation_traces (
		operation_id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		operation TEXT NOT NULL,
		backend TEXT NOT NULL,
		structured INTEGER NOT NULL DEFAULT 0,
		result_kind TEXT,
		duration_ms INTEGER NOT NULL,
		status TEXT NOT NULL,
		error_type TEXT,
		counters TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_generation_traces_backend ON generation_traces(backend, timestamp);
	`
	_, err := e.db.Exec(schema)
	return err
}

// Export inserts one record. Re-exporting an operation id replaces the row.
func (e *SQLiteExporter) Export(ctx context.Context, record *TraceRecord) error {
	var counters sql.NullString
	if len(record.Counters) > 0 {
		b, err := json.Marshal(record.Counters)
		if err != nil {
			return fmt.Errorf("marshal counters: %w", err)
		}
		counters = sql.NullString{String: string(b), Valid: true}
	}

	_, err := e.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO generation_traces
			(operation_id, timestamp, operation, backend, structured, result_kind, duration_ms, status, error_type, counters)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.OperationID,
		record.Timestamp.UTC().Format(timestampLayout),
		record.Operation,
		record.Backend,
		record.Structured,
		record.ResultKind,
		record.DurationMs,
		record.Status,
		record.ErrorType,
		counters,
	)
	if err != nil {
		return fmt.Errorf("insert trace record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (e *SQLiteExporter) Recent(ctx context.Context, limit int) ([]TraceRecord, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT operation_id, timestamp, operation, backend, structured, result_kind, duration_ms, status, error_type, counters
		FROM generation_traces
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trace records: %w", err)
	}
	defer rows.Close()

	var records []TraceRecord
	for rows.Next() {
		var (
			r                     TraceRecord
			ts                    string
			resultKind, errorType sql.NullString
			counters              sql.NullString
		)
		if err := rows.Scan(&r.OperationID, &ts, &r.Operation, &r.Backend, &r.Structured,
			&resultKind, &r.DurationMs, &r.Status, &errorType, &counters); err != nil {
			return nil, fmt.Errorf("scan trace record: %w", err)
		}
		if r.Timestamp, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		r.ResultKind = resultKind.String
		r.ErrorType = errorType.String
		if counters.Valid {
			if err := json.Unmarshal([]byte(counters.String), &r.Counters); err != nil {
				return nil, fmt.Errorf("unmarshal counters: %w", err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database if the exporter opened it.
func (e *SQLiteExporter) Close() error {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.ownsDB {
		return e.db.Close()
	}
	return nil
}
