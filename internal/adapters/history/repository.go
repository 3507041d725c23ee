package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteRepository implements ports.ScanHistory using SQLite.
// Scan history lives in its own database so the audit trail survives
// graph resets.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the history database and initializes the schema.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// SaveRun inserts or updates a scan run record.
func (r *SQLiteRepository) SaveRun(ctx context.Context, run domain.ScanRun) error {
	query := `
		INSERT INTO scan_runs (id, target, status, subdomains, services, highest_score, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			subdomains = excluded.subdomains,
			services = excluded.services,
			highest_score = excluded.highest_score,
			error = excluded.error,
			finished_at = excluded.finished_at
	`
	var finished interface{}
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt
	}
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Target, string(run.Status), run.Subdomains, run.Services,
		run.HighestScore, run.Error, run.StartedAt, finished)
	if err != nil {
		return fmt.Errorf("failed to save scan run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent scan runs, newest first.
func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]domain.ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, target, status, subdomains, services, highest_score, error, started_at, finished_at
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []domain.ScanRun
	for rows.Next() {
		var run domain.ScanRun
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.Target, &status, &run.Subdomains,
			&run.Services, &run.HighestScore, &run.Error, &run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.Status = domain.ScanStatus(status)
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LogQuery appends one query-agent interaction to the audit log.
func (r *SQLiteRepository) LogQuery(ctx context.Context, entry domain.QueryLogEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO query_log (question, query, rows, success, timestamp) VALUES (?, ?, ?, ?, ?)`,
		entry.Question, entry.Query, entry.Rows, entry.Success, ts)
	if err != nil {
		return fmt.Errorf("failed to log query: %w", err)
	}
	return nil
}

// ListQueries returns the most recent query-agent interactions, newest first.
func (r *SQLiteRepository) ListQueries(ctx context.Context, limit int) ([]domain.QueryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question, query, rows, success, timestamp FROM query_log ORDER BY timestamp DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []domain.QueryLogEntry
	for rows.Next() {
		var e domain.QueryLogEntry
		if err := rows.Scan(&e.ID, &e.Question, &e.Query, &e.Rows, &e.Success, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan query row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

var _ ports.ScanHistory = (*SQLiteRepository)(nil)
