// Package storage archives finalized run summaries so results can be
// compared across harness invocations. The analysis engine itself stays
// in-memory per run; only finished reports land here.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/biometriqa/harness/internal/report"
)

// Store is a SQLite-backed archive of finished runs.
type Store struct {
	db *sql.DB
}

// Run is one archived run row.
type Run struct {
	RunID      string
	TestName   string
	Passed     bool
	Criticals  int
	Warnings   int
	DurationMS int64
	StartedAt  time.Time
	FinishedAt time.Time
}

// Totals aggregates the archive for summary output.
type Totals struct {
	Runs      int
	Passed    int
	Failed    int
	Criticals int
}

// New opens (or creates) the archive at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize archive schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			test_name TEXT NOT NULL,
			passed INTEGER NOT NULL,
			criticals INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			report TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_test_name ON runs(test_name)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun archives a finalized report and its summary.
func (s *Store) SaveRun(ctx context.Context, r *report.Report, summary report.Summary) error {
	if !r.Finalized() {
		return fmt.Errorf("refusing to archive an unfinalized report")
	}

	blob, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query := `INSERT INTO runs
		(run_id, test_name, passed, criticals, warnings, duration_ms, started_at, finished_at, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		r.RunID,
		r.TestName,
		summary.Passed,
		len(summary.Criticals),
		len(summary.Warnings),
		summary.Duration.Milliseconds(),
		r.StartTime,
		r.EndTime,
		string(blob),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT run_id, test_name, passed, criticals, warnings, duration_ms, started_at, finished_at
		FROM runs ORDER BY finished_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.TestName, &r.Passed, &r.Criticals,
			&r.Warnings, &r.DurationMS, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadReport retrieves the archived report JSON for a run.
func (s *Store) LoadReport(ctx context.Context, runID string) ([]byte, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM runs WHERE run_id = ?`, runID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	return []byte(blob), nil
}

// Aggregate computes archive-wide totals.
func (s *Store) Aggregate(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(passed), 0),
			COALESCE(SUM(1 - passed), 0),
			COALESCE(SUM(criticals), 0)
		FROM runs`).Scan(&t.Runs, &t.Passed, &t.Failed, &t.Criticals)
	if err != nil {
		return Totals{}, fmt.Errorf("aggregate runs: %w", err)
	}
	return t, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
