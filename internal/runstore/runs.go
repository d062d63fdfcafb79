package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medley/internal/diag"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded batch run.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        string
	Registrations int
	Submissions   int
	Converted     int
	Refreshed     int
	Error         string
}

// Summary carries the counters recorded when a run finishes.
type Summary struct {
	Registrations int
	Submissions   int
	Converted     int
	Refreshed     int
}

// Begin records the start of a run and returns its id.
func (s *Store) Begin(ctx context.Context) (string, error) {
	id := uuid.NewString()
	startedAt := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.execWithRetry(ctx,
		"INSERT INTO runs (id, started_at, status) VALUES (?, ?, ?)",
		id, startedAt, StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Finish marks a run completed with its counters.
func (s *Store) Finish(ctx context.Context, id string, summary Summary) error {
	return s.finish(ctx, id, StatusCompleted, summary, "")
}

// Fail marks a run failed with the terminal error.
func (s *Store) Fail(ctx context.Context, id string, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	return s.finish(ctx, id, StatusFailed, Summary{}, message)
}

func (s *Store) finish(ctx context.Context, id, status string, summary Summary, message string) error {
	finishedAt := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, registrations = ?,
            submissions = ?, converted = ?, refreshed = ?, error = ?
         WHERE id = ?`,
		finishedAt, status,
		summary.Registrations, summary.Submissions, summary.Converted, summary.Refreshed,
		nullableString(message), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordDiagnostics persists a run's diagnostics.
func (s *Store) RecordDiagnostics(ctx context.Context, runID string, records []diag.Record) error {
	if len(records) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin diagnostics tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, record := range records {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO run_diagnostics (run_id, kind, subject, message) VALUES (?, ?, ?, ?)",
			runID, string(record.Kind), record.Subject, record.Detail,
		)
		if err != nil {
			return fmt.Errorf("insert diagnostic: %w", err)
		}
	}
	return tx.Commit()
}

// Diagnostics returns a run's persisted diagnostics in insertion order.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]diag.Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, subject, message FROM run_diagnostics WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var records []diag.Record
	for rows.Next() {
		var kind, subject, message string
		if err := rows.Scan(&kind, &subject, &message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		records = append(records, diag.Record{Kind: diag.Kind(kind), Subject: subject, Detail: message})
	}
	return records, rows.Err()
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, registrations, submissions,
            converted, refreshed, error
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Latest returns the most recent run, or ok=false when none exist.
func (s *Store) Latest(ctx context.Context) (Run, bool, error) {
	runs, err := s.Recent(ctx, 1)
	if err != nil {
		return Run{}, false, err
	}
	if len(runs) == 0 {
		return Run{}, false, nil
	}
	return runs[0], true, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		runErr     sql.NullString
	)
	err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Status,
		&run.Registrations, &run.Submissions, &run.Converted, &run.Refreshed, &runErr)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid && finishedAt.String != "" {
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt.String); err != nil {
			return Run{}, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	if runErr.Valid {
		run.Error = runErr.String
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
