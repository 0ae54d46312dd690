// Package analytics records run outcomes and aggregates produced artifacts
// into per-language statistics.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/SirHooke/debias-batch-processor/internal/batch"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	files      INTEGER NOT NULL,
	succeeded  INTEGER NOT NULL,
	reported   INTEGER NOT NULL,
	skipped    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS file_outcomes (
	run_id    TEXT NOT NULL,
	language  TEXT NOT NULL,
	base_name TEXT NOT NULL,
	outcome   TEXT NOT NULL,
	report    INTEGER NOT NULL,
	error     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_file_outcomes_run ON file_outcomes(run_id);
`

// Store keeps per-run history in a SQLite database, typically
// <output_root>/history.db.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RunRecord is one completed run.
type RunRecord struct {
	ID        string
	StartedAt time.Time
	Summary   batch.Summary
}

func (s *Store) InsertRun(ctx context.Context, rec RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, files, succeeded, reported, skipped) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UTC().Format(time.RFC3339),
		rec.Summary.Files, rec.Summary.Succeeded, rec.Summary.Reported, rec.Summary.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *Store) InsertOutcome(ctx context.Context, runID string, ev batch.Event) error {
	outcome := "succeeded"
	errText := ""
	if ev.Kind == batch.EventFileSkipped {
		outcome = "skipped"
	}
	if ev.Err != nil {
		errText = ev.Err.Error()
	}
	report := 0
	if ev.Report {
		report = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_outcomes (run_id, language, base_name, outcome, report, error) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, ev.Job.Language, ev.Job.BaseName, outcome, report, errText,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Runs returns completed runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, files, succeeded, reported, skipped FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started string
		if err := rows.Scan(&rec.ID, &started, &rec.Summary.Files, &rec.Summary.Succeeded, &rec.Summary.Reported, &rec.Summary.Skipped); err != nil {
			return nil, err
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, started)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// NewRecorder adapts the store into a run observer: terminal per-file events
// and the run summary land in the history database. Persistence errors are
// swallowed; history is advisory and must never fail a run.
func NewRecorder(store *Store, runID string, startedAt time.Time) batch.Observer {
	return func(ev batch.Event) {
		ctx := context.Background()
		switch ev.Kind {
		case batch.EventFileSucceeded, batch.EventFileSkipped:
			_ = store.InsertOutcome(ctx, runID, ev)
		case batch.EventRunCompleted:
			_ = store.InsertRun(ctx, RunRecord{ID: runID, StartedAt: startedAt, Summary: ev.Summary})
		}
	}
}
