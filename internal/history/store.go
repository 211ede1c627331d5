// internal/history/store.go
//
// Run history persisted to SQLite under .swarmcycle/state/. History is a
// convenience record, not a dependency of the workflow: callers apply the
// same best-effort policy as dashboard reporting and never fail a run on
// a history error.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"swarmcycle/internal/iteration"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	phase TEXT NOT NULL,
	backlog_items INTEGER NOT NULL,
	planned_tasks INTEGER NOT NULL,
	completed_tasks INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NULL
);

CREATE TABLE IF NOT EXISTS run_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	message TEXT NOT NULL,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_run_messages_run ON run_messages(run_id, seq);
`

// RunRecord summarizes one completed (or interrupted) iteration run.
type RunRecord struct {
	ID             string
	Phase          string
	BacklogItems   int
	PlannedTasks   int
	CompletedTasks int
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Store wraps the SQLite database holding run history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: set sqlite pragma %q: %w", stmt, err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the schema. Safe to call on every open.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("history: migrate schema: %w", err)
	}
	return nil
}

// RecordRun stores the final state of a run along with its message log.
func (s *Store) RecordRun(ctx context.Context, state iteration.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var finished sql.NullInt64
	if !state.FinishedAt.IsZero() {
		finished = sql.NullInt64{Int64: state.FinishedAt.Unix(), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, phase, backlog_items, planned_tasks, completed_tasks, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		state.RunID,
		state.Phase.String(),
		len(state.Backlog),
		state.Plan.TotalTasks(),
		len(state.CompletedTasks),
		state.StartedAt.Unix(),
		finished,
	)
	if err != nil {
		return fmt.Errorf("history: insert run %s: %w", state.RunID, err)
	}
	for seq, message := range state.Messages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_messages (run_id, seq, message) VALUES (?, ?, ?)`,
			state.RunID, seq, message,
		); err != nil {
			return fmt.Errorf("history: insert message %d for run %s: %w", seq, state.RunID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit run %s: %w", state.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phase, backlog_items, planned_tasks, completed_tasks, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			record   RunRecord
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&record.ID, &record.Phase, &record.BacklogItems,
			&record.PlannedTasks, &record.CompletedTasks, &started, &finished); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		record.StartedAt = time.Unix(started, 0).UTC()
		if finished.Valid {
			record.FinishedAt = time.Unix(finished.Int64, 0).UTC()
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return records, nil
}

// Messages returns the message log for one run in original order.
func (s *Store) Messages(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message FROM run_messages WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: load messages for %s: %w", runID, err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var message string
		if err := rows.Scan(&message); err != nil {
			return nil, fmt.Errorf("history: scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate messages: %w", err)
	}
	return messages, nil
}
