package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// CreateRun records the start of a lint run.
func (s *SQLiteStore) CreateRun(ctx context.Context) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run := &Run{
		ID:        generateID(),
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID))

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		run.ID, run.StartedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with its totals.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, files, issues int) error {
	if s.db == nil {
		return ErrNotOpened
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET completed_at = ?, files = ?, issues = ? WHERE id = ?`,
		time.Now().UTC(), files, issues, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetLatestRun returns the most recently started run.
func (s *SQLiteStore) GetLatestRun(ctx context.Context) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run := &Run{}
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, completed_at, files, issues FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.StartedAt, &completedAt, &run.Files, &run.Issues)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

// ForRun returns a sink that tags every published document with runID.
func (s *SQLiteStore) ForRun(runID string) lint.Sink {
	return runSink{store: s, runID: runID}
}

type runSink struct {
	store *SQLiteStore
	runID string
}

func (r runSink) Publish(ctx context.Context, uri string, diags []lint.Diagnostic) error {
	return r.store.publish(ctx, r.runID, uri, diags)
}

func (r runSink) Clear(ctx context.Context, uri string) error {
	return r.store.Clear(ctx, uri)
}

func (r runSink) ClearAll(ctx context.Context) error {
	return r.store.ClearAll(ctx)
}
