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

// Publish implements lint.Sink. The document's stored diagnostics are
// replaced in a single transaction.
func (s *SQLiteStore) Publish(ctx context.Context, uri string, diags []lint.Diagnostic) error {
	return s.publish(ctx, "", uri, diags)
}

func (s *SQLiteStore) publish(ctx context.Context, runID, uri string, diags []lint.Diagnostic) error {
	s.logger.Debug("publishing diagnostics",
		slog.String("uri", uri),
		slog.Int("count", len(diags)),
		slog.String("run_id", runID))

	var run sql.NullString
	if runID != "" {
		run = sql.NullString{String: runID, Valid: true}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (uri, run_id, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(uri) DO UPDATE SET run_id = excluded.run_id, updated_at = excluded.updated_at`,
			uri, run, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to upsert document: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM diagnostics WHERE uri = ?`, uri); err != nil {
			return fmt.Errorf("failed to delete diagnostics: %w", err)
		}

		for i, d := range diags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO diagnostics
				 (uri, seq, rule_id, code, severity, source, message, start_line, start_char, end_line, end_char)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uri, i, d.RuleID, d.Code, d.Severity.String(), d.Source, d.Message,
				d.Range.Start.Line, d.Range.Start.Character, d.Range.End.Line, d.Range.End.Character,
			); err != nil {
				return fmt.Errorf("failed to insert diagnostic: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", uri, err)
	}
	return nil
}

// Clear implements lint.Sink.
func (s *SQLiteStore) Clear(ctx context.Context, uri string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM diagnostics WHERE uri = ?`, uri); err != nil {
			return fmt.Errorf("failed to delete diagnostics: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE uri = ?`, uri); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		return nil
	})
}

// ClearAll implements lint.Sink.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM diagnostics`); err != nil {
			return fmt.Errorf("failed to delete diagnostics: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}
		return nil
	})
}

// GetDiagnostics returns the stored diagnostics of a document in published
// order. Unknown documents yield ErrNotFound.
func (s *SQLiteStore) GetDiagnostics(ctx context.Context, uri string) ([]lint.Diagnostic, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE uri = ?`, uri).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", uri, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, code, severity, source, message, start_line, start_char, end_line, end_char
		 FROM diagnostics WHERE uri = ? ORDER BY seq`, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	diags := []lint.Diagnostic{}
	for rows.Next() {
		var d lint.Diagnostic
		var severity string
		if err := rows.Scan(&d.RuleID, &d.Code, &severity, &d.Source, &d.Message,
			&d.Range.Start.Line, &d.Range.Start.Character, &d.Range.End.Line, &d.Range.End.Character); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		d.Severity, _ = lint.ParseSeverity(severity)
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

// ListDocuments summarizes every stored document, ordered by URI.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT d.uri, COALESCE(d.run_id, ''), d.updated_at,
		        COUNT(g.seq), COALESCE(SUM(CASE WHEN g.severity = 'error' THEN 1 ELSE 0 END), 0)
		 FROM documents d LEFT JOIN diagnostics g ON g.uri = d.uri
		 GROUP BY d.uri, d.run_id, d.updated_at
		 ORDER BY d.uri`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []DocumentSummary
	for rows.Next() {
		var doc DocumentSummary
		if err := rows.Scan(&doc.URI, &doc.RunID, &doc.UpdatedAt, &doc.Issues, &doc.Errors); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
