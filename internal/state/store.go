// Package state persists lint results in SQLite.
//
// SQLiteStore implements lint.Sink, so it can receive published diagnostics
// directly from a lint.Service. Each publish replaces everything stored for a
// document. Runs group the documents published by one CLI invocation.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// Errors returned by the store.
var (
	ErrNotOpened = errors.New("database not opened")
	ErrNotFound  = errors.New("not found")
)

// Run is one lint invocation recorded in the store.
type Run struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Files       int        `json:"files"`
	Issues      int        `json:"issues"`
}

// DocumentSummary describes the stored diagnostics of one document.
type DocumentSummary struct {
	URI       string    `json:"uri"`
	RunID     string    `json:"run_id,omitempty"`
	Issues    int       `json:"issues"`
	Errors    int       `json:"errors"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence surface used by the CLI and HTTP API.
type Store interface {
	lint.Sink

	GetDiagnostics(ctx context.Context, uri string) ([]lint.Diagnostic, error)
	ListDocuments(ctx context.Context) ([]DocumentSummary, error)

	CreateRun(ctx context.Context) (*Run, error)
	CompleteRun(ctx context.Context, id string, files, issues int) error
	GetLatestRun(ctx context.Context) (*Run, error)
	ForRun(runID string) lint.Sink

	Close() error
}
