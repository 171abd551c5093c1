package api

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// MemoryStore adapts lint.MemorySink to Store.
type MemoryStore struct {
	*lint.MemorySink
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{MemorySink: lint.NewMemorySink()}
}

// GetDiagnostics implements Store.
func (m *MemoryStore) GetDiagnostics(_ context.Context, uri string) ([]lint.Diagnostic, error) {
	diags, ok := m.Get(uri)
	if !ok {
		return nil, fmt.Errorf("document %s: %w", uri, ErrNotFound)
	}
	return diags, nil
}
