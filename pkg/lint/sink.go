package lint

import (
	"context"
	"sort"
	"sync"
)

// Sink stores or publishes diagnostics keyed by document identity.
// Publish replaces the full list for a document.
type Sink interface {
	Publish(ctx context.Context, uri string, diags []Diagnostic) error
	Clear(ctx context.Context, uri string) error
	ClearAll(ctx context.Context) error
}

// MemorySink keeps diagnostics in memory.
type MemorySink struct {
	mu    sync.RWMutex
	diags map[string][]Diagnostic
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{diags: make(map[string][]Diagnostic)}
}

// Publish implements Sink.
func (s *MemorySink) Publish(_ context.Context, uri string, diags []Diagnostic) error {
	cp := make([]Diagnostic, len(diags))
	copy(cp, diags)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags[uri] = cp
	return nil
}

// Clear implements Sink.
func (s *MemorySink) Clear(_ context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.diags, uri)
	return nil
}

// ClearAll implements Sink.
func (s *MemorySink) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = make(map[string][]Diagnostic)
	return nil
}

// Get returns the diagnostics published for uri and whether any were published.
func (s *MemorySink) Get(uri string) ([]Diagnostic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.diags[uri]
	if !ok {
		return nil, false
	}
	out := make([]Diagnostic, len(d))
	copy(out, d)
	return out, true
}

// Documents returns the tracked URIs in sorted order.
func (s *MemorySink) Documents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.diags))
	for uri := range s.diags {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Service couples an Analyzer with a Sink. Validate publishes each pass as a
// full replacement of the document's diagnostics.
type Service struct {
	analyzer *Analyzer
	sink     Sink
}

// NewService creates a service. A nil analyzer uses the default registry.
func NewService(analyzer *Analyzer, sink Sink) *Service {
	if analyzer == nil {
		analyzer = NewAnalyzer()
	}
	return &Service{analyzer: analyzer, sink: sink}
}

// Validate runs a pass and publishes the result.
func (s *Service) Validate(ctx context.Context, doc Document, cfg *Config) ([]Diagnostic, error) {
	diags := s.analyzer.Validate(doc, cfg)
	if err := s.sink.Publish(ctx, doc.URI, diags); err != nil {
		return diags, err
	}
	return diags, nil
}

// Clear removes a document's diagnostics from the sink.
func (s *Service) Clear(ctx context.Context, uri string) error {
	return s.sink.Clear(ctx, uri)
}

// ClearAll removes every document's diagnostics from the sink.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.sink.ClearAll(ctx)
}

// MultiSink fans out to several sinks, stopping at the first error.
type MultiSink []Sink

// Publish implements Sink.
func (m MultiSink) Publish(ctx context.Context, uri string, diags []Diagnostic) error {
	for _, s := range m {
		if err := s.Publish(ctx, uri, diags); err != nil {
			return err
		}
	}
	return nil
}

// Clear implements Sink.
func (m MultiSink) Clear(ctx context.Context, uri string) error {
	for _, s := range m {
		if err := s.Clear(ctx, uri); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll implements Sink.
func (m MultiSink) ClearAll(ctx context.Context) error {
	for _, s := range m {
		if err := s.ClearAll(ctx); err != nil {
			return err
		}
	}
	return nil
}
