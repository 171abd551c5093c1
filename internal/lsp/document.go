package lsp

import (
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// LanguageSQL is the languageId clients send for SQL documents.
const LanguageSQL = "sql"

// Document represents an open text document in the editor.
type Document struct {
	URI        string // Document URI (file:///path/to/file.sql)
	LanguageID string
	Content    string // Full document content
	Version    int    // Version number, incremented on each change
}

// IsSQL reports whether the document should be linted.
func (d *Document) IsSQL() bool {
	if d == nil {
		return false
	}
	if strings.EqualFold(d.LanguageID, LanguageSQL) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(URIToPath(d.URI)), ".sql")
}

// LintDocument converts the editor document into engine input.
func (d *Document) LintDocument() lint.Document {
	return lint.Document{URI: d.URI, Text: d.Content}
}

// DocumentStore manages open documents in memory.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*Document
}

// NewDocumentStore creates a new document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*Document),
	}
}

// Open adds or replaces a document in the store.
func (s *DocumentStore) Open(uri, languageID, content string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[uri] = &Document{
		URI:        uri,
		LanguageID: languageID,
		Content:    content,
		Version:    version,
	}
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, uri)
}

// Get returns a snapshot of a document, or nil if it is not open.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[uri]
	if !ok {
		return nil
	}
	cp := *doc
	return &cp
}

// Update modifies an existing document's content. Unknown URIs are ignored.
func (s *DocumentStore) Update(uri string, content string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.documents[uri]; ok {
		doc.Content = content
		doc.Version = version
	}
}

// List returns all open document URIs in sorted order.
func (s *DocumentStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uris := make([]string, 0, len(s.documents))
	for uri := range s.documents {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// URIToPath converts a file:// URI to a file system path.
func URIToPath(uri string) string {
	const prefix = "file://"
	if strings.HasPrefix(uri, prefix) {
		return uri[len(prefix):]
	}
	return uri
}

// PathToURI converts a file system path to a file:// URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}
