package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/dbalint/internal/cli/config"
	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// ValidateRequest is the body of POST /v1/validate.
type ValidateRequest struct {
	URI    string         `json:"uri"`
	Text   string         `json:"text"`
	Config map[string]any `json:"config,omitempty"`
}

// ValidateResponse is returned by POST /v1/validate.
type ValidateResponse struct {
	URI         string            `json:"uri,omitempty"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
}

// DiagnosticsResponse is returned by GET /v1/documents/{id}/diagnostics.
type DiagnosticsResponse struct {
	URI         string            `json:"uri"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
}

// RulesResponse is returned by GET /v1/rules.
type RulesResponse struct {
	Rules []lint.RuleInfo `json:"rules"`
	Count int             `json:"count"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	cfg, err := config.ApplyOverrides(s.base, req.Config)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	doc := lint.Document{URI: req.URI, Text: req.Text}
	var diags []lint.Diagnostic
	if req.URI == "" {
		diags = lint.Validate(doc, cfg)
	} else {
		diags, err = s.service.Validate(r.Context(), doc, cfg)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, ValidateResponse{URI: req.URI, Diagnostics: diags})
}

func (s *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	rules := lint.AllRules()
	writeJSON(w, http.StatusOK, RulesResponse{Rules: rules, Count: len(rules)})
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	rule, ok := lint.GetRule(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("rule %q not found", chi.URLParam(r, "id")))
		return
	}
	writeJSON(w, http.StatusOK, rule.Info())
}

func (s *Server) handleGetDiagnostics(w http.ResponseWriter, r *http.Request) {
	uri, err := documentID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	diags, err := s.store.GetDiagnostics(r.Context(), uri)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DiagnosticsResponse{URI: uri, Diagnostics: diags})
}

func (s *Server) handleClearDocument(w http.ResponseWriter, r *http.Request) {
	uri, err := documentID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.service.Clear(r.Context(), uri); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearAll(r.Context()); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// documentID decodes the path-escaped document URI.
func documentID(r *http.Request) (string, error) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		return "", fmt.Errorf("invalid document id: %w", err)
	}
	if id == "" {
		return "", errors.New("missing document id")
	}
	return id, nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if s.isNotFound(err) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
