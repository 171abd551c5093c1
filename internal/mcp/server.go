// Package mcp exposes dbalint as Model Context Protocol tools so coding
// agents can check SQL they write against the DBA conventions.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leapstack-labs/dbalint/internal/cli/config"
	"github.com/leapstack-labs/dbalint/internal/version"
	"github.com/leapstack-labs/dbalint/pkg/lint"
	_ "github.com/leapstack-labs/dbalint/pkg/lint/rules" // Register DBA rules
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "dbalint"

// ValidateSQLInput is the input of the validate_sql tool.
type ValidateSQLInput struct {
	Text   string         `json:"text" jsonschema:"SQL script to validate (required)"`
	URI    string         `json:"uri,omitempty" jsonschema:"Document URI or path, echoed back and used to store the result (optional)"`
	Config map[string]any `json:"config,omitempty" jsonschema:"Lint setting overrides keyed like the lint section of dbalint.yaml, e.g. {\"disallowOrderBy\": false, \"expectedDatabase\": \"Sales\"}"`
}

// ListRulesInput is the input of the list_rules tool.
type ListRulesInput struct {
	Group string `json:"group,omitempty" jsonschema:"Only list rules of this group: selector, naming or convention (optional)"`
}

// ExplainRuleInput is the input of the explain_rule tool.
type ExplainRuleInput struct {
	Rule string `json:"rule" jsonschema:"Rule ID or code, e.g. DB04 or or-operator-disallowed (required)"`
}

// Server holds the lint state shared by tool calls.
type Server struct {
	base    *lint.Config
	service *lint.Service
	logger  *slog.Logger
}

// NewServer creates a tool server. Tool calls layer their overrides on base.
// A nil sink discards published diagnostics.
func NewServer(base *lint.Config, sink lint.Sink, logger *slog.Logger) *Server {
	if sink == nil {
		sink = lint.NewMemorySink()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		base:    base.Clone(),
		service: lint.NewService(nil, sink),
		logger:  logger,
	}
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer() *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    ServerName,
		Version: version.Version,
	}, nil)

	// Tool: validate_sql
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "validate_sql",
		Description: "Validate a SQL Server script against the DBA conventions (USE statement, three-part naming, no OR, no ORDER BY, no COUNT(*)). Returns one diagnostic per violation with 1-based line and column.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, input ValidateSQLInput) (*sdkmcp.CallToolResult, map[string]any, error) {
		out, err := s.ValidateSQL(ctx, input)
		return nil, out, err
	})

	// Tool: list_rules
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_rules",
		Description: "List the DBA convention rules with their IDs, groups and default severities.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, input ListRulesInput) (*sdkmcp.CallToolResult, map[string]any, error) {
		out, err := s.ListRules(ctx, input)
		return nil, out, err
	})

	// Tool: explain_rule
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "explain_rule",
		Description: "Explain one rule: why it exists, a bad and a good example, and how to fix violations.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, input ExplainRuleInput) (*sdkmcp.CallToolResult, map[string]any, error) {
		out, err := s.ExplainRule(ctx, input)
		return nil, out, err
	})

	return server
}

// Run serves the tools over t until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, t sdkmcp.Transport) error {
	s.logger.Debug("starting MCP server", "version", version.Version)
	return s.MCPServer().Run(ctx, t)
}

// ValidateSQL implements the validate_sql tool.
func (s *Server) ValidateSQL(ctx context.Context, in ValidateSQLInput) (map[string]any, error) {
	cfg, err := config.ApplyOverrides(s.base, in.Config)
	if err != nil {
		return nil, err
	}

	doc := lint.Document{URI: in.URI, Text: in.Text}
	var diags []lint.Diagnostic
	if in.URI == "" {
		diags = lint.Validate(doc, cfg)
	} else if diags, err = s.service.Validate(ctx, doc, cfg); err != nil {
		return nil, fmt.Errorf("failed to store diagnostics: %w", err)
	}
	s.logger.Debug("validated script", "uri", in.URI, "issues", len(diags))

	issues := make([]issue, 0, len(diags))
	for _, d := range diags {
		issues = append(issues, newIssue(d))
	}
	return toMap(validateOutput{
		URI:    in.URI,
		Valid:  len(diags) == 0,
		Count:  len(diags),
		Issues: issues,
	})
}

// ListRules implements the list_rules tool.
func (s *Server) ListRules(_ context.Context, in ListRulesInput) (map[string]any, error) {
	group := strings.ToLower(strings.TrimSpace(in.Group))

	rules := []ruleSummary{}
	for _, info := range lint.AllRules() {
		if group != "" && info.Group != group {
			continue
		}
		rules = append(rules, ruleSummary{
			ID:          info.ID,
			Code:        info.Code,
			Group:       info.Group,
			Description: info.Description,
			Severity:    info.Severity.String(),
			ConfigKey:   info.ConfigKey,
		})
	}
	return toMap(map[string]any{"rules": rules, "count": len(rules)})
}

// ExplainRule implements the explain_rule tool.
func (s *Server) ExplainRule(_ context.Context, in ExplainRuleInput) (map[string]any, error) {
	key := strings.TrimSpace(in.Rule)
	rule, ok := lint.GetRule(key)
	if !ok {
		rule, ok = lint.GetRule(strings.ToUpper(key))
	}
	if !ok {
		return nil, fmt.Errorf("unknown rule %q", in.Rule)
	}
	return toMap(rule.Info())
}

type validateOutput struct {
	URI    string  `json:"uri,omitempty"`
	Valid  bool    `json:"valid"`
	Count  int     `json:"count"`
	Issues []issue `json:"issues"`
}

// issue is a diagnostic with 1-based positions, as agents quote them back
// to users.
type issue struct {
	RuleID    string `json:"rule_id"`
	Code      string `json:"code"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
}

func newIssue(d lint.Diagnostic) issue {
	return issue{
		RuleID:    d.RuleID,
		Code:      d.Code,
		Severity:  d.Severity.String(),
		Message:   d.Message,
		Line:      d.Range.Start.Line + 1,
		Column:    d.Range.Start.Character + 1,
		EndLine:   d.Range.End.Line + 1,
		EndColumn: d.Range.End.Character + 1,
	}
}

type ruleSummary struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Group       string `json:"group"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	ConfigKey   string `json:"config_key,omitempty"`
}

// toMap converts v into the untyped shape the SDK sends as structured content.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
