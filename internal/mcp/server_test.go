package mcp

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbalint/internal/cli/testutil"
	"github.com/leapstack-labs/dbalint/pkg/lint"
)

func issueRuleIDs(t *testing.T, out map[string]any) []string {
	t.Helper()
	issues, ok := out["issues"].([]any)
	require.True(t, ok, "issues should be a list")

	ids := make([]string, 0, len(issues))
	for _, raw := range issues {
		ids = append(ids, raw.(map[string]any)["rule_id"].(string))
	}
	return ids
}

func TestValidateSQL(t *testing.T) {
	tests := []struct {
		name      string
		input     ValidateSQLInput
		wantIDs   []string
		wantValid bool
	}{
		{
			name:    "dirty script",
			input:   ValidateSQLInput{Text: testutil.DirtyScript},
			wantIDs: []string{"DB01", "DB03", "DB04", "DB05", "DB06"},
		},
		{
			name:      "clean script",
			input:     ValidateSQLInput{Text: testutil.CleanScript},
			wantIDs:   []string{},
			wantValid: true,
		},
		{
			name: "overrides",
			input: ValidateSQLInput{
				Text: testutil.DirtyScript,
				Config: map[string]any{
					lint.KeyRequireUseStatement:    false,
					lint.KeyRequireThreePartNaming: "false",
					"disabled":                     "DB05 DB06",
				},
			},
			wantIDs: []string{"DB04"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(nil, nil, nil)

			out, err := s.ValidateSQL(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, issueRuleIDs(t, out))
			assert.Equal(t, tt.wantValid, out["valid"])
			assert.EqualValues(t, len(tt.wantIDs), out["count"])
		})
	}
}

func TestValidateSQL_OneBasedPositions(t *testing.T) {
	s := NewServer(nil, nil, nil)

	out, err := s.ValidateSQL(context.Background(), ValidateSQLInput{
		Text:   testutil.DirtyScript,
		Config: map[string]any{"disabled": []string{"DB01", "DB03", "DB05", "DB06"}},
	})
	require.NoError(t, err)

	issues := out["issues"].([]any)
	require.Len(t, issues, 1)
	or := issues[0].(map[string]any)
	assert.EqualValues(t, 2, or["line"])
	assert.EqualValues(t, 23, or["column"])
	assert.Equal(t, "error", or["severity"])
}

func TestValidateSQL_PublishesNamedDocuments(t *testing.T) {
	sink := lint.NewMemorySink()
	s := NewServer(nil, sink, nil)

	_, err := s.ValidateSQL(context.Background(), ValidateSQLInput{Text: testutil.DirtyScript})
	require.NoError(t, err)
	assert.Empty(t, sink.Documents())

	out, err := s.ValidateSQL(context.Background(), ValidateSQLInput{URI: "orders.sql", Text: testutil.DirtyScript})
	require.NoError(t, err)
	assert.Equal(t, "orders.sql", out["uri"])

	diags, ok := sink.Get("orders.sql")
	require.True(t, ok)
	assert.Len(t, diags, 5)
}

func TestValidateSQL_InvalidConfig(t *testing.T) {
	s := NewServer(nil, nil, nil)

	_, err := s.ValidateSQL(context.Background(), ValidateSQLInput{
		Text:   "SELECT 1",
		Config: map[string]any{"maxLineLength": 80},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown lint setting "maxLineLength"`)
}

func TestValidateSQL_BaseConfig(t *testing.T) {
	base := lint.NewConfig()
	base.ExpectedDatabase = "Billing"
	s := NewServer(base, nil, nil)

	out, err := s.ValidateSQL(context.Background(), ValidateSQLInput{Text: testutil.CleanScript})
	require.NoError(t, err)
	assert.Equal(t, []string{"DB02"}, issueRuleIDs(t, out))

	// Overrides never leak into the base config.
	_, err = s.ValidateSQL(context.Background(), ValidateSQLInput{
		Text:   testutil.CleanScript,
		Config: map[string]any{lint.KeyExpectedDatabase: "Sales"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Billing", s.base.ExpectedDatabase)
}

func TestListRules(t *testing.T) {
	tests := []struct {
		group string
		want  int
	}{
		{group: "", want: 6},
		{group: "selector", want: 2},
		{group: "Naming", want: 1},
		{group: "convention", want: 3},
		{group: "unknown", want: 0},
	}

	s := NewServer(nil, nil, nil)
	for _, tt := range tests {
		t.Run("group="+tt.group, func(t *testing.T) {
			out, err := s.ListRules(context.Background(), ListRulesInput{Group: tt.group})
			require.NoError(t, err)
			assert.EqualValues(t, tt.want, out["count"])
			assert.Len(t, out["rules"], tt.want)
		})
	}
}

func TestExplainRule(t *testing.T) {
	s := NewServer(nil, nil, nil)

	out, err := s.ExplainRule(context.Background(), ExplainRuleInput{Rule: "db04"})
	require.NoError(t, err)
	assert.Equal(t, "DB04", out["id"])
	assert.NotEmpty(t, out["rationale"])
	assert.NotEmpty(t, out["docUrl"])

	_, err = s.ExplainRule(context.Background(), ExplainRuleInput{Rule: "XX01"})
	assert.ErrorContains(t, err, `unknown rule "XX01"`)
}

func TestMCPServer_CallTool(t *testing.T) {
	ctx := context.Background()
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()

	serverSession, err := NewServer(nil, nil, nil).MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer func() { _ = serverSession.Close() }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"validate_sql", "list_rules", "explain_rule"}, names)

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "validate_sql",
		Arguments: map[string]any{"text": testutil.DirtyScript},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"rule_id":"DB04"`)

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "explain_rule",
		Arguments: map[string]any{"rule": "nope"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
