package lint_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

func wordRule(id, code, word, key string) lint.RuleDef {
	return lint.RuleDef{
		ID:        id,
		Code:      code,
		Severity:  lint.SeverityError,
		ConfigKey: key,
		Check:     lint.EachLine(lint.PatternMatcher(regexp.MustCompile(`(?i)\b`+word+`\b`), word+" found")),
	}
}

func newTestRegistry(t *testing.T) *lint.Registry {
	t.Helper()
	reg := lint.NewRegistry()
	require.NoError(t, reg.Add(wordRule("T02", "beta", "beta", lint.KeyDisallowOrderBy)))
	require.NoError(t, reg.Add(wordRule("T01", "alpha", "alpha", lint.KeyDisallowOrOperator)))
	return reg
}

func TestAnalyzer_OrdersByRuleThenLineThenColumn(t *testing.T) {
	analyzer := lint.NewAnalyzerWithRegistry(newTestRegistry(t))
	doc := lint.Document{URI: "file:///a.sql", Text: "alpha beta alpha\nbeta\nalpha"}

	diags := analyzer.Validate(doc, lint.NewConfig())

	require.Len(t, diags, 5)
	got := make([][3]any, 0, len(diags))
	for _, d := range diags {
		got = append(got, [3]any{d.Code, d.Range.Start.Line, d.Range.Start.Character})
	}
	assert.Equal(t, [][3]any{
		{"beta", 0, 6},
		{"beta", 1, 0},
		{"alpha", 0, 0},
		{"alpha", 0, 11},
		{"alpha", 2, 0},
	}, got)

	for _, d := range diags {
		assert.Equal(t, lint.Source, d.Source)
		assert.Equal(t, lint.SeverityError, d.Severity)
		assert.NotEmpty(t, d.RuleID)
	}
}

func TestAnalyzer_ConfigIsEvaluatedPerPass(t *testing.T) {
	analyzer := lint.NewAnalyzerWithRegistry(newTestRegistry(t))
	doc := lint.Document{URI: "file:///a.sql", Text: "alpha beta"}
	cfg := lint.NewConfig()

	assert.Len(t, analyzer.Validate(doc, cfg), 2)

	cfg.DisallowOrOperator = false
	diags := analyzer.Validate(doc, cfg)
	require.Len(t, diags, 1)
	assert.Equal(t, "beta", diags[0].Code)

	cfg.DisallowOrOperator = true
	assert.Len(t, analyzer.Validate(doc, cfg), 2)
}

func TestAnalyzer_DisabledRulesAndSeverityOverrides(t *testing.T) {
	analyzer := lint.NewAnalyzerWithRegistry(newTestRegistry(t))
	doc := lint.Document{URI: "file:///a.sql", Text: "alpha beta"}

	cfg := lint.NewConfig().Disable("T02").SetSeverity("alpha", lint.SeverityWarning)
	diags := analyzer.Validate(doc, cfg)

	require.Len(t, diags, 1)
	assert.Equal(t, "T01", diags[0].RuleID)
	assert.Equal(t, lint.SeverityWarning, diags[0].Severity)
}

func TestAnalyzer_IgnoresCommentedText(t *testing.T) {
	analyzer := lint.NewAnalyzerWithRegistry(newTestRegistry(t))
	doc := lint.Document{
		URI:  "file:///a.sql",
		Text: "/* alpha\nbeta */ -- alpha\n-- beta\nSELECT 1 -- alpha",
	}

	assert.Empty(t, analyzer.Validate(doc, lint.NewConfig()))
}

func TestAnalyzer_Idempotent(t *testing.T) {
	analyzer := lint.NewAnalyzerWithRegistry(newTestRegistry(t))
	doc := lint.Document{URI: "file:///a.sql", Text: "alpha\r\nbeta alpha\r\n"}

	first := analyzer.Validate(doc, lint.NewConfig())
	second := analyzer.Validate(doc, lint.NewConfig())

	assert.Equal(t, first, second)
}

func TestAnalyzer_EmptyDocument(t *testing.T) {
	analyzer := lint.NewAnalyzerWithRegistry(newTestRegistry(t))

	diags := analyzer.Validate(lint.Document{URI: "file:///empty.sql"}, nil)

	assert.NotNil(t, diags)
	assert.Empty(t, diags)
}

func TestAnalyzer_ColumnsCountUTF16Units(t *testing.T) {
	analyzer := lint.NewAnalyzerWithRegistry(newTestRegistry(t))
	// "é" is one UTF-16 unit, the emoji is two.
	doc := lint.Document{URI: "file:///u.sql", Text: "SELECT 'é😀' alpha"}

	diags := analyzer.Validate(doc, lint.NewConfig())

	require.Len(t, diags, 1)
	assert.Equal(t, 13, diags[0].Range.Start.Character)
	assert.Equal(t, 18, diags[0].Range.End.Character)
}

func TestRegistry_Add(t *testing.T) {
	reg := lint.NewRegistry()
	rule := wordRule("T01", "alpha", "alpha", "")

	require.NoError(t, reg.Add(rule))
	assert.Error(t, reg.Add(rule), "duplicate ID")

	dup := wordRule("T09", "alpha", "alpha", "")
	assert.Error(t, reg.Add(dup), "duplicate code")

	assert.Error(t, reg.Add(lint.RuleDef{ID: "T03", Code: "c"}), "missing check")

	got, ok := reg.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "T01", got.ID)
	assert.Equal(t, 1, reg.Len())
}
