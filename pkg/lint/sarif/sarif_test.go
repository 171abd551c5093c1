package sarif

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_JSONShape(t *testing.T) {
	rule := NewRule("DB04", "or-operator-disallowed", "OR operator is not allowed").
		WithHelp("Use IN instead.", "https://example.com/db04.md").
		WithLevel("error")
	run := NewRun("dbalint", "1.0.0", "https://example.com").
		WithRules(rule).
		WithArtifacts(NewArtifact("query.sql")).
		WithResults(NewResult("error", "OR operator is not allowed", "DB04", 0,
			NewLocation("query.sql", 0, Region{StartLine: 2, StartColumn: 7, EndLine: 2, EndColumn: 9})))

	data, err := json.Marshal(NewReport(run))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2.1.0", got["version"])
	assert.Contains(t, got["$schema"], "sarif-schema-2.1.0.json")

	runs := got["runs"].([]any)
	require.Len(t, runs, 1)
	r := runs[0].(map[string]any)
	driver := r["tool"].(map[string]any)["driver"].(map[string]any)
	assert.Equal(t, "dbalint", driver["name"])
	rules := driver["rules"].([]any)
	require.Len(t, rules, 1)
	assert.Equal(t, "https://example.com/db04.md", rules[0].(map[string]any)["helpUri"])

	results := r["results"].([]any)
	require.Len(t, results, 1)
	region := results[0].(map[string]any)["locations"].([]any)[0].(map[string]any)["physicalLocation"].(map[string]any)["region"].(map[string]any)
	assert.InDelta(t, 2, region["startLine"], 0)
	assert.InDelta(t, 9, region["endColumn"], 0)
}

func TestNewRun_EmptySlices(t *testing.T) {
	data, err := json.Marshal(NewRun("dbalint", "", ""))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results":[]`)
	assert.Contains(t, string(data), `"rules":[]`)
	assert.NotContains(t, string(data), "artifacts")
}

func TestLevel(t *testing.T) {
	tests := map[string]string{
		"error":   "error",
		"warning": "warning",
		"info":    "note",
		"hint":    "note",
	}
	for in, want := range tests {
		assert.Equal(t, want, Level(in), in)
	}
}
