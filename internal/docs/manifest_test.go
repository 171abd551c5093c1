package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

func TestGenerateManifest(t *testing.T) {
	manifest := GenerateManifest(newTestGenerator(t).GenerateCatalog())

	assert.Equal(t, "sales", manifest.ProjectName)
	assert.Equal(t, fixedTime, manifest.GeneratedAt)
	assert.Equal(t, Stats{RuleCount: 6, GroupCount: 3, ErrorCount: 6}, manifest.Stats)

	require.Len(t, manifest.NavTree, 3)
	assert.Equal(t, "convention", manifest.NavTree[0].Group)
	assert.Equal(t, "naming", manifest.NavTree[1].Group)
	assert.Equal(t, "selector", manifest.NavTree[2].Group)
	assert.Equal(t, []NavItem{
		{ID: "DB01", Name: "selector.require_use", Page: "rules/db01.md"},
		{ID: "DB02", Name: "selector.expected_database", Page: "rules/db02.md"},
	}, manifest.NavTree[2].Rules)
}

func TestGenerateManifest_SortsAndCounts(t *testing.T) {
	catalog := &Catalog{Rules: []RuleDoc{
		{RuleInfo: lint.RuleInfo{ID: "Z02", Group: "b", Severity: lint.SeverityHint}},
		{RuleInfo: lint.RuleInfo{ID: "Z01", Group: "b", Severity: lint.SeverityWarning}},
		{RuleInfo: lint.RuleInfo{ID: "A01", Group: "a", Severity: lint.SeverityInfo}},
	}}

	manifest := GenerateManifest(catalog)

	assert.Equal(t, Stats{RuleCount: 3, GroupCount: 2, WarningCount: 1, InfoCount: 1, HintCount: 1}, manifest.Stats)
	require.Len(t, manifest.NavTree, 2)
	assert.Equal(t, "a", manifest.NavTree[0].Group)
	assert.Equal(t, "Z01", manifest.NavTree[1].Rules[0].ID)
	assert.Equal(t, "Z02", manifest.NavTree[1].Rules[1].ID)
}

func TestGenerateManifest_Empty(t *testing.T) {
	manifest := GenerateManifest(&Catalog{})

	assert.Empty(t, manifest.NavTree)
	assert.Equal(t, Stats{}, manifest.Stats)
}
