package docs

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbalint/pkg/lint"
	"github.com/leapstack-labs/dbalint/pkg/lint/rules"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	registry := lint.NewRegistry()
	for _, rule := range rules.All() {
		require.NoError(t, registry.Add(rule))
	}
	g := NewGenerator("sales").WithRegistry(registry)
	g.now = func() time.Time { return fixedTime }
	return g
}

func TestPagePath(t *testing.T) {
	assert.Equal(t, "rules/db04.md", PagePath("DB04"))
	assert.Equal(t, "rules/db01.md", PagePath("db01"))
}

func TestGenerateCatalog(t *testing.T) {
	catalog := newTestGenerator(t).GenerateCatalog()

	assert.Equal(t, "sales", catalog.ProjectName)
	assert.Equal(t, fixedTime, catalog.GeneratedAt)
	require.Len(t, catalog.Rules, 6)

	ids := make([]string, 0, len(catalog.Rules))
	for _, r := range catalog.Rules {
		ids = append(ids, r.ID)
		assert.Equal(t, PagePath(r.ID), r.Page)
		assert.Equal(t, lint.BuildDocURL(r.ID), r.DocURL)
	}
	assert.Equal(t, []string{"DB01", "DB02", "DB03", "DB04", "DB05", "DB06"}, ids)

	assert.Equal(t, []GroupDoc{
		{Name: "selector", Rules: []string{"DB01", "DB02"}},
		{Name: "naming", Rules: []string{"DB03"}},
		{Name: "convention", Rules: []string{"DB04", "DB05", "DB06"}},
	}, catalog.Groups)
}

func TestGenerateCatalog_EmptyRegistry(t *testing.T) {
	g := NewGenerator("").WithRegistry(lint.NewRegistry())
	catalog := g.GenerateCatalog()

	assert.NotNil(t, catalog.Rules)
	assert.Empty(t, catalog.Rules)
	assert.NotNil(t, catalog.Groups)
}

func TestRenderRulePage(t *testing.T) {
	catalog := newTestGenerator(t).GenerateCatalog()

	var db04 RuleDoc
	for _, r := range catalog.Rules {
		if r.ID == "DB04" {
			db04 = r
		}
	}
	require.Equal(t, "DB04", db04.ID)

	page, err := RenderRulePage(db04)
	require.NoError(t, err)
	text := string(page)

	assert.Contains(t, text, "# DB04: convention.no_or")
	assert.Contains(t, text, "| Code | `or-operator-disallowed` |")
	assert.Contains(t, text, "| Group | Convention |")
	assert.Contains(t, text, "| Default severity | error |")
	assert.Contains(t, text, "| Setting | `lint.disallowOrOperator` |")
	assert.Contains(t, text, "## Rationale")
	assert.Contains(t, text, "WHERE status IN ('open', 'pending')")
	assert.Contains(t, text, "## How to fix")
	assert.Contains(t, text, "disabled: [DB04]")
}

func TestRenderRulePage_OptionalSections(t *testing.T) {
	page, err := RenderRulePage(RuleDoc{RuleInfo: lint.RuleInfo{
		ID:          "X01",
		Name:        "custom.minimal",
		Code:        "minimal",
		Group:       "custom",
		Description: "Minimal rule.",
	}})
	require.NoError(t, err)
	text := string(page)

	assert.Contains(t, text, "# X01: custom.minimal")
	assert.NotContains(t, text, "| Setting |")
	assert.NotContains(t, text, "## Rationale")
	assert.NotContains(t, text, "## Examples")
	assert.NotContains(t, text, "## How to fix")
}

func TestRenderIndex(t *testing.T) {
	index, err := RenderIndex(newTestGenerator(t).GenerateCatalog())
	require.NoError(t, err)
	text := string(index)

	assert.Contains(t, text, "# sales rules")
	assert.Contains(t, text, "6 rules in 3 groups.")
	assert.Contains(t, text, "## Selector")
	assert.Contains(t, text, "| [DB03](rules/db03.md) | naming.three_part | `three-part-naming` | error |")
	assert.Less(t, strings.Index(text, "## Selector"), strings.Index(text, "## Naming"))
	assert.Less(t, strings.Index(text, "## Naming"), strings.Index(text, "## Convention"))
}

func TestRenderIndex_DefaultProjectName(t *testing.T) {
	index, err := RenderIndex(&Catalog{})
	require.NoError(t, err)
	assert.Contains(t, string(index), "# dbalint rules")
}

func TestBuild(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")

	result, err := newTestGenerator(t).Build(out)
	require.NoError(t, err)
	assert.Equal(t, out, result.OutputDir)
	assert.Contains(t, result.Files, "rules/db01.md")
	assert.Contains(t, result.Files, "rules/db06.md")
	assert.Contains(t, result.Files, "README.md")
	assert.Contains(t, result.Files, "data/catalog.json")
	assert.Contains(t, result.Files, "data/manifest.json")

	for _, rel := range result.Files {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(rel)))
	}

	raw, err := os.ReadFile(filepath.Join(out, "data", "catalog.json"))
	require.NoError(t, err)
	var catalog map[string]any
	require.NoError(t, json.Unmarshal(raw, &catalog))
	ruleList, ok := catalog["rules"].([]any)
	require.True(t, ok)
	require.Len(t, ruleList, 6)
	first, ok := ruleList[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "DB01", first["id"])
	assert.Equal(t, "error", first["severity"])
	assert.Equal(t, "rules/db01.md", first["page"])
}

func TestBuild_Rebuild(t *testing.T) {
	out := t.TempDir()
	g := newTestGenerator(t)

	_, err := g.Build(out)
	require.NoError(t, err)
	_, err = g.Build(out)
	require.NoError(t, err)
}

func TestServe(t *testing.T) {
	out := t.TempDir()
	_, err := newTestGenerator(t).Build(out)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, out, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/rules/db05.md")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "# DB05: convention.no_order_by")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
