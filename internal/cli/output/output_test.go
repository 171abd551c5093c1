package output_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbalint/internal/cli/output"
	"github.com/leapstack-labs/dbalint/internal/cli/testutil"
	"github.com/leapstack-labs/dbalint/pkg/lint"
	_ "github.com/leapstack-labs/dbalint/pkg/lint/rules" // Register DBA rules
	"github.com/leapstack-labs/dbalint/pkg/lint/sarif"
)

func dirtyReport() output.LintReport {
	doc := lint.Document{URI: "queries/orders.sql", Text: testutil.DirtyScript}
	return output.LintReport{
		Analyzed: 2,
		Files: []output.LintFile{{
			Path:        doc.URI,
			Lines:       doc.Lines(),
			Diagnostics: lint.Validate(doc, lint.NewConfig()),
		}},
	}
}

func TestMode(t *testing.T) {
	tests := map[string]output.OutputMode{
		"":         output.ModeAuto,
		"auto":     output.ModeAuto,
		"text":     output.ModeText,
		"markdown": output.ModeMarkdown,
		"md":       output.ModeMarkdown,
		"json":     output.ModeJSON,
		"sarif":    output.ModeSARIF,
		"table":    output.ModeTable,
		"template": output.ModeTemplate,
		"yaml":     output.ModeAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, output.Mode(in), in)
	}
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  output.OutputMode
		isTTY bool
		want  output.OutputMode
	}{
		{"auto on tty", output.ModeAuto, true, output.ModeText},
		{"auto piped", output.ModeAuto, false, output.ModeMarkdown},
		{"explicit json on tty", output.ModeJSON, true, output.ModeJSON},
		{"explicit text piped", output.ModeText, false, output.ModeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testutil.NewTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, tr.EffectiveMode())
		})
	}
}

func TestRenderLint_Text(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeText, false)
	require.NoError(t, tr.RenderLint(dirtyReport()))

	out := tr.Output()
	testutil.AssertNoANSI(t, out)
	testutil.AssertContains(t, out, "queries/orders.sql")
	testutil.AssertContains(t, out, "1:22")
	testutil.AssertContains(t, out, "DB03")
	testutil.AssertContains(t, out, "Table reference 'Orders' should use three-part naming")
	testutil.AssertContains(t, out, "SELECT COUNT(*) FROM dbo.Orders")
	testutil.AssertContains(t, out, "Summary: 5 issues, 5 errors in 1 of 2 files")
}

func TestRenderLint_TextClean(t *testing.T) {
	tr := testutil.NewTestRendererText()
	require.NoError(t, tr.RenderLint(output.LintReport{Analyzed: 3}))
	testutil.AssertContains(t, tr.Output(), "No lint issues found in 3 files")
}

func TestRenderLint_Markdown(t *testing.T) {
	tr := testutil.NewTestRendererAuto()
	require.NoError(t, tr.RenderLint(dirtyReport()))

	out := tr.Output()
	testutil.AssertOutputMode(t, tr, output.ModeMarkdown)
	testutil.AssertValidMarkdown(t, out)
	testutil.AssertContains(t, out, "## queries/orders.sql")
	testutil.AssertContains(t, out, "- **error** `DB04` line 2, column 23: OR operator is not allowed.")
	testutil.AssertContains(t, out, "**Summary:** 5 issues, 5 errors in 1 of 2 files")
}

func TestRenderLint_JSON(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	require.NoError(t, tr.RenderLint(dirtyReport()))
	testutil.AssertOutputMode(t, tr, output.ModeJSON)

	var got output.LintOutput
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
	assert.Equal(t, output.LintSummary{FilesAnalyzed: 2, FilesWithIssues: 1, TotalIssues: 5, Errors: 5}, got.Summary)
	require.Len(t, got.Files, 1)
	require.Len(t, got.Files[0].Diagnostics, 5)

	first := got.Files[0].Diagnostics[0]
	assert.Equal(t, "DB01", first.RuleID)
	assert.Equal(t, "missing-use-statement", first.Code)
	assert.Equal(t, "error", first.Severity)
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, 1, first.Column)
	assert.Equal(t, 32, first.EndColumn)
	assert.Equal(t, lint.Source, first.Source)
}

func TestRenderLint_JSONEmptyFiles(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	require.NoError(t, tr.RenderLint(output.LintReport{Analyzed: 1}))
	assert.Contains(t, tr.Output(), `"files": []`)
}

func TestRenderLint_SARIF(t *testing.T) {
	tr := testutil.NewTestRendererSARIF()
	require.NoError(t, tr.RenderLint(dirtyReport()))
	testutil.AssertOutputMode(t, tr, output.ModeSARIF)

	var got sarif.Report
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
	require.Len(t, got.Runs, 1)

	run := got.Runs[0]
	assert.Equal(t, output.ToolName, run.Tool.Driver.Name)
	require.Len(t, run.Tool.Driver.Rules, 6)
	assert.Equal(t, "DB01", run.Tool.Driver.Rules[0].ID)
	require.Len(t, run.Artifacts, 1)
	require.Len(t, run.Results, 5)

	or := run.Results[2]
	assert.Equal(t, "DB04", or.RuleID)
	assert.Equal(t, 3, or.RuleIndex)
	assert.Equal(t, "error", or.Level)
	region := or.Locations[0].PhysicalLocation.Region
	assert.Equal(t, sarif.Region{StartLine: 2, StartColumn: 23, EndLine: 2, EndColumn: 25}, region)
}

func TestRenderLint_Table(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeTable, false)
	require.NoError(t, tr.RenderLint(dirtyReport()))

	out := tr.Output()
	testutil.AssertContains(t, out, "SEVERITY")
	testutil.AssertContains(t, out, "queries/orders.sql")
	testutil.AssertContains(t, out, "DB05")
	testutil.AssertContains(t, strings.ToLower(out), "5 issues, 5 errors in 1 of 2 files")
}

func TestRenderLint_Template(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
		wantErr  string
	}{
		{
			name:     "sprig functions",
			template: `{{ range .Files }}{{ .Path | upper }}{{ range .Diagnostics }} {{ .RuleID }}{{ end }}{{ end }}`,
			want:     "QUERIES/ORDERS.SQL DB01 DB03 DB04 DB05 DB06",
		},
		{
			name:     "summary",
			template: `{{ .Summary.TotalIssues }}/{{ .Summary.FilesAnalyzed | toString | quote }}`,
			want:     `5/"2"`,
		},
		{name: "missing template", wantErr: "requires --template"},
		{name: "bad template", template: "{{ .Files", wantErr: "failed to parse output template"},
		{name: "bad field", template: "{{ .Nope }}", wantErr: "failed to execute output template"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testutil.NewTestRenderer(output.ModeTemplate, false)
			tr.SetTemplate(tt.template)
			err := tr.RenderLint(dirtyReport())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(tr.Output()))
		})
	}
}

func TestLintReport_HasIssues(t *testing.T) {
	rep := dirtyReport()
	assert.True(t, rep.HasIssues(lint.SeverityError))

	for i := range rep.Files[0].Diagnostics {
		rep.Files[0].Diagnostics[i].Severity = lint.SeverityInfo
	}
	assert.False(t, rep.HasIssues(lint.SeverityWarning))
	assert.True(t, rep.HasIssues(lint.SeverityHint))
}

func TestRenderer_Messages(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	tr.Header("Rules")
	tr.Success("done")
	tr.Warning("careful")
	tr.Error("broken")

	testutil.AssertContains(t, tr.Output(), "## Rules")
	testutil.AssertContains(t, tr.Output(), "✓ done")
	testutil.AssertContains(t, tr.ErrorOutput(), "warning: careful")
	testutil.AssertContains(t, tr.ErrorOutput(), "error: broken")
	testutil.AssertNoANSI(t, tr.Output()+tr.ErrorOutput())
}
