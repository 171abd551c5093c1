package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbalint/internal/cli/config"
	"github.com/leapstack-labs/dbalint/internal/cli/output"
	"github.com/leapstack-labs/dbalint/internal/cli/testutil"
	"github.com/leapstack-labs/dbalint/pkg/lint"
)

func enabledRuleIDs(cfg *lint.Config) []string {
	var ids []string
	for _, rule := range lint.DefaultRegistry().Enabled(cfg) {
		ids = append(ids, rule.ID)
	}
	return ids
}

func TestNewLintCommand(t *testing.T) {
	cmd := NewLintCommand()

	assert.Equal(t, "lint [paths...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	// Verify flags exist
	flags := []string{
		"format", "template", "disable", "severity", "rule", "fail-on", "expected-database",
		"stdin-filename", "jobs", "save", "watch",
		"no-use-statement", "no-three-part-naming", "no-or-operator", "no-order-by", "no-count-star",
	}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestBuildLintConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(*config.Config)
		opts    LintOptions
		want    []string
		wantErr string
	}{
		{
			name: "defaults",
			want: []string{"DB01", "DB03", "DB04", "DB05", "DB06"},
		},
		{
			name: "expected database enables DB02",
			opts: LintOptions{ExpectedDatabase: " Sales "},
			want: []string{"DB01", "DB02", "DB03", "DB04", "DB05", "DB06"},
		},
		{
			name: "toggle flags",
			opts: LintOptions{NoOrOperator: true, NoOrderBy: true, NoCountStar: true},
			want: []string{"DB01", "DB03"},
		},
		{
			name: "no use statement also drops DB02",
			opts: LintOptions{NoUseStatement: true, ExpectedDatabase: "Sales"},
			want: []string{"DB03", "DB04", "DB05", "DB06"},
		},
		{
			name: "disable by id and code",
			opts: LintOptions{Disable: []string{"DB01", "three-part-naming"}},
			want: []string{"DB04", "DB05", "DB06"},
		},
		{
			name: "only specific rules",
			opts: LintOptions{Rules: []string{"db04", "count-star-disallowed"}},
			want: []string{"DB04", "DB06"},
		},
		{
			name:    "unknown rule",
			opts:    LintOptions{Rules: []string{"XX01"}},
			wantErr: `rule "XX01" not found`,
		},
		{
			name: "project config disabled rules",
			cfg: func(c *config.Config) {
				c.Lint.Disabled = []string{"DB05"}
				c.Lint.DisallowCountStar = false
			},
			want: []string{"DB01", "DB03", "DB04"},
		},
		{
			name:    "project config invalid severity",
			cfg:     func(c *config.Config) { c.Lint.Severity = map[string]string{"DB04": "loud"} },
			wantErr: `invalid severity "loud"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}

			got, err := buildLintConfig(cfg, &tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, enabledRuleIDs(got))
		})
	}
}

func TestBuildLintConfig_SeverityOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Lint.Severity = map[string]string{"DB04": "warning", "DB06": "hint"}

	got, err := buildLintConfig(cfg, &LintOptions{})
	require.NoError(t, err)

	for _, rule := range lint.DefaultRegistry().Rules() {
		want := lint.SeverityError
		switch rule.ID {
		case "DB04":
			want = lint.SeverityWarning
		case "DB06":
			want = lint.SeverityHint
		}
		assert.Equal(t, want, got.GetSeverity(rule), rule.ID)
	}
}

func TestFailThreshold(t *testing.T) {
	tests := []struct {
		name     string
		cfgFail  string
		flag     string
		wantSev  lint.Severity
		wantFail bool
		wantErr  bool
	}{
		{name: "config default", cfgFail: "error", wantSev: lint.SeverityError, wantFail: true},
		{name: "config warning", cfgFail: "warning", wantSev: lint.SeverityWarning, wantFail: true},
		{name: "config never", cfgFail: "never", wantFail: false, wantSev: lint.SeverityHint},
		{name: "flag overrides config", cfgFail: "never", flag: "info", wantSev: lint.SeverityInfo, wantFail: true},
		{name: "flag never", cfgFail: "error", flag: "NEVER", wantSev: lint.SeverityHint, wantFail: false},
		{name: "invalid flag", cfgFail: "error", flag: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Lint.FailOn = tt.cfgFail

			sev, fail, err := failThreshold(cfg, &LintOptions{FailOn: tt.flag})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSev, sev)
			assert.Equal(t, tt.wantFail, fail)
		})
	}
}

func TestLintCommand_DirtyWorkspaceFails(t *testing.T) {
	inWorkspace(t, map[string]string{
		"etl/dirty.sql": testutil.DirtyScript,
		"etl/clean.sql": testutil.CleanScript,
		"notes.txt":     testutil.DirtyScript,
		".hidden/x.sql": testutil.DirtyScript,
	})

	out, err := execute(t, NewLintCommand(), "--format", "json")
	require.ErrorIs(t, err, ErrIssuesFound)

	var got output.LintOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Summary.FilesAnalyzed)
	assert.Equal(t, 1, got.Summary.FilesWithIssues)
	assert.Equal(t, 5, got.Summary.TotalIssues)
	assert.Equal(t, 5, got.Summary.Errors)

	require.Len(t, got.Files, 1)
	assert.Equal(t, filepath.Join("etl", "dirty.sql"), got.Files[0].Path)
	or := got.Files[0].Diagnostics[2]
	assert.Equal(t, "DB04", or.RuleID)
	assert.Equal(t, 2, or.Line)
	assert.Equal(t, 23, or.Column)
}

func TestLintCommand_CleanWorkspacePasses(t *testing.T) {
	inWorkspace(t, map[string]string{"clean.sql": testutil.CleanScript})

	out, err := execute(t, NewLintCommand(), "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "No lint issues found in 1 files")
}

func TestLintCommand_FailOnNever(t *testing.T) {
	inWorkspace(t, map[string]string{"dirty.sql": testutil.DirtyScript})

	out, err := execute(t, NewLintCommand(), "--format", "markdown", "--fail-on", "never")
	require.NoError(t, err)
	assert.Contains(t, out, "# Lint Results")
	assert.Contains(t, out, "`DB04` line 2, column 23")
}

func TestLintCommand_Flags(t *testing.T) {
	inWorkspace(t, map[string]string{"dirty.sql": testutil.DirtyScript})

	out, err := execute(t, NewLintCommand(), "dirty.sql", "--format", "json",
		"--no-use-statement", "--no-order-by", "--disable", "DB06")
	require.ErrorIs(t, err, ErrIssuesFound)

	var got output.LintOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Files, 1)
	var ids []string
	for _, d := range got.Files[0].Diagnostics {
		ids = append(ids, d.RuleID)
	}
	assert.Equal(t, []string{"DB03", "DB04"}, ids)
}

func TestLintCommand_Stdin(t *testing.T) {
	inWorkspace(t, nil)

	cmd := NewLintCommand()
	buf := new(strings.Builder)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(testutil.DirtyScript))
	cmd.SetArgs([]string{"-", "--stdin-filename", "query.sql", "--format", "markdown", "--rule", "DB05"})

	err := cmd.Execute()
	require.ErrorIs(t, err, ErrIssuesFound)
	assert.Contains(t, buf.String(), "## query.sql")
	assert.Contains(t, buf.String(), "`DB05`")
	assert.NotContains(t, buf.String(), "`DB04`")
}

func TestLintCommand_Template(t *testing.T) {
	inWorkspace(t, map[string]string{
		"dirty.sql":   testutil.DirtyScript,
		"report.tmpl": `{{ range .Files }}{{ .Path }}={{ len .Diagnostics }}{{ end }};{{ .Summary.TotalIssues | add 1 }}`,
	})

	out, err := execute(t, NewLintCommand(), "dirty.sql", "--template", "@report.tmpl", "--fail-on", "never")
	require.NoError(t, err)
	assert.Equal(t, "dirty.sql=5;6", out)
}

func TestLintCommand_TemplateErrors(t *testing.T) {
	inWorkspace(t, map[string]string{"dirty.sql": testutil.DirtyScript})

	_, err := execute(t, NewLintCommand(), "--template", "{{ .Broken ")
	assert.ErrorContains(t, err, "failed to parse output template")

	_, err = execute(t, NewLintCommand(), "--template", "@missing.tmpl")
	assert.ErrorContains(t, err, "failed to read template")

	_, err = execute(t, NewLintCommand(), "--format", "template")
	assert.ErrorIs(t, err, output.ErrNoTemplate)
}

func TestLintCommand_InvalidSeverity(t *testing.T) {
	inWorkspace(t, map[string]string{"dirty.sql": testutil.DirtyScript})

	_, err := execute(t, NewLintCommand(), "--severity", "loud")
	assert.ErrorContains(t, err, `invalid --severity "loud"`)
}

func TestLintCommand_MissingPath(t *testing.T) {
	inWorkspace(t, nil)

	_, err := execute(t, NewLintCommand(), "missing.sql")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLintCommand_SaveAndResults(t *testing.T) {
	dir := inWorkspace(t, map[string]string{
		"dirty.sql": testutil.DirtyScript,
		"clean.sql": testutil.CleanScript,
	})

	_, err := execute(t, NewLintCommand(), "--save", "--fail-on", "never", "--format", "json")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, config.DefaultStateFile))

	out, err := execute(t, NewResultsCommand(), "--format", "json")
	require.NoError(t, err)
	var summary ResultsJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Documents, 2)
	assert.Equal(t, "clean.sql", summary.Documents[0].URI)
	assert.Equal(t, 0, summary.Documents[0].Issues)
	assert.Equal(t, "dirty.sql", summary.Documents[1].URI)
	assert.Equal(t, 5, summary.Documents[1].Issues)
	require.NotNil(t, summary.LatestRun)
	assert.Equal(t, 2, summary.LatestRun.Files)
	assert.Equal(t, 5, summary.LatestRun.Issues)
	assert.NotNil(t, summary.LatestRun.CompletedAt)

	out, err = execute(t, NewResultsCommand(), "dirty.sql", "--format", "json")
	require.NoError(t, err)
	var stored output.LintOutput
	require.NoError(t, json.Unmarshal([]byte(out), &stored))
	assert.Equal(t, 5, stored.Summary.TotalIssues)

	out, err = execute(t, NewResultsCommand(), "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "dirty.sql")
	assert.Contains(t, out, "Latest run")

	_, err = execute(t, NewResultsCommand(), "dirty.sql", "--clear")
	require.NoError(t, err)
	_, err = execute(t, NewResultsCommand(), "dirty.sql")
	assert.ErrorContains(t, err, "no stored diagnostics for dirty.sql")

	_, err = execute(t, NewResultsCommand(), "--clear")
	require.NoError(t, err)
	out, err = execute(t, NewResultsCommand(), "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "No stored results")
}
