package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// excerptWidth bounds source excerpts and table cells in display columns.
const excerptWidth = 72

// LintFile is the lint result for one file.
type LintFile struct {
	Path        string
	Lines       []string // Source lines, used for excerpts in text output
	Diagnostics []lint.Diagnostic
}

// LintReport is the result of one lint invocation.
type LintReport struct {
	Files    []LintFile // Files with at least one reported diagnostic
	Analyzed int        // Number of files validated
}

// LintSummary holds the counts printed after a lint run.
type LintSummary struct {
	FilesAnalyzed   int `json:"files_analyzed"`
	FilesWithIssues int `json:"files_with_issues"`
	TotalIssues     int `json:"total_issues"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
	Hints           int `json:"hints"`
}

// LintOutput is the JSON document written by json output.
type LintOutput struct {
	Summary LintSummary      `json:"summary"`
	Files   []LintFileResult `json:"files"`
}

// LintFileResult is one file in LintOutput.
type LintFileResult struct {
	Path        string           `json:"path"`
	Diagnostics []LintDiagnostic `json:"diagnostics"`
}

// LintDiagnostic is one diagnostic in LintOutput. Lines and columns are
// one-based; columns count UTF-16 code units.
type LintDiagnostic struct {
	RuleID    string `json:"rule_id"`
	Code      string `json:"code"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
	Source    string `json:"source"`
}

// Summary counts the diagnostics in the report.
func (rep LintReport) Summary() LintSummary {
	s := LintSummary{FilesAnalyzed: rep.Analyzed}
	for _, f := range rep.Files {
		if len(f.Diagnostics) > 0 {
			s.FilesWithIssues++
		}
		s.TotalIssues += len(f.Diagnostics)
		for _, d := range f.Diagnostics {
			switch d.Severity {
			case lint.SeverityError:
				s.Errors++
			case lint.SeverityWarning:
				s.Warnings++
			case lint.SeverityInfo:
				s.Info++
			case lint.SeverityHint:
				s.Hints++
			}
		}
	}
	return s
}

// Output converts the report to its JSON document.
func (rep LintReport) Output() LintOutput {
	out := LintOutput{
		Summary: rep.Summary(),
		Files:   make([]LintFileResult, 0, len(rep.Files)),
	}
	for _, f := range rep.Files {
		fr := LintFileResult{Path: f.Path, Diagnostics: make([]LintDiagnostic, 0, len(f.Diagnostics))}
		for _, d := range f.Diagnostics {
			fr.Diagnostics = append(fr.Diagnostics, ToLintDiagnostic(d))
		}
		out.Files = append(out.Files, fr)
	}
	return out
}

// ToLintDiagnostic converts an engine diagnostic to its output form.
func ToLintDiagnostic(d lint.Diagnostic) LintDiagnostic {
	return LintDiagnostic{
		RuleID:    d.RuleID,
		Code:      d.Code,
		Severity:  d.Severity.String(),
		Message:   d.Message,
		Line:      d.Range.Start.Line + 1,
		Column:    d.Range.Start.Character + 1,
		EndLine:   d.Range.End.Line + 1,
		EndColumn: d.Range.End.Character + 1,
		Source:    d.Source,
	}
}

// HasIssues reports whether any diagnostic is at or above threshold.
func (rep LintReport) HasIssues(threshold lint.Severity) bool {
	for _, f := range rep.Files {
		for _, d := range f.Diagnostics {
			if d.Severity <= threshold {
				return true
			}
		}
	}
	return false
}

// RenderLint writes a lint report in the renderer's effective mode.
func (r *Renderer) RenderLint(rep LintReport) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(rep.Output())
	case ModeSARIF:
		return r.JSON(NewSARIFReport(rep, lint.AllRules()))
	case ModeTable:
		r.renderLintTable(rep)
		return nil
	case ModeTemplate:
		return r.renderTemplate(rep.Output())
	case ModeMarkdown:
		r.renderLintMarkdown(rep)
		return nil
	default:
		r.renderLintText(rep)
		return nil
	}
}

func (r *Renderer) renderLintText(rep LintReport) {
	if len(rep.Files) == 0 {
		r.Success(fmt.Sprintf("No lint issues found in %d files", rep.Analyzed))
		return
	}

	s := r.Styles()
	for _, f := range rep.Files {
		r.Println(s.Path.Render(f.Path))
		for _, d := range f.Diagnostics {
			loc := fmt.Sprintf("%d:%d", d.Range.Start.Line+1, d.Range.Start.Character+1)
			r.Printf("  %s  %s  %s  %s\n",
				s.Muted.Render(fmt.Sprintf("%-7s", loc)),
				s.Severity(d.Severity).Render(fmt.Sprintf("%-7s", d.Severity)),
				s.Bold.Render(d.RuleID),
				d.Message,
			)
			if excerpt := lineExcerpt(f.Lines, d.Range.Start.Line); excerpt != "" {
				r.Printf("           %s\n", s.Code.Render(excerpt))
			}
		}
		r.Println("")
	}
	r.Printf("Summary: %s\n", summaryLine(rep.Summary()))
}

func (r *Renderer) renderLintMarkdown(rep LintReport) {
	r.Println("# Lint Results")
	r.Println("")
	if len(rep.Files) == 0 {
		r.Printf("No lint issues found in %d files.\n", rep.Analyzed)
		return
	}

	for _, f := range rep.Files {
		r.Printf("## %s\n\n", f.Path)
		for _, d := range f.Diagnostics {
			r.Printf("- **%s** `%s` line %d, column %d: %s\n",
				d.Severity, d.RuleID, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Message)
		}
		r.Println("")
	}
	r.Printf("**Summary:** %s\n", summaryLine(rep.Summary()))
}

func (r *Renderer) renderLintTable(rep LintReport) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Line", "Col", "Severity", "Rule", "Message"})
	for _, f := range rep.Files {
		for _, d := range f.Diagnostics {
			t.AppendRow(table.Row{
				f.Path,
				d.Range.Start.Line + 1,
				d.Range.Start.Character + 1,
				d.Severity.String(),
				d.RuleID,
				runewidth.Truncate(d.Message, excerptWidth, "…"),
			})
		}
	}
	t.AppendFooter(table.Row{"", "", "", "", "", summaryLine(rep.Summary())})
	t.Render()
}

func summaryLine(s LintSummary) string {
	parts := []string{fmt.Sprintf("%d issues", s.TotalIssues)}
	if s.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", s.Errors))
	}
	if s.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", s.Warnings))
	}
	if s.Info > 0 {
		parts = append(parts, fmt.Sprintf("%d info", s.Info))
	}
	if s.Hints > 0 {
		parts = append(parts, fmt.Sprintf("%d hints", s.Hints))
	}
	return fmt.Sprintf("%s in %d of %d files", strings.Join(parts, ", "), s.FilesWithIssues, s.FilesAnalyzed)
}

// lineExcerpt returns the trimmed source line, cut to excerptWidth columns.
func lineExcerpt(lines []string, n int) string {
	if n < 0 || n >= len(lines) {
		return ""
	}
	text := strings.TrimSpace(strings.ReplaceAll(lines[n], "\t", "    "))
	return runewidth.Truncate(text, excerptWidth, "…")
}

// ErrNoTemplate is returned when template output has no template text.
var ErrNoTemplate = errors.New("template output requires --template")
