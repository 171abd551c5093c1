package output

import (
	"github.com/leapstack-labs/dbalint/internal/version"
	"github.com/leapstack-labs/dbalint/pkg/lint"
	"github.com/leapstack-labs/dbalint/pkg/lint/sarif"
)

// ToolName is the driver name written to SARIF reports.
const ToolName = "dbalint"

// NewSARIFReport converts a lint report into SARIF 2.1.0. Every known rule is
// listed so result rule indexes stay stable across runs.
func NewSARIFReport(rep LintReport, rules []lint.RuleInfo) sarif.Report {
	run := sarif.NewRun(ToolName, version.Version, lint.DefaultDocsBaseURL)

	index := make(map[string]int, len(rules))
	for i, ri := range rules {
		index[ri.ID] = i
		run = run.WithRules(sarif.NewRule(ri.ID, ri.Code, ri.Description).
			WithHelp(ri.Rationale, ri.DocURL).
			WithLevel(sarif.Level(ri.Severity.String())))
	}

	for i, f := range rep.Files {
		run = run.WithArtifacts(sarif.NewArtifact(f.Path))
		for _, d := range f.Diagnostics {
			ruleIndex, ok := index[d.RuleID]
			if !ok {
				ruleIndex = -1
			}
			region := sarif.Region{
				StartLine:   d.Range.Start.Line + 1,
				StartColumn: d.Range.Start.Character + 1,
				EndLine:     d.Range.End.Line + 1,
				EndColumn:   d.Range.End.Character + 1,
			}
			run = run.WithResults(sarif.NewResult(
				sarif.Level(d.Severity.String()),
				d.Message,
				d.RuleID,
				ruleIndex,
				sarif.NewLocation(f.Path, i, region),
			))
		}
	}
	return sarif.NewReport(run)
}
