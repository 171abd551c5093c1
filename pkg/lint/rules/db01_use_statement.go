package rules

import (
	"regexp"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// RequireUseStatement requires every script to open with a USE statement.
var RequireUseStatement = lint.RuleDef{
	ID:          "DB01",
	Name:        "selector.require_use",
	Code:        "missing-use-statement",
	Group:       "selector",
	Description: "Scripts must begin with a USE {DATABASE} statement.",
	Severity:    lint.SeverityError,
	ConfigKey:   lint.KeyRequireUseStatement,
	Check:       checkUseStatement,
	Rationale: `Without an explicit USE statement a script runs against whatever database
the session happens to be connected to, which makes deployments depend on client state.`,
	BadExample:  "SELECT * FROM Sales.dbo.Orders;",
	GoodExample: "USE [Sales];\nSELECT * FROM Sales.dbo.Orders;",
	Fix:         "Add USE [DatabaseName]; as the first statement of the script.",
}

var useStatementPattern = regexp.MustCompile(`(?i)^\s*USE\s+\[?(\w+)\]?\s*(;|\s|$)`)

// UseStatement is the database selector found at the head of a script.
type UseStatement struct {
	Line     lint.Line
	Database string
	Start    int // byte offset of the database name
	End      int
}

// FindUseStatement inspects the first line with live code. It returns false
// when that line is not a USE statement or when the script has no code.
func FindUseStatement(lines []lint.Line) (UseStatement, bool) {
	for _, line := range lines {
		if line.IsBlank() {
			continue
		}
		m := useStatementPattern.FindStringSubmatchIndex(line.Code)
		if m == nil {
			return UseStatement{}, false
		}
		return UseStatement{
			Line:     line,
			Database: line.Code[m[2]:m[3]],
			Start:    m[2],
			End:      m[3],
		}, true
	}
	return UseStatement{}, false
}

func checkUseStatement(lines []lint.Line, _ *lint.Config) []lint.Diagnostic {
	if _, ok := FindUseStatement(lines); ok {
		return nil
	}

	var first lint.Line
	if len(lines) > 0 {
		first = lines[0]
	}
	return []lint.Diagnostic{{
		Range:   lint.LineRange(first, 0, len(first.Text)),
		Message: "Script must begin with a USE {DATABASE} statement",
	}}
}
