package rules

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// UseStatementMismatch checks the USE target against the expected database.
var UseStatementMismatch = lint.RuleDef{
	ID:          "DB02",
	Name:        "selector.expected_database",
	Code:        "use-statement-mismatch",
	Group:       "selector",
	Description: "The USE statement must select the configured expected database.",
	Severity:    lint.SeverityError,
	ConfigKey:   lint.KeyExpectedDatabase,
	Enabled: func(cfg *lint.Config) bool {
		if cfg == nil {
			return false
		}
		return cfg.RequireUseStatement && strings.TrimSpace(cfg.ExpectedDatabase) != ""
	},
	Check: checkUseMismatch,
	Rationale: `Scripts deployed to a fixed database should not silently switch to another
one through a copy-pasted USE statement.`,
	BadExample:  "USE [Staging];  -- expectedDatabase: Sales",
	GoodExample: "USE [Sales];",
}

// A script without any USE statement is reported by DB01 only.
func checkUseMismatch(lines []lint.Line, cfg *lint.Config) []lint.Diagnostic {
	use, ok := FindUseStatement(lines)
	if !ok {
		return nil
	}
	expected := strings.TrimSpace(cfg.ExpectedDatabase)
	if sameDatabase(use.Database, expected) {
		return nil
	}
	return []lint.Diagnostic{{
		Range:   lint.LineRange(use.Line, use.Start, use.End),
		Message: fmt.Sprintf("USE statement targets database '%s' but '%s' is expected", use.Database, expected),
	}}
}

// sameDatabase compares names the way SQL Server's default collation does.
func sameDatabase(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.Trim(a, "[]")) == fold.String(strings.Trim(b, "[]"))
}
