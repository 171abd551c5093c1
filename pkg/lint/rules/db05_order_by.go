package rules

import (
	"regexp"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// DisallowOrderBy flags ORDER BY clauses.
var DisallowOrderBy = lint.RuleDef{
	ID:          "DB05",
	Name:        "convention.no_order_by",
	Code:        "order-by-disallowed",
	Group:       "convention",
	Description: "ORDER BY clauses are not allowed.",
	Severity:    lint.SeverityError,
	ConfigKey:   lint.KeyDisallowOrderBy,
	Check:       lint.EachLine(lint.PatternMatcher(orderByPattern, "ORDER BY clause is not allowed")),
	Rationale: `Sorting on the server is expensive and rarely needed by the consumer of a
batch script. Leave ordering to the presentation layer.`,
	BadExample:  "SELECT id FROM Sales.dbo.Orders ORDER BY created_at;",
	GoodExample: "SELECT id FROM Sales.dbo.Orders;",
}

var orderByPattern = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
