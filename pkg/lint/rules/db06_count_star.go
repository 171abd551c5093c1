package rules

import (
	"regexp"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// DisallowCountStar flags COUNT(*).
var DisallowCountStar = lint.RuleDef{
	ID:          "DB06",
	Name:        "convention.no_count_star",
	Code:        "count-star-disallowed",
	Group:       "convention",
	Description: "COUNT(*) is not allowed; count a specific column.",
	Severity:    lint.SeverityError,
	ConfigKey:   lint.KeyDisallowCountStar,
	Check:       lint.EachLine(lint.PatternMatcher(countStarPattern, "COUNT(*) is not allowed. Specify a column name instead.")),
	BadExample:  "SELECT COUNT(*) FROM Sales.dbo.Orders;",
	GoodExample: "SELECT COUNT(order_id) FROM Sales.dbo.Orders;",
}

var countStarPattern = regexp.MustCompile(`(?i)\bCOUNT\s*\(\s*\*\s*\)`)
