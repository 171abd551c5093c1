package rules

import (
	"regexp"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// DisallowOr flags the logical OR operator.
var DisallowOr = lint.RuleDef{
	ID:          "DB04",
	Name:        "convention.no_or",
	Code:        "or-operator-disallowed",
	Group:       "convention",
	Description: "The OR operator is not allowed.",
	Severity:    lint.SeverityError,
	ConfigKey:   lint.KeyDisallowOrOperator,
	Check:       lint.EachLine(lint.PatternMatcher(orPattern, orMessage)),
	Rationale: `OR predicates frequently defeat index seeks and produce scans on large
tables. An IN list or a UNION of separate queries usually keeps the plan sargable.`,
	BadExample:  "WHERE status = 'open' OR status = 'pending'",
	GoodExample: "WHERE status IN ('open', 'pending')",
	Fix:         "Rewrite with IN, or split into separate queries combined with UNION ALL.",
}

// Word boundaries keep ORDER, FOR and COLOR from matching.
var orPattern = regexp.MustCompile(`(?i)\bOR\b`)

const orMessage = "OR operator is not allowed. Consider using IN clause or separate queries instead."
