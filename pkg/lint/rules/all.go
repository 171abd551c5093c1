// Package rules contains the built-in dbalint rules.
//
// Importing the package registers every rule with the default registry in a
// fixed order, which is also the order diagnostics are reported in.
package rules

import "github.com/leapstack-labs/dbalint/pkg/lint"

func init() {
	lint.Register(All()...)
}

// All returns the built-in rules in registration order.
func All() []lint.RuleDef {
	return []lint.RuleDef{
		RequireUseStatement,
		UseStatementMismatch,
		ThreePartNaming,
		DisallowOr,
		DisallowOrderBy,
		DisallowCountStar,
	}
}
