// Package lint provides line-oriented SQL convention checking.
//
// # Architecture
//
// The package is split into a small set of layers:
//
//  1. Types (Document, Line, Diagnostic, Severity): the data passed between layers
//  2. Comment tracking (ScanComments): marks which bytes of a script are SQL code
//  3. Rules (RuleDef, Registry): ordered rule definitions with enablement and checks
//  4. Analysis (Analyzer, Validate): runs every enabled rule over a document
//  5. Publication (Sink, Service): stores the latest diagnostics per document URI
//
// # Rule Registration
//
// Rules register themselves into the default registry when their package is
// imported:
//
//	import _ "github.com/leapstack-labs/dbalint/pkg/lint/rules"
//
// Registration order is significant: diagnostics are emitted rule by rule in
// the order rules were registered, and line by line within a rule.
//
// # Configuration
//
// Config carries the boolean rule flags, the expected database name,
// per-rule severity overrides and the set of disabled rules. A nil Config is
// treated as NewConfig().
//
// # Usage
//
//	doc := lint.Document{URI: "file:///report.sql", Text: script}
//	diags := lint.Validate(doc, lint.NewConfig())
//	for _, d := range diags {
//	    fmt.Printf("%d:%d %s %s\n", d.Range.Start.Line+1, d.Range.Start.Character+1, d.Code, d.Message)
//	}
package lint
