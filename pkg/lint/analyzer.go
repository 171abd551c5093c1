package lint

import "sort"

// Analyzer runs registry rules over documents.
type Analyzer struct {
	registry *Registry
}

// NewAnalyzer creates an analyzer over the default registry.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithRegistry(nil)
}

// NewAnalyzerWithRegistry creates an analyzer over a specific registry.
func NewAnalyzerWithRegistry(registry *Registry) *Analyzer {
	if registry == nil {
		registry = defaultRegistry
	}
	return &Analyzer{registry: registry}
}

// Validate performs one validation pass. The result is ordered by rule
// registration order, then line, then column. Validate never fails and
// returns an empty, non-nil slice when the document is clean.
func (a *Analyzer) Validate(doc Document, cfg *Config) []Diagnostic {
	if cfg == nil {
		cfg = NewConfig()
	}
	lines := ScanDocument(doc.Lines())

	diagnostics := []Diagnostic{}
	for _, rule := range a.registry.Enabled(cfg) {
		diags := rule.Check(lines, cfg)
		sortByPosition(diags)

		severity := cfg.GetSeverity(rule)
		for i := range diags {
			diags[i].Severity = severity
			diags[i].Code = rule.Code
			diags[i].RuleID = rule.ID
			diags[i].Source = Source
		}
		diagnostics = append(diagnostics, diags...)
	}
	return diagnostics
}

func sortByPosition(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Range.Start, diags[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Character < b.Character
	})
}

// Validate runs a pass with the default analyzer.
func Validate(doc Document, cfg *Config) []Diagnostic {
	return NewAnalyzer().Validate(doc, cfg)
}
