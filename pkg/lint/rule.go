package lint

import "regexp"

// RuleDef is a data-driven rule definition. Rules are stateless values built
// once at registration; all context comes through the Check parameters.
type RuleDef struct {
	ID          string   // Unique identifier, e.g. "DB03"
	Name        string   // Human-readable name, e.g. "naming.three_part"
	Code        string   // Stable diagnostic code, e.g. "three-part-naming"
	Group       string   // Category, e.g. "naming", "convention"
	Description string   // Human-readable description
	Severity    Severity // Default severity
	ConfigKey   string   // Boolean option gating the rule
	Enabled     EnabledFunc
	Check       CheckFunc

	// Documentation fields
	Rationale   string
	BadExample  string
	GoodExample string
	Fix         string
}

// EnabledFunc decides, per pass, whether a rule runs under cfg.
type EnabledFunc func(cfg *Config) bool

// CheckFunc scans the comment-tracked lines of a document. Returned
// diagnostics need only Range and Message; the Analyzer fills in the rest.
type CheckFunc func(lines []Line, cfg *Config) []Diagnostic

// LineFunc matches a single line of code.
type LineFunc func(line Line, cfg *Config) []Match

// IsEnabled evaluates the rule's predicate, defaulting to its config key.
func (r RuleDef) IsEnabled(cfg *Config) bool {
	if r.Enabled != nil {
		return r.Enabled(cfg)
	}
	if r.ConfigKey != "" {
		return cfg.Flag(r.ConfigKey)
	}
	return true
}

// FlagEnabled returns an EnabledFunc reading a boolean option.
func FlagEnabled(key string) EnabledFunc {
	return func(cfg *Config) bool { return cfg.Flag(key) }
}

// EachLine lifts a LineFunc into a CheckFunc that visits every line with
// live code, in line order.
func EachLine(fn LineFunc) CheckFunc {
	return func(lines []Line, cfg *Config) []Diagnostic {
		var diags []Diagnostic
		for _, line := range lines {
			if line.IsBlank() {
				continue
			}
			for _, m := range fn(line, cfg) {
				diags = append(diags, Diagnostic{
					Range:   LineRange(line, m.Start, m.End),
					Message: m.Message,
				})
			}
		}
		return diags
	}
}

// PatternMatcher returns a LineFunc reporting every non-overlapping match of
// re in the masked code of a line.
func PatternMatcher(re *regexp.Regexp, message string) LineFunc {
	return func(line Line, _ *Config) []Match {
		locs := re.FindAllStringIndex(line.Code, -1)
		if len(locs) == 0 {
			return nil
		}
		matches := make([]Match, 0, len(locs))
		for _, loc := range locs {
			matches = append(matches, Match{Start: loc[0], End: loc[1], Message: message})
		}
		return matches
	}
}

// RuleInfo is rule metadata for documentation and tooling.
type RuleInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Group       string   `json:"group"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	ConfigKey   string   `json:"configKey,omitempty"`
	Rationale   string   `json:"rationale,omitempty"`
	BadExample  string   `json:"badExample,omitempty"`
	GoodExample string   `json:"goodExample,omitempty"`
	Fix         string   `json:"fix,omitempty"`
	DocURL      string   `json:"docUrl"`
}

// Info extracts metadata from the rule.
func (r RuleDef) Info() RuleInfo {
	return RuleInfo{
		ID:          r.ID,
		Name:        r.Name,
		Code:        r.Code,
		Group:       r.Group,
		Description: r.Description,
		Severity:    r.Severity,
		ConfigKey:   r.ConfigKey,
		Rationale:   r.Rationale,
		BadExample:  r.BadExample,
		GoodExample: r.GoodExample,
		Fix:         r.Fix,
		DocURL:      BuildDocURL(r.ID),
	}
}
