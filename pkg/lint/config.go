package lint

// Configuration keys, as they appear in dbalint.yaml and editor settings.
const (
	KeyRequireUseStatement    = "requireUseStatement"
	KeyRequireThreePartNaming = "requireThreePartNaming"
	KeyDisallowOrOperator     = "disallowOrOperator"
	KeyDisallowOrderBy        = "disallowOrderBy"
	KeyDisallowCountStar      = "disallowCountStar"
	KeyExpectedDatabase       = "expectedDatabase"
)

// Config is the configuration snapshot captured for one validation pass.
type Config struct {
	RequireUseStatement    bool
	RequireThreePartNaming bool
	DisallowOrOperator     bool
	DisallowOrderBy        bool
	DisallowCountStar      bool

	// ExpectedDatabase, when non-empty, is compared against the USE target.
	ExpectedDatabase string

	// DisabledRules contains rule IDs or codes to skip
	DisabledRules map[string]bool

	// SeverityOverrides changes the default severity of rules, keyed by ID or code
	SeverityOverrides map[string]Severity
}

// NewConfig creates a default configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{
		RequireUseStatement:    true,
		RequireThreePartNaming: true,
		DisallowOrOperator:     true,
		DisallowOrderBy:        true,
		DisallowCountStar:      true,
		DisabledRules:          make(map[string]bool),
		SeverityOverrides:      make(map[string]Severity),
	}
}

// Clone returns a deep copy so a pass never observes later mutation.
func (c *Config) Clone() *Config {
	if c == nil {
		return NewConfig()
	}
	out := *c
	out.DisabledRules = make(map[string]bool, len(c.DisabledRules))
	for k, v := range c.DisabledRules {
		out.DisabledRules[k] = v
	}
	out.SeverityOverrides = make(map[string]Severity, len(c.SeverityOverrides))
	for k, v := range c.SeverityOverrides {
		out.SeverityOverrides[k] = v
	}
	return &out
}

// IsDisabled returns true if the rule should be skipped.
func (c *Config) IsDisabled(rule RuleDef) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[rule.ID] || c.DisabledRules[rule.Code]
}

// GetSeverity returns the severity for a rule, applying any override.
func (c *Config) GetSeverity(rule RuleDef) Severity {
	if c != nil {
		if sev, ok := c.SeverityOverrides[rule.ID]; ok {
			return sev
		}
		if sev, ok := c.SeverityOverrides[rule.Code]; ok {
			return sev
		}
	}
	return rule.Severity
}

// Disable disables a rule by ID or code.
func (c *Config) Disable(ruleID string) *Config {
	if c.DisabledRules == nil {
		c.DisabledRules = make(map[string]bool)
	}
	c.DisabledRules[ruleID] = true
	return c
}

// SetSeverity overrides the severity for a rule.
func (c *Config) SetSeverity(ruleID string, severity Severity) *Config {
	if c.SeverityOverrides == nil {
		c.SeverityOverrides = make(map[string]Severity)
	}
	c.SeverityOverrides[ruleID] = severity
	return c
}

// Flag returns the boolean option stored under key. Unknown keys report true.
func (c *Config) Flag(key string) bool {
	if c == nil {
		return true
	}
	switch key {
	case KeyRequireUseStatement:
		return c.RequireUseStatement
	case KeyRequireThreePartNaming:
		return c.RequireThreePartNaming
	case KeyDisallowOrOperator:
		return c.DisallowOrOperator
	case KeyDisallowOrderBy:
		return c.DisallowOrderBy
	case KeyDisallowCountStar:
		return c.DisallowCountStar
	default:
		return true
	}
}

// SetFlag sets the boolean option stored under key and reports whether the
// key is known.
func (c *Config) SetFlag(key string, value bool) bool {
	switch key {
	case KeyRequireUseStatement:
		c.RequireUseStatement = value
	case KeyRequireThreePartNaming:
		c.RequireThreePartNaming = value
	case KeyDisallowOrOperator:
		c.DisallowOrOperator = value
	case KeyDisallowOrderBy:
		c.DisallowOrderBy = value
	case KeyDisallowCountStar:
		c.DisallowCountStar = value
	default:
		return false
	}
	return true
}

// FlagKeys lists the boolean option keys in rule order.
func FlagKeys() []string {
	return []string{
		KeyRequireUseStatement,
		KeyRequireThreePartNaming,
		KeyDisallowOrOperator,
		KeyDisallowOrderBy,
		KeyDisallowCountStar,
	}
}
