package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// ValidOutputFormats lists the values accepted for output.
var ValidOutputFormats = []string{"auto", "text", "markdown", "json", "sarif", "table", "template"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(ValidOutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of: %s)",
			c.OutputFormat, strings.Join(ValidOutputFormats, ", "))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q (expected text or json)", c.LogFormat)
	}
	if _, ok := lint.ParseSeverity(c.Lint.FailOn); !ok && c.Lint.FailOn != "never" {
		return fmt.Errorf("invalid lint.fail_on %q", c.Lint.FailOn)
	}
	_, err := c.LintConfig()
	return err
}

// LintConfig converts the lint section to an engine configuration.
func (c *Config) LintConfig() (*lint.Config, error) {
	s := c.Lint
	cfg := lint.NewConfig()
	cfg.RequireUseStatement = s.RequireUseStatement
	cfg.RequireThreePartNaming = s.RequireThreePartNaming
	cfg.DisallowOrOperator = s.DisallowOrOperator
	cfg.DisallowOrderBy = s.DisallowOrderBy
	cfg.DisallowCountStar = s.DisallowCountStar
	cfg.ExpectedDatabase = strings.TrimSpace(s.ExpectedDatabase)

	for _, id := range s.Disabled {
		cfg.Disable(strings.TrimSpace(id))
	}
	for id, name := range s.Severity {
		sev, ok := lint.ParseSeverity(name)
		if !ok {
			return nil, fmt.Errorf("invalid severity %q for rule %s", name, id)
		}
		cfg.SetSeverity(id, sev)
	}
	return cfg, nil
}

// FailThreshold returns the lowest severity that fails a lint run. The
// second result is false when fail_on is "never".
func (c *Config) FailThreshold() (lint.Severity, bool) {
	if strings.EqualFold(c.Lint.FailOn, "never") {
		return lint.SeverityHint, false
	}
	sev, ok := lint.ParseSeverity(c.Lint.FailOn)
	if !ok {
		return lint.SeverityError, true
	}
	return sev, true
}
