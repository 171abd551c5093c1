package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// ApplyOverrides layers loosely typed lint settings, as sent by API and MCP
// clients, over base. Keys match the lint section of dbalint.yaml. Values are
// coerced leniently, so "false" and 0 both turn a rule off. base is not
// modified.
func ApplyOverrides(base *lint.Config, overrides map[string]any) (*lint.Config, error) {
	cfg := base.Clone()
	for key, value := range overrides {
		switch {
		case cfg.SetFlag(key, true):
			on, err := cast.ToBoolE(value)
			if err != nil {
				return nil, fmt.Errorf("invalid value for %s: %w", key, err)
			}
			cfg.SetFlag(key, on)
		case key == lint.KeyExpectedDatabase:
			name, err := cast.ToStringE(value)
			if err != nil {
				return nil, fmt.Errorf("invalid value for %s: %w", key, err)
			}
			cfg.ExpectedDatabase = strings.TrimSpace(name)
		case key == "disabled":
			ids, err := cast.ToStringSliceE(value)
			if err != nil {
				return nil, fmt.Errorf("invalid value for %s: %w", key, err)
			}
			for _, id := range ids {
				cfg.Disable(strings.TrimSpace(id))
			}
		case key == "severity":
			levels, err := cast.ToStringMapStringE(value)
			if err != nil {
				return nil, fmt.Errorf("invalid value for %s: %w", key, err)
			}
			for id, name := range levels {
				sev, ok := lint.ParseSeverity(name)
				if !ok {
					return nil, fmt.Errorf("invalid severity %q for rule %s", name, id)
				}
				cfg.SetSeverity(id, sev)
			}
		default:
			return nil, fmt.Errorf("unknown lint setting %q", key)
		}
	}
	return cfg, nil
}
