package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// SettingsSection is the client settings section read by the server.
const SettingsSection = "sqlDbaLinter"

// Settings mirrors the lint section of dbalint.yaml. Unset fields keep the
// value of the base configuration.
type Settings struct {
	RequireUseStatement    *bool             `json:"requireUseStatement,omitempty"`
	RequireThreePartNaming *bool             `json:"requireThreePartNaming,omitempty"`
	DisallowOrOperator     *bool             `json:"disallowOrOperator,omitempty"`
	DisallowOrderBy        *bool             `json:"disallowOrderBy,omitempty"`
	DisallowCountStar      *bool             `json:"disallowCountStar,omitempty"`
	ExpectedDatabase       *string           `json:"expectedDatabase,omitempty"`
	Disabled               []string          `json:"disabled,omitempty"`
	Severity               map[string]string `json:"severity,omitempty"`
}

// ParseSettings extracts the sqlDbaLinter section from a settings payload.
// A payload without the section yields empty settings.
func ParseSettings(raw json.RawMessage) (Settings, error) {
	var settings Settings
	if len(raw) == 0 || string(raw) == "null" {
		return settings, nil
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return settings, fmt.Errorf("invalid settings: %w", err)
	}
	section, ok := sections[SettingsSection]
	if !ok || string(section) == "null" {
		return settings, nil
	}
	if err := json.Unmarshal(section, &settings); err != nil {
		return settings, fmt.Errorf("invalid %s settings: %w", SettingsSection, err)
	}
	return settings, nil
}

// Apply overlays the settings on a copy of base.
func (s Settings) Apply(base *lint.Config) (*lint.Config, error) {
	cfg := base.Clone()

	flags := map[string]*bool{
		lint.KeyRequireUseStatement:    s.RequireUseStatement,
		lint.KeyRequireThreePartNaming: s.RequireThreePartNaming,
		lint.KeyDisallowOrOperator:     s.DisallowOrOperator,
		lint.KeyDisallowOrderBy:        s.DisallowOrderBy,
		lint.KeyDisallowCountStar:      s.DisallowCountStar,
	}
	for key, v := range flags {
		if v != nil {
			cfg.SetFlag(key, *v)
		}
	}

	if s.ExpectedDatabase != nil {
		cfg.ExpectedDatabase = strings.TrimSpace(*s.ExpectedDatabase)
	}
	for _, id := range s.Disabled {
		cfg.Disable(id)
	}
	for id, name := range s.Severity {
		sev, ok := lint.ParseSeverity(name)
		if !ok {
			return nil, fmt.Errorf("unknown severity %q for %s", name, id)
		}
		cfg.SetSeverity(id, sev)
	}
	return cfg, nil
}
