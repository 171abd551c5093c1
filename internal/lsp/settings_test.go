package lsp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Settings
		wantErr bool
	}{
		{name: "empty payload", raw: ``},
		{name: "null payload", raw: `null`},
		{name: "other section only", raw: `{"editor": {"tabSize": 2}}`},
		{
			name: "flags and database",
			raw:  `{"sqlDbaLinter": {"disallowOrOperator": false, "expectedDatabase": " Sales "}}`,
			want: Settings{DisallowOrOperator: ptr(false), ExpectedDatabase: ptr(" Sales ")},
		},
		{name: "not an object", raw: `[1, 2]`, wantErr: true},
		{name: "bad section", raw: `{"sqlDbaLinter": {"disallowOrderBy": "yes"}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSettings(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettings_Apply(t *testing.T) {
	base := lint.NewConfig()
	base.Disable("DB05")

	settings := Settings{
		RequireUseStatement: ptr(false),
		ExpectedDatabase:    ptr(" Sales "),
		Disabled:            []string{"count-star-disallowed"},
		Severity:            map[string]string{"DB04": "warn"},
	}

	cfg, err := settings.Apply(base)
	require.NoError(t, err)

	assert.False(t, cfg.RequireUseStatement)
	assert.True(t, cfg.RequireThreePartNaming)
	assert.Equal(t, "Sales", cfg.ExpectedDatabase)
	assert.True(t, cfg.DisabledRules["DB05"])
	assert.True(t, cfg.DisabledRules["count-star-disallowed"])
	assert.Equal(t, lint.SeverityWarning, cfg.SeverityOverrides["DB04"])

	assert.True(t, base.RequireUseStatement, "base config must not change")
	assert.False(t, base.DisabledRules["count-star-disallowed"])
}

func TestSettings_ApplyRejectsUnknownSeverity(t *testing.T) {
	_, err := Settings{Severity: map[string]string{"DB01": "fatal"}}.Apply(lint.NewConfig())
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
