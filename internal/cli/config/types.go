// Package config provides configuration management for the dbalint CLI.
//
// Settings are layered with koanf: defaults, then dbalint.yaml, then
// DBALINT_* environment variables, then explicitly set flags. The lint
// section uses the same keys as the editor settings so one file serves both.
package config

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output"`
	LogFormat    string       `koanf:"log_format"`
	StatePath    string       `koanf:"state_path"`
	Lint         LintSettings `koanf:"lint"`
	Serve        ServeConfig  `koanf:"serve"`
	Docs         DocsConfig   `koanf:"docs"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// LintSettings is the lint section of dbalint.yaml.
type LintSettings struct {
	RequireUseStatement    bool              `koanf:"requireUseStatement" yaml:"requireUseStatement" toml:"requireUseStatement"`
	RequireThreePartNaming bool              `koanf:"requireThreePartNaming" yaml:"requireThreePartNaming" toml:"requireThreePartNaming"`
	DisallowOrOperator     bool              `koanf:"disallowOrOperator" yaml:"disallowOrOperator" toml:"disallowOrOperator"`
	DisallowOrderBy        bool              `koanf:"disallowOrderBy" yaml:"disallowOrderBy" toml:"disallowOrderBy"`
	DisallowCountStar      bool              `koanf:"disallowCountStar" yaml:"disallowCountStar" toml:"disallowCountStar"`
	ExpectedDatabase       string            `koanf:"expectedDatabase" yaml:"expectedDatabase" toml:"expectedDatabase"`
	Disabled               []string          `koanf:"disabled" yaml:"disabled" toml:"disabled"`
	Severity               map[string]string `koanf:"severity" yaml:"severity" toml:"severity"`
	FailOn                 string            `koanf:"fail_on" yaml:"fail_on" toml:"fail_on"`
	Include                []string          `koanf:"include" yaml:"include" toml:"include"`
}

// ServeConfig holds configuration for the HTTP API server.
type ServeConfig struct {
	Addr string `koanf:"addr" yaml:"addr" toml:"addr"`
}

// DocsConfig holds configuration for generated rule documentation.
type DocsConfig struct {
	// BaseURL replaces the hosted location rule links point at.
	BaseURL string `koanf:"base_url" yaml:"base_url" toml:"base_url"`
	Output  string `koanf:"output" yaml:"output" toml:"output"`
}

// Default configuration values
const (
	DefaultStateFile = ".dbalint/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat = "text"
	DefaultFailOn    = "error"
	DefaultAddr      = "127.0.0.1:8710"
	DefaultInclude   = "**/*.sql"
	DefaultDocsDir   = "docs"
)

// ConfigFileNames are searched, in order, in the project root.
var ConfigFileNames = []string{"dbalint.yaml", "dbalint.yml", ".dbalint.yaml", "dbalint.toml"}

// defaults returns the flattened default values loaded before any file.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"verbose":                     false,
		"output":                      DefaultOutput,
		"log_format":                  DefaultLogFormat,
		"state_path":                  DefaultStateFile,
		"lint.requireUseStatement":    true,
		"lint.requireThreePartNaming": true,
		"lint.disallowOrOperator":     true,
		"lint.disallowOrderBy":        true,
		"lint.disallowCountStar":      true,
		"lint.expectedDatabase":       "",
		"lint.disabled":               []string{},
		"lint.severity":               map[string]string{},
		"lint.fail_on":                DefaultFailOn,
		"lint.include":                []string{DefaultInclude},
		"serve.addr":                  DefaultAddr,
		"docs.base_url":               "",
		"docs.output":                 DefaultDocsDir,
	}
}

// Default returns the configuration used when no file, env or flag is set.
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		LogFormat:    DefaultLogFormat,
		StatePath:    DefaultStateFile,
		Lint: LintSettings{
			RequireUseStatement:    true,
			RequireThreePartNaming: true,
			DisallowOrOperator:     true,
			DisallowOrderBy:        true,
			DisallowCountStar:      true,
			Disabled:               []string{},
			Severity:               map[string]string{},
			FailOn:                 DefaultFailOn,
			Include:                []string{DefaultInclude},
		},
		Serve: ServeConfig{Addr: DefaultAddr},
		Docs:  DocsConfig{Output: DefaultDocsDir},
	}
}
