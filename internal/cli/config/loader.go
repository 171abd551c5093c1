package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "DBALINT_"

// flagKeys maps flag names to config keys. Flags not listed here are read
// by the commands themselves.
var flagKeys = map[string]string{
	"verbose":           "verbose",
	"output":            "output",
	"log-format":        "log_format",
	"state":             "state_path",
	"expected-database": "lint.expectedDatabase",
	"fail-on":           "lint.fail_on",
	"addr":              "serve.addr",
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// canonicalKeys maps lowercased keys to the spelling used in dbalint.yaml.
var canonicalKeys = func() map[string]string {
	keys := make(map[string]string)
	for key := range defaults() {
		keys[strings.ToLower(key)] = key
	}
	return keys
}()

// canonicalKey returns the yaml spelling of key so env vars and the file
// land on the same koanf path.
func canonicalKey(key string) string {
	if c, ok := canonicalKeys[strings.ToLower(key)]; ok {
		return c
	}
	return key
}

// envKey transforms DBALINT_LINT__EXPECTEDDATABASE into lint.expectedDatabase.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return canonicalKey(strings.ReplaceAll(key, "__", "."))
}

// configExistsIn returns the config file found in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a dbalint config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// findConfigFile finds the config file to use.
// Priority: explicit path > nearest config file at or above the CWD.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", nil
	}
	return findConfigUpward(cwd), nil
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")
	configFileUsed = ""

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	path, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	projectRoot, _ := os.Getwd()
	if path != "" {
		if err := loadFile(path); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		configFileUsed = path
		if abs, err := filepath.Abs(path); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}
	if err := canonicalizeFileKeys(); err != nil {
		return nil, err
	}

	// 3. Load environment variables (DBALINT_ prefix)
	// Transform: DBALINT_LINT__FAIL_ON -> lint.fail_on
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	var flagStatePath string
	if flags != nil {
		if f := flags.Lookup("state"); f != nil && f.Changed {
			flagStatePath, _ = filepath.Abs(f.Value.String())
		}
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{DecoderConfig: decoderConfig()}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve relative paths against the project root. A --state flag is
	// already relative to the CWD.
	cfg.ProjectRoot = projectRoot
	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// decoderConfig splits comma-separated strings into lists so that
// DBALINT_LINT__DISABLED=DB05,DB06 decodes like a yaml list.
func decoderConfig() *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		WeaklyTypedInput: true,
	}
}

// loadFile loads a yaml or toml config file into k, chosen by extension.
func loadFile(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".toml") {
		return k.Load(file.Provider(path), yaml.Parser())
	}
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return err
	}
	return k.Load(confmap.Provider(raw, ""), nil)
}

// canonicalizeFileKeys rewrites keys written with different casing in the
// config file so later layers override them instead of shadowing them.
func canonicalizeFileKeys() error {
	var stray []string
	for _, key := range k.Keys() {
		if c := canonicalKey(key); c != key {
			stray = append(stray, key)
		}
	}
	if len(stray) == 0 {
		return nil
	}

	fixed := make(map[string]interface{}, len(stray))
	for _, key := range stray {
		fixed[canonicalKey(key)] = k.Get(key)
	}
	for _, key := range stray {
		k.Delete(key)
	}
	if err := k.Load(confmap.Provider(fixed, "."), nil); err != nil {
		return fmt.Errorf("failed to normalize config keys: %w", err)
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// IsNotExist reports whether err came from a missing explicit config file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
