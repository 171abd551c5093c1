package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/dbalint/internal/cli/config"
	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Force       bool
	Format      string // yaml or toml
	Interactive bool
}

// initFile is the layout of a generated config file.
type initFile struct {
	Output    string              `yaml:"output" toml:"output"`
	StatePath string              `yaml:"state_path" toml:"state_path"`
	Lint      config.LintSettings `yaml:"lint" toml:"lint"`
	Serve     config.ServeConfig  `yaml:"serve" toml:"serve"`
}

// prompter asks the questions of an interactive init.
type prompter interface {
	Confirm(label string, def bool) (bool, error)
	Input(label, def string) (string, error)
	Select(label string, items []string) (int, error)
}

// newPrompter is replaced in tests.
var newPrompter = func(cmd *cobra.Command) prompter {
	return promptuiPrompter{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a dbalint configuration file",
		Long: `Create a dbalint configuration file with the default settings.

The file enables every rule. Use --interactive to choose which conventions
to enforce and the database scripts must target. Use --format toml to write
dbalint.toml instead of dbalint.yaml.`,
		Example: `  # Write dbalint.yaml in the current directory
  dbalint init

  # Answer a few questions first
  dbalint init --interactive

  # Write dbalint.toml in another directory
  dbalint init sql/ --format toml

  # Overwrite an existing file
  dbalint init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&opts.Format, "format", "yaml", "Config file format: yaml, toml")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Prompt for settings")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, opts *InitOptions) error {
	r := NewCommandContext(cmd).Renderer

	name := "dbalint.yaml"
	switch strings.ToLower(opts.Format) {
	case "yaml", "yml":
	case "toml":
		name = "dbalint.toml"
	default:
		return fmt.Errorf("unsupported config format %q (expected yaml or toml)", opts.Format)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", path)
	}

	def := config.Default()
	file := initFile{
		Output:    def.OutputFormat,
		StatePath: def.StatePath,
		Lint:      def.Lint,
		Serve:     def.Serve,
	}
	if opts.Interactive {
		if err := askLintSettings(newPrompter(cmd), &file.Lint); err != nil {
			return err
		}
	}

	data, err := encodeInitFile(file, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	r.Success("Created " + path)
	r.Muted("Run 'dbalint lint' to check your scripts.")
	return nil
}

func encodeInitFile(file initFile, name string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# dbalint configuration. See 'dbalint rules' for what each option enforces.\n")
	if strings.HasSuffix(name, ".toml") {
		if err := toml.NewEncoder(&buf).Encode(file); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return buf.Bytes(), nil
	}
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// askLintSettings fills the lint section from prompts, one per rule option.
func askLintSettings(p prompter, s *config.LintSettings) error {
	toggles := []struct {
		label string
		value *bool
	}{
		{"Require a USE statement at the top of every script", &s.RequireUseStatement},
		{"Require three-part table names (database.schema.table)", &s.RequireThreePartNaming},
		{"Disallow the OR operator", &s.DisallowOrOperator},
		{"Disallow ORDER BY", &s.DisallowOrderBy},
		{"Disallow COUNT(*)", &s.DisallowCountStar},
	}
	for _, t := range toggles {
		on, err := p.Confirm(t.label, *t.value)
		if err != nil {
			return err
		}
		*t.value = on
	}

	if s.RequireUseStatement {
		db, err := p.Input("Database scripts must USE (empty for any)", s.ExpectedDatabase)
		if err != nil {
			return err
		}
		s.ExpectedDatabase = strings.TrimSpace(db)
	}

	levels := []string{
		lint.SeverityError.String(),
		lint.SeverityWarning.String(),
		lint.SeverityInfo.String(),
		lint.SeverityHint.String(),
		"never",
	}
	i, err := p.Select("Fail lint runs on", levels)
	if err != nil {
		return err
	}
	s.FailOn = levels[i]
	return nil
}

// promptuiPrompter prompts on the command's streams.
type promptuiPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p promptuiPrompter) Confirm(label string, def bool) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     io.NopCloser(p.in),
		Stdout:    nopWriteCloser{p.out},
	}
	if def {
		prompt.Default = "y"
	}
	result, err := prompt.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if result == "" {
		return def, nil
	}
	return strings.EqualFold(result, "y"), nil
}

func (p promptuiPrompter) Input(label, def string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
		Stdin:   io.NopCloser(p.in),
		Stdout:  nopWriteCloser{p.out},
	}
	return prompt.Run()
}

func (p promptuiPrompter) Select(label string, items []string) (int, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . }}",
		Selected: "✓ {{ . | green }}",
	}
	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Stdin:     io.NopCloser(p.in),
		Stdout:    nopWriteCloser{p.out},
	}
	i, _, err := prompt.Run()
	return i, err
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
