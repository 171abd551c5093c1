package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbalint/internal/cli/config"
	"github.com/leapstack-labs/dbalint/internal/cli/output"
	"github.com/leapstack-labs/dbalint/internal/runner"
	"github.com/leapstack-labs/dbalint/pkg/lint"
	_ "github.com/leapstack-labs/dbalint/pkg/lint/rules" // Register DBA rules
)

// ErrIssuesFound is returned when diagnostics at or above the failure
// threshold were reported. The process exits with status 1.
var ErrIssuesFound = errors.New("lint issues found")

// LintOptions holds options for the lint command.
type LintOptions struct {
	Format           string   // Output format override
	Template         string   // Go template, or @file, for template output
	Disable          []string // Rule IDs or codes to disable
	Rules            []string // Run only these rules
	Severity         string   // Lowest severity to report
	FailOn           string   // Lowest severity that fails the run
	ExpectedDatabase string   // Database the USE statement must target
	StdinName        string   // Path reported for "-"
	Jobs             int      // Concurrent validations
	Save             bool     // Persist results to the state database
	Watch            bool     // Re-lint on file changes

	NoUseStatement    bool
	NoThreePartNaming bool
	NoOrOperator      bool
	NoOrderBy         bool
	NoCountStar       bool
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Check SQL scripts against DBA conventions",
		Long: `Check SQL scripts for DBA convention violations.

Files are checked as given; directories are walked for files matching the
lint.include patterns (default **/*.sql). Use - to read a script from stdin.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON, SARIF, table and template formats for tools`,
		Example: `  # Lint every .sql file under the current directory
  dbalint lint

  # Lint specific files and directories
  dbalint lint etl/ reports/daily.sql

  # Require scripts to target the Sales database
  dbalint lint --expected-database Sales

  # SARIF for code scanning
  dbalint lint -f sarif > dbalint.sarif

  # Allow OR and ORDER BY
  dbalint lint --no-or-operator --no-order-by

  # Lint stdin
  cat query.sql | dbalint lint - --stdin-filename query.sql

  # Keep linting as files change, saving results
  dbalint lint --watch --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json, sarif, table, template")
	f.StringVar(&opts.Template, "template", "", "Go template for template output (@file reads a file)")
	f.StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs or codes to disable")
	f.StringSliceVar(&opts.Rules, "rule", nil, "Run only specific rules")
	f.StringVar(&opts.Severity, "severity", "hint", "Minimum severity to report: error, warning, info, hint")
	f.StringVar(&opts.FailOn, "fail-on", "", "Minimum severity that fails the run: error, warning, info, hint, never")
	f.StringVar(&opts.ExpectedDatabase, "expected-database", "", "Database the USE statement must target")
	f.StringVar(&opts.StdinName, "stdin-filename", "<stdin>", "Path to report for input read from stdin")
	f.IntVarP(&opts.Jobs, "jobs", "j", 0, "Number of files to check concurrently (default: number of CPUs)")
	f.BoolVar(&opts.Save, "save", false, "Save results to the state database")
	f.BoolVarP(&opts.Watch, "watch", "w", false, "Watch paths and re-lint changed files")
	f.BoolVar(&opts.NoUseStatement, "no-use-statement", false, "Do not require a leading USE statement")
	f.BoolVar(&opts.NoThreePartNaming, "no-three-part-naming", false, "Do not require three-part table names")
	f.BoolVar(&opts.NoOrOperator, "no-or-operator", false, "Allow the OR operator")
	f.BoolVar(&opts.NoOrderBy, "no-order-by", false, "Allow ORDER BY")
	f.BoolVar(&opts.NoCountStar, "no-count-star", false, "Allow COUNT(*)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.ValidOutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("rule", completeRuleIDs)
	_ = cmd.RegisterFlagCompletionFunc("disable", completeRuleIDs)

	return cmd
}

func runLint(cmd *cobra.Command, args []string, opts *LintOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger

	r, err := lintRenderer(cmd, cmdCtx, opts)
	if err != nil {
		return err
	}

	lintCfg, err := buildLintConfig(cfg, opts)
	if err != nil {
		return err
	}
	display, ok := lint.ParseSeverity(opts.Severity)
	if !ok {
		return fmt.Errorf("invalid --severity %q", opts.Severity)
	}
	failOn, fail, err := failThreshold(cfg, opts)
	if err != nil {
		return err
	}

	files, err := runner.Collect(args, cfg.Lint.Include)
	if err != nil {
		return err
	}
	sources, err := runner.ReadSources(files, cmd.InOrStdin(), opts.StdinName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var sink lint.Sink
	var finish func(files, issues int)
	if opts.Save {
		store, cleanup, err := cmdCtx.OpenStore()
		if err != nil {
			return err
		}
		defer cleanup()

		run, err := store.CreateRun(ctx)
		if err != nil {
			return err
		}
		sink = store.ForRun(run.ID)
		finish = func(files, issues int) {
			if err := store.CompleteRun(ctx, run.ID, files, issues); err != nil {
				logger.Error("failed to complete run", "run", run.ID, "error", err)
			}
		}
		logger.Debug("saving lint run", "run", run.ID, "state", store.Path())
	}

	lr := runner.New(runner.Options{
		Config: lintCfg,
		Sink:   sink,
		Jobs:   opts.Jobs,
		Logger: logger,
	})

	results, err := lr.Run(ctx, sources)
	if err != nil {
		return err
	}
	report := buildReport(results, display)
	if finish != nil {
		finish(len(results), report.Summary().TotalIssues)
	}
	if err := r.RenderLint(report); err != nil {
		return err
	}

	if opts.Watch {
		return watchLint(ctx, cmd, r, lr, args, cfg.Lint.Include, display)
	}
	if fail && report.HasIssues(failOn) {
		return ErrIssuesFound
	}
	return nil
}

func lintRenderer(cmd *cobra.Command, cmdCtx *CommandContext, opts *LintOptions) (*output.Renderer, error) {
	format := opts.Format
	if format == "" && opts.Template != "" {
		format = string(output.ModeTemplate)
	}
	r := cmdCtx.RendererFor(cmd, format)
	if opts.Template == "" {
		return r, nil
	}

	text := opts.Template
	if file, ok := strings.CutPrefix(text, "@"); ok {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}
		text = string(data)
	}
	if _, err := output.ParseTemplate(text); err != nil {
		return nil, err
	}
	r.SetTemplate(text)
	return r, nil
}

// buildLintConfig layers CLI flags over the lint section of the config.
func buildLintConfig(cfg *config.Config, opts *LintOptions) (*lint.Config, error) {
	lintCfg, err := cfg.LintConfig()
	if err != nil {
		return nil, err
	}

	toggles := map[string]bool{
		lint.KeyRequireUseStatement:    opts.NoUseStatement,
		lint.KeyRequireThreePartNaming: opts.NoThreePartNaming,
		lint.KeyDisallowOrOperator:     opts.NoOrOperator,
		lint.KeyDisallowOrderBy:        opts.NoOrderBy,
		lint.KeyDisallowCountStar:      opts.NoCountStar,
	}
	for key, off := range toggles {
		if off {
			lintCfg.SetFlag(key, false)
		}
	}

	if db := strings.TrimSpace(opts.ExpectedDatabase); db != "" {
		lintCfg.ExpectedDatabase = db
	}
	for _, id := range opts.Disable {
		lintCfg.Disable(strings.TrimSpace(id))
	}

	// If --rule specified, disable all others
	if len(opts.Rules) > 0 {
		enabled := make(map[string]bool)
		for _, id := range opts.Rules {
			rule, ok := findRule(strings.TrimSpace(id))
			if !ok {
				return nil, fmt.Errorf("rule %q not found", id)
			}
			enabled[rule.ID] = true
		}
		for _, rule := range lint.DefaultRegistry().Rules() {
			if !enabled[rule.ID] {
				lintCfg.Disable(rule.ID)
			}
		}
	}

	return lintCfg, nil
}

// failThreshold resolves --fail-on over lint.fail_on.
func failThreshold(cfg *config.Config, opts *LintOptions) (lint.Severity, bool, error) {
	if opts.FailOn == "" {
		sev, fail := cfg.FailThreshold()
		return sev, fail, nil
	}
	if strings.EqualFold(opts.FailOn, "never") {
		return lint.SeverityHint, false, nil
	}
	sev, ok := lint.ParseSeverity(opts.FailOn)
	if !ok {
		return 0, false, fmt.Errorf("invalid --fail-on %q", opts.FailOn)
	}
	return sev, true, nil
}

// buildReport keeps diagnostics at or above the display threshold.
func buildReport(results []runner.Result, display lint.Severity) output.LintReport {
	report := output.LintReport{Analyzed: len(results)}
	for _, res := range results {
		var diags []lint.Diagnostic
		for _, d := range res.Diagnostics {
			if d.Severity <= display {
				diags = append(diags, d)
			}
		}
		if len(diags) == 0 {
			continue
		}
		doc := lint.Document{URI: res.Source.Path, Text: res.Source.Text}
		report.Files = append(report.Files, output.LintFile{
			Path:        res.Source.Path,
			Lines:       doc.Lines(),
			Diagnostics: diags,
		})
	}
	return report
}

// watchLint re-lints files as they change until interrupted.
func watchLint(ctx context.Context, cmd *cobra.Command, r *output.Renderer, lr *runner.Runner, paths, include []string, display lint.Severity) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger := config.GetLogger(cmd.Context())
	r.Muted("Watching for changes. Press Ctrl+C to stop.")

	return runner.Watch(ctx, paths, include, runner.WatchHandlers{
		Changed: func(path string) {
			src, err := runner.ReadSource(path)
			if err != nil {
				logger.Error("failed to read changed file", "path", path, "error", err)
				return
			}
			diags, err := lr.Validate(ctx, src)
			if err != nil {
				logger.Error("failed to publish diagnostics", "path", path, "error", err)
			}
			report := buildReport([]runner.Result{{Source: src, Diagnostics: diags}}, display)
			if err := r.RenderLint(report); err != nil {
				logger.Error("failed to render results", "error", err)
			}
		},
		Removed: func(path string) {
			if err := lr.Forget(ctx, path); err != nil {
				logger.Error("failed to clear diagnostics", "path", path, "error", err)
			}
			r.Muted("Removed " + path)
		},
		Error: func(err error) {
			logger.Error("watcher error", "error", err)
		},
	})
}
