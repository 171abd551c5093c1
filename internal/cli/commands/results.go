package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbalint/internal/cli/output"
	"github.com/leapstack-labs/dbalint/internal/state"
)

// ResultsOptions holds options for the results command.
type ResultsOptions struct {
	Format string
	Clear  bool
}

// NewResultsCommand creates the results command.
func NewResultsCommand() *cobra.Command {
	opts := &ResultsOptions{}
	cmd := &cobra.Command{
		Use:   "results [path]",
		Short: "Show diagnostics saved by lint --save",
		Long: `Show diagnostics stored in the state database.

Without arguments, lists every stored document with its issue counts and the
latest lint run. With a path, prints that document's stored diagnostics.
Use --clear to remove stored diagnostics for a path, or for every document.`,
		Example: `  # Summarize stored results
  dbalint results

  # Show stored diagnostics for one file
  dbalint results etl/load_orders.sql

  # Forget everything
  dbalint results --clear`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json, table")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "Remove stored diagnostics")

	return cmd
}

// ResultsJSONOutput is the JSON output structure for the results summary.
type ResultsJSONOutput struct {
	LatestRun *state.Run              `json:"latest_run,omitempty"`
	Documents []state.DocumentSummary `json:"documents"`
}

func runResults(cmd *cobra.Command, args []string, opts *ResultsOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.RendererFor(cmd, opts.Format)
	ctx := cmd.Context()

	store, cleanup, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if opts.Clear {
		if len(args) > 0 {
			if err := store.Clear(ctx, args[0]); err != nil {
				return err
			}
			r.Success("Cleared stored diagnostics for " + args[0])
			return nil
		}
		if err := store.ClearAll(ctx); err != nil {
			return err
		}
		r.Success("Cleared all stored diagnostics")
		return nil
	}

	if len(args) > 0 {
		diags, err := store.GetDiagnostics(ctx, args[0])
		if errors.Is(err, state.ErrNotFound) {
			return fmt.Errorf("no stored diagnostics for %s", args[0])
		}
		if err != nil {
			return err
		}
		report := output.LintReport{Analyzed: 1}
		if len(diags) > 0 {
			report.Files = []output.LintFile{{Path: args[0], Diagnostics: diags}}
		}
		return r.RenderLint(report)
	}

	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	run, err := store.GetLatestRun(ctx)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		if docs == nil {
			docs = []state.DocumentSummary{}
		}
		return r.JSON(ResultsJSONOutput{LatestRun: run, Documents: docs})
	}

	if len(docs) == 0 {
		r.Muted("No stored results. Run 'dbalint lint --save' first.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Document", "Issues", "Errors", "Updated"})
	total := 0
	for _, d := range docs {
		t.AppendRow(table.Row{d.URI, d.Issues, d.Errors, d.UpdatedAt.Local().Format(time.DateTime)})
		total += d.Issues
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d documents", len(docs)), total, "", ""})

	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}

	if run != nil {
		status := "in progress"
		if run.CompletedAt != nil {
			status = fmt.Sprintf("%d files, %d issues", run.Files, run.Issues)
		}
		r.Println("")
		r.Muted(fmt.Sprintf("Latest run %s at %s: %s", run.ID, run.StartedAt.Local().Format(time.DateTime), status))
	}
	return nil
}
