package commands

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbalint/internal/docs"
	_ "github.com/leapstack-labs/dbalint/pkg/lint/rules" // Register DBA rules
)

// DocsOptions holds options for the docs commands.
type DocsOptions struct {
	Out  string
	Addr string
}

// NewDocsCommand creates the docs command with build and serve subcommands.
func NewDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate rule documentation",
		Long: `Generate the markdown documentation for every lint rule.

The output directory holds README.md, one page per rule under rules/ and the
rule catalog under data/. Rule links in diagnostics point at rules/<id>.md,
so set docs.base_url in dbalint.yaml to wherever the directory is hosted.`,
	}

	cmd.AddCommand(newDocsBuildCommand())
	cmd.AddCommand(newDocsServeCommand())
	return cmd
}

func newDocsBuildCommand() *cobra.Command {
	opts := &DocsOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write rule documentation to a directory",
		Example: `  # Write to the configured directory (default ./docs)
  dbalint docs build

  # Write somewhere else
  dbalint docs build --out site`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			result, err := buildDocs(cmdCtx, opts)
			if err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Wrote %d files to %s", len(result.Files), result.OutputDir))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output directory (default from config)")
	return cmd
}

func newDocsServeCommand() *cobra.Command {
	opts := &DocsOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build and serve rule documentation locally",
		Example: `  dbalint docs serve --addr 127.0.0.1:8711`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			result, err := buildDocs(cmdCtx, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var lc net.ListenConfig
			ln, err := lc.Listen(ctx, "tcp", opts.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", opts.Addr, err)
			}
			cmdCtx.Renderer.Muted("Serving docs at http://" + ln.Addr().String() + " (Ctrl+C to stop)")
			return docs.Serve(ctx, result.OutputDir, ln)
		},
	}
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output directory (default from config)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:8711", "Listen address")
	return cmd
}

func buildDocs(cmdCtx *CommandContext, opts *DocsOptions) (*docs.BuildResult, error) {
	out := opts.Out
	if out == "" {
		out = cmdCtx.Cfg.Docs.Output
		if !filepath.IsAbs(out) && cmdCtx.Cfg.ProjectRoot != "" {
			out = filepath.Join(cmdCtx.Cfg.ProjectRoot, out)
		}
	}

	cmdCtx.Logger.Debug("building docs", "output", out)
	return docs.NewGenerator(filepath.Base(cmdCtx.Cfg.ProjectRoot)).Build(out)
}
