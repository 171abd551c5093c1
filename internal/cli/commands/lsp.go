package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbalint/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. The lint section
of dbalint.yaml is the base configuration; settings sent by the client under
sqlDbaLinter are layered on top of it.`,
		Example: `  # Start LSP server (usually called by an editor)
  dbalint lsp`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd)
		},
	}

	return cmd
}

func runLSP(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	base, err := cmdCtx.Cfg.LintConfig()
	if err != nil {
		return err
	}

	server := lsp.NewServerWithLogger(cmd.InOrStdin(), cmd.OutOrStdout(), cmdCtx.Logger)
	server.SetConfig(base)
	return server.Run()
}
