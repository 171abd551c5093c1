package commands

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbalint/internal/mcp"
	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// MCPOptions holds options for the mcp command.
type MCPOptions struct {
	Save bool
}

// NewMCPCommand creates the mcp command.
func NewMCPCommand() *cobra.Command {
	opts := &MCPOptions{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the Model Context Protocol server",
		Long: `Start an MCP server over stdin/stdout so coding agents can check the SQL
they write.

Tools:
  validate_sql   validate a script, with optional lint setting overrides
  list_rules     list rules, optionally by group
  explain_rule   rationale, examples and fix for one rule`,
		Example: `  # Register with an MCP client
  dbalint mcp

  # Keep results of named documents for 'dbalint results'
  dbalint mcp --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Save, "save", false, "Store diagnostics of named documents in the state database")

	return cmd
}

func runMCP(cmd *cobra.Command, opts *MCPOptions) error {
	cmdCtx := NewCommandContext(cmd)
	base, err := cmdCtx.Cfg.LintConfig()
	if err != nil {
		return err
	}

	var sink lint.Sink
	if opts.Save {
		store, cleanup, err := cmdCtx.OpenStore()
		if err != nil {
			return err
		}
		defer cleanup()
		sink = store
	}

	server := mcp.NewServer(base, sink, cmdCtx.Logger)
	return server.Run(cmd.Context(), &sdkmcp.StdioTransport{})
}
