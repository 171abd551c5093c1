package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbalint/internal/api"
	"github.com/leapstack-labs/dbalint/internal/state"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Memory bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lint API over HTTP",
		Long: `Start an HTTP server that validates SQL scripts on request.

Diagnostics of named documents are kept in the state database, so
'dbalint results' shows what the server last reported.

Endpoints:
  POST   /v1/validate                   validate {uri, text, config}
  GET    /v1/rules                      list rules
  GET    /v1/rules/{id}                 show a rule
  GET    /v1/documents/{uri}/diagnostics stored diagnostics (path-escaped uri)
  DELETE /v1/documents/{uri}/diagnostics clear one document
  DELETE /v1/diagnostics                clear every document
  GET    /healthz                       liveness`,
		Example: `  # Serve on the configured address (default 127.0.0.1:8710)
  dbalint serve

  # Serve on all interfaces without touching the state database
  dbalint serve --addr :8080 --memory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&opts.Memory, "memory", false, "Keep diagnostics in memory instead of the state database")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	addr := cmdCtx.Cfg.Serve.Addr
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		addr = f.Value.String()
	}

	base, err := cmdCtx.Cfg.LintConfig()
	if err != nil {
		return err
	}

	cfg := api.Config{
		Addr:     addr,
		Base:     base,
		Logger:   cmdCtx.Logger,
		NotFound: []error{state.ErrNotFound},
	}
	if !opts.Memory {
		store, cleanup, err := cmdCtx.OpenStore()
		if err != nil {
			return err
		}
		defer cleanup()
		cfg.Store = store
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx.Renderer.Muted("Listening on http://" + addr + " (Ctrl+C to stop)")
	return api.NewServer(cfg).Serve(ctx)
}
