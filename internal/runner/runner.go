// Package runner validates batches of SQL scripts for the CLI.
//
// A Runner fans sources out over a bounded errgroup, publishes each result
// to its sink and returns results in input order. Watch re-runs single files
// as they change on disk.
package runner

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// Result is the outcome of validating one source.
type Result struct {
	Source      Source
	Diagnostics []lint.Diagnostic
}

// Runner validates sources concurrently.
type Runner struct {
	service *lint.Service
	config  *lint.Config
	jobs    int
	logger  *slog.Logger
}

// Options configures a Runner.
type Options struct {
	Analyzer *lint.Analyzer // nil uses the default registry
	Config   *lint.Config   // snapshot used for every pass
	Sink     lint.Sink      // nil keeps results in memory only
	Jobs     int            // worker limit; <= 0 uses GOMAXPROCS
	Logger   *slog.Logger
}

// New creates a Runner.
func New(opts Options) *Runner {
	sink := opts.Sink
	if sink == nil {
		sink = lint.NewMemorySink()
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		service: lint.NewService(opts.Analyzer, sink),
		config:  opts.Config.Clone(),
		jobs:    jobs,
		logger:  logger,
	}
}

// Run validates every source and publishes each result. Results keep the
// order of sources. The first publish error cancels the remaining work.
func (r *Runner) Run(ctx context.Context, sources []Source) ([]Result, error) {
	results := make([]Result, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			diags, err := r.Validate(gctx, src)
			results[i] = Result{Source: src, Diagnostics: diags}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Validate runs one pass over src and publishes it.
func (r *Runner) Validate(ctx context.Context, src Source) ([]lint.Diagnostic, error) {
	doc := lint.Document{URI: src.Path, Text: src.Text}
	diags, err := r.service.Validate(ctx, doc, r.config)
	if err != nil {
		return diags, err
	}
	r.logger.Debug("validated", "path", src.Path, "diagnostics", len(diags))
	return diags, nil
}

// Forget clears a source's published diagnostics.
func (r *Runner) Forget(ctx context.Context, path string) error {
	return r.service.Clear(ctx, path)
}
