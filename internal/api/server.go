// Package api serves dbalint over HTTP.
//
// The API validates scripts on request and keeps the latest diagnostics of
// every named document in a store, so editors, CI jobs and dashboards can
// share one view of a workspace.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/dbalint/pkg/lint"
	_ "github.com/leapstack-labs/dbalint/pkg/lint/rules" // Register DBA rules
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 10 << 20

// Store is where validated documents publish their diagnostics.
type Store interface {
	lint.Sink
	GetDiagnostics(ctx context.Context, uri string) ([]lint.Diagnostic, error)
}

// ErrNotFound is returned by stores for unknown documents.
var ErrNotFound = errors.New("document not found")

// Config configures a Server.
type Config struct {
	Addr   string
	Store  Store        // nil keeps diagnostics in memory
	Base   *lint.Config // configuration requests layer their overrides on
	Logger *slog.Logger

	// NotFound lists store errors reported as 404 in addition to ErrNotFound.
	NotFound []error
}

// Server is the HTTP API.
type Server struct {
	addr    string
	store   Store
	service *lint.Service
	base    *lint.Config
	logger  *slog.Logger

	notFound []error
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:     cfg.Addr,
		store:    store,
		service:  lint.NewService(nil, store),
		base:     cfg.Base.Clone(),
		logger:   logger,
		notFound: append([]error{ErrNotFound}, cfg.NotFound...),
	}
}

func (s *Server) isNotFound(err error) bool {
	for _, target := range s.notFound {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Get("/rules", s.handleRules)
		r.Get("/rules/{id}", s.handleRule)
		r.Get("/documents/{id}/diagnostics", s.handleGetDiagnostics)
		r.Delete("/documents/{id}/diagnostics", s.handleClearDocument)
		r.Delete("/diagnostics", s.handleClearAll)
	})
	return r
}

// Serve listens on the configured address and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting API server", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
