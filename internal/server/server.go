// Package server exposes the query engine over HTTP.
//
// Statements are posted as JSON to /api/query and answered with the same
// envelope for every endpoint. Mutating statements are serialized per
// server so two requests never rewrite the same table file at once.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zakazai/csvdb/internal/executor"
	"github.com/zakazai/csvdb/internal/storage"
	"github.com/zakazai/csvdb/internal/types"
)

// Server is the HTTP front end of a storage
type Server struct {
	router   *chi.Mux
	addr     string
	storage  storage.Storage
	executor *executor.Executor

	// SELECT holds the read lock, INSERT/UPDATE/DELETE the write lock
	mu sync.RWMutex
}

// NewServer creates a server listening on addr that runs statements
// against store.
func NewServer(addr string, store storage.Storage) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	s := &Server{
		router:   r,
		addr:     addr,
		storage:  store,
		executor: executor.New(store),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/tables", s.handleTables)
		r.Post("/query", s.handleQuery)
	})
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it fails or the process
// receives SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve runs the HTTP server until ctx is done
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		types.GlobalLogger.Info("starting server on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		types.GlobalLogger.Info("shutdown requested, draining connections")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	types.GlobalLogger.Info("server stopped")
	return nil
}
