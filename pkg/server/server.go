// Package server exposes a single in-memory graph over HTTP.
//
// The server owns one [graph.Graph] guarded by a sync.RWMutex: reads and
// layout computations share the read lock, while CRUD requests and
// layouts with apply=true take the write lock. A B-tree [index.Index]
// follows every mutation for /search, and an optional [store.Store]
// persists snapshots on POST /save.
//
// Routes:
//
//	GET    /healthz
//	GET    /graph                    node-link JSON
//	PUT    /graph                    replace the graph wholesale
//	GET    /nodes                    all nodes (?tag= filters)
//	POST   /nodes
//	GET    /nodes/{id}
//	PUT    /nodes/{id}
//	DELETE /nodes/{id}
//	GET    /nodes/{id}/children
//	GET    /nodes/{id}/ancestors
//	POST   /edges
//	DELETE /edges/{id}
//	POST   /layout/{engine}          ?apply=true writes positions back
//	GET    /search?q=
//	POST   /save
//	GET    /metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/index"
	"github.com/matzehuels/mindlayout/pkg/metrics"
	"github.com/matzehuels/mindlayout/pkg/pipeline"
	"github.com/matzehuels/mindlayout/pkg/store"
)

const (
	// DefaultAddr is the listen address used when Config.Addr is empty.
	DefaultAddr = ":8080"

	maxBodyBytes = 16 << 20
)

// Config configures a Server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Metrics mounts the Prometheus handler on /metrics.
	Metrics bool

	// Store and GraphName enable POST /save. Both must be set.
	Store     store.Store
	GraphName string

	// Runner computes layouts. Nil means an uncached runner.
	Runner *pipeline.Runner

	Logger *log.Logger
}

// Server is the HTTP host for one graph.
type Server struct {
	mu    sync.RWMutex
	graph *graph.Graph
	index *index.Index

	cfg    Config
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server around g. g is taken over by the server and must not
// be used by the caller afterwards. A nil g starts with an empty graph.
func New(g *graph.Graph, cfg Config) *Server {
	if g == nil {
		g = graph.New()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}

	ix := index.New()
	g.SetIndexer(ix)

	s := &Server{
		graph:  g,
		index:  ix,
		cfg:    cfg,
		runner: runner,
		logger: cfg.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealthz)

	r.Get("/graph", s.handleGetGraph)
	r.Put("/graph", s.handlePutGraph)

	r.Get("/nodes", s.handleListNodes)
	r.Post("/nodes", s.handleCreateNode)
	r.Get("/nodes/{id}", s.handleGetNode)
	r.Put("/nodes/{id}", s.handleUpdateNode)
	r.Delete("/nodes/{id}", s.handleDeleteNode)
	r.Get("/nodes/{id}/children", s.handleChildren)
	r.Get("/nodes/{id}/ancestors", s.handleAncestors)

	r.Post("/edges", s.handleCreateEdge)
	r.Delete("/edges/{id}", s.handleDeleteEdge)

	r.Post("/layout/{engine}", s.handleLayout)
	r.Get("/search", s.handleSearch)
	r.Post("/save", s.handleSave)

	if s.cfg.Metrics {
		r.Handle("/metrics", metrics.Handler())
	}
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the runner and the store.
func (s *Server) Close() error {
	var errs []error
	if err := s.runner.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.cfg.Store != nil {
		if err := s.cfg.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Graph returns a snapshot of the served graph.
func (s *Server) Graph() graph.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Snapshot()
}

func limitBody(w http.ResponseWriter, r *http.Request) io.Reader {
	return http.MaxBytesReader(w, r.Body, maxBodyBytes)
}
