// Package store persists named graphs.
//
// A [Store] saves and loads [graph.Snapshot] values, the plain-data form of a
// graph, so backends never touch graph internals. Three backends ship:
//
//   - [FileStore]: one node-link JSON file per graph in a directory
//   - [BadgerStore]: embedded key-value database (on disk or in memory)
//   - [MongoStore]: one MongoDB document per graph
//
// [SaveGraph] and [LoadGraph] convert between graphs and snapshots and report
// timings to the observability store hooks.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	errs "github.com/matzehuels/mindlayout/pkg/errors"
	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/observability"
)

// ErrNotFound is returned when no graph is stored under a name.
var ErrNotFound = errors.New("graph not found")

// Store is the interface for graph persistence backends.
type Store interface {
	// Backend names the implementation ("file", "badger", "mongo").
	Backend() string

	// Save stores s under name, replacing any previous value.
	Save(ctx context.Context, name string, s graph.Snapshot) error

	// Load returns the snapshot stored under name or ErrNotFound.
	Load(ctx context.Context, name string) (graph.Snapshot, error)

	// Delete removes name. Deleting a missing name returns ErrNotFound.
	Delete(ctx context.Context, name string) error

	// List returns all stored names in sorted order.
	List(ctx context.Context) ([]string, error)

	Close() error
}

// ValidateName checks a graph name before it becomes a key or file name.
func ValidateName(name string) error {
	if err := errs.ValidateID(name); err != nil {
		return fmt.Errorf("invalid graph name: %w", err)
	}
	if strings.HasPrefix(name, ".") || strings.ContainsRune(name, '\\') {
		return errs.New(errs.ErrCodeInvalidInput, "invalid graph name %q", name)
	}
	return nil
}

// SaveGraph snapshots g and stores it under name.
func SaveGraph(ctx context.Context, s Store, name string, g *graph.Graph) error {
	start := time.Now()
	snap := g.Snapshot()
	err := s.Save(ctx, name, snap)
	observability.Store().OnStoreSave(ctx, s.Backend(), len(snap.Nodes), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// LoadGraph loads the snapshot stored under name and rebuilds the graph.
func LoadGraph(ctx context.Context, s Store, name string, opts ...graph.Option) (*graph.Graph, error) {
	start := time.Now()
	snap, err := s.Load(ctx, name)
	var g *graph.Graph
	if err == nil {
		g, err = graph.Restore(snap, opts...)
	}
	observability.Store().OnStoreLoad(ctx, s.Backend(), len(snap.Nodes), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return g, nil
}
