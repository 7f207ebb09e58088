package layout

import (
	"slices"

	"github.com/matzehuels/mindlayout/pkg/errors"
	"github.com/matzehuels/mindlayout/pkg/graph"
)

// Engine names.
const (
	Radial = "radial"
	Tree   = "tree"
	Force  = "force"
)

// Engine computes node positions for a graph.
type Engine interface {
	// Name returns the registry name of the engine.
	Name() string
	// ValidateConfig checks cfg, including engine parameters, without
	// looking at any graph.
	ValidateConfig(cfg Config) error
	// CalculateLayout validates cfg and returns fresh positions for g.
	// The graph is not modified.
	CalculateLayout(g *graph.Graph, cfg Config) (*Result, error)
}

var registry = map[string]func() Engine{
	Radial: func() Engine { return NewRadial() },
	Tree:   func() Engine { return NewTree() },
	Force:  func() Engine { return NewForce() },
}

// New returns the engine registered under name.
func New(name string) (Engine, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, errors.InvalidOperation("unknown layout engine %q (want one of %v)", name, Names())
	}
	return mk(), nil
}

// Names lists the registered engine names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Apply writes the positions in r into g and returns how many nodes were
// updated. IDs in r that no longer exist in g are skipped.
func Apply(g *graph.Graph, r *Result) int {
	if r == nil {
		return 0
	}
	applied := 0
	for _, id := range r.NodeIDs() {
		if err := g.SetPosition(id, r.Positions[id]); err == nil {
			applied++
		}
	}
	return applied
}

func emptyResult(algorithm string) *Result {
	return &Result{
		Algorithm: algorithm,
		Positions: map[string]graph.Position{},
		Converged: true,
	}
}
