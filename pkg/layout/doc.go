// Package layout computes 2D coordinates for the nodes of a [graph.Graph].
//
// Three engines implement the [Engine] interface:
//
//   - [RadialEngine] ("radial"): root at the canvas center, each parent's
//     children fanned out around it on a circle, overlaps pushed apart.
//   - [TreeEngine] ("tree"): classic layered tree with subtree-width packing,
//     four orientations, fitted to the canvas.
//   - [ForceEngine] ("force"): spring/repulsion simulation over edges and
//     optional parent links, seeded for reproducibility.
//
// # Usage
//
//	eng, _ := layout.New("tree")
//	res, err := eng.CalculateLayout(g, layout.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	layout.Apply(g, res) // commit positions back into the graph
//
// CalculateLayout never mutates the graph. Engine parameters live in
// Config.Params under snake_case keys; missing keys take the engine default,
// unknown keys are ignored.
//
// # Determinism
//
// Engines iterate nodes in graph insertion order and never depend on map
// order. The force engine draws its initial placement from an [LCG] seeded
// by the "seed" parameter. Identical graphs and configs give identical
// results.
//
// # Errors
//
// Invalid canvas sizes, out-of-range parameters and parent cycles met while
// building a tree fail with INVALID_OPERATION before any work is done.
package layout
