// Package pkg holds the public libraries of mindlayout.
//
// # Overview
//
// mindlayout positions the nodes of a mind map on a 2-D canvas. A map is a
// forest of topics joined by parent links, plus free cross links between any
// two topics. The packages split into three areas:
//
//  1. Domain: [graph] (the map), [graph/traverse] (walks and cycle checks),
//     [layout] (the radial, tree and force engines)
//  2. Infrastructure: [cache], [store], [index], [config], [metrics],
//     [observability]
//  3. Orchestration and surfaces: [pipeline] (load, layout, render with
//     caching), [render] (DOT, SVG, PNG), [server] (HTTP API)
//
// # Data Flow
//
//	graph JSON file / store
//	         ↓
//	    [graph] package (validate, query, mutate)
//	         ↓
//	    [layout] package (engine positions)
//	         ↓
//	    [render] package (DOT/SVG/PNG/JSON)
//
// # Quick Start
//
//	g, _ := graph.ReadGraphFile("ideas.json")
//	res, _ := layout.NewRadial().CalculateLayout(g, layout.DefaultConfig())
//	layout.Apply(g, res)
//	_ = graph.WriteGraphFile(g, "ideas.json")
package pkg
