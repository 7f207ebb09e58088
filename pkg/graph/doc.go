// Package graph provides the in-memory hierarchical graph that mindlayout lays out.
//
// A [Graph] holds two kinds of relationships between [Node] values:
//
//   - Hierarchy: every node has at most one parent (Node.ParentID). Nodes
//     without a parent are roots. This is the mind-map tree.
//   - Edges: directed, labelled cross links ([Edge]) between any two distinct
//     nodes. Edges never affect the hierarchy.
//
// # Invariants
//
// Every mutating method validates its input before touching the graph, so a
// failed call leaves the graph unchanged. After any sequence of successful
// calls the following hold, and [Graph.Validate] re-checks them:
//
//   - edge endpoints exist and edges are never self-loops
//   - parent ids exist and no node is its own parent
//   - the outgoing and incoming adjacency indices mirror the edge set
//   - the children index mirrors the parent pointers
//
// Removing a node removes every edge touching it. Its children become roots.
//
// # Determinism
//
// Nodes and edges are iterated in insertion order. Layout engines depend on
// this: identical graphs built in the same order produce identical layouts.
//
// # Errors
//
// Methods return *errors.Error values from pkg/errors with one of three codes:
//
//	NODE_NOT_FOUND     lookup by node id failed
//	EDGE_NOT_FOUND     lookup by edge id failed
//	INVALID_OPERATION  validation failed, nothing was changed
//
// # Serialization
//
// Graphs use a node-link JSON format:
//
//	{
//	  "nodes": [{"id": "a", "text": "Root"}, {"id": "b", "text": "Idea", "parent_id": "a"}],
//	  "edges": [{"id": "e1", "from": "b", "to": "a", "label": "see also"}]
//	}
//
//	g, _ := graph.ReadGraphFile("map.json")
//	graph.WriteGraphFile(g, "out.json")
//
// # Concurrency
//
// Graph is not safe for concurrent use. Callers that share a graph across
// goroutines must guard it, typically with a sync.RWMutex where layout runs
// under the read lock.
package graph
