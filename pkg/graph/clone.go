package graph

import (
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mindlayout/pkg/errors"
)

// CloneSubgraph copies the subtree rooted at rootID into a new graph.
//
// maxDepth bounds how many levels below the root are copied: 0 copies only
// the root and a negative value copies the whole subtree. Every copied node
// gets a fresh ID, parent pointers are remapped and the copy of rootID becomes
// a root. Edges whose endpoints were both copied are carried over with fresh
// IDs. The walk uses an explicit stack, so deep trees cannot exhaust the call
// stack, and nodes already copied are skipped, so parent cycles terminate.
func (g *Graph) CloneSubgraph(rootID string, maxDepth int) (*Graph, error) {
	if _, ok := g.nodes[rootID]; !ok {
		return nil, errors.NodeNotFound(rootID)
	}

	type frame struct {
		id     string
		parent string // ID in the clone
		depth  int
	}

	out := New(WithClock(g.now))
	idMap := make(map[string]string)
	stack := []frame{{id: rootID}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := idMap[f.id]; done {
			continue
		}

		n := g.nodes[f.id].clone()
		n.ID = uuid.NewString()
		n.ParentID = f.parent
		n.CreatedAt, n.UpdatedAt = time.Time{}, time.Time{}
		if err := out.AddNode(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "clone node %q", f.id)
		}
		idMap[f.id] = n.ID

		if maxDepth >= 0 && f.depth >= maxDepth {
			continue
		}
		kids := g.children[f.id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], parent: n.ID, depth: f.depth + 1})
		}
	}

	for _, eid := range g.edgeOrder {
		e := g.edges[eid].Edge
		from, okFrom := idMap[e.From]
		to, okTo := idMap[e.To]
		if !okFrom || !okTo {
			continue
		}
		cp := Edge{ID: uuid.NewString(), From: from, To: to, Label: e.Label}
		if err := out.AddEdge(cp); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "clone edge %q", eid)
		}
	}
	return out, nil
}

// MergeGraph copies every node and edge of other into g under fresh IDs and
// returns the mapping from other's IDs to the new ones.
//
// The copy runs in three passes: nodes are inserted as roots, then parent
// pointers are restored through the ID map, then edges are copied through
// the ID map. other is validated first; if it is inconsistent g is left
// untouched. Merging a graph into itself duplicates it.
func (g *Graph) MergeGraph(other *Graph) (map[string]string, error) {
	if other == nil {
		return nil, errors.InvalidOperation("cannot merge a nil graph")
	}
	if err := other.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "merge source is invalid")
	}
	nodes := other.Nodes()
	edges := other.Edges()
	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "merge source node %q", n.ID)
		}
	}

	idMap := make(map[string]string, len(nodes))
	for _, n := range nodes {
		cp := n
		cp.ID = uuid.NewString()
		cp.ParentID = ""
		if err := g.AddNode(cp); err != nil {
			return idMap, err
		}
		idMap[n.ID] = cp.ID
	}

	for _, n := range nodes {
		if n.ParentID == "" {
			continue
		}
		cp, _ := g.Node(idMap[n.ID])
		cp.ParentID = idMap[n.ParentID]
		if err := g.UpdateNode(cp); err != nil {
			return idMap, err
		}
	}

	for _, e := range edges {
		cp := Edge{ID: uuid.NewString(), From: idMap[e.From], To: idMap[e.To], Label: e.Label}
		if err := g.AddEdge(cp); err != nil {
			return idMap, err
		}
	}
	return idMap, nil
}

// Snapshot returns copies of all nodes and edges in insertion order.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{Nodes: g.Nodes(), Edges: g.Edges()}
}

// Restore builds a graph from a snapshot.
//
// Nodes may appear in any order: a node is inserted once its parent is
// present. Parents that never appear, or parent cycles, fail with
// INVALID_OPERATION. Timestamps are kept as stored.
func Restore(s Snapshot, opts ...Option) (*Graph, error) {
	g := New(opts...)
	pending := s.Nodes
	for len(pending) > 0 {
		var deferred []Node
		for _, n := range pending {
			if n.ParentID != "" && !g.HasNode(n.ParentID) {
				deferred = append(deferred, n)
				continue
			}
			if err := g.AddNode(n); err != nil {
				return nil, err
			}
		}
		if len(deferred) == len(pending) {
			return nil, errors.InvalidOperation("%d nodes reference unresolved parents, first %q -> %q",
				len(deferred), deferred[0].ID, deferred[0].ParentID)
		}
		pending = deferred
	}
	for _, e := range s.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}
