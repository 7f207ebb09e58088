package graph

import (
	"slices"
	"time"

	"github.com/matzehuels/mindlayout/pkg/errors"
)

// Indexer receives node changes so an external search index can follow the
// graph. IndexNode is called after a node is added or updated, RemoveNode
// after it is deleted. Position-only changes are not reported.
type Indexer interface {
	IndexNode(n Node)
	RemoveNode(id string)
}

type nopIndexer struct{}

func (nopIndexer) IndexNode(Node)    {}
func (nopIndexer) RemoveNode(string) {}

// Option configures a Graph.
type Option func(*Graph)

// WithClock sets the time source used for node timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) {
		if now != nil {
			g.now = now
		}
	}
}

// WithIndexer attaches an Indexer that is notified of node changes.
func WithIndexer(ix Indexer) Option {
	return func(g *Graph) {
		if ix != nil {
			g.indexer = ix
		}
	}
}

type edgeRecord struct {
	Edge
	seq uint64
}

type set map[string]struct{}

// Graph is a hierarchy of nodes plus directed cross-link edges.
//
// The zero value is not usable; use New.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*edgeRecord
	edgeOrder []string
	nextSeq   uint64

	outgoing map[string]set      // nodeID -> edge IDs leaving it
	incoming map[string]set      // nodeID -> edge IDs entering it
	children map[string][]string // parentID -> child IDs, insertion ordered

	now     func() time.Time
	indexer Indexer
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{now: time.Now, indexer: nopIndexer{}}
	for _, opt := range opts {
		opt(g)
	}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.nodes = make(map[string]*Node)
	g.nodeOrder = nil
	g.edges = make(map[string]*edgeRecord)
	g.edgeOrder = nil
	g.outgoing = make(map[string]set)
	g.incoming = make(map[string]set)
	g.children = make(map[string][]string)
}

// SetIndexer replaces the graph's indexer and feeds it every existing node.
// Passing nil detaches the current indexer.
func (g *Graph) SetIndexer(ix Indexer) {
	if ix == nil {
		g.indexer = nopIndexer{}
		return
	}
	g.indexer = ix
	for _, id := range g.nodeOrder {
		ix.IndexNode(g.nodes[id].clone())
	}
}

// AddNode inserts a node.
//
// It fails with INVALID_OPERATION when the node does not validate on its own
// (see Node.Validate), when the ID is already taken, or when ParentID names a
// node that does not exist. Zero timestamps are set to the current time.
func (g *Graph) AddNode(n Node) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if _, exists := g.nodes[n.ID]; exists {
		return errors.InvalidOperation("duplicate node id %q", n.ID)
	}
	if n.ParentID != "" {
		if _, ok := g.nodes[n.ParentID]; !ok {
			return errors.InvalidOperation("parent %q of node %q does not exist", n.ParentID, n.ID)
		}
	}

	now := g.now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}

	node := n.clone()
	g.nodes[node.ID] = &node
	g.nodeOrder = append(g.nodeOrder, node.ID)
	if node.ParentID != "" {
		g.children[node.ParentID] = append(g.children[node.ParentID], node.ID)
	}
	g.indexer.IndexNode(node.clone())
	return nil
}

// RemoveNode deletes a node together with every edge touching it.
// Children of the removed node become roots.
func (g *Graph) RemoveNode(id string) error {
	node, ok := g.nodes[id]
	if !ok {
		return errors.NodeNotFound(id)
	}

	for _, eid := range g.sortedEdgeIDs(g.outgoing[id]) {
		g.dropEdge(eid)
	}
	for _, eid := range g.sortedEdgeIDs(g.incoming[id]) {
		g.dropEdge(eid)
	}
	delete(g.outgoing, id)
	delete(g.incoming, id)

	if node.ParentID != "" {
		g.unlinkChild(node.ParentID, id)
	}

	orphans := g.children[id]
	delete(g.children, id)
	now := g.now()
	for _, cid := range orphans {
		child := g.nodes[cid]
		child.ParentID = ""
		child.UpdatedAt = now
	}

	delete(g.nodes, id)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(s string) bool { return s == id })

	g.indexer.RemoveNode(id)
	for _, cid := range orphans {
		g.indexer.IndexNode(g.nodes[cid].clone())
	}
	return nil
}

// UpdateNode replaces the stored node that has n.ID.
//
// CreatedAt is kept from the stored node and UpdatedAt is refreshed. Moving a
// node to a new parent rewires the children index. UpdateNode does not look
// for parent cycles; traverse.HierarchyHasCycles and the tree layout do.
func (g *Graph) UpdateNode(n Node) error {
	old, ok := g.nodes[n.ID]
	if !ok {
		return errors.NodeNotFound(n.ID)
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if n.ParentID != "" {
		if _, ok := g.nodes[n.ParentID]; !ok {
			return errors.InvalidOperation("parent %q of node %q does not exist", n.ParentID, n.ID)
		}
	}

	if n.ParentID != old.ParentID {
		if old.ParentID != "" {
			g.unlinkChild(old.ParentID, n.ID)
		}
		if n.ParentID != "" {
			g.children[n.ParentID] = append(g.children[n.ParentID], n.ID)
		}
	}

	node := n.clone()
	node.CreatedAt = old.CreatedAt
	node.UpdatedAt = g.now()
	*old = node
	g.indexer.IndexNode(node.clone())
	return nil
}

// SetPosition moves a node. It is the write path used by layout.Apply.
func (g *Graph) SetPosition(id string, p Position) error {
	node, ok := g.nodes[id]
	if !ok {
		return errors.NodeNotFound(id)
	}
	if err := errors.ValidateFinite("position.x", p.X); err != nil {
		return err
	}
	if err := errors.ValidateFinite("position.y", p.Y); err != nil {
		return err
	}
	node.Position = p
	node.UpdatedAt = g.now()
	return nil
}

// AddEdge inserts a directed edge.
//
// Missing endpoints fail with NODE_NOT_FOUND. An invalid or duplicate edge
// ID, a self-loop, or a second edge between the same ordered pair fails with
// INVALID_OPERATION.
func (g *Graph) AddEdge(e Edge) error {
	if err := errors.ValidateID(e.ID); err != nil {
		return err
	}
	if _, exists := g.edges[e.ID]; exists {
		return errors.InvalidOperation("duplicate edge id %q", e.ID)
	}
	if _, ok := g.nodes[e.From]; !ok {
		return errors.NodeNotFound(e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return errors.NodeNotFound(e.To)
	}
	if e.From == e.To {
		return errors.InvalidOperation("edge %q is a self-loop on %q", e.ID, e.From)
	}
	for eid := range g.outgoing[e.From] {
		if g.edges[eid].To == e.To {
			return errors.InvalidOperation("edge from %q to %q already exists", e.From, e.To)
		}
	}

	g.nextSeq++
	g.edges[e.ID] = &edgeRecord{Edge: e, seq: g.nextSeq}
	g.edgeOrder = append(g.edgeOrder, e.ID)
	addToSet(g.outgoing, e.From, e.ID)
	addToSet(g.incoming, e.To, e.ID)
	return nil
}

// RemoveEdge deletes an edge.
func (g *Graph) RemoveEdge(id string) error {
	if _, ok := g.edges[id]; !ok {
		return errors.EdgeNotFound(id)
	}
	g.dropEdge(id)
	return nil
}

// Clear removes every node and edge.
func (g *Graph) Clear() {
	ids := g.nodeOrder
	g.reset()
	for _, id := range ids {
		g.indexer.RemoveNode(id)
	}
}

func (g *Graph) dropEdge(id string) {
	rec := g.edges[id]
	removeFromSet(g.outgoing, rec.From, id)
	removeFromSet(g.incoming, rec.To, id)
	delete(g.edges, id)
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(s string) bool { return s == id })
}

func (g *Graph) unlinkChild(parentID, childID string) {
	kids := slices.DeleteFunc(g.children[parentID], func(s string) bool { return s == childID })
	if len(kids) == 0 {
		delete(g.children, parentID)
		return
	}
	g.children[parentID] = kids
}

func (g *Graph) sortedEdgeIDs(s set) []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		sa, sb := g.edges[a].seq, g.edges[b].seq
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	})
	return ids
}

func addToSet(m map[string]set, key, id string) {
	s, ok := m[key]
	if !ok {
		s = make(set)
		m[key] = s
	}
	s[id] = struct{}{}
}

func removeFromSet(m map[string]set, key, id string) {
	s, ok := m[key]
	if !ok {
		return
	}
	delete(s, id)
	if len(s) == 0 {
		delete(m, key)
	}
}
