package graph

import "slices"

// Node returns a copy of the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id string) (Edge, bool) {
	rec, ok := g.edges[id]
	if !ok {
		return Edge{}, false
	}
	return rec.Edge, true
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether an edge with the given ID exists.
func (g *Graph) HasEdge(id string) bool {
	_, ok := g.edges[id]
	return ok
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodeOrder))
	for i, id := range g.nodeOrder {
		out[i] = g.nodes[id].clone()
	}
	return out
}

// NodeIDs returns all node IDs in insertion order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.nodeOrder) }

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edgeOrder))
	for i, id := range g.edgeOrder {
		out[i] = g.edges[id].Edge
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs of a node's children in insertion order.
func (g *Graph) Children(id string) []string { return slices.Clone(g.children[id]) }

// Parent returns a copy of the node's parent. The second result is false for
// roots and unknown IDs.
func (g *Graph) Parent(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok || n.ParentID == "" {
		return Node{}, false
	}
	return g.Node(n.ParentID)
}

// RootNodes returns the IDs of all nodes without a parent, in insertion order.
func (g *Graph) RootNodes() []string {
	var roots []string
	for _, id := range g.nodeOrder {
		if g.nodes[id].ParentID == "" {
			roots = append(roots, id)
		}
	}
	return roots
}

// Neighbors returns the sorted, de-duplicated IDs of every node joined to id
// by an edge in either direction. Parent and child links are not included.
func (g *Graph) Neighbors(id string) []string {
	seen := make(set)
	for eid := range g.outgoing[id] {
		seen[g.edges[eid].To] = struct{}{}
	}
	for eid := range g.incoming[id] {
		seen[g.edges[eid].From] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for nid := range seen {
		out = append(out, nid)
	}
	slices.Sort(out)
	return out
}

// OutgoingEdges returns the edges leaving id in insertion order.
func (g *Graph) OutgoingEdges(id string) []Edge { return g.edgeList(g.outgoing[id]) }

// IncomingEdges returns the edges entering id in insertion order.
func (g *Graph) IncomingEdges(id string) []Edge { return g.edgeList(g.incoming[id]) }

func (g *Graph) edgeList(s set) []Edge {
	ids := g.sortedEdgeIDs(s)
	out := make([]Edge, len(ids))
	for i, eid := range ids {
		out[i] = g.edges[eid].Edge
	}
	return out
}

// Degree counts a node's connections: its edges in both directions, its
// parent link and its children. Unknown IDs have degree 0.
func (g *Graph) Degree(id string) int {
	n, ok := g.nodes[id]
	if !ok {
		return 0
	}
	d := len(g.outgoing[id]) + len(g.incoming[id]) + len(g.children[id])
	if n.ParentID != "" {
		d++
	}
	return d
}

// HasPath reports whether b can be reached from a by following edges in
// either direction. A node always reaches itself.
func (g *Graph) HasPath(a, b string) bool {
	if !g.HasNode(a) || !g.HasNode(b) {
		return false
	}
	if a == b {
		return true
	}
	visited := set{a: {}}
	queue := []string{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Neighbors(cur) {
			if next == b {
				return true
			}
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}

// WouldCreateCycle reports whether adding an edge from -> to would close a
// cycle in the undirected edge structure.
func (g *Graph) WouldCreateCycle(from, to string) bool {
	return from == to || g.HasPath(from, to)
}
