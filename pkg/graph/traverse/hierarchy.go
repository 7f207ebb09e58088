package traverse

import (
	"github.com/matzehuels/mindlayout/pkg/errors"
	"github.com/matzehuels/mindlayout/pkg/graph"
)

// Ancestors returns the parent chain of id, nearest first. The walk stops if
// the chain loops back on itself.
func Ancestors(g *graph.Graph, id string) ([]string, error) {
	if !g.HasNode(id) {
		return nil, errors.NodeNotFound(id)
	}
	seen := map[string]bool{id: true}
	var out []string
	for cur := id; ; {
		p, ok := g.Parent(cur)
		if !ok || seen[p.ID] {
			break
		}
		seen[p.ID] = true
		out = append(out, p.ID)
		cur = p.ID
	}
	return out, nil
}

// Descendants returns every node below id in the hierarchy, breadth-first.
func Descendants(g *graph.Graph, id string) ([]string, error) {
	res, err := BFS(g, id, WithHierarchy())
	if err != nil {
		return nil, err
	}
	return res.Order[1:], nil
}

// Depth returns the number of ancestors of id. Roots have depth 0.
func Depth(g *graph.Graph, id string) (int, error) {
	anc, err := Ancestors(g, id)
	if err != nil {
		return 0, err
	}
	return len(anc), nil
}

// LowestCommonAncestor returns the deepest node that has both a and b in its
// subtree. A node counts as its own ancestor, so the LCA of a node and one of
// its descendants is the node itself. The boolean is false when a and b sit in
// different trees.
func LowestCommonAncestor(g *graph.Graph, a, b string) (string, bool, error) {
	ancA, err := Ancestors(g, a)
	if err != nil {
		return "", false, err
	}
	ancB, err := Ancestors(g, b)
	if err != nil {
		return "", false, err
	}

	onPathA := make(map[string]bool, len(ancA)+1)
	onPathA[a] = true
	for _, id := range ancA {
		onPathA[id] = true
	}
	if onPathA[b] {
		return b, true, nil
	}
	for _, id := range ancB {
		if onPathA[id] {
			return id, true, nil
		}
	}
	return "", false, nil
}

// HierarchyHasCycles reports whether any parent chain loops back on itself.
// The graph API never creates such loops on insert, but UpdateNode can.
func HierarchyHasCycles(g *graph.Graph) bool {
	const (
		white = iota
		gray
		black
	)
	state := make(map[string]int, g.NodeCount())
	for _, start := range g.NodeIDs() {
		if state[start] != white {
			continue
		}
		var path []string
		cur := start
		for cur != "" && state[cur] == white {
			state[cur] = gray
			path = append(path, cur)
			p, ok := g.Parent(cur)
			if !ok {
				cur = ""
				break
			}
			cur = p.ID
		}
		if cur != "" && state[cur] == gray {
			return true
		}
		for _, id := range path {
			state[id] = black
		}
	}
	return false
}
