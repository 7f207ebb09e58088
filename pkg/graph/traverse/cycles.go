package traverse

import (
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/mindlayout/pkg/graph"
)

// handles maps string node IDs to the dense int64 IDs gonum works with.
// Handles follow insertion order, so handle i is the i-th node of the graph.
type handles struct {
	ids   []string
	index map[string]int64
}

func newHandles(g *graph.Graph) handles {
	ids := g.NodeIDs()
	index := make(map[string]int64, len(ids))
	for i, id := range ids {
		index[id] = int64(i)
	}
	return handles{ids: ids, index: index}
}

func (h handles) id(n gonum.Node) string { return h.ids[n.ID()] }

// directed projects the edge structure of g into a gonum directed graph.
func (h handles) directed(g *graph.Graph) *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for i := range h.ids {
		dg.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges() {
		dg.SetEdge(simple.Edge{F: simple.Node(h.index[e.From]), T: simple.Node(h.index[e.To])})
	}
	return dg
}

// undirected projects the edge structure of g into a gonum undirected graph.
func (h handles) undirected(g *graph.Graph) *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := range h.ids {
		ug.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges() {
		ug.SetEdge(simple.Edge{F: simple.Node(h.index[e.From]), T: simple.Node(h.index[e.To])})
	}
	return ug
}

// HasCycles reports whether the directed edges of g contain a cycle.
// Parent/child links are not considered; see HierarchyHasCycles.
func HasCycles(g *graph.Graph) bool {
	if g.EdgeCount() == 0 {
		return false
	}
	h := newHandles(g)
	_, err := topo.Sort(h.directed(g))
	return err != nil
}

// Cycles returns the strongly connected groups of nodes that form directed
// edge cycles, each sorted, ordered by their first member.
func Cycles(g *graph.Graph) [][]string {
	if g.EdgeCount() == 0 {
		return nil
	}
	h := newHandles(g)
	var out [][]string
	for _, scc := range topo.TarjanSCC(h.directed(g)) {
		if len(scc) < 2 {
			continue
		}
		out = append(out, h.sortedIDs(scc))
	}
	sortGroups(out)
	return out
}

// ConnectedComponents groups nodes that are joined by edges, ignoring
// direction. Nodes without edges form singleton components. Each component
// is sorted and components are ordered by their first member.
func ConnectedComponents(g *graph.Graph) [][]string {
	if g.NodeCount() == 0 {
		return nil
	}
	h := newHandles(g)
	comps := topo.ConnectedComponents(h.undirected(g))
	out := make([][]string, 0, len(comps))
	for _, c := range comps {
		out = append(out, h.sortedIDs(c))
	}
	sortGroups(out)
	return out
}

func (h handles) sortedIDs(nodes []gonum.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = h.id(n)
	}
	slices.Sort(ids)
	return ids
}

func sortGroups(groups [][]string) {
	slices.SortFunc(groups, func(a, b []string) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		}
		return 0
	})
}
