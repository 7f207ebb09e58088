package layout

import "github.com/matzehuels/mindlayout/pkg/graph"

// selectRoot picks the node the radial and tree engines grow from:
// cfg.RootID when it exists, else the best-connected parentless node, else
// the best-connected node overall. Ties go to the earliest inserted node.
func selectRoot(g *graph.Graph, cfg Config) string {
	if cfg.RootID != "" && g.HasNode(cfg.RootID) {
		return cfg.RootID
	}
	if id := mostConnected(g, g.RootNodes()); id != "" {
		return id
	}
	return mostConnected(g, g.NodeIDs())
}

func mostConnected(g *graph.Graph, ids []string) string {
	best, bestDeg := "", -1
	for _, id := range ids {
		if d := g.Degree(id); d > bestDeg {
			best, bestDeg = id, d
		}
	}
	return best
}
