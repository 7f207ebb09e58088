package graph

import "github.com/matzehuels/mindlayout/pkg/errors"

// Validate re-checks every structural invariant of the graph and returns the
// first violation found as an INVALID_OPERATION error.
//
// The mutating methods keep these invariants on their own, so a failure here
// means the graph was corrupted outside its API.
func (g *Graph) Validate() error {
	if len(g.nodeOrder) != len(g.nodes) {
		return errors.InvalidOperation("node order holds %d ids for %d nodes", len(g.nodeOrder), len(g.nodes))
	}
	if len(g.edgeOrder) != len(g.edges) {
		return errors.InvalidOperation("edge order holds %d ids for %d edges", len(g.edgeOrder), len(g.edges))
	}

	childCount := 0
	for _, id := range g.nodeOrder {
		n, ok := g.nodes[id]
		if !ok {
			return errors.InvalidOperation("node %q is ordered but not stored", id)
		}
		if n.ParentID == "" {
			continue
		}
		if n.ParentID == id {
			return errors.InvalidOperation("node %q is its own parent", id)
		}
		if _, ok := g.nodes[n.ParentID]; !ok {
			return errors.InvalidOperation("node %q references missing parent %q", id, n.ParentID)
		}
		childCount++
	}

	indexed := 0
	for parentID, kids := range g.children {
		for _, cid := range kids {
			child, ok := g.nodes[cid]
			if !ok || child.ParentID != parentID {
				return errors.InvalidOperation("children index lists %q under %q", cid, parentID)
			}
			indexed++
		}
	}
	if indexed != childCount {
		return errors.InvalidOperation("children index holds %d entries for %d child nodes", indexed, childCount)
	}

	for _, eid := range g.edgeOrder {
		rec, ok := g.edges[eid]
		if !ok {
			return errors.InvalidOperation("edge %q is ordered but not stored", eid)
		}
		if _, ok := g.nodes[rec.From]; !ok {
			return errors.InvalidOperation("edge %q references missing node %q", eid, rec.From)
		}
		if _, ok := g.nodes[rec.To]; !ok {
			return errors.InvalidOperation("edge %q references missing node %q", eid, rec.To)
		}
		if _, ok := g.outgoing[rec.From][eid]; !ok {
			return errors.InvalidOperation("edge %q missing from outgoing index of %q", eid, rec.From)
		}
		if _, ok := g.incoming[rec.To][eid]; !ok {
			return errors.InvalidOperation("edge %q missing from incoming index of %q", eid, rec.To)
		}
	}

	if err := g.checkAdjacency(g.outgoing, "outgoing", func(e Edge) string { return e.From }); err != nil {
		return err
	}
	return g.checkAdjacency(g.incoming, "incoming", func(e Edge) string { return e.To })
}

func (g *Graph) checkAdjacency(index map[string]set, name string, owner func(Edge) string) error {
	for nodeID, ids := range index {
		for eid := range ids {
			rec, ok := g.edges[eid]
			if !ok {
				return errors.InvalidOperation("%s index of %q holds unknown edge %q", name, nodeID, eid)
			}
			if owner(rec.Edge) != nodeID {
				return errors.InvalidOperation("%s index of %q holds edge %q owned by %q", name, nodeID, eid, owner(rec.Edge))
			}
		}
	}
	return nil
}
