package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/mindlayout/pkg/errors"
	"github.com/matzehuels/mindlayout/pkg/graph"
)

// Tree engine parameters and defaults.
//
// distance_iterations caps the minimum-distance relaxation; like the radial
// collision cap it is a heuristic.
const (
	ParamNodeWidth          = "node_width"           // 120
	ParamNodeHeight         = "node_height"          // 40
	ParamSiblingSpacing     = "sibling_spacing"      // 20
	ParamLevelSpacing       = "level_spacing"        // 80
	ParamOrientation        = "orientation"          // 0 TopDown, 1 BottomUp, 2 LeftRight, 3 RightLeft
	ParamBalance            = "balance"              // 0
	ParamEnforceMinDistance = "enforce_min_distance" // 1
	ParamDistanceIterations = "distance_iterations"  // 20
)

type treeParams struct {
	nodeWidth          float64
	nodeHeight         float64
	siblingSpacing     float64
	levelSpacing       float64
	orientation        Orientation
	balance            bool
	enforceMinDistance bool
	distanceIterations int
	margin             float64
}

func readTreeParams(cfg Config) (treeParams, error) {
	r := paramReader{cfg: cfg}
	p := treeParams{
		nodeWidth:          r.positive(ParamNodeWidth, 120),
		nodeHeight:         r.positive(ParamNodeHeight, 40),
		siblingSpacing:     r.nonNegative(ParamSiblingSpacing, 20),
		levelSpacing:       r.nonNegative(ParamLevelSpacing, 80),
		orientation:        Orientation(r.count(ParamOrientation, int(TopDown), int(TopDown), int(RightLeft))),
		balance:            r.flag(ParamBalance, false),
		enforceMinDistance: r.flag(ParamEnforceMinDistance, true),
		distanceIterations: r.count(ParamDistanceIterations, 20, 0, 100000),
		margin:             r.nonNegative(ParamMargin, 50),
	}
	return p, r.err
}

// TreeEngine lays the hierarchy out as a layered tree.
//
// Each subtree is as wide as the larger of one node and its children's
// subtrees plus sibling_spacing between them. Children sit left to right,
// centered under their parent. With balance set, every parent moves over the
// center of mass of its children weighted by subtree size. The result is
// rotated by orientation, relaxed so nodes keep MinDistance apart, and
// scaled down (never up) to fit the canvas around Center. With
// PreservePositions the layout is only translated, so the root keeps its
// current position.
//
// Only nodes reachable from the root are placed. A parent cycle reachable
// from the root fails with INVALID_OPERATION.
type TreeEngine struct{}

// NewTree returns a tree engine.
func NewTree() *TreeEngine { return &TreeEngine{} }

// Name implements Engine.
func (*TreeEngine) Name() string { return Tree }

// ValidateConfig implements Engine.
func (*TreeEngine) ValidateConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	_, err := readTreeParams(cfg)
	return err
}

type treeNode struct {
	id       string
	depth    int
	children []*treeNode
	width    float64 // subtree width
	size     int     // nodes in subtree
	x        float64 // sibling-axis offset from the root
}

// CalculateLayout implements Engine.
func (e *TreeEngine) CalculateLayout(g *graph.Graph, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p, err := readTreeParams(cfg)
	if err != nil {
		return nil, err
	}
	if g.NodeCount() == 0 {
		return emptyResult(Tree), nil
	}

	rootID := selectRoot(g, cfg)
	preorder, err := buildTree(g, rootID)
	if err != nil {
		return nil, err
	}

	measure(preorder, p)
	arrange(preorder, p)
	if p.balance {
		balance(preorder)
	}

	ids := make([]string, len(preorder))
	pos := make(map[string]r2.Vec, len(preorder))
	levelStep := p.nodeHeight + p.levelSpacing
	for i, n := range preorder {
		ids[i] = n.id
		pos[n.id] = p.orientation.Apply(r2.Vec{X: n.x, Y: float64(n.depth) * levelStep})
	}

	if p.enforceMinDistance && cfg.MinDistance > 0 {
		relax(ids, pos, cfg.MinDistance, p.distanceIterations)
	}

	positions := fitToCanvas(g, ids, pos, rootID, cfg, p.margin)
	b := boundsOf(positions)
	return &Result{
		Algorithm:  Tree,
		Positions:  positions,
		Bounds:     b,
		Converged:  true,
		Iterations: 1,
		Energy:     b.Area(),
	}, nil
}

// buildTree walks the hierarchy from rootID with an explicit stack and
// returns the nodes in pre-order. Meeting a node that is already on the
// current root path means the parent pointers loop.
func buildTree(g *graph.Graph, rootID string) ([]*treeNode, error) {
	type frame struct {
		node *treeNode
		exit bool
	}
	onPath := make(map[string]bool)
	placed := make(map[string]bool)
	root := &treeNode{id: rootID}
	var preorder []*treeNode
	stack := []frame{{node: root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node
		if f.exit {
			onPath[n.id] = false
			continue
		}
		if onPath[n.id] {
			return nil, errors.InvalidOperation("parent cycle through node %q", n.id)
		}
		if placed[n.id] {
			continue
		}
		placed[n.id] = true
		onPath[n.id] = true
		preorder = append(preorder, n)
		stack = append(stack, frame{node: n, exit: true})

		kids := g.Children(n.id)
		n.children = make([]*treeNode, 0, len(kids))
		for _, cid := range kids {
			if onPath[cid] {
				return nil, errors.InvalidOperation("parent cycle through node %q", cid)
			}
			if placed[cid] {
				continue
			}
			n.children = append(n.children, &treeNode{id: cid, depth: n.depth + 1})
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.children[i]})
		}
	}
	return preorder, nil
}

// measure fills subtree widths and sizes bottom-up.
func measure(preorder []*treeNode, p treeParams) {
	for i := len(preorder) - 1; i >= 0; i-- {
		n := preorder[i]
		n.size = 1
		if len(n.children) == 0 {
			n.width = p.nodeWidth
			continue
		}
		sum := p.siblingSpacing * float64(len(n.children)-1)
		for _, c := range n.children {
			sum += c.width
			n.size += c.size
		}
		n.width = math.Max(p.nodeWidth, sum)
	}
}

// arrange places children left to right, centered under their parent.
func arrange(preorder []*treeNode, p treeParams) {
	for _, n := range preorder {
		if len(n.children) == 0 {
			continue
		}
		total := p.siblingSpacing * float64(len(n.children)-1)
		for _, c := range n.children {
			total += c.width
		}
		left := n.x - total/2
		for _, c := range n.children {
			c.x = left + c.width/2
			left += c.width + p.siblingSpacing
		}
	}
}

// balance moves each parent over its children's size-weighted center of
// mass, deepest parents first.
func balance(preorder []*treeNode) {
	for i := len(preorder) - 1; i >= 0; i-- {
		n := preorder[i]
		if len(n.children) == 0 {
			continue
		}
		var sum, weight float64
		for _, c := range n.children {
			sum += c.x * float64(c.size)
			weight += float64(c.size)
		}
		n.x = sum / weight
	}
}

// relax nudges pairs closer than minDist apart, half the deficit each.
func relax(ids []string, pos map[string]r2.Vec, minDist float64, maxIter int) {
	for iter := 0; iter < maxIter; iter++ {
		moved := false
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := pos[ids[i]], pos[ids[j]]
				dir, dist := separation(a, b, i*len(ids)+j)
				if dist >= minDist {
					continue
				}
				half := (minDist - dist) / 2
				pos[ids[i]] = r2.Sub(a, r2.Scale(half, dir))
				pos[ids[j]] = r2.Add(b, r2.Scale(half, dir))
				moved = true
			}
		}
		if !moved {
			return
		}
	}
}

// fitToCanvas centers the layout on cfg.Center, shrinking it uniformly when
// it does not fit the canvas minus margin. With PreservePositions the root
// stays at its stored position and nothing is scaled.
func fitToCanvas(g *graph.Graph, ids []string, pos map[string]r2.Vec, rootID string, cfg Config, margin float64) map[string]graph.Position {
	pts := make([]graph.Position, len(ids))
	for i, id := range ids {
		pts[i] = graph.PositionOf(pos[id])
	}
	b := BoundsFromPoints(pts)

	var origin, target r2.Vec
	scale := 1.0
	if cfg.PreservePositions {
		root, _ := g.Node(rootID)
		origin, target = pos[rootID], root.Position.Vec()
	} else {
		origin, target = b.Center().Vec(), cfg.Center.Vec()
		scale = math.Min(1, b.FitScale(cfg.Width, cfg.Height, margin))
	}

	out := make(map[string]graph.Position, len(ids))
	for _, id := range ids {
		v := r2.Add(target, r2.Scale(scale, r2.Sub(pos[id], origin)))
		out[id] = graph.PositionOf(v)
	}
	return out
}
