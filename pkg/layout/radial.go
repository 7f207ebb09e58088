package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/mindlayout/pkg/graph"
)

// Radial engine parameters and defaults.
//
// collision_iterations caps the repulsion pass. The cap is a heuristic: dense
// fans may keep small overlaps when it is reached.
const (
	ParamBaseRadius          = "base_radius"          // 150
	ParamRadiusDecay         = "radius_decay"         // 0.75
	ParamStartAngle          = "start_angle"          // 0 (radians)
	ParamNodeSize            = "node_size"            // 40
	ParamNodeMargin          = "node_margin"          // 10
	ParamMaxDepth            = "max_depth"            // 0 = unlimited
	ParamResolveCollisions   = "resolve_collisions"   // 1
	ParamCollisionIterations = "collision_iterations" // 50
	ParamMargin              = "margin"               // 50, shared by all engines
)

type radialParams struct {
	baseRadius          float64
	radiusDecay         float64
	startAngle          float64
	nodeSize            float64
	nodeMargin          float64
	maxDepth            int
	resolveCollisions   bool
	collisionIterations int
	margin              float64
}

func readRadialParams(cfg Config) (radialParams, error) {
	r := paramReader{cfg: cfg}
	p := radialParams{
		baseRadius:          r.positive(ParamBaseRadius, 150),
		radiusDecay:         r.positive(ParamRadiusDecay, 0.75),
		startAngle:          r.any(ParamStartAngle, 0),
		nodeSize:            r.nonNegative(ParamNodeSize, 40),
		nodeMargin:          r.nonNegative(ParamNodeMargin, 10),
		maxDepth:            r.count(ParamMaxDepth, 0, 0, math.MaxInt32),
		resolveCollisions:   r.flag(ParamResolveCollisions, true),
		collisionIterations: r.count(ParamCollisionIterations, 50, 0, 100000),
		margin:              r.nonNegative(ParamMargin, 50),
	}
	return p, r.err
}

// RadialEngine places the root at the canvas center and fans every parent's
// children out around it.
//
// Children of a parent sit at angles start_angle + parent_angle + i*2π/n on a
// circle around the parent. The radius starts at base_radius and shrinks by
// radius_decay per level, but never below the radius at which neighbouring
// siblings keep node_size + node_margin apart. Nodes closer than
// MinDistance + node_size are then pushed apart; the root never moves.
//
// Only nodes reachable from the root through parent/child links are placed.
// PreservePositions has no effect.
type RadialEngine struct{}

// NewRadial returns a radial engine.
func NewRadial() *RadialEngine { return &RadialEngine{} }

// Name implements Engine.
func (*RadialEngine) Name() string { return Radial }

// ValidateConfig implements Engine.
func (*RadialEngine) ValidateConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	_, err := readRadialParams(cfg)
	return err
}

// CalculateLayout implements Engine.
func (e *RadialEngine) CalculateLayout(g *graph.Graph, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p, err := readRadialParams(cfg)
	if err != nil {
		return nil, err
	}
	if g.NodeCount() == 0 {
		return emptyResult(Radial), nil
	}

	root := selectRoot(g, cfg)
	order, pos := placeRadial(g, root, cfg.Center.Vec(), p)

	if p.resolveCollisions {
		resolveCollisions(order, pos, cfg.MinDistance+p.nodeSize, p.collisionIterations)
	}

	canvas := cfg.Canvas(p.margin)
	positions := make(map[string]graph.Position, len(order))
	for _, id := range order {
		positions[id] = canvas.Clamp(graph.PositionOf(pos[id]))
	}

	return &Result{
		Algorithm:  Radial,
		Positions:  positions,
		Bounds:     boundsOf(positions),
		Converged:  true,
		Iterations: 1,
		Energy:     linkLength(g, positions),
	}, nil
}

// placeRadial assigns initial positions level by level and returns the
// placed IDs in BFS order.
func placeRadial(g *graph.Graph, root string, center r2.Vec, p radialParams) ([]string, map[string]r2.Vec) {
	pos := map[string]r2.Vec{root: center}
	angle := map[string]float64{root: 0}
	level := map[string]int{root: 0}
	order := []string{root}
	footprint := p.nodeSize + p.nodeMargin

	for i := 0; i < len(order); i++ {
		parent := order[i]
		depth := level[parent]
		if p.maxDepth > 0 && depth >= p.maxDepth {
			continue
		}
		var kids []string
		for _, c := range g.Children(parent) {
			if _, seen := pos[c]; !seen {
				kids = append(kids, c)
			}
		}
		n := len(kids)
		if n == 0 {
			continue
		}

		radius := p.baseRadius * math.Pow(p.radiusDecay, float64(depth))
		step := 2 * math.Pi / float64(n)
		if n > 1 {
			radius = math.Max(radius, footprint/(2*math.Sin(step/2)))
		}
		for j, c := range kids {
			theta := p.startAngle + angle[parent] + float64(j)*step
			pos[c] = r2.Add(pos[parent], r2.Vec{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)})
			angle[c] = theta
			level[c] = depth + 1
			order = append(order, c)
		}
	}
	return order, pos
}

// resolveCollisions pushes apart every pair closer than minDist, half the
// deficit each. order[0] is pinned and takes none of the push.
func resolveCollisions(order []string, pos map[string]r2.Vec, minDist float64, maxIter int) int {
	for iter := 0; iter < maxIter; iter++ {
		moved := false
		for i := 0; i < len(order); i++ {
			for j := i + 1; j < len(order); j++ {
				a, b := pos[order[i]], pos[order[j]]
				dir, dist := separation(a, b, i*len(order)+j)
				if dist >= minDist {
					continue
				}
				deficit := minDist - dist
				switch {
				case i == 0:
					b = r2.Add(b, r2.Scale(deficit, dir))
				default:
					a = r2.Sub(a, r2.Scale(deficit/2, dir))
					b = r2.Add(b, r2.Scale(deficit/2, dir))
				}
				pos[order[i]], pos[order[j]] = a, b
				moved = true
			}
		}
		if !moved {
			return iter
		}
	}
	return maxIter
}

// linkLength sums the lengths of parent links and edges between placed nodes.
func linkLength(g *graph.Graph, positions map[string]graph.Position) float64 {
	var total float64
	for _, n := range g.Nodes() {
		p, ok := positions[n.ID]
		if !ok || n.ParentID == "" {
			continue
		}
		if q, ok := positions[n.ParentID]; ok {
			total += Distance(p, q)
		}
	}
	for _, e := range g.Edges() {
		p, okP := positions[e.From]
		q, okQ := positions[e.To]
		if okP && okQ {
			total += Distance(p, q)
		}
	}
	return total
}
