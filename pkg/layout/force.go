package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/mindlayout/pkg/graph"
)

// Force engine parameters and defaults.
const (
	ParamSpringStrength       = "spring_strength"       // 0.05
	ParamSpringLength         = "spring_length"         // 100
	ParamRepulsionStrength    = "repulsion_strength"    // 5000
	ParamDamping              = "damping"               // 0.85
	ParamCenterStrength       = "center_strength"       // 0.01
	ParamTimeStep             = "time_step"             // 0.5
	ParamMaxIterations        = "max_iterations"        // 500
	ParamConvergenceThreshold = "convergence_threshold" // 0.5
	ParamParentSprings        = "parent_springs"        // 1
	ParamSeed                 = "seed"                  // 42
)

type forceParams struct {
	springStrength       float64
	springLength         float64
	repulsionStrength    float64
	damping              float64
	centerStrength       float64
	timeStep             float64
	maxIterations        int
	convergenceThreshold float64
	parentSprings        bool
	margin               float64
	seed                 uint64
}

func readForceParams(cfg Config) (forceParams, error) {
	r := paramReader{cfg: cfg}
	p := forceParams{
		springStrength:       r.nonNegative(ParamSpringStrength, 0.05),
		springLength:         r.positive(ParamSpringLength, 100),
		repulsionStrength:    r.nonNegative(ParamRepulsionStrength, 5000),
		damping:              r.unit(ParamDamping, 0.85),
		centerStrength:       r.nonNegative(ParamCenterStrength, 0.01),
		timeStep:             r.unit(ParamTimeStep, 0.5),
		maxIterations:        r.count(ParamMaxIterations, 500, 1, 1000000),
		convergenceThreshold: r.nonNegative(ParamConvergenceThreshold, 0.5),
		parentSprings:        r.flag(ParamParentSprings, true),
		margin:               r.nonNegative(ParamMargin, 50),
		seed:                 uint64(r.count(ParamSeed, DefaultSeed, 0, math.MaxInt32)),
	}
	return p, r.err
}

// ForceEngine runs a spring/repulsion simulation over every node.
//
// Edges, and parent links when parent_springs is 1, act as springs of rest
// length spring_length. Every pair of nodes repels with an inverse-square
// force and every node is pulled toward Center. Heavier nodes (mass
// 1 + 0.1 per connection) move less. The simulation stops once the total
// kinetic energy falls below convergence_threshold, or after max_iterations
// ticks without converging.
//
// Nodes start from seeded random positions around Center, or from their
// stored positions when PreservePositions is set.
type ForceEngine struct{}

// NewForce returns a force-directed engine.
func NewForce() *ForceEngine { return &ForceEngine{} }

// Name implements Engine.
func (*ForceEngine) Name() string { return Force }

// ValidateConfig implements Engine.
func (*ForceEngine) ValidateConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	_, err := readForceParams(cfg)
	return err
}

type spring struct{ a, b int }

type body struct {
	pos, vel, force r2.Vec
	mass            float64
}

// CalculateLayout implements Engine.
func (e *ForceEngine) CalculateLayout(g *graph.Graph, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p, err := readForceParams(cfg)
	if err != nil {
		return nil, err
	}
	if g.NodeCount() == 0 {
		return emptyResult(Force), nil
	}

	nodes := g.Nodes()
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	rng := NewLCG(p.seed)
	center := cfg.Center.Vec()
	bodies := make([]body, len(nodes))
	for i, n := range nodes {
		start := n.Position.Vec()
		if !cfg.PreservePositions {
			start = r2.Add(center, r2.Vec{
				X: rng.Range(-0.25, 0.25) * cfg.Width,
				Y: rng.Range(-0.25, 0.25) * cfg.Height,
			})
		}
		bodies[i] = body{pos: start, mass: 1 + 0.1*float64(g.Degree(n.ID))}
	}

	var springs []spring
	for _, ed := range g.Edges() {
		springs = append(springs, spring{index[ed.From], index[ed.To]})
	}
	if p.parentSprings {
		for i, n := range nodes {
			if j, ok := index[n.ParentID]; ok {
				springs = append(springs, spring{j, i})
			}
		}
	}

	sim := simulation{p: p, bodies: bodies, springs: springs, center: center, canvas: cfg.Canvas(p.margin)}
	iterations, kinetic, converged := sim.run()

	positions := make(map[string]graph.Position, len(nodes))
	for i, n := range nodes {
		positions[n.ID] = graph.PositionOf(bodies[i].pos)
	}
	return &Result{
		Algorithm:  Force,
		Positions:  positions,
		Bounds:     boundsOf(positions),
		Converged:  converged,
		Iterations: iterations,
		Energy:     kinetic,
	}, nil
}

type simulation struct {
	p       forceParams
	bodies  []body
	springs []spring
	center  r2.Vec
	canvas  Bounds
}

func (s *simulation) run() (iterations int, kinetic float64, converged bool) {
	for iterations < s.p.maxIterations {
		kinetic = s.tick()
		iterations++
		if kinetic < s.p.convergenceThreshold {
			return iterations, kinetic, true
		}
	}
	return iterations, kinetic, false
}

// tick advances the simulation one step and returns the kinetic energy.
func (s *simulation) tick() float64 {
	b := s.bodies
	for i := range b {
		b[i].force = r2.Vec{}
	}

	for _, sp := range s.springs {
		dir, dist := separation(b[sp.a].pos, b[sp.b].pos, sp.a*len(b)+sp.b)
		f := r2.Scale(s.p.springStrength*(dist-s.p.springLength), dir)
		b[sp.a].force = r2.Add(b[sp.a].force, f)
		b[sp.b].force = r2.Sub(b[sp.b].force, f)
	}

	for i := 0; i < len(b); i++ {
		for j := i + 1; j < len(b); j++ {
			dir, dist := separation(b[i].pos, b[j].pos, i*len(b)+j)
			d := math.Max(dist, 1)
			f := r2.Scale(s.p.repulsionStrength/(d*d), dir)
			b[i].force = r2.Sub(b[i].force, f)
			b[j].force = r2.Add(b[j].force, f)
		}
	}

	var kinetic float64
	dt := s.p.timeStep
	for i := range b {
		bd := &b[i]
		pull := r2.Scale(s.p.centerStrength, r2.Sub(s.center, bd.pos))
		bd.force = r2.Add(bd.force, pull)

		// damp the old velocity, then apply this tick's impulse
		bd.vel = r2.Add(r2.Scale(s.p.damping, bd.vel), r2.Scale(dt/bd.mass, bd.force))
		bd.pos = r2.Add(bd.pos, r2.Scale(dt, bd.vel))
		kinetic += 0.5 * bd.mass * r2.Dot(bd.vel, bd.vel)

		if bd.pos.X < s.canvas.MinX || bd.pos.X > s.canvas.MaxX {
			bd.pos.X = Clamp(bd.pos.X, s.canvas.MinX, s.canvas.MaxX)
			bd.vel.X = 0
		}
		if bd.pos.Y < s.canvas.MinY || bd.pos.Y > s.canvas.MaxY {
			bd.pos.Y = Clamp(bd.pos.Y, s.canvas.MinY, s.canvas.MaxY)
			bd.vel.Y = 0
		}
	}
	return kinetic
}
