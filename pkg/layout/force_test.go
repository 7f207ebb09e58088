package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mindlayout/pkg/errors"
	"github.com/matzehuels/mindlayout/pkg/graph"
)

func meshGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := fanTree(t, 3, 2)
	mustEdge(t, g, "c0.0", "c1.1")
	mustEdge(t, g, "c2.1", "c0")
	mustAdd(t, g, "loner", "")
	return g
}

func TestForceDeterministic(t *testing.T) {
	g := meshGraph(t)
	cfg := DefaultConfig().WithParam(ParamSeed, 7)

	a, err := NewForce().CalculateLayout(g, cfg)
	require.NoError(t, err)
	b, err := NewForce().CalculateLayout(g, cfg)
	require.NoError(t, err)

	require.Equal(t, a.NodeIDs(), b.NodeIDs())
	for id, p := range a.Positions {
		assert.InDelta(t, p.X, b.Positions[id].X, 0.01, id)
		assert.InDelta(t, p.Y, b.Positions[id].Y, 0.01, id)
	}
	assert.Equal(t, a.Iterations, b.Iterations)
	assert.Equal(t, a.Converged, b.Converged)
}

func TestForceSeedMatters(t *testing.T) {
	g := meshGraph(t)
	a, err := NewForce().CalculateLayout(g, DefaultConfig().WithParam(ParamSeed, 1))
	require.NoError(t, err)
	b, err := NewForce().CalculateLayout(g, DefaultConfig().WithParam(ParamSeed, 2))
	require.NoError(t, err)
	assert.NotEqual(t, a.Positions, b.Positions)
}

func TestForceStaysOnCanvas(t *testing.T) {
	g := meshGraph(t)
	cfg := DefaultConfig()
	res, err := NewForce().CalculateLayout(g, cfg)
	require.NoError(t, err)

	assert.Len(t, res.Positions, g.NodeCount(), "every node is placed, connected or not")
	canvas := cfg.Canvas(50)
	for id, p := range res.Positions {
		assert.True(t, canvas.Contains(p), "%s at %v", id, p)
	}
	assert.GreaterOrEqual(t, res.Iterations, 1)
	assert.LessOrEqual(t, res.Iterations, 500)
	if !res.Converged {
		assert.Equal(t, 500, res.Iterations)
	}
	assert.GreaterOrEqual(t, res.Energy, 0.0)
}

func TestForceIterationCap(t *testing.T) {
	g := meshGraph(t)
	cfg := DefaultConfig().
		WithParam(ParamMaxIterations, 3).
		WithParam(ParamConvergenceThreshold, 0)

	res, err := NewForce().CalculateLayout(g, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Iterations)
	assert.False(t, res.Converged)
}

func TestForceConvergesAtRest(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(graph.Node{ID: "a", Text: "a", Position: graph.Position{X: 600, Y: 400}}))

	cfg := DefaultConfig()
	cfg.PreservePositions = true
	res, err := NewForce().CalculateLayout(g, cfg)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, graph.Position{X: 600, Y: 400}, res.Positions["a"])
	assert.Zero(t, res.Energy)
}

func TestForceDampsBeforeImpulse(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(graph.Node{ID: "a", Text: "a", Position: graph.Position{X: 500, Y: 400}}))

	cfg := DefaultConfig().
		WithParam(ParamCenterStrength, 0.1).
		WithParam(ParamDamping, 0.5).
		WithParam(ParamTimeStep, 1).
		WithParam(ParamMaxIterations, 1)
	cfg.PreservePositions = true

	res, err := NewForce().CalculateLayout(g, cfg)
	require.NoError(t, err)
	// pull 0.1*(600-500) = 10 on a resting unit mass: v = 0.5*0 + 10, x = 500 + 10
	assert.InDelta(t, 510, res.Positions["a"].X, 1e-9)
	assert.InDelta(t, 400, res.Positions["a"].Y, 1e-9)
	assert.InDelta(t, 50, res.Energy, 1e-9)
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Converged)
}

func TestForceSpringRestLength(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(graph.Node{ID: "a", Text: "a", Position: graph.Position{X: 500, Y: 400}}))
	require.NoError(t, g.AddNode(graph.Node{ID: "b", Text: "b", Position: graph.Position{X: 700, Y: 400}}))
	mustEdge(t, g, "a", "b")

	cfg := DefaultConfig().
		WithParam(ParamRepulsionStrength, 0).
		WithParam(ParamCenterStrength, 0).
		WithParam(ParamConvergenceThreshold, 1e-9).
		WithParam(ParamMaxIterations, 5000)
	cfg.PreservePositions = true

	res, err := NewForce().CalculateLayout(g, cfg)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 100, Distance(res.Positions["a"], res.Positions["b"]), 0.1)
	assert.InDelta(t, 400, res.Positions["a"].Y, 1e-9, "motion stays on the spring axis")
}

func TestForceParamValidation(t *testing.T) {
	tests := []struct {
		key string
		val float64
	}{
		{ParamSpringStrength, -1},
		{ParamSpringLength, 0},
		{ParamRepulsionStrength, -1},
		{ParamDamping, 0},
		{ParamDamping, 1.5},
		{ParamCenterStrength, -0.1},
		{ParamTimeStep, 0},
		{ParamTimeStep, 2},
		{ParamMaxIterations, 0},
		{ParamConvergenceThreshold, -1},
		{ParamParentSprings, 0.5},
		{ParamSeed, -1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := NewForce().ValidateConfig(DefaultConfig().WithParam(tt.key, tt.val))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidOperation))
		})
	}
}
