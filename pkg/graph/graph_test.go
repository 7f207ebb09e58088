package graph

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mindlayout/pkg/errors"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

// buildTree returns root -> {a -> {a1, a2}, b} plus an edge a1 -> b.
func buildTree(t *testing.T) *Graph {
	t.Helper()
	g := New(WithClock(fixedClock()))
	require.NoError(t, g.AddNode(Node{ID: "root", Text: "Root"}))
	require.NoError(t, g.AddNode(Node{ID: "a", Text: "A", ParentID: "root"}))
	require.NoError(t, g.AddNode(Node{ID: "a1", Text: "A1", ParentID: "a"}))
	require.NoError(t, g.AddNode(Node{ID: "a2", Text: "A2", ParentID: "a"}))
	require.NoError(t, g.AddNode(Node{ID: "b", Text: "B", ParentID: "root"}))
	require.NoError(t, g.AddEdge(Edge{ID: "e1", From: "a1", To: "b", Label: "see"}))
	return g
}

type recordingIndexer struct {
	indexed []string
	removed []string
}

func (r *recordingIndexer) IndexNode(n Node)     { r.indexed = append(r.indexed, n.ID) }
func (r *recordingIndexer) RemoveNode(id string) { r.removed = append(r.removed, id) }

func TestAddNode(t *testing.T) {
	tests := []struct {
		name string
		node Node
		code errors.Code
	}{
		{"EmptyID", Node{Text: "x"}, errors.ErrCodeInvalidOperation},
		{"EmptyText", Node{ID: "n", Text: "  "}, errors.ErrCodeInvalidOperation},
		{"Oversized", Node{ID: "n", Text: string(make([]rune, MaxTextLength+1))}, errors.ErrCodeInvalidOperation},
		{"NaNPosition", Node{ID: "n", Text: "x", Position: Position{X: math.NaN()}}, errors.ErrCodeInvalidOperation},
		{"InfPosition", Node{ID: "n", Text: "x", Position: Position{Y: math.Inf(1)}}, errors.ErrCodeInvalidOperation},
		{"SelfParent", Node{ID: "n", Text: "x", ParentID: "n"}, errors.ErrCodeInvalidOperation},
		{"MissingParent", Node{ID: "n", Text: "x", ParentID: "ghost"}, errors.ErrCodeInvalidOperation},
		{"Duplicate", Node{ID: "root", Text: "again"}, errors.ErrCodeInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildTree(t)
			before := g.NodeCount()
			err := g.AddNode(tt.node)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			assert.Equal(t, before, g.NodeCount(), "failed add must not mutate")
			assert.NoError(t, g.Validate())
		})
	}
}

func TestAddNodeSetsTimestamps(t *testing.T) {
	g := New(WithClock(fixedClock()))
	require.NoError(t, g.AddNode(Node{ID: "n", Text: "x"}))
	n, ok := g.Node("n")
	require.True(t, ok)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Equal(t, n.CreatedAt, n.UpdatedAt)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	g := buildTree(t)
	nodes, edges := g.NodeCount(), g.EdgeCount()

	require.NoError(t, g.AddNode(Node{ID: "tmp", Text: "Tmp", ParentID: "a"}))
	require.NoError(t, g.AddEdge(Edge{ID: "e2", From: "tmp", To: "root"}))
	require.NoError(t, g.RemoveNode("tmp"))

	assert.Equal(t, nodes, g.NodeCount())
	assert.Equal(t, edges, g.EdgeCount())
	assert.Equal(t, []string{"a1", "a2"}, g.Children("a"))
	assert.NoError(t, g.Validate())
}

func TestRemoveNodeCascades(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.RemoveNode("a"))

	assert.False(t, g.HasNode("a"))
	assert.Equal(t, 1, g.EdgeCount(), "edges of surviving children are kept")
	assert.Equal(t, []string{"b"}, g.Children("root"))

	a1, _ := g.Node("a1")
	assert.True(t, a1.IsRoot(), "children of a removed node become roots")
	assert.Equal(t, []string{"root", "a1", "a2"}, g.RootNodes())
	assert.NoError(t, g.Validate())

	require.NoError(t, g.RemoveNode("a1"))
	assert.Equal(t, 0, g.EdgeCount())

	err := g.RemoveNode("a")
	assert.True(t, errors.Is(err, errors.ErrCodeNodeNotFound))
}

func TestUpdateNode(t *testing.T) {
	g := buildTree(t)
	before, _ := g.Node("a2")

	moved := before
	moved.ParentID = "b"
	moved.Text = "Moved"
	require.NoError(t, g.UpdateNode(moved))

	after, _ := g.Node("a2")
	assert.Equal(t, "Moved", after.Text)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, []string{"a1"}, g.Children("a"))
	assert.Equal(t, []string{"a2"}, g.Children("b"))
	assert.NoError(t, g.Validate())

	err := g.UpdateNode(Node{ID: "ghost", Text: "x"})
	assert.True(t, errors.Is(err, errors.ErrCodeNodeNotFound))

	moved.ParentID = "ghost"
	err = g.UpdateNode(moved)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOperation))

	moved.ParentID = moved.ID
	err = g.UpdateNode(moved)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOperation))
}

func TestAccessorsReturnCopies(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(Node{ID: "n", Text: "x", Tags: []string{"t"}, Metadata: Metadata{"k": "v"}}))

	n, _ := g.Node("n")
	n.Tags[0] = "changed"
	n.Metadata["k"] = "changed"
	n.Text = "changed"

	again, _ := g.Node("n")
	assert.Equal(t, "x", again.Text)
	assert.Equal(t, []string{"t"}, again.Tags)
	assert.Equal(t, "v", again.Metadata["k"])
}

func TestSetPosition(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.SetPosition("a", Position{X: 10, Y: 20}))
	n, _ := g.Node("a")
	assert.Equal(t, Position{X: 10, Y: 20}, n.Position)

	assert.True(t, errors.Is(g.SetPosition("ghost", Position{}), errors.ErrCodeNodeNotFound))
	assert.True(t, errors.Is(g.SetPosition("a", Position{X: math.NaN()}), errors.ErrCodeInvalidOperation))
}

func TestAddEdge(t *testing.T) {
	tests := []struct {
		name string
		edge Edge
		code errors.Code
	}{
		{"EmptyID", Edge{From: "a", To: "b"}, errors.ErrCodeInvalidOperation},
		{"DuplicateID", Edge{ID: "e1", From: "a", To: "b"}, errors.ErrCodeInvalidOperation},
		{"MissingFrom", Edge{ID: "x", From: "ghost", To: "b"}, errors.ErrCodeNodeNotFound},
		{"MissingTo", Edge{ID: "x", From: "a", To: "ghost"}, errors.ErrCodeNodeNotFound},
		{"SelfLoop", Edge{ID: "x", From: "a", To: "a"}, errors.ErrCodeInvalidOperation},
		{"DuplicatePair", Edge{ID: "x", From: "a1", To: "b"}, errors.ErrCodeInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildTree(t)
			err := g.AddEdge(tt.edge)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			assert.Equal(t, 1, g.EdgeCount())
		})
	}

	g := buildTree(t)
	require.NoError(t, g.AddEdge(Edge{ID: "back", From: "b", To: "a1"}), "reverse direction is a different pair")
	assert.Len(t, g.OutgoingEdges("b"), 1)
	assert.Len(t, g.IncomingEdges("b"), 1)
}

func TestRemoveEdge(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.RemoveEdge("e1"))
	assert.Empty(t, g.OutgoingEdges("a1"))
	assert.Empty(t, g.IncomingEdges("b"))
	assert.NoError(t, g.Validate())

	assert.True(t, errors.Is(g.RemoveEdge("e1"), errors.ErrCodeEdgeNotFound))
}

func TestQueries(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.AddEdge(Edge{ID: "e2", From: "root", To: "a1"}))

	assert.Equal(t, []string{"root", "a", "a1", "a2", "b"}, g.NodeIDs())
	assert.Equal(t, []string{"root"}, g.RootNodes())
	assert.Equal(t, []string{"a", "b"}, g.Children("root"))
	assert.Nil(t, g.Children("a2"))

	p, ok := g.Parent("a1")
	require.True(t, ok)
	assert.Equal(t, "a", p.ID)
	_, ok = g.Parent("root")
	assert.False(t, ok)

	assert.Equal(t, []string{"b", "root"}, g.Neighbors("a1"))
	assert.Empty(t, g.Neighbors("a2"))

	// a1: two edges + parent link.
	assert.Equal(t, 3, g.Degree("a1"))
	// root: one edge + two children.
	assert.Equal(t, 3, g.Degree("root"))
	assert.Equal(t, 0, g.Degree("ghost"))

	edges := g.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, "e1", edges[0].ID)
	assert.Equal(t, "e2", edges[1].ID)
}

func TestHasPath(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.AddNode(Node{ID: "c", Text: "C", ParentID: "root"}))
	require.NoError(t, g.AddEdge(Edge{ID: "e2", From: "c", To: "b"}))

	assert.True(t, g.HasPath("a1", "b"))
	assert.True(t, g.HasPath("b", "a1"), "reachability ignores edge direction")
	assert.True(t, g.HasPath("a1", "c"))
	assert.False(t, g.HasPath("a1", "a2"), "parent links are not edges")
	assert.False(t, g.HasPath("a1", "ghost"))
	assert.True(t, g.HasPath("a2", "a2"))

	assert.True(t, g.WouldCreateCycle("a1", "c"))
	assert.True(t, g.WouldCreateCycle("a2", "a2"))
	assert.False(t, g.WouldCreateCycle("a2", "b"))
}

func TestClear(t *testing.T) {
	ix := &recordingIndexer{}
	g := New(WithIndexer(ix))
	require.NoError(t, g.AddNode(Node{ID: "a", Text: "A"}))
	require.NoError(t, g.AddNode(Node{ID: "b", Text: "B"}))
	require.NoError(t, g.AddEdge(Edge{ID: "e", From: "a", To: "b"}))

	g.Clear()
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, []string{"a", "b"}, ix.removed)
	assert.NoError(t, g.Validate())
	require.NoError(t, g.AddNode(Node{ID: "a", Text: "A"}))
}

func TestIndexerNotifications(t *testing.T) {
	ix := &recordingIndexer{}
	g := New(WithIndexer(ix))
	require.NoError(t, g.AddNode(Node{ID: "p", Text: "P"}))
	require.NoError(t, g.AddNode(Node{ID: "c", Text: "C", ParentID: "p"}))
	require.NoError(t, g.SetPosition("c", Position{X: 1}))
	require.NoError(t, g.RemoveNode("p"))

	// c is re-indexed after becoming a root.
	assert.Equal(t, []string{"p", "c", "c"}, ix.indexed)
	assert.Equal(t, []string{"p"}, ix.removed)

	late := &recordingIndexer{}
	g.SetIndexer(late)
	assert.Equal(t, []string{"c"}, late.indexed)
}

func TestValidateDetectsCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(g *Graph)
	}{
		{"DanglingParent", func(g *Graph) { g.nodes["a1"].ParentID = "ghost" }},
		{"StaleChildIndex", func(g *Graph) { g.children["b"] = append(g.children["b"], "a1") }},
		{"DanglingEdge", func(g *Graph) { g.edges["e1"].To = "ghost" }},
		{"MissingOutgoing", func(g *Graph) { delete(g.outgoing, "a1") }},
		{"ExtraIncoming", func(g *Graph) { addToSet(g.incoming, "root", "e1") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildTree(t)
			require.NoError(t, g.Validate())
			tt.corrupt(g)
			err := g.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidOperation))
		})
	}
}

func TestNewNode(t *testing.T) {
	a, b := NewNode("a"), NewNode("b")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.IsRoot())

	e := NewEdge(a.ID, b.ID)
	assert.NotEmpty(t, e.ID)
}

func TestPositionVec(t *testing.T) {
	p := Position{X: 3, Y: -4}
	assert.Equal(t, p, PositionOf(p.Vec()))
}
