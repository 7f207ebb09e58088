package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mindlayout/pkg/graph"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"2025", "plan", "q3", "roadmap"}, Tokenize("Roadmap: Q3/2025 plan, plan!"))
	assert.Empty(t, Tokenize("  -- "))
	assert.Equal(t, []string{"café", "menü"}, Tokenize("Menü CAFÉ"))
}

func TestIndexFollowsGraph(t *testing.T) {
	ix := New()
	g := graph.New(graph.WithIndexer(ix))

	require.NoError(t, g.AddNode(graph.Node{ID: "root", Text: "Product roadmap", Tags: []string{"Planning"}}))
	require.NoError(t, g.AddNode(graph.Node{ID: "a", Text: "Hiring plan", ParentID: "root", Tags: []string{"people", "planning"}}))
	require.NoError(t, g.AddNode(graph.Node{ID: "b", Text: "Budget review", ParentID: "root"}))
	assert.Equal(t, 3, ix.Len())

	assert.Equal(t, []string{"a"}, ix.Search("plan"))
	assert.Equal(t, []string{"a", "root"}, ix.SearchTag("PLANNING"))
	assert.Equal(t, []string{"b"}, ix.Search("rev bud"), "every token must match a word prefix")
	assert.Nil(t, ix.Search("roadmap budget"))
	assert.Nil(t, ix.Search("   "))
	assert.Equal(t, []string{"people", "planning"}, ix.Tags())

	n, _ := g.Node("b")
	n.Text = "Budget forecast"
	require.NoError(t, g.UpdateNode(n))
	assert.Nil(t, ix.Search("review"), "stale tokens are dropped on update")
	assert.Equal(t, []string{"b"}, ix.Search("fore"))

	require.NoError(t, g.RemoveNode("a"))
	assert.Nil(t, ix.Search("hiring"))
	assert.Equal(t, []string{"root"}, ix.SearchTag("planning"))
	assert.Equal(t, 2, ix.Len())
}

func TestIndexAttachedLater(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(graph.Node{ID: "x", Text: "Existing idea"}))

	ix := New()
	g.SetIndexer(ix)
	assert.Equal(t, []string{"x"}, ix.Search("idea"))
}

func TestIndexPrefixDoesNotLeakIntoTags(t *testing.T) {
	ix := New()
	ix.IndexNode(graph.Node{ID: "n", Text: "gamma", Tags: []string{"alpha"}})
	assert.Nil(t, ix.Search("alpha"), "tags are not text")
	assert.Nil(t, ix.SearchTag("gamma"))
	assert.Nil(t, ix.SearchTag("alp"), "tag lookups are exact")
}
