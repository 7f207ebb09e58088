package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/mindlayout/pkg/graph"
)

func sample(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range []graph.Node{
		{ID: "root", Text: "Launch", Position: graph.Position{X: 100, Y: 50}},
		{ID: "a", Text: "Docs", ParentID: "root", Tags: []string{"writing", "docs"}},
		{ID: "b", Text: strings.Repeat("x", 60), ParentID: "root"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddEdge(graph.Edge{ID: "e", From: "a", To: "b", Label: "blocks"}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	g := sample(t)
	positions := map[string]graph.Position{"a": {X: 10, Y: 20}}
	dot := ToDOT(g, positions, Options{})

	for _, want := range []string{
		"digraph G",
		"layout=neato",
		`"root" [label="Launch", pos="100.00,-50.00!", penwidth=2]`,
		`"a" [label="Docs", pos="10.00,-20.00!"]`,
		`"root" -> "a" [arrowhead=none]`,
		`"root" -> "b" [arrowhead=none]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"a" -> "b"`) {
		t.Error("cross links should be hidden without ShowEdges")
	}
}

func TestToDOTShowEdgesAndDetails(t *testing.T) {
	dot := ToDOT(sample(t), nil, Options{ShowEdges: true, Detailed: true})

	if !strings.Contains(dot, `"a" -> "b" [style=dashed, color=grey40, label="blocks"]`) {
		t.Errorf("ToDOT() missing cross link:\n%s", dot)
	}
	if !strings.Contains(dot, `label="Docs\n#docs #writing"`) {
		t.Errorf("ToDOT() detailed label should list sorted tags:\n%s", dot)
	}
}

func TestLabelTruncation(t *testing.T) {
	got := fmtLabel(graph.Node{Text: strings.Repeat("é", 100)}, false)
	if n := len([]rune(got)); n != MaxLabelLength {
		t.Errorf("label length = %d, want %d", n, MaxLabelLength)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated label should end with an ellipsis: %q", got)
	}
	if got := fmtLabel(graph.Node{Text: "short"}, true); got != "short" {
		t.Errorf("fmtLabel = %q, want short", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="200pt" height="100pt" viewBox="0.00 0.00 200.00 100.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0.00 0.00 200.00 100.00" width="200" height="100">`
	if !strings.HasPrefix(out, want) {
		t.Errorf("normalizeViewBox() = %s, want prefix %s", out, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("svg without viewBox should be unchanged, got %s", got)
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	dot := ToDOT(sample(t), nil, Options{ShowEdges: true})

	out, err := Render(ctx, dot, FormatDOT, 1)
	if err != nil || string(out) != dot {
		t.Errorf("Render(dot) = %v, want the DOT source", err)
	}

	if _, err := Render(ctx, dot, "gif", 1); err == nil {
		t.Error("Render() should reject unknown formats")
	}

	svg, err := Render(ctx, dot, FormatSVG, 1)
	if err != nil {
		t.Fatalf("Render(svg): %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "Launch") {
		t.Errorf("SVG output missing content:\n%s", svg)
	}
}

func TestConvertWithoutRsvg(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := ToPNG(context.Background(), []byte("<svg/>"), 2)
	if !errors.Is(err, ErrNoConverter) {
		t.Errorf("ToPNG error = %v, want ErrNoConverter", err)
	}
	_, err = Render(context.Background(), "digraph G {}", FormatPDF, 1)
	if err == nil {
		t.Error("PDF render without rsvg-convert should fail")
	}
}
