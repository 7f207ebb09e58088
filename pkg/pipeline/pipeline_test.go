package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/mindlayout/pkg/cache"
	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/layout"
)

func TestValidateEngine(t *testing.T) {
	tests := []struct {
		engine  string
		wantErr bool
	}{
		{"radial", false},
		{"tree", false},
		{"force", false},
		{"Radial", true}, // case-sensitive
		{"spiral", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateEngine(tt.engine)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateEngine(%q) error = %v, wantErr %v", tt.engine, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"dot", false},
		{"json", true},
		{"SVG", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}

	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()

	if opts.Engine != DefaultEngine {
		t.Errorf("Engine should be %s, got %s", DefaultEngine, opts.Engine)
	}
	if opts.Width != DefaultWidth {
		t.Errorf("Width should be %f, got %f", DefaultWidth, opts.Width)
	}
	if opts.Height != DefaultHeight {
		t.Errorf("Height should be %f, got %f", DefaultHeight, opts.Height)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != "svg" {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale should be %v, got %v", DefaultScale, opts.Scale)
	}
}

func TestValidateForLayoutChecksParams(t *testing.T) {
	opts := Options{Engine: "force", Params: map[string]float64{layout.ParamDamping: 3}}
	if err := opts.ValidateForLayout(); err == nil {
		t.Error("out of range engine parameter should fail")
	}

	opts = Options{Engine: "tree", Width: -5}
	if err := opts.ValidateForLayout(); err == nil {
		t.Error("negative width should fail")
	}
}

func TestLayoutConfig(t *testing.T) {
	zero := 0.0
	opts := Options{Width: 400, Height: 300, MinDistance: &zero, RootID: "r", Params: map[string]float64{"k": 1}}
	cfg := opts.LayoutConfig()

	if cfg.Width != 400 || cfg.Height != 300 {
		t.Errorf("canvas = %vx%v, want 400x300", cfg.Width, cfg.Height)
	}
	if cfg.Center != (graph.Position{X: 200, Y: 150}) {
		t.Errorf("Center = %v, want (200,150)", cfg.Center)
	}
	if cfg.MinDistance != 0 {
		t.Errorf("MinDistance = %v, want explicit 0", cfg.MinDistance)
	}
	if cfg.RootID != "r" {
		t.Errorf("RootID = %q, want r", cfg.RootID)
	}

	cfg.Params["k"] = 2
	if opts.Params["k"] != 1 {
		t.Error("LayoutConfig should copy Params")
	}

	if got := (&Options{}).LayoutConfig().MinDistance; got != DefaultMinDistance {
		t.Errorf("default MinDistance = %v, want %v", got, DefaultMinDistance)
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	k := cache.NewDefaultKeyer()
	a := Options{Engine: "radial"}
	b := Options{Engine: "radial", Params: map[string]float64{layout.ParamBaseRadius: 200}}
	if k.LayoutKey("h", a.LayoutKeyOpts()) == k.LayoutKey("h", b.LayoutKeyOpts()) {
		t.Error("params should change the layout key")
	}
	if a.ArtifactKeyOpts("svg") == a.ArtifactKeyOpts("png") {
		t.Error("format should change the artifact key options")
	}
}

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range []graph.Node{
		{ID: "root", Text: "Trip"},
		{ID: "a", Text: "Flights", ParentID: "root"},
		{ID: "b", Text: "Hotels", ParentID: "root"},
		{ID: "c", Text: "Visa", ParentID: "a"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddEdge(graph.Edge{ID: "e", From: "c", To: "b"}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestHashGraphIgnoresTimestamps(t *testing.T) {
	g1 := sampleGraph(t)
	time.Sleep(time.Millisecond)
	g2 := sampleGraph(t)
	if HashGraph(g1) != HashGraph(g2) {
		t.Error("graphs differing only in timestamps should hash equal")
	}

	if err := g2.SetPosition("a", graph.Position{X: 1, Y: 1}); err != nil {
		t.Fatal(err)
	}
	if HashGraph(g1) == HashGraph(g2) {
		t.Error("moving a node should change the hash")
	}
}

func TestRunnerLayoutCache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	defer r.Close()
	g := sampleGraph(t)
	opts := Options{Engine: "tree"}

	first, hit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	if hit {
		t.Error("first run should miss")
	}

	second, hit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second run should hit")
	}
	if len(second.Positions) != len(first.Positions) {
		t.Errorf("cached positions = %d, want %d", len(second.Positions), len(first.Positions))
	}
	for id, p := range first.Positions {
		if second.Positions[id] != p {
			t.Errorf("cached position of %s = %v, want %v", id, second.Positions[id], p)
		}
	}

	opts.Refresh = true
	if _, hit, _ := r.ComputeLayoutWithCacheInfo(ctx, g, opts); hit {
		t.Error("Refresh should bypass the cache")
	}

	if _, hit, _ := r.ComputeLayoutWithCacheInfo(ctx, g, Options{Engine: "radial"}); hit {
		t.Error("a different engine should miss")
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	g := sampleGraph(t)

	res, err := r.Execute(ctx, g, Options{Engine: "radial", Formats: []string{"dot"}, Apply: true, ShowEdges: true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Applied != 4 {
		t.Errorf("Applied = %d, want 4", res.Applied)
	}
	n, _ := g.Node("a")
	if n.Position != res.Layout.Positions["a"] {
		t.Errorf("position of a = %v, want %v", n.Position, res.Layout.Positions["a"])
	}
	dot := string(res.Artifacts["dot"])
	if !strings.Contains(dot, `"c" -> "b"`) {
		t.Errorf("DOT should contain the cross link:\n%s", dot)
	}
	if res.Stats.NodeCount != 4 || res.Stats.EdgeCount != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.GraphHash == "" {
		t.Error("GraphHash should be set")
	}

	if _, err := r.Execute(ctx, g, Options{Formats: []string{"gif"}}); err == nil {
		t.Error("Execute should reject unknown formats")
	}
}

func TestRunnerLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "map.json")
	if err := graph.WriteGraphFile(sampleGraph(t), path); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil, nil, nil)
	g, err := r.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Errorf("NodeCount = %d, want 4", g.NodeCount())
	}

	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Load(ctx, path); err == nil {
		t.Error("Load should fail on malformed JSON")
	}
}
