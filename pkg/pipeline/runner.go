package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindlayout/pkg/cache"
	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/layout"
	"github.com/matzehuels/mindlayout/pkg/observability"
	"github.com/matzehuels/mindlayout/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options, as long as each works on its own graph
// or holds the graph's lock.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Load reads a node-link JSON graph from path.
func (r *Runner) Load(ctx context.Context, path string, opts ...graph.Option) (*graph.Graph, error) {
	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, path)
	g, err := graph.ReadGraphFile(path, opts...)
	nodes := 0
	if g != nil {
		nodes = g.NodeCount()
	}
	observability.Pipeline().OnLoadComplete(ctx, path, nodes, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("loaded graph", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}

// Execute runs layout and render on g with caching. When opts.Apply is
// set the computed positions are written back to g before rendering.
func (r *Runner) Execute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		GraphHash: HashGraph(g),
		Artifacts: make(map[string][]byte),
	}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	layoutStart := time.Now()
	res, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"engine", res.Algorithm,
		"nodes", len(res.Positions),
		"iterations", res.Iterations,
		"converged", res.Converged,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	if opts.Apply {
		result.Applied = layout.Apply(g, res)
	}

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, res, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ComputeLayoutWithCacheInfo computes a layout with caching and reports
// whether the result came from the cache. g is never modified.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (*layout.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.LayoutKey(HashGraph(g), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := layout.UnmarshalResult(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// undecodable entries fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	res, err := ComputeLayout(ctx, g, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := layout.MarshalResult(res); err == nil {
		err := cache.RetryWithBackoff(ctx, 50*time.Millisecond, func() error {
			return r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL)
		})
		if err != nil {
			opts.Logger.Warn("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return res, false, nil
}

// ComputeLayout runs the engine named in opts without caching.
func ComputeLayout(ctx context.Context, g *graph.Graph, opts Options) (*layout.Result, error) {
	opts.SetLayoutDefaults()
	eng, err := layout.New(opts.Engine)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, eng.Name(), g.NodeCount())
	res, err := eng.CalculateLayout(g, opts.LayoutConfig())
	iterations, converged := 0, false
	if res != nil {
		iterations, converged = res.Iterations, res.Converged
	}
	observability.Pipeline().OnLayoutComplete(ctx, eng.Name(), iterations, converged, time.Since(start), err)
	return res, err
}

// RenderWithCacheInfo renders every requested format and reports whether
// all of them came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, res *layout.Result, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	data, err := layout.MarshalResult(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	// Labels come from the graph, so its hash is part of the key too.
	layoutHash := cache.Hash([]byte(HashGraph(g) + ":" + cache.Hash(data)))

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := Render(ctx, g, res, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render draws g at the positions in res in every requested format.
func Render(ctx context.Context, g *graph.Graph, res *layout.Result, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	dot := render.ToDOT(g, res.Positions, render.Options{ShowEdges: opts.ShowEdges, Detailed: opts.Detailed})

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		start := time.Now()
		observability.Pipeline().OnRenderStart(ctx, format)
		data, err := render.Render(ctx, dot, format, opts.Scale)
		observability.Pipeline().OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// HashGraph returns a content hash of everything in g that can change a
// layout or a drawing. Timestamps and metadata are left out, so reloading an
// unchanged file gives the same hash.
func HashGraph(g *graph.Graph) string {
	type node struct {
		ID       string         `json:"i"`
		Text     string         `json:"t"`
		ParentID string         `json:"p,omitempty"`
		Position graph.Position `json:"x"`
		Tags     []string       `json:"g,omitempty"`
	}
	type doc struct {
		Nodes []node       `json:"n"`
		Edges []graph.Edge `json:"e"`
	}
	d := doc{Edges: g.Edges()}
	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, node{ID: n.ID, Text: n.Text, ParentID: n.ParentID, Position: n.Position, Tags: n.Tags})
	}
	data, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
