// Package pipeline provides the load → layout → render flow shared by the
// CLI and the HTTP server.
//
// By centralizing this logic, every entry point applies the same defaults,
// the same cache keys and the same observability events.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a node-link JSON graph from disk or a store
//  2. Layout: Compute positions with one of the layout engines
//  3. Render: Draw the positioned graph (SVG, PNG, PDF, DOT)
//
// Layout and render results are cached by content hash, so re-running on an
// unchanged graph with unchanged options skips the engine entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	g, err := runner.Load(ctx, "plans.json")
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, g, pipeline.Options{Engine: "tree"})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindlayout/pkg/cache"
	"github.com/matzehuels/mindlayout/pkg/layout"
	"github.com/matzehuels/mindlayout/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultEngine is the layout engine used when none is named.
	DefaultEngine = layout.Radial

	// DefaultWidth is the default canvas width.
	DefaultWidth = layout.DefaultWidth

	// DefaultHeight is the default canvas height.
	DefaultHeight = layout.DefaultHeight

	// DefaultMinDistance is the default minimum node spacing.
	DefaultMinDistance = layout.DefaultMinDistance

	// DefaultScale is the default PNG scale factor.
	DefaultScale = 2.0
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Engine            string             `json:"engine,omitempty"`
	Width             float64            `json:"width,omitempty"`
	Height            float64            `json:"height,omitempty"`
	MinDistance       *float64           `json:"min_distance,omitempty"`
	RootID            string             `json:"root_id,omitempty"`
	PreservePositions bool               `json:"preserve_positions,omitempty"`
	Params            map[string]float64 `json:"params,omitempty"`
	Apply             bool               `json:"apply,omitempty"`
	Refresh           bool               `json:"refresh,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	ShowEdges bool     `json:"show_edges,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`
	Scale     float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Layout is the computed layout.
	Layout *layout.Result

	// Applied is the number of positions written back when Options.Apply is set.
	Applied int

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateEngine checks that an engine name is registered.
func ValidateEngine(name string) error {
	if !slices.Contains(layout.Names(), name) {
		return fmt.Errorf("invalid engine: %q (must be one of: %s)", name, strings.Join(layout.Names(), ", "))
	}
	return nil
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(render.Formats, format) {
		return fmt.Errorf("invalid format: %q (must be one of: %s)", format, strings.Join(render.Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout sets defaults and checks the layout options, including
// the engine-specific parameter ranges.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	eng, err := layout.New(o.Engine)
	if err != nil {
		return err
	}
	return eng.ValidateConfig(o.LayoutConfig())
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{render.FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// LayoutConfig converts the options to an engine config.
func (o *Options) LayoutConfig() layout.Config {
	cfg := layout.DefaultConfig()
	if o.Width != 0 {
		cfg.Width = o.Width
	}
	if o.Height != 0 {
		cfg.Height = o.Height
	}
	cfg.Center.X = cfg.Width / 2
	cfg.Center.Y = cfg.Height / 2
	if o.MinDistance != nil {
		cfg.MinDistance = *o.MinDistance
	}
	cfg.RootID = o.RootID
	cfg.PreservePositions = o.PreservePositions
	if len(o.Params) > 0 {
		cfg.Params = maps.Clone(o.Params)
	}
	return cfg
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	cfg := o.LayoutConfig()
	return cache.LayoutKeyOpts{
		Engine:            o.Engine,
		Width:             cfg.Width,
		Height:            cfg.Height,
		CenterX:           cfg.Center.X,
		CenterY:           cfg.Center.Y,
		MinDistance:       cfg.MinDistance,
		PreservePositions: cfg.PreservePositions,
		RootID:            cfg.RootID,
		Params:            cfg.Params,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		ShowEdges: o.ShowEdges,
		Detailed:  o.Detailed,
		Scale:     o.Scale,
	}
}
