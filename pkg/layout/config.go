package layout

import (
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/matzehuels/mindlayout/pkg/errors"
	"github.com/matzehuels/mindlayout/pkg/graph"
)

// Default canvas settings.
const (
	DefaultWidth       = 1200.0
	DefaultHeight      = 800.0
	DefaultMinDistance = 50.0
)

// Config is the input shared by every engine.
type Config struct {
	Width       float64        `json:"width"`
	Height      float64        `json:"height"`
	Center      graph.Position `json:"center"`
	MinDistance float64        `json:"min_distance"`

	// PreservePositions keeps the layout anchored to existing node positions
	// instead of the canvas. Its exact effect is engine specific.
	PreservePositions bool `json:"preserve_positions,omitempty"`

	// RootID forces the root used by the radial and tree engines.
	RootID string `json:"root_id,omitempty"`

	// Params holds engine parameters keyed by snake_case name.
	Params map[string]float64 `json:"params,omitempty"`
}

// DefaultConfig returns a 1200x800 canvas centered at (600, 400).
func DefaultConfig() Config {
	return Config{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Center:      graph.Position{X: DefaultWidth / 2, Y: DefaultHeight / 2},
		MinDistance: DefaultMinDistance,
	}
}

// Param returns the parameter named key, or def when unset.
func (c Config) Param(key string, def float64) float64 {
	if v, ok := c.Params[key]; ok {
		return v
	}
	return def
}

// WithParam returns a copy of c with key set to v.
func (c Config) WithParam(key string, v float64) Config {
	params := make(map[string]float64, len(c.Params)+1)
	maps.Copy(params, c.Params)
	params[key] = v
	c.Params = params
	return c
}

// Canvas returns the rectangle (0,0)-(Width,Height) shrunk by margin on
// every side. A margin too large for the canvas collapses to the midline.
func (c Config) Canvas(margin float64) Bounds {
	b := Bounds{MinX: margin, MinY: margin, MaxX: c.Width - margin, MaxY: c.Height - margin}
	if b.MinX > b.MaxX {
		b.MinX, b.MaxX = c.Width/2, c.Width/2
	}
	if b.MinY > b.MaxY {
		b.MinY, b.MaxY = c.Height/2, c.Height/2
	}
	return b
}

func (c Config) validate() error {
	if !isFinite(c.Width) || c.Width <= 0 {
		return errors.InvalidOperation("canvas width must be positive, got %v", c.Width)
	}
	if !isFinite(c.Height) || c.Height <= 0 {
		return errors.InvalidOperation("canvas height must be positive, got %v", c.Height)
	}
	if !isFinite(c.Center.X) || !isFinite(c.Center.Y) {
		return errors.InvalidOperation("canvas center must be finite, got %v", c.Center)
	}
	if !isFinite(c.MinDistance) || c.MinDistance < 0 {
		return errors.InvalidOperation("min distance must be non-negative, got %v", c.MinDistance)
	}
	for _, k := range slices.Sorted(maps.Keys(c.Params)) {
		if v := c.Params[k]; !isFinite(v) {
			return errors.InvalidOperation("parameter %s must be finite, got %v", k, v)
		}
	}
	return nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// paramReader reads engine parameters and records the first range error.
type paramReader struct {
	cfg Config
	err error
}

func (p *paramReader) fail(key string, v float64, want string) {
	if p.err == nil {
		p.err = errors.InvalidOperation("parameter %s = %v out of range (want %s)", key, v, want)
	}
}

func (p *paramReader) positive(key string, def float64) float64 {
	v := p.cfg.Param(key, def)
	if v <= 0 {
		p.fail(key, v, "> 0")
	}
	return v
}

func (p *paramReader) nonNegative(key string, def float64) float64 {
	v := p.cfg.Param(key, def)
	if v < 0 {
		p.fail(key, v, ">= 0")
	}
	return v
}

// unit reads a value in the half-open interval (0, 1].
func (p *paramReader) unit(key string, def float64) float64 {
	v := p.cfg.Param(key, def)
	if v <= 0 || v > 1 {
		p.fail(key, v, "in (0, 1]")
	}
	return v
}

func (p *paramReader) count(key string, def, lo, hi int) int {
	v := p.cfg.Param(key, float64(def))
	if v != math.Trunc(v) || v < float64(lo) || v > float64(hi) {
		p.fail(key, v, "an integer in ["+strconv.Itoa(lo)+", "+strconv.Itoa(hi)+"]")
		return def
	}
	return int(v)
}

func (p *paramReader) flag(key string, def bool) bool {
	d := 0.0
	if def {
		d = 1
	}
	v := p.cfg.Param(key, d)
	if v != 0 && v != 1 {
		p.fail(key, v, "0 or 1")
		return def
	}
	return v == 1
}

func (p *paramReader) any(key string, def float64) float64 { return p.cfg.Param(key, def) }
