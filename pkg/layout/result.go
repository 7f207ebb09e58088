package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/mindlayout/pkg/graph"
)

// Result is the output of one CalculateLayout call.
type Result struct {
	Algorithm  string                    `json:"algorithm"`
	Positions  map[string]graph.Position `json:"positions"`
	Bounds     Bounds                    `json:"bounds"`
	Converged  bool                      `json:"converged"`
	Iterations int                       `json:"iterations"`
	// Energy is an engine-specific quality score; lower is better.
	Energy float64 `json:"energy"`
}

// NodeIDs returns the IDs in Positions in sorted order.
func (r *Result) NodeIDs() []string {
	ids := make([]string, 0, len(r.Positions))
	for id := range r.Positions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Bounds is an axis-aligned rectangle.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// BoundsFromPoints returns the smallest rectangle holding every point.
// An empty slice gives the zero rectangle.
func BoundsFromPoints(points []graph.Position) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

func boundsOf(positions map[string]graph.Position) Bounds {
	pts := make([]graph.Position, 0, len(positions))
	for _, p := range positions {
		pts = append(pts, p)
	}
	return BoundsFromPoints(pts)
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() graph.Position {
	return graph.Position{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Area returns Width * Height.
func (b Bounds) Area() float64 { return b.Width() * b.Height() }

// Contains reports whether p lies inside or on the edge of b.
func (b Bounds) Contains(p graph.Position) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Expand grows b by margin on every side.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{MinX: b.MinX - margin, MinY: b.MinY - margin, MaxX: b.MaxX + margin, MaxY: b.MaxY + margin}
}

// FitScale returns the largest uniform scale at which b fits into a
// width x height box with margin on every side. Degenerate axes do not
// constrain the scale; a point-sized b returns 1.
func (b Bounds) FitScale(width, height, margin float64) float64 {
	availW := math.Max(width-2*margin, 0)
	availH := math.Max(height-2*margin, 0)
	scale := math.Inf(1)
	if w := b.Width(); w > 0 {
		scale = math.Min(scale, availW/w)
	}
	if h := b.Height(); h > 0 {
		scale = math.Min(scale, availH/h)
	}
	if math.IsInf(scale, 1) {
		return 1
	}
	return scale
}

// Clamp returns p moved onto the nearest point of b.
func (b Bounds) Clamp(p graph.Position) graph.Position {
	return graph.Position{X: Clamp(p.X, b.MinX, b.MaxX), Y: Clamp(p.Y, b.MinY, b.MaxY)}
}
