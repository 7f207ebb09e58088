package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/mindlayout/pkg/graph"
)

// Distance returns the Euclidean distance between a and b.
func Distance(a, b graph.Position) float64 {
	return r2.Norm(r2.Sub(b.Vec(), a.Vec()))
}

// ToPolar returns p relative to center as a radius and an angle in radians.
func ToPolar(center, p graph.Position) (r, theta float64) {
	d := r2.Sub(p.Vec(), center.Vec())
	return r2.Norm(d), math.Atan2(d.Y, d.X)
}

// FromPolar returns the point at radius r and angle theta around center.
func FromPolar(center graph.Position, r, theta float64) graph.Position {
	return graph.PositionOf(r2.Add(center.Vec(), r2.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)}))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// goldenAngle spreads fallback directions for coincident points.
const goldenAngle = 2.399963229728653

// separation returns the unit vector pointing from a to b. Coincident points
// get a fixed direction derived from salt so results stay deterministic.
func separation(a, b r2.Vec, salt int) (r2.Vec, float64) {
	d := r2.Sub(b, a)
	dist := r2.Norm(d)
	if dist < 1e-9 {
		theta := float64(salt) * goldenAngle
		return r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)}, 0
	}
	return r2.Scale(1/dist, d), dist
}
