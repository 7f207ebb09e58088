package layout

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Orientation is the direction a tree grows in. Offsets are computed with
// x along the sibling axis and y along the depth axis, then mapped to canvas
// coordinates.
type Orientation int

// Tree orientations.
const (
	TopDown   Orientation = iota // (x, y)
	BottomUp                     // (x, -y)
	LeftRight                    // (y, x)
	RightLeft                    // (-y, x)
)

var orientationNames = [...]string{"top-down", "bottom-up", "left-right", "right-left"}

func (o Orientation) String() string {
	if o < TopDown || o > RightLeft {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// ParseOrientation maps a name such as "left-right" to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if s == name {
			return Orientation(i), nil
		}
	}
	return TopDown, fmt.Errorf("unknown orientation %q", s)
}

// Apply maps a tree offset (sibling axis x, depth axis y) to canvas axes.
func (o Orientation) Apply(v r2.Vec) r2.Vec {
	switch o {
	case BottomUp:
		return r2.Vec{X: v.X, Y: -v.Y}
	case LeftRight:
		return r2.Vec{X: v.Y, Y: v.X}
	case RightLeft:
		return r2.Vec{X: -v.Y, Y: v.X}
	default:
		return v
	}
}

// Invert undoes Apply.
func (o Orientation) Invert(v r2.Vec) r2.Vec {
	switch o {
	case BottomUp:
		return r2.Vec{X: v.X, Y: -v.Y}
	case LeftRight:
		return r2.Vec{X: v.Y, Y: v.X}
	case RightLeft:
		return r2.Vec{X: v.Y, Y: -v.X}
	default:
		return v
	}
}
