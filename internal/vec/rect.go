package vec

import "math"

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NewRect creates a rectangle from two corner points (normalized so Min <= Max).
func NewRect(p1, p2 Point) Rect {
	return Rect{
		Min: Point{X: math.Min(p1.X, p2.X), Y: math.Min(p1.Y, p2.Y)},
		Max: Point{X: math.Max(p1.X, p2.X), Y: math.Max(p1.Y, p2.Y)},
	}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Min: Point{X: math.Min(r.Min.X, other.Min.X), Y: math.Min(r.Min.Y, other.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, other.Max.X), Y: math.Max(r.Max.Y, other.Max.Y)},
	}
}

// Expand returns the rectangle grown by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X - d, Y: r.Min.Y - d},
		Max: Point{X: r.Max.X + d, Y: r.Max.Y + d},
	}
}

// Contains reports whether the point lies inside the rectangle (inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// IntersectsCircle reports whether a circle overlaps the rectangle.
func (r Rect) IntersectsCircle(center Point, radius float64) bool {
	nearest := Point{
		X: Clamp(center.X, r.Min.X, r.Max.X),
		Y: Clamp(center.Y, r.Min.Y, r.Max.Y),
	}
	return nearest.Distance(center) <= radius
}

// CircleBounds returns the bounding box of a circle.
func CircleBounds(center Point, radius float64) Rect {
	return Rect{
		Min: Point{X: center.X - radius, Y: center.Y - radius},
		Max: Point{X: center.X + radius, Y: center.Y + radius},
	}
}
