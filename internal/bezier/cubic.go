// Package bezier implements cubic Bezier evaluation, nearest-point search and
// curve fitting through polylines.
package bezier

import (
	"math"

	"github.com/hpungsan/globs/internal/vec"
)

// Search parameters for Nearest. The search is bounded: a fixed number of
// uniform samples followed by a fixed number of refinement steps.
const (
	nearestSamples    = 64
	nearestRefinement = 24
)

// Cubic represents a cubic Bezier curve with control points P0, P1, P2, P3.
// P0 is the start point, P1 and P2 are control points, P3 is the end point.
type Cubic struct {
	P0, P1, P2, P3 vec.Point
}

// New creates a new cubic Bezier curve.
func New(p0, p1, p2, p3 vec.Point) Cubic {
	return Cubic{P0: p0, P1: p1, P2: p2, P3: p3}
}

// Eval evaluates the curve at parameter t (0 to 1).
func (c Cubic) Eval(t float64) vec.Point {
	mt := 1.0 - t
	mt2 := mt * mt
	mt3 := mt2 * mt
	t2 := t * t
	t3 := t2 * t

	return vec.Point{
		X: mt3*c.P0.X + 3*mt2*t*c.P1.X + 3*mt*t2*c.P2.X + t3*c.P3.X,
		Y: mt3*c.P0.Y + 3*mt2*t*c.P1.Y + 3*mt*t2*c.P2.Y + t3*c.P3.Y,
	}
}

// Derivative returns the first derivative B'(t).
func (c Cubic) Derivative(t float64) vec.Point {
	mt := 1.0 - t
	d0 := c.P1.Sub(c.P0)
	d1 := c.P2.Sub(c.P1)
	d2 := c.P3.Sub(c.P2)
	return d0.Mul(3 * mt * mt).Add(d1.Mul(6 * mt * t)).Add(d2.Mul(3 * t * t))
}

// Tangent returns the unit tangent at parameter t.
// Where the derivative vanishes (a control point coincides with an end
// point) the direction is taken from a short chord instead.
func (c Cubic) Tangent(t float64) vec.Point {
	d := c.Derivative(t)
	if d.LengthSq() > 1e-18 {
		return d.Normalize()
	}
	const h = 1e-3
	if t < 0.5 {
		return c.Eval(math.Min(1, t+h)).Sub(c.Eval(t)).Normalize()
	}
	return c.Eval(t).Sub(c.Eval(math.Max(0, t-h))).Normalize()
}

// Normal returns the unit normal at parameter t: the tangent rotated 90
// degrees counterclockwise.
func (c Cubic) Normal(t float64) vec.Point {
	return c.Tangent(t).Perp()
}

// Split divides the curve at t using de Casteljau's algorithm.
func (c Cubic) Split(t float64) (Cubic, Cubic) {
	p01 := c.P0.Lerp(c.P1, t)
	p12 := c.P1.Lerp(c.P2, t)
	p23 := c.P2.Lerp(c.P3, t)
	p012 := p01.Lerp(p12, t)
	p123 := p12.Lerp(p23, t)
	mid := p012.Lerp(p123, t)

	return Cubic{P0: c.P0, P1: p01, P2: p012, P3: mid},
		Cubic{P0: mid, P1: p123, P2: p23, P3: c.P3}
}

// Reversed returns the same curve traversed from P3 to P0.
func (c Cubic) Reversed() Cubic {
	return Cubic{P0: c.P3, P1: c.P2, P2: c.P1, P3: c.P0}
}

// Nearest returns the point on the curve closest to p and its parameter.
func (c Cubic) Nearest(p vec.Point) (vec.Point, float64) {
	bestT := 0.0
	bestD := math.Inf(1)
	for i := 0; i <= nearestSamples; i++ {
		t := float64(i) / nearestSamples
		if d := c.Eval(t).Sub(p).LengthSq(); d < bestD {
			bestD, bestT = d, t
		}
	}

	step := 1.0 / nearestSamples
	for i := 0; i < nearestRefinement; i++ {
		step /= 2
		for _, t := range [2]float64{bestT - step, bestT + step} {
			if t < 0 || t > 1 {
				continue
			}
			if d := c.Eval(t).Sub(p).LengthSq(); d < bestD {
				bestD, bestT = d, t
			}
		}
	}
	return c.Eval(bestT), bestT
}

// Length approximates the arc length by summing chords.
func (c Cubic) Length() float64 {
	const segments = 32
	length := 0.0
	prev := c.P0
	for i := 1; i <= segments; i++ {
		next := c.Eval(float64(i) / segments)
		length += prev.Distance(next)
		prev = next
	}
	return length
}

// ControlBounds returns the bounding box of the control polygon, which
// contains the curve.
func (c Cubic) ControlBounds() vec.Rect {
	return vec.NewRect(c.P0, c.P1).Union(vec.NewRect(c.P2, c.P3))
}
