// Package glob is the glob geometry engine: given two circles and two handle
// points it derives the tangent points and cubic control points of the
// glob's outline, serializes the outline as a path, finds the circle a split
// would insert, and performs the split itself.
//
// Every function here is pure. Equal inputs produce bit-identical outputs.
package glob

import (
	"math"

	"github.com/hpungsan/globs/internal/bezier"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/vec"
)

// eps is the distance below which two points are treated as coincident.
const eps = 1e-9

// DefaultBias is the bias assigned to new globs.
const DefaultBias = 0.5

// Circle is a center and radius.
type Circle struct {
	Center vec.Point `json:"center"`
	Radius float64   `json:"radius"`
}

// Points is the derived geometry of a glob.
//
// E0/E1 are the tangent points on circle 0/1 for the primary side (toward D),
// E0p/E1p for the prime side (toward Dp). F0/F1 and F0p/F1p are the inner
// control points of the primary and prime boundary cubics.
type Points struct {
	C0  vec.Point `json:"c0"`
	R0  float64   `json:"r0"`
	C1  vec.Point `json:"c1"`
	R1  float64   `json:"r1"`
	E0  vec.Point `json:"e0"`
	E0p vec.Point `json:"e0p"`
	E1  vec.Point `json:"e1"`
	E1p vec.Point `json:"e1p"`
	F0  vec.Point `json:"f0"`
	F1  vec.Point `json:"f1"`
	F0p vec.Point `json:"f0p"`
	F1p vec.Point `json:"f1p"`
	D   vec.Point `json:"d"`
	Dp  vec.Point `json:"dp"`
}

// Compute derives the glob geometry for circles (c0, r0) and (c1, r1) with
// handles d/dp. biasStart and biasEnd are clamped to [0,1] and place the
// control points along the segment from each tangent point toward its
// handle.
//
// It returns a DEGENERATE_GLOB error when no tangent construction exists:
// non-finite input, negative radius, coincident circles whose handles do not
// break the symmetry, or a handle sitting on the center of its circle.
func Compute(c0 vec.Point, r0 float64, c1 vec.Point, r1 float64, d, dp vec.Point, biasStart, biasEnd float64) (Points, error) {
	if !c0.IsFinite() || !c1.IsFinite() || !d.IsFinite() || !dp.IsFinite() ||
		!finite(r0) || !finite(r1) || !finite(biasStart) || !finite(biasEnd) {
		return Points{}, errors.NewDegenerateGlob("non-finite input")
	}
	if r0 < 0 || r1 < 0 {
		return Points{}, errors.NewDegenerateGlob("negative radius")
	}
	if c0.NearlyEqual(c1, eps) && math.Abs(r0-r1) <= eps && d.NearlyEqual(dp, eps) {
		return Points{}, errors.NewDegenerateGlob("coincident circles")
	}

	s, sp := sides(c0, c1, d, dp)

	var (
		pts Points
		err error
	)
	if pts.E0, err = tangentPoint(c0, r0, d, s); err != nil {
		return Points{}, err
	}
	if pts.E1, err = tangentPoint(c1, r1, d, -s); err != nil {
		return Points{}, err
	}
	if pts.E0p, err = tangentPoint(c0, r0, dp, sp); err != nil {
		return Points{}, err
	}
	if pts.E1p, err = tangentPoint(c1, r1, dp, -sp); err != nil {
		return Points{}, err
	}

	a := vec.Clamp(biasStart, 0, 1)
	b := vec.Clamp(biasEnd, 0, 1)

	pts.C0, pts.R0 = c0, r0
	pts.C1, pts.R1 = c1, r1
	pts.D, pts.Dp = d, dp
	pts.F0 = pts.E0.Lerp(d, a)
	pts.F1 = pts.E1.Lerp(d, b)
	pts.F0p = pts.E0p.Lerp(dp, a)
	pts.F1p = pts.E1p.Lerp(dp, b)
	return pts, nil
}

// ComputeCircles is Compute taking Circle values.
func ComputeCircles(start, end Circle, d, dp vec.Point, biasStart, biasEnd float64) (Points, error) {
	return Compute(start.Center, start.Radius, end.Center, end.Radius, d, dp, biasStart, biasEnd)
}

// sides returns the tangent orientation for each handle: +1 when the handle
// lies on the left of the directed line c0->c1, -1 on the right. With
// concentric circles the handles take opposite sides.
func sides(c0, c1, d, dp vec.Point) (float64, float64) {
	u := c1.Sub(c0)
	if u.LengthSq() <= eps*eps {
		return 1, -1
	}
	side := func(p vec.Point) float64 {
		if u.Cross(p.Sub(c0)) < 0 {
			return -1
		}
		return 1
	}
	return side(d), side(dp)
}

// tangentPoint returns the point on circle (c, r) where a line through p
// touches it, on the given side. A point inside the circle projects onto
// it.
func tangentPoint(c vec.Point, r float64, p vec.Point, side float64) (vec.Point, error) {
	v := p.Sub(c)
	dist := v.Length()
	if dist <= eps {
		if r <= eps {
			return c, nil
		}
		return vec.Point{}, errors.NewDegenerateGlob("handle at circle center")
	}
	if dist <= r {
		return c.Add(v.Mul(r / dist)), nil
	}
	theta := v.Angle()
	phi := math.Acos(r / dist)
	return vec.FromAngle(c, theta+side*phi, r), nil
}

// DefaultHandles places D and Dp at the midpoints of the two external
// tangent segments, which makes the outline a straight capsule. When one
// circle contains the other, or they are concentric, the handles sit at the
// averaged radius on either side of the center line.
func DefaultHandles(c0 vec.Point, r0 float64, c1 vec.Point, r1 float64) (d, dp vec.Point) {
	primary, prime, ok := ExternalTangents(Circle{c0, r0}, Circle{c1, r1})
	if ok {
		return vec.Median(primary[0], primary[1]), vec.Median(prime[0], prime[1])
	}

	n := vec.Pt(0, 1)
	if u := c1.Sub(c0); u.LengthSq() > eps*eps {
		n = u.Normalize().Perp()
	}
	mid := vec.Median(c0, c1)
	r := (r0 + r1) / 2
	return mid.Add(n.Mul(r)), mid.Sub(n.Mul(r))
}

// ExternalTangents returns the two external tangent segments between a and
// b, each as [point on a, point on b]. primary is on the left of the
// directed line a->b. ok is false when the circles are concentric or one
// contains the other.
func ExternalTangents(a, b Circle) (primary, prime [2]vec.Point, ok bool) {
	v := b.Center.Sub(a.Center)
	dist := v.Length()
	if dist <= eps {
		return primary, prime, false
	}
	k := (a.Radius - b.Radius) / dist
	if math.Abs(k) >= 1 {
		return primary, prime, false
	}
	u := v.Div(dist)
	h := math.Sqrt(1 - k*k)

	n := u.Mul(k).Add(u.Perp().Mul(h))
	np := u.Mul(k).Sub(u.Perp().Mul(h))

	primary = [2]vec.Point{a.Center.Add(n.Mul(a.Radius)), b.Center.Add(n.Mul(b.Radius))}
	prime = [2]vec.Point{a.Center.Add(np.Mul(a.Radius)), b.Center.Add(np.Mul(b.Radius))}
	return primary, prime, true
}

// Curves returns the two boundary cubics, both running from circle 0 to
// circle 1.
func (p Points) Curves() (primary, prime bezier.Cubic) {
	return bezier.New(p.E0, p.F0, p.F1, p.E1), bezier.New(p.E0p, p.F0p, p.F1p, p.E1p)
}

// Bounds returns a rectangle containing both circles and all control points.
func (p Points) Bounds() vec.Rect {
	primary, prime := p.Curves()
	return vec.CircleBounds(p.C0, p.R0).
		Union(vec.CircleBounds(p.C1, p.R1)).
		Union(primary.ControlBounds()).
		Union(prime.ControlBounds())
}

// Contains reports whether pt lies inside the glob: inside either circle or
// inside the region enclosed by the two boundary curves.
func (p Points) Contains(pt vec.Point) bool {
	if pt.Distance(p.C0) <= p.R0 || pt.Distance(p.C1) <= p.R1 {
		return true
	}
	const samples = 32
	primary, prime := p.Curves()
	poly := make([]vec.Point, 0, 2*(samples+1))
	for i := 0; i <= samples; i++ {
		poly = append(poly, primary.Eval(float64(i)/samples))
	}
	for i := samples; i >= 0; i-- {
		poly = append(poly, prime.Eval(float64(i)/samples))
	}
	return pointInPolygon(pt, poly)
}

// pointInPolygon uses the even-odd rule.
func pointInPolygon(pt vec.Point, poly []vec.Point) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
