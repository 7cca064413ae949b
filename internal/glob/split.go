package glob

import (
	"math"

	"github.com/hpungsan/globs/internal/bezier"
	"github.com/hpungsan/globs/internal/vec"
)

// CircleTolerance is how far outside the inscribed circle a query point may
// lie and still produce a split preview.
const CircleTolerance = 2.0

// parallelEps is the sine of the smallest angle between boundary normals
// that is intersected rather than treated as parallel.
const parallelEps = 1e-6

// InnerCircle is a circle tangent to both boundary curves of a glob. T and
// Tp are the curve parameters of its contact points on the primary and prime
// boundaries.
type InnerCircle struct {
	Center vec.Point `json:"center"`
	Radius float64   `json:"radius"`
	T      float64   `json:"t"`
	Tp     float64   `json:"tp"`
}

// Circle returns the inner circle's center and radius.
func (c InnerCircle) Circle() Circle {
	return Circle{Center: c.Center, Radius: c.Radius}
}

// CircleInGlob returns the circle a split at pt would insert, or nil when pt
// is not inside the glob within CircleTolerance.
//
// The nearest points on each boundary are found, their normals are turned
// toward the opposite boundary and intersected. Parallel normals, or an
// intersection behind either boundary, fall back to the circle spanning the
// two nearest points.
func CircleInGlob(pt vec.Point, p Points) *InnerCircle {
	if !pt.IsFinite() {
		return nil
	}
	primary, prime := p.Curves()
	a, t := primary.Nearest(pt)
	b, tp := prime.Nearest(pt)

	na := towards(primary.Normal(t), a, b)
	nb := towards(prime.Normal(tp), b, a)

	var center vec.Point
	var radius float64
	x, s, u, ok := vec.LineIntersection(a, na, b, nb)
	if ok && math.Abs(na.Cross(nb)) > parallelEps && s > 0 && u > 0 {
		center, radius = x, (s+u)/2
	} else {
		center, radius = vec.Median(a, b), a.Distance(b)/2
	}

	if !center.IsFinite() || !finite(radius) {
		return nil
	}
	if pt.Distance(center) > radius+CircleTolerance {
		return nil
	}
	return &InnerCircle{Center: center, Radius: radius, T: t, Tp: tp}
}

// towards flips n so it points from `from` toward `to`.
func towards(n, from, to vec.Point) vec.Point {
	if n.Dot(to.Sub(from)) < 0 {
		return n.Neg()
	}
	return n
}

// Handles are the per-glob fields a split produces.
type Handles struct {
	D         vec.Point `json:"d"`
	Dp        vec.Point `json:"dp"`
	BiasStart float64   `json:"bias_start"`
	BiasEnd   float64   `json:"bias_end"`
}

// SplitResult describes the two globs replacing a split glob. A runs from the
// original start node to the new node, B from the new node to the original
// end node.
type SplitResult struct {
	Node Circle  `json:"node"`
	A    Handles `json:"a"`
	B    Handles `json:"b"`
}

// Split partitions a glob at the inner circle c. Both boundary curves are
// subdivided at the circle's contact parameters; each half's handles are the
// intersection of the tangent lines at its ends.
//
// Biases at the original nodes are the measured ratio of the subdivided
// control arm to the handle distance. Biases at the new node use the remap
// 0.75 - ratio*0.25, where ratio is the average contact parameter measured
// from that glob's far end. The remap is an empirically tuned continuity
// heuristic and is preserved exactly.
func Split(p Points, c InnerCircle, biasStart, biasEnd float64) SplitResult {
	primary, prime := p.Curves()
	l, r := primary.Split(c.T)
	lp, rp := prime.Split(c.Tp)

	avg := (c.T + c.Tp) / 2

	a := Handles{
		D:         armsMeet(l),
		Dp:        armsMeet(lp),
		BiasStart: armRatio(l.P0, l.P1, armsMeet(l), lp.P0, lp.P1, armsMeet(lp), biasStart),
		BiasEnd:   vec.Clamp(0.75-avg*0.25, 0, 1),
	}
	b := Handles{
		D:         armsMeet(r),
		Dp:        armsMeet(rp),
		BiasStart: vec.Clamp(0.75-(1-avg)*0.25, 0, 1),
		BiasEnd:   armRatio(r.P3, r.P2, armsMeet(r), rp.P3, rp.P2, armsMeet(rp), biasEnd),
	}

	return SplitResult{Node: c.Circle(), A: a, B: b}
}

// armsMeet intersects the tangent lines at both ends of c, falling back to
// the chord midpoint when they are parallel or meet behind either end.
func armsMeet(c bezier.Cubic) vec.Point {
	u := c.P1.Sub(c.P0)
	v := c.P2.Sub(c.P3)
	if x, s, t, ok := vec.LineIntersection(c.P0, u, c.P3, v); ok && s >= 0 && t >= 0 {
		return x
	}
	return vec.Median(c.P0, c.P3)
}

// armRatio averages |arm|/|handle distance| over both sides, falling back to
// fallback when neither side is measurable.
func armRatio(e, f, d, ep, fp, dp vec.Point, fallback float64) float64 {
	sum, n := 0.0, 0
	for _, side := range [2][3]vec.Point{{e, f, d}, {ep, fp, dp}} {
		den := side[2].Distance(side[0])
		if den <= eps {
			continue
		}
		ratio := side[1].Distance(side[0]) / den
		if !finite(ratio) {
			continue
		}
		sum += ratio
		n++
	}
	if n == 0 {
		return vec.Clamp(fallback, 0, 1)
	}
	return vec.Clamp(sum/float64(n), 0, 1)
}

// SplitPoints is Split followed by recomputing both halves against the
// original circles.
func SplitPoints(p Points, c InnerCircle, biasStart, biasEnd float64) (SplitResult, Points, Points, error) {
	res := Split(p, c, biasStart, biasEnd)
	node := res.Node
	a, err := Compute(p.C0, p.R0, node.Center, node.Radius, res.A.D, res.A.Dp, res.A.BiasStart, res.A.BiasEnd)
	if err != nil {
		return res, Points{}, Points{}, err
	}
	b, err := Compute(node.Center, node.Radius, p.C1, p.R1, res.B.D, res.B.Dp, res.B.BiasStart, res.B.BiasEnd)
	if err != nil {
		return res, Points{}, Points{}, err
	}
	return res, a, b, nil
}
