package bezier

import "github.com/hpungsan/globs/internal/vec"

// CatmullRom returns cubic segments that pass through every point, using a
// uniform Catmull-Rom spline converted to Bezier form. When closed is true
// the last point connects back to the first.
//
// Fewer than two points yield no segments.
func CatmullRom(points []vec.Point, closed bool) []Cubic {
	n := len(points)
	if n < 2 {
		return nil
	}

	at := func(i int) vec.Point {
		if closed {
			return points[((i%n)+n)%n]
		}
		if i < 0 {
			return points[0]
		}
		if i >= n {
			return points[n-1]
		}
		return points[i]
	}

	count := n - 1
	if closed {
		count = n
	}

	segments := make([]Cubic, 0, count)
	for i := 0; i < count; i++ {
		p0, p1, p2, p3 := at(i-1), at(i), at(i+1), at(i+2)
		segments = append(segments, Cubic{
			P0: p1,
			P1: p1.Add(p2.Sub(p0).Div(6)),
			P2: p2.Sub(p3.Sub(p1).Div(6)),
			P3: p2,
		})
	}
	return segments
}
