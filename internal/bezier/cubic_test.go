package bezier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/globs/internal/vec"
)

func straight() Cubic {
	return New(vec.Pt(0, 0), vec.Pt(10, 0), vec.Pt(20, 0), vec.Pt(30, 0))
}

func arch() Cubic {
	return New(vec.Pt(0, 0), vec.Pt(0, 100), vec.Pt(100, 100), vec.Pt(100, 0))
}

func TestEvalEndpoints(t *testing.T) {
	c := arch()
	assert.Equal(t, c.P0, c.Eval(0))
	assert.Equal(t, c.P3, c.Eval(1))

	mid := c.Eval(0.5)
	assert.InDelta(t, 50, mid.X, 1e-9)
	assert.InDelta(t, 75, mid.Y, 1e-9)
}

func TestTangentAndNormal(t *testing.T) {
	c := straight()
	tan := c.Tangent(0.3)
	assert.InDelta(t, 1, tan.X, 1e-12)
	assert.InDelta(t, 0, tan.Y, 1e-12)

	n := c.Normal(0.3)
	assert.InDelta(t, 0, n.X, 1e-12)
	assert.InDelta(t, 1, n.Y, 1e-12)
}

func TestTangentDegenerateControl(t *testing.T) {
	// P1 coincides with P0, so the derivative vanishes at t=0.
	c := New(vec.Pt(0, 0), vec.Pt(0, 0), vec.Pt(10, 0), vec.Pt(20, 0))
	tan := c.Tangent(0)
	require.True(t, tan.IsFinite())
	assert.InDelta(t, 1, tan.Length(), 1e-9)
	assert.Greater(t, tan.X, 0.0)
}

func TestSplitPreservesCurve(t *testing.T) {
	c := arch()
	left, right := c.Split(0.3)

	assert.Equal(t, c.P0, left.P0)
	assert.Equal(t, c.P3, right.P3)
	assert.True(t, left.P3.NearlyEqual(c.Eval(0.3), 1e-9))
	assert.Equal(t, left.P3, right.P0)

	for _, u := range []float64{0, 0.25, 0.5, 0.75, 1} {
		want := c.Eval(0.3 * u)
		got := left.Eval(u)
		assert.True(t, got.NearlyEqual(want, 1e-9), "left.Eval(%v) = %v, want %v", u, got, want)

		want = c.Eval(0.3 + 0.7*u)
		got = right.Eval(u)
		assert.True(t, got.NearlyEqual(want, 1e-9), "right.Eval(%v) = %v, want %v", u, got, want)
	}
}

func TestNearest(t *testing.T) {
	c := straight()
	p, tt := c.Nearest(vec.Pt(15, 40))
	assert.InDelta(t, 15, p.X, 1e-6)
	assert.InDelta(t, 0, p.Y, 1e-9)
	assert.InDelta(t, 0.5, tt, 1e-6)

	// Beyond the end the search clamps to t=1.
	p, tt = c.Nearest(vec.Pt(100, 0))
	assert.Equal(t, 1.0, tt)
	assert.Equal(t, c.P3, p)
}

func TestNearestOnArch(t *testing.T) {
	c := arch()
	query := vec.Pt(50, 200)
	p, tt := c.Nearest(query)
	assert.InDelta(t, 0.5, tt, 1e-6)
	assert.InDelta(t, 75, p.Y, 1e-6)

	// No sampled point may be closer than the returned one.
	best := p.Distance(query)
	for i := 0; i <= 200; i++ {
		d := c.Eval(float64(i) / 200).Distance(query)
		assert.GreaterOrEqual(t, d+1e-9, best)
	}
}

func TestLength(t *testing.T) {
	assert.InDelta(t, 30, straight().Length(), 1e-9)
}

func TestCatmullRomPassesThroughPoints(t *testing.T) {
	pts := []vec.Point{vec.Pt(0, 0), vec.Pt(10, 10), vec.Pt(20, 0), vec.Pt(30, 10)}
	segs := CatmullRom(pts, false)
	require.Len(t, segs, 3)
	for i, s := range segs {
		assert.Equal(t, pts[i], s.P0)
		assert.Equal(t, pts[i+1], s.P3)
	}
	// Interior joins are tangent-continuous.
	for i := 0; i < len(segs)-1; i++ {
		a := segs[i].P3.Sub(segs[i].P2).Normalize()
		b := segs[i+1].P1.Sub(segs[i+1].P0).Normalize()
		assert.InDelta(t, 0, math.Abs(a.Cross(b)), 1e-9)
	}

	closed := CatmullRom(pts, true)
	require.Len(t, closed, 4)
	assert.Equal(t, pts[0], closed[3].P3)

	assert.Nil(t, CatmullRom(pts[:1], false))
}
