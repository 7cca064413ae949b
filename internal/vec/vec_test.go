package vec

import (
	"math"
	"testing"
)

func TestPointArithmetic(t *testing.T) {
	a := Pt(3, 4)
	b := Pt(1, -2)

	if got := a.Add(b); got != Pt(4, 2) {
		t.Errorf("Add() = %v, want %v", got, Pt(4, 2))
	}
	if got := a.Sub(b); got != Pt(2, 6) {
		t.Errorf("Sub() = %v, want %v", got, Pt(2, 6))
	}
	if got := a.Mul(2); got != Pt(6, 8) {
		t.Errorf("Mul() = %v, want %v", got, Pt(6, 8))
	}
	if got := a.Div(2); got != Pt(1.5, 2) {
		t.Errorf("Div() = %v, want %v", got, Pt(1.5, 2))
	}
	if got := a.Length(); got != 5 {
		t.Errorf("Length() = %v, want 5", got)
	}
	if got := a.Distance(Pt(0, 0)); got != 5 {
		t.Errorf("Distance() = %v, want 5", got)
	}
	if got := a.Dot(b); got != -5 {
		t.Errorf("Dot() = %v, want -5", got)
	}
	if got := a.Cross(b); got != -10 {
		t.Errorf("Cross() = %v, want -10", got)
	}
}

func TestNormalize(t *testing.T) {
	n := Pt(10, 0).Normalize()
	if n != Pt(1, 0) {
		t.Errorf("Normalize() = %v, want (1,0)", n)
	}

	zero := Point{}.Normalize()
	if zero != (Point{}) {
		t.Errorf("Normalize(zero) = %v, want zero vector", zero)
	}
	if !zero.IsFinite() {
		t.Error("Normalize(zero) produced non-finite coordinates")
	}
}

func TestPerpAndRotate(t *testing.T) {
	if got := Pt(1, 0).Perp(); got != Pt(0, 1) {
		t.Errorf("Perp() = %v, want (0,1)", got)
	}

	r := Pt(1, 0).Rotate(math.Pi / 2)
	if !r.NearlyEqual(Pt(0, 1), 1e-12) {
		t.Errorf("Rotate(pi/2) = %v, want (0,1)", r)
	}

	r = Pt(2, 1).RotateAround(Pt(1, 1), math.Pi)
	if !r.NearlyEqual(Pt(0, 1), 1e-12) {
		t.Errorf("RotateAround() = %v, want (0,1)", r)
	}
}

func TestLerpAndMedian(t *testing.T) {
	a, b := Pt(0, 0), Pt(10, 20)
	if got := a.Lerp(b, 0.25); got != Pt(2.5, 5) {
		t.Errorf("Lerp(0.25) = %v, want (2.5,5)", got)
	}
	if got := Median(a, b); got != Pt(5, 10) {
		t.Errorf("Median() = %v, want (5,10)", got)
	}
}

func TestLineIntersection(t *testing.T) {
	p, s, u, ok := LineIntersection(Pt(0, 0), Pt(1, 0), Pt(5, -5), Pt(0, 1))
	if !ok {
		t.Fatal("expected intersection")
	}
	if !p.NearlyEqual(Pt(5, 0), 1e-12) {
		t.Errorf("intersection = %v, want (5,0)", p)
	}
	if s != 5 || u != 5 {
		t.Errorf("params = (%v,%v), want (5,5)", s, u)
	}

	if _, _, _, ok := LineIntersection(Pt(0, 0), Pt(1, 0), Pt(0, 1), Pt(2, 0)); ok {
		t.Error("parallel lines should not intersect")
	}
}

func TestRect(t *testing.T) {
	r := NewRect(Pt(10, 10), Pt(0, 0))
	if r.Min != Pt(0, 0) || r.Max != Pt(10, 10) {
		t.Fatalf("NewRect() = %+v, want normalized corners", r)
	}
	if !r.Contains(Pt(5, 5)) {
		t.Error("Contains(5,5) = false, want true")
	}
	if !r.IntersectsCircle(Pt(12, 5), 3) {
		t.Error("IntersectsCircle should be true for overlapping circle")
	}
	if r.IntersectsCircle(Pt(20, 20), 3) {
		t.Error("IntersectsCircle should be false for distant circle")
	}
	u := r.Union(CircleBounds(Pt(20, 0), 2))
	if u.Max.X != 22 || u.Min.Y != -2 {
		t.Errorf("Union() = %+v", u)
	}
}
