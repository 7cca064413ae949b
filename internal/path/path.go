// Package path describes outlines as ordered drawing commands, independent of
// any rendering technology. Renderers map commands onto their own primitives.
package path

import (
	"math"

	"github.com/hpungsan/globs/internal/bezier"
	"github.com/hpungsan/globs/internal/vec"
)

// Command is a single drawing command.
type Command interface {
	isCommand()
}

// MoveTo starts a new subpath at Point.
type MoveTo struct {
	Point vec.Point
}

func (MoveTo) isCommand() {}

// LineTo draws a straight segment to Point.
type LineTo struct {
	Point vec.Point
}

func (LineTo) isCommand() {}

// CubicTo draws a cubic Bezier curve to Point.
type CubicTo struct {
	Control1 vec.Point
	Control2 vec.Point
	Point    vec.Point
}

func (CubicTo) isCommand() {}

// ArcTo draws a circular arc around Center from angle From to angle To
// (radians). The sweep is To-From and may be negative.
type ArcTo struct {
	Center vec.Point
	Radius float64
	From   float64
	To     float64
}

func (ArcTo) isCommand() {}

// Start returns the arc's first point.
func (a ArcTo) Start() vec.Point {
	return vec.FromAngle(a.Center, a.From, a.Radius)
}

// End returns the arc's last point.
func (a ArcTo) End() vec.Point {
	return vec.FromAngle(a.Center, a.To, a.Radius)
}

// Close closes the current subpath.
type Close struct{}

func (Close) isCommand() {}

// Path is an ordered list of commands.
type Path struct {
	commands []Command
	start    vec.Point
	current  vec.Point
}

// New creates an empty path.
func New() *Path {
	return &Path{commands: make([]Command, 0, 8)}
}

// MoveTo starts a new subpath.
func (p *Path) MoveTo(pt vec.Point) {
	p.commands = append(p.commands, MoveTo{Point: pt})
	p.start = pt
	p.current = pt
}

// LineTo draws a line from the current point.
func (p *Path) LineTo(pt vec.Point) {
	p.commands = append(p.commands, LineTo{Point: pt})
	p.current = pt
}

// CubicTo draws a cubic curve from the current point.
func (p *Path) CubicTo(c1, c2, pt vec.Point) {
	p.commands = append(p.commands, CubicTo{Control1: c1, Control2: c2, Point: pt})
	p.current = pt
}

// ArcTo draws an arc. The arc's start point is expected to match the
// current point.
func (p *Path) ArcTo(center vec.Point, radius, from, to float64) {
	arc := ArcTo{Center: center, Radius: radius, From: from, To: to}
	p.commands = append(p.commands, arc)
	p.current = arc.End()
}

// Close closes the current subpath.
func (p *Path) Close() {
	p.commands = append(p.commands, Close{})
	p.current = p.start
}

// Commands returns the path's commands.
func (p *Path) Commands() []Command {
	return p.commands
}

// Len returns the number of commands.
func (p *Path) Len() int {
	return len(p.commands)
}

// IsEmpty reports whether the path has no commands.
func (p *Path) IsEmpty() bool {
	return len(p.commands) == 0
}

// CurrentPoint returns the current point.
func (p *Path) CurrentPoint() vec.Point {
	return p.current
}

// Append adds all commands of other to p.
func (p *Path) Append(other *Path) {
	if other == nil {
		return
	}
	p.commands = append(p.commands, other.commands...)
	if len(other.commands) > 0 {
		p.start = other.start
		p.current = other.current
	}
}

// Polyline returns a path through points, either as straight segments or,
// when smooth is true, as a Catmull-Rom curve.
func Polyline(points []vec.Point, smooth bool) *Path {
	p := New()
	if len(points) == 0 {
		return p
	}
	p.MoveTo(points[0])
	if !smooth {
		for _, pt := range points[1:] {
			p.LineTo(pt)
		}
		return p
	}
	for _, c := range bezier.CatmullRom(points, false) {
		p.CubicTo(c.P1, c.P2, c.P3)
	}
	return p
}

// Circle returns a closed path approximating a full circle.
func Circle(center vec.Point, radius float64) *Path {
	p := New()
	p.MoveTo(vec.FromAngle(center, 0, radius))
	p.ArcTo(center, radius, 0, 2*math.Pi)
	p.Close()
	return p
}

// Flatten returns an equivalent path in which every ArcTo is replaced by
// cubic segments of at most 90 degrees each.
func (p *Path) Flatten() *Path {
	out := New()
	for _, cmd := range p.commands {
		switch c := cmd.(type) {
		case MoveTo:
			out.MoveTo(c.Point)
		case LineTo:
			out.LineTo(c.Point)
		case CubicTo:
			out.CubicTo(c.Control1, c.Control2, c.Point)
		case ArcTo:
			for _, seg := range ArcCubics(c) {
				out.CubicTo(seg.P1, seg.P2, seg.P3)
			}
		case Close:
			out.Close()
		}
	}
	return out
}

// ArcCubics approximates an arc with cubic segments.
func ArcCubics(a ArcTo) []bezier.Cubic {
	sweep := a.To - a.From
	if sweep == 0 || a.Radius == 0 {
		return nil
	}
	const maxAngle = math.Pi / 2
	n := int(math.Ceil(math.Abs(sweep) / maxAngle))
	step := sweep / float64(n)

	segs := make([]bezier.Cubic, 0, n)
	for i := 0; i < n; i++ {
		a1 := a.From + float64(i)*step
		a2 := a1 + step
		segs = append(segs, arcSegment(a.Center, a.Radius, a1, a2))
	}
	return segs
}

func arcSegment(c vec.Point, r, a1, a2 float64) bezier.Cubic {
	half := math.Tan((a2 - a1) / 2)
	alpha := math.Sin(a2-a1) * (math.Sqrt(4+3*half*half) - 1) / 3

	cos1, sin1 := math.Cos(a1), math.Sin(a1)
	cos2, sin2 := math.Cos(a2), math.Sin(a2)

	p1 := vec.Pt(c.X+r*cos1, c.Y+r*sin1)
	p2 := vec.Pt(c.X+r*cos2, c.Y+r*sin2)

	return bezier.Cubic{
		P0: p1,
		P1: vec.Pt(p1.X-alpha*r*sin1, p1.Y+alpha*r*cos1),
		P2: vec.Pt(p2.X+alpha*r*sin2, p2.Y-alpha*r*cos2),
		P3: p2,
	}
}

// Bounds returns the bounding box of the path's points and control points.
// Arcs contribute their full circle bounds. An empty path returns the zero
// rectangle and false.
func (p *Path) Bounds() (vec.Rect, bool) {
	var r vec.Rect
	found := false
	add := func(b vec.Rect) {
		if !found {
			r, found = b, true
			return
		}
		r = r.Union(b)
	}
	for _, cmd := range p.commands {
		switch c := cmd.(type) {
		case MoveTo:
			add(vec.NewRect(c.Point, c.Point))
		case LineTo:
			add(vec.NewRect(c.Point, c.Point))
		case CubicTo:
			add(vec.NewRect(c.Control1, c.Control2).Union(vec.NewRect(c.Point, c.Point)))
		case ArcTo:
			add(vec.CircleBounds(c.Center, c.Radius))
		}
	}
	return r, found
}
