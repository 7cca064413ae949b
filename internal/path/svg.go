package path

import (
	"math"
	"strconv"
	"strings"

	"github.com/hpungsan/globs/internal/vec"
)

// SVG returns the path as an SVG path data string ("d" attribute).
// Coordinates are rounded to three decimals.
func (p *Path) SVG() string {
	var b strings.Builder
	for _, cmd := range p.commands {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		switch c := cmd.(type) {
		case MoveTo:
			b.WriteString("M ")
			writePoint(&b, c.Point)
		case LineTo:
			b.WriteString("L ")
			writePoint(&b, c.Point)
		case CubicTo:
			b.WriteString("C ")
			writePoint(&b, c.Control1)
			b.WriteByte(' ')
			writePoint(&b, c.Control2)
			b.WriteByte(' ')
			writePoint(&b, c.Point)
		case ArcTo:
			writeArc(&b, c)
		case Close:
			b.WriteString("Z")
		}
	}
	return b.String()
}

// writeArc emits one or two SVG elliptical arc commands. SVG cannot draw a
// full circle with a single arc, so sweeps of 2*pi or more are halved.
func writeArc(b *strings.Builder, a ArcTo) {
	sweep := a.To - a.From
	if math.Abs(sweep) >= 2*math.Pi-1e-9 {
		mid := a.From + sweep/2
		writeArc(b, ArcTo{Center: a.Center, Radius: a.Radius, From: a.From, To: mid})
		b.WriteByte(' ')
		writeArc(b, ArcTo{Center: a.Center, Radius: a.Radius, From: mid, To: a.To})
		return
	}

	large := "0"
	if math.Abs(sweep) > math.Pi {
		large = "1"
	}
	dir := "0"
	if sweep > 0 {
		dir = "1"
	}

	r := formatFloat(a.Radius)
	b.WriteString("A ")
	b.WriteString(r)
	b.WriteByte(' ')
	b.WriteString(r)
	b.WriteString(" 0 ")
	b.WriteString(large)
	b.WriteByte(' ')
	b.WriteString(dir)
	b.WriteByte(' ')
	writePoint(b, a.End())
}

func writePoint(b *strings.Builder, p vec.Point) {
	b.WriteString(formatFloat(p.X))
	b.WriteByte(' ')
	b.WriteString(formatFloat(p.Y))
}

func formatFloat(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // normalizes -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
