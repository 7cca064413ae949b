package glob

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/hpungsan/globs/internal/path"
	"github.com/hpungsan/globs/internal/vec"
)

// Cap is the termination style of a glob at a node.
type Cap int

const (
	// CapRound sweeps around the outer side of the node's circle.
	CapRound Cap = iota
	// CapFlat closes the end with a straight chord.
	CapFlat
)

// String returns "round" or "flat".
func (c Cap) String() string {
	if c == CapFlat {
		return "flat"
	}
	return "round"
}

// ParseCap parses "round" or "flat". The empty string is round.
func ParseCap(s string) (Cap, error) {
	switch s {
	case "", "round":
		return CapRound, nil
	case "flat":
		return CapFlat, nil
	}
	return CapRound, fmt.Errorf("unknown cap %q", s)
}

// MarshalJSON encodes the cap as its name.
func (c Cap) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a cap name.
func (c *Cap) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCap(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Outline serializes the glob as a closed path: the primary boundary from
// circle 0 to circle 1, the end cap, the prime boundary back, and the start
// cap.
func Outline(p Points, capStart, capEnd Cap) *path.Path {
	out := path.New()
	out.MoveTo(p.E0)
	out.CubicTo(p.F0, p.F1, p.E1)
	addCap(out, capEnd, p.C1, p.R1, p.E1, p.E1p, p.C0, vec.Median(p.D, p.Dp))
	out.CubicTo(p.F1p, p.F0p, p.E0p)
	addCap(out, capStart, p.C0, p.R0, p.E0p, p.E0, p.C1, vec.Median(p.D, p.Dp))
	out.Close()
	return out
}

// addCap draws from `from` to `to` around circle (c, r). A round cap takes
// the sweep direction whose midpoint is farther from `away`; ties fall back
// to the handles' midpoint.
func addCap(out *path.Path, style Cap, c vec.Point, r float64, from, to, away, handles vec.Point) {
	if style == CapFlat || r <= eps {
		out.LineTo(to)
		return
	}

	a1 := from.Sub(c).Angle()
	a2 := to.Sub(c).Angle()
	ccw := math.Mod(a2-a1, 2*math.Pi)
	if ccw < 0 {
		ccw += 2 * math.Pi
	}
	if ccw <= eps || 2*math.Pi-ccw <= eps {
		out.LineTo(to)
		return
	}
	cw := ccw - 2*math.Pi

	sweep := pickSweep(c, r, a1, ccw, cw, away)
	if sweep == 0 {
		sweep = pickSweep(c, r, a1, ccw, cw, handles)
	}
	if sweep == 0 {
		sweep = ccw
	}
	out.ArcTo(c, r, a1, a1+sweep)
}

// pickSweep returns whichever sweep puts the arc's midpoint farther from
// ref, or 0 on a tie.
func pickSweep(c vec.Point, r, a1, ccw, cw float64, ref vec.Point) float64 {
	dCCW := vec.FromAngle(c, a1+ccw/2, r).Distance(ref)
	dCW := vec.FromAngle(c, a1+cw/2, r).Distance(ref)
	switch {
	case math.Abs(dCCW-dCW) <= eps:
		return 0
	case dCCW > dCW:
		return ccw
	default:
		return cw
	}
}
