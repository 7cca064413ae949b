package session

import (
	"fmt"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/vec"
)

// Anchor identifies which end's bias a control point drag sets.
type Anchor string

const (
	AnchorStart Anchor = "start"
	AnchorEnd   Anchor = "end"
)

// ParseAnchor validates an anchor name.
func ParseAnchor(s string) (Anchor, error) {
	switch Anchor(s) {
	case AnchorStart, AnchorEnd:
		return Anchor(s), nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown anchor %q (want start or end)", s))
}

// AnchorDrag sets a glob's start or end bias from the pointer: the pointer
// is projected onto the segment from the tangent point to the handle, and
// the clamped projection parameter becomes the bias. Prime selects the
// prime side's segment.
type AnchorDrag struct {
	glob   string
	anchor Anchor
	prime  bool
	e, d   vec.Point
	bias   float64
}

// NewAnchorDrag begins dragging the control point at anchor a of glob id.
func NewAnchorDrag(doc *document.Document, id string, a Anchor, prime bool) (*AnchorDrag, error) {
	g, ok := doc.Glob(id)
	if !ok {
		return nil, errors.NewUnknownEntity("glob", id)
	}
	pts, err := doc.GlobPoints(id)
	if err != nil {
		return nil, err
	}

	s := &AnchorDrag{glob: id, anchor: a, prime: prime}
	switch {
	case a == AnchorStart && !prime:
		s.e, s.d, s.bias = pts.E0, pts.D, g.BiasStart
	case a == AnchorStart && prime:
		s.e, s.d, s.bias = pts.E0p, pts.Dp, g.BiasStart
	case a == AnchorEnd && !prime:
		s.e, s.d, s.bias = pts.E1, pts.D, g.BiasEnd
	default:
		s.e, s.d, s.bias = pts.E1p, pts.Dp, g.BiasEnd
	}
	return s, nil
}

// Kind returns KindAnchor.
func (s *AnchorDrag) Kind() Kind { return KindAnchor }

// Bias returns the bias for pointer position p.
func (s *AnchorDrag) Bias(p vec.Point) float64 {
	seg := s.d.Sub(s.e)
	l2 := seg.LengthSq()
	if l2 == 0 {
		return s.bias
	}
	return vec.Clamp(p.Sub(s.e).Dot(seg)/l2, 0, 1)
}

// Update sets the bias from the pointer.
func (s *AnchorDrag) Update(doc *document.Document, in Input) error {
	return s.set(doc, s.Bias(in.Point))
}

func (s *AnchorDrag) set(doc *document.Document, bias float64) error {
	g, ok := doc.Glob(s.glob)
	if !ok {
		return errors.NewInvalidSessionState("anchored glob is gone: " + s.glob)
	}
	if s.anchor == AnchorStart {
		g.BiasStart = bias
	} else {
		g.BiasEnd = bias
	}
	return doc.UpdateGlob(g)
}

// Complete checks the glob still exists.
func (s *AnchorDrag) Complete(doc *document.Document) error {
	if _, ok := doc.Glob(s.glob); !ok {
		return errors.NewInvalidSessionState("anchored glob is gone: " + s.glob)
	}
	return nil
}

// Cancel restores the original bias.
func (s *AnchorDrag) Cancel(doc *document.Document) error {
	return s.set(doc, s.bias)
}
