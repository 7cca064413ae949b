package session

import (
	"fmt"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/vec"
)

// Handle identifies one of a glob's two handles.
type Handle string

const (
	HandleD  Handle = "d"
	HandleDp Handle = "dp"
)

// ParseHandle validates a handle name.
func ParseHandle(s string) (Handle, error) {
	switch Handle(s) {
	case HandleD, HandleDp:
		return Handle(s), nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown handle %q (want d or dp)", s))
}

// HandleDrag moves one handle of a glob by the pointer delta. With Shift
// held both handles move together.
type HandleDrag struct {
	glob   string
	handle Handle
	origin vec.Point
	d, dp  vec.Point
}

// NewHandleDrag begins dragging handle h of glob id.
func NewHandleDrag(doc *document.Document, id string, h Handle, origin vec.Point) (*HandleDrag, error) {
	g, ok := doc.Glob(id)
	if !ok {
		return nil, errors.NewUnknownEntity("glob", id)
	}
	return &HandleDrag{glob: id, handle: h, origin: origin, d: g.D, dp: g.Dp}, nil
}

// Kind returns KindHandle.
func (s *HandleDrag) Kind() Kind { return KindHandle }

// Update places the handle at its original position plus the pointer delta.
func (s *HandleDrag) Update(doc *document.Document, in Input) error {
	delta := in.Point.Sub(s.origin)
	d, dp := s.d, s.dp
	if s.handle == HandleD || in.Shift {
		d = d.Add(delta)
	}
	if s.handle == HandleDp || in.Shift {
		dp = dp.Add(delta)
	}
	return s.set(doc, d, dp)
}

func (s *HandleDrag) set(doc *document.Document, d, dp vec.Point) error {
	g, ok := doc.Glob(s.glob)
	if !ok {
		return errors.NewInvalidSessionState("dragged glob is gone: " + s.glob)
	}
	g.D, g.Dp = d, dp
	return doc.UpdateGlob(g)
}

// Complete checks the glob still exists.
func (s *HandleDrag) Complete(doc *document.Document) error {
	if _, ok := doc.Glob(s.glob); !ok {
		return errors.NewInvalidSessionState("dragged glob is gone: " + s.glob)
	}
	return nil
}

// Cancel restores both handles.
func (s *HandleDrag) Cancel(doc *document.Document) error {
	return s.set(doc, s.d, s.dp)
}
