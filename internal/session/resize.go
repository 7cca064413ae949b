package session

import (
	"math"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/vec"
)

// Resize changes one node's radius.
//
// In proportional mode (the default, also with Meta) the radius grows by
// the change in pointer distance from the center: r = r0 + (d - d0). With
// Shift held the radius is the pointer distance itself. Distances are in
// document space, so both modes account for zoom. The radius never goes
// below zero. A locked node is left unchanged.
type Resize struct {
	node     string
	center   vec.Point
	radius   float64
	distance float64
	locked   bool
}

// NewResize begins resizing node id from origin.
func NewResize(doc *document.Document, id string, origin vec.Point) (*Resize, error) {
	n, ok := doc.Node(id)
	if !ok {
		return nil, errors.NewUnknownEntity("node", id)
	}
	return &Resize{
		node:     id,
		center:   n.Point,
		radius:   n.Radius,
		distance: origin.Distance(n.Point),
		locked:   n.Locked,
	}, nil
}

// Kind returns KindResize.
func (r *Resize) Kind() Kind { return KindResize }

// Radius returns the radius for pointer input in.
func (r *Resize) Radius(in Input) float64 {
	d := in.Point.Distance(r.center)
	if in.Shift {
		return math.Max(0, d)
	}
	return math.Max(0, r.radius+(d-r.distance))
}

// Update sets the node's radius.
func (r *Resize) Update(doc *document.Document, in Input) error {
	if r.locked {
		return nil
	}
	return r.set(doc, r.Radius(in))
}

func (r *Resize) set(doc *document.Document, radius float64) error {
	if err := doc.ResizeNode(r.node, radius); err != nil {
		return errors.NewInvalidSessionState("resized node is gone: " + r.node)
	}
	return nil
}

// Complete is a no-op; the radius is already applied.
func (r *Resize) Complete(doc *document.Document) error {
	if _, ok := doc.Node(r.node); !ok {
		return errors.NewInvalidSessionState("resized node is gone: " + r.node)
	}
	return nil
}

// Cancel restores the original radius.
func (r *Resize) Cancel(doc *document.Document) error {
	return r.set(doc, r.radius)
}
