package session

import (
	"slices"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/vec"
)

// Brush selects nodes whose circles touch a rectangle dragged from the
// origin, and globs whose two nodes are both selected. With Shift held the
// result is added to the selection that existed when the brush began.
type Brush struct {
	origin       vec.Point
	initialNodes []string
	initialGlobs []string
}

// NewBrush begins a brush selection at origin.
func NewBrush(doc *document.Document, origin vec.Point) *Brush {
	return &Brush{
		origin:       origin,
		initialNodes: doc.SelectedNodeIDs(),
		initialGlobs: doc.SelectedGlobIDs(),
	}
}

// Kind returns KindBrush.
func (b *Brush) Kind() Kind { return KindBrush }

// Update sets the brush rectangle and the selection it covers.
func (b *Brush) Update(doc *document.Document, in Input) error {
	rect := vec.NewRect(b.origin, in.Point)
	doc.SetBrush(&rect)

	var nodes, globs []string
	if in.Shift {
		nodes = slices.Clone(b.initialNodes)
		globs = slices.Clone(b.initialGlobs)
	}
	hit := make(map[string]bool)
	for _, n := range doc.Nodes() {
		if rect.IntersectsCircle(n.Point, n.Radius) {
			hit[n.ID] = true
			nodes = append(nodes, n.ID)
		}
	}
	for _, g := range doc.Globs() {
		if hit[g.Start] && hit[g.End] {
			globs = append(globs, g.ID)
		}
	}
	doc.SetSelection(nodes, globs)
	return nil
}

// Complete clears the brush rectangle and keeps the selection.
func (b *Brush) Complete(doc *document.Document) error {
	doc.SetBrush(nil)
	return nil
}

// Cancel clears the brush and restores the original selection.
func (b *Brush) Cancel(doc *document.Document) error {
	doc.SetBrush(nil)
	doc.SetSelection(b.initialNodes, b.initialGlobs)
	return nil
}
