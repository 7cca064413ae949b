package session

import (
	"math"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/vec"
)

type handles struct {
	d, dp vec.Point
}

// Move translates every selected node, plus both nodes of every selected
// glob, by the document-space pointer delta. Handles of every glob with a
// moving endpoint translate by the same delta. Locked nodes stay put, and a
// glob with no moving endpoint keeps its handles even when it is selected.
//
// With a positive snap distance the lead node (the first moving node)
// snaps its x and y to other nodes' centers; holding Ctrl disables snapping.
type Move struct {
	origin vec.Point
	lead   string
	nodes  map[string]vec.Point
	globs  map[string]handles

	snapDistance float64
	targets      []vec.Point
}

// NewMove begins a move from origin. snapDistance is in document units.
func NewMove(doc *document.Document, origin vec.Point, snapDistance float64) (*Move, error) {
	m := &Move{
		origin:       origin,
		nodes:        make(map[string]vec.Point),
		globs:        make(map[string]handles),
		snapDistance: snapDistance,
	}

	var order []string
	addNode := func(id string) {
		n, ok := doc.Node(id)
		if !ok || n.Locked {
			return
		}
		if _, seen := m.nodes[id]; seen {
			return
		}
		m.nodes[id] = n.Point
		order = append(order, id)
	}
	for _, id := range doc.SelectedNodeIDs() {
		addNode(id)
	}
	for _, id := range doc.SelectedGlobIDs() {
		if g, ok := doc.Glob(id); ok {
			addNode(g.Start)
			addNode(g.End)
		}
	}
	if len(order) == 0 && len(doc.SelectedGlobIDs()) == 0 {
		return nil, errors.NewInvalidSessionState("nothing selected to move")
	}
	if len(order) > 0 {
		m.lead = order[0]
	}

	for _, g := range doc.Globs() {
		_, startMoves := m.nodes[g.Start]
		_, endMoves := m.nodes[g.End]
		if startMoves || endMoves {
			m.globs[g.ID] = handles{d: g.D, dp: g.Dp}
		}
	}

	for _, n := range doc.Nodes() {
		if _, moving := m.nodes[n.ID]; !moving {
			m.targets = append(m.targets, n.Point)
		}
	}
	return m, nil
}

// Kind returns KindMove.
func (m *Move) Kind() Kind { return KindMove }

// Update moves everything by in.Point - origin, adjusted by snapping.
func (m *Move) Update(doc *document.Document, in Input) error {
	delta := in.Point.Sub(m.origin)

	var snaps []document.Snap
	if m.lead != "" && m.snapDistance > 0 && !in.Ctrl {
		delta, snaps = m.snap(delta)
	}
	return m.apply(doc, delta, snaps)
}

func (m *Move) apply(doc *document.Document, delta vec.Point, snaps []document.Snap) error {
	for id, p := range m.nodes {
		if err := doc.MoveNode(id, p.Add(delta)); err != nil {
			return errors.NewInvalidSessionState("moved node is gone: " + id)
		}
	}
	for id, h := range m.globs {
		g, ok := doc.Glob(id)
		if !ok {
			return errors.NewInvalidSessionState("moved glob is gone: " + id)
		}
		g.D = h.d.Add(delta)
		g.Dp = h.dp.Add(delta)
		if err := doc.UpdateGlob(g); err != nil {
			return err
		}
	}
	doc.SetSnaps(snaps)
	return nil
}

// snap aligns the lead node with the nearest target on each axis.
func (m *Move) snap(delta vec.Point) (vec.Point, []document.Snap) {
	p := m.nodes[m.lead].Add(delta)

	bestX, bestY := math.Inf(1), math.Inf(1)
	var tx, ty *vec.Point
	for i := range m.targets {
		t := &m.targets[i]
		if dx := math.Abs(t.X - p.X); dx <= m.snapDistance && dx < bestX {
			bestX, tx = dx, t
		}
		if dy := math.Abs(t.Y - p.Y); dy <= m.snapDistance && dy < bestY {
			bestY, ty = dy, t
		}
	}

	if tx != nil {
		delta.X += tx.X - p.X
		p.X = tx.X
	}
	if ty != nil {
		delta.Y += ty.Y - p.Y
		p.Y = ty.Y
	}

	var snaps []document.Snap
	if tx != nil {
		snaps = append(snaps, document.Snap{From: p, To: *tx})
	}
	if ty != nil {
		snaps = append(snaps, document.Snap{From: p, To: *ty})
	}
	return delta, snaps
}

// Complete clears snap guides.
func (m *Move) Complete(doc *document.Document) error {
	doc.SetSnaps(nil)
	return nil
}

// Cancel restores original positions and handles.
func (m *Move) Cancel(doc *document.Document) error {
	return m.apply(doc, vec.Point{}, nil)
}
