package store

import (
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/glob"
	"github.com/hpungsan/globs/internal/session"
)

type handler func(s *Store, e Event) error

// transition is one (mode, event) table entry. A nil fn marks an event the
// mode deliberately ignores.
type transition struct {
	fn handler
}

type table map[EventKind]transition

func build(handled map[EventKind]handler, ignored ...EventKind) table {
	t := make(table, len(handled)+len(ignored))
	for k, fn := range handled {
		t[k] = transition{fn: fn}
	}
	for _, k := range ignored {
		t[k] = transition{}
	}
	return t
}

// commandEvents are only accepted while idle.
var commandEvents = []EventKind{
	EventStartedLinkingNodes, EventStartedCreatingNodes, EventStartedSplittingGlob,
	EventSelectedNode, EventSelectedAll, EventClearedSelection,
	EventDeletedSelection, EventToggledLocked, EventToggledCap,
	EventCreatedNode, EventLinkedNodes, EventSplitGlob, EventUpdatedGlob,
	EventUndo, EventRedo,
}

func withCamera(h map[EventKind]handler) map[EventKind]handler {
	h[EventPannedCamera] = (*Store).pannedCamera
	h[EventZoomedCamera] = (*Store).zoomedCamera
	h[EventSetCamera] = (*Store).setCamera
	return h
}

func ignoring(groups ...[]EventKind) []EventKind {
	var out []EventKind
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// transitions lists every (mode, event) pair. Pairs absent from a mode's
// table are a programming error caught by tests.
var transitions = map[ModeKind]table{
	ModeIdle: build(withCamera(map[EventKind]handler{
		EventPointedCanvas:        (*Store).startBrush,
		EventPointedNode:          (*Store).startMoveFromNode,
		EventPointedGlob:          (*Store).startMoveFromGlob,
		EventPointedHandle:        (*Store).startHandleDrag,
		EventPointedAnchor:        (*Store).startAnchorDrag,
		EventPointedBounds:        (*Store).startResize,
		EventCancelled:            (*Store).clearSelection,
		EventStartedLinkingNodes:  (*Store).startLinking,
		EventStartedCreatingNodes: (*Store).startCreating,
		EventStartedSplittingGlob: (*Store).startSplitting,
		EventSelectedNode:         (*Store).selectedNode,
		EventSelectedAll:          (*Store).selectAll,
		EventClearedSelection:     (*Store).clearSelection,
		EventDeletedSelection:     (*Store).deleteSelection,
		EventToggledLocked:        (*Store).toggleLocked,
		EventToggledCap:           (*Store).toggleCap,
		EventCreatedNode:          (*Store).createdNode,
		EventLinkedNodes:          (*Store).linkedNodes,
		EventSplitGlob:            (*Store).splitGlob,
		EventUpdatedGlob:          (*Store).updatedGlob,
		EventUndo:                 (*Store).undo,
		EventRedo:                 (*Store).redo,
	}), EventMovedPointer, EventStoppedPointing),

	ModePointing: build(withCamera(map[EventKind]handler{
		EventMovedPointer:    (*Store).updateSession,
		EventStoppedPointing: (*Store).completeSession,
		EventCancelled:       (*Store).cancelSession,
	}), ignoring(commandEvents, []EventKind{
		EventPointedCanvas, EventPointedNode, EventPointedGlob,
		EventPointedHandle, EventPointedAnchor, EventPointedBounds,
	})...),

	ModeBrushSelecting: build(withCamera(map[EventKind]handler{
		EventMovedPointer:    (*Store).updateSession,
		EventStoppedPointing: (*Store).completeSession,
		EventCancelled:       (*Store).cancelSession,
	}), ignoring(commandEvents, []EventKind{
		EventPointedCanvas, EventPointedNode, EventPointedGlob,
		EventPointedHandle, EventPointedAnchor, EventPointedBounds,
	})...),

	ModeLinkingNodes: build(withCamera(map[EventKind]handler{
		EventPointedNode:   (*Store).linkSelectionTo,
		EventPointedCanvas: (*Store).toIdle,
		EventCancelled:     (*Store).toIdle,
	}), ignoring(commandEvents, []EventKind{
		EventPointedGlob, EventPointedHandle, EventPointedAnchor,
		EventPointedBounds, EventMovedPointer, EventStoppedPointing,
	})...),

	ModeCreatingNodes: build(withCamera(map[EventKind]handler{
		EventPointedCanvas: (*Store).placeNode,
		EventCancelled:     (*Store).toIdle,
	}), ignoring(commandEvents, []EventKind{
		EventPointedNode, EventPointedGlob, EventPointedHandle,
		EventPointedAnchor, EventPointedBounds, EventMovedPointer,
		EventStoppedPointing,
	})...),

	ModeSplittingGlob: build(withCamera(map[EventKind]handler{
		EventMovedPointer: (*Store).previewSplit,
		EventPointedGlob:  (*Store).splitPointedGlob,
		EventCancelled:    (*Store).toIdle,
	}), ignoring(commandEvents, []EventKind{
		EventPointedCanvas, EventPointedNode, EventPointedHandle,
		EventPointedAnchor, EventPointedBounds, EventStoppedPointing,
	})...),
}

func (s *Store) toIdle(Event) error {
	s.setMode(Idle{})
	return nil
}

// Gestures.

func (s *Store) startBrush(e Event) error {
	in := s.toDoc(e.(PointedCanvas).Pointer)
	if !in.Shift {
		s.doc.ClearSelection()
	}
	s.setMode(BrushSelecting{Brush: session.NewBrush(s.doc, in.Point)})
	return nil
}

func (s *Store) startMoveFromNode(e Event) error {
	ev := e.(PointedNode)
	if _, ok := s.doc.Node(ev.ID); !ok {
		return errors.NewUnknownEntity("node", ev.ID)
	}
	in := s.toDoc(ev.Pointer)
	if !s.pickNode(ev.ID, in.Shift) {
		return nil
	}
	return s.startMove(in)
}

func (s *Store) startMoveFromGlob(e Event) error {
	ev := e.(PointedGlob)
	if _, ok := s.doc.Glob(ev.ID); !ok {
		return errors.NewUnknownEntity("glob", ev.ID)
	}
	in := s.toDoc(ev.Pointer)
	if !s.pickGlob(ev.ID, in.Shift) {
		return nil
	}
	return s.startMove(in)
}

func (s *Store) startMove(in session.Input) error {
	m, err := session.NewMove(s.doc, in.Point, s.snapDistance())
	if err != nil {
		return err
	}
	s.setMode(Pointing{Session: m})
	return nil
}

func (s *Store) startHandleDrag(e Event) error {
	ev := e.(PointedHandle)
	in := s.toDoc(ev.Pointer)
	h, err := session.NewHandleDrag(s.doc, ev.GlobID, ev.Handle, in.Point)
	if err != nil {
		return err
	}
	s.setMode(Pointing{Session: h})
	return nil
}

func (s *Store) startAnchorDrag(e Event) error {
	ev := e.(PointedAnchor)
	a, err := session.NewAnchorDrag(s.doc, ev.GlobID, ev.Anchor, ev.Prime)
	if err != nil {
		return err
	}
	s.setMode(Pointing{Session: a})
	return nil
}

func (s *Store) startResize(e Event) error {
	ev := e.(PointedBounds)
	in := s.toDoc(ev.Pointer)
	r, err := session.NewResize(s.doc, ev.NodeID, in.Point)
	if err != nil {
		return err
	}
	s.setMode(Pointing{Session: r})
	return nil
}

func pointerOf(e Event) Pointer {
	switch e := e.(type) {
	case MovedPointer:
		return e.Pointer
	case StoppedPointing:
		return e.Pointer
	}
	return Pointer{}
}

func (s *Store) updateSession(e Event) error {
	sess := activeSession(s.mode)
	if err := sess.Update(s.doc, s.toDoc(pointerOf(e))); err != nil {
		return s.abort(sess, err)
	}
	return nil
}

func (s *Store) completeSession(e Event) error {
	sess := activeSession(s.mode)
	if err := sess.Update(s.doc, s.toDoc(pointerOf(e))); err != nil {
		return s.abort(sess, err)
	}
	if err := sess.Complete(s.doc); err != nil {
		return s.abort(sess, err)
	}
	s.setMode(Idle{})
	s.commit()
	return nil
}

func (s *Store) cancelSession(Event) error {
	sess := activeSession(s.mode)
	s.setMode(Idle{})
	return sess.Cancel(s.doc)
}

// abort drops a session whose anchors vanished. Other errors leave the
// session running so the next pointer event can recover.
func (s *Store) abort(sess session.Session, err error) error {
	if !errors.Is(err, errors.ErrInvalidSessionState) {
		return err
	}
	_ = sess.Cancel(s.doc)
	s.doc.SetBrush(nil)
	s.doc.SetSnaps(nil)
	s.setMode(Idle{})
	return err
}

// Modes.

func (s *Store) startLinking(Event) error {
	if len(s.doc.SelectedNodeIDs()) == 0 {
		return errors.NewInvalidRequest("select at least one node to link")
	}
	s.setMode(LinkingNodes{})
	return nil
}

func (s *Store) startCreating(Event) error {
	s.setMode(CreatingNodes{})
	return nil
}

func (s *Store) startSplitting(Event) error {
	s.setMode(SplittingGlob{})
	return nil
}

func (s *Store) linkSelectionTo(e Event) error {
	target := e.(PointedNode).ID
	s.setMode(Idle{})
	if _, ok := s.doc.Node(target); !ok {
		return errors.NewUnknownEntity("node", target)
	}
	for _, id := range s.doc.SelectedNodeIDs() {
		if id == target {
			continue
		}
		if _, err := s.doc.Link(id, target); err != nil {
			s.commit()
			return err
		}
	}
	s.doc.SetSelection([]string{target}, nil)
	s.commit()
	return nil
}

func (s *Store) placeNode(e Event) error {
	s.setMode(Idle{})
	return s.createNode(e.(PointedCanvas).Pointer, 0, "")
}

func (s *Store) previewSplit(e Event) error {
	pt := s.toDoc(e.(MovedPointer).Pointer).Point
	ids := s.doc.GlobIDs()
	for i := len(ids) - 1; i >= 0; i-- {
		pts, err := s.doc.GlobPoints(ids[i])
		if err != nil || !pts.Contains(pt) {
			continue
		}
		c := glob.CircleInGlob(pt, pts)
		if c == nil {
			continue
		}
		s.setMode(SplittingGlob{GlobID: ids[i], Preview: c})
		return nil
	}
	s.setMode(SplittingGlob{})
	return nil
}

func (s *Store) splitPointedGlob(e Event) error {
	ev := e.(PointedGlob)
	if err := s.split(ev.ID, ev.Pointer); err != nil {
		return err
	}
	s.setMode(Idle{})
	return nil
}

// Commands.

func (s *Store) selectedNode(e Event) error {
	ev := e.(SelectedNode)
	if _, ok := s.doc.Node(ev.ID); !ok {
		return errors.NewUnknownEntity("node", ev.ID)
	}
	s.pickNode(ev.ID, ev.Shift)
	return nil
}

func (s *Store) selectAll(Event) error {
	s.doc.SelectAll()
	return nil
}

func (s *Store) clearSelection(Event) error {
	s.doc.ClearSelection()
	return nil
}

func (s *Store) deleteSelection(Event) error {
	for _, id := range s.doc.SelectedGlobIDs() {
		if _, ok := s.doc.Glob(id); ok {
			if err := s.doc.RemoveGlob(id); err != nil {
				return err
			}
		}
	}
	for _, id := range s.doc.SelectedNodeIDs() {
		if _, ok := s.doc.Node(id); ok {
			if err := s.doc.RemoveNode(id); err != nil {
				return err
			}
		}
	}
	s.doc.ClearSelection()
	s.commit()
	return nil
}

func (s *Store) selectedNodes() []document.Node {
	var out []document.Node
	for _, id := range s.doc.SelectedNodeIDs() {
		if n, ok := s.doc.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) toggleLocked(Event) error {
	nodes := s.selectedNodes()
	lock := false
	for _, n := range nodes {
		if !n.Locked {
			lock = true
			break
		}
	}
	for _, n := range nodes {
		n.Locked = lock
		if err := s.doc.UpdateNode(n); err != nil {
			return err
		}
	}
	s.commit()
	return nil
}

func (s *Store) toggleCap(Event) error {
	nodes := s.selectedNodes()
	next := glob.CapRound
	for _, n := range nodes {
		if n.Cap == glob.CapRound {
			next = glob.CapFlat
			break
		}
	}
	for _, n := range nodes {
		n.Cap = next
		if err := s.doc.UpdateNode(n); err != nil {
			return err
		}
	}
	s.commit()
	return nil
}

func (s *Store) createdNode(e Event) error {
	ev := e.(CreatedNode)
	return s.createNode(ev.Pointer, ev.Radius, ev.ID)
}

func (s *Store) createNode(p Pointer, radius float64, id string) error {
	if radius == 0 {
		radius = s.opts.DefaultRadius
	}
	n, err := s.doc.AddNode(document.Node{ID: id, Point: s.toDoc(p).Point, Radius: radius})
	if err != nil {
		return err
	}
	s.doc.SetSelection([]string{n.ID}, nil)
	s.commit()
	return nil
}

func (s *Store) linkedNodes(e Event) error {
	ev := e.(LinkedNodes)
	g, err := s.doc.Link(ev.Start, ev.End)
	if err != nil {
		return err
	}
	s.doc.SetSelection(nil, []string{g.ID})
	s.commit()
	return nil
}

func (s *Store) splitGlob(e Event) error {
	ev := e.(SplitGlob)
	return s.split(ev.GlobID, ev.Pointer)
}

func (s *Store) split(id string, p Pointer) error {
	n, _, _, err := s.doc.SplitGlob(id, s.toDoc(p).Point)
	if err != nil {
		return err
	}
	s.doc.SetSelection([]string{n.ID}, nil)
	s.commit()
	return nil
}

func (s *Store) updatedGlob(e Event) error {
	ev := e.(UpdatedGlob)
	g, ok := s.doc.Glob(ev.GlobID)
	if !ok {
		return errors.NewUnknownEntity("glob", ev.GlobID)
	}
	if ev.D != nil {
		g.D = *ev.D
	}
	if ev.Dp != nil {
		g.Dp = *ev.Dp
	}
	if ev.BiasStart != nil {
		g.BiasStart = *ev.BiasStart
	}
	if ev.BiasEnd != nil {
		g.BiasEnd = *ev.BiasEnd
	}
	if err := s.doc.UpdateGlob(g); err != nil {
		return err
	}
	s.commit()
	return nil
}

func (s *Store) undo(Event) error {
	snap, ok := s.history.Undo()
	if !ok {
		return nil
	}
	s.doc.Restore(snap)
	return nil
}

func (s *Store) redo(Event) error {
	snap, ok := s.history.Redo()
	if !ok {
		return nil
	}
	s.doc.Restore(snap)
	return nil
}

// Camera.

func (s *Store) pannedCamera(e Event) error {
	return s.doc.SetCamera(s.doc.Camera().Pan(e.(PannedCamera).Delta))
}

func (s *Store) zoomedCamera(e Event) error {
	ev := e.(ZoomedCamera)
	return s.doc.SetCamera(s.doc.Camera().ZoomAt(ev.Point, s.clampZoom(ev.Zoom)))
}

func (s *Store) setCamera(e Event) error {
	c := e.(SetCamera).Camera
	c.Zoom = s.clampZoom(c.Zoom)
	return s.doc.SetCamera(c)
}

// Selection helpers.

// pickNode applies click selection for a node and reports whether the node
// ends up selected. Shift toggles it in the current selection; a plain
// click on an unselected node replaces the selection.
func (s *Store) pickNode(id string, shift bool) bool {
	nodes, globs := s.doc.SelectedNodeIDs(), s.doc.SelectedGlobIDs()
	selected := s.doc.IsNodeSelected(id)
	switch {
	case shift && selected:
		s.doc.SetSelection(remove(nodes, id), globs)
		return false
	case shift:
		s.doc.SetSelection(append(nodes, id), globs)
	case !selected:
		s.doc.SetSelection([]string{id}, nil)
	}
	return true
}

func (s *Store) pickGlob(id string, shift bool) bool {
	nodes, globs := s.doc.SelectedNodeIDs(), s.doc.SelectedGlobIDs()
	selected := s.doc.IsGlobSelected(id)
	switch {
	case shift && selected:
		s.doc.SetSelection(nodes, remove(globs, id))
		return false
	case shift:
		s.doc.SetSelection(nodes, append(globs, id))
	case !selected:
		s.doc.SetSelection(nil, []string{id})
	}
	return true
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
