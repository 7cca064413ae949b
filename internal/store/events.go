package store

import (
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/session"
	"github.com/hpungsan/globs/internal/vec"
)

// EventKind names an event.
type EventKind string

const (
	EventPointedCanvas        EventKind = "POINTED_CANVAS"
	EventPointedNode          EventKind = "POINTED_NODE"
	EventPointedGlob          EventKind = "POINTED_GLOB"
	EventPointedHandle        EventKind = "POINTED_HANDLE"
	EventPointedAnchor        EventKind = "POINTED_ANCHOR"
	EventPointedBounds        EventKind = "POINTED_BOUNDS"
	EventMovedPointer         EventKind = "MOVED_POINTER"
	EventStoppedPointing      EventKind = "STOPPED_POINTING"
	EventCancelled            EventKind = "CANCELLED"
	EventStartedLinkingNodes  EventKind = "STARTED_LINKING_NODES"
	EventStartedCreatingNodes EventKind = "STARTED_CREATING_NODES"
	EventStartedSplittingGlob EventKind = "STARTED_SPLITTING_GLOB"
	EventSelectedNode         EventKind = "SELECTED_NODE"
	EventSelectedAll          EventKind = "SELECTED_ALL"
	EventClearedSelection     EventKind = "CLEARED_SELECTION"
	EventDeletedSelection     EventKind = "DELETED_SELECTION"
	EventToggledLocked        EventKind = "TOGGLED_LOCKED"
	EventToggledCap           EventKind = "TOGGLED_CAP"
	EventCreatedNode          EventKind = "CREATED_NODE"
	EventLinkedNodes          EventKind = "LINKED_NODES"
	EventSplitGlob            EventKind = "SPLIT_GLOB"
	EventUpdatedGlob          EventKind = "UPDATED_GLOB"
	EventUndo                 EventKind = "UNDO"
	EventRedo                 EventKind = "REDO"
	EventPannedCamera         EventKind = "PANNED_CAMERA"
	EventZoomedCamera         EventKind = "ZOOMED_CAMERA"
	EventSetCamera            EventKind = "SET_CAMERA"
)

// AllEventKinds lists every event kind.
func AllEventKinds() []EventKind {
	return []EventKind{
		EventPointedCanvas, EventPointedNode, EventPointedGlob, EventPointedHandle,
		EventPointedAnchor, EventPointedBounds, EventMovedPointer, EventStoppedPointing,
		EventCancelled, EventStartedLinkingNodes, EventStartedCreatingNodes,
		EventStartedSplittingGlob, EventSelectedNode, EventSelectedAll,
		EventClearedSelection, EventDeletedSelection, EventToggledLocked, EventToggledCap,
		EventCreatedNode, EventLinkedNodes, EventSplitGlob, EventUpdatedGlob,
		EventUndo, EventRedo, EventPannedCamera, EventZoomedCamera, EventSetCamera,
	}
}

// Event is a named input to the store. Pointer positions carried by events
// are in screen space; the store converts them through the camera.
type Event interface {
	Kind() EventKind
	isEvent()
}

// Pointer is a screen-space pointer position with modifier keys.
type Pointer = session.Input

// PointedCanvas starts a brush selection, or places a node while creating.
type PointedCanvas struct{ Pointer Pointer }

// PointedNode selects a node and starts moving the selection, or picks
// the link target while linking.
type PointedNode struct {
	ID      string
	Pointer Pointer
}

// PointedGlob selects a glob and starts moving it, or splits it while
// splitting.
type PointedGlob struct {
	ID      string
	Pointer Pointer
}

// PointedHandle starts dragging one of a glob's handles.
type PointedHandle struct {
	GlobID  string
	Handle  session.Handle
	Pointer Pointer
}

// PointedAnchor starts dragging a glob's control point to set a bias.
type PointedAnchor struct {
	GlobID  string
	Anchor  session.Anchor
	Prime   bool
	Pointer Pointer
}

// PointedBounds starts resizing a node.
type PointedBounds struct {
	NodeID  string
	Pointer Pointer
}

// MovedPointer updates the active session or split preview.
type MovedPointer struct{ Pointer Pointer }

// StoppedPointing completes the active session.
type StoppedPointing struct{ Pointer Pointer }

// Cancelled aborts the active session or mode.
type Cancelled struct{}

// StartedLinkingNodes waits for a node to link the selected nodes to.
type StartedLinkingNodes struct{}

// StartedCreatingNodes waits for a canvas point to place a node.
type StartedCreatingNodes struct{}

// StartedSplittingGlob waits for a glob point to split at.
type StartedSplittingGlob struct{}

// SelectedNode selects a node. With Shift the node is toggled in the
// existing selection.
type SelectedNode struct {
	ID    string
	Shift bool
}

// SelectedAll selects every node and glob.
type SelectedAll struct{}

// ClearedSelection deselects everything.
type ClearedSelection struct{}

// DeletedSelection removes selected globs and nodes.
type DeletedSelection struct{}

// ToggledLocked locks the selected nodes, or unlocks them if all are locked.
type ToggledLocked struct{}

// ToggledCap makes the selected nodes flat, or round if all are flat.
type ToggledCap struct{}

// CreatedNode adds a node at a screen point. A zero radius uses the
// configured default.
type CreatedNode struct {
	Pointer Pointer
	Radius  float64
	// ID names the node; empty assigns a new ULID.
	ID string
}

// LinkedNodes creates a glob between two nodes.
type LinkedNodes struct {
	Start string
	End   string
}

// SplitGlob splits a glob at a screen point.
type SplitGlob struct {
	GlobID  string
	Pointer Pointer
}

// UpdatedGlob sets a glob's handles and biases directly. Nil fields are
// left unchanged. Handle points are in document space.
type UpdatedGlob struct {
	GlobID    string
	D         *vec.Point
	Dp        *vec.Point
	BiasStart *float64
	BiasEnd   *float64
}

// Undo restores the previous history entry.
type Undo struct{}

// Redo restores the next history entry.
type Redo struct{}

// PannedCamera moves the camera by a screen delta.
type PannedCamera struct{ Delta vec.Point }

// ZoomedCamera zooms about a screen point.
type ZoomedCamera struct {
	Point vec.Point
	Zoom  float64
}

// SetCamera replaces the camera.
type SetCamera struct{ Camera document.Camera }

func (PointedCanvas) Kind() EventKind        { return EventPointedCanvas }
func (PointedNode) Kind() EventKind          { return EventPointedNode }
func (PointedGlob) Kind() EventKind          { return EventPointedGlob }
func (PointedHandle) Kind() EventKind        { return EventPointedHandle }
func (PointedAnchor) Kind() EventKind        { return EventPointedAnchor }
func (PointedBounds) Kind() EventKind        { return EventPointedBounds }
func (MovedPointer) Kind() EventKind         { return EventMovedPointer }
func (StoppedPointing) Kind() EventKind      { return EventStoppedPointing }
func (Cancelled) Kind() EventKind            { return EventCancelled }
func (StartedLinkingNodes) Kind() EventKind  { return EventStartedLinkingNodes }
func (StartedCreatingNodes) Kind() EventKind { return EventStartedCreatingNodes }
func (StartedSplittingGlob) Kind() EventKind { return EventStartedSplittingGlob }
func (SelectedNode) Kind() EventKind         { return EventSelectedNode }
func (SelectedAll) Kind() EventKind          { return EventSelectedAll }
func (ClearedSelection) Kind() EventKind     { return EventClearedSelection }
func (DeletedSelection) Kind() EventKind     { return EventDeletedSelection }
func (ToggledLocked) Kind() EventKind        { return EventToggledLocked }
func (ToggledCap) Kind() EventKind           { return EventToggledCap }
func (CreatedNode) Kind() EventKind          { return EventCreatedNode }
func (LinkedNodes) Kind() EventKind          { return EventLinkedNodes }
func (SplitGlob) Kind() EventKind            { return EventSplitGlob }
func (UpdatedGlob) Kind() EventKind          { return EventUpdatedGlob }
func (Undo) Kind() EventKind                 { return EventUndo }
func (Redo) Kind() EventKind                 { return EventRedo }
func (PannedCamera) Kind() EventKind         { return EventPannedCamera }
func (ZoomedCamera) Kind() EventKind         { return EventZoomedCamera }
func (SetCamera) Kind() EventKind            { return EventSetCamera }

func (PointedCanvas) isEvent()        {}
func (PointedNode) isEvent()          {}
func (PointedGlob) isEvent()          {}
func (PointedHandle) isEvent()        {}
func (PointedAnchor) isEvent()        {}
func (PointedBounds) isEvent()        {}
func (MovedPointer) isEvent()         {}
func (StoppedPointing) isEvent()      {}
func (Cancelled) isEvent()            {}
func (StartedLinkingNodes) isEvent()  {}
func (StartedCreatingNodes) isEvent() {}
func (StartedSplittingGlob) isEvent() {}
func (SelectedNode) isEvent()         {}
func (SelectedAll) isEvent()          {}
func (ClearedSelection) isEvent()     {}
func (DeletedSelection) isEvent()     {}
func (ToggledLocked) isEvent()        {}
func (ToggledCap) isEvent()           {}
func (CreatedNode) isEvent()          {}
func (LinkedNodes) isEvent()          {}
func (SplitGlob) isEvent()            {}
func (UpdatedGlob) isEvent()          {}
func (Undo) isEvent()                 {}
func (Redo) isEvent()                 {}
func (PannedCamera) isEvent()         {}
func (ZoomedCamera) isEvent()         {}
func (SetCamera) isEvent()            {}
