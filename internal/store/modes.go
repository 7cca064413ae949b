package store

import (
	"github.com/hpungsan/globs/internal/glob"
	"github.com/hpungsan/globs/internal/session"
)

// ModeKind names an interaction mode.
type ModeKind string

const (
	ModeIdle           ModeKind = "idle"
	ModePointing       ModeKind = "pointing"
	ModeBrushSelecting ModeKind = "brush_selecting"
	ModeLinkingNodes   ModeKind = "linking_nodes"
	ModeCreatingNodes  ModeKind = "creating_nodes"
	ModeSplittingGlob  ModeKind = "splitting_glob"
)

// AllModeKinds lists every mode kind.
func AllModeKinds() []ModeKind {
	return []ModeKind{
		ModeIdle, ModePointing, ModeBrushSelecting,
		ModeLinkingNodes, ModeCreatingNodes, ModeSplittingGlob,
	}
}

// Mode is the store's current interaction mode and the data it carries.
type Mode interface {
	Kind() ModeKind
	isMode()
}

// Idle waits for the next gesture or command.
type Idle struct{}

// Pointing forwards pointer moves to a move, resize, handle or anchor
// session.
type Pointing struct{ Session session.Session }

// BrushSelecting forwards pointer moves to a brush session.
type BrushSelecting struct{ Brush *session.Brush }

// LinkingNodes waits for the node to link the selection to.
type LinkingNodes struct{}

// CreatingNodes waits for the point to place a new node at.
type CreatingNodes struct{}

// SplittingGlob tracks the split preview under the pointer.
type SplittingGlob struct {
	GlobID  string
	Preview *glob.InnerCircle
}

func (Idle) Kind() ModeKind           { return ModeIdle }
func (Pointing) Kind() ModeKind       { return ModePointing }
func (BrushSelecting) Kind() ModeKind { return ModeBrushSelecting }
func (LinkingNodes) Kind() ModeKind   { return ModeLinkingNodes }
func (CreatingNodes) Kind() ModeKind  { return ModeCreatingNodes }
func (SplittingGlob) Kind() ModeKind  { return ModeSplittingGlob }

func (Idle) isMode()           {}
func (Pointing) isMode()       {}
func (BrushSelecting) isMode() {}
func (LinkingNodes) isMode()   {}
func (CreatingNodes) isMode()  {}
func (SplittingGlob) isMode()  {}

// activeSession returns the session a pointer mode is driving, or nil.
func activeSession(m Mode) session.Session {
	switch m := m.(type) {
	case Pointing:
		return m.Session
	case BrushSelecting:
		return m.Brush
	}
	return nil
}
