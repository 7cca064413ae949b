// Package session implements interactive gestures. A session captures the
// part of the document it will mutate when it begins, recomputes the live
// document from that snapshot and the current pointer on every update, and
// either completes or restores the snapshot on cancel.
//
// Pointer positions given to sessions are in document space.
package session

import (
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/vec"
)

// Kind names a session type.
type Kind string

const (
	KindMove   Kind = "move"
	KindResize Kind = "resize"
	KindHandle Kind = "handle"
	KindAnchor Kind = "anchor"
	KindBrush  Kind = "brush"
)

// Input is a pointer position in document space plus modifier keys.
type Input struct {
	Point  vec.Point `json:"point"`
	Shift  bool      `json:"shift,omitempty"`
	Meta   bool      `json:"meta,omitempty"`
	Ctrl   bool      `json:"ctrl,omitempty"`
	Option bool      `json:"option,omitempty"`
}

// Session is one in-progress gesture.
type Session interface {
	Kind() Kind

	// Update recomputes the document from the session's snapshot and in.
	// Calling it twice with the same input leaves the same document.
	Update(doc *document.Document, in Input) error

	// Complete finalizes the gesture and clears transient state.
	Complete(doc *document.Document) error

	// Cancel restores the pre-gesture state.
	Cancel(doc *document.Document) error
}
