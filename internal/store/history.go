package store

import "github.com/hpungsan/globs/internal/document"

// History is a list of document snapshots with a cursor. entries[0] is the
// initial state; the cursor points at the snapshot matching the live
// document.
type History struct {
	entries []document.Snapshot
	cursor  int
	limit   int
}

// NewHistory starts a history at initial. limit caps the number of undo
// steps kept; 0 means unlimited.
func NewHistory(initial document.Snapshot, limit int) *History {
	return &History{entries: []document.Snapshot{initial}, limit: limit}
}

// Push records s as the new current state, discarding any redo tail. It
// returns false without recording when s equals the current state.
func (h *History) Push(s document.Snapshot) bool {
	if h.entries[h.cursor].Equal(s) {
		return false
	}
	h.entries = append(h.entries[:h.cursor+1], s)
	h.cursor++
	if h.limit > 0 && len(h.entries) > h.limit+1 {
		drop := len(h.entries) - (h.limit + 1)
		h.entries = append([]document.Snapshot(nil), h.entries[drop:]...)
		h.cursor -= drop
	}
	return true
}

// Undo steps back and returns the snapshot to restore.
func (h *History) Undo() (document.Snapshot, bool) {
	if !h.CanUndo() {
		return document.Snapshot{}, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo steps forward and returns the snapshot to restore.
func (h *History) Redo() (document.Snapshot, bool) {
	if !h.CanRedo() {
		return document.Snapshot{}, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// CanUndo reports whether there is an earlier state.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether there is a later state.
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Current returns the snapshot at the cursor.
func (h *History) Current() document.Snapshot { return h.entries[h.cursor] }

// Len returns the number of stored snapshots, including the initial one.
func (h *History) Len() int { return len(h.entries) }

// Reset discards everything and starts over at initial.
func (h *History) Reset(initial document.Snapshot) {
	h.entries = []document.Snapshot{initial}
	h.cursor = 0
}
