// Package store owns the live document. It runs a finite-state machine over
// interaction modes, forwards pointer events to the active session, and
// keeps an undo/redo history of document snapshots.
//
// Events carry screen-space pointer positions; the store converts them to
// document space through the document's camera before any session sees them.
package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/glob"
	"github.com/hpungsan/globs/internal/logging"
	"github.com/hpungsan/globs/internal/session"
	"github.com/hpungsan/globs/internal/vec"
)

// Options configure a Store.
type Options struct {
	// HistoryLimit caps undo steps. 0 or negative means unlimited.
	HistoryLimit int
	// SnapDistance is the move-snapping threshold in screen pixels. 0 or
	// negative disables snapping.
	SnapDistance float64
	// DefaultRadius is used by CreatedNode events without a radius.
	DefaultRadius float64
	MinZoom       float64
	MaxZoom       float64
	Logger        *zap.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		HistoryLimit:  100,
		SnapDistance:  8,
		DefaultRadius: 25,
		MinZoom:       0.1,
		MaxZoom:       8,
	}
}

// State is the snapshot handed to subscribers.
type State struct {
	Mode         ModeKind
	Session      session.Kind
	Document     *document.Document
	CanUndo      bool
	CanRedo      bool
	SplitPreview *glob.InnerCircle
}

type subscriber struct {
	id int
	fn func(State)
}

// Store is the single writer of a document. Dispatch calls are serialized;
// each runs to completion before the next begins.
type Store struct {
	mu      sync.Mutex
	doc     *document.Document
	mode    Mode
	history *History
	opts    Options
	logger  *zap.Logger

	subs    []subscriber
	nextSub int
}

// New creates a store that owns doc. A nil doc starts empty.
func New(doc *document.Document, opts Options) *Store {
	if doc == nil {
		doc = document.New()
	}
	def := DefaultOptions()
	if opts.DefaultRadius <= 0 {
		opts.DefaultRadius = def.DefaultRadius
	}
	if opts.MinZoom <= 0 {
		opts.MinZoom = def.MinZoom
	}
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = def.MaxZoom
	}
	return &Store{
		doc:     doc,
		mode:    Idle{},
		history: NewHistory(doc.Snapshot(), opts.HistoryLimit),
		opts:    opts,
		logger:  logging.OrNop(opts.Logger),
	}
}

// Dispatch applies one event. Events the current mode does not handle are
// ignored and return nil.
func (s *Store) Dispatch(e Event) error {
	if e == nil {
		return errors.NewInvalidRequest("event is required")
	}

	s.mu.Lock()
	from := s.mode.Kind()
	t, ok := transitions[from][e.Kind()]
	if !ok || t.fn == nil {
		s.mu.Unlock()
		s.logger.Debug("event ignored",
			zap.String("mode", string(from)),
			zap.String("event", string(e.Kind())))
		return nil
	}

	err := t.fn(s, e)
	if to := s.mode.Kind(); to != from {
		s.logger.Debug("mode transition",
			zap.String("event", string(e.Kind())),
			zap.String("from", string(from)),
			zap.String("to", string(to)))
	}
	if err != nil {
		s.logger.Debug("event failed",
			zap.String("event", string(e.Kind())),
			zap.Error(err))
	}

	var (
		state State
		subs  []subscriber
	)
	if len(s.subs) > 0 {
		state = s.stateLocked()
		subs = append(subs, s.subs...)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(state)
	}
	return err
}

// Can reports whether an event of kind would be handled in the current
// mode. UNDO and REDO also require a history entry in that direction.
func (s *Store) Can(kind EventKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := transitions[s.mode.Kind()][kind]
	if !ok || t.fn == nil {
		return false
	}
	switch kind {
	case EventUndo:
		return s.history.CanUndo()
	case EventRedo:
		return s.history.CanRedo()
	}
	return true
}

// Subscribe registers fn to receive the state after every handled event.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Mode returns the current mode kind.
func (s *Store) Mode() ModeKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode.Kind()
}

// Document returns a deep copy of the live document.
func (s *Store) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Load replaces the document, returns to idle and starts a fresh history.
func (s *Store) Load(doc *document.Document) {
	if doc == nil {
		doc = document.New()
	}
	s.mu.Lock()
	s.doc = doc
	s.mode = Idle{}
	s.history.Reset(doc.Snapshot())
	var (
		state State
		subs  []subscriber
	)
	if len(s.subs) > 0 {
		state = s.stateLocked()
		subs = append(subs, s.subs...)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(state)
	}
}

func (s *Store) stateLocked() State {
	st := State{
		Mode:     s.mode.Kind(),
		Document: s.doc.Clone(),
		CanUndo:  s.history.CanUndo(),
		CanRedo:  s.history.CanRedo(),
	}
	if sess := activeSession(s.mode); sess != nil {
		st.Session = sess.Kind()
	}
	if m, ok := s.mode.(SplittingGlob); ok && m.Preview != nil {
		p := *m.Preview
		st.SplitPreview = &p
	}
	return st
}

// toDoc converts a screen-space pointer to document space.
func (s *Store) toDoc(p Pointer) session.Input {
	p.Point = s.doc.Camera().ScreenToDocument(p.Point)
	return p
}

func (s *Store) snapDistance() float64 {
	return s.opts.SnapDistance / s.doc.Camera().Zoom
}

func (s *Store) setMode(m Mode) { s.mode = m }

// commit records the live document in history when it changed.
func (s *Store) commit() {
	before := s.history.Len()
	if !s.history.Push(s.doc.Snapshot()) {
		return
	}
	if s.history.Len() <= before {
		s.logger.Debug("history truncated", zap.Int("limit", s.opts.HistoryLimit))
	}
}

func (s *Store) clampZoom(z float64) float64 {
	return vec.Clamp(z, s.opts.MinZoom, s.opts.MaxZoom)
}
