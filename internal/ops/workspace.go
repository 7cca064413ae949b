package ops

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/record"
	"github.com/hpungsan/globs/internal/store"
)

// StoreOptions maps configuration onto store options.
func StoreOptions(cfg *config.Config, logger *zap.Logger) store.Options {
	opts := store.DefaultOptions()
	opts.Logger = logger
	if cfg == nil {
		return opts
	}
	opts.HistoryLimit = cfg.HistoryLimit
	if opts.HistoryLimit < 0 {
		opts.HistoryLimit = 0
	}
	opts.SnapDistance = cfg.SnapDistance
	opts.DefaultRadius = cfg.DefaultRadius
	opts.MinZoom = cfg.MinZoom
	opts.MaxZoom = cfg.MaxZoom
	return opts
}

// Workspace keeps edited documents open in memory so their undo history
// lasts across separate Edit and Undo calls. A document is reloaded from the
// database, dropping its history, when the stored version no longer matches
// the open copy.
type Workspace struct {
	mu   sync.Mutex
	opts store.Options
	open map[string]*openDoc
}

type openDoc struct {
	mu      sync.Mutex
	store   *store.Store
	version int64
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(opts store.Options) *Workspace {
	return &Workspace{opts: opts, open: make(map[string]*openDoc)}
}

// checkout returns the open store for r, locked for the caller. The caller
// must call release.
func (w *Workspace) checkout(r *record.Record) (*openDoc, error) {
	w.mu.Lock()
	od, ok := w.open[r.ID]
	if !ok {
		od = &openDoc{}
		w.open[r.ID] = od
	}
	w.mu.Unlock()

	od.mu.Lock()
	if od.store != nil && od.version == r.Version {
		return od, nil
	}
	doc, err := decodeDocument(r)
	if err != nil {
		od.mu.Unlock()
		return nil, err
	}
	od.store = store.New(doc, w.opts)
	od.version = r.Version
	return od, nil
}

func (od *openDoc) release() { od.mu.Unlock() }

// discard drops the open copy so the next checkout reloads it.
func (od *openDoc) discard() { od.store = nil }

// Len returns the number of open documents.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.open)
}

// Close forgets an open document.
func (w *Workspace) Close(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.open, id)
}
