package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/vec"
)

func TestUndoRedo(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()
	id, _ := savePair(t, database, cfg, "sketch")
	ws := NewWorkspace(StoreOptions(cfg, nil))

	out, err := Edit(ctx, database, cfg, ws, EditInput{ID: id, Actions: []Action{
		{Type: ActionAddNode, ID: "c", Point: ptr(vec.Pt(0, 100))},
		{Type: ActionAddNode, ID: "d", Point: ptr(vec.Pt(0, 200))},
	}})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if !out.CanUndo || out.CanRedo {
		t.Errorf("CanUndo/CanRedo = %v/%v, want true/false", out.CanUndo, out.CanRedo)
	}

	undo, err := Undo(ctx, database, cfg, ws, HistoryInput{ID: id})
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if undo.Steps != 1 || undo.Nodes != 3 {
		t.Errorf("Undo = %d steps, %d nodes; want 1, 3", undo.Steps, undo.Nodes)
	}
	if !undo.CanRedo {
		t.Error("CanRedo = false after undo")
	}

	got, err := Open(ctx, database, OpenInput{ID: id})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := got.Document.Node("d"); ok {
		t.Error("node d still stored after undo")
	}

	// More steps than history stops at the start.
	undo, err = Undo(ctx, database, cfg, ws, HistoryInput{Name: "sketch", Steps: 10})
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if undo.Steps != 1 || undo.Nodes != 2 || undo.CanUndo {
		t.Errorf("Undo = %d steps, %d nodes, can undo %v; want 1, 2, false", undo.Steps, undo.Nodes, undo.CanUndo)
	}
	if _, err := Undo(ctx, database, cfg, ws, HistoryInput{ID: id}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Undo() at start error = %v, want INVALID_REQUEST", err)
	}

	redo, err := Redo(ctx, database, cfg, ws, HistoryInput{ID: id, Steps: 2})
	if err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if redo.Steps != 2 || redo.Nodes != 4 {
		t.Errorf("Redo = %d steps, %d nodes; want 2, 4", redo.Steps, redo.Nodes)
	}
	if _, err := Redo(ctx, database, cfg, ws, HistoryInput{ID: id}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Redo() at end error = %v, want INVALID_REQUEST", err)
	}
}

func TestUndo_ExternalChangeDropsHistory(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()
	id, _ := savePair(t, database, cfg, "sketch")
	ws := NewWorkspace(StoreOptions(cfg, nil))

	if _, err := Edit(ctx, database, cfg, ws, EditInput{ID: id, Actions: []Action{
		{Type: ActionAddNode, Point: ptr(vec.Pt(0, 100))},
	}}); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	// Another writer in the same second, without a workspace.
	if _, err := Edit(ctx, database, cfg, nil, EditInput{ID: id, Actions: []Action{
		{Type: ActionAddNode, Point: ptr(vec.Pt(0, 200))},
	}}); err != nil {
		t.Fatalf("external Edit failed: %v", err)
	}
	if _, err := Undo(ctx, database, cfg, ws, HistoryInput{ID: id}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Undo() after external change error = %v, want INVALID_REQUEST", err)
	}
}

func TestUndo_Validation(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()
	id, _ := savePair(t, database, cfg, "sketch")

	if _, err := Undo(ctx, database, cfg, nil, HistoryInput{ID: id}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Undo(nil workspace) error = %v, want INVALID_REQUEST", err)
	}
	ws := NewWorkspace(StoreOptions(cfg, nil))
	if _, err := Undo(ctx, database, cfg, ws, HistoryInput{ID: id, Steps: -1}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Undo(steps -1) error = %v, want INVALID_REQUEST", err)
	}
	if _, err := Redo(ctx, database, cfg, ws, HistoryInput{ID: "missing"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Redo(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestWorkspace(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()
	id, _ := savePair(t, database, cfg, "sketch")
	ws := NewWorkspace(StoreOptions(cfg, nil))

	if _, err := Edit(ctx, database, cfg, ws, EditInput{ID: id, Actions: []Action{
		{Type: ActionAddNode, Point: ptr(vec.Pt(0, 100))},
	}}); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if ws.Len() != 1 {
		t.Errorf("Len = %d, want 1", ws.Len())
	}
	ws.Close(id)
	if ws.Len() != 0 {
		t.Errorf("Len after Close = %d, want 0", ws.Len())
	}
	if _, err := Undo(ctx, database, cfg, ws, HistoryInput{ID: id}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Undo() after Close error = %v, want INVALID_REQUEST", err)
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HistoryLimit = -1
	cfg.SnapDistance = -1
	cfg.DefaultRadius = 7

	opts := StoreOptions(cfg, nil)
	if opts.HistoryLimit != 0 {
		t.Errorf("HistoryLimit = %d, want 0 (unlimited)", opts.HistoryLimit)
	}
	if opts.SnapDistance != -1 {
		t.Errorf("SnapDistance = %v, want -1 (disabled)", opts.SnapDistance)
	}
	if opts.DefaultRadius != 7 {
		t.Errorf("DefaultRadius = %v, want 7", opts.DefaultRadius)
	}
}
