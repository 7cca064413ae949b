package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/db"
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/record"
	"github.com/hpungsan/globs/internal/store"
	"github.com/hpungsan/globs/internal/vec"
)

// ActionType names an edit action.
type ActionType string

const (
	ActionAddNode      ActionType = "add_node"
	ActionLink         ActionType = "link"
	ActionMoveNode     ActionType = "move_node"
	ActionResizeNode   ActionType = "resize_node"
	ActionSplitGlob    ActionType = "split_glob"
	ActionDeleteNode   ActionType = "delete_node"
	ActionSetHandles   ActionType = "set_handles"
	ActionSetBias      ActionType = "set_bias"
	ActionSetCamera    ActionType = "set_camera"
	ActionToggleLocked ActionType = "toggle_locked"
	ActionToggleCap    ActionType = "toggle_cap"
)

// Action is one edit. Fields are read according to Type; points are in
// document space.
type Action struct {
	Type ActionType `json:"type" validate:"required,oneof=add_node link move_node resize_node split_glob delete_node set_handles set_bias set_camera toggle_locked toggle_cap"`

	// ID is the node or glob acted on. For add_node it optionally names the
	// new node.
	ID string `json:"id,omitempty"`

	// Start and End are the nodes joined by link.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// Point is the position for add_node, move_node, split_glob and
	// set_camera.
	Point *vec.Point `json:"point,omitempty"`

	// Radius is used by add_node (0 = configured default) and resize_node.
	Radius float64 `json:"radius,omitempty" validate:"gte=0"`

	D         *vec.Point `json:"d,omitempty"`
	Dp        *vec.Point `json:"dp,omitempty"`
	BiasStart *float64   `json:"bias_start,omitempty"`
	BiasEnd   *float64   `json:"bias_end,omitempty"`

	// Zoom is the set_camera zoom (0 = 1).
	Zoom float64 `json:"zoom,omitempty" validate:"gte=0"`
}

// EditInput contains parameters for the Edit operation.
type EditInput struct {
	ID      string
	Name    string
	Actions []Action `validate:"required,min=1,dive"`
}

// EditOutput contains the result of the Edit operation.
type EditOutput struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Applied int      `json:"applied"`
	Created []string `json:"created"`
	Nodes   int      `json:"nodes"`
	Globs   int      `json:"globs"`
	CanUndo bool     `json:"can_undo"`
	CanRedo bool     `json:"can_redo"`
}

// Edit applies actions to a stored document and saves it. Actions run as
// store events, so each one is a separate undo step when ws keeps the
// document open. A nil ws edits a throwaway copy. Either every action
// applies or nothing is saved.
func Edit(ctx context.Context, database *sql.DB, cfg *config.Config, ws *Workspace, input EditInput) (*EditOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	addr, err := ValidateAddress(input.ID, input.Name)
	if err != nil {
		return nil, err
	}
	r, err := lookup(ctx, database, addr, false)
	if err != nil {
		return nil, err
	}

	if ws == nil {
		ws = NewWorkspace(StoreOptions(cfg, nil))
	}
	od, err := ws.checkout(r)
	if err != nil {
		return nil, err
	}
	defer od.release()

	ed := &editor{st: od.store, created: []string{}}
	camera := od.store.Document().Camera()
	// Pointer events are given in document coordinates.
	if err := ed.dispatch(store.SetCamera{Camera: document.DefaultCamera()}); err != nil {
		od.discard()
		return nil, err
	}

	for i, a := range input.Actions {
		if err := cancelled(ctx, "edit"); err != nil {
			od.discard()
			return nil, err
		}
		if err := ed.apply(a); err != nil {
			od.discard()
			return nil, actionError(i, a.Type, err)
		}
	}

	if ed.camera != nil {
		camera = *ed.camera
	}
	if err := ed.dispatch(store.SetCamera{Camera: camera}); err != nil {
		od.discard()
		return nil, err
	}

	if err := saveOpen(ctx, database, cfg, r, od); err != nil {
		return nil, err
	}

	state := od.store.State()
	return &EditOutput{
		ID:      r.ID,
		Name:    r.NameRaw,
		Applied: len(input.Actions),
		Created: ed.created,
		Nodes:   r.NodeCount,
		Globs:   r.GlobCount,
		CanUndo: state.CanUndo,
		CanRedo: state.CanRedo,
	}, nil
}

// saveOpen writes the open document back to r's row and records the new
// version on od. If another writer got there first the open copy is
// discarded and CONFLICT is returned.
func saveOpen(ctx context.Context, database *sql.DB, cfg *config.Config, r *record.Record, od *openDoc) error {
	doc := od.store.Document()
	if err := checkSize(cfg, doc); err != nil {
		od.discard()
		return err
	}
	if err := encodeDocument(r, doc); err != nil {
		od.discard()
		return err
	}
	if err := db.UpdateByID(ctx, database, r); err != nil {
		od.discard()
		return err
	}
	od.version = r.Version
	return nil
}

// actionError prefixes err with the failing action, keeping its code.
func actionError(i int, typ ActionType, err error) error {
	gErr, ok := errors.As(err)
	if !ok {
		return errors.NewInternal(fmt.Errorf("action %d (%s): %w", i, typ, err))
	}
	details := map[string]any{"action": i, "type": string(typ)}
	for k, v := range gErr.Details {
		details[k] = v
	}
	return &errors.GlobsError{
		Code:    gErr.Code,
		Status:  gErr.Status,
		Message: fmt.Sprintf("action %d (%s): %s", i, typ, gErr.Message),
		Details: details,
	}
}

// editor turns actions into store events.
type editor struct {
	st      *store.Store
	created []string
	camera  *document.Camera
}

func (e *editor) dispatch(events ...store.Event) error {
	for _, ev := range events {
		if err := e.st.Dispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

func (e *editor) node(id string) (document.Node, error) {
	if id == "" {
		return document.Node{}, errors.NewInvalidRequest("id is required")
	}
	n, ok := e.st.Document().Node(id)
	if !ok {
		return document.Node{}, errors.NewUnknownEntity("node", id)
	}
	return n, nil
}

func (e *editor) unlocked(id string) (document.Node, error) {
	n, err := e.node(id)
	if err != nil {
		return n, err
	}
	if n.Locked {
		return n, errors.NewConflict(fmt.Sprintf("node %s is locked", id))
	}
	return n, nil
}

// selectOnly makes id the only selected node.
func (e *editor) selectOnly(id string) error {
	if _, err := e.node(id); err != nil {
		return err
	}
	return e.dispatch(store.ClearedSelection{}, store.SelectedNode{ID: id})
}

func (e *editor) recordSelection() {
	st := e.st.State()
	e.created = append(e.created, st.Document.SelectedNodeIDs()...)
	e.created = append(e.created, st.Document.SelectedGlobIDs()...)
}

func requirePoint(p *vec.Point) error {
	if p == nil {
		return errors.NewInvalidRequest("point is required")
	}
	return nil
}

func (e *editor) apply(a Action) error {
	switch a.Type {
	case ActionAddNode:
		if err := requirePoint(a.Point); err != nil {
			return err
		}
		if err := e.dispatch(store.CreatedNode{Pointer: store.Pointer{Point: *a.Point}, Radius: a.Radius, ID: a.ID}); err != nil {
			return err
		}
		e.recordSelection()

	case ActionLink:
		if a.Start == "" || a.End == "" {
			return errors.NewInvalidRequest("start and end are required")
		}
		if err := e.dispatch(store.LinkedNodes{Start: a.Start, End: a.End}); err != nil {
			return err
		}
		e.recordSelection()

	case ActionMoveNode:
		if err := requirePoint(a.Point); err != nil {
			return err
		}
		n, err := e.unlocked(a.ID)
		if err != nil {
			return err
		}
		// Ctrl disables snapping so the node lands exactly on Point.
		from := store.Pointer{Point: n.Point, Ctrl: true}
		to := store.Pointer{Point: *a.Point, Ctrl: true}
		return e.dispatch(
			store.ClearedSelection{},
			store.PointedNode{ID: a.ID, Pointer: from},
			store.MovedPointer{Pointer: to},
			store.StoppedPointing{Pointer: to},
		)

	case ActionResizeNode:
		n, err := e.unlocked(a.ID)
		if err != nil {
			return err
		}
		// Shift sizes to the pointer's distance from the center.
		from := store.Pointer{Point: n.Point.Add(vec.Pt(n.Radius, 0))}
		to := store.Pointer{Point: n.Point.Add(vec.Pt(a.Radius, 0)), Shift: true}
		return e.dispatch(
			store.PointedBounds{NodeID: a.ID, Pointer: from},
			store.MovedPointer{Pointer: to},
			store.StoppedPointing{Pointer: to},
		)

	case ActionSplitGlob:
		if err := requirePoint(a.Point); err != nil {
			return err
		}
		if a.ID == "" {
			return errors.NewInvalidRequest("id is required")
		}
		if err := e.dispatch(store.SplitGlob{GlobID: a.ID, Pointer: store.Pointer{Point: *a.Point}}); err != nil {
			return err
		}
		e.recordSelection()

	case ActionDeleteNode:
		if err := e.selectOnly(a.ID); err != nil {
			return err
		}
		return e.dispatch(store.DeletedSelection{})

	case ActionSetHandles:
		if a.ID == "" || (a.D == nil && a.Dp == nil) {
			return errors.NewInvalidRequest("id and at least one of d, dp are required")
		}
		return e.dispatch(store.UpdatedGlob{GlobID: a.ID, D: a.D, Dp: a.Dp})

	case ActionSetBias:
		if a.ID == "" || (a.BiasStart == nil && a.BiasEnd == nil) {
			return errors.NewInvalidRequest("id and at least one of bias_start, bias_end are required")
		}
		return e.dispatch(store.UpdatedGlob{GlobID: a.ID, BiasStart: a.BiasStart, BiasEnd: a.BiasEnd})

	case ActionSetCamera:
		c := document.DefaultCamera()
		if a.Point != nil {
			c.Point = *a.Point
		}
		if a.Zoom > 0 {
			c.Zoom = a.Zoom
		}
		e.camera = &c

	case ActionToggleLocked:
		if err := e.selectOnly(a.ID); err != nil {
			return err
		}
		return e.dispatch(store.ToggledLocked{})

	case ActionToggleCap:
		if err := e.selectOnly(a.ID); err != nil {
			return err
		}
		return e.dispatch(store.ToggledCap{})

	default:
		return errors.NewInvalidRequest(fmt.Sprintf("unknown action type %q", a.Type))
	}
	return nil
}
