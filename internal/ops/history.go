package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/store"
)

// HistoryInput contains parameters for the Undo and Redo operations.
type HistoryInput struct {
	ID    string
	Name  string
	Steps int `validate:"gte=0,max=1000"` // default: 1
}

// HistoryOutput contains the result of the Undo and Redo operations.
type HistoryOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Steps   int    `json:"steps"`
	Nodes   int    `json:"nodes"`
	Globs   int    `json:"globs"`
	CanUndo bool   `json:"can_undo"`
	CanRedo bool   `json:"can_redo"`
}

// Undo reverts edits made through ws and saves the result. History only
// exists while the document stays open in ws and unchanged in the database.
func Undo(ctx context.Context, database *sql.DB, cfg *config.Config, ws *Workspace, input HistoryInput) (*HistoryOutput, error) {
	return stepHistory(ctx, database, cfg, ws, input, false)
}

// Redo reapplies undone edits and saves the result.
func Redo(ctx context.Context, database *sql.DB, cfg *config.Config, ws *Workspace, input HistoryInput) (*HistoryOutput, error) {
	return stepHistory(ctx, database, cfg, ws, input, true)
}

func stepHistory(ctx context.Context, database *sql.DB, cfg *config.Config, ws *Workspace, input HistoryInput, redo bool) (*HistoryOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, errors.NewInvalidRequest("history requires a workspace")
	}
	if input.Steps == 0 {
		input.Steps = 1
	}
	addr, err := ValidateAddress(input.ID, input.Name)
	if err != nil {
		return nil, err
	}
	r, err := lookup(ctx, database, addr, false)
	if err != nil {
		return nil, err
	}

	od, err := ws.checkout(r)
	if err != nil {
		return nil, err
	}
	defer od.release()

	word := "undo"
	var ev store.Event = store.Undo{}
	if redo {
		word = "redo"
		ev = store.Redo{}
	}

	steps := 0
	for steps < input.Steps {
		st := od.store.State()
		if (redo && !st.CanRedo) || (!redo && !st.CanUndo) {
			break
		}
		if err := od.store.Dispatch(ev); err != nil {
			od.discard()
			return nil, err
		}
		steps++
	}
	if steps == 0 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("nothing to %s", word))
	}

	if err := saveOpen(ctx, database, cfg, r, od); err != nil {
		return nil, err
	}
	st := od.store.State()
	return &HistoryOutput{
		ID:      r.ID,
		Name:    r.NameRaw,
		Steps:   steps,
		Nodes:   r.NodeCount,
		Globs:   r.GlobCount,
		CanUndo: st.CanUndo,
		CanRedo: st.CanRedo,
	}, nil
}
