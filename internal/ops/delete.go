package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/globs/internal/db"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID   string
	Name string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete soft-deletes a document.
func Delete(ctx context.Context, database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	// Resolve the ID of the active record
	r, err := lookup(ctx, database, addr, false)
	if err != nil {
		return nil, err
	}

	if err := db.SoftDelete(ctx, database, r.ID); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: true,
		ID:      r.ID,
	}, nil
}
