package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/globs/internal/document"
)

// OpenInput contains parameters for the Open operation.
type OpenInput struct {
	ID             string
	Name           string
	IncludeDeleted bool
}

// OpenOutput contains the result of the Open operation.
type OpenOutput struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Title     *string            `json:"title,omitempty"`
	Document  *document.Document `json:"document"`
	CreatedAt int64              `json:"created_at"`
	UpdatedAt int64              `json:"updated_at"`
	DeletedAt *int64             `json:"deleted_at,omitempty"`
}

// Open retrieves a document by ID or name.
func Open(ctx context.Context, database *sql.DB, input OpenInput) (*OpenOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	r, err := lookup(ctx, database, addr, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}

	return &OpenOutput{
		ID:        r.ID,
		Name:      r.NameRaw,
		Title:     r.Title,
		Document:  doc,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		DeletedAt: r.DeletedAt,
	}, nil
}
