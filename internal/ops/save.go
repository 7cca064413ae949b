package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/db"
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/record"
)

// SaveMode controls collision behavior.
type SaveMode string

const (
	SaveModeError   SaveMode = "error"   // default: fail on name collision
	SaveModeReplace SaveMode = "replace" // overwrite existing
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	Name     string             `validate:"required"`
	Title    *string            // optional
	Document *document.Document `validate:"required"`
	Mode     SaveMode           `validate:"omitempty,oneof=error replace"`
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

// Save stores a document under a name.
func Save(ctx context.Context, database *sql.DB, cfg *config.Config, input SaveInput) (*SaveOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Mode == "" {
		input.Mode = SaveModeError
	}

	nameNorm := record.Normalize(input.Name)
	if nameNorm == "" {
		return nil, errors.NewInvalidRequest("name must not be empty")
	}
	if err := checkSize(cfg, input.Document); err != nil {
		return nil, err
	}

	// Generate ULID for new record (may be discarded if upsert updates existing)
	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()

	r := &record.Record{
		ID:        id,
		NameRaw:   input.Name,
		NameNorm:  nameNorm,
		Title:     input.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := encodeDocument(r, input.Document); err != nil {
		return nil, err
	}

	if input.Mode == SaveModeReplace {
		// Atomic UPSERT: concurrent callers cannot both insert the same name.
		result, err := db.Upsert(ctx, database, r)
		if err != nil {
			return nil, err
		}
		return &SaveOutput{ID: result.ID, Name: input.Name, Created: result.Created}, nil
	}

	if err := db.Insert(ctx, database, r); err != nil {
		if err == db.ErrUniqueConstraint {
			return nil, errors.NewNameAlreadyExists(input.Name)
		}
		return nil, err
	}
	return &SaveOutput{ID: id, Name: input.Name, Created: true}, nil
}

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Name  string  `validate:"required"`
	Title *string // optional
	Notes string  // optional markdown
}

// Create stores a new empty document. The name must be free.
func Create(ctx context.Context, database *sql.DB, cfg *config.Config, input CreateInput) (*SaveOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	doc := document.New()
	doc.SetNotes(input.Notes)
	return Save(ctx, database, cfg, SaveInput{
		Name:     input.Name,
		Title:    input.Title,
		Document: doc,
		Mode:     SaveModeError,
	})
}
