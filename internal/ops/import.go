package ops

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/db"
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/record"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on name collision
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeRename  ImportMode = "rename"  // auto-suffix name on collision
)

// maxImportBytes caps the size of an import file.
const maxImportBytes = 64 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path  string     `validate:"required"`
	Name  string     // optional, overrides the name in the file
	Title *string    // optional, overrides the title in the file
	Mode  ImportMode `validate:"omitempty,oneof=error replace rename"` // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Mode    ImportMode `json:"mode"`
	Created bool       `json:"created"`
	Renamed bool       `json:"renamed"`
	Nodes   int        `json:"nodes"`
	Globs   int        `json:"globs"`
}

// Import reads a JSON export (or a bare document) and stores it. Imported
// documents always get a new id.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}

	if err := ValidatePath(input.Path, PathCheckRead, ExportJSON.Ext(), cfg); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(raw) > maxImportBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("import file exceeds %d bytes", maxImportBytes))
	}

	export, err := record.ParseExport(raw)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid export file: %v", err))
	}
	doc, err := document.FromData(export.Document)
	if err != nil {
		return nil, err
	}
	if err := checkSize(cfg, doc); err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = export.Name
	}
	nameNorm := record.Normalize(name)
	if nameNorm == "" {
		return nil, errors.NewInvalidRequest("name is required (the file does not carry one)")
	}
	title := export.Title
	if input.Title != nil {
		title = input.Title
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	r := &record.Record{
		ID:        id,
		NameRaw:   name,
		NameNorm:  nameNorm,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := encodeDocument(r, doc); err != nil {
		return nil, err
	}

	out := &ImportOutput{
		Mode:  input.Mode,
		Nodes: r.NodeCount,
		Globs: r.GlobCount,
	}

	switch input.Mode {
	case ImportModeReplace:
		result, err := db.Upsert(ctx, database, r)
		if err != nil {
			return nil, err
		}
		out.ID, out.Name, out.Created = result.ID, name, result.Created
		return out, nil

	case ImportModeRename:
		unique, err := db.FindUniqueName(ctx, database, nameNorm)
		if err != nil {
			return nil, err
		}
		if unique != nameNorm {
			r.NameRaw, r.NameNorm = unique, unique
			out.Renamed = true
		}
	}

	if err := db.Insert(ctx, database, r); err != nil {
		if err == db.ErrUniqueConstraint {
			return nil, errors.NewNameAlreadyExists(r.NameRaw)
		}
		return nil, err
	}
	out.ID, out.Name, out.Created = r.ID, r.NameRaw, true
	return out, nil
}
