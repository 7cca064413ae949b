package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
)

// OutlineInput contains parameters for the Outline operation.
type OutlineInput struct {
	ID     string
	Name   string
	GlobID string // optional, default: every glob
}

// GlobOutline is one glob's outline as an SVG path description.
type GlobOutline struct {
	ID         string `json:"id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	D          string `json:"d"`
	Degenerate bool   `json:"degenerate"`
}

// OutlineOutput contains the result of the Outline operation.
type OutlineOutput struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Globs []GlobOutline `json:"globs"`
}

// Outline computes glob outlines of a stored document. Degenerate globs are
// reported with an empty path.
func Outline(ctx context.Context, database *sql.DB, input OutlineInput) (*OutlineOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Name)
	if err != nil {
		return nil, err
	}
	r, err := lookup(ctx, database, addr, false)
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}

	ids := doc.GlobIDs()
	if input.GlobID != "" {
		if _, ok := doc.Glob(input.GlobID); !ok {
			return nil, errors.NewUnknownEntity("glob", input.GlobID)
		}
		ids = []string{input.GlobID}
	}

	globs, err := Outlines(doc, ids)
	if err != nil {
		return nil, err
	}
	return &OutlineOutput{ID: r.ID, Name: r.NameRaw, Globs: globs}, nil
}

// Outlines returns the outlines of the given globs, or of every glob when
// ids is nil.
func Outlines(doc *document.Document, ids []string) ([]GlobOutline, error) {
	if ids == nil {
		ids = doc.GlobIDs()
	}
	out := make([]GlobOutline, 0, len(ids))
	for _, id := range ids {
		g, ok := doc.Glob(id)
		if !ok {
			return nil, errors.NewUnknownEntity("glob", id)
		}
		p, err := doc.GlobOutline(id)
		if err != nil {
			return nil, err
		}
		out = append(out, GlobOutline{
			ID:         id,
			Start:      g.Start,
			End:        g.End,
			D:          p.SVG(),
			Degenerate: p.IsEmpty(),
		})
	}
	return out, nil
}
