package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
)

func TestSave_Basic(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()
	doc, _ := pairDoc(t)

	out, err := Save(ctx, database, cfg, SaveInput{
		Name:     "Logo Sketch",
		Title:    stringPtr("First pass"),
		Document: doc,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(out.ID) != 26 {
		t.Errorf("ID = %q, want a ULID", out.ID)
	}
	if !out.Created {
		t.Error("Created = false, want true")
	}

	got, err := Open(ctx, database, OpenInput{Name: "logo sketch"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got.ID != out.ID {
		t.Errorf("ID = %q, want %q", got.ID, out.ID)
	}
	if got.Name != "Logo Sketch" {
		t.Errorf("Name = %q, want %q", got.Name, "Logo Sketch")
	}
	if got.Title == nil || *got.Title != "First pass" {
		t.Errorf("Title = %v, want %q", got.Title, "First pass")
	}
	if got.Document.NodeCount() != 2 || got.Document.GlobCount() != 1 {
		t.Errorf("document = %d nodes, %d globs, want 2, 1", got.Document.NodeCount(), got.Document.GlobCount())
	}
}

func TestSave_NameCollision(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()
	savePair(t, database, cfg, "sketch")

	_, err := Save(ctx, database, cfg, SaveInput{Name: "  SKETCH ", Document: document.New()})
	if !errors.Is(err, errors.ErrNameAlreadyExists) {
		t.Errorf("Save() error = %v, want NAME_ALREADY_EXISTS", err)
	}
}

func TestSave_ReplaceKeepsID(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()
	id, _ := savePair(t, database, cfg, "sketch")

	out, err := Save(ctx, database, cfg, SaveInput{
		Name:     "sketch",
		Document: document.New(),
		Mode:     SaveModeReplace,
	})
	if err != nil {
		t.Fatalf("Save(replace) failed: %v", err)
	}
	if out.ID != id {
		t.Errorf("ID = %q, want existing %q", out.ID, id)
	}
	if out.Created {
		t.Error("Created = true, want false")
	}

	got, err := Open(ctx, database, OpenInput{ID: id})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got.Document.NodeCount() != 0 {
		t.Errorf("NodeCount = %d, want 0 after replace", got.Document.NodeCount())
	}
}

func TestSave_TooLarge(t *testing.T) {
	database, cfg := setupTest(t)
	cfg.MaxDocumentNodes = 1
	doc, _ := pairDoc(t)

	_, err := Save(context.Background(), database, cfg, SaveInput{Name: "big", Document: doc})
	if !errors.Is(err, errors.ErrDocumentTooLarge) {
		t.Errorf("Save() error = %v, want DOCUMENT_TOO_LARGE", err)
	}
}

func TestSave_Validation(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input SaveInput
	}{
		{"missing name", SaveInput{Document: document.New()}},
		{"blank name", SaveInput{Name: "   ", Document: document.New()}},
		{"missing document", SaveInput{Name: "x"}},
		{"bad mode", SaveInput{Name: "x", Document: document.New(), Mode: "merge"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Save(ctx, database, cfg, tc.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("Save() error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestCreate_Empty(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()

	out, err := Create(ctx, database, cfg, CreateInput{Name: "blank", Notes: "# Idea"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := Open(ctx, database, OpenInput{ID: out.ID})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got.Document.NodeCount() != 0 {
		t.Errorf("NodeCount = %d, want 0", got.Document.NodeCount())
	}
	if got.Document.Notes() != "# Idea" {
		t.Errorf("Notes = %q, want %q", got.Document.Notes(), "# Idea")
	}

	if _, err := Create(ctx, database, cfg, CreateInput{Name: "Blank"}); !errors.Is(err, errors.ErrNameAlreadyExists) {
		t.Errorf("Create(duplicate) error = %v, want NAME_ALREADY_EXISTS", err)
	}
}

func TestOpen_NotFound(t *testing.T) {
	database, _ := setupTest(t)
	ctx := context.Background()

	if _, err := Open(ctx, database, OpenInput{ID: "01NOPE"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Open(id) error = %v, want NOT_FOUND", err)
	}
	if _, err := Open(ctx, database, OpenInput{Name: "nope"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Open(name) error = %v, want NOT_FOUND", err)
	}
	if _, err := Open(ctx, database, OpenInput{ID: "x", Name: "y"}); !errors.Is(err, errors.ErrAmbiguousAddressing) {
		t.Errorf("Open(both) error = %v, want AMBIGUOUS_ADDRESSING", err)
	}
}

func TestOpen_IncludeDeleted(t *testing.T) {
	database, cfg := setupTest(t)
	ctx := context.Background()
	id, _ := savePair(t, database, cfg, "gone")

	if _, err := Delete(ctx, database, DeleteInput{ID: id}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := Open(ctx, database, OpenInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Open() error = %v, want NOT_FOUND", err)
	}
	got, err := Open(ctx, database, OpenInput{ID: id, IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Open(include_deleted) failed: %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt = nil, want set")
	}
}
