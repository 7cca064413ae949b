package ops

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/db"
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/vec"
)

func stringPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func setupTest(t *testing.T) (*sql.DB, *config.Config) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, config.DefaultConfig()
}

// pairDoc returns nodes a (0,0) and b (300,0), both radius 25, and the id of
// the glob linking them.
func pairDoc(t *testing.T) (*document.Document, string) {
	t.Helper()
	doc := document.New()
	for _, n := range []document.Node{
		{ID: "a", Point: vec.Pt(0, 0), Radius: 25},
		{ID: "b", Point: vec.Pt(300, 0), Radius: 25},
	} {
		if _, err := doc.AddNode(n); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	g, err := doc.Link("a", "b")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	return doc, g.ID
}

// savePair stores pairDoc under name and returns the document id and glob id.
func savePair(t *testing.T, database *sql.DB, cfg *config.Config, name string) (string, string) {
	t.Helper()
	doc, globID := pairDoc(t)
	out, err := Save(context.Background(), database, cfg, SaveInput{Name: name, Document: doc})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return out.ID, globID
}

func TestValidateAddress_ByID(t *testing.T) {
	addr, err := ValidateAddress(" 01ABC123 ", "")
	if err != nil {
		t.Fatalf("ValidateAddress failed: %v", err)
	}
	if !addr.ByID {
		t.Error("ByID = false, want true")
	}
	if addr.ID != "01ABC123" {
		t.Errorf("ID = %q, want %q", addr.ID, "01ABC123")
	}
}

func TestValidateAddress_ByName(t *testing.T) {
	addr, err := ValidateAddress("", "  My   Sketch ")
	if err != nil {
		t.Fatalf("ValidateAddress failed: %v", err)
	}
	if addr.ByID {
		t.Error("ByID = true, want false")
	}
	if addr.Name != "my sketch" {
		t.Errorf("Name = %q, want %q (normalized)", addr.Name, "my sketch")
	}
}

func TestValidateAddress_Errors(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		docName  string
		wantCode errors.ErrorCode
	}{
		{"both", "01ABC", "sketch", errors.ErrAmbiguousAddressing},
		{"neither", "", "", errors.ErrInvalidRequest},
		{"whitespace only", "  ", "\t", errors.ErrInvalidRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateAddress(tc.id, tc.docName)
			if !errors.Is(err, tc.wantCode) {
				t.Errorf("ValidateAddress() error = %v, want %s", err, tc.wantCode)
			}
		})
	}
}

func TestValidateInput_ReportsEveryField(t *testing.T) {
	err := validateInput(SaveInput{Mode: "merge"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("validateInput() error = %v, want INVALID_REQUEST", err)
	}
	gErr, _ := errors.As(err)
	for _, want := range []string{"name is required", "document is required", "mode must be one of: error, replace"} {
		if !strings.Contains(gErr.Message, want) {
			t.Errorf("message %q missing %q", gErr.Message, want)
		}
	}
}

func TestCheckSize(t *testing.T) {
	doc, _ := pairDoc(t)
	cfg := config.DefaultConfig()

	cfg.MaxDocumentNodes = 2
	if err := checkSize(cfg, doc); err != nil {
		t.Errorf("checkSize(limit 2) error = %v, want nil", err)
	}
	cfg.MaxDocumentNodes = 1
	if err := checkSize(cfg, doc); !errors.Is(err, errors.ErrDocumentTooLarge) {
		t.Errorf("checkSize(limit 1) error = %v, want DOCUMENT_TOO_LARGE", err)
	}
	cfg.MaxDocumentNodes = 0
	if err := checkSize(cfg, doc); err != nil {
		t.Errorf("checkSize(unlimited) error = %v, want nil", err)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if err := cancelled(ctx, "export"); err != nil {
		t.Errorf("cancelled() before cancel = %v, want nil", err)
	}
	cancel()
	if err := cancelled(ctx, "export"); !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("cancelled() after cancel = %v, want CANCELLED", err)
	}
}
