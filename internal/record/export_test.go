package record

import (
	"encoding/json"
	"testing"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/vec"
)

func TestParseExport_WithHeader(t *testing.T) {
	doc := document.New()
	if _, err := doc.AddNode(document.Node{ID: "a", Point: vec.Pt(1, 2), Radius: 3}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	data, err := json.Marshal(ExportFile{
		GlobsExport:   true,
		SchemaVersion: SchemaVersion,
		Name:          "Sketch",
		Document:      doc.Data(),
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	f, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport() error = %v", err)
	}
	if f.Name != "Sketch" {
		t.Errorf("Name = %q, want Sketch", f.Name)
	}
	if n := f.Document.Nodes["a"]; n.Radius != 3 {
		t.Errorf("node a radius = %v, want 3", n.Radius)
	}
}

func TestParseExport_BareDocument(t *testing.T) {
	raw := `{"nodes":{"a":{"id":"a","point":{"x":0,"y":0},"radius":5}},"globs":{},"camera":{"point":{"x":0,"y":0},"zoom":1}}`
	f, err := ParseExport([]byte(raw))
	if err != nil {
		t.Fatalf("ParseExport() error = %v", err)
	}
	if f.Name != "" {
		t.Errorf("Name = %q, want empty", f.Name)
	}
	if len(f.Document.Nodes) != 1 {
		t.Errorf("nodes = %d, want 1", len(f.Document.Nodes))
	}
}

func TestParseExport_Invalid(t *testing.T) {
	if _, err := ParseExport([]byte(`{nope`)); err == nil {
		t.Fatal("ParseExport() expected error")
	}
}
