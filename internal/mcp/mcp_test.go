package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/db"
	"github.com/hpungsan/globs/internal/errors"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	cleanup := func() {
		database.Close()
	}

	return database, cfg, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// pairDocument is two linked nodes in doc_save's argument shape.
func pairDocument() map[string]any {
	return map[string]any{
		"nodes": map[string]any{
			"a": map[string]any{"id": "a", "point": map[string]any{"x": 0, "y": 0}, "radius": 25},
			"b": map[string]any{"id": "b", "point": map[string]any{"x": 300, "y": 0}, "radius": 25},
		},
		"globs": map[string]any{},
	}
}

// createDoc saves pairDocument as name, links a and b, and returns the
// document id and glob id.
func createDoc(t *testing.T, h *Handlers, name string) (string, string) {
	t.Helper()
	out := parseOutput(t, mustCall(t, h.HandleSave, map[string]any{"name": name, "document": pairDocument()}))
	id := out["id"].(string)
	linked := parseOutput(t, mustCall(t, h.HandleGlobLink, map[string]any{"id": id, "start": "a", "end": "b"}))
	created := linked["created"].([]any)
	return id, created[0].(string)
}

type handlerFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func mustCall(t *testing.T, fn handlerFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := fn(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return result
}

func TestHandleCreate(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name:      "create empty document",
			args:      map[string]any{"name": "sketch", "notes": "# Plan"},
			wantError: false,
		},
		{
			name:      "create without name",
			args:      map[string]any{},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "create duplicate name",
			args:      map[string]any{"name": "Sketch"},
			wantError: true,
			errorCode: "NAME_ALREADY_EXISTS",
		},
		{
			name:      "unknown argument",
			args:      map[string]any{"name": "other", "colour": "red"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleCreate(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandleSaveAndOpen(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)

	saved := parseOutput(t, mustCall(t, h.HandleSave, map[string]any{
		"name":     "Pair",
		"title":    "two nodes",
		"document": pairDocument(),
	}))
	if saved["created"] != true {
		t.Errorf("created = %v, want true", saved["created"])
	}

	result := mustCall(t, h.HandleSave, map[string]any{"name": "pair", "document": pairDocument()})
	assertErrorCode(t, result, "NAME_ALREADY_EXISTS")

	replaced := parseOutput(t, mustCall(t, h.HandleSave, map[string]any{
		"name":     "pair",
		"document": pairDocument(),
		"mode":     "replace",
	}))
	if replaced["id"] != saved["id"] {
		t.Errorf("replace id = %v, want %v", replaced["id"], saved["id"])
	}

	opened := parseOutput(t, mustCall(t, h.HandleOpen, map[string]any{"name": "PAIR", "include_svg": true}))
	doc := opened["document"].(map[string]any)
	if n := len(doc["nodes"].(map[string]any)); n != 2 {
		t.Errorf("nodes = %d, want 2", n)
	}
	if svg, _ := opened["svg"].(string); !strings.HasPrefix(svg, "<svg") {
		t.Errorf("svg = %.20q, want an svg document", svg)
	}

	result = mustCall(t, h.HandleSave, map[string]any{"name": "broken"})
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleSave_BadDocument(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	doc := map[string]any{
		"nodes": map[string]any{},
		"globs": map[string]any{
			"g": map[string]any{"id": "g", "start": "a", "end": "b"},
		},
	}
	result := mustCall(t, h.HandleSave, map[string]any{"name": "bad", "document": doc})
	assertErrorCode(t, result, "UNKNOWN_ENTITY")
}

func TestHandleListAndDelete(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	for i := 0; i < 3; i++ {
		mustCall(t, h.HandleCreate, map[string]any{"name": fmt.Sprintf("doc-%d", i)})
	}

	list := parseOutput(t, mustCall(t, h.HandleList, map[string]any{"limit": 2}))
	if items := list["items"].([]any); len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
	pagination := list["pagination"].(map[string]any)
	if pagination["has_more"] != true || pagination["total"] != float64(3) {
		t.Errorf("pagination = %v", pagination)
	}

	deleted := parseOutput(t, mustCall(t, h.HandleDelete, map[string]any{"name": "doc-1"}))
	if deleted["deleted"] != true {
		t.Errorf("deleted = %v, want true", deleted["deleted"])
	}
	result := mustCall(t, h.HandleDelete, map[string]any{"name": "doc-1"})
	assertErrorCode(t, result, "NOT_FOUND")
	result = mustCall(t, h.HandleDelete, map[string]any{"id": "x", "name": "y"})
	assertErrorCode(t, result, "AMBIGUOUS_ADDRESSING")

	list = parseOutput(t, mustCall(t, h.HandleList, map[string]any{"include_deleted": true}))
	if total := list["pagination"].(map[string]any)["total"]; total != float64(3) {
		t.Errorf("total with deleted = %v, want 3", total)
	}
}

func TestHandleExport(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	id, _ := createDoc(t, h, "logo")
	dir := t.TempDir()

	for _, format := range []string{"json", "svg", "png"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "logo."+format)
			out := parseOutput(t, mustCall(t, h.HandleExport, map[string]any{"id": id, "format": format, "path": path}))
			if out["path"] != path {
				t.Errorf("path = %v, want %s", out["path"], path)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("exported file missing: %v", err)
			}
			if info.Size() == 0 {
				t.Error("exported file is empty")
			}
		})
	}

	result := mustCall(t, h.HandleExport, map[string]any{"id": id, "format": "svg", "path": filepath.Join(dir, "logo.png")})
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleNodeTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	id, _ := createDoc(t, h, "nodes")

	added := parseOutput(t, mustCall(t, h.HandleNodeAdd, map[string]any{"id": id, "x": 0, "y": 200, "radius": 30, "node_id": "c"}))
	if added["nodes"] != float64(3) {
		t.Errorf("nodes = %v, want 3", added["nodes"])
	}

	parseOutput(t, mustCall(t, h.HandleNodeMove, map[string]any{"id": id, "node_id": "c", "x": 50, "y": 250}))
	parseOutput(t, mustCall(t, h.HandleNodeResize, map[string]any{"id": id, "node_id": "c", "radius": 45}))

	opened := parseOutput(t, mustCall(t, h.HandleOpen, map[string]any{"id": id}))
	c := opened["document"].(map[string]any)["nodes"].(map[string]any)["c"].(map[string]any)
	pt := c["point"].(map[string]any)
	if pt["x"] != float64(50) || pt["y"] != float64(250) {
		t.Errorf("c point = %v, want (50,250)", pt)
	}
	if c["radius"] != float64(45) {
		t.Errorf("c radius = %v, want 45", c["radius"])
	}

	deleted := parseOutput(t, mustCall(t, h.HandleNodeDelete, map[string]any{"id": id, "node_id": "a"}))
	if deleted["nodes"] != float64(2) || deleted["globs"] != float64(0) {
		t.Errorf("after delete = %v nodes, %v globs; want 2, 0", deleted["nodes"], deleted["globs"])
	}

	tests := []struct {
		name string
		fn   handlerFunc
		args map[string]any
		code string
	}{
		{"add without y", h.HandleNodeAdd, map[string]any{"id": id, "x": 1}, "INVALID_REQUEST"},
		{"move unknown node", h.HandleNodeMove, map[string]any{"id": id, "node_id": "zz", "x": 1, "y": 1}, "UNKNOWN_ENTITY"},
		{"resize without radius", h.HandleNodeResize, map[string]any{"id": id, "node_id": "b"}, "INVALID_REQUEST"},
		{"resize negative", h.HandleNodeResize, map[string]any{"id": id, "node_id": "b", "radius": -5}, "INVALID_REQUEST"},
		{"missing document", h.HandleNodeAdd, map[string]any{"name": "nope", "x": 1, "y": 1}, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertErrorCode(t, mustCall(t, tt.fn, tt.args), tt.code)
		})
	}
}

func TestHandleGlobTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	id, globID := createDoc(t, h, "globs")

	outline := parseOutput(t, mustCall(t, h.HandleGlobOutline, map[string]any{"id": id}))
	globs := outline["globs"].([]any)
	if len(globs) != 1 {
		t.Fatalf("globs = %d, want 1", len(globs))
	}
	if d := globs[0].(map[string]any)["d"].(string); !strings.HasPrefix(d, "M ") {
		t.Errorf("d = %q, want path data", d)
	}

	split := parseOutput(t, mustCall(t, h.HandleGlobSplit, map[string]any{"id": id, "glob_id": globID, "x": 150, "y": 0}))
	if split["nodes"] != float64(3) || split["globs"] != float64(2) {
		t.Errorf("after split = %v nodes, %v globs; want 3, 2", split["nodes"], split["globs"])
	}

	result := mustCall(t, h.HandleGlobOutline, map[string]any{"id": id, "glob_id": globID})
	assertErrorCode(t, result, "UNKNOWN_ENTITY")
	result = mustCall(t, h.HandleGlobLink, map[string]any{"id": id, "start": "a", "end": "a"})
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleHistory(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	id, _ := createDoc(t, h, "history")

	mustCall(t, h.HandleNodeAdd, map[string]any{"id": id, "x": 0, "y": 200})
	mustCall(t, h.HandleNodeAdd, map[string]any{"id": id, "x": 0, "y": 400})

	undo := parseOutput(t, mustCall(t, h.HandleUndo, map[string]any{"id": id, "steps": 2}))
	if undo["steps"] != float64(2) || undo["nodes"] != float64(2) {
		t.Errorf("undo = %v", undo)
	}
	// The link made by createDoc is still undoable.
	undo = parseOutput(t, mustCall(t, h.HandleUndo, map[string]any{"id": id}))
	if undo["globs"] != float64(0) || undo["can_undo"] != false {
		t.Errorf("undo link = %v", undo)
	}
	assertErrorCode(t, mustCall(t, h.HandleUndo, map[string]any{"id": id}), "INVALID_REQUEST")

	redo := parseOutput(t, mustCall(t, h.HandleRedo, map[string]any{"id": id, "steps": 5}))
	if redo["steps"] != float64(3) || redo["nodes"] != float64(4) {
		t.Errorf("redo = %v", redo)
	}

	// Saving the document over itself drops the open history.
	mustCall(t, h.HandleSave, map[string]any{"name": "history", "document": pairDocument(), "mode": "replace"})
	assertErrorCode(t, mustCall(t, h.HandleUndo, map[string]any{"id": id}), "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	s := NewServer(database, cfg, "test", nil)
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"doc_create", "doc_open", "doc_save", "doc_list", "doc_delete", "doc_export",
		"node_add", "node_move", "node_resize", "node_delete",
		"glob_link", "glob_split", "glob_outline",
		"history_undo", "history_redo",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"doc_delete", "node_delete", "node_delete"}
	s := NewServer(database, cfg, "test", nil)
	tools := s.ListTools()

	if len(tools) != 13 {
		t.Errorf("registered tool count = %d, want 13", len(tools))
	}
	for _, name := range []string{"doc_delete", "node_delete"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTypes = []string{"node", "history"}
	cfg.DisabledTools = []string{"doc_export"}
	s := NewServer(database, cfg, "test", nil)
	tools := s.ListTools()

	// 15 - 4 node - 2 history - 1 tool
	if len(tools) != 8 {
		t.Errorf("registered tool count = %d, want 8", len(tools))
	}
	for name := range tools {
		if typ := GetTypeForTool(name); typ == "node" || typ == "history" {
			t.Errorf("tool %q of a disabled type is registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = AllToolNames()
	s := NewServer(database, cfg, "test", nil)
	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabled(t *testing.T) {
	if unknown := ValidateDisabledTools([]string{"doc_open", "fake_tool"}); len(unknown) != 1 || unknown[0] != "fake_tool" {
		t.Errorf("ValidateDisabledTools() = %v, want [fake_tool]", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"glob", "layer"}); len(unknown) != 1 || unknown[0] != "layer" {
		t.Errorf("ValidateDisabledTypes() = %v, want [layer]", unknown)
	}
	if names := AllToolNames(); len(names) != 15 {
		t.Errorf("AllToolNames() returned %d names, want 15", len(names))
	}
	for _, name := range AllToolNames() {
		known := false
		for _, typ := range KnownTypes {
			if GetTypeForTool(name) == typ {
				known = true
			}
		}
		if !known {
			t.Errorf("tool %q has no known type", name)
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	errObj := errorObject(t, r)

	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if strings.Contains(errObj["message"].(string), "secret") {
		t.Errorf("message leaks internals: %v", errObj["message"])
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrappedErr := fmt.Errorf("actions[2]: %w", errors.NewUnknownEntity("node", "zz"))
	errObj := errorObject(t, errorResult(wrappedErr))

	if errObj["code"] != string(errors.ErrUnknownEntity) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrUnknownEntity)
	}
	msg := errObj["message"].(string)
	if !strings.HasPrefix(msg, "actions[2]: ") {
		t.Errorf("message should keep wrapper context, got: %s", msg)
	}
	if _, ok := errObj["details"]; !ok {
		t.Error("expected details for non-internal error")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != "INTERNAL" || errObj["status"] != float64(500) {
		t.Errorf("error = %v, want INTERNAL/500", errObj)
	}
}

// Helper functions

func errorObject(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error %s, got success", expectedCode)
		return
	}
	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
