package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/logging"
	"github.com/hpungsan/globs/internal/ops"
	"github.com/hpungsan/globs/internal/render"
	"github.com/hpungsan/globs/internal/vec"
)

// Handlers holds dependencies for MCP tool handlers. Edits share one
// workspace so history tools can undo them.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	ws     *ops.Workspace
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, logger *zap.Logger) *Handlers {
	logger = logging.OrNop(logger)
	return &Handlers{
		db:     db,
		cfg:    cfg,
		ws:     ops.NewWorkspace(ops.StoreOptions(cfg, logger)),
		logger: logger,
	}
}

// Request types for each tool

// DocRef addresses a stored document.
type DocRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// CreateRequest represents the arguments for doc_create.
type CreateRequest struct {
	Name  string  `json:"name"`
	Title *string `json:"title,omitempty"`
	Notes string  `json:"notes,omitempty"`
}

// OpenRequest represents the arguments for doc_open.
type OpenRequest struct {
	DocRef
	IncludeDeleted bool `json:"include_deleted,omitempty"`
	IncludeSVG     bool `json:"include_svg,omitempty"`
}

// SaveRequest represents the arguments for doc_save.
type SaveRequest struct {
	Name     string         `json:"name"`
	Title    *string        `json:"title,omitempty"`
	Document *document.Data `json:"document"`
	Mode     string         `json:"mode,omitempty"`
}

// ListRequest represents the arguments for doc_list.
type ListRequest struct {
	Limit          int  `json:"limit,omitempty"`
	Offset         int  `json:"offset,omitempty"`
	IncludeDeleted bool `json:"include_deleted,omitempty"`
}

// ExportRequest represents the arguments for doc_export.
type ExportRequest struct {
	DocRef
	Format string `json:"format,omitempty"`
	Path   string `json:"path,omitempty"`
}

// NodeRequest represents the arguments for the node tools.
type NodeRequest struct {
	DocRef
	NodeID string   `json:"node_id,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Radius *float64 `json:"radius,omitempty"`
}

// GlobRequest represents the arguments for the glob tools.
type GlobRequest struct {
	DocRef
	GlobID string   `json:"glob_id,omitempty"`
	Start  string   `json:"start,omitempty"`
	End    string   `json:"end,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// HistoryRequest represents the arguments for history_undo and history_redo.
type HistoryRequest struct {
	DocRef
	Steps int `json:"steps,omitempty"`
}

// OpenResponse is doc_open's result.
type OpenResponse struct {
	*ops.OpenOutput
	SVG string `json:"svg,omitempty"`
}

// Handler implementations

// HandleCreate handles the doc_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Create(ctx, h.db, h.cfg, ops.CreateInput{
		Name:  input.Name,
		Title: input.Title,
		Notes: input.Notes,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleOpen handles the doc_open tool call.
func (h *Handlers) HandleOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OpenRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Open(ctx, h.db, ops.OpenInput{
		ID:             input.ID,
		Name:           input.Name,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	resp := OpenResponse{OpenOutput: result}
	if input.IncludeSVG {
		svg, err := render.SVG(result.Document, render.DefaultOptions())
		if err != nil {
			return errorResult(err), nil
		}
		resp.SVG = string(svg)
	}
	return successResult(resp)
}

// HandleSave handles the doc_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Document == nil {
		return errorResult(errors.NewInvalidRequest("document is required")), nil
	}

	doc, err := document.FromData(*input.Document)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Save(ctx, h.db, h.cfg, ops.SaveInput{
		Name:     input.Name,
		Title:    input.Title,
		Document: doc,
		Mode:     ops.SaveMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	// The stored copy changed underneath any open history.
	h.ws.Close(result.ID)
	return successResult(result)
}

// HandleList handles the doc_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the doc_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DocRef](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	h.ws.Close(result.ID)
	return successResult(result)
}

// HandleExport handles the doc_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		ID:     input.ID,
		Name:   input.Name,
		Format: ops.ExportFormat(input.Format),
		Path:   input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleNodeAdd handles the node_add tool call.
func (h *Handlers) HandleNodeAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NodeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	p, err := point(input.X, input.Y)
	if err != nil {
		return errorResult(err), nil
	}
	action := ops.Action{Type: ops.ActionAddNode, ID: input.NodeID, Point: p}
	if input.Radius != nil {
		action.Radius = *input.Radius
	}
	return h.edit(ctx, input.DocRef, action)
}

// HandleNodeMove handles the node_move tool call.
func (h *Handlers) HandleNodeMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NodeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	p, err := point(input.X, input.Y)
	if err != nil {
		return errorResult(err), nil
	}
	return h.edit(ctx, input.DocRef, ops.Action{Type: ops.ActionMoveNode, ID: input.NodeID, Point: p})
}

// HandleNodeResize handles the node_resize tool call.
func (h *Handlers) HandleNodeResize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NodeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Radius == nil {
		return errorResult(errors.NewInvalidRequest("radius is required")), nil
	}
	return h.edit(ctx, input.DocRef, ops.Action{Type: ops.ActionResizeNode, ID: input.NodeID, Radius: *input.Radius})
}

// HandleNodeDelete handles the node_delete tool call.
func (h *Handlers) HandleNodeDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NodeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.edit(ctx, input.DocRef, ops.Action{Type: ops.ActionDeleteNode, ID: input.NodeID})
}

// HandleGlobLink handles the glob_link tool call.
func (h *Handlers) HandleGlobLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GlobRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.edit(ctx, input.DocRef, ops.Action{Type: ops.ActionLink, Start: input.Start, End: input.End})
}

// HandleGlobSplit handles the glob_split tool call.
func (h *Handlers) HandleGlobSplit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GlobRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	p, err := point(input.X, input.Y)
	if err != nil {
		return errorResult(err), nil
	}
	return h.edit(ctx, input.DocRef, ops.Action{Type: ops.ActionSplitGlob, ID: input.GlobID, Point: p})
}

// HandleGlobOutline handles the glob_outline tool call.
func (h *Handlers) HandleGlobOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GlobRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Outline(ctx, h.db, ops.OutlineInput{
		ID:     input.ID,
		Name:   input.Name,
		GlobID: input.GlobID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUndo handles the history_undo tool call.
func (h *Handlers) HandleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Undo(ctx, h.db, h.cfg, h.ws, ops.HistoryInput{ID: input.ID, Name: input.Name, Steps: input.Steps})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRedo handles the history_redo tool call.
func (h *Handlers) HandleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Redo(ctx, h.db, h.cfg, h.ws, ops.HistoryInput{ID: input.ID, Name: input.Name, Steps: input.Steps})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// edit applies one action through the shared workspace.
func (h *Handlers) edit(ctx context.Context, ref DocRef, action ops.Action) (*mcp.CallToolResult, error) {
	result, err := ops.Edit(ctx, h.db, h.cfg, h.ws, ops.EditInput{
		ID:      ref.ID,
		Name:    ref.Name,
		Actions: []ops.Action{action},
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

func point(x, y *float64) (*vec.Point, error) {
	if x == nil || y == nil {
		return nil, errors.NewInvalidRequest("x and y are required")
	}
	p := vec.Pt(*x, *y)
	return &p, nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if gErr, ok := errors.As(err); ok {
		// Keep context added by wrapping, e.g. "action 2: ...".
		message := gErr.Message
		if prefix, found := strings.CutSuffix(err.Error(), gErr.Error()); found && prefix != "" {
			message = prefix + message
		}
		errorObj := map[string]any{
			"code":    gErr.Code,
			"message": message,
			"status":  gErr.Status,
		}
		if gErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if gErr.Details != nil {
			errorObj["details"] = gErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
