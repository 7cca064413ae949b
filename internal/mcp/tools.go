package mcp

import "github.com/mark3labs/mcp-go/mcp"

func boolPtr(b bool) *bool { return &b }

// Document addressing shared by every tool that acts on a stored document.
func withDocAddress() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("id", mcp.Description("Document ID (use id or name, not both)")),
		mcp.WithString("name", mcp.Description("Document name, case-insensitive (use id or name, not both)")),
	}
}

func docTool(name string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(withDocAddress(), opts...)...)
}

var docCreateToolDef = mcp.NewTool("doc_create",
	mcp.WithDescription("Create an empty document. Fails if the name is taken."),
	mcp.WithString("name", mcp.Description("Unique document name"), mcp.Required()),
	mcp.WithString("title", mcp.Description("Optional title")),
	mcp.WithString("notes", mcp.Description("Optional markdown notes")),
)

var docOpenToolDef = docTool("doc_open",
	mcp.WithDescription("Read a document: nodes, globs, selection, camera and notes. Set include_svg to also get a rendering."),
	mcp.WithBoolean("include_deleted", mcp.Description("Also match soft-deleted documents")),
	mcp.WithBoolean("include_svg", mcp.Description("Include an SVG rendering of the document")),
)

var docSaveToolDef = mcp.NewTool("doc_save",
	mcp.WithDescription("Save a whole document under a name. The document uses the same shape doc_open returns."),
	mcp.WithString("name", mcp.Description("Document name"), mcp.Required()),
	mcp.WithObject("document", mcp.Description("Document object {nodes, globs, selected_nodes?, selected_globs?, camera?, notes?}"), mcp.Required()),
	mcp.WithString("title", mcp.Description("Optional title")),
	mcp.WithString("mode", mcp.Description("On name collision: error (default) or replace"), mcp.Enum("error", "replace")),
)

var docListToolDef = mcp.NewTool("doc_list",
	mcp.WithDescription("List documents, most recently updated first."),
	mcp.WithNumber("limit", mcp.Description("Page size, 1-100 (default 20)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted documents")),
)

var docDeleteToolDef = docTool("doc_delete",
	mcp.WithDescription("Soft-delete a document. Its name becomes free for reuse."),
	mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
)

var docExportToolDef = docTool("doc_export",
	mcp.WithDescription("Write a document to a json, svg or png file in an allowed directory (default ~/.globs/exports)."),
	mcp.WithString("format", mcp.Description("json (default), svg or png"), mcp.Enum("json", "svg", "png")),
	mcp.WithString("path", mcp.Description("Output file; its extension must match the format")),
)

var nodeAddToolDef = docTool("node_add",
	mcp.WithDescription("Add a node (circle) at a document point."),
	mcp.WithNumber("x", mcp.Description("Center x"), mcp.Required()),
	mcp.WithNumber("y", mcp.Description("Center y"), mcp.Required()),
	mcp.WithNumber("radius", mcp.Description("Radius (default from config)")),
	mcp.WithString("node_id", mcp.Description("Optional id for the new node")),
)

var nodeMoveToolDef = docTool("node_move",
	mcp.WithDescription("Move a node's center to a document point. Attached glob handles move with it. Locked nodes cannot move."),
	mcp.WithString("node_id", mcp.Description("Node to move"), mcp.Required()),
	mcp.WithNumber("x", mcp.Description("New center x"), mcp.Required()),
	mcp.WithNumber("y", mcp.Description("New center y"), mcp.Required()),
)

var nodeResizeToolDef = docTool("node_resize",
	mcp.WithDescription("Set a node's radius. Locked nodes cannot be resized."),
	mcp.WithString("node_id", mcp.Description("Node to resize"), mcp.Required()),
	mcp.WithNumber("radius", mcp.Description("New radius, >= 0"), mcp.Required()),
)

var nodeDeleteToolDef = docTool("node_delete",
	mcp.WithDescription("Delete a node and every glob attached to it."),
	mcp.WithString("node_id", mcp.Description("Node to delete"), mcp.Required()),
	mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
)

var globLinkToolDef = docTool("glob_link",
	mcp.WithDescription("Join two nodes with a glob."),
	mcp.WithString("start", mcp.Description("Start node id"), mcp.Required()),
	mcp.WithString("end", mcp.Description("End node id"), mcp.Required()),
)

var globSplitToolDef = docTool("glob_split",
	mcp.WithDescription("Split a glob at a point inside it, inserting a node sized to fit."),
	mcp.WithString("glob_id", mcp.Description("Glob to split"), mcp.Required()),
	mcp.WithNumber("x", mcp.Description("Split point x"), mcp.Required()),
	mcp.WithNumber("y", mcp.Description("Split point y"), mcp.Required()),
)

var globOutlineToolDef = docTool("glob_outline",
	mcp.WithDescription("Get glob outlines as SVG path data. Degenerate globs have an empty path."),
	mcp.WithString("glob_id", mcp.Description("Only this glob (default: all)")),
	mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
)

var historyUndoToolDef = docTool("history_undo",
	mcp.WithDescription("Undo edits made by node_* and glob_* tools in this session."),
	mcp.WithNumber("steps", mcp.Description("Steps to undo (default 1)")),
)

var historyRedoToolDef = docTool("history_redo",
	mcp.WithDescription("Redo undone edits."),
	mcp.WithNumber("steps", mcp.Description("Steps to redo (default 1)")),
)
