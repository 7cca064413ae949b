// Package mcp exposes document editing to agents over the Model Context
// Protocol.
package mcp

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/globs/internal/config"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"doc", "node", "glob", "history"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"doc_create": {
		def:     docCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate },
	},
	"doc_open": {
		def:     docOpenToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOpen },
	},
	"doc_save": {
		def:     docSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"doc_list": {
		def:     docListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"doc_delete": {
		def:     docDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"doc_export": {
		def:     docExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"node_add": {
		def:     nodeAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNodeAdd },
	},
	"node_move": {
		def:     nodeMoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNodeMove },
	},
	"node_resize": {
		def:     nodeResizeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNodeResize },
	},
	"node_delete": {
		def:     nodeDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNodeDelete },
	},
	"glob_link": {
		def:     globLinkToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGlobLink },
	},
	"glob_split": {
		def:     globSplitToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGlobSplit },
	},
	"glob_outline": {
		def:     globOutlineToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGlobOutline },
	},
	"history_undo": {
		def:     historyUndoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUndo },
	},
	"history_redo": {
		def:     historyRedoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRedo },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "node_add" → "node").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	// Build set of types for O(1) lookup
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	// Collect tools belonging to disabled types
	tools := make([]string, 0)
	for name := range toolRegistry {
		typ := GetTypeForTool(name)
		if typeSet[typ] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the globs tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, version string, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"globs",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, logger)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, logCalls(h.logger, name, entry.handler(h)))
	}

	return s
}

// logCalls logs each call of a tool at debug and failures at info.
func logCalls(logger *zap.Logger, name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, req)
		fields := []zap.Field{zap.String("tool", name), zap.Duration("elapsed", time.Since(start))}
		switch {
		case err != nil:
			logger.Info("tool call failed", append(fields, zap.Error(err))...)
		case result != nil && result.IsError:
			logger.Info("tool returned error", fields...)
		default:
			logger.Debug("tool call", fields...)
		}
		return result, err
	}
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, version string, logger *zap.Logger) error {
	s := NewServer(db, cfg, version, logger)
	return server.ServeStdio(s)
}
