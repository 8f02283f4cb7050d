// Package mcp exposes the activity journal to agent clients over the Model
// Context Protocol. All tools are read-only views of the store, plus an
// on-demand rollup.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/glance/internal/agent"
	"github.com/hpungsan/glance/internal/store"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"activity_recent": {
		def:     recentToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecent },
	},
	"activity_range": {
		def:     rangeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRange },
	},
	"activity_summarize": {
		def:     summarizeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummarize },
	},
}

// NewServer creates an MCP server with the Glance tools registered.
// ai may be nil when no API key is configured; the summarize tool then
// reports an error instead of calling out.
func NewServer(st *store.Store, ai agent.AIService, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"glance",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(st, ai)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server on stdio.
func Run(st *store.Store, ai agent.AIService, version string) error {
	return server.ServeStdio(NewServer(st, ai, version))
}
