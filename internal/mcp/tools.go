package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var recentToolDef = mcp.NewTool("activity_recent",
	mcp.WithDescription("Return the most recent screen activity record, looking at today's and yesterday's logs."),
)

var rangeToolDef = mcp.NewTool("activity_range",
	mcp.WithDescription("Return activity records between two instants, sorted ascending by timestamp."),
	mcp.WithString("start",
		mcp.Required(),
		mcp.Description("Window start, RFC 3339 (e.g. 2026-08-30T09:00:00Z)"),
	),
	mcp.WithString("end",
		mcp.Required(),
		mcp.Description("Window end, RFC 3339, inclusive"),
	),
)

var summarizeToolDef = mcp.NewTool("activity_summarize",
	mcp.WithDescription("Ask the AI service for a natural-language rollup of the trailing activity window. Does not move the periodic summary checkpoint."),
	mcp.WithNumber("hours",
		mcp.Description("Trailing window size in hours (default 1, max 24)"),
	),
)
