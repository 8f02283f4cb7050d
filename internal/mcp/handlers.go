package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/glance/internal/activity"
	"github.com/hpungsan/glance/internal/agent"
	"github.com/hpungsan/glance/internal/errors"
	"github.com/hpungsan/glance/internal/store"
	"github.com/hpungsan/glance/internal/summary"
)

// MaxSummarizeHours caps the on-demand rollup window.
const MaxSummarizeHours = 24

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *store.Store
	ai    agent.AIService

	// now is injectable for tests.
	now func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, ai agent.AIService) *Handlers {
	return &Handlers{store: st, ai: ai, now: time.Now}
}

// RangeRequest represents the arguments for activity_range.
type RangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SummarizeRequest represents the arguments for activity_summarize.
type SummarizeRequest struct {
	Hours float64 `json:"hours,omitempty"`
}

// RecentResponse wraps the most recent record; Record is null when the store
// is empty.
type RecentResponse struct {
	Record *activity.Record `json:"record"`
}

// RangeResponse lists the records in a window.
type RangeResponse struct {
	Records []activity.Record `json:"records"`
	Count   int               `json:"count"`
}

// SummarizeResponse carries an on-demand rollup.
type SummarizeResponse struct {
	Summary     string `json:"summary"`
	RecordCount int    `json:"record_count"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
}

// HandleRecent handles the activity_recent tool call.
func (h *Handlers) HandleRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := h.store.ReadMostRecent(h.now())
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(RecentResponse{Record: rec})
}

// HandleRange handles the activity_range tool call.
func (h *Handlers) HandleRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RangeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	start, err := time.Parse(time.RFC3339, input.Start)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(fmt.Sprintf("invalid start: %v", err))), nil
	}
	end, err := time.Parse(time.RFC3339, input.End)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(fmt.Sprintf("invalid end: %v", err))), nil
	}

	records, err := h.store.ReadRange(start, end)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(RangeResponse{Records: records, Count: len(records)})
}

// HandleSummarize handles the activity_summarize tool call. Unlike the
// periodic rollup, it never advances the summary checkpoint.
func (h *Handlers) HandleSummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummarizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.ai == nil {
		return errorResult(errors.NewInvalidRequest("AI service not configured; set GLANCE_API_KEY")), nil
	}

	hours := input.Hours
	if hours == 0 {
		hours = 1
	}
	if hours < 0 || hours > MaxSummarizeHours {
		return errorResult(errors.NewInvalidRequest(
			fmt.Sprintf("hours must be between 0 and %d", MaxSummarizeHours))), nil
	}

	end := h.now()
	start := end.Add(-time.Duration(hours * float64(time.Hour)))
	records, err := h.store.ReadRange(start, end)
	if err != nil {
		return errorResult(err), nil
	}

	text, err := summary.Summarize(ctx, h.ai, records)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(SummarizeResponse{
		Summary:     text,
		RecordCount: len(records),
		WindowStart: start.Format(time.RFC3339),
		WindowEnd:   end.Format(time.RFC3339),
	})
}

// errorResult creates an MCP error result.
// Uses IsError: true so MCP clients recognize failures properly.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any
	if gErr, ok := err.(*errors.GlanceError); ok {
		errorObj := map[string]any{
			"code":    gErr.Code,
			"message": gErr.Message,
		}
		if gErr.Code != errors.ErrInternal && gErr.Details != nil {
			errorObj["details"] = gErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
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
