package server

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cnosuke/mcp-upstream/types"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// ToolResponse - JSON payload returned by every tool
type ToolResponse struct {
	Success     bool               `json:"success"`
	Type        string             `json:"type"`
	Title       string             `json:"title"`
	Keyword     string             `json:"keyword,omitempty"`
	UpdateTime  string             `json:"update_time"`
	Status      types.Status       `json:"status"`
	RequestID   string             `json:"request_id"`
	Winner      string             `json:"winner,omitempty"`
	Items       any                `json:"items,omitempty"`
	User        any                `json:"user,omitempty"`
	Error       string             `json:"error,omitempty"`
	Diagnostics []types.Diagnostic `json:"diagnostics"`
}

var statusErrors = map[types.Status]string{
	types.StatusAuthRejected:       "upstream rejected the API key",
	types.StatusAllTransportFailed: "all upstream endpoints were unreachable",
}

func newToolResponse[T any](kind, title string, res *types.Result[T]) *ToolResponse {
	return &ToolResponse{
		Success:     res.Status == types.StatusData || res.Status == types.StatusEmptyNoData,
		Type:        kind,
		Title:       title,
		UpdateTime:  time.Now().Format(time.RFC3339),
		Status:      res.Status,
		RequestID:   res.RequestID,
		Winner:      res.Winner,
		Error:       statusErrors[res.Status],
		Diagnostics: res.Diagnostics,
	}
}

// upstreamFailure describes a run that came back without records and without
// any candidate answering with an empty result, so the upstream failed rather
// than reporting absent data. It returns "" otherwise.
func upstreamFailure(diags []types.Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		if d.Outcome == types.OutcomeEmpty || d.Outcome == types.OutcomeData {
			return ""
		}
		part := d.CandidateID + ": " + string(d.Outcome)
		if d.HTTPStatus != 0 {
			part += fmt.Sprintf(" (HTTP %d)", d.HTTPStatus)
		}
		if d.Message != "" {
			part += " " + d.Message
		}
		parts = append(parts, part)
	}
	return "upstream error: " + strings.Join(parts, "; ")
}

// toolResult serializes resp, flagging the result as an error when the
// request did not succeed.
func toolResult(resp *ToolResponse) (*mcp.CallToolResult, error) {
	jsonResponse, err := json.Marshal(resp)
	if err != nil {
		zap.S().Errorw("failed to marshal response to JSON",
			"error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response to JSON: %s", err.Error())), nil
	}
	if !resp.Success {
		return mcp.NewToolResultError(string(jsonResponse)), nil
	}
	return mcp.NewToolResultText(string(jsonResponse)), nil
}
