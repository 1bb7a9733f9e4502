package server

import (
	"fmt"

	"github.com/cnosuke/mcp-upstream/aggregator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

func apiKeyOption() mcp.ToolOption {
	return mcp.WithString("api_key",
		mcp.Description("Upstream API key. Falls back to the configured key when omitted"),
	)
}

// RegisterAllTools - Register all tools with the server
func RegisterAllTools(mcpServer *server.MCPServer, h *Handlers) error {
	zap.S().Debugw("registering tools")

	mcpServer.AddTool(mcp.NewTool("trending",
		mcp.WithDescription("Fetch the Douyin trending (hot search) list"),
		apiKeyOption(),
	), h.Trending)

	mcpServer.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Search Douyin videos by keyword, falling back across equivalent upstream endpoints"),
		mcp.WithString("keyword",
			mcp.Description("Search keyword"),
			mcp.Required(),
		),
		mcp.WithNumber("count",
			mcp.Description(fmt.Sprintf("Number of results (max %d)", aggregator.MaxSearchCount)),
			mcp.DefaultNumber(aggregator.DefaultSearchCount),
		),
		apiKeyOption(),
	), h.Search)

	mcpServer.AddTool(mcp.NewTool("user_info",
		mcp.WithDescription("Fetch a Douyin creator profile"),
		mcp.WithString("unique_id",
			mcp.Description("Creator unique id (Douyin handle)"),
			mcp.Required(),
		),
		apiKeyOption(),
	), h.UserInfo)

	mcpServer.AddTool(mcp.NewTool("diagnose",
		mcp.WithDescription("Query every search endpoint concurrently and report each one's outcome"),
		mcp.WithString("keyword",
			mcp.Description(fmt.Sprintf("Probe keyword (default %q)", aggregator.DiagnoseKeyword)),
		),
		apiKeyOption(),
	), h.Diagnose)

	return nil
}
