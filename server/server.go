package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/cnosuke/mcp-upstream/aggregator"
	"github.com/cnosuke/mcp-upstream/config"
	"github.com/cockroachdb/errors"
)

// Run builds the aggregator over the configured upstream and serves its
// tools on stdio until stdin closes.
func Run(cfg *config.Config, name string, version string, revision string) error {
	zap.S().Infow("starting MCP Upstream Server",
		"base_url", cfg.Upstream.BaseURL,
		"abort_on_auth_reject", !cfg.Fetch.ContinueOnAuthReject)

	svc, err := aggregator.NewHTTPService(cfg)
	if err != nil {
		zap.S().Errorw("failed to create aggregator service", "error", err)
		return err
	}

	mcpServer, err := NewServer(name, versionString(version, revision), NewHandlers(svc))
	if err != nil {
		return err
	}

	zap.S().Infow("serving tools on stdio")
	if err := server.ServeStdio(mcpServer); err != nil {
		zap.S().Errorw("stdio transport stopped", "error", err)
		return errors.Wrap(err, "failed to serve stdio")
	}
	zap.S().Infow("server shutting down")
	return nil
}

// NewServer creates the MCP server with every aggregator tool registered.
// Tool calls and protocol errors are logged through hooks.
func NewServer(name, version string, h *Handlers) (*server.MCPServer, error) {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest) {
		zap.S().Debugw("tool call received",
			"id", id,
			"tool", message.Params.Name)
	})
	hooks.AddAfterCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest, result *mcp.CallToolResult) {
		zap.S().Debugw("tool call answered",
			"id", id,
			"tool", message.Params.Name,
			"is_error", result != nil && result.IsError)
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		zap.S().Errorw("MCP error occurred",
			"id", id,
			"method", method,
			"error", err,
		)
	})

	zap.S().Debugw("creating MCP server",
		"name", name,
		"version", version,
	)
	mcpServer := server.NewMCPServer(name, version, server.WithHooks(hooks))

	if err := RegisterAllTools(mcpServer, h); err != nil {
		zap.S().Errorw("failed to register tools", "error", err)
		return nil, err
	}
	return mcpServer, nil
}

// versionString appends the build revision unless it is the placeholder.
func versionString(version, revision string) string {
	if revision == "" || revision == "xxx" {
		return version
	}
	return version + " (" + revision + ")"
}
