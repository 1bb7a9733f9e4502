package server

import (
	"context"
	"fmt"

	"github.com/cnosuke/mcp-upstream/aggregator"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Handlers - Tool handlers backed by the aggregator service
type Handlers struct {
	svc *aggregator.Service
}

func NewHandlers(svc *aggregator.Service) *Handlers {
	return &Handlers{svc: svc}
}

func (h *Handlers) credential(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	key, err := h.svc.Credential(request.GetString("api_key", ""))
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	return key, nil
}

// Trending - trending tool handler
func (h *Handlers) Trending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, errResult := h.credential(request)
	if errResult != nil {
		return errResult, nil
	}
	zap.S().Infow("executing trending")

	res, err := h.svc.Trending(ctx, key)
	if err != nil {
		zap.S().Errorw("failed to fetch trending list", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch trending list: %s", err.Error())), nil
	}
	resp := newToolResponse("hot_search", "Douyin trending", res)
	resp.Items = res.Records
	return toolResult(resp)
}

// Search - search tool handler
func (h *Handlers) Search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, errResult := h.credential(request)
	if errResult != nil {
		return errResult, nil
	}
	keyword := request.GetString("keyword", "")
	count := request.GetInt("count", aggregator.DefaultSearchCount)
	zap.S().Infow("executing search",
		"keyword", keyword,
		"count", count)

	res, err := h.svc.Search(ctx, key, keyword, count)
	if err != nil {
		zap.S().Errorw("failed to search", "keyword", keyword, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to search: %s", err.Error())), nil
	}
	resp := newToolResponse("search", fmt.Sprintf("%q search results", keyword), res)
	resp.Keyword = keyword
	resp.Items = res.Records
	return toolResult(resp)
}

// UserInfo - user_info tool handler
func (h *Handlers) UserInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, errResult := h.credential(request)
	if errResult != nil {
		return errResult, nil
	}
	uniqueID := request.GetString("unique_id", "")
	zap.S().Infow("executing user_info", "unique_id", uniqueID)

	res, err := h.svc.UserInfo(ctx, key, uniqueID)
	if err != nil {
		zap.S().Errorw("failed to fetch user info", "unique_id", uniqueID, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch user info: %s", err.Error())), nil
	}
	resp := newToolResponse("user_info", "Creator profile", res)
	if len(res.Records) == 0 {
		resp.Success = false
		if resp.Error == "" {
			resp.Error = upstreamFailure(res.Diagnostics)
		}
		if resp.Error == "" {
			resp.Error = "user not found"
		}
	} else {
		resp.User = res.Records[0]
	}
	return toolResult(resp)
}

// Diagnose - diagnose tool handler
func (h *Handlers) Diagnose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, errResult := h.credential(request)
	if errResult != nil {
		return errResult, nil
	}
	keyword := request.GetString("keyword", "")
	zap.S().Infow("executing diagnose", "keyword", keyword)

	res, err := h.svc.Diagnose(ctx, key, keyword)
	if err != nil {
		zap.S().Errorw("failed to diagnose", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to diagnose: %s", err.Error())), nil
	}
	resp := newToolResponse("debug", "Upstream diagnostics", res)
	resp.Success = true
	return toolResult(resp)
}
