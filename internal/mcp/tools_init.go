// tools_init.go implements the MCP tool for initialising a workspace. It is
// the one tool that works before a workspace exists.

package mcp

import (
	"context"

	"github.com/jpl-au/quill/internal/document"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/repo"
	"github.com/mark3labs/mcp-go/mcp"
)

// initWorkspace handles quill_init tool calls.
func (h *handlers) initWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.svc != nil {
		return mcp.NewToolResultError("workspace already initialised"), nil
	}

	local := getBool(req, "local", false)
	err := repo.Init(ctx, false, local, "")

	log.Event("mcp:quill_init", "init").Author(h.user(req)).Detail("local", local).Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	svc, err := document.Open(ctx, h.cfg, h.logger)
	if err != nil {
		return mcp.NewToolResultError("init succeeded but failed to open store: " + err.Error()), nil
	}
	h.attach(svc)

	h.logger.Info("workspace initialised", "local", local)

	if local {
		return mcp.NewToolResultText("workspace initialised (local - gitignored)"), nil
	}
	return mcp.NewToolResultText("workspace initialised"), nil
}
