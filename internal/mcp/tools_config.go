// tools_config.go implements MCP tools for configuration management.
//
// Reads report the resolved configuration the server is running with,
// environment overrides included. Writes go to the workspace config file
// and take effect on the next server start; the running server keeps the
// configuration it was opened with.

package mcp

import (
	"context"
	"fmt"

	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/log"
	"github.com/mark3labs/mcp-go/mcp"
)

// configGet handles quill_config_get tool calls.
func (h *handlers) configGet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.cfg
	if cfg == nil {
		cfg = &config.Config{}
	}

	key := getString(req, "key", "")
	if key == "" {
		log.Event("mcp:quill_config_get", "list").Author(h.user(req)).Write(nil)
		return jsonResult(cfg.All())
	}

	v, err := cfg.Get(key)

	log.Event("mcp:quill_config_get", "get").Author(h.user(req)).Detail("key", key).Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{key: v})
}

// configSet handles quill_config_set tool calls.
func (h *handlers) configSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError("key is required"), nil //nolint:nilerr
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("value is required"), nil //nolint:nilerr
	}

	l := log.Event("mcp:quill_config_set", "set").Author(h.user(req)).Detail("key", key).Detail("value", value)

	cfg, err := config.LoadScope(config.ScopeLocal)
	if err == nil {
		err = cfg.Set(key, value)
	}
	if err == nil {
		err = cfg.Save()
	}
	l.Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s = %s (applies after restart)", key, value)), nil
}
