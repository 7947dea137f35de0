// tools_util.go provides helpers for extracting typed arguments from MCP
// requests.
//
// Extraction is permissive: a missing or mistyped optional argument yields
// the default rather than an error, since agents frequently omit optional
// parameters.

package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jpl-au/quill/internal/store"
	"github.com/jpl-au/quill/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
)

func arguments(req mcp.CallToolRequest) map[string]any {
	args, _ := req.Params.Arguments.(map[string]any)
	return args
}

// getString returns a string argument or def.
func getString(req mcp.CallToolRequest, name, def string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return def
}

// getBool returns a boolean argument or def.
func getBool(req mcp.CallToolRequest, name string, def bool) bool { //nolint:unparam
	if v, ok := arguments(req)[name].(bool); ok {
		return v
	}
	return def
}

// getInt returns a numeric argument or def. JSON numbers decode as float64.
func getInt(req mcp.CallToolRequest, name string, def int) int {
	if v, ok := arguments(req)[name].(float64); ok {
		return int(v)
	}
	return def
}

// getIntPtr returns a numeric argument, or nil when it is absent.
func getIntPtr(req mcp.CallToolRequest, name string) *int {
	v, ok := arguments(req)[name].(float64)
	if !ok {
		return nil
	}
	n := int(v)
	return &n
}

// bind decodes the argument named name into v by round-tripping it through
// JSON. Used for structured arguments such as batch operations.
func bind(req mcp.CallToolRequest, name string, v any) error {
	raw, ok := arguments(req)[name]
	if !ok {
		return fmt.Errorf("%s is required", name)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	return nil
}

// user returns the user_id argument, falling back to the configured user.
func (h *handlers) user(req mcp.CallToolRequest) string {
	def := ""
	if h.cfg != nil {
		def = h.cfg.UserID()
	}
	return getString(req, "user_id", def)
}

// session builds the tool session from the request.
func (h *handlers) session(req mcp.CallToolRequest) *tools.Session {
	return &tools.Session{
		UserID:     h.user(req),
		ChatID:     getString(req, "chat_id", ""),
		DocumentID: getString(req, "document_id", ""),
	}
}

// jsonResult serialises v as pretty-printed JSON in a text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := store.MarshalJSON(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolResult serialises a tool result. Failed outcomes are flagged as tool
// errors but still carry the full JSON so the agent sees the message and any
// partial results.
func toolResult(r tools.Result) (*mcp.CallToolResult, error) {
	data, err := store.MarshalJSON(r)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !r.Status().Success {
		return mcp.NewToolResultError(string(data)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// outcomeErr converts a failed outcome into an error for the audit log.
func outcomeErr(r tools.Result) error {
	if o := r.Status(); !o.Success {
		return errors.New(o.Message)
	}
	return nil
}
