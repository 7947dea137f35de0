// mcp.go defines the plan tools the MCP server registers for the
// assistant.

package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

var stepsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"status":      map[string]any{"type": "string", "enum": []string{"pending", "in_progress", "completed"}},
	},
	"required": []string{"title"},
}

// MCPTools returns quill_plan_create, quill_plan_get and quill_plan_update.
func (e *Extension) MCPTools() []extension.MCPTool {
	user := mcp.WithString("user_id", mcp.Description("User the call runs as (default: configured user.id)"))
	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("quill_plan_create",
				mcp.WithDescription("Start a writing plan for a chat. Cancels the chat's active plan."),
				mcp.WithString("chat_id", mcp.Required(), mcp.Description("Chat the plan belongs to")),
				mcp.WithString("title", mcp.Required(), mcp.Description("Plan title")),
				mcp.WithArray("steps", mcp.Description("Ordered steps"), mcp.Items(stepsSchema)),
				user,
			),
			Handler: createPlan,
		},
		{
			Tool: mcp.NewTool("quill_plan_get",
				mcp.WithDescription("Get a plan by id, or the active plan of a chat."),
				mcp.WithString("plan_id", mcp.Description("Plan id")),
				mcp.WithString("chat_id", mcp.Description("Chat whose active plan to return")),
				user,
			),
			Handler: getPlan,
		},
		{
			Tool: mcp.NewTool("quill_plan_update",
				mcp.WithDescription("Replace a plan's steps (to record progress) and/or change its status."),
				mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan id")),
				mcp.WithArray("steps", mcp.Description("Complete new step list"), mcp.Items(stepsSchema)),
				mcp.WithString("status", mcp.Description("New plan status"), mcp.Enum("active", "completed", "cancelled")),
				user,
			),
			Handler: updatePlan,
		},
	}
}

// args returns the call's arguments as a map.
func args(req mcp.CallToolRequest) map[string]any {
	m, _ := req.Params.Arguments.(map[string]any)
	return m
}

func str(req mcp.CallToolRequest, name string) string {
	s, _ := args(req)[name].(string)
	return s
}

// userID returns the user_id argument or the configured user.
func userID(extCtx extension.Context, req mcp.CallToolRequest) string {
	if u := str(req, "user_id"); u != "" {
		return u
	}
	return extCtx.Config().UserID()
}

// steps decodes the steps argument. ok is false when it was not given.
func steps(req mcp.CallToolRequest) (in []service.StepInput, ok bool, err error) {
	raw, ok := args(req)["steps"]
	if !ok || raw == nil {
		return nil, false, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, true, err
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, true, fmt.Errorf("steps: %w", err)
	}
	return in, true, nil
}

func planResult(p *store.Plan) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(p.ToJSON())
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func createPlan(ctx context.Context, extCtx extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chat, title := str(req, "chat_id"), str(req, "title")
	if chat == "" || title == "" {
		return mcp.NewToolResultError("chat_id and title are required"), nil
	}
	in, _, err := steps(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	user := userID(extCtx, req)

	p, err := extCtx.Plans().Create(ctx, chat, user, title, in)

	log.Event("mcp:quill_plan_create", "plan").Author(user).Detail("chat", chat).Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return planResult(p)
}

func getPlan(ctx context.Context, extCtx extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := userID(extCtx, req)
	var p *store.Plan
	var err error
	switch id, chat := str(req, "plan_id"), str(req, "chat_id"); {
	case id != "":
		p, err = extCtx.Plans().Get(ctx, id, user)
	case chat != "":
		p, err = extCtx.Plans().Active(ctx, chat, user)
		if err == nil && p == nil {
			return mcp.NewToolResultText("No active plan for this chat."), nil
		}
	default:
		err = errors.New("plan_id or chat_id is required")
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return planResult(p)
}

func updatePlan(ctx context.Context, extCtx extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := str(req, "plan_id")
	if id == "" {
		return mcp.NewToolResultError("plan_id is required"), nil
	}
	in, hasSteps, err := steps(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := store.PlanStatus(str(req, "status"))
	if !hasSteps && status == "" {
		return mcp.NewToolResultError("give steps, status or both"), nil
	}
	user := userID(extCtx, req)

	var p *store.Plan
	if hasSteps {
		p, err = extCtx.Plans().ReplaceSteps(ctx, id, user, in)
	}
	if err == nil && status != "" {
		p, err = extCtx.Plans().SetStatus(ctx, id, user, status)
	}

	log.Event("mcp:quill_plan_update", "plan").
		Author(user).
		Detail("plan", id).
		Detail("status", status).
		Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return planResult(p)
}
