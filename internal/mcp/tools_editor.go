// tools_editor.go implements the editing tools an agent uses while drafting.
//
// Each handler decodes its arguments, runs the matching Toolkit method and
// records an audit entry. The session's document id is echoed in every
// result so the agent can carry it into the next call.

package mcp

import (
	"context"

	"github.com/jpl-au/quill/internal/edit"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
)

// audit records a tool call in the audit trail.
func audit(tool, action string, s *tools.Session, r tools.Result) *log.Builder {
	o := r.Status()
	id := o.DocumentID
	if id == "" {
		id = s.DocumentID
	}
	b := log.Event("mcp:"+tool, action).Author(s.UserID).Document(id).ResultVersion(o.VersionNumber)
	if s.ChatID != "" {
		b.Detail("chat", s.ChatID)
	}
	return b
}

// writeToEditor handles quill_write_to_editor tool calls.
func (h *handlers) writeToEditor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	s := h.session(req)
	r := h.kit.WriteToEditor(ctx, s, tools.WriteInput{
		Content:           getString(req, "content", ""),
		Title:             getString(req, "title", ""),
		ChangeDescription: getString(req, "change_description", ""),
	})
	audit("quill_write_to_editor", "write", s, r).Detail("created", r.Created).Write(outcomeErr(r))
	return toolResult(r)
}

// replaceContent handles quill_replace_content tool calls.
func (h *handlers) replaceContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	s := h.session(req)
	r := h.kit.ReplaceContent(ctx, s, tools.ReplaceInput{
		OldText:           getString(req, "old_text", ""),
		NewText:           getString(req, "new_text", ""),
		ReplaceAll:        getBool(req, "replace_all", false),
		ChangeDescription: getString(req, "change_description", ""),
	})
	audit("quill_replace_content", "edit", s, r).
		Detail("replacements", r.Replacements).
		Detail("match", r.Match).
		Write(outcomeErr(r))
	return toolResult(r)
}

// batchEdit handles quill_batch_edit tool calls.
func (h *handlers) batchEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	var ops []edit.Operation
	if err := bind(req, "edits", &ops); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s := h.session(req)
	r := h.kit.BatchEdit(ctx, s, tools.BatchInput{
		Edits:       ops,
		Description: getString(req, "description", ""),
	})
	audit("quill_batch_edit", "edit", s, r).
		Detail("applied", len(r.AppliedEdits)).
		Detail("failed", len(r.FailedEdits)).
		Write(outcomeErr(r))
	return toolResult(r)
}

// removeCitations handles quill_remove_citations tool calls.
func (h *handlers) removeCitations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	s := h.session(req)
	r := h.kit.RemoveCitations(ctx, s, tools.CitationInput{
		RemoveReferencesSection: getBool(req, "remove_references_section", false),
	})
	audit("quill_remove_citations", "edit", s, r).Detail("removed", r.CitationsRemoved).Write(outcomeErr(r))
	return toolResult(r)
}

// insertContent handles quill_insert_content tool calls.
func (h *handlers) insertContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	s := h.session(req)
	r := h.kit.InsertContent(ctx, s, tools.InsertInput{
		Content:           getString(req, "content", ""),
		Position:          tools.Position(getString(req, "position", "")),
		Anchor:            getString(req, "anchor", ""),
		Line:              getIntPtr(req, "line"),
		ChangeDescription: getString(req, "change_description", ""),
	})
	audit("quill_insert_content", "edit", s, r).Detail("position", r.Position).Write(outcomeErr(r))
	return toolResult(r)
}

// documentStructure handles quill_document_structure tool calls.
func (h *handlers) documentStructure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	s := h.session(req)
	r := h.kit.DocumentStructure(ctx, s)
	audit("quill_document_structure", "read", s, r).Detail("sections", len(r.Sections)).Write(outcomeErr(r))
	return toolResult(r)
}
