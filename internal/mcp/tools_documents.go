// tools_documents.go implements MCP tools for reading documents and their
// history. They mirror the CLI's cat, ls, history, restore and diff
// commands but return JSON for the agent.

package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// errDocumentNotFound is reported for documents that are absent or owned by
// another user. The two are indistinguishable to the caller.
var errDocumentNotFound = errors.New("document not found")

// documentJSON is a document with its content.
type documentJSON struct {
	store.DocumentJSON
	VersionNumber int    `json:"versionNumber"`
	Content       string `json:"content"`
}

// readDocument handles quill_read tool calls.
func (h *handlers) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("document_id is required"), nil //nolint:nilerr
	}
	user := h.user(req)
	version := getInt(req, "version", 0)

	l := log.Event("mcp:quill_read", "read").Author(user).Document(id).Version(version)

	var out documentJSON
	if version > 0 {
		out, err = h.readVersion(ctx, id, user, version)
	} else {
		var doc *service.DocumentWithContent
		doc, err = h.svc.Get(ctx, id, user)
		if err == nil && doc == nil {
			err = errDocumentNotFound
		}
		if err == nil {
			out = documentJSON{DocumentJSON: doc.ToJSON(), VersionNumber: doc.VersionNumber, Content: doc.Content}
		}
	}

	l.ResultVersion(out.VersionNumber).Write(err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out)
}

// readVersion returns a document with the content of one of its versions.
func (h *handlers) readVersion(ctx context.Context, documentID, userID string, number int) (documentJSON, error) {
	doc, err := h.svc.Store().Document(ctx, documentID, userID)
	if err != nil {
		return documentJSON{}, err
	}
	v, err := h.svc.Store().VersionByNumber(ctx, documentID, number)
	if err != nil {
		return documentJSON{}, fmt.Errorf("version %d: %w", number, err)
	}
	vc, err := h.svc.GetVersion(ctx, v.ID, userID)
	if err != nil {
		return documentJSON{}, err
	}
	if vc == nil {
		return documentJSON{}, fmt.Errorf("version %d content unavailable", number)
	}
	return documentJSON{DocumentJSON: doc.ToJSON(), VersionNumber: vc.VersionNumber, Content: vc.Content}, nil
}

// listDocuments handles quill_list tool calls.
func (h *handlers) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	user := h.user(req)
	chat := getString(req, "chat_id", "")

	docs, err := h.svc.List(ctx, user, chat)

	log.Event("mcp:quill_list", "list").Author(user).Detail("chat", chat).Detail("count", len(docs)).Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]store.DocumentJSON, len(docs))
	for i := range docs {
		out[i] = docs[i].ToJSON()
	}
	return jsonResult(out)
}

// history handles quill_history tool calls.
func (h *handlers) history(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("document_id is required"), nil //nolint:nilerr
	}
	user := h.user(req)
	withDiff := getBool(req, "diff", false)

	versions, err := h.svc.ListVersions(ctx, id, user, getInt(req, "limit", 0))

	log.Event("mcp:quill_history", "history").Author(user).Document(id).Detail("count", len(versions)).Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]store.VersionJSON, len(versions))
	for i := range versions {
		out[i] = versions[i].ToJSON(withDiff)
	}
	return jsonResult(out)
}

// restoreVersion handles quill_restore tool calls.
func (h *handlers) restoreVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	versionID, err := req.RequireString("version_id")
	if err != nil {
		return mcp.NewToolResultError("version_id is required"), nil //nolint:nilerr
	}
	user := h.user(req)

	doc, err := h.svc.RestoreVersion(ctx, versionID, user)

	l := log.Event("mcp:quill_restore", "restore").Author(user).Detail("version_id", versionID)
	if doc != nil {
		l.Document(doc.ID).ResultVersion(doc.VersionNumber)
	}
	l.Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(documentJSON{DocumentJSON: doc.ToJSON(), VersionNumber: doc.VersionNumber, Content: doc.Content})
}

// diffVersions handles quill_diff tool calls.
func (h *handlers) diffVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := h.requireInit(); r != nil {
		return r, nil
	}

	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("document_id is required"), nil //nolint:nilerr
	}
	user := h.user(req)
	v1, v2 := getInt(req, "version1", 0), getInt(req, "version2", 0)

	r, err := h.svc.Diff(ctx, id, user, v1, v2)

	log.Event("mcp:quill_diff", "diff").Author(user).Document(id).Detail("from", v1).Detail("to", v2).Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"old":     r.Old,
		"new":     r.New,
		"diff":    r.Format(false),
		"added":   r.Added,
		"removed": r.Removed,
	})
}
