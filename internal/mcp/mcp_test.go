package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/blob"
	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/document"
	"github.com/jpl-au/quill/internal/lock"
	"github.com/jpl-au/quill/internal/store"
)

func setupHandlers(t *testing.T) *handlers {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "quill.db"))
	require.NoError(t, err)
	require.NoError(t, st.Init())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := document.New(st, blob.NewMemStore(), lock.NewLocal(), logger, document.Options{})
	t.Cleanup(func() { svc.Close() })

	h := newHandlers(&config.Config{User: config.User{ID: "alice"}}, logger)
	h.attach(svc)
	return h
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	require.NotEmpty(t, r.Content)
	tc, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func decode(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, r)), &m))
	return m
}

// write creates a document and returns its id.
func write(t *testing.T, h *handlers, content string) string {
	t.Helper()
	r, err := h.writeToEditor(context.Background(), call("quill_write_to_editor", map[string]any{
		"content": content,
		"chat_id": "chat-1",
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, text(t, r))
	m := decode(t, r)
	id, _ := m["documentId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHandlers_Uninitialised(t *testing.T) {
	h := newHandlers(&config.Config{}, nil)
	ctx := context.Background()

	for name, fn := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"write":     h.writeToEditor,
		"replace":   h.replaceContent,
		"batch":     h.batchEdit,
		"structure": h.documentStructure,
		"read":      h.readDocument,
		"history":   h.history,
	} {
		t.Run(name, func(t *testing.T) {
			r, err := fn(ctx, call(name, map[string]any{}))
			require.NoError(t, err)
			assert.True(t, r.IsError)
			assert.Equal(t, ErrNotInitialised, text(t, r))
		})
	}
}

func TestHandlers_WriteAndReplace(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()
	id := write(t, h, "# Draft\n\nThe quick brown fox.")

	r, err := h.replaceContent(ctx, call("quill_replace_content", map[string]any{
		"document_id": id,
		"old_text":    "quick",
		"new_text":    "slow",
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, text(t, r))

	m := decode(t, r)
	assert.Equal(t, "replace_content", m["kind"])
	assert.Equal(t, true, m["success"])
	assert.EqualValues(t, 2, m["versionNumber"])

	doc, err := h.svc.Get(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, "# Draft\n\nThe slow brown fox.", doc.Content)
}

func TestHandlers_FailureCarriesJSON(t *testing.T) {
	h := setupHandlers(t)
	id := write(t, h, "# Draft\n\nSome text.")

	r, err := h.replaceContent(context.Background(), call("quill_replace_content", map[string]any{
		"document_id": id,
		"old_text":    "completely unrelated passage that is not there",
		"new_text":    "x",
	}))
	require.NoError(t, err)
	assert.True(t, r.IsError)

	m := decode(t, r)
	assert.Equal(t, false, m["success"])
	assert.Contains(t, m["message"], "not found")
}

func TestHandlers_NoDocumentGuidance(t *testing.T) {
	h := setupHandlers(t)

	r, err := h.insertContent(context.Background(), call("quill_insert_content", map[string]any{
		"content":  "hello",
		"position": "end",
	}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
	assert.Contains(t, text(t, r), "write_to_editor")
}

func TestHandlers_BatchEdit(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()
	id := write(t, h, "# Title\n\n## Intro\nold intro\n## Body\ntext")

	r, err := h.batchEdit(ctx, call("quill_batch_edit", map[string]any{
		"document_id": id,
		"edits": []any{
			map[string]any{
				"type":       "replace",
				"selection":  map[string]any{"mode": "search", "searchText": "old intro"},
				"newContent": "new intro",
			},
			map[string]any{
				"type":      "delete",
				"selection": map[string]any{"mode": "search", "searchText": "missing"},
			},
		},
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, text(t, r))

	m := decode(t, r)
	assert.Len(t, m["appliedEdits"], 1)
	assert.Len(t, m["failedEdits"], 1)

	doc, err := h.svc.Get(ctx, id, "alice")
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "new intro")
}

func TestHandlers_BatchEditRequiresEdits(t *testing.T) {
	h := setupHandlers(t)
	id := write(t, h, "text")

	r, err := h.batchEdit(context.Background(), call("quill_batch_edit", map[string]any{"document_id": id}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
	assert.Contains(t, text(t, r), "edits is required")
}

func TestHandlers_InsertAtLine(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()
	id := write(t, h, "a\nb\nc")

	r, err := h.insertContent(ctx, call("quill_insert_content", map[string]any{
		"document_id": id,
		"content":     "x",
		"position":    "line",
		"line":        float64(1),
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, text(t, r))

	doc, err := h.svc.Get(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a\nx\nb\nc", doc.Content)
}

func TestHandlers_Structure(t *testing.T) {
	h := setupHandlers(t)
	id := write(t, h, "# Title\n\n## One\ntext\n## Two\nmore")

	r, err := h.documentStructure(context.Background(), call("quill_document_structure", map[string]any{"document_id": id}))
	require.NoError(t, err)
	require.False(t, r.IsError, text(t, r))

	m := decode(t, r)
	assert.Equal(t, "Title", m["title"])
	assert.Len(t, m["sections"], 3)
}

func TestHandlers_ReadHistoryRestoreDiff(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()
	id := write(t, h, "first")

	_, err := h.writeToEditor(ctx, call("quill_write_to_editor", map[string]any{
		"document_id": id,
		"content":     "second",
	}))
	require.NoError(t, err)

	r, err := h.readDocument(ctx, call("quill_read", map[string]any{"document_id": id}))
	require.NoError(t, err)
	m := decode(t, r)
	assert.Equal(t, "second", m["content"])
	assert.EqualValues(t, 2, m["versionNumber"])

	r, err = h.readDocument(ctx, call("quill_read", map[string]any{"document_id": id, "version": float64(1)}))
	require.NoError(t, err)
	assert.Equal(t, "first", decode(t, r)["content"])

	r, err = h.history(ctx, call("quill_history", map[string]any{"document_id": id}))
	require.NoError(t, err)
	var versions []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, r)), &versions))
	require.Len(t, versions, 2)
	assert.EqualValues(t, 2, versions[0]["versionNumber"])
	first, _ := versions[1]["id"].(string)

	r, err = h.diffVersions(ctx, call("quill_diff", map[string]any{
		"document_id": id, "version1": float64(1), "version2": float64(2),
	}))
	require.NoError(t, err)
	m = decode(t, r)
	assert.Equal(t, "v1", m["old"])
	assert.Equal(t, "v2", m["new"])
	assert.Contains(t, m["diff"], "--- v1\n+++ v2\n")

	r, err = h.restoreVersion(ctx, call("quill_restore", map[string]any{"version_id": first}))
	require.NoError(t, err)
	require.False(t, r.IsError, text(t, r))
	m = decode(t, r)
	assert.Equal(t, "first", m["content"])
	assert.EqualValues(t, 3, m["versionNumber"])
}

func TestHandlers_ReadForeignDocument(t *testing.T) {
	h := setupHandlers(t)
	id := write(t, h, "private")

	r, err := h.readDocument(context.Background(), call("quill_read", map[string]any{
		"document_id": id,
		"user_id":     "bob",
	}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
	assert.Equal(t, errDocumentNotFound.Error(), text(t, r))
}

func TestHandlers_List(t *testing.T) {
	h := setupHandlers(t)
	write(t, h, "# One")
	write(t, h, "# Two")

	r, err := h.listDocuments(context.Background(), call("quill_list", map[string]any{"chat_id": "chat-1"}))
	require.NoError(t, err)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, r)), &docs))
	assert.Len(t, docs, 2)
}

func TestHandlers_ConfigGet(t *testing.T) {
	h := setupHandlers(t)

	r, err := h.configGet(context.Background(), call("quill_config_get", map[string]any{"key": "user.id"}))
	require.NoError(t, err)
	assert.Equal(t, "alice", decode(t, r)["user.id"])

	r, err = h.configGet(context.Background(), call("quill_config_get", map[string]any{"key": "no.such.key"}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
}

func TestHandlers_ExtensionToolRequiresInit(t *testing.T) {
	called := false
	tool := extension.MCPTool{
		Tool: mcp.NewTool("quill_test"),
		Handler: func(_ context.Context, extCtx extension.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			called = extCtx != nil
			return mcp.NewToolResultText("ok"), nil
		},
	}

	h := newHandlers(&config.Config{}, nil)
	r, err := h.extensionHandler(tool)(context.Background(), call("quill_test", nil))
	require.NoError(t, err)
	assert.True(t, r.IsError)
	assert.False(t, called)

	h = setupHandlers(t)
	r, err = h.extensionHandler(tool)(context.Background(), call("quill_test", nil))
	require.NoError(t, err)
	assert.Equal(t, "ok", text(t, r))
	assert.True(t, called)
}

func TestReadResource(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()
	id := write(t, h, "v1")
	_, err := h.writeToEditor(ctx, call("quill_write_to_editor", map[string]any{"document_id": id, "content": "v2"}))
	require.NoError(t, err)

	read := func(uri string) string {
		req := mcp.ReadResourceRequest{}
		req.Params.URI = uri
		contents, err := h.readResource(ctx, req)
		require.NoError(t, err)
		require.Len(t, contents, 1)
		return contents[0].(mcp.TextResourceContents).Text
	}
	assert.Equal(t, "v2", read("quill://documents/"+id))
	assert.Equal(t, "v1", read("quill://documents/"+id+"/v/1"))
}

func TestParseDocumentURI(t *testing.T) {
	tests := []struct {
		uri     string
		id      string
		version int
		wantErr error
	}{
		{uri: "quill://documents/abc", id: "abc"},
		{uri: "quill://documents/abc/v/3", id: "abc", version: 3},
		{uri: "quill://documents/", wantErr: ErrEmptyID},
		{uri: "quill://documents//v/2", wantErr: ErrEmptyID},
		{uri: "quill://documents/abc/v/x", wantErr: ErrInvalidURI},
		{uri: "quill://documents/abc/v/0", wantErr: ErrInvalidURI},
		{uri: "file://documents/abc", wantErr: ErrInvalidURI},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			id, v, err := parseDocumentURI(tt.uri)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.version, v)
		})
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	h := setupHandlers(t)
	s := newServer(h)
	tools := s.ListTools()
	for _, name := range []string{
		"quill_init",
		"quill_write_to_editor",
		"quill_replace_content",
		"quill_batch_edit",
		"quill_remove_citations",
		"quill_insert_content",
		"quill_document_structure",
		"quill_read",
		"quill_history",
		"quill_restore",
		"quill_diff",
	} {
		assert.Contains(t, tools, name)
	}
}
