// Package mcp implements the Model Context Protocol server, exposing quill's
// editing tools to an agent over stdio.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/document"
	"github.com/jpl-au/quill/internal/plan"
	"github.com/jpl-au/quill/internal/repo"
	"github.com/jpl-au/quill/internal/tools"
	"github.com/jpl-au/quill/internal/version"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ErrNotInitialised is returned by tools when no workspace has been opened.
// The agent should call quill_init before using other tools.
const ErrNotInitialised = "workspace not initialised - call quill_init first"

// Serve starts the MCP server over stdio.
//
// The server starts even when no workspace exists so the agent can call
// quill_init. Tools that need storage return ErrNotInitialised until then.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	h := newHandlers(cfg, logger)

	svc, err := document.Open(ctx, cfg, logger)
	if err != nil && !errors.Is(err, repo.ErrNotInitialised) {
		logger.Error("failed to open store", "error", err)
		return err
	}
	if err == nil {
		h.attach(svc)
		defer svc.Close()
	} else {
		logger.Info("quill not initialised, starting in uninitialised mode - call quill_init to create a workspace")
	}

	s := newServer(h)
	logger.Info("quill MCP server ready", "version", version.Short(), "transport", "stdio")

	err = server.ServeStdio(s)
	if errors.Is(err, context.Canceled) {
		logger.Info("server stopped")
		return nil
	}
	return err
}

// newServer builds the MCP server with all resources and tools registered.
func newServer(h *handlers) *server.MCPServer {
	s := server.NewMCPServer(
		"quill",
		version.Short(),
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)
	registerResources(s, h)
	registerTools(s, h)
	registerExtensionTools(s, h)
	return s
}

// handlers provides MCP request handlers with access to the services.
// svc is nil until a workspace has been opened.
type handlers struct {
	cfg    *config.Config
	logger *slog.Logger

	svc    *document.Service
	plans  *plan.Service
	kit    *tools.Toolkit
	extCtx extension.Context
}

func newHandlers(cfg *config.Config, logger *slog.Logger) *handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &handlers{cfg: cfg, logger: logger}
}

// attach wires the services built on svc and hands extensions their
// context.
func (h *handlers) attach(svc *document.Service) {
	h.svc = svc
	h.plans = plan.New(svc.Store())
	h.kit = tools.New(svc, h.cfg, h.logger)
	h.extCtx = extension.NewContext(svc, h.plans, svc.DB(), h.cfg, h.logger)
	svc.SetExtensionContext(h.extCtx)
	h.plans.SetExtensionContext(h.extCtx)

	for _, ext := range extension.All() {
		if i, ok := ext.(extension.Initializable); ok {
			if err := i.Init(h.extCtx); err != nil {
				h.logger.Error("extension init failed", "extension", ext.Name(), "error", err)
			}
		}
	}
}

// requireInit returns an error result if no workspace is open.
func (h *handlers) requireInit() *mcp.CallToolResult {
	if h.svc == nil {
		return mcp.NewToolResultError(ErrNotInitialised)
	}
	return nil
}

// registerResources adds URI-based access to document content.
func registerResources(s *server.MCPServer, h *handlers) {
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"quill://documents/{id}",
			"Document",
			mcp.WithTemplateDescription("Current content of a document"),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		h.readResource,
	)
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"quill://documents/{id}/v/{version}",
			"Document Version",
			mcp.WithTemplateDescription("Content of a specific document version"),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		h.readResource,
	)
}

// session arguments shared by every editing tool.
func withSession(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithString("user_id", mcp.Description("User the call runs as (default: configured user.id)")),
		mcp.WithString("chat_id", mcp.Description("Conversation the document belongs to")),
		mcp.WithString("document_id", mcp.Description("Document in context; omit on the first write_to_editor call")),
	)
}

// registerTools exposes quill operations as MCP tools.
func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(
		mcp.NewTool("quill_init",
			mcp.WithDescription("Initialise a quill workspace. Call this first if other tools return 'workspace not initialised'."),
			mcp.WithBoolean("local", mcp.Description("If true, the workspace is gitignored")),
		),
		h.initWorkspace,
	)

	s.AddTool(
		mcp.NewTool("quill_write_to_editor", withSession(
			mcp.WithDescription("Write the full document content. Creates the document when none is in context, otherwise saves a new version."),
			mcp.WithString("content", mcp.Required(), mcp.Description("Complete markdown content")),
			mcp.WithString("title", mcp.Description("Document title (default: first level-1 heading)")),
			mcp.WithString("change_description", mcp.Description("Summary of the change")),
		)...),
		h.writeToEditor,
	)

	s.AddTool(
		mcp.NewTool("quill_replace_content", withSession(
			mcp.WithDescription("Replace a passage of the document. Falls back to the closest similar passage when the text is not found verbatim."),
			mcp.WithString("old_text", mcp.Required(), mcp.Description("Text to find")),
			mcp.WithString("new_text", mcp.Description("Replacement text (empty deletes)")),
			mcp.WithBoolean("replace_all", mcp.Description("Replace every exact occurrence")),
			mcp.WithString("change_description", mcp.Description("Summary of the change")),
		)...),
		h.replaceContent,
	)

	s.AddTool(
		mcp.NewTool("quill_batch_edit", withSession(
			mcp.WithDescription("Apply several edits in order as one version. Failed edits are reported and skipped."),
			mcp.WithArray("edits", mcp.Required(),
				mcp.Description("Operations: {type: replace|delete|insert, selection: {mode: search|section|range, searchText, sectionTitle, startLine, endLine}, newContent, description}. Lines are 0-based, endLine exclusive."),
				mcp.Items(map[string]any{"type": "object"}),
			),
			mcp.WithString("description", mcp.Description("Summary of the batch")),
		)...),
		h.batchEdit,
	)

	s.AddTool(
		mcp.NewTool("quill_remove_citations", withSession(
			mcp.WithDescription("Strip citation markers such as [1] from the document"),
			mcp.WithBoolean("remove_references_section", mcp.Description("Also remove a trailing References or Sources section")),
		)...),
		h.removeCitations,
	)

	s.AddTool(
		mcp.NewTool("quill_insert_content", withSession(
			mcp.WithDescription("Insert content without replacing anything"),
			mcp.WithString("content", mcp.Required(), mcp.Description("Content to insert")),
			mcp.WithString("position", mcp.Required(),
				mcp.Enum(string(tools.AtStart), string(tools.AtEnd), string(tools.AfterText), string(tools.EndOfSection), string(tools.AtLine)),
				mcp.Description("Where to insert")),
			mcp.WithString("anchor", mcp.Description("Anchor text (after_text) or section heading (section)")),
			mcp.WithNumber("line", mcp.Description("0-based line to insert before (line)")),
			mcp.WithString("change_description", mcp.Description("Summary of the change")),
		)...),
		h.insertContent,
	)

	s.AddTool(
		mcp.NewTool("quill_document_structure", withSession(
			mcp.WithDescription("List the document's sections with their line ranges"),
		)...),
		h.documentStructure,
	)

	s.AddTool(
		mcp.NewTool("quill_read",
			mcp.WithDescription("Read a document's content"),
			mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
			mcp.WithNumber("version", mcp.Description("Version number to read (default: current)")),
			mcp.WithString("user_id", mcp.Description("Owner (default: configured user.id)")),
		),
		h.readDocument,
	)

	s.AddTool(
		mcp.NewTool("quill_list",
			mcp.WithDescription("List the user's documents, most recently updated first"),
			mcp.WithString("chat_id", mcp.Description("Only documents in this chat")),
			mcp.WithString("user_id", mcp.Description("Owner (default: configured user.id)")),
		),
		h.listDocuments,
	)

	s.AddTool(
		mcp.NewTool("quill_history",
			mcp.WithDescription("Version history of a document, newest first"),
			mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
			mcp.WithNumber("limit", mcp.Description("Maximum versions to return")),
			mcp.WithBoolean("diff", mcp.Description("Include each version's diff")),
			mcp.WithString("user_id", mcp.Description("Owner (default: configured user.id)")),
		),
		h.history,
	)

	s.AddTool(
		mcp.NewTool("quill_restore",
			mcp.WithDescription("Restore an earlier version as a new version"),
			mcp.WithString("version_id", mcp.Required(), mcp.Description("Version id to restore")),
			mcp.WithString("user_id", mcp.Description("Owner (default: configured user.id)")),
		),
		h.restoreVersion,
	)

	s.AddTool(
		mcp.NewTool("quill_diff",
			mcp.WithDescription("Compare two versions of a document"),
			mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
			mcp.WithNumber("version1", mcp.Required(), mcp.Description("Older version number")),
			mcp.WithNumber("version2", mcp.Required(), mcp.Description("Newer version number")),
			mcp.WithString("user_id", mcp.Description("Owner (default: configured user.id)")),
		),
		h.diffVersions,
	)

	s.AddTool(
		mcp.NewTool("quill_config_get",
			mcp.WithDescription("Get a configuration value"),
			mcp.WithString("key", mcp.Description("Config key (e.g. match.threshold) or empty for all")),
		),
		h.configGet,
	)

	s.AddTool(
		mcp.NewTool("quill_config_set",
			mcp.WithDescription("Set a configuration value in the workspace config file"),
			mcp.WithString("key", mcp.Required(), mcp.Description("Config key")),
			mcp.WithString("value", mcp.Required(), mcp.Description("Value to set")),
		),
		h.configSet,
	)
}

// registerExtensionTools adds the tools contributed by extensions. Each
// handler runs with the shared extension context once a workspace is open.
func registerExtensionTools(s *server.MCPServer, h *handlers) {
	for _, ext := range extension.All() {
		for _, t := range ext.MCPTools() {
			s.AddTool(t.Tool, h.extensionHandler(t))
		}
	}
}

func (h *handlers) extensionHandler(t extension.MCPTool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if r := h.requireInit(); r != nil {
			return r, nil
		}
		return t.Handler(ctx, h.extCtx, req)
	}
}
