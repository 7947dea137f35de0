// serve.go implements the "quill serve" command.
//
// serve blocks handling MCP requests over stdio. It is storeless: the
// server opens the workspace itself so it can start before one exists and
// let the agent call quill_init.

package core

import (
	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/internal/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start an MCP (Model Context Protocol) server over stdio.

The server exposes the editing tools (quill_write_to_editor,
quill_replace_content, quill_batch_edit, quill_insert_content,
quill_remove_citations, quill_document_structure) plus document, history and
plan tools. Logs go to stderr.`,
		RunE: func(c *cobra.Command, _ []string) error {
			return mcp.Serve(c.Context(), cmd.Config(), cmd.Logger())
		},
	}
}
