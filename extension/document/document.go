// Package document provides the document extension: create, write, cat,
// ls, history, diff, restore and rm.
//
// Commands address documents by id and run as the configured user (see
// cmd.User). Versions written from the CLI are attributed to the user;
// the agent's edits arrive through the MCP tools as the assistant.
package document

import (
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/service"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the document extension.
type Extension struct {
	svc service.Service
	cfg *config.Config
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "document".
func (e *Extension) Name() string { return "document" }

// Init connects to the shared service.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	e.cfg = ctx.Config()
	return nil
}

// Commands returns the document commands.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		e.newCreateCmd(),
		e.newWriteCmd(),
		e.newCatCmd(),
		e.newLsCmd(),
		e.newHistoryCmd(),
		e.newDiffCmd(),
		e.newRestoreCmd(),
		e.newRmCmd(),
	}
}

// MCPTools returns nil. Document tools are registered by the MCP server.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}
