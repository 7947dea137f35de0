// Package edit provides the edit extension: the assistant's editing tools
// as commands. It registers replace, batch, insert, citations and
// structure.
//
// Each command runs one tool against the document named by its first
// argument, exactly as the MCP server would, so an edit can be tried from
// a shell before an agent relies on it.
package edit

import (
	"errors"
	"fmt"
	"io"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/tools"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the edit extension.
type Extension struct {
	kit *tools.Toolkit
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "edit".
func (e *Extension) Name() string { return "edit" }

// Init builds the toolkit over the shared service.
func (e *Extension) Init(ctx extension.Context) error {
	e.kit = tools.New(ctx.Service(), ctx.Config(), ctx.Logger())
	return nil
}

// Commands returns the editing commands.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		e.newReplaceCmd(),
		e.newBatchCmd(),
		e.newInsertCmd(),
		e.newCitationsCmd(),
		e.newStructureCmd(),
	}
}

// MCPTools returns nil. The editing tools are registered by the MCP server.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}

// session is the tool session for a command acting on documentID.
func session(documentID string) *tools.Session {
	return &tools.Session{UserID: cmd.User(), ChatID: cmd.Chat(), DocumentID: documentID}
}

// audit starts the log entry for a tool run from the CLI.
func audit(name, action string, s *tools.Session, r tools.Result) *log.Builder {
	o := r.Status()
	l := log.Event("edit:"+name, action).Author(s.UserID).Document(s.DocumentID)
	if o.Success {
		l.ResultVersion(o.VersionNumber)
	}
	return l
}

// finish prints a tool result. In JSON mode the whole result is printed;
// otherwise the message, with detail lines from extra when it is set.
func finish(r tools.Result, extra func(w io.Writer)) error {
	o := r.Status()
	if cmd.JSON() {
		return cmd.PrintJSON(r)
	}
	if !o.Success {
		if extra != nil {
			extra(cmd.Out())
		}
		return errors.New(o.Message)
	}
	fmt.Fprintln(cmd.Out(), o.Message)
	if extra != nil {
		extra(cmd.Out())
	}
	return nil
}

// outcomeErr converts a failed outcome into an error for the audit log.
func outcomeErr(r tools.Result) error {
	if o := r.Status(); !o.Success {
		return errors.New(o.Message)
	}
	return nil
}
