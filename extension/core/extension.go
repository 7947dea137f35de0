// Package core provides the core extension for quill.
// It registers commands: init, config, serve, db, version.
package core

import (
	"github.com/jpl-au/quill/extension"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the core extension.
type Extension struct{}

var (
	_ extension.Extension    = (*Extension)(nil)
	_ extension.Storeless    = (*Extension)(nil)
	_ extension.EventHandler = (*Extension)(nil)
)

// Name returns "core".
func (e *Extension) Name() string { return "core" }

// Commands returns the workspace management commands.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		newInitCmd(),
		newConfigCmd(),
		newServeCmd(),
		newDBCmd(),
		newVersionCmd(),
	}
}

// MCPTools returns nil. The server registers quill_init and the config
// tools itself since they must work before a workspace exists.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}

// NoStoreCommands returns commands that manage their own service lifecycle.
// serve opens the workspace itself so it can start uninitialised; db and
// version only inspect files.
func (e *Extension) NoStoreCommands() []string {
	return []string{"serve", "db", "version"}
}
