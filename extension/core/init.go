// init.go implements the "quill init" command.
//
// Init creates the workspace structure and nothing else: configuration is
// managed with "quill config", the way git separates init from config.

package core

import (
	"fmt"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/repo"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialise a quill workspace",
		Long: `Creates .quill/quill.db and .quill/blobs in the current directory, or in dir.

Use --local to keep documents out of git:
  quill init --local

Note: init does not create config. Use "quill config" to set user.id and
storage backends.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
	c.Flags().BoolP(extension.FlagLocal, "l", false, "Gitignore the database and blobs")
	return c
}

func runInit(c *cobra.Command, args []string) error {
	local, _ := c.Flags().GetBool(extension.FlagLocal)
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}

	err := repo.Init(c.Context(), cmd.Force(), local, dir)

	log.Event("core:init", "init").
		Author(cmd.User()).
		Detail("dir", dir).
		Detail("local", local).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("init: %w", err))
	}

	loc := ".quill"
	if dir != "" {
		loc = dir + "/.quill"
	}
	if cmd.JSON() {
		return cmd.PrintJSON(map[string]any{"path": loc, "local": local})
	}
	fmt.Fprintf(cmd.Out(), "Initialised quill workspace in %s\n", loc)
	return nil
}
