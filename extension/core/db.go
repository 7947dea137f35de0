// db.go implements the "quill db" command, which reports where the
// workspace keeps its data and whether it is committed.
//
// db is storeless: it inspects files and configuration without opening the
// database, so it works even when the database is locked.

package core

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/repo"
	"github.com/spf13/cobra"
)

// dbStatus describes the workspace storage.
type dbStatus struct {
	Workspace string `json:"workspace,omitempty"`
	Driver    string `json:"driver"`
	Blob      string `json:"blob"`
	Lock      string `json:"lock"`
	Local     bool   `json:"local"`
}

func newDBCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "db",
		Short: "Show workspace storage",
		Long: `Show the workspace location and the configured store, blob and lock backends.

  quill db            # show status
  quill db --local    # gitignore the database and blobs

Local workspaces are not committed. Shared ones are.`,
		Args: cobra.NoArgs,
		RunE: runDB,
	}
	c.Flags().BoolP(extension.FlagLocal, "l", false, "Mark the workspace as local")
	return c
}

func runDB(c *cobra.Command, _ []string) error {
	local, _ := c.Flags().GetBool(extension.FlagLocal)
	cfg := cmd.Config()

	st := dbStatus{
		Driver: cfg.StoreDriver(),
		Blob:   cfg.BlobBackend(),
		Lock:   cfg.LockBackend(),
	}

	root, err := repo.DiscoverDir()
	switch {
	case errors.Is(err, repo.ErrNotInitialised) && st.Driver != "sqlite":
		// A Postgres-backed workspace needs no directory.
	case err != nil:
		return cmd.PrintJSONError(err)
	default:
		st.Workspace = root
		if local {
			err = repo.Ignore(root)
			log.Event("core:db", "local").Author(cmd.User()).Detail("workspace", root).Write(err)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return cmd.PrintJSONError(fmt.Errorf("mark local: %w", err))
			}
		}
		st.Local, _ = repo.IsIgnored(root)
	}

	if cmd.JSON() {
		return cmd.PrintJSON(st)
	}
	if st.Workspace != "" {
		fmt.Fprintf(cmd.Out(), "workspace: %s\n", filepath.Clean(st.Workspace))
	}
	fmt.Fprintf(cmd.Out(), "store: %s\nblob: %s\nlock: %s\n", st.Driver, st.Blob, st.Lock)
	if st.Local {
		fmt.Fprintln(cmd.Out(), "local: yes (gitignored)")
	} else {
		fmt.Fprintln(cmd.Out(), "local: no (committed)")
	}
	return nil
}
