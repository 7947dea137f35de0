// restore.go implements the "quill restore" command.

package document

import (
	"fmt"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/internal/log"
	"github.com/spf13/cobra"
)

func (e *Extension) newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <version-id>",
		Short: "Restore an earlier version",
		Long: `Write an earlier version's content as a new version. Versions in between are
kept, so a restore can itself be undone. Find version ids with "quill history".`,
		Args: cobra.ExactArgs(1),
		RunE: e.runRestore,
	}
}

func (e *Extension) runRestore(c *cobra.Command, args []string) error {
	versionID := args[0]

	doc, err := e.svc.RestoreVersion(c.Context(), versionID, cmd.User())

	l := log.Event("document:restore", "restore").Author(cmd.User()).Detail("version_id", versionID)
	if doc != nil {
		l.Document(doc.ID).ResultVersion(doc.VersionNumber)
	}
	l.Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("restore %s: %w", versionID, err))
	}
	return report(doc, "Restored")
}
