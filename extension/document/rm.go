// rm.go implements the "quill rm" command.
//
// Deletion is permanent: the document's versions and blobs are removed.
// Without --force the command asks for confirmation.

package document

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/internal/log"
	"github.com/spf13/cobra"
)

func (e *Extension) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a document",
		Long:  `Permanently delete a document and all of its versions. Use --force to skip confirmation.`,
		Args:  cobra.ExactArgs(1),
		RunE:  e.runRm,
	}
}

func (e *Extension) runRm(c *cobra.Command, args []string) error {
	id := args[0]

	if !cmd.Force() && !cmd.JSON() {
		fmt.Fprintf(cmd.Out(), "Delete %s and all its versions? [y/N] ", id)
		answer, _ := bufio.NewReader(c.InOrStdin()).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(cmd.Out(), "Cancelled")
			return nil
		}
	}

	err := e.svc.Delete(c.Context(), id, cmd.User())

	log.Event("document:rm", "delete").Author(cmd.User()).Document(id).Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("rm %s: %w", id, err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(map[string]string{"deleted": id})
	}
	fmt.Fprintf(cmd.Out(), "Deleted %s\n", id)
	return nil
}
