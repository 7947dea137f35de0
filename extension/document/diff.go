// diff.go implements the "quill diff" command.

package document

import (
	"fmt"
	"os"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/diff"
	"github.com/jpl-au/quill/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (e *Extension) newDiffCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "diff <id>",
		Short: "Show differences between document versions",
		Long: `Compare two versions of a document.

  quill diff <id>          # previous version against current
  quill diff <id> -v 3:5   # version 3 against version 5`,
		Args: cobra.ExactArgs(1),
		RunE: e.runDiff,
	}
	c.Flags().StringP(extension.FlagVersions, "v", "", "Version range (e.g., 3:5)")
	return c
}

func (e *Extension) runDiff(c *cobra.Command, args []string) error {
	ctx := c.Context()
	id := args[0]
	versions, _ := c.Flags().GetString(extension.FlagVersions)

	var v1, v2 int
	var err error
	if versions != "" {
		v1, v2, err = diff.ParseVersionRange(versions)
		if err != nil {
			return cmd.PrintJSONError(err)
		}
	} else {
		doc, err := e.svc.Get(ctx, id, cmd.User())
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("diff %s: %w", id, err))
		}
		if doc == nil {
			return cmd.PrintJSONError(fmt.Errorf("diff %s: document not found", id))
		}
		if doc.VersionNumber < 2 {
			return cmd.PrintJSONError(fmt.Errorf("diff %s: only one version exists", id))
		}
		v1, v2 = doc.VersionNumber-1, doc.VersionNumber
	}

	r, err := e.svc.Diff(ctx, id, cmd.User(), v1, v2)

	log.Event("document:diff", "diff").
		Author(cmd.User()).
		Document(id).
		Detail("from", v1).
		Detail("to", v2).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("diff %s: %w", id, err))
	}

	if cmd.JSON() {
		return cmd.PrintJSON(diffJSON{Old: r.Old, New: r.New, Diff: r.Diff, Added: r.Added, Removed: r.Removed})
	}
	fmt.Fprint(cmd.Out(), r.Format(term.IsTerminal(int(os.Stdout.Fd()))))
	return nil
}

type diffJSON struct {
	Old     string `json:"old"`
	New     string `json:"new"`
	Diff    string `json:"diff"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}
