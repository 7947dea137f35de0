// history.go implements the "quill history" command.

package document

import (
	"fmt"
	"io"
	"os"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/history"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (e *Extension) newHistoryCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "history <id>",
		Short: "Show version history",
		Long: `List a document's versions, newest first, with who wrote each and why.

Use --diff to show what each version changed.`,
		Args: cobra.ExactArgs(1),
		RunE: e.runHistory,
	}
	c.Flags().IntP(extension.FlagLimit, "n", 0, "Maximum versions to show")
	c.Flags().BoolP(extension.FlagDiff, "d", false, "Show diffs between versions")
	return c
}

func (e *Extension) runHistory(c *cobra.Command, args []string) error {
	id := args[0]
	limit, _ := c.Flags().GetInt(extension.FlagLimit)
	showDiff, _ := c.Flags().GetBool(extension.FlagDiff)

	if limit < 0 {
		return cmd.PrintJSONError(fmt.Errorf("limit must be >= 0, got %d", limit))
	}

	opts := history.Options{
		Limit:    limit,
		ShowDiff: showDiff && !cmd.JSON(),
		Colour:   term.IsTerminal(int(os.Stdout.Fd())),
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}

	result, err := history.Run(c.Context(), w, e.svc, id, cmd.User(), opts)

	log.Event("document:history", "history").
		Author(cmd.User()).
		Document(id).
		Detail("count", len(result.Versions)).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("history %s: %w", id, err))
	}

	if cmd.JSON() {
		out := make([]store.VersionJSON, len(result.Versions))
		for i := range result.Versions {
			out[i] = result.Versions[i].ToJSON(showDiff)
		}
		return cmd.PrintJSON(out)
	}
	return nil
}
