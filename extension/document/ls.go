// ls.go implements the "quill ls" command.

package document

import (
	"fmt"
	"io"
	"slices"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/ls"
	"github.com/spf13/cobra"
)

func (e *Extension) newLsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "ls",
		Short: "List documents",
		Long: `List your documents, most recently updated first.

Use --chat to list only one conversation's documents.`,
		Args: cobra.NoArgs,
		RunE: e.runLs,
	}
	c.Flags().BoolP(extension.FlagLong, "l", false, "Long format")
	c.Flags().StringP(extension.FlagSort, "s", "", "Sort by: title, words")
	c.Flags().BoolP(extension.FlagReverse, "r", false, "Reverse sort order")
	return c
}

func (e *Extension) runLs(c *cobra.Command, _ []string) error {
	long, _ := c.Flags().GetBool(extension.FlagLong)
	sortBy, _ := c.Flags().GetString(extension.FlagSort)
	reverse, _ := c.Flags().GetBool(extension.FlagReverse)

	if sortBy != "" && !slices.Contains(ls.ValidSorts, ls.SortField(sortBy)) {
		return cmd.PrintJSONError(fmt.Errorf("invalid sort field %q (valid: %v)", sortBy, ls.ValidSorts))
	}

	opts := ls.Options{
		ChatID:  cmd.Chat(),
		Long:    long,
		Sort:    ls.SortField(sortBy),
		Reverse: reverse,
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}

	result, err := ls.Run(c.Context(), w, e.svc, cmd.User(), opts)

	log.Event("document:ls", "list").
		Author(cmd.User()).
		Detail("chat", opts.ChatID).
		Detail("count", result.Count()).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("ls: %w", err))
	}
	return cmd.PrintJSON(result.ToJSON())
}
