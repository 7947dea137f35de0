// replace.go implements the "quill replace" command.

package edit

import (
	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/tools"
	"github.com/spf13/cobra"
)

func (e *Extension) newReplaceCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "replace <id> <old> <new>",
		Short: "Replace a passage in a document",
		Long: `Find old and replace it with new, creating a new version.

Matching is exact first, then whitespace-insensitive, then fuzzy: a passage
close enough to old (see match.threshold) is replaced when no exact match
exists. Use --all to replace every exact occurrence; new may be empty to
delete the passage.

  quill replace <id> "teh cat" "the cat"
  quill replace <id> "colour" "color" --all`,
		Args: cobra.ExactArgs(3),
		RunE: e.runReplace,
	}
	c.Flags().BoolP(extension.FlagAll, "a", false, "Replace every occurrence")
	return c
}

func (e *Extension) runReplace(c *cobra.Command, args []string) error {
	all, _ := c.Flags().GetBool(extension.FlagAll)
	s := session(args[0])

	r := e.kit.ReplaceContent(c.Context(), s, tools.ReplaceInput{
		OldText:           args[1],
		NewText:           args[2],
		ReplaceAll:        all,
		ChangeDescription: cmd.Message(),
	})

	audit("replace", "edit", s, r).
		Detail("match", r.Match).
		Detail("replacements", r.Replacements).
		Write(outcomeErr(r))

	return finish(r, nil)
}
