// insert.go implements the "quill insert" command.

package edit

import (
	"fmt"
	"io"
	"slices"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/tools"
	"github.com/spf13/cobra"
)

var validPositions = []tools.Position{
	tools.AtStart, tools.AtEnd, tools.AfterText, tools.EndOfSection, tools.AtLine,
}

func (e *Extension) newInsertCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "insert <id> [content]",
		Short: "Insert content into a document",
		Long: `Insert content without rewriting the rest of the document. Content comes from
the argument or stdin.

Positions:
  start       before the first line
  end         after the last line (default)
  after_text  after the line where --anchor text ends
  section     at the end of the section titled --anchor
  line        before 0-based --line

  quill insert <id> "## Summary" -p start
  quill insert <id> "New paragraph." -p section --anchor "Methods"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: e.runInsert,
	}
	c.Flags().StringP(extension.FlagPosition, "p", string(tools.AtEnd), "Where to insert")
	c.Flags().StringP(extension.FlagAnchor, "a", "", "Anchor text or section title")
	c.Flags().Int(extension.FlagLine, 0, "Line to insert before (from 0)")
	return c
}

func (e *Extension) runInsert(c *cobra.Command, args []string) error {
	pos, _ := c.Flags().GetString(extension.FlagPosition)
	anchor, _ := c.Flags().GetString(extension.FlagAnchor)

	if !slices.Contains(validPositions, tools.Position(pos)) {
		return cmd.PrintJSONError(fmt.Errorf("invalid position %q (valid: %v)", pos, validPositions))
	}

	var content string
	if len(args) > 1 {
		content = args[1]
	} else {
		data, err := io.ReadAll(c.InOrStdin())
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("read stdin: %w", err))
		}
		content = string(data)
	}

	in := tools.InsertInput{
		Content:           content,
		Position:          tools.Position(pos),
		Anchor:            anchor,
		ChangeDescription: cmd.Message(),
	}
	if c.Flags().Changed(extension.FlagLine) {
		line, _ := c.Flags().GetInt(extension.FlagLine)
		in.Line = &line
	}

	s := session(args[0])
	r := e.kit.InsertContent(c.Context(), s, in)

	audit("insert", "edit", s, r).Detail("position", pos).Write(outcomeErr(r))

	return finish(r, nil)
}
