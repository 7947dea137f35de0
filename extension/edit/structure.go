// structure.go implements the "quill structure" command.

package edit

import (
	"fmt"
	"io"
	"strings"

	"github.com/jpl-au/quill/internal/log"
	"github.com/spf13/cobra"
)

func (e *Extension) newStructureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "structure <id>",
		Short: "Show a document's sections",
		Long: `List a document's headings with their 0-based line ranges, as used by
"quill cat -l" and section or range edits.`,
		Args: cobra.ExactArgs(1),
		RunE: e.runStructure,
	}
}

func (e *Extension) runStructure(c *cobra.Command, args []string) error {
	s := session(args[0])

	r := e.kit.DocumentStructure(c.Context(), s)

	log.Event("edit:structure", "read").
		Author(s.UserID).
		Document(s.DocumentID).
		Detail("sections", len(r.Sections)).
		Write(outcomeErr(r))

	return finish(r, func(w io.Writer) {
		for _, sec := range r.Sections {
			indent := strings.Repeat("  ", max(sec.Level-1, 0))
			fmt.Fprintf(w, "%4d-%-4d %s%s\n", sec.LineStart, sec.LineEnd, indent, sec.Title)
		}
		fmt.Fprintf(w, "%d lines\n", r.LineCount)
	})
}
