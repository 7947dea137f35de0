// citations.go implements the "quill citations" command.

package edit

import (
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/tools"
	"github.com/spf13/cobra"
)

func (e *Extension) newCitationsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "citations <id>",
		Short: "Remove citation markers from a document",
		Long: `Strip numeric citation markers such as [1] from a document.

Use --references to also drop the References heading and everything after it.`,
		Args: cobra.ExactArgs(1),
		RunE: e.runCitations,
	}
	c.Flags().BoolP(extension.FlagReferences, "r", false, "Also remove the references section")
	return c
}

func (e *Extension) runCitations(c *cobra.Command, args []string) error {
	refs, _ := c.Flags().GetBool(extension.FlagReferences)
	s := session(args[0])

	r := e.kit.RemoveCitations(c.Context(), s, tools.CitationInput{RemoveReferencesSection: refs})

	audit("citations", "edit", s, r).
		Detail("removed", r.CitationsRemoved).
		Detail("references", r.ReferencesRemoved).
		Write(outcomeErr(r))

	return finish(r, nil)
}
