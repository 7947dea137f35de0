// batch.go implements the "quill batch" command.
//
// Operations are read as JSON from -f or stdin, either a bare array or an
// object with "edits" and "description":
//
//	[{"type": "replace",
//	  "selection": {"mode": "search", "searchText": "old"},
//	  "newContent": "new",
//	  "description": "fix wording"}]

package edit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/edit"
	"github.com/jpl-au/quill/internal/tools"
	"github.com/spf13/cobra"
)

func (e *Extension) newBatchCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "batch <id>",
		Short: "Apply several edits as one version",
		Long: `Apply a list of edit operations to a document, in order, creating one version.

Each operation replaces, deletes or inserts at a selection: a search string
(fuzzy matched), a section title or a 0-based line range. Operations that
cannot be applied are reported and skipped; the rest are kept.

  quill batch <id> -f edits.json
  quill batch <id> < edits.json`,
		Args: cobra.ExactArgs(1),
		RunE: e.runBatch,
	}
	c.Flags().StringP(extension.FlagFile, "f", "", "Read operations from file")
	return c
}

func (e *Extension) runBatch(c *cobra.Command, args []string) error {
	in, err := readBatch(c)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	if in.Description == "" {
		in.Description = cmd.Message()
	}
	s := session(args[0])

	r := e.kit.BatchEdit(c.Context(), s, in)

	audit("batch", "edit", s, r).
		Detail("applied", len(r.AppliedEdits)).
		Detail("failed", len(r.FailedEdits)).
		Write(outcomeErr(r))

	return finish(r, func(w io.Writer) {
		for _, f := range r.FailedEdits {
			fmt.Fprintf(w, "  failed: %s: %s\n", f.Description, f.Reason)
		}
	})
}

// readBatch decodes the batch input from the file flag or stdin.
func readBatch(c *cobra.Command) (tools.BatchInput, error) {
	var data []byte
	var err error
	if file, _ := c.Flags().GetString(extension.FlagFile); file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(c.InOrStdin())
	}
	if err != nil {
		return tools.BatchInput{}, fmt.Errorf("read operations: %w", err)
	}

	var in tools.BatchInput
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		var ops []edit.Operation
		err = json.Unmarshal(data, &ops)
		in.Edits = ops
	} else {
		err = json.Unmarshal(data, &in)
	}
	if err != nil {
		return tools.BatchInput{}, fmt.Errorf("parse operations: %w", err)
	}
	return in, nil
}
