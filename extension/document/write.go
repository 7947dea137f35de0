// write.go implements "quill create" and "quill write".
//
// Content comes from, in order: the argument, the -f file, stdin.

package document

import (
	"fmt"
	"io"
	"os"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/spf13/cobra"
)

// writeResult contains the outcome of a create or write.
type writeResult struct {
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	VersionID     string `json:"versionId"`
	VersionNumber int    `json:"versionNumber"`
}

func (e *Extension) newCreateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "create [content]",
		Short: "Create a document",
		Long: `Create a document from an argument, a file (-f) or stdin.

The title defaults to the first level-1 heading. Use --chat to attach the
document to a conversation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: e.runCreate,
	}
	c.Flags().StringP(extension.FlagFile, "f", "", "Read content from file")
	c.Flags().StringP(extension.FlagTitle, "t", "", "Document title")
	return c
}

func (e *Extension) newWriteCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "write <id> [content]",
		Short: "Write a new version of a document",
		Long: `Replace a document's content, creating the next version. Content comes from
an argument, a file (-f) or stdin.

Use --base to reject the write when someone else saved a version since you
last read the document.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: e.runWrite,
	}
	c.Flags().StringP(extension.FlagFile, "f", "", "Read content from file")
	c.Flags().StringP(extension.FlagTitle, "t", "", "New title (default: keep)")
	c.Flags().String(extension.FlagBase, "", "Expected current version id")
	return c
}

// readContent resolves content from the argument, the file flag or stdin.
func readContent(c *cobra.Command, args []string) (string, error) {
	file, _ := c.Flags().GetString(extension.FlagFile)
	switch {
	case len(args) > 0:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read file %q: %w", file, err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(c.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
}

func (e *Extension) runCreate(c *cobra.Command, args []string) error {
	content, err := readContent(c, args)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	title, _ := c.Flags().GetString(extension.FlagTitle)

	doc, err := e.svc.Create(c.Context(), service.CreateOptions{
		UserID:            cmd.User(),
		ChatID:            cmd.Chat(),
		Title:             title,
		Content:           content,
		ChangeDescription: cmd.Message(),
		CreatedBy:         store.AuthorUser,
	})

	l := log.Event("document:create", "write").Author(cmd.User())
	if doc != nil {
		l.Document(doc.ID).ResultVersion(doc.VersionNumber)
	}
	l.Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("create: %w", err))
	}
	return report(doc, "Created")
}

func (e *Extension) runWrite(c *cobra.Command, args []string) error {
	id := args[0]
	content, err := readContent(c, args[1:])
	if err != nil {
		return cmd.PrintJSONError(err)
	}

	opts := service.UpdateOptions{
		ChangeDescription: cmd.Message(),
		CreatedBy:         store.AuthorUser,
	}
	if c.Flags().Changed(extension.FlagTitle) {
		title, _ := c.Flags().GetString(extension.FlagTitle)
		opts.Title = &title
	}
	opts.BaseVersionID, _ = c.Flags().GetString(extension.FlagBase)

	doc, err := e.svc.Update(c.Context(), id, cmd.User(), content, opts)

	l := log.Event("document:write", "write").Author(cmd.User()).Document(id)
	if doc != nil {
		l.ResultVersion(doc.VersionNumber)
	}
	l.Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("write %s: %w", id, err))
	}
	return report(doc, "Wrote")
}

// report prints the version a command produced.
func report(doc *service.DocumentWithContent, verb string) error {
	if cmd.JSON() {
		return cmd.PrintJSON(writeResult{
			ID:            doc.ID,
			Title:         doc.Title,
			VersionID:     doc.CurrentVersionID,
			VersionNumber: doc.VersionNumber,
		})
	}
	fmt.Fprintf(cmd.Out(), "%s %s v%d\n", verb, doc.ID, doc.VersionNumber)
	return nil
}
