// Package format renders documents, versions and plans for CLI display.
//
// Command implementations focus on the operation while this package
// handles column alignment and diff presentation.
package format

import (
	"fmt"
	"io"
	"time"

	"github.com/jpl-au/quill/internal/diff"
	"github.com/jpl-au/quill/internal/store"
)

const timeLayout = "2006-01-02 15:04"

// orDash returns s, or "-" when s is empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// List prints documents as "id  title".
func List(w io.Writer, docs []store.Document) error {
	for _, doc := range docs {
		fmt.Fprintf(w, "%s  %s\n", doc.ID, orDash(doc.Title))
	}
	return nil
}

// Long prints documents with word count, last update and chat.
//
// Fixed-width columns come first so variable-length titles don't disturb
// the alignment.
func Long(w io.Writer, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	maxChat := 4 // "CHAT"
	for _, doc := range docs {
		maxChat = max(maxChat, len(orDash(doc.ChatID)))
	}

	fmt.Fprintf(w, "%-36s  %6s  %-16s  %-*s  %s\n", "ID", "WORDS", "UPDATED", maxChat, "CHAT", "TITLE")
	for _, doc := range docs {
		updated := time.Unix(doc.UpdatedAt, 0).Format(timeLayout)
		fmt.Fprintf(w, "%-36s  %6d  %s  %-*s  %s\n", doc.ID, doc.WordCount, updated, maxChat, orDash(doc.ChatID), orDash(doc.Title))
	}
	return nil
}

// History prints versions, newest first.
func History(w io.Writer, versions []store.Version) error {
	for _, v := range versions {
		msg := "-"
		if v.ChangeDescription != "" {
			msg = fmt.Sprintf("%q", v.ChangeDescription)
		}
		fmt.Fprintf(w, "v%-3d  %s  %-9s  %5d words  %s  %s\n",
			v.VersionNumber,
			time.Unix(v.CreatedAt, 0).Format(timeLayout),
			v.CreatedBy,
			v.WordCount,
			v.ID,
			msg,
		)
	}
	return nil
}

// Change is one version with its content and that of its predecessor.
type Change struct {
	Version  store.Version
	Previous string // empty for version 1
	Content  string
}

// HistoryDiff prints each change as a diff against the version before it.
func HistoryDiff(w io.Writer, changes []Change, colour bool) error {
	for _, c := range changes {
		v := c.Version
		fmt.Fprintf(w, "=== v%d (%s by %s) ===\n",
			v.VersionNumber,
			time.Unix(v.CreatedAt, 0).Format(timeLayout),
			v.CreatedBy,
		)
		if v.ChangeDescription != "" {
			fmt.Fprintf(w, "Message: %s\n", v.ChangeDescription)
		}
		ol := "(empty)"
		if v.VersionNumber > 1 {
			ol = fmt.Sprintf("v%d", v.VersionNumber-1)
		}
		r := diff.Unified(c.Previous, c.Content, ol, fmt.Sprintf("v%d", v.VersionNumber))
		fmt.Fprint(w, r.Format(colour))
		fmt.Fprintln(w)
	}
	return nil
}

// Plan prints a plan with its steps.
func Plan(w io.Writer, p *store.Plan) error {
	fmt.Fprintf(w, "%s  [%s]  %s\n", p.ID, p.Status, p.Title)
	for _, s := range p.Steps {
		mark := " "
		switch s.Status {
		case store.StepInProgress:
			mark = ">"
		case store.StepCompleted:
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %d. %s\n", mark, s.Position+1, s.Title)
		if s.Description != "" {
			fmt.Fprintf(w, "         %s\n", s.Description)
		}
	}
	return nil
}
