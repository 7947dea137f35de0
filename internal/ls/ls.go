// Package ls lists a user's documents with sorting.
//
// The store returns documents most recently updated first, which answers
// "what changed recently?". Sorting by title or word count is applied here.
package ls

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/jpl-au/quill/internal/format"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
)

// SortField specifies how to sort results.
type SortField string

const (
	SortNone  SortField = ""      // most recently updated first
	SortTitle SortField = "title" // alphabetical, case-insensitive
	SortWords SortField = "words" // longest first
)

// ValidSorts lists the accepted sort fields.
var ValidSorts = []SortField{SortTitle, SortWords}

// Options configures a list operation.
type Options struct {
	ChatID  string    // Restrict to one chat
	Long    bool      // Long format with metadata
	Sort    SortField // Sort field
	Reverse bool      // Reverse sort order
}

// Result contains the outcome of a list operation.
type Result struct {
	Documents []store.Document
}

// Count returns the number of documents in the result.
func (r Result) Count() int { return len(r.Documents) }

// ToJSON converts the result to its API representation.
func (r Result) ToJSON() []store.DocumentJSON {
	out := make([]store.DocumentJSON, len(r.Documents))
	for i := range r.Documents {
		out[i] = r.Documents[i].ToJSON()
	}
	return out
}

// Run lists the user's documents and writes them to w.
func Run(ctx context.Context, w io.Writer, svc service.Service, userID string, opts Options) (Result, error) {
	docs, err := svc.List(ctx, userID, opts.ChatID)
	if err != nil {
		return Result{}, err
	}

	sortDocuments(docs, opts.Sort)
	if opts.Reverse {
		slices.Reverse(docs)
	}

	if opts.Long {
		err = format.Long(w, docs)
	} else {
		err = format.List(w, docs)
	}
	return Result{Documents: docs}, err
}

func sortDocuments(docs []store.Document, by SortField) {
	switch by {
	case SortTitle:
		slices.SortStableFunc(docs, func(a, b store.Document) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case SortWords:
		slices.SortStableFunc(docs, func(a, b store.Document) int {
			return b.WordCount - a.WordCount
		})
	}
}
