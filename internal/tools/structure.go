package tools

import (
	"context"
	"fmt"

	"github.com/jpl-au/quill/internal/section"
	"github.com/jpl-au/quill/internal/textstat"
	"github.com/jpl-au/quill/internal/validate"
)

// StructureResult is returned by DocumentStructure. Title is the first
// level-1 heading in the body, not the document's stored title.
type StructureResult struct {
	Kind Kind `json:"kind"`
	Outcome
	Title     string            `json:"title,omitempty"`
	Sections  []section.Section `json:"sections"`
	WordCount int               `json:"wordCount"`
	LineCount int               `json:"lineCount"`
}

func (*StructureResult) isResult() {}

// DocumentStructure describes the current document's headings so the agent
// can target sections and line ranges.
func (k *Toolkit) DocumentStructure(ctx context.Context, s *Session) *StructureResult {
	r := &StructureResult{Kind: KindStructure, Sections: []section.Section{}}
	if o, ok := check(s); !ok {
		r.Outcome = o
		return r
	}
	if err := validate.ID("document", s.DocumentID); err != nil {
		r.Outcome = k.failed(s, err)
		return r
	}

	doc, err := k.svc.Get(ctx, s.DocumentID, s.UserID)
	if err != nil {
		r.Outcome = k.failed(s, err)
		return r
	}
	if doc == nil {
		r.Outcome = Outcome{DocumentID: s.DocumentID, Message: "Document not found. Call write_to_editor to create a new one."}
		return r
	}

	if secs := section.Parse(doc.Content); len(secs) > 0 {
		r.Sections = secs
	}
	r.Title, _ = section.Title(r.Sections)
	r.WordCount = textstat.Words(doc.Content)
	r.LineCount = textstat.Lines(doc.Content)
	r.Outcome = succeeded(doc, fmt.Sprintf("%d section(s), %d words.", len(r.Sections), r.WordCount))
	return r
}
