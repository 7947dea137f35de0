package tools

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jpl-au/quill/internal/edit"
	"github.com/jpl-au/quill/internal/section"
)

// Position says where InsertContent places new content.
type Position string

const (
	AtStart      Position = "start"      // before the first line
	AtEnd        Position = "end"        // after the last line
	AfterText    Position = "after_text" // on the line after the anchor text ends
	EndOfSection Position = "section"    // after the last line of the anchor section
	AtLine       Position = "line"       // before the 0-based Line
)

// InsertInput adds content without replacing anything.
type InsertInput struct {
	Content           string   `json:"content"`
	Position          Position `json:"position"`
	Anchor            string   `json:"anchor,omitempty"`
	Line              *int     `json:"line,omitempty"`
	ChangeDescription string   `json:"changeDescription,omitempty"`
}

// Validate checks the input.
func (in InsertInput) Validate() error {
	needsAnchor := in.Position == AfterText || in.Position == EndOfSection
	return validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Position, validation.Required,
			validation.In(AtStart, AtEnd, AfterText, EndOfSection, AtLine)),
		validation.Field(&in.Anchor, validation.When(needsAnchor, validation.Required)),
		validation.Field(&in.Line, validation.When(in.Position == AtLine, validation.NotNil)),
	)
}

// InsertResult is returned by InsertContent.
type InsertResult struct {
	Kind Kind `json:"kind"`
	Outcome
	Position Position `json:"position,omitempty"`
}

func (*InsertResult) isResult() {}

// InsertContent inserts content at the requested position.
func (k *Toolkit) InsertContent(ctx context.Context, s *Session, in InsertInput) *InsertResult {
	r := &InsertResult{Kind: KindInsert}
	if err := in.Validate(); err != nil {
		r.Outcome = invalid(err)
		return r
	}
	if o, ok := check(s); !ok {
		r.Outcome = o
		return r
	}

	description := in.ChangeDescription
	if description == "" {
		description = fmt.Sprintf("Inserted content (%s)", in.Position)
	}
	doc, err := k.edit(ctx, s, description, func(current string) (string, error) {
		return k.insert(current, in)
	})
	if err != nil {
		r.Outcome = k.failed(s, err)
		return r
	}
	r.Outcome = succeeded(doc, fmt.Sprintf("Inserted content at %s.", in.Position))
	r.Position = in.Position
	return r
}

// insert places in.Content in current. Start and end insertions are kept
// apart from existing text by a blank line so they form their own block.
func (k *Toolkit) insert(current string, in InsertInput) (string, error) {
	switch in.Position {
	case AtStart:
		if current == "" {
			return in.Content, nil
		}
		return strings.TrimRight(in.Content, "\n") + "\n\n" + current, nil
	case AtEnd:
		if current == "" {
			return in.Content, nil
		}
		return strings.TrimRight(current, "\n") + "\n\n" + in.Content, nil
	case AfterText:
		m, ok := k.matcher.Locate(current, in.Anchor)
		if !ok {
			return "", fmt.Errorf("%w: anchor %q", edit.ErrTextNotFound, in.Anchor)
		}
		line := strings.Count(current[:m.End()-1], "\n") + 1
		return edit.Apply(current, edit.RangeOp(edit.Insert, line, line, in.Content), k.matcher)
	case EndOfSection:
		sec, ok := section.Find(section.Parse(current), in.Anchor)
		if !ok {
			return "", fmt.Errorf("%w: %q", edit.ErrSectionNotFound, in.Anchor)
		}
		return edit.Apply(current, edit.RangeOp(edit.Insert, sec.LineEnd, sec.LineEnd, in.Content), k.matcher)
	default:
		return edit.Apply(current, edit.RangeOp(edit.Insert, *in.Line, *in.Line, in.Content), k.matcher)
	}
}
