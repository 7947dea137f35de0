// operation.go defines the edit operation variant and its validation.
//
// An operation pairs a type (replace, delete, insert) with a selection
// (search text, section title, or line range). Exactly the fields the
// selection mode needs must be present; newContent is required for
// replace and insert and ignored for delete.

package edit

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Type is what an operation does to its selection.
type Type string

const (
	Replace Type = "replace"
	Delete  Type = "delete"
	Insert  Type = "insert"
)

func (t Type) valid() bool { return t == Replace || t == Delete || t == Insert }

// Mode is how an operation selects its target.
type Mode string

const (
	Search  Mode = "search"
	Section Mode = "section"
	Range   Mode = "range"
)

func (m Mode) valid() bool { return m == Search || m == Section || m == Range }

// Selection identifies the text an operation targets. Line numbers are
// 0-indexed and the range is half-open: [StartLine, EndLine).
type Selection struct {
	Mode         Mode   `json:"mode"`
	SearchText   string `json:"searchText,omitempty"`
	SectionTitle string `json:"sectionTitle,omitempty"`
	StartLine    *int   `json:"startLine,omitempty"`
	EndLine      *int   `json:"endLine,omitempty"`
}

// Operation is a single edit. Description is optional and labels the
// operation in batch results.
type Operation struct {
	Type        Type      `json:"type"`
	Selection   Selection `json:"selection"`
	NewContent  *string   `json:"newContent,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Validate checks that the fields required by the type and mode are set.
// Range inserts need only a start line.
func (o Operation) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Type, validation.Required, validation.In(Replace, Delete, Insert)),
		validation.Field(&o.Selection, validation.By(o.needsEndLine)),
		validation.Field(&o.NewContent, validation.When(o.Type == Replace || o.Type == Insert, validation.NotNil)),
	)
}

func (o Operation) needsEndLine(any) error {
	if o.Selection.Mode == Range && o.Type != Insert && o.Selection.EndLine == nil {
		return errors.New("endLine is required")
	}
	return nil
}

// Validate checks the selection against its mode.
func (s Selection) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Mode, validation.Required, validation.In(Search, Section, Range)),
		validation.Field(&s.SearchText, validation.When(s.Mode == Search, validation.Required)),
		validation.Field(&s.SectionTitle, validation.When(s.Mode == Section, validation.Required)),
		validation.Field(&s.StartLine, validation.When(s.Mode == Range, validation.NotNil)),
	)
}

// SearchOp builds an operation selecting every occurrence of text.
func SearchOp(t Type, text, newContent string) Operation {
	return build(t, Selection{Mode: Search, SearchText: text}, newContent)
}

// SectionOp builds an operation selecting the first section matching title.
func SectionOp(t Type, title, newContent string) Operation {
	return build(t, Selection{Mode: Section, SectionTitle: title}, newContent)
}

// RangeOp builds an operation selecting lines [start, end).
func RangeOp(t Type, start, end int, newContent string) Operation {
	return build(t, Selection{Mode: Range, StartLine: &start, EndLine: &end}, newContent)
}

func build(t Type, s Selection, newContent string) Operation {
	op := Operation{Type: t, Selection: s}
	if t != Delete {
		op.NewContent = &newContent
	}
	return op
}

// Describe returns the operation's description, or a generated one.
func (o Operation) Describe() string {
	if o.Description != "" {
		return o.Description
	}
	s := o.Selection
	switch s.Mode {
	case Search:
		return fmt.Sprintf("%s %q", o.Type, snippet(s.SearchText))
	case Section:
		return fmt.Sprintf("%s section %q", o.Type, s.SectionTitle)
	case Range:
		return fmt.Sprintf("%s lines %s-%s", o.Type, intOrBlank(s.StartLine), intOrBlank(s.EndLine))
	default:
		return string(o.Type)
	}
}

func intOrBlank(p *int) string {
	if p == nil {
		return "?"
	}
	return fmt.Sprint(*p)
}
