package tools

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jpl-au/quill/internal/edit"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/jpl-au/quill/internal/validate"
)

// WriteInput replaces the whole document, creating it when the session has
// none.
type WriteInput struct {
	Content           string `json:"content"`
	Title             string `json:"title,omitempty"`
	ChangeDescription string `json:"changeDescription,omitempty"`
}

// Validate checks the input.
func (in WriteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Title, validation.RuneLength(0, validate.MaxTitle)),
	)
}

// WriteResult is returned by WriteToEditor.
type WriteResult struct {
	Kind Kind `json:"kind"`
	Outcome
	Title   string `json:"title,omitempty"`
	Created bool   `json:"created"`
}

func (*WriteResult) isResult() {}

// WriteToEditor writes the full document content as a new version.
func (k *Toolkit) WriteToEditor(ctx context.Context, s *Session, in WriteInput) *WriteResult {
	r := &WriteResult{Kind: KindWrite}
	if err := in.Validate(); err != nil {
		r.Outcome = invalid(err)
		return r
	}
	if err := validate.User(s.UserID); err != nil {
		r.Outcome = Outcome{Message: err.Error()}
		return r
	}

	if s.DocumentID == "" {
		doc, err := k.svc.Create(ctx, service.CreateOptions{
			UserID:            s.UserID,
			ChatID:            s.ChatID,
			Title:             in.Title,
			Content:           in.Content,
			ChangeDescription: in.ChangeDescription,
			CreatedBy:         store.AuthorAssistant,
		})
		if err != nil {
			r.Outcome = k.failed(s, err)
			return r
		}
		s.DocumentID = doc.ID
		r.Outcome = succeeded(doc, "Document created.")
		r.Title = doc.Title
		r.Created = true
		return r
	}

	opts := service.UpdateOptions{
		ChangeDescription: in.ChangeDescription,
		CreatedBy:         store.AuthorAssistant,
	}
	if in.Title != "" {
		opts.Title = &in.Title
	}
	doc, err := k.svc.Update(ctx, s.DocumentID, s.UserID, in.Content, opts)
	if err != nil {
		r.Outcome = k.failed(s, err)
		return r
	}
	r.Outcome = succeeded(doc, fmt.Sprintf("Document updated to version %d.", doc.VersionNumber))
	r.Title = doc.Title
	return r
}

// ReplaceInput replaces a quoted passage.
type ReplaceInput struct {
	OldText           string `json:"oldText"`
	NewText           string `json:"newText"`
	ReplaceAll        bool   `json:"replaceAll,omitempty"`
	ChangeDescription string `json:"changeDescription,omitempty"`
}

// Validate checks the input. NewText may be empty to delete the passage.
func (in ReplaceInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.OldText, validation.Required),
	)
}

// ReplaceResult is returned by ReplaceContent.
type ReplaceResult struct {
	Kind Kind `json:"kind"`
	Outcome
	Replacements int     `json:"replacements,omitempty"`
	Match        string  `json:"match,omitempty"` // exact, whitespace or fuzzy
	Similarity   float64 `json:"similarity,omitempty"`
}

func (*ReplaceResult) isResult() {}

// ReplaceContent replaces OldText with NewText. When OldText is not in the
// document verbatim, the closest passage above the match threshold is
// patched instead.
func (k *Toolkit) ReplaceContent(ctx context.Context, s *Session, in ReplaceInput) *ReplaceResult {
	r := &ReplaceResult{Kind: KindReplace}
	if err := in.Validate(); err != nil {
		r.Outcome = invalid(err)
		return r
	}
	if o, ok := check(s); !ok {
		r.Outcome = o
		return r
	}

	var rep edit.ReplaceResult
	doc, err := k.edit(ctx, s, in.ChangeDescription, func(current string) (string, error) {
		var err error
		rep, err = edit.ReplaceText(current, in.OldText, in.NewText, in.ReplaceAll, k.matcher)
		if err != nil {
			return "", err
		}
		if rep.Content == current {
			return "", errUnchanged
		}
		return rep.Content, nil
	})
	if err != nil {
		r.Outcome = k.failed(s, err)
		return r
	}

	msg := fmt.Sprintf("Replaced %d occurrence(s).", rep.Count)
	if rep.Similarity < 1 {
		msg = fmt.Sprintf("Replaced the closest match (%.0f%% similar).", rep.Similarity*100)
	}
	r.Outcome = succeeded(doc, msg)
	r.Replacements = rep.Count
	r.Match = rep.Stage.String()
	r.Similarity = rep.Similarity
	return r
}
