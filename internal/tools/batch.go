package tools

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jpl-au/quill/internal/edit"
)

// MaxBatch is the most operations one batch_edit call may carry.
const MaxBatch = 50

// errNothingApplied aborts a batch in which every operation failed.
var errNothingApplied = errors.New("no edits applied")

// BatchInput is several edits saved as one version.
type BatchInput struct {
	Edits       []edit.Operation `json:"edits"`
	Description string           `json:"description,omitempty"`
}

// Validate checks the input. Individual operations are checked as they are
// applied so one bad operation doesn't reject the batch; Skip stops ozzo
// from validating the elements here.
func (in BatchInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Edits, validation.Required, validation.Length(1, MaxBatch), validation.Skip),
	)
}

// BatchResult is returned by BatchEdit.
type BatchResult struct {
	Kind Kind `json:"kind"`
	Outcome
	AppliedEdits []string       `json:"appliedEdits"`
	FailedEdits  []edit.Failure `json:"failedEdits"`
}

func (*BatchResult) isResult() {}

// BatchEdit applies the edits in order and saves exactly one version with
// the combined result. Edits that fail are reported and skipped. When none
// apply nothing is saved and the call fails.
func (k *Toolkit) BatchEdit(ctx context.Context, s *Session, in BatchInput) *BatchResult {
	r := &BatchResult{Kind: KindBatch, AppliedEdits: []string{}, FailedEdits: []edit.Failure{}}
	if err := in.Validate(); err != nil {
		r.Outcome = invalid(err)
		return r
	}
	if o, ok := check(s); !ok {
		r.Outcome = o
		return r
	}

	description := in.Description
	if description == "" {
		description = fmt.Sprintf("Batch edit (%d operations)", len(in.Edits))
	}

	var res edit.BatchResult
	doc, err := k.edit(ctx, s, description, func(current string) (string, error) {
		res = edit.ApplyBatch(current, in.Edits, k.matcher)
		if len(res.Applied) == 0 {
			return "", errNothingApplied
		}
		if res.Content == current {
			return "", errUnchanged
		}
		return res.Content, nil
	})
	r.AppliedEdits = orEmpty(res.Applied)
	r.FailedEdits = orEmpty(res.Failed)

	if errors.Is(err, errNothingApplied) {
		r.Outcome = Outcome{
			DocumentID: s.DocumentID,
			Message:    fmt.Sprintf("None of the %d edits could be applied. Nothing was saved.", len(in.Edits)),
		}
		return r
	}
	if err != nil {
		r.Outcome = k.failed(s, err)
		return r
	}

	msg := fmt.Sprintf("Applied %d of %d edits.", len(res.Applied), len(in.Edits))
	r.Outcome = succeeded(doc, msg)
	return r
}

// CitationInput strips citation markers.
type CitationInput struct {
	RemoveReferencesSection bool `json:"removeReferencesSection,omitempty"`
}

// CitationResult is returned by RemoveCitations.
type CitationResult struct {
	Kind Kind `json:"kind"`
	Outcome
	CitationsRemoved  int  `json:"citationsRemoved"`
	ReferencesRemoved bool `json:"referencesRemoved"`
}

func (*CitationResult) isResult() {}

// RemoveCitations removes [n] markers and optionally the References
// section. A document without citations is left alone and reported as a
// success without a new version.
func (k *Toolkit) RemoveCitations(ctx context.Context, s *Session, in CitationInput) *CitationResult {
	r := &CitationResult{Kind: KindCitations}
	if o, ok := check(s); !ok {
		r.Outcome = o
		return r
	}

	var res edit.CitationResult
	doc, err := k.edit(ctx, s, "Removed citations", func(current string) (string, error) {
		res = edit.RemoveCitations(current, in.RemoveReferencesSection)
		if res.Content == current {
			return "", errUnchanged
		}
		return res.Content, nil
	})
	if errors.Is(err, errUnchanged) {
		r.Outcome = Outcome{Success: true, DocumentID: s.DocumentID, Message: "No citations found."}
		return r
	}
	if err != nil {
		r.Outcome = k.failed(s, err)
		return r
	}

	msg := fmt.Sprintf("Removed %d citation(s).", res.CitationsRemoved)
	if res.ReferencesRemoved {
		msg += " Removed the References section."
	}
	r.Outcome = succeeded(doc, msg)
	r.CitationsRemoved = res.CitationsRemoved
	r.ReferencesRemoved = res.ReferencesRemoved
	return r
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
