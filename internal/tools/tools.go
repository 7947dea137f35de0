// Package tools adapts the editing engine to an agent's tool calls.
//
// Each tool validates its input, runs the edit through the document
// service and returns a typed result. Failures never surface as Go errors:
// they become a Result with Success false and a message the agent can act
// on, so a tool call always produces something to show the model.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/edit"
	"github.com/jpl-au/quill/internal/lock"
	"github.com/jpl-au/quill/internal/match"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/jpl-au/quill/internal/validate"
)

// Kind discriminates tool results.
type Kind string

const (
	KindWrite     Kind = "write_to_editor"
	KindReplace   Kind = "replace_content"
	KindBatch     Kind = "batch_edit"
	KindCitations Kind = "remove_citations"
	KindInsert    Kind = "insert_content"
	KindStructure Kind = "document_structure"
)

// MsgNoDocument is returned by editing tools when the session has no
// document yet.
const MsgNoDocument = "No document in context. Call write_to_editor first to create one."

// errUnchanged aborts an edit whose result equals the current content.
var errUnchanged = errors.New("edit produced no changes")

// Outcome is the part of every result the calling UI relies on.
type Outcome struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	DocumentID    string `json:"documentId,omitempty"`
	VersionID     string `json:"versionId,omitempty"`
	VersionNumber int    `json:"versionNumber,omitempty"`
}

// Status returns the shared outcome of a result.
func (o Outcome) Status() Outcome { return o }

// Result is implemented only by the result types in this package. Switch on
// the concrete type to reach tool-specific fields.
type Result interface {
	Status() Outcome
	isResult()
}

// Session is the conversation context a tool call runs in. WriteToEditor
// sets DocumentID when it creates a document so later calls edit it.
type Session struct {
	UserID     string
	ChatID     string
	DocumentID string
}

// Toolkit runs tool calls against a document service.
type Toolkit struct {
	svc     service.Service
	matcher *match.Matcher
	logger  *slog.Logger
}

// New creates a Toolkit. cfg supplies the fuzzy match threshold; nil uses
// defaults.
func New(svc service.Service, cfg *config.Config, logger *slog.Logger) *Toolkit {
	threshold := config.DefaultThreshold
	if cfg != nil {
		threshold = cfg.Threshold()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolkit{svc: svc, matcher: match.New(threshold), logger: logger}
}

// edit applies fn to the session's document as an assistant edit.
func (k *Toolkit) edit(ctx context.Context, s *Session, description string, fn service.EditFunc) (*service.DocumentWithContent, error) {
	return k.svc.Edit(ctx, s.DocumentID, s.UserID, fn, service.UpdateOptions{
		ChangeDescription: description,
		CreatedBy:         store.AuthorAssistant,
	})
}

// check rejects calls without a user or a document.
func check(s *Session) (Outcome, bool) {
	if err := validate.User(s.UserID); err != nil {
		return Outcome{Message: err.Error()}, false
	}
	if s.DocumentID == "" {
		return Outcome{Message: MsgNoDocument}, false
	}
	return Outcome{}, true
}

// succeeded reports the document version an operation produced or read.
func succeeded(doc *service.DocumentWithContent, msg string) Outcome {
	return Outcome{
		Success:       true,
		Message:       msg,
		DocumentID:    doc.ID,
		VersionID:     doc.CurrentVersionID,
		VersionNumber: doc.VersionNumber,
	}
}

// failed maps an error onto a message for the agent. Storage failures are
// logged since the agent can do nothing about them.
func (k *Toolkit) failed(s *Session, err error) Outcome {
	o := Outcome{DocumentID: s.DocumentID}
	switch {
	case errors.Is(err, store.ErrNotFound):
		o.Message = "Document not found. Call write_to_editor to create a new one."
	case errors.Is(err, store.ErrConflict):
		o.Message = "The document changed while the edit was being applied. Read it again and retry."
	case errors.Is(err, lock.ErrNotAcquired):
		o.Message = "The document is busy with another edit. Try again."
	case errors.Is(err, errUnchanged):
		o.Message = "No changes were made: the edit left the document as it was."
	case errors.Is(err, edit.ErrTextNotFound):
		o.Message = fmt.Sprintf("%v. Check the current document text and try again.", err)
	case errors.Is(err, edit.ErrSectionNotFound),
		errors.Is(err, edit.ErrInvalidLineRange),
		errors.Is(err, edit.ErrMissingParameter),
		errors.Is(err, edit.ErrInvalidOperation),
		errors.Is(err, validate.ErrContentTooLarge),
		errors.Is(err, validate.ErrInvalidID),
		errors.Is(err, validate.ErrInvalidTitle):
		o.Message = err.Error()
	default:
		k.logger.Error("tool edit failed", "document", s.DocumentID, "error", err)
		o.Message = "Failed to save the document: " + err.Error()
	}
	return o
}

// invalid reports an input validation failure.
func invalid(err error) Outcome {
	return Outcome{Message: "Invalid input: " + err.Error()}
}
