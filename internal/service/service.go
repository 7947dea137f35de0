// Package service defines the shared interfaces for document and plan
// operations. Commands, tools and extensions depend on these interfaces
// rather than concrete implementations, enabling testing with fakes and
// alternative backends.
package service

import (
	"context"

	"github.com/jpl-au/quill/internal/diff"
	"github.com/jpl-au/quill/internal/store"
)

// DocumentWithContent is a document's metadata plus its current content.
type DocumentWithContent struct {
	store.Document
	Content       string
	VersionNumber int
}

// VersionWithContent is a version's metadata plus its content.
type VersionWithContent struct {
	store.Version
	Content string
}

// CreateOptions describes a new document.
type CreateOptions struct {
	UserID            string
	ChatID            string // optional
	Title             string // derived from the first level-1 heading when empty
	Content           string
	ChangeDescription string
	CreatedBy         store.Author
}

// UpdateOptions describes a new version of an existing document.
type UpdateOptions struct {
	Title             *string // nil keeps the current title
	ChangeDescription string
	CreatedBy         store.Author

	// BaseVersionID, when set, must equal the document's current version.
	// Otherwise the update is rejected with store.ErrConflict.
	BaseVersionID string
}

// EditFunc transforms a document's current content into its next content.
// Returning an error aborts the edit without creating a version.
type EditFunc func(current string) (string, error)

// Service defines all document operations.
//
// Obtain an implementation from document.Open or document.New and always
// call Close when done.
//
//	svc, err := document.Open(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//	doc, err := svc.Get(ctx, documentID, userID)
type Service interface {
	// Close releases storage resources. Always defer this after Open.
	Close() error

	// Create allocates a document and writes version 1.
	Create(ctx context.Context, opts CreateOptions) (*DocumentWithContent, error)

	// Update writes content as the next version of a document the user
	// owns. Returns store.ErrNotFound if it doesn't exist or isn't owned.
	Update(ctx context.Context, documentID, userID, content string, opts UpdateOptions) (*DocumentWithContent, error)

	// Edit reads the current content, applies fn and writes the result as
	// the next version, holding the document's lock throughout so
	// concurrent edits are serialised.
	Edit(ctx context.Context, documentID, userID string, fn EditFunc, opts UpdateOptions) (*DocumentWithContent, error)

	// Get returns the document with its current content, or nil when the
	// document doesn't exist, isn't owned, or its content is unavailable.
	Get(ctx context.Context, documentID, userID string) (*DocumentWithContent, error)

	// GetVersion returns a version with its content, or nil when it doesn't
	// exist or its document isn't owned by userID.
	GetVersion(ctx context.Context, versionID, userID string) (*VersionWithContent, error)

	// ListVersions returns version metadata newest first. Set limit to 0 for
	// all versions. Returns store.ErrNotFound if the document isn't owned.
	ListVersions(ctx context.Context, documentID, userID string, limit int) ([]store.Version, error)

	// RestoreVersion writes an old version's content as a new version.
	// Intervening versions are kept.
	RestoreVersion(ctx context.Context, versionID, userID string) (*DocumentWithContent, error)

	// Delete removes the document's blobs (best effort) and then its rows.
	Delete(ctx context.Context, documentID, userID string) error

	// List returns a user's documents, most recently updated first. A
	// non-empty chatID restricts the list to that chat.
	List(ctx context.Context, userID, chatID string) ([]store.Document, error)

	// Diff compares two version numbers of a document.
	Diff(ctx context.Context, documentID, userID string, v1, v2 int) (diff.Result, error)
}

// Plans defines plan operations.
type Plans interface {
	// Create starts a plan for a chat, cancelling the chat's active plan.
	Create(ctx context.Context, chatID, userID, title string, steps []StepInput) (*store.Plan, error)

	// Active returns the chat's active plan, or nil if there is none.
	Active(ctx context.Context, chatID, userID string) (*store.Plan, error)

	// Get returns a plan the user owns. Returns store.ErrNotFound otherwise.
	Get(ctx context.Context, planID, userID string) (*store.Plan, error)

	// ReplaceSteps swaps the plan's step list wholesale.
	ReplaceSteps(ctx context.Context, planID, userID string, steps []StepInput) (*store.Plan, error)

	// SetStatus moves a plan to a new status.
	SetStatus(ctx context.Context, planID, userID string, status store.PlanStatus) (*store.Plan, error)
}

// StepInput is a plan step as supplied by a caller. Positions are assigned
// from the slice order.
type StepInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Status      store.StepStatus `json:"status,omitempty"` // defaults to pending
}
