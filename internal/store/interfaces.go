// interfaces.go defines the storage abstraction for document metadata.
//
// The interfaces are granular so consumers depend only on what they use:
// the document service needs DocumentReader and DocumentWriter, the plan
// service needs PlanStore.
//
// Ownership is enforced here. Every document and plan lookup takes the
// owning user and a row owned by someone else is indistinguishable from a
// missing one (ErrNotFound).

package store

import (
	"context"
	"database/sql"
)

// DocumentReader defines read-only operations on documents and versions.
type DocumentReader interface {
	// Document returns the document if userID owns it.
	Document(ctx context.Context, id, userID string) (*Document, error)

	// Documents lists a user's documents, most recently updated first.
	// A non-empty chatID restricts the list to that chat.
	Documents(ctx context.Context, userID, chatID string) ([]Document, error)

	// Version returns a version by id. Ownership is checked by the caller
	// through the parent document.
	Version(ctx context.Context, id string) (*Version, error)

	// VersionByNumber returns a document's version by its number.
	VersionByNumber(ctx context.Context, documentID string, number int) (*Version, error)

	// Versions returns a document's versions, newest first.
	Versions(ctx context.Context, documentID string) ([]Version, error)
}

// DocumentWriter defines operations that create or remove documents.
// Versions are append-only.
type DocumentWriter interface {
	// CreateDocument inserts a document and its first version atomically.
	CreateDocument(ctx context.Context, d *Document, v *Version) error

	// AppendVersion inserts v and advances d to it in one transaction.
	// baseVersionID must be the document's current version; otherwise
	// another writer got there first and ErrConflict is returned.
	AppendVersion(ctx context.Context, d *Document, v *Version, baseVersionID string) error

	// DeleteDocument removes a document and all of its versions.
	DeleteDocument(ctx context.Context, id, userID string) error
}

// PlanStore defines plan persistence.
type PlanStore interface {
	// CreatePlan cancels the chat's active plan, if any, and inserts p with
	// its steps.
	CreatePlan(ctx context.Context, p *Plan) error

	// Plan returns a plan and its steps if userID owns it.
	Plan(ctx context.Context, id, userID string) (*Plan, error)

	// ActivePlan returns the chat's active plan.
	ActivePlan(ctx context.Context, chatID, userID string) (*Plan, error)

	// ReplaceSteps swaps a plan's step list wholesale.
	ReplaceSteps(ctx context.Context, planID, userID string, steps []PlanStep, updatedAt int64) error

	// SetPlanStatus updates a plan's status.
	SetPlanStatus(ctx context.Context, planID, userID string, status PlanStatus, updatedAt int64) error
}

// Maintainer defines operations for connection lifecycle.
type Maintainer interface {
	// Close releases the database connection.
	Close() error

	// DB exposes the underlying connection.
	DB() *sql.DB

	// Checkpoint flushes the SQLite WAL to the main database file.
	Checkpoint(ctx context.Context) error
}

// Store is the full metadata persistence interface.
type Store interface {
	DocumentReader
	DocumentWriter
	PlanStore
	Maintainer
}
