// events.go defines the event types for extension notifications.
//
// Separated from extension.go to isolate the event system. Events let
// extensions react to document and plan changes without modifying core
// logic. They are fire-and-forget notifications sent after the change is
// committed; an extension cannot veto an operation through them.

package extension

import "github.com/jpl-au/quill/internal/store"

// EventType identifies the kind of event.
type EventType string

const (
	EventDocumentWrite   EventType = "document:write"
	EventDocumentDelete  EventType = "document:delete"
	EventDocumentRestore EventType = "document:restore"
	EventPlanChange      EventType = "plan:change"
)

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	// EventSubject is the id of the document or plan the event is about.
	EventSubject() string
}

// DocumentWriteEvent is fired after a document is created or a new version
// is written.
type DocumentWriteEvent struct {
	DocumentID    string
	UserID        string
	VersionID     string
	VersionNumber int
	CreatedBy     store.Author
	Description   string
}

func (e DocumentWriteEvent) EventType() EventType { return EventDocumentWrite }
func (e DocumentWriteEvent) EventSubject() string { return e.DocumentID }

// DocumentDeleteEvent is fired after a document and its versions are removed.
type DocumentDeleteEvent struct {
	DocumentID string
	UserID     string
	Versions   int // number of versions removed
}

func (e DocumentDeleteEvent) EventType() EventType { return EventDocumentDelete }
func (e DocumentDeleteEvent) EventSubject() string { return e.DocumentID }

// DocumentRestoreEvent is fired after an old version is restored as a new one.
type DocumentRestoreEvent struct {
	DocumentID    string
	UserID        string
	FromVersion   int
	VersionID     string
	VersionNumber int
}

func (e DocumentRestoreEvent) EventType() EventType { return EventDocumentRestore }
func (e DocumentRestoreEvent) EventSubject() string { return e.DocumentID }

// PlanEvent is fired after a plan is created, its steps replaced or its
// status changed.
type PlanEvent struct {
	PlanID string
	ChatID string
	UserID string
	Status store.PlanStatus
	Steps  int
}

func (e PlanEvent) EventType() EventType { return EventPlanChange }
func (e PlanEvent) EventSubject() string { return e.PlanID }

// EventHandler is implemented by extensions that want to receive events.
type EventHandler interface {
	HandleEvent(ctx Context, e Event) error
}
