// Package store defines document metadata types and the Store interface.
// Full document content lives in the blob store; this package holds the
// relational side: documents, their immutable versions, and plans.
// Implementations handle the database while consumers depend only on the
// interfaces, enabling testing and alternative backends.
package store

import (
	"encoding/json"
	"time"
)

// Author identifies who produced a version.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Document is the metadata row for a user's markdown document. The content
// itself is read from the blob at StorageKey.
type Document struct {
	ID               string // UUID
	ChatID           string // Owning conversation, empty if none
	UserID           string // Owner; every query filters on it
	Title            string
	CurrentVersionID string // Version the document currently shows
	StorageKey       string // Blob key of the current content
	ContentPreview   string
	WordCount        int
	CreatedAt        int64 // Unix timestamp of creation
	UpdatedAt        int64 // Unix timestamp of the last version
}

// Version is an immutable snapshot of a document. Version numbers start at
// 1 and are unique per document.
type Version struct {
	ID                string
	DocumentID        string
	VersionNumber     int
	StorageKey        string // Blob key of this version's content
	ContentPreview    string
	ChangeDescription string
	Diff              string // HTML diff against the previous version
	WordCount         int
	CreatedBy         Author
	CreatedAt         int64
}

// PlanStatus is the lifecycle state of a plan. A chat has at most one
// active plan.
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// StepStatus is the progress of a single plan step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

// Plan is an ordered list of writing steps the assistant works through.
type Plan struct {
	ID        string
	ChatID    string
	UserID    string
	Title     string
	Status    PlanStatus
	Steps     []PlanStep // Ordered by Position
	CreatedAt int64
	UpdatedAt int64
}

// PlanStep is one entry in a plan.
type PlanStep struct {
	ID          string
	PlanID      string
	Position    int
	Title       string
	Description string
	Status      StepStatus
}

// DocumentJSON is the API-friendly representation of a Document with
// RFC3339 timestamps.
type DocumentJSON struct {
	ID               string `json:"id"`
	ChatID           string `json:"chatId,omitempty"`
	Title            string `json:"title,omitempty"`
	CurrentVersionID string `json:"currentVersionId"`
	ContentPreview   string `json:"contentPreview,omitempty"`
	WordCount        int    `json:"wordCount"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// ToJSON converts a Document to its API representation.
func (d *Document) ToJSON() DocumentJSON {
	return DocumentJSON{
		ID:               d.ID,
		ChatID:           d.ChatID,
		Title:            d.Title,
		CurrentVersionID: d.CurrentVersionID,
		ContentPreview:   d.ContentPreview,
		WordCount:        d.WordCount,
		CreatedAt:        rfc3339(d.CreatedAt),
		UpdatedAt:        rfc3339(d.UpdatedAt),
	}
}

// VersionJSON is the API-friendly representation of a Version. The diff is
// omitted unless requested.
type VersionJSON struct {
	ID                string `json:"id"`
	DocumentID        string `json:"documentId"`
	VersionNumber     int    `json:"versionNumber"`
	ContentPreview    string `json:"contentPreview,omitempty"`
	ChangeDescription string `json:"changeDescription,omitempty"`
	Diff              string `json:"diff,omitempty"`
	WordCount         int    `json:"wordCount"`
	CreatedBy         Author `json:"createdBy"`
	CreatedAt         string `json:"createdAt"`
}

// ToJSON converts a Version to its API representation.
func (v *Version) ToJSON(diff bool) VersionJSON {
	j := VersionJSON{
		ID:                v.ID,
		DocumentID:        v.DocumentID,
		VersionNumber:     v.VersionNumber,
		ContentPreview:    v.ContentPreview,
		ChangeDescription: v.ChangeDescription,
		WordCount:         v.WordCount,
		CreatedBy:         v.CreatedBy,
		CreatedAt:         rfc3339(v.CreatedAt),
	}
	if diff {
		j.Diff = v.Diff
	}
	return j
}

// PlanJSON is the API-friendly representation of a Plan.
type PlanJSON struct {
	ID        string         `json:"id"`
	ChatID    string         `json:"chatId"`
	Title     string         `json:"title"`
	Status    PlanStatus     `json:"status"`
	Steps     []PlanStepJSON `json:"steps"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

// PlanStepJSON is the API-friendly representation of a PlanStep.
type PlanStepJSON struct {
	ID          string     `json:"id"`
	Position    int        `json:"position"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      StepStatus `json:"status"`
}

// ToJSON converts a Plan to its API representation.
func (p *Plan) ToJSON() PlanJSON {
	j := PlanJSON{
		ID:        p.ID,
		ChatID:    p.ChatID,
		Title:     p.Title,
		Status:    p.Status,
		Steps:     make([]PlanStepJSON, 0, len(p.Steps)),
		CreatedAt: rfc3339(p.CreatedAt),
		UpdatedAt: rfc3339(p.UpdatedAt),
	}
	for _, s := range p.Steps {
		j.Steps = append(j.Steps, PlanStepJSON{
			ID:          s.ID,
			Position:    s.Position,
			Title:       s.Title,
			Description: s.Description,
			Status:      s.Status,
		})
	}
	return j
}

func rfc3339(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// MarshalJSON encodes a value with indentation for human-readable CLI output.
// Use this instead of json.Marshal when the output will be displayed to users.
func MarshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
