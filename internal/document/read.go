// read.go implements document retrieval operations.
//
// Reads never modify data. Absent or foreign documents read as nil rather
// than an error so callers can render an empty state; metadata store
// failures are still returned as errors.

package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpl-au/quill/internal/blob"
	"github.com/jpl-au/quill/internal/diff"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
)

// Get returns the document with its current content. Returns nil when the
// document doesn't exist, belongs to someone else, or its content cannot be
// read (the failure is logged).
func (s *Service) Get(ctx context.Context, documentID, userID string) (*service.DocumentWithContent, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	doc, err := s.store.Document(ctx, documentID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}

	content, number, err := s.content(ctx, doc)
	if err != nil {
		s.logger.Error("read document content", "document", documentID, "error", err)
		return nil, nil
	}
	return &service.DocumentWithContent{Document: *doc, Content: content, VersionNumber: number}, nil
}

// GetVersion returns a version with its content. Ownership is checked
// through the parent document. Returns nil when the version doesn't exist,
// isn't owned, or its content cannot be read.
func (s *Service) GetVersion(ctx context.Context, versionID, userID string) (*service.VersionWithContent, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	v, err := s.store.Version(ctx, versionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get version %s: %w", versionID, err)
	}

	_, err = s.store.Document(ctx, v.DocumentID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", v.DocumentID, err)
	}

	obj, err := blob.GetVersion(ctx, s.blobs, v.StorageKey, v.ID)
	if err != nil {
		s.logger.Error("read version content", "version", versionID, "error", err)
		return nil, nil
	}
	return &service.VersionWithContent{Version: *v, Content: obj.Content}, nil
}

// ListVersions returns version metadata newest first, without content.
func (s *Service) ListVersions(ctx context.Context, documentID, userID string, limit int) ([]store.Version, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	if _, err := s.store.Document(ctx, documentID, userID); err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}
	versions, err := s.store.Versions(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", documentID, err)
	}
	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}
	return versions, nil
}

// List returns a user's documents, most recently updated first.
func (s *Service) List(ctx context.Context, userID, chatID string) ([]store.Document, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	docs, err := s.store.Documents(ctx, userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Diff compares version v1 of a document with version v2.
func (s *Service) Diff(ctx context.Context, documentID, userID string, v1, v2 int) (diff.Result, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	if _, err := s.store.Document(ctx, documentID, userID); err != nil {
		return diff.Result{}, fmt.Errorf("get document %s: %w", documentID, err)
	}
	oldContent, err := s.versionContent(ctx, documentID, v1)
	if err != nil {
		return diff.Result{}, err
	}
	newContent, err := s.versionContent(ctx, documentID, v2)
	if err != nil {
		return diff.Result{}, err
	}
	return diff.Unified(oldContent, newContent, fmt.Sprintf("v%d", v1), fmt.Sprintf("v%d", v2)), nil
}

func (s *Service) versionContent(ctx context.Context, documentID string, number int) (string, error) {
	v, err := s.store.VersionByNumber(ctx, documentID, number)
	if err != nil {
		return "", fmt.Errorf("get version %d: %w", number, err)
	}
	obj, err := blob.GetVersion(ctx, s.blobs, v.StorageKey, v.ID)
	if err != nil {
		return "", fmt.Errorf("read version %d content: %w", number, err)
	}
	return obj.Content, nil
}

// content returns the document's current content and version number.
//
// The current blob is trusted only when it names the row's current version.
// Otherwise a later write failed after replacing the blob but before its
// metadata committed, and the version blob for the committed version is
// read instead.
func (s *Service) content(ctx context.Context, doc *store.Document) (string, int, error) {
	obj, err := blob.GetDocument(ctx, s.blobs, doc.StorageKey)
	if err == nil && obj.VersionID == doc.CurrentVersionID {
		return obj.Content, obj.VersionNumber, nil
	}
	if err != nil {
		s.logger.Warn("current blob unreadable, using version blob", "document", doc.ID, "error", err)
	} else {
		s.logger.Warn("current blob is stale, using version blob",
			"document", doc.ID, "blob_version", obj.VersionID, "current_version", doc.CurrentVersionID)
	}

	v, err := s.store.Version(ctx, doc.CurrentVersionID)
	if err != nil {
		return "", 0, fmt.Errorf("get version %s: %w", doc.CurrentVersionID, err)
	}
	vo, err := blob.GetVersion(ctx, s.blobs, v.StorageKey, v.ID)
	if err != nil {
		return "", 0, fmt.Errorf("read version %d content: %w", v.VersionNumber, err)
	}
	return vo.Content, v.VersionNumber, nil
}
