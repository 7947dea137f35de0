// write.go implements document creation, versioning, restore and deletion.
//
// Write ordering for every new version:
//  1. version blob  documents/<user>/<doc>/versions/<n>.json, create-only
//  2. one metadata transaction inserting the version row and advancing the
//     document row, guarded by a compare-and-swap on current_version_id
//  3. current blob  documents/<user>/<doc>.json
//
// Step 1 never replaces an object, so a writer that loses the race for
// version n cannot touch the content of the version n that committed. It
// fails with store.ErrConflict at step 1 or step 2 instead. Readers check
// that a version blob names the row's version id, and that the current
// blob names the row's current version, falling back to the version blob
// when it does not.
//
// Writers in one process hold the document's lock for the whole
// read-modify-write. Writers in different processes only share the lock
// with lock.backend=redis; otherwise the create-only blob and the CAS
// settle the race.

package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/blob"
	"github.com/jpl-au/quill/internal/diff"
	"github.com/jpl-au/quill/internal/lock"
	"github.com/jpl-au/quill/internal/section"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/jpl-au/quill/internal/textstat"
	"github.com/jpl-au/quill/internal/validate"
)

const (
	// deleteConcurrency bounds parallel blob deletes.
	deleteConcurrency = 8

	// abandonAfter is how many operation timeouts an uncommitted version
	// blob must age before another writer may reclaim its key.
	abandonAfter = 2
)

// Create allocates a document and writes version 1.
func (s *Service) Create(ctx context.Context, opts service.CreateOptions) (*service.DocumentWithContent, error) {
	if err := validate.User(opts.UserID); err != nil {
		return nil, err
	}
	if err := validate.Content(opts.Content, s.opts.MaxContent); err != nil {
		return nil, err
	}
	title := opts.Title
	if title == "" {
		title, _ = section.Title(section.Parse(opts.Content))
	}
	if err := validate.Title(title); err != nil {
		return nil, err
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()

	now := s.now().Unix()
	doc := &store.Document{
		ID:        uuid.NewString(),
		ChatID:    opts.ChatID,
		UserID:    opts.UserID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.StorageKey = blob.DocumentKey(doc.UserID, doc.ID)

	desc := opts.ChangeDescription
	if desc == "" {
		desc = "Created document"
	}
	v := s.newVersion(doc, 1, "", opts.Content, desc, authorOr(opts.CreatedBy, store.AuthorUser), now)
	doc.CurrentVersionID = v.ID
	doc.ContentPreview = v.ContentPreview
	doc.WordCount = v.WordCount

	if err := s.createVersionBlob(ctx, doc, v, opts.Content); err != nil {
		return nil, err
	}
	if err := s.store.CreateDocument(ctx, doc, v); err != nil {
		s.discardVersionBlob(ctx, v, err)
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.putCurrentBlob(ctx, doc, v, opts.Content)

	s.fireEvent(extension.DocumentWriteEvent{
		DocumentID:    doc.ID,
		UserID:        doc.UserID,
		VersionID:     v.ID,
		VersionNumber: v.VersionNumber,
		CreatedBy:     v.CreatedBy,
		Description:   v.ChangeDescription,
	})
	return &service.DocumentWithContent{Document: *doc, Content: opts.Content, VersionNumber: 1}, nil
}

// Update writes content as the next version of the document.
func (s *Service) Update(ctx context.Context, documentID, userID, content string, opts service.UpdateOptions) (*service.DocumentWithContent, error) {
	return s.Edit(ctx, documentID, userID, func(string) (string, error) {
		return content, nil
	}, opts)
}

// Edit applies fn to the current content under the document's lock and
// writes the result as the next version.
func (s *Service) Edit(ctx context.Context, documentID, userID string, fn service.EditFunc, opts service.UpdateOptions) (*service.DocumentWithContent, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	res, err := s.modify(ctx, documentID, userID, fn, opts)
	if err != nil {
		return nil, err
	}
	s.fireEvent(extension.DocumentWriteEvent{
		DocumentID:    res.ID,
		UserID:        res.UserID,
		VersionID:     res.CurrentVersionID,
		VersionNumber: res.VersionNumber,
		CreatedBy:     authorOr(opts.CreatedBy, store.AuthorUser),
		Description:   opts.ChangeDescription,
	})
	return res, nil
}

// RestoreVersion writes the content of versionID as a new version of its
// document, described as "Restored from version N" and attributed to the
// user. Versions after the restored one are kept.
func (s *Service) RestoreVersion(ctx context.Context, versionID, userID string) (*service.DocumentWithContent, error) {
	if err := validate.ID("version", versionID); err != nil {
		return nil, err
	}
	if err := validate.User(userID); err != nil {
		return nil, err
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()

	v, err := s.store.Version(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("get version %s: %w", versionID, err)
	}
	// Ownership is checked through the parent before any content is read.
	if _, err := s.store.Document(ctx, v.DocumentID, userID); err != nil {
		return nil, fmt.Errorf("get version %s: %w", versionID, err)
	}
	obj, err := blob.GetVersion(ctx, s.blobs, v.StorageKey, v.ID)
	if err != nil {
		return nil, fmt.Errorf("read version %d content: %w", v.VersionNumber, err)
	}

	res, err := s.modify(ctx, v.DocumentID, userID, func(string) (string, error) {
		return obj.Content, nil
	}, service.UpdateOptions{
		ChangeDescription: fmt.Sprintf("Restored from version %d", v.VersionNumber),
		CreatedBy:         store.AuthorUser,
	})
	if err != nil {
		return nil, err
	}

	s.fireEvent(extension.DocumentRestoreEvent{
		DocumentID:    res.ID,
		UserID:        userID,
		FromVersion:   v.VersionNumber,
		VersionID:     res.CurrentVersionID,
		VersionNumber: res.VersionNumber,
	})
	return res, nil
}

// Delete removes every blob of the document, then its metadata rows.
// Blob failures are logged and do not stop the rows being deleted; an
// orphaned blob is unreachable once its row is gone.
func (s *Service) Delete(ctx context.Context, documentID, userID string) error {
	if err := validate.ID("document", documentID); err != nil {
		return err
	}
	if err := validate.User(userID); err != nil {
		return err
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()

	unlock, err := s.locks.Lock(ctx, lock.DocumentKey(documentID))
	if err != nil {
		return fmt.Errorf("lock document %s: %w", documentID, err)
	}
	defer s.release(unlock, documentID)

	doc, err := s.store.Document(ctx, documentID, userID)
	if err != nil {
		return fmt.Errorf("get document %s: %w", documentID, err)
	}
	versions, err := s.store.Versions(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("list versions of %s: %w", documentID, err)
	}

	keys := make([]string, 0, len(versions)+1)
	keys = append(keys, doc.StorageKey)
	for _, v := range versions {
		keys = append(keys, v.StorageKey)
	}
	s.deleteBlobs(ctx, doc.ID, keys)

	if err := s.store.DeleteDocument(ctx, doc.ID, userID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}

	s.fireEvent(extension.DocumentDeleteEvent{
		DocumentID: doc.ID,
		UserID:     userID,
		Versions:   len(versions),
	})
	return nil
}

// modify is the locked read-modify-write shared by Edit and RestoreVersion.
// The caller has already bounded ctx.
func (s *Service) modify(ctx context.Context, documentID, userID string, fn service.EditFunc, opts service.UpdateOptions) (*service.DocumentWithContent, error) {
	if err := validate.ID("document", documentID); err != nil {
		return nil, err
	}
	if err := validate.User(userID); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, lock.DocumentKey(documentID))
	if err != nil {
		return nil, fmt.Errorf("lock document %s: %w", documentID, err)
	}
	defer s.release(unlock, documentID)

	doc, err := s.store.Document(ctx, documentID, userID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}
	if opts.BaseVersionID != "" && opts.BaseVersionID != doc.CurrentVersionID {
		return nil, fmt.Errorf("%w: document %s is at version %s, not %s",
			store.ErrConflict, documentID, doc.CurrentVersionID, opts.BaseVersionID)
	}

	current, number, err := s.content(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", documentID, err)
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, doc, current, next, number+1, opts)
}

// commit writes next as version number of doc.
func (s *Service) commit(ctx context.Context, doc *store.Document, current, next string, number int, opts service.UpdateOptions) (*service.DocumentWithContent, error) {
	if err := validate.Content(next, s.opts.MaxContent); err != nil {
		return nil, err
	}

	updated := *doc
	switch {
	case opts.Title != nil:
		if err := validate.Title(*opts.Title); err != nil {
			return nil, err
		}
		updated.Title = *opts.Title
	case updated.Title == "":
		updated.Title, _ = section.Title(section.Parse(next))
	}

	desc := opts.ChangeDescription
	if desc == "" {
		desc = fmt.Sprintf("Version %d", number)
	}

	now := s.now().Unix()
	v := s.newVersion(&updated, number, current, next, desc, authorOr(opts.CreatedBy, store.AuthorUser), now)
	updated.ContentPreview = v.ContentPreview
	updated.WordCount = v.WordCount
	updated.UpdatedAt = now

	if err := s.createVersionBlob(ctx, &updated, v, next); err != nil {
		return nil, err
	}
	if err := s.store.AppendVersion(ctx, &updated, v, doc.CurrentVersionID); err != nil {
		s.discardVersionBlob(ctx, v, err)
		return nil, fmt.Errorf("append version %d to %s: %w", number, doc.ID, err)
	}
	s.putCurrentBlob(ctx, &updated, v, next)
	return &service.DocumentWithContent{Document: updated, Content: next, VersionNumber: number}, nil
}

// newVersion derives a version row from content. The diff is against the
// previous content.
func (s *Service) newVersion(doc *store.Document, number int, previous, content, desc string, by store.Author, now int64) *store.Version {
	return &store.Version{
		ID:                uuid.NewString(),
		DocumentID:        doc.ID,
		VersionNumber:     number,
		StorageKey:        blob.VersionKey(doc.UserID, doc.ID, number),
		ContentPreview:    textstat.Preview(content, s.opts.PreviewLength),
		ChangeDescription: desc,
		Diff:              diff.RenderHTML(diff.Compute(previous, content)),
		WordCount:         textstat.Words(content),
		CreatedBy:         by,
		CreatedAt:         now,
	}
}

// createVersionBlob writes the full version record at its key. The key is
// taken if another writer got to version n first, or if a writer died
// between this step and its commit. Only the second is reclaimed, and only
// once it is old enough that its writer's operation has timed out.
func (s *Service) createVersionBlob(ctx context.Context, doc *store.Document, v *store.Version, content string) error {
	obj := blob.VersionObject{
		VersionID:         v.ID,
		DocumentID:        doc.ID,
		VersionNumber:     v.VersionNumber,
		Content:           content,
		ChangeDescription: v.ChangeDescription,
		Diff:              v.Diff,
		WordCount:         v.WordCount,
		CreatedBy:         string(v.CreatedBy),
		Checksum:          blob.Checksum(content),
		CreatedAt:         v.CreatedAt,
	}
	err := blob.CreateJSON(ctx, s.blobs, v.StorageKey, obj)
	if err == nil {
		return nil
	}
	if !errors.Is(err, blob.ErrExists) {
		return fmt.Errorf("write version blob: %w", err)
	}

	conflict := fmt.Errorf("%w: version %d of %s is already written", store.ErrConflict, v.VersionNumber, doc.ID)
	prev, err := blob.GetVersion(ctx, s.blobs, v.StorageKey, "")
	if err != nil {
		return conflict
	}
	if time.Duration(v.CreatedAt-prev.CreatedAt)*time.Second < abandonAfter*s.opts.Timeout {
		return conflict
	}
	if _, err := s.store.Version(ctx, prev.VersionID); !errors.Is(err, store.ErrNotFound) {
		return conflict
	}
	s.logger.Warn("replacing abandoned version blob",
		"document", doc.ID, "version", v.VersionNumber, "abandoned", prev.VersionID)
	if err := blob.PutJSON(ctx, s.blobs, v.StorageKey, obj); err != nil {
		return fmt.Errorf("write version blob: %w", err)
	}
	return nil
}

// discardVersionBlob removes the blob of a version whose commit was
// refused. Other commit errors leave it: the commit may have landed.
func (s *Service) discardVersionBlob(ctx context.Context, v *store.Version, commitErr error) {
	if !errors.Is(commitErr, store.ErrConflict) {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), v.StorageKey); err != nil {
		s.logger.Warn("discard version blob", "document", v.DocumentID, "version", v.VersionNumber, "error", err)
	}
}

// putCurrentBlob replaces the document's current blob after a commit. A
// failure is logged only: readers fall back to the version blob.
func (s *Service) putCurrentBlob(ctx context.Context, doc *store.Document, v *store.Version, content string) {
	err := blob.PutJSON(ctx, s.blobs, doc.StorageKey, blob.DocumentObject{
		DocumentID:    doc.ID,
		VersionID:     v.ID,
		VersionNumber: v.VersionNumber,
		Title:         doc.Title,
		Content:       content,
		WordCount:     v.WordCount,
		Checksum:      blob.Checksum(content),
		UpdatedAt:     v.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("write document blob", "document", doc.ID, "version", v.VersionNumber, "error", err)
	}
}

// deleteBlobs removes keys concurrently, logging each failure.
func (s *Service) deleteBlobs(ctx context.Context, documentID string, keys []string) {
	var g errgroup.Group
	g.SetLimit(deleteConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.logger.Warn("delete blob", "document", documentID, "key", key, "error", err)
				return err
			}
			return nil
		})
	}
	// Failures were logged above; the rows are deleted regardless.
	_ = g.Wait()
}

// release unlocks a document, logging rather than failing: the write has
// already committed, and a Redis lease expires on its own.
func (s *Service) release(unlock lock.Unlock, documentID string) {
	if err := unlock(); err != nil {
		s.logger.Warn("release document lock", "document", documentID, "error", err)
	}
}

func authorOr(a, def store.Author) store.Author {
	if a == "" {
		return def
	}
	return a
}
