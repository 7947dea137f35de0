// write.go implements document creation, versioning and removal.
//
// Versions are append-only. A new version and the document pointer that
// names it are written in one transaction, so the pointer never refers to a
// version row that does not exist. The UNIQUE(document_id, version_number)
// constraint and the current_version_id compare-and-swap turn concurrent
// writers into ErrConflict rather than silently interleaved history.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateDocument inserts a document and its first version atomically.
func (s *SQLStore) CreateDocument(ctx context.Context, d *Document, v *Version) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO documents (`+documentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			d.ID, d.ChatID, d.UserID, d.Title, d.CurrentVersionID, d.StorageKey,
			d.ContentPreview, d.WordCount, d.CreatedAt, d.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: document %s exists", ErrConflict, d.ID)
			}
			return fmt.Errorf("insert document: %w", err)
		}
		return s.insertVersion(ctx, tx, v)
	})
}

// AppendVersion inserts v and advances d to it. The update only matches
// while the row still points at baseVersionID.
func (s *SQLStore) AppendVersion(ctx context.Context, d *Document, v *Version, baseVersionID string) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`UPDATE documents
			SET title = ?, current_version_id = ?, content_preview = ?, word_count = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND current_version_id = ?`),
			d.Title, v.ID, d.ContentPreview, d.WordCount, d.UpdatedAt,
			d.ID, d.UserID, baseVersionID)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if n == 0 {
			var current string
			err := tx.QueryRowContext(ctx, s.q(`SELECT current_version_id FROM documents
				WHERE id = ? AND user_id = ?`), d.ID, d.UserID).Scan(&current)
			if err != nil {
				return notFound(err, "get current version")
			}
			return fmt.Errorf("%w: document %s is at version %s, not %s", ErrConflict, d.ID, current, baseVersionID)
		}

		if err := s.insertVersion(ctx, tx, v); err != nil {
			return err
		}
		d.CurrentVersionID = v.ID
		return nil
	})
}

func (s *SQLStore) insertVersion(ctx context.Context, tx *sql.Tx, v *Version) error {
	_, err := tx.ExecContext(ctx, s.q(`INSERT INTO versions (`+versionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		v.ID, v.DocumentID, v.VersionNumber, v.StorageKey, v.ContentPreview,
		v.ChangeDescription, v.Diff, v.WordCount, string(v.CreatedBy), v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: version %d of %s already exists", ErrConflict, v.VersionNumber, v.DocumentID)
		}
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

// DeleteDocument removes a document and all of its versions. Versions are
// deleted explicitly; SQLite does not enforce the cascade by default.
// Returns ErrNotFound if the document doesn't exist or isn't the user's.
func (s *SQLStore) DeleteDocument(ctx context.Context, id, userID string) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		var owner string
		err := tx.QueryRowContext(ctx, s.q(`SELECT user_id FROM documents WHERE id = ? AND user_id = ?`),
			id, userID).Scan(&owner)
		if err != nil {
			return notFound(err, "get document")
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM versions WHERE document_id = ?`), id); err != nil {
			return fmt.Errorf("delete versions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM documents WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return nil
	})
}
