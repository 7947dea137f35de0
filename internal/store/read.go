// read.go implements document and version retrieval.
//
// These operations never modify data. Document lookups always filter on
// user_id; version lookups are keyed by id or document and rely on the
// caller having resolved the parent document for the user first.

package store

import (
	"context"
	"fmt"
)

const documentColumns = `id, chat_id, user_id, title, current_version_id, storage_key,
	content_preview, word_count, created_at, updated_at`

const versionColumns = `id, document_id, version_number, storage_key, content_preview,
	change_description, diff, word_count, created_by, created_at`

func scanDocument(sc scanner) (Document, error) {
	var d Document
	err := sc.Scan(&d.ID, &d.ChatID, &d.UserID, &d.Title, &d.CurrentVersionID, &d.StorageKey,
		&d.ContentPreview, &d.WordCount, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func scanVersion(sc scanner) (Version, error) {
	var v Version
	var by string
	err := sc.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &v.StorageKey, &v.ContentPreview,
		&v.ChangeDescription, &v.Diff, &v.WordCount, &by, &v.CreatedAt)
	v.CreatedBy = Author(by)
	return v, err
}

// Document returns the document if userID owns it.
func (s *SQLStore) Document(ctx context.Context, id, userID string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+documentColumns+`
		FROM documents WHERE id = ? AND user_id = ?`), id, userID)
	d, err := scanDocument(row)
	if err != nil {
		return nil, notFound(err, "scan document")
	}
	return &d, nil
}

// Documents lists a user's documents, most recently updated first.
func (s *SQLStore) Documents(ctx context.Context, userID, chatID string) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = ?`
	args := []any{userID}
	if chatID != "" {
		query += ` AND chat_id = ?`
		args = append(args, chatID)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Version returns a version by id.
func (s *SQLStore) Version(ctx context.Context, id string) (*Version, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+versionColumns+` FROM versions WHERE id = ?`), id)
	v, err := scanVersion(row)
	if err != nil {
		return nil, notFound(err, "scan version")
	}
	return &v, nil
}

// VersionByNumber returns a document's version by its number.
func (s *SQLStore) VersionByNumber(ctx context.Context, documentID string, number int) (*Version, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+versionColumns+`
		FROM versions WHERE document_id = ? AND version_number = ?`), documentID, number)
	v, err := scanVersion(row)
	if err != nil {
		return nil, notFound(err, "scan version")
	}
	return &v, nil
}

// Versions returns a document's versions, newest first.
func (s *SQLStore) Versions(ctx context.Context, documentID string) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+versionColumns+`
		FROM versions WHERE document_id = ? ORDER BY version_number DESC`), documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
