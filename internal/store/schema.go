// schema.go embeds the database schema and provides schema execution helpers.
//
// Schema files live under sql/<driver>/ and are executed in alphabetical
// order (hence the numeric prefixes like 001_, 002_). Each file uses
// IF NOT EXISTS so Init is safe to repeat.

package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed sql/sqlite/*.sql sql/postgres/*.sql
var schemas embed.FS

var (
	// ErrNotFound indicates the requested document, version or plan does not
	// exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a concurrent writer advanced the document first,
	// or the version number was already taken.
	ErrConflict = errors.New("version conflict")
)

// ExecEmbedded executes all .sql files from an embedded filesystem in alphabetical order.
// The dir parameter specifies the directory within the embed.FS to read from.
func ExecEmbedded(db *sql.DB, fsys embed.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read schema directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := dir + "/" + entry.Name()
		data, err := fsys.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if _, err := db.Exec(string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// execSchema executes the embedded schema files for the store's driver.
func (s *SQLStore) execSchema() error {
	return ExecEmbedded(s.db, schemas, "sql/"+string(s.driver))
}
