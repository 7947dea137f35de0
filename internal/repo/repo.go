// Package repo provides workspace initialisation and discovery for quill.
//
// A quill workspace is a .quill directory holding the default SQLite
// metadata database (quill.db), the filesystem blob store (blobs/) and an
// optional local config.yaml. Postgres and S3 deployments need no workspace;
// their locations come from configuration instead.
//
// Discovery mirrors git: starting from the current directory, walk up until a
// .quill directory containing the database is found, or the filesystem root
// is reached.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/store"
)

const (
	// DBFile is the SQLite metadata database filename.
	DBFile = "quill.db"
	// BlobDir is the filesystem blob store directory.
	BlobDir = "blobs"
)

// ErrNotInitialised is returned when no quill workspace is found.
var ErrNotInitialised = errors.New("quill not initialised (run 'quill init')")

// Init creates a workspace under dir (the current directory when empty):
// the .quill directory, an initialised quill.db, the blob directory and a
// .gitignore. With local, the database and blobs are gitignored so documents
// stay on this machine.
//
// Init does not write config. That is managed separately via "quill config".
func Init(ctx context.Context, force, local bool, dir string) error {
	if dir == "" {
		dir = "."
	}
	root := filepath.Join(dir, config.Dir)
	dbPath := filepath.Join(root, DBFile)

	if _, err := os.Stat(dbPath); err == nil {
		if !force {
			return fmt.Errorf("workspace %s already exists (use --force to reinitialise)", root)
		}
		for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove database: %w", err)
			}
		}
		if err := os.RemoveAll(filepath.Join(root, BlobDir)); err != nil {
			return fmt.Errorf("remove blobs: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Join(root, BlobDir), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	s, err := store.Open(ctx, store.SQLite, dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	if err := s.Init(); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	// Only write .gitignore on first init so custom entries survive --force.
	gitignore := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignore); os.IsNotExist(err) {
		s := `# quill - ignore local config and secrets
config.yaml
.env
`
		if err := os.WriteFile(gitignore, []byte(s), 0644); err != nil {
			return fmt.Errorf("write gitignore: %w", err)
		}
	}

	if local {
		if err := Ignore(root); err != nil {
			return fmt.Errorf("ignore workspace data: %w", err)
		}
	}
	return nil
}

// Discover walks up the directory tree looking for .quill/quill.db and
// returns its full path.
func Discover() (string, error) {
	dir, err := DiscoverDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DBFile), nil
}

// DiscoverDir finds the .quill directory that holds a database, walking up
// the tree. A bare .quill holding only config (such as ~/.quill) is skipped.
func DiscoverDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		root := filepath.Join(dir, config.Dir)
		if _, err := os.Stat(filepath.Join(root, DBFile)); err == nil {
			return root, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotInitialised
		}
		dir = parent
	}
}
