// Package blob stores full document content as opaque objects addressed by
// key. The relational store only holds metadata and the keys that point
// here.
//
// Three backends implement Store: a local directory (the default), an
// S3-compatible bucket via minio-go, and an in-memory map for tests.
package blob

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when no object exists at the key.
	ErrNotFound = errors.New("blob not found")

	// ErrExists is returned by Create when an object already exists at
	// the key.
	ErrExists = errors.New("blob already exists")
)

// Store is a key/value object store.
type Store interface {
	// Put writes data at key, replacing any existing object atomically.
	Put(ctx context.Context, key string, data []byte) error

	// Create writes data at key only if no object exists there. Returns
	// ErrExists otherwise. Immutable objects are written with Create.
	Create(ctx context.Context, key string, data []byte) error

	// Get reads the object at key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object at key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFS     Backend = "fs"
	BackendS3     Backend = "s3"
	BackendMemory Backend = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend Backend
	Dir     string // BackendFS root directory
	S3      S3Options
}

// Open returns the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFS, "":
		return NewFSStore(opts.Dir)
	case BackendS3:
		return NewS3Store(ctx, opts.S3)
	case BackendMemory:
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", opts.Backend)
	}
}
