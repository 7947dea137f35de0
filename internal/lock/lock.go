// Package lock serialises read-modify-write cycles on a single document.
//
// Two backends implement Locker: Local, an in-process keyed mutex for the
// CLI and a single MCP server, and Redis, a lease shared by every process
// pointed at the same Redis instance.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the context ends before the lock is held.
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func() error

// Locker acquires exclusive locks by key.
type Locker interface {
	// Lock blocks until key is held or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

// DocumentKey is the lock key for a document.
func DocumentKey(documentID string) string {
	return "document:" + documentID
}
