// checkpoint.go implements WAL checkpoint operations for SQLite.
//
// Checkpoints are called on graceful shutdown. Postgres manages its own
// write-ahead log, so Checkpoint is a no-op there.

package store

import (
	"context"
	"fmt"
)

// Checkpoint writes all WAL data back to the main database file and truncates
// the WAL. This removes the -wal and -shm files from the filesystem.
func (s *SQLStore) Checkpoint(ctx context.Context) error {
	if s.driver != SQLite {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}
