// Package log provides the audit trail for quill operations.
// Entries are stored in ~/.quill/log/quill-log.db and record every CLI
// command and MCP tool invocation across workspaces.
//
// This is separate from operational logging (log/slog): the audit trail is
// queryable history of who changed which document, not diagnostics.
//
// # Fluent API
//
// Use the fluent builder API to construct and write log entries:
//
//	log.Event("document:cat", "read").
//		Author(cmd.User()).
//		Document(id).
//		Version(n).
//		Write(err)
//
//	log.Event("mcp:quill_batch_edit", "edit").
//		Author(userID).
//		Document(id).
//		Detail("applied", len(res.Applied)).
//		Write(err)
//
// The source follows "{extension}:{command}" for CLI commands or
// "mcp:{tool}" for MCP tools.
package log

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single log entry.
type Entry struct {
	Source   string // e.g. "document:cat", "mcp:quill_read"
	Author   string // user id the operation ran as
	Action   string // verb: read, write, edit, delete, restore, ...
	Document string // input: document id
	Version  int    // input: version number requested

	// Output, populated after the operation succeeds
	ResultVersion int // version created or accessed

	Start int64 // unix timestamp when Event() called
	End   int64 // unix timestamp when Write() called

	Success bool
	Error   string
	Detail  map[string]any
}

// Builder constructs a log entry using a fluent API.
// Create with [Event], chain methods to set fields, then call [Builder.Write].
type Builder struct {
	entry Entry
}

// Event creates a new log entry builder for an operation.
//
// The source identifies where the operation originated:
//   - CLI commands: "{extension}:{command}" (e.g. "document:cat", "edit:batch")
//   - MCP tools: "mcp:{tool}" (e.g. "mcp:quill_replace_content")
//
// The action describes what was done: "read", "write", "edit", "delete",
// "restore", "list", "plan", etc.
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().Unix(),
		},
	}
}

// Author sets who performed the operation: the user id for both CLI and
// MCP calls.
func (b *Builder) Author(author string) *Builder {
	b.entry.Author = author
	return b
}

// Document sets the document id this operation affects. Leave unset for
// operations that don't target a document (e.g. config).
func (b *Builder) Document(id string) *Builder {
	b.entry.Document = id
	return b
}

// Version sets the version number the caller asked for.
func (b *Builder) Version(version int) *Builder {
	b.entry.Version = version
	return b
}

// ResultVersion sets the version that resulted from the operation.
//
// For writes: the new version created.
// For reads: the version that was actually returned.
func (b *Builder) ResultVersion(version int) *Builder {
	b.entry.ResultVersion = version
	return b
}

// Detail adds a key-value pair to the log entry's detail map.
//
// Use for operation-specific data that doesn't fit the standard fields:
// edit counts, plan ids, version ranges. Can be called repeatedly.
//
//	log.Event("edit:citations", "edit").
//		Detail("citations", res.CitationsRemoved).
//		Detail("references", res.ReferencesRemoved)
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// Write writes the log entry, deriving success from err.
//
//	doc, err := svc.Get(ctx, id, user)
//	log.Event("document:cat", "read").Document(id).Write(err)
//	if err != nil {
//		return err
//	}
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().Unix()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
	}
	Log(b.entry)
}

// Open initialises the global logger. Safe to call multiple times.
// Errors are returned but callers may ignore them (best-effort logging).
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	p := dbPath()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return err
	}

	global = &Logger{db: db}
	return nil
}

// SetProject sets the workspace identifier for subsequent entries. Pass the
// absolute .quill directory, or the store DSN for server deployments.
func SetProject(id string) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.project = hash(id)
	}
}

// Log writes an entry. Safe to call if the logger is not initialised (no-op).
func Log(e Entry) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l == nil {
		return
	}
	l.log(e)
}

// Close closes the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.db.Close()
		global = nil
	}
}
