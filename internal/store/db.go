// db.go provides connection management and low-level operations shared by
// both SQL drivers.
//
// SQLite (modernc, pure Go) is the default for local use. Postgres is reached
// through pgx's database/sql driver so both backends run the same queries.
// Queries are written with ? placeholders and rebound to $n for Postgres.
//
// SQLite runs in WAL mode with a busy timeout so readers (an MCP client)
// are not blocked by a concurrent writer (the CLI).

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Driver names a supported database backend.
type Driver string

const (
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

// Compile-time interface compliance check.
var _ Store = (*SQLStore)(nil)

// Open connects to the database identified by driver and dsn. For SQLite
// the dsn is a file path. The caller should call Close on the returned store.
func Open(ctx context.Context, driver Driver, dsn string) (*SQLStore, error) {
	switch driver {
	case SQLite:
		return OpenSQLite(dsn)
	case Postgres:
		return openPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// OpenSQLite opens the SQLite database file at path.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	pragmas := []struct{ stmt, what string }{
		{`PRAGMA journal_mode=WAL`, "setting WAL mode"},
		{`PRAGMA busy_timeout=5000`, "setting busy timeout"},
		{`PRAGMA synchronous=NORMAL`, "setting synchronous mode"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}

	return &SQLStore{db: db, driver: SQLite}, nil
}

func openPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &SQLStore{db: db, driver: Postgres}, nil
}

// Init creates tables and indexes if they don't exist.
func (s *SQLStore) Init() error {
	return s.execSchema()
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Driver reports which backend the store is connected to.
func (s *SQLStore) Driver() Driver {
	return s.driver
}

// q rebinds ? placeholders for the store's driver.
func (s *SQLStore) q(query string) string {
	if s.driver != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// scanner abstracts sql.Row and sql.Rows, enabling a single scan function
// to handle both single-row and multi-row queries.
type scanner interface {
	Scan(dest ...any) error
}

// notFound converts sql.ErrNoRows to ErrNotFound for consistent error handling.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

// isUniqueViolation reports whether err is a unique or primary key
// constraint failure on either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

// Tx executes fn within a database transaction, handling Begin/Commit/Rollback
// automatically. If fn returns an error the transaction is rolled back;
// otherwise it is committed. Context cancellation aborts the transaction at
// the next database call.
//
//	err := s.Tx(ctx, func(tx *sql.Tx) error {
//	    if _, err := tx.ExecContext(ctx, s.q(`UPDATE ...`)); err != nil {
//	        return err  // triggers rollback
//	    }
//	    return nil  // triggers commit
//	})
func (s *SQLStore) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
