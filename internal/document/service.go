// Package document implements the versioned document store. A Service
// combines three backends:
//   - a relational store.Store holding document and version metadata
//   - a blob.Store holding full content for the current document and every
//     version
//   - a lock.Locker serialising writers to the same document
//
// Every mutation produces an immutable version. Content is written to blobs
// before the metadata transaction advances the document pointer, so a
// failure part way through leaves orphaned blobs at worst, never a pointer
// to content that was not written.
package document

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/blob"
	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/lock"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/repo"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/jpl-au/quill/internal/textstat"
)

// Options tunes a Service. Zero values take defaults.
type Options struct {
	Timeout       time.Duration // bound on each operation's storage calls
	PreviewLength int           // runes kept in content previews
	MaxContent    int64         // largest accepted content in bytes
}

// Service provides document operations over a metadata store, a blob store
// and a per-document lock.
type Service struct {
	store  store.Store
	blobs  blob.Store
	locks  lock.Locker
	logger *slog.Logger
	opts   Options
	now    func() time.Time
	extCtx extension.Context // for firing events to extensions
}

// Compile-time interface compliance check.
var _ service.Service = (*Service)(nil)

// New creates a Service from already opened backends. The Service takes
// ownership of st and closes it (and locks, if it is an io.Closer) on Close.
func New(st store.Store, blobs blob.Store, locks lock.Locker, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = textstat.DefaultPreviewLength
	}
	if opts.MaxContent <= 0 {
		opts.MaxContent = config.DefaultMaxContent
	}
	return &Service{
		store:  st,
		blobs:  blobs,
		locks:  locks,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Open builds a Service from configuration.
//
// With the default sqlite driver and no DSN, the database is discovered by
// walking up from the working directory to .quill/quill.db, and the fs blob
// backend defaults to .quill/blobs beside it. Returns repo.ErrNotInitialised
// if no workspace is found and one is needed.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	st, root, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := openBlobs(ctx, cfg, root)
	if err != nil {
		st.Close()
		return nil, err
	}

	locks, err := openLocks(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	return New(st, blobs, locks, logger, Options{
		Timeout:       cfg.Timeout(),
		PreviewLength: cfg.PreviewLength(),
		MaxContent:    cfg.MaxContent(),
	}), nil
}

// openStore opens the metadata store and returns the workspace directory
// used for defaults ("" when none applies).
func openStore(ctx context.Context, cfg *config.Config) (*store.SQLStore, string, error) {
	driver := store.Driver(cfg.StoreDriver())
	dsn := cfg.Store.DSN
	root := ""

	if driver == store.SQLite && dsn == "" {
		p, err := repo.Discover()
		if err != nil {
			return nil, "", err
		}
		dsn, root = p, filepath.Dir(p)
	}

	st, err := store.Open(ctx, driver, dsn)
	if err != nil {
		return nil, "", err
	}
	// Postgres deployments may start from an empty database; sqlite was
	// initialised by "quill init" but Init is idempotent either way.
	if err := st.Init(); err != nil {
		st.Close()
		return nil, "", fmt.Errorf("init store: %w", err)
	}
	return st, root, nil
}

func openBlobs(ctx context.Context, cfg *config.Config, root string) (blob.Store, error) {
	opts := blob.Options{
		Backend: blob.Backend(cfg.BlobBackend()),
		Dir:     cfg.Blob.Dir,
		S3: blob.S3Options{
			Endpoint:  cfg.Blob.S3.Endpoint,
			Bucket:    cfg.Blob.S3.Bucket,
			AccessKey: cfg.Blob.S3.AccessKey,
			SecretKey: cfg.Blob.S3.SecretKey,
			Region:    cfg.S3Region(),
			UseSSL:    cfg.S3UseSSL(),
		},
	}
	if opts.Backend == blob.BackendFS && opts.Dir == "" {
		if root == "" {
			dir, err := repo.DiscoverDir()
			if err != nil {
				return nil, fmt.Errorf("blob directory: %w", err)
			}
			root = dir
		}
		opts.Dir = filepath.Join(root, repo.BlobDir)
	}
	return blob.Open(ctx, opts)
}

func openLocks(cfg *config.Config) (lock.Locker, error) {
	if cfg.LockBackend() == "redis" {
		r, err := lock.NewRedis(cfg.Lock.RedisURL, cfg.LockTTL())
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return lock.NewLocal(), nil
}

// Close checkpoints the WAL and closes the metadata store and lock backend.
func (s *Service) Close() error {
	if err := s.store.Checkpoint(context.Background()); err != nil {
		log.Event("service:close", "checkpoint").
			Detail("error", err.Error()).
			Write(err)
	}
	if c, ok := s.locks.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("close lock backend", "error", err)
		}
	}
	return s.store.Close()
}

// SetExtensionContext sets the extension context for firing events.
// Called from cmd/root.go after creating the context.
func (s *Service) SetExtensionContext(ctx extension.Context) {
	s.extCtx = ctx
}

// Store returns the metadata store, which the plan service shares.
func (s *Service) Store() store.Store {
	return s.store
}

// DB returns the underlying database connection for extensions.
func (s *Service) DB() *sql.DB {
	return s.store.DB()
}

// timeout bounds an operation's storage calls.
func (s *Service) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.Timeout)
}

// fireEvent notifies all registered extension event handlers.
//
// Handler errors are logged but not propagated: events are notifications,
// not veto points. extension.All returns a snapshot, and extensions are only
// registered during init, so iteration is safe.
func (s *Service) fireEvent(e extension.Event) {
	if s.extCtx == nil {
		return
	}
	for _, ext := range extension.All() {
		if h, ok := ext.(extension.EventHandler); ok {
			if err := h.HandleEvent(s.extCtx, e); err != nil {
				log.Event("event:error", "error").
					Detail("ext", ext.Name()).
					Detail("event", string(e.EventType())).
					Write(err)
			}
		}
	}
}
