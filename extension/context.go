// context.go defines the Context interface for extension access to quill
// internals.
//
// Separated from extension.go to isolate dependency injection concerns.
// The Context provides a controlled surface area for extensions: they can
// reach what they need without importing arbitrary internals. Extensions
// receive it during Init, after the services have been opened, which
// supports the two-phase pattern where extensions register in init() before
// any service exists.

package extension

import (
	"database/sql"
	"log/slog"

	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/service"
)

// Context provides extensions controlled access to quill internals.
type Context interface {
	// Service returns the document service.
	Service() service.Service

	// Plans returns the plan service.
	Plans() service.Plans

	// DB exposes the metadata database for extensions needing custom
	// tables. Extensions should create their own tables, not modify core
	// tables.
	DB() *sql.DB

	// Config returns the resolved configuration.
	Config() *config.Config

	// Logger returns the operational logger.
	Logger() *slog.Logger
}

// extContext implements Context.
type extContext struct {
	svc    service.Service
	plans  service.Plans
	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger
}

// NewContext creates a new extension context.
func NewContext(svc service.Service, plans service.Plans, db *sql.DB, cfg *config.Config, logger *slog.Logger) Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &extContext{
		svc:    svc,
		plans:  plans,
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (c *extContext) Service() service.Service { return c.svc }
func (c *extContext) Plans() service.Plans     { return c.plans }
func (c *extContext) DB() *sql.DB              { return c.db }
func (c *extContext) Config() *config.Config   { return c.cfg }
func (c *extContext) Logger() *slog.Logger     { return c.logger }
