// Package wire provides dependency injection for the formbuilder application.
// It builds the repository adapters and services from the loaded configuration.
package wire

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	cliadapter "github.com/example/formbuilder/internal/adapters/cli"
	"github.com/example/formbuilder/internal/adapters/graphql"
	"github.com/example/formbuilder/internal/adapters/httpapi"
	"github.com/example/formbuilder/internal/adapters/sqlite"
	"github.com/example/formbuilder/internal/app"
	"github.com/example/formbuilder/internal/config"
	"github.com/example/formbuilder/internal/core/fieldtype"
	"github.com/example/formbuilder/internal/db"
	"github.com/example/formbuilder/internal/ports/primary"
	"github.com/example/formbuilder/internal/ports/secondary"
)

// Session lifetimes for the HTTP API.
const (
	SessionMaxAge      = 8 * time.Hour
	SessionIdleTimeout = 30 * time.Minute
)

// Container holds the services built from one configuration.
type Container struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *fieldtype.Registry
	database *sql.DB
	content  secondary.ContentRepository
	changes  secondary.ChangeLog
}

// New builds a Container. The change log always lives in the local sqlite
// database, whichever backend serves content.
func New(cfg *config.Config, logOutput io.Writer) (*Container, error) {
	logger, err := NewLogger(cfg.LogLevel, logOutput)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Repository.Path
	if dbPath == "" {
		if dbPath, err = config.DefaultDatabasePath(); err != nil {
			return nil, err
		}
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c := &Container{
		cfg:      cfg,
		logger:   logger,
		registry: fieldtype.Default(),
		database: database,
		changes:  sqlite.NewChangeLogRepository(database),
	}

	switch cfg.Repository.Backend {
	case config.BackendGraphQL:
		opts := []graphql.Option{graphql.WithLogger(logger)}
		if cfg.Repository.Token != "" {
			opts = append(opts, graphql.WithHeader("Authorization", "Bearer "+cfg.Repository.Token))
		}
		c.content = graphql.NewContentRepository(graphql.NewClient(cfg.Repository.Endpoint, opts...))
	default:
		c.content = sqlite.NewContentRepository(database)
	}

	logger.Debug("services initialized", "backend", cfg.Repository.Backend, "database", dbPath)
	return c, nil
}

// NewLogger builds the text logger used across the application.
func NewLogger(level string, out io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})), nil
}

// Close releases the database.
func (c *Container) Close() error {
	return c.database.Close()
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config { return c.cfg }

// Logger returns the application logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Registry returns the field type registry.
func (c *Container) Registry() *fieldtype.Registry { return c.registry }

// Database returns the local sqlite database.
func (c *Container) Database() *sql.DB { return c.database }

func (c *Container) serviceOptions() []app.SessionOption {
	return []app.SessionOption{app.WithLogger(c.logger), app.WithChangeLog(c.changes)}
}

// NewEditor returns a fresh editing session.
func (c *Container) NewEditor() *app.EditorSession {
	return app.NewEditorSession(c.content, c.registry, c.cfg.Session, c.serviceOptions()...)
}

// Catalog returns the form catalog service.
func (c *Container) Catalog() primary.FormCatalog {
	return app.NewFormCatalogService(c.content, c.registry, c.cfg.Session, c.serviceOptions()...)
}

// SessionManager returns a manager handing out editing sessions to remote clients.
func (c *Container) SessionManager() *app.SessionManager {
	return app.NewSessionManager(c.NewEditor, SessionMaxAge, SessionIdleTimeout)
}

// HTTPServer returns the HTTP API over sessions.
func (c *Container) HTTPServer(sessions *app.SessionManager) *httpapi.Server {
	return httpapi.NewServer(sessions, c.Catalog(), c.registry, c.logger)
}

// FormAdapter returns a new FormAdapter writing to out.
// Each call creates a new adapter (adapters are stateless translators).
func (c *Container) FormAdapter(out io.Writer) *cliadapter.FormAdapter {
	return cliadapter.NewFormAdapter(c.Catalog(), out)
}

// EditorAdapter returns a new EditorAdapter over a fresh session, writing to out.
func (c *Container) EditorAdapter(out io.Writer) *cliadapter.EditorAdapter {
	return cliadapter.NewEditorAdapter(c.NewEditor(), c.registry, out)
}

var (
	defaultContainer *Container
	initErr          error
	once             sync.Once
	loadConfig       = func() (*config.Config, error) { return config.LoadConfig(".") }
	adjust           func(*config.Config)
)

// Configure registers a hook applied to the loaded configuration before the
// default container is built. It has no effect once Default has been called.
func Configure(fn func(*config.Config)) {
	adjust = fn
}

// Default returns the singleton Container, built on first use from the
// configuration in the working directory.
func Default() (*Container, error) {
	once.Do(initServices)
	return defaultContainer, initErr
}

// initServices is called once via sync.Once.
func initServices() {
	cfg, err := loadConfig()
	if err != nil {
		initErr = err
		return
	}
	if adjust != nil {
		adjust(cfg)
		cfg.Session = cfg.Session.Normalize()
	}
	defaultContainer, initErr = New(cfg, os.Stderr)
}
