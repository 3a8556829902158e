package container

import (
	"context"
	"fmt"

	"molintel/adapters/excel"
	"molintel/adapters/sqlstore"
	"molintel/internal"
	"molintel/internal/cache"
	"molintel/internal/config"
	"molintel/internal/dashboard"
	"molintel/internal/loader"
	"molintel/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure; DB is nil when compounds come from a file
	DB     *sqlx.DB
	Source ports.CompoundSource

	// Pipeline
	Loader    *loader.Loader
	Memo      *cache.Memo
	Dashboard *dashboard.Service

	// Watcher is set when DATA_FILE changes invalidate the memo
	Watcher *excel.FileWatcher

	logger *internal.Logger
}

// New creates the container. The database is not required to be reachable:
// a failed ping is logged and every pass reports the load diagnostic until
// it recovers.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	internal.DefaultLogger.SetLevel(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{
		Config: cfg,
		logger: internal.DefaultLogger.With("Container"),
	}

	if err := c.initSource(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize compound source: %w", err)
	}
	c.initPipeline()
	if err := c.initWatcher(ctx); err != nil {
		c.logger.Warn("data file changes will only be picked up after CACHE_TTL: %v", err)
	}

	c.logger.Info("container initialized with %s", c.Source.Describe())
	return c, nil
}

// initSource picks the spreadsheet reader when DATA_FILE is set and the
// database otherwise
func (c *Container) initSource(ctx context.Context) error {
	if c.Config.UsesFile() {
		c.Source = excel.NewDataReader(c.Config.Data.File, c.Config.Data.Sheet)
		return nil
	}

	db, err := sqlstore.New(c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return err
	}
	if err := sqlstore.Ping(ctx, db); err != nil {
		c.logger.Warn("database not reachable yet: %v", err)
	}
	c.DB = db
	c.Source = sqlstore.NewCompoundSource(db, c.Config.Database.Table)
	return nil
}

func (c *Container) initPipeline() {
	c.Loader = loader.New(c.Source, c.Config.Dashboard.SortByMW)
	c.Memo = cache.NewMemo(c.Loader, c.Config.Dashboard.CacheTTL)
	c.Dashboard = dashboard.NewService(c.Memo)
}

func (c *Container) initWatcher(ctx context.Context) error {
	if !c.Config.UsesFile() || !c.Config.Data.Watch {
		return nil
	}
	watcher, err := excel.NewFileWatcher(c.Config.Data.File, c.Memo.Invalidate)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		watcher.Stop()
		return err
	}
	c.Watcher = watcher
	return nil
}

// Shutdown stops the file watcher and releases the database pool
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.DB == nil {
		return nil
	}
	if err := c.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	c.logger.Info("database connection closed")
	return nil
}
