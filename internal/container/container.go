package container

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-studio/internal/application/dispatcher"
	"github.com/garyjia/invoice-studio/internal/application/port"
	"github.com/garyjia/invoice-studio/internal/application/service"
	"github.com/garyjia/invoice-studio/internal/application/session"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/export"
	"github.com/garyjia/invoice-studio/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/invoice-studio/internal/infrastructure/worker"
	"github.com/garyjia/invoice-studio/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	conn         *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - Storage
	fileStorage   port.FileStorage
	folderManager port.FolderManager

	// Domain
	catalog *entity.Catalog

	// Application
	dispatcher dispatcher.Dispatcher
	sessions   *session.Store
	exporter   *export.Exporter
	invoices   service.InvoiceService

	// Background
	workers *worker.Manager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Export port.ExportRepository
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database and repositories
// 2. Artifact storage
// 3. Catalog
// 4. Event dispatcher
// 5. Session store and its idle sweeper
// 6. Exporter and invoice service
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Initialize storage
	if err := c.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized", zap.String("output_dir", c.config.Export.OutputDir))

	// Step 3: Load catalog
	cat, err := ProvideCatalog(&c.config.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	c.catalog = cat
	c.logger.Info("Catalog loaded", zap.Strings("categories", cat.CategoryNames()))

	// Step 4: Initialize dispatcher
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp

	// Step 5: Initialize session store
	if err := c.initSessions(); err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}
	c.logger.Info("Session store initialized", zap.Duration("idle_ttl", c.config.Session.IdleTTL))

	// Step 6: Initialize exporter and services
	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop background workers (reverse of step 5)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	// Step 2: Close dispatcher (reverse of step 4)
	if c.dispatcher != nil {
		service.UnsubscribeEventLog(c.dispatcher)
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 3: Close database (reverse of step 1)
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	report := func(name string, health ComponentHealth) {
		status.Components[name] = health
		if !health.Healthy {
			status.Overall = false
		}
	}

	// Check database
	if c.conn != nil {
		if err := c.conn.Ping(); err != nil {
			report("database", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			report("database", ComponentHealth{Healthy: true})
		}
	} else {
		report("database", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	// Check storage
	if c.fileStorage != nil {
		if info, err := os.Stat(c.config.Export.OutputDir); err != nil || !info.IsDir() {
			report("storage", ComponentHealth{Healthy: false, Message: "output directory missing"})
		} else {
			report("storage", ComponentHealth{Healthy: true})
		}
	} else {
		report("storage", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	// Check dispatcher
	if c.dispatcher != nil {
		report("dispatcher", ComponentHealth{Healthy: true, Message: fmt.Sprintf("handlers: %d", service.HandlerCount(c.dispatcher))})
	} else {
		report("dispatcher", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	// Check workers
	if c.workers != nil && c.workers.IsRunning() {
		report("workers", ComponentHealth{Healthy: true, Message: fmt.Sprintf("running workers: %d", c.workers.Count())})
	} else {
		report("workers", ComponentHealth{Healthy: false, Message: "not running"})
	}

	// Check sessions
	if c.sessions != nil {
		report("sessions", ComponentHealth{Healthy: true, Message: fmt.Sprintf("active sessions: %d", c.sessions.Len())})
	} else {
		report("sessions", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	return status
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.conn = dbBundle.Conn
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.conn.Close()
		return err
	}

	c.repositories = repos
	return nil
}

// initStorage initializes file storage and folder manager using providers.
func (c *Container) initStorage() error {
	storageBundle, err := ProvideStorage(&c.config.Export, c.logger)
	if err != nil {
		return err
	}

	c.fileStorage = storageBundle.FileStorage
	c.folderManager = storageBundle.FolderManager
	return nil
}

// initSessions creates the session store and starts the idle sweeper.
func (c *Container) initSessions() error {
	store, err := ProvideSessionStore(&c.config.Session, &c.config.Invoice, c.catalog, c.dispatcher, c.logger)
	if err != nil {
		return err
	}
	c.sessions = store

	c.workers = worker.NewManager(c.logger)
	c.workers.Register(worker.NewSessionSweeper(store, c.config.Session.SweepInterval))
	return c.workers.StartAll(c.ctx)
}

// initServices builds the exporter and the invoice service using providers.
func (c *Container) initServices() error {
	exporter, err := ProvideExporter(&c.config.Export, c.logger)
	if err != nil {
		return err
	}
	c.exporter = exporter

	invoices, err := ProvideInvoiceService(&ServiceDeps{
		Sessions:  c.sessions,
		Catalog:   c.catalog,
		Exporter:  c.exporter,
		Repos:     c.repositories,
		TxManager: c.db,
		Storage: &StorageBundle{
			FileStorage:   c.fileStorage,
			FolderManager: c.folderManager,
		},
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	c.invoices = invoices
	return nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// FileStorage returns the file storage.
func (c *Container) FileStorage() port.FileStorage {
	return c.fileStorage
}

// FolderManager returns the folder manager.
func (c *Container) FolderManager() port.FolderManager {
	return c.folderManager
}

// Catalog returns the loaded price list.
func (c *Container) Catalog() *entity.Catalog {
	return c.catalog
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Sessions returns the session store.
func (c *Container) Sessions() *session.Store {
	return c.sessions
}

// InvoiceService returns the invoice service.
func (c *Container) InvoiceService() service.InvoiceService {
	return c.invoices
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// LoggerAdapter adapts zap.Logger to the key-value Logger interfaces used
// by the application packages.
type LoggerAdapter struct {
	logger *zap.Logger
}

// NewLoggerAdapter wraps a zap logger
func NewLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{logger: logger}
}

func (a *LoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *LoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
