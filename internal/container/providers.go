package container

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-studio/internal/application/dispatcher"
	"github.com/garyjia/invoice-studio/internal/application/port"
	"github.com/garyjia/invoice-studio/internal/application/service"
	"github.com/garyjia/invoice-studio/internal/application/session"
	"github.com/garyjia/invoice-studio/internal/catalog"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/export"
	"github.com/garyjia/invoice-studio/internal/infrastructure/persistence/repository"
	"github.com/garyjia/invoice-studio/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/invoice-studio/internal/storage"
	"github.com/garyjia/invoice-studio/migrations"
	"github.com/garyjia/invoice-studio/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	FileStorage   port.FileStorage
	FolderManager port.FolderManager
}

// ServiceDeps holds everything the invoice service is built from.
type ServiceDeps struct {
	Sessions   *session.Store
	Catalog    *entity.Catalog
	Exporter   service.Exporter
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Storage    *StorageBundle
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideDatabase opens the database and applies pending migrations, from
// MigrationsDir when set and from the embedded set otherwise.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(conn, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrationsFromDir(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrations(migrations.FS)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories over the transaction-aware DB.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Export: repository.NewExportRepository(db, logger),
	}, nil
}

// ProvideStorage creates the artifact storage rooted at the export output dir.
func ProvideStorage(cfg *ExportConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("export config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &StorageBundle{
		FileStorage:   storage.NewLocalFileStorage(cfg.OutputDir, logger),
		FolderManager: storage.NewLocalFolderManager(cfg.OutputDir, logger),
	}, nil
}

// ProvideCatalog loads the price list from Path, or the built-in one.
func ProvideCatalog(cfg *CatalogConfig) (*entity.Catalog, error) {
	if cfg == nil || cfg.Path == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.Path)
}

// ProvideDispatcher creates the session event dispatcher with the event log attached.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	kv := NewLoggerAdapter(logger)
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(kv))
	service.SubscribeEventLog(d, kv)
	return d, nil
}

// ProvideSessionStore creates the draft store seeded with the invoice defaults.
func ProvideSessionStore(sessionCfg *SessionConfig, invoiceCfg *InvoiceConfig, cat *entity.Catalog, d dispatcher.Dispatcher, logger *zap.Logger) (*session.Store, error) {
	if sessionCfg == nil || invoiceCfg == nil {
		return nil, fmt.Errorf("session and invoice config are required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []session.StoreOption{session.WithLogger(NewLoggerAdapter(logger))}
	if d != nil {
		opts = append(opts, session.WithDispatcher(d))
	}

	return session.NewStore(
		session.StoreConfig{IdleTTL: sessionCfg.IdleTTL},
		cat,
		session.Defaults{
			Freelancer:    invoiceCfg.Freelancer,
			InvoiceNumber: invoiceCfg.InvoiceNumber,
			PaymentTerms:  invoiceCfg.PaymentTerms,
			PaymentMethod: invoiceCfg.PaymentMethod,
		},
		opts...,
	), nil
}

// ProvideExporter builds the PDF and XLSX pipelines.
func ProvideExporter(cfg *ExportConfig, logger *zap.Logger) (*export.Exporter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("export config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	page, err := export.ParsePageSize(cfg.PageSize)
	if err != nil {
		return nil, err
	}

	return export.NewExporter(
		export.Config{Page: page, Margin: cfg.Margin},
		export.NewPreviewRenderer(export.RendererConfig{
			Width:         cfg.PreviewWidth,
			FontPath:      cfg.FontPath,
			SignaturePath: cfg.SignaturePath,
		}),
		export.NewFitzRasterizer(cfg.DPI),
		export.NewPageAssembler(page),
		export.NewWorkbookWriter(),
		export.WithLogger(NewLoggerAdapter(logger)),
	), nil
}

// ProvideInvoiceService creates the invoice service. History and storage
// are optional.
func ProvideInvoiceService(deps *ServiceDeps) (service.InvoiceService, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Sessions == nil || deps.Catalog == nil || deps.Exporter == nil {
		return nil, fmt.Errorf("sessions, catalog and exporter are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	var opts []service.Option
	if deps.Repos != nil && deps.TxManager != nil {
		opts = append(opts, service.WithHistory(deps.Repos.Export, deps.TxManager))
	}
	if deps.Storage != nil {
		opts = append(opts, service.WithArtifactStorage(deps.Storage.FileStorage, deps.Storage.FolderManager))
	}
	if deps.Dispatcher != nil {
		opts = append(opts, service.WithDispatcher(deps.Dispatcher))
	}

	return service.NewInvoiceService(
		deps.Sessions,
		deps.Catalog,
		deps.Exporter,
		NewLoggerAdapter(deps.Logger),
		opts...,
	), nil
}
