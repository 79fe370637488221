// Package container provides dependency injection and lifecycle management
// for the invoice studio.
package container

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/export"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Server configuration
	Server ServerConfig

	// Session configuration
	Session SessionConfig

	// Invoice defaults for new drafts
	Invoice InvoiceConfig

	// Catalog configuration
	Catalog CatalogConfig

	// Export configuration
	Export ExportConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server; it also bounds an export request
	WriteTimeout time.Duration
}

// SessionConfig holds draft session settings.
type SessionConfig struct {
	// IdleTTL ends sessions untouched for this long; 0 keeps them forever
	IdleTTL time.Duration

	// SweepInterval is how often idle sessions are collected
	SweepInterval time.Duration
}

// InvoiceConfig seeds every new draft.
type InvoiceConfig struct {
	// Freelancer is the default issuing identity
	Freelancer entity.FreelancerDetails

	// InvoiceNumber pre-fills the invoice number
	InvoiceNumber string

	// PaymentTerms is the default terms code
	PaymentTerms string

	// PaymentMethod is the default method code
	PaymentMethod string
}

// CatalogConfig holds price list settings.
type CatalogConfig struct {
	// Path to a catalog YAML file; empty uses the built-in catalog
	Path string
}

// ExportConfig holds artifact generation settings.
type ExportConfig struct {
	// OutputDir keeps a copy of every exported file, one folder per day
	OutputDir string

	// PageSize is a4, letter or legal
	PageSize string

	// Margin around the snapshot in points
	Margin float64

	// PreviewWidth is the width of the rendered preview in points
	PreviewWidth float64

	// DPI used to rasterize the preview
	DPI float64

	// FontPath is an optional UTF-8 TrueType font
	FontPath string

	// SignaturePath is an optional signature image
	SignaturePath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/invoices.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Session: SessionConfig{
			IdleTTL:       2 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Invoice: InvoiceConfig{
			InvoiceNumber: "INV-001",
			PaymentTerms:  entity.PaymentTerms30,
			PaymentMethod: entity.PaymentMethodUPI,
		},
		Export: ExportConfig{
			OutputDir:    "exports",
			PageSize:     "a4",
			Margin:       30,
			PreviewWidth: export.PageA4.Width,
			DPI:          export.DefaultDPI,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("session.idle_ttl must not be negative")
	}
	if c.Session.IdleTTL > 0 && c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval is required when session.idle_ttl is set")
	}

	if !slices.Contains(entity.PaymentTermsCodes(), c.Invoice.PaymentTerms) {
		return fmt.Errorf("invoice.payment_terms %q is not one of %v", c.Invoice.PaymentTerms, entity.PaymentTermsCodes())
	}
	if !slices.Contains(entity.PaymentMethodCodes(), c.Invoice.PaymentMethod) {
		return fmt.Errorf("invoice.payment_method %q is not one of %v", c.Invoice.PaymentMethod, entity.PaymentMethodCodes())
	}

	return c.Export.Validate()
}

// Validate checks the export settings on their own; the CLI needs only these.
func (c *ExportConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}
	if _, err := export.ParsePageSize(c.PageSize); err != nil {
		return fmt.Errorf("export.page_size: %w", err)
	}
	if c.Margin < 0 {
		return fmt.Errorf("export.margin must not be negative")
	}
	if c.DPI <= 0 || c.DPI > 600 {
		return fmt.Errorf("export.dpi must be between 1 and 600")
	}
	if c.PreviewWidth < 0 {
		return fmt.Errorf("export.preview_width must not be negative")
	}
	for key, path := range map[string]string{"export.font_path": c.FontPath, "export.signature_path": c.SignaturePath} {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return fmt.Errorf("%s %q is not a readable file", key, path)
		}
	}
	return nil
}
