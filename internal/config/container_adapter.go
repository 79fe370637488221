package config

import (
	"github.com/garyjia/invoice-studio/internal/container"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Session: container.SessionConfig{
			IdleTTL:       c.Session.IdleTTL,
			SweepInterval: c.Session.SweepInterval,
		},
		Invoice: container.InvoiceConfig{
			Freelancer: entity.FreelancerDetails{
				Name:    c.Freelancer.Name,
				Email:   c.Freelancer.Email,
				Phone:   c.Freelancer.Phone,
				Address: c.Freelancer.Address,
			},
			InvoiceNumber: c.Invoice.Number,
			PaymentTerms:  c.Invoice.PaymentTerms,
			PaymentMethod: c.Invoice.PaymentMethod,
		},
		Catalog: container.CatalogConfig{
			Path: c.Catalog.Path,
		},
		Export: container.ExportConfig{
			OutputDir:     c.Export.OutputDir,
			PageSize:      c.Export.PageSize,
			Margin:        c.Export.Margin,
			PreviewWidth:  c.Export.PreviewWidth,
			DPI:           c.Export.DPI,
			FontPath:      c.Export.FontPath,
			SignaturePath: c.Export.SignaturePath,
		},
	}
}
