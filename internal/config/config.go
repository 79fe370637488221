package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/export"
)

// EnvPrefix prefixes every environment override, e.g. INVOICE_SERVER_PORT
const EnvPrefix = "INVOICE"

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Session    SessionConfig    `mapstructure:"session"`
	Freelancer FreelancerConfig `mapstructure:"freelancer"`
	Invoice    InvoiceConfig    `mapstructure:"invoice"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Export     ExportConfig     `mapstructure:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"` // empty uses the embedded migrations
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// SessionConfig holds draft session configuration
type SessionConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// FreelancerConfig is the default identity printed on new invoices
type FreelancerConfig struct {
	Name    string `mapstructure:"name"`
	Email   string `mapstructure:"email"`
	Phone   string `mapstructure:"phone"`
	Address string `mapstructure:"address"`
}

// InvoiceConfig holds defaults for new drafts
type InvoiceConfig struct {
	Number        string `mapstructure:"number"`
	PaymentTerms  string `mapstructure:"payment_terms"`
	PaymentMethod string `mapstructure:"payment_method"`
}

// CatalogConfig holds price list configuration
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// ExportConfig holds artifact generation configuration
type ExportConfig struct {
	OutputDir     string  `mapstructure:"output_dir"`
	PageSize      string  `mapstructure:"page_size"`
	Margin        float64 `mapstructure:"margin"`
	PreviewWidth  float64 `mapstructure:"preview_width"`
	DPI           float64 `mapstructure:"dpi"`
	FontPath      string  `mapstructure:"font_path"`
	SignaturePath string  `mapstructure:"signature_path"`
}

// Load reads configuration from an optional YAML file, then applies
// INVOICE_* environment overrides. An empty path uses defaults and the
// environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/invoices.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Session defaults
	v.SetDefault("session.idle_ttl", 2*time.Hour)
	v.SetDefault("session.sweep_interval", 5*time.Minute)

	// Invoice defaults
	v.SetDefault("invoice.number", "INV-001")
	v.SetDefault("invoice.payment_terms", entity.PaymentTerms30)
	v.SetDefault("invoice.payment_method", entity.PaymentMethodUPI)

	// Catalog defaults
	v.SetDefault("catalog.path", "")

	// Export defaults
	v.SetDefault("export.output_dir", "exports")
	v.SetDefault("export.page_size", "a4")
	v.SetDefault("export.margin", 30.0)
	v.SetDefault("export.preview_width", export.PageA4.Width)
	v.SetDefault("export.dpi", export.DefaultDPI)
	v.SetDefault("export.font_path", "")
	v.SetDefault("export.signature_path", "")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// The default identity has no file default, so it is bound explicitly
	_ = v.BindEnv("freelancer.name", "INVOICE_FREELANCER_NAME")
	_ = v.BindEnv("freelancer.email", "INVOICE_FREELANCER_EMAIL")
	_ = v.BindEnv("freelancer.phone", "INVOICE_FREELANCER_PHONE")
	_ = v.BindEnv("freelancer.address", "INVOICE_FREELANCER_ADDRESS")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logger.level must be one of debug, info, warn, error")
	}
	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("logger.format must be json or console")
	}

	if c.Invoice.Number == "" {
		return fmt.Errorf("invoice.number is required")
	}

	// The remaining sections are checked where they are consumed
	return c.ToContainerConfig().Validate()
}
