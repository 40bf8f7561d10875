package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Database DatabaseConfig
	Log      LogConfig
	Auth     AuthConfig
	Report   ReportConfig
	Settings SettingsConfig
	Printing PrintingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server timeouts
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings.
// An empty Host selects the in-memory storage.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	AutoMigrate     bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// ReportConfig holds reporting settings
type ReportConfig struct {
	Timezone   string
	TopN       int
	BoardLimit int
}

// SettingsConfig holds the local settings store location
type SettingsConfig struct {
	Dir string
}

// PrintingConfig holds document rendering settings
type PrintingConfig struct {
	StoreName     string
	ChromeURL     string // remote Chrome DevTools URL; empty launches a local browser
	RenderTimeout time.Duration
	NoSandbox     bool
	PDFEnabled    bool
}

// DSN returns the lib/pq connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Location resolves the configured report time zone
func (c ReportConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with POS_ prefix (e.g., POS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Auth: AuthConfig{
			Secret:     v.GetString("auth.secret"),
			Issuer:     v.GetString("auth.issuer"),
			Expiration: v.GetDuration("auth.expiration"),
		},
		Report: ReportConfig{
			Timezone:   v.GetString("report.timezone"),
			TopN:       v.GetInt("report.top_n"),
			BoardLimit: v.GetInt("report.board_limit"),
		},
		Settings: SettingsConfig{
			Dir: v.GetString("settings.dir"),
		},
		Printing: PrintingConfig{
			StoreName:     v.GetString("printing.store_name"),
			ChromeURL:     v.GetString("printing.chrome_url"),
			RenderTimeout: v.GetDuration("printing.render_timeout"),
			NoSandbox:     v.GetBool("printing.no_sandbox"),
			PDFEnabled:    v.GetBool("printing.pdf_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "luccacell"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8081"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "luccacell"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "luccacell"
	}
	if cfg.Auth.Expiration == 0 {
		cfg.Auth.Expiration = 12 * time.Hour
	}
	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "America/Sao_Paulo"
	}
	if cfg.Report.TopN == 0 {
		cfg.Report.TopN = 5
	}
	if cfg.Report.BoardLimit == 0 {
		cfg.Report.BoardLimit = 1024
	}
	if cfg.Settings.Dir == "" {
		cfg.Settings.Dir = "data/settings"
	}
	if cfg.Printing.StoreName == "" {
		cfg.Printing.StoreName = "LUCCA CELL"
	}
	if cfg.Printing.RenderTimeout == 0 {
		cfg.Printing.RenderTimeout = 30 * time.Second
	}
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	if c.App.Env == "production" && len(c.Auth.Secret) < 32 {
		return errors.New("auth.secret must be at least 32 characters in production")
	}
	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	if _, err := c.Report.Location(); err != nil {
		return fmt.Errorf("invalid report.timezone %q: %w", c.Report.Timezone, err)
	}
	if c.Report.TopN < 0 {
		return fmt.Errorf("report.top_n must not be negative, got %d", c.Report.TopN)
	}
	if c.Report.BoardLimit < 0 {
		return fmt.Errorf("report.board_limit must not be negative, got %d", c.Report.BoardLimit)
	}
	return nil
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// UsesDatabase reports whether PostgreSQL storage is configured
func (c *Config) UsesDatabase() bool {
	return c.Database.Host != ""
}
