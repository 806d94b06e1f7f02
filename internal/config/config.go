package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration loaded from TOML.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Sync     SyncConfig     `toml:"sync"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// UpstreamConfig holds the scraping API settings. Credentials are sent as
// query parameters because that is the upstream's contract.
type UpstreamConfig struct {
	BaseURL        string   `toml:"base_url"`
	Email          string   `toml:"email"`
	Password       string   `toml:"password"`
	Contratos      []string `toml:"contratos"`
	TimeoutMinutes int      `toml:"timeout_minutes"`
}

// SyncConfig holds the periodic synchronization settings.
type SyncConfig struct {
	Enabled       bool `toml:"enabled"`
	IntervalHours int  `toml:"interval_hours"`
}

// StorageConfig holds the SQLite settings.
type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Load reads and validates the configuration from the given TOML file.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Upstream: UpstreamConfig{
			TimeoutMinutes: 10,
		},
		Sync: SyncConfig{
			Enabled:       true,
			IntervalHours: 4,
		},
		Storage: StorageConfig{
			DatabasePath: "painel-holmes.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.Email == "" || c.Upstream.Password == "" {
		return fmt.Errorf("upstream.email and upstream.password are required")
	}
	if len(c.Upstream.Contratos) == 0 {
		return fmt.Errorf("upstream.contratos must list at least one contract number")
	}
	if c.Upstream.TimeoutMinutes <= 0 {
		return fmt.Errorf("upstream.timeout_minutes must be positive")
	}
	if c.Sync.IntervalHours <= 0 {
		return fmt.Errorf("sync.interval_hours must be positive")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}
	return nil
}

// UpstreamTimeout returns the upstream request timeout as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutMinutes) * time.Minute
}

// SyncInterval returns the interval between automatic sync runs.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalHours) * time.Hour
}
