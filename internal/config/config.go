package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Supported values of DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig describes how to reach the relational store.
type DatabaseConfig struct {
	Driver      string `mapstructure:"DB_DRIVER"`
	Host        string `mapstructure:"DB_HOST"`
	Port        int    `mapstructure:"DB_PORT"`
	User        string `mapstructure:"DB_USER"`
	Password    string `mapstructure:"DB_PASSWORD"`
	Name        string `mapstructure:"DB_NAME"`
	SSLCA       string `mapstructure:"DB_SSL_CA"`
	SSLDisabled bool   `mapstructure:"DB_SSL_DISABLED"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
}

// Config holds application configuration values.
type Config struct {
	Env               string `mapstructure:"ENV"`
	HTTPPort          string `mapstructure:"HTTP_PORT"`
	Secret            string `mapstructure:"SECRET"`
	StaffPasswordHash string `mapstructure:"STAFF_PASSWORD_HASH"`
	UpcomingDays      int    `mapstructure:"UPCOMING_DAYS"`
	RequireCatalog    bool   `mapstructure:"REQUIRE_CATALOG"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogFormat         string `mapstructure:"LOG_FORMAT"`

	Database DatabaseConfig `mapstructure:",squash"`
}

var keys = []string{
	"ENV", "HTTP_PORT", "SECRET", "STAFF_PASSWORD_HASH", "UPCOMING_DAYS",
	"REQUIRE_CATALOG", "CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_SSL_CA", "DB_SSL_DISABLED", "SQLITE_PATH",
}

// Load reads configuration from environment variables with reasonable defaults.
// A .env file, if present, is expected to have been loaded into the
// environment already.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("SECRET", "dev_secret")
	v.SetDefault("UPCOMING_DAYS", 7)
	v.SetDefault("REQUIRE_CATALOG", false)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverMySQL)
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_SSL_CA", "ca.pem")
	v.SetDefault("DB_SSL_DISABLED", false)
	v.SetDefault("SQLITE_PATH", "medshop.db")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if cfg.IsDev() {
			cfg.LogFormat = "console"
		}
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AuthEnabled reports whether staff must log in before using the dashboard.
func (c *Config) AuthEnabled() bool {
	return c.StaffPasswordHash != ""
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks that the configuration can be used to start the server.
func (c *Config) Validate() error {
	db := c.Database
	switch db.Driver {
	case DriverMySQL, DriverPostgres:
		if db.Host == "" || db.User == "" || db.Name == "" {
			return fmt.Errorf("DB_HOST, DB_USER and DB_NAME are required for driver %q", db.Driver)
		}
		if db.Port <= 0 || db.Port > 65535 {
			return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", db.Port)
		}
		if db.SSLDisabled && !c.IsDev() {
			return fmt.Errorf("DB_SSL_DISABLED is only allowed when ENV=development")
		}
		if !db.SSLDisabled && db.SSLCA == "" {
			return fmt.Errorf("DB_SSL_CA is required when TLS is enabled")
		}
	case DriverSQLite:
		if db.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for driver %q", db.Driver)
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q, %q or %q, got %q", DriverMySQL, DriverPostgres, DriverSQLite, db.Driver)
	}

	if c.UpcomingDays < 0 {
		return fmt.Errorf("UPCOMING_DAYS must not be negative, got %d", c.UpcomingDays)
	}
	if c.AuthEnabled() {
		if c.Secret == "" {
			return fmt.Errorf("SECRET is required when STAFF_PASSWORD_HASH is set")
		}
		if !c.IsDev() && c.Secret == "dev_secret" {
			return fmt.Errorf("SECRET must be changed from the development default outside ENV=development")
		}
	}
	return nil
}
