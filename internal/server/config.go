// Package server is a reference implementation of the REST task store the
// client synchronizes against. It serves boards and tasks over JSON,
// authenticates with HS256 bearer tokens and pushes change notifications
// over a websocket.
package server

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Driver names accepted in Config.Database.Driver.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Environment overrides for the server configuration.
const (
	EnvAddr      = "PROTODO_SERVER_ADDR"
	EnvDriver    = "PROTODO_DB_DRIVER"
	EnvDSN       = "PROTODO_DB_DSN"
	EnvJWTSecret = "PROTODO_JWT_SECRET"
)

// Config is the server configuration, usually read from server.toml.
type Config struct {
	Addr     string         `toml:"addr"`
	Prefix   string         `toml:"prefix"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	CORS     CORSConfig     `toml:"cors"`
	Log      LogConfig      `toml:"log"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type AuthConfig struct {
	Secret   string `toml:"secret"`
	TokenTTL string `toml:"token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a configuration serving an sqlite file on :5000.
func DefaultConfig() Config {
	return Config{
		Addr:   ":5000",
		Prefix: "/api",
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "protodo.db",
		},
		Auth: AuthConfig{TokenTTL: "168h"},
		CORS: CORSConfig{AllowedOrigins: []string{"*"}},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads path over the defaults and applies environment
// overrides. A missing file is not an error when path is empty.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("server config %s not found", path)
			}
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvDriver); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.Secret = v
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q must be %s or %s", c.Database.Driver, DriverSQLite, DriverPostgres))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if len(c.Auth.Secret) < 16 {
		errs = append(errs, fmt.Errorf("auth.secret must be at least 16 bytes (set %s)", EnvJWTSecret))
	}
	if _, err := c.TokenTTL(); err != nil {
		errs = append(errs, err)
	}
	if c.Prefix != "" && !strings.HasPrefix(c.Prefix, "/") {
		errs = append(errs, fmt.Errorf("prefix %q must start with /", c.Prefix))
	}
	return errors.Join(errs...)
}

// TokenTTL parses auth.token_ttl.
func (c Config) TokenTTL() (time.Duration, error) {
	if c.Auth.TokenTTL == "" {
		return 7 * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("auth.token_ttl %q is not a positive duration", c.Auth.TokenTTL)
	}
	return d, nil
}
