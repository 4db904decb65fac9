package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

const fileMode = 0o600

// Sentinel errors.
var (
	ErrNotFound = errors.New("no protodo config found (run 'protodo init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the client configuration.
type Config struct {
	Version  int        `yaml:"version"`
	API      APIConfig  `yaml:"api"`
	Auth     AuthConfig `yaml:"auth,omitempty"`
	Statuses []string   `yaml:"statuses"`
	Sync     SyncConfig `yaml:"sync"`
	Log      LogConfig  `yaml:"log"`
	TUI      TUIConfig  `yaml:"tui,omitempty"`
	Timezone string     `yaml:"timezone,omitempty"`

	// dir is the absolute path to the config directory (not serialized).
	dir string `yaml:"-"`
}

// APIConfig locates the task store.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout,omitempty"`
}

// AuthConfig holds the bearer credential sent to the store.
type AuthConfig struct {
	Token string `yaml:"token,omitempty"`
}

// SyncConfig tunes the board synchronizer.
type SyncConfig struct {
	RollbackOnMoveFailure *bool `yaml:"rollback_on_move_failure,omitempty"`
}

// LogConfig selects the log level and formatter.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TUIConfig holds TUI-specific display settings.
type TUIConfig struct {
	TitleLines int `yaml:"title_lines,omitempty"`
}

// Dir returns the absolute path to the config directory.
func (c *Config) Dir() string {
	return c.dir
}

// SetDir sets the config directory path.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// PrefsPath returns the absolute path to the preferences file.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.dir, PrefsFileName)
}

// ActivityPath returns the absolute path to the activity journal.
func (c *Config) ActivityPath() string {
	return filepath.Join(c.dir, ActivityFileName)
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		Version:  CurrentVersion,
		API:      APIConfig{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout},
		Statuses: append([]string{}, DefaultStatuses...),
		Sync:     SyncConfig{RollbackOnMoveFailure: boolPtr(true)},
		Log:      LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		TUI:      TUIConfig{TitleLines: DefaultTitleLines},
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalid)
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q must be an http(s) URL", ErrInvalid, c.API.BaseURL)
	}
	if c.API.Timeout != "" {
		if d, err := time.ParseDuration(c.API.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("%w: invalid api.timeout %q", ErrInvalid, c.API.Timeout)
		}
	}
	if len(c.Statuses) < 1 {
		return fmt.Errorf("%w: at least 1 status is required", ErrInvalid)
	}
	if hasDuplicates(c.Statuses) {
		return fmt.Errorf("%w: statuses contain duplicates", ErrInvalid)
	}
	for _, s := range c.Statuses {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: statuses contain a blank name", ErrInvalid)
		}
	}
	if IndexOf(c.Statuses, task.StatusTodo) < 0 {
		return fmt.Errorf("%w: statuses must include %q", ErrInvalid, task.StatusTodo)
	}
	switch c.Log.Format {
	case "", "text", "json", "logfmt":
	default:
		return fmt.Errorf("%w: log.format %q must be text, json or logfmt", ErrInvalid, c.Log.Format)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q: %w", ErrInvalid, c.Timezone, err)
		}
	}
	const minTitleLines, maxTitleLines = 1, 3
	if c.TUI.TitleLines != 0 && (c.TUI.TitleLines < minTitleLines || c.TUI.TitleLines > maxTitleLines) {
		return fmt.Errorf("%w: tui.title_lines must be between %d and %d",
			ErrInvalid, minTitleLines, maxTitleLines)
	}
	return nil
}

// RequestTimeout returns api.timeout parsed, or the default.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}

// RollbackOnMoveFailure reports whether failed moves are undone locally.
// Unset means true.
func (c *Config) RollbackOnMoveFailure() bool {
	if c.Sync.RollbackOnMoveFailure == nil {
		return true
	}
	return *c.Sync.RollbackOnMoveFailure
}

// Location returns the configured timezone, or time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// TitleLines returns the configured number of title lines for TUI cards.
func (c *Config) TitleLines() int {
	if c.TUI.TitleLines == 0 {
		return DefaultTitleLines
	}
	return c.TUI.TitleLines
}

// ApplyEnv loads .env files from the config directory and the working
// directory, then applies PROTODO_* overrides. Variables already set in the
// environment win over .env values.
func (c *Config) ApplyEnv() error {
	for _, path := range []string{filepath.Join(c.dir, EnvFileName), EnvFileName} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	return nil
}

// Init creates a config directory with default settings.
func Init(dir string) (*Config, error) {
	const dirMode = 0o750

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault()
	cfg.SetDir(absDir)

	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	if _, err := os.Stat(cfg.ConfigPath()); err == nil {
		return nil, clierr.Newf(clierr.InvalidInput, "config already exists at %s", cfg.ConfigPath())
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to its config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Load reads, migrates and validates a config from the given directory.
// Environment overrides are applied before validation.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFile(dir)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile reads and migrates the config file in dir without applying
// environment overrides or validating. Use it to edit and Save the file.
func LoadFile(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := filepath.Join(absDir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.dir = absDir

	oldVersion := cfg.Version
	if err := migrate(&cfg); err != nil {
		return nil, err
	}

	// Persist migrated config so future loads skip re-migration.
	if cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	return &cfg, nil
}

// FindDir walks upward from startDir looking for a .protodo directory
// containing config.yml, then falls back to the user config directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		candidate := filepath.Join(dir, DefaultDir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Join(dir, DefaultDir), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if userDir, err := UserDir(); err == nil {
		if _, err := os.Stat(filepath.Join(userDir, ConfigFileName)); err == nil {
			return userDir, nil
		}
	}
	return "", clierr.New(clierr.InvalidInput, ErrNotFound.Error())
}

// UserDir returns the per-user config directory, e.g. ~/.config/protodo.
func UserDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// StatusIndex returns the index of a status in the configured order, or -1.
func (c *Config) StatusIndex(status string) int {
	return IndexOf(c.Statuses, status)
}

// IndexOf returns the index of item in slice, or -1 if not found.
func IndexOf(slice []string, item string) int {
	for i, s := range slice {
		if s == item {
			return i
		}
	}
	return -1
}

func hasDuplicates(slice []string) bool {
	seen := make(map[string]bool, len(slice))
	for _, s := range slice {
		if seen[s] {
			return true
		}
		seen[s] = true
	}
	return false
}
