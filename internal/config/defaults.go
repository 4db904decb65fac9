// Package config handles protodo client configuration.
package config

import "time"

const (
	// DefaultDir is the project-local config directory name.
	DefaultDir = ".protodo"
	// AppName names the directory under the user config dir.
	AppName = "protodo"
	// DefaultBaseURL is the store address used when none is configured.
	DefaultBaseURL = "http://localhost:5000/api"
	// DefaultTimeout bounds every store request.
	DefaultTimeout = "10s"
	// DefaultTitleLines is the default number of title lines in TUI cards.
	DefaultTitleLines = 2
	// DefaultLogLevel is the default charmbracelet/log level name.
	DefaultLogLevel = "warn"
	// DefaultLogFormat is the default log formatter.
	DefaultLogFormat = "text"

	// ConfigFileName is the name of the config file within the config directory.
	ConfigFileName = "config.yml"
	// PrefsFileName holds custom statuses and the active board.
	PrefsFileName = "prefs.yml"
	// ActivityFileName is the local mutation journal.
	ActivityFileName = "activity.jsonl"
	// EnvFileName is loaded into the environment before overrides apply.
	EnvFileName = ".env"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 2
)

// Environment overrides.
const (
	EnvBaseURL  = "PROTODO_API_BASE"
	EnvToken    = "PROTODO_TOKEN"
	EnvLogLevel = "PROTODO_LOG_LEVEL"
	EnvTimezone = "PROTODO_TZ"
)

// DefaultStatuses are the base columns of every board.
var DefaultStatuses = []string{"todo", "inprogress", "done"}

// DefaultRequestTimeout is DefaultTimeout parsed.
const DefaultRequestTimeout = 10 * time.Second

// boolPtr returns a pointer to the given bool value.
func boolPtr(v bool) *bool { return &v }
