package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/config"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify client configuration",
	Long:  `View the full configuration, get a specific key, or set a writable value.`,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get      func(*config.Config) any
	set      func(*config.Config, string) error
	writable bool
}

func configAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
		"api.base_url": {
			get:      func(c *config.Config) any { return c.API.BaseURL },
			set:      func(c *config.Config, v string) error { c.API.BaseURL = strings.TrimRight(v, "/"); return nil },
			writable: true,
		},
		"api.timeout": {
			get: func(c *config.Config) any { return c.RequestTimeout().String() },
			set: func(c *config.Config, v string) error {
				if _, err := time.ParseDuration(v); err != nil {
					return clierr.Newf(clierr.InvalidInput, "invalid api.timeout %q: %v", v, err)
				}
				c.API.Timeout = v
				return nil
			},
			writable: true,
		},
		"auth.token": {
			get:      func(c *config.Config) any { return maskToken(c.Auth.Token) },
			set:      func(c *config.Config, v string) error { c.Auth.Token = strings.TrimSpace(v); return nil },
			writable: true,
		},
		"statuses": {
			get: func(c *config.Config) any { return c.Statuses },
		},
		"sync.rollback_on_move_failure": {
			get: func(c *config.Config) any { return c.RollbackOnMoveFailure() },
			set: func(c *config.Config, v string) error {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput,
						"invalid sync.rollback_on_move_failure %q: must be true or false", v)
				}
				c.Sync.RollbackOnMoveFailure = &b
				return nil
			},
			writable: true,
		},
		"log.level": {
			get: func(c *config.Config) any { return c.Log.Level },
			set: func(c *config.Config, v string) error {
				if _, err := log.ParseLevel(v); err != nil {
					return clierr.Newf(clierr.InvalidInput, "invalid log.level %q: %v", v, err)
				}
				c.Log.Level = v
				return nil
			},
			writable: true,
		},
		"log.format": {
			get:      func(c *config.Config) any { return c.Log.Format },
			set:      func(c *config.Config, v string) error { c.Log.Format = v; return nil },
			writable: true,
		},
		"tui.title_lines": {
			get: func(c *config.Config) any { return c.TitleLines() },
			set: func(c *config.Config, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput,
						"invalid tui.title_lines %q: must be an integer", v)
				}
				c.TUI.TitleLines = n
				return nil // validation handles range check
			},
			writable: true,
		},
		"timezone": {
			get:      func(c *config.Config) any { return c.Location().String() },
			set:      func(c *config.Config, v string) error { c.Timezone = v; return nil },
			writable: true,
		},
	}
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.timeout",
		"auth.token",
		"statuses",
		"sync.rollback_on_move_failure",
		"log.level",
		"log.format",
		"tui.title_lines",
		"timezone",
	}
}

// maskToken hides all but the last four characters of a credential.
func maskToken(token string) string {
	const visible = 4
	switch {
	case token == "":
		return ""
	case len(token) <= visible:
		return strings.Repeat("*", len(token))
	default:
		return strings.Repeat("*", 8) + token[len(token)-visible:] //nolint:mnd // fixed mask width
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		m["dir"] = cfg.Dir()
		return output.JSON(os.Stdout, m)
	}

	for _, key := range allConfigKeys() {
		val := accessors[key].get(cfg)
		fmt.Fprintf(os.Stdout, "%-30s %v\n", key, formatConfigValue(val))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key := args[0]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}

	val := acc.get(cfg)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}

	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	dir, err := resolveDir()
	if err != nil {
		return err
	}
	// Read the file without environment overrides so they are not saved.
	cfg, err := config.LoadFile(dir)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	if err := acc.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return clierr.Wrap(clierr.InvalidInput, err, err.Error())
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}

	output.Messagef(os.Stdout, "Set %s = %v", key, formatConfigValue(acc.get(cfg)))
	return nil
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case []string:
		return strings.Join(v, ", ")
	case string:
		if v == "" {
			return "--"
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
