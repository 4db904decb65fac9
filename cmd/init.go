package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/config"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a project-local configuration",
	Long: `Creates a .protodo directory (or --dir) holding config.yml. Commands run
below it use this config instead of the one in the user config directory.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("base-url", config.DefaultBaseURL, "task store base URL")
	initCmd.Flags().String("token", "", "bearer token for the task store")
	initCmd.Flags().StringSlice("statuses", nil, "comma-separated base columns")
	initCmd.Flags().String("timezone", "", "IANA timezone for due dates and history (default: local)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir := flagDir
	if dir == "" {
		dir = config.DefaultDir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if _, err := os.Stat(filepath.Join(absDir, config.ConfigFileName)); err == nil {
		return clierr.Newf(clierr.InvalidInput, "already initialized in %s", absDir).
			WithDetails(map[string]any{"dir": absDir})
	}

	cfg := config.NewDefault()
	cfg.SetDir(absDir)

	baseURL, _ := cmd.Flags().GetString("base-url")
	cfg.API.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.Auth.Token, _ = cmd.Flags().GetString("token")
	cfg.Timezone, _ = cmd.Flags().GetString("timezone")
	if statuses, _ := cmd.Flags().GetStringSlice("statuses"); len(statuses) > 0 {
		cfg.Statuses = statuses
	}

	if err := cfg.Validate(); err != nil {
		return clierr.Wrap(clierr.InvalidInput, err, err.Error())
	}

	const dirMode = 0o750
	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status":   "initialized",
			"dir":      absDir,
			"config":   cfg.ConfigPath(),
			"base_url": cfg.API.BaseURL,
			"columns":  strings.Join(cfg.Statuses, ","),
		})
	}

	output.Messagef(os.Stdout, "Initialized protodo in %s", absDir)
	output.Messagef(os.Stdout, "  Config:  %s", cfg.ConfigPath())
	output.Messagef(os.Stdout, "  Store:   %s", cfg.API.BaseURL)
	output.Messagef(os.Stdout, "  Columns: %s", strings.Join(cfg.Statuses, ", "))
	if cfg.Auth.Token == "" {
		output.Messagef(os.Stdout, "  Hint:    set a token with: protodo config set auth.token TOKEN")
	}
	return nil
}
