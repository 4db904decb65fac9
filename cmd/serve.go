package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/logging"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
	"github.com/twiced-technology-gmbh/protodo/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference task store",
	Long: `Serves the boards and tasks REST API the client synchronizes against,
backed by sqlite or postgres. Settings come from --config (TOML) and the
PROTODO_SERVER_ADDR, PROTODO_DB_DRIVER, PROTODO_DB_DSN and PROTODO_JWT_SECRET
environment variables.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveTokenCmd = &cobra.Command{
	Use:   "token EMAIL",
	Short: "Mint a bearer token for a user of the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runServeToken,
}

func init() {
	serveCmd.PersistentFlags().StringP("config", "c", "", "path to server.toml")
	serveCmd.AddCommand(serveTokenCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadServerConfig(cmd *cobra.Command) (server.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := server.LoadConfig(path)
	if err != nil {
		return cfg, clierr.Wrap(clierr.InvalidInput, err, err.Error())
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, logging.Options{
		Level:           cfg.Log.Level,
		Format:          cfg.Log.Format,
		Prefix:          "store",
		ReportTimestamp: true,
	})

	srv, err := server.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.ListenAndServe(cmd.Context())
}

func runServeToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return err
	}
	ttl, err := cfg.TokenTTL()
	if err != nil {
		return err
	}
	token, err := server.NewAuth(cfg.Auth.Secret, ttl).Mint(args[0])
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{"email": args[0], "token": token, "expires_in": ttl.String()})
	}
	fmt.Fprintln(os.Stdout, token)
	return nil
}
