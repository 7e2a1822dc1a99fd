package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stratlab/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the strategy store over HTTP",
	Long: `Serve starts the HTTP API the web UI talks to.

Example:
  stratlab serve --config ./stratlab.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, log, closeStore := openStore(cfg)
	defer closeStore()

	srv := api.NewServer(st, cfg.Server.CORSOrigins, log)
	if err := srv.Run(cfg.Server.Addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
