package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"stratlab/backtest"
	"stratlab/config"
	"stratlab/pkg/logging"
	"stratlab/storage"
	"stratlab/store"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "stratlab",
	Short: "Author trading strategies and run synthetic backtests",
	Long: `Stratlab is a strategy authoring and backtesting lab.

It provides tools for:
  - Authoring strategies (metadata, indicators, entry/exit logic)
  - Validating strategies before they can be traded
  - Running synthetic backtests that produce trades, an equity curve,
    and summary metrics
  - Serving the strategy store to the web UI over HTTP

Strategy logic and indicator code are stored as opaque text; the lab
never executes them, and backtest output is synthetic by design.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, cfg.Validate()
}

// openStore builds the store stack from config. The returned closer releases
// the storage backend.
func openStore(cfg *config.Config) (*store.Store, *slog.Logger, func()) {
	log := logging.New(cfg.Log.Level)
	kv := storage.Open(cfg.Storage.Path, log)
	st := store.New(kv, backtest.New(cfg.Backtest.ReferencePrices), nil, log)
	return st, log, func() { _ = kv.Close() }
}
