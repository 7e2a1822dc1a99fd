package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stratlab/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest against a strategy",
	Long: `Backtest runs the synthetic result generator against a validated
strategy and prints the summary.

Example:
  stratlab backtest --strategy 01J0ABCXYZ --start 2023-01-01 --end 2023-12-31 \
    --capital 10000 --symbol BTCUSDT --timeframe 1D`,
	RunE: runBacktestCmd,
}

var (
	btStrategyID string
	btStart      string
	btEnd        string
	btCapital    float64
	btSymbol     string
	btTimeframe  string
	btMode       string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btStrategyID, "strategy", "s", "", "strategy id (required)")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "window start, YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "window end, YYYY-MM-DD (required)")
	backtestCmd.Flags().Float64VarP(&btCapital, "capital", "c", 10_000, "initial capital")
	backtestCmd.Flags().StringVar(&btSymbol, "symbol", "BTCUSDT", "symbol")
	backtestCmd.Flags().StringVar(&btTimeframe, "timeframe", "1D", "timeframe")
	backtestCmd.Flags().StringVar(&btMode, "mode", "backtest", "run mode (demo, backtest, live)")

	backtestCmd.MarkFlagRequired("strategy")
	backtestCmd.MarkFlagRequired("start")
	backtestCmd.MarkFlagRequired("end")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", btStart)
	if err != nil {
		return fmt.Errorf("bad start date %q: %w", btStart, err)
	}
	end, err := time.Parse("2006-01-02", btEnd)
	if err != nil {
		return fmt.Errorf("bad end date %q: %w", btEnd, err)
	}

	btCfg := strategy.BacktestConfig{
		StrategyID:     btStrategyID,
		StartDate:      start,
		EndDate:        end,
		InitialCapital: btCapital,
		Symbol:         btSymbol,
		Timeframe:      btTimeframe,
	}
	switch btMode {
	case "demo":
		btCfg.IsDemo = true
	case "backtest":
		btCfg.IsBacktest = true
	case "live":
		btCfg.IsLive = true
	default:
		return fmt.Errorf("unknown mode %q (want demo, backtest, or live)", btMode)
	}
	if err := btCfg.Validate(); err != nil {
		return err
	}

	st, _, closeStore := openStore(cfg)
	defer closeStore()

	result, err := st.RunBacktest(context.Background(), btCfg)
	if err != nil {
		return err
	}

	fmt.Printf("Backtest complete for %s (%s)\n", btSymbol, btStrategyID)
	fmt.Printf("  Trades:            %d\n", len(result.Trades))
	fmt.Printf("  Total Return:      %.2f%%\n", result.TotalReturn*100)
	fmt.Printf("  Annualized Return: %.2f%%\n", result.AnnualizedReturn*100)
	fmt.Printf("  Max Drawdown:      %.2f%%\n", result.MaxDrawdown*100)
	fmt.Printf("  Sharpe Ratio:      %.2f\n", result.SharpeRatio)
	fmt.Printf("  Final Equity:      $%.2f\n", result.EquityCurve[len(result.EquityCurve)-1].Equity)
	return nil
}
