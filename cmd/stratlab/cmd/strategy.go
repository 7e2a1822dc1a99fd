package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stratlab/strategy"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage trading strategies",
}

var strategyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all strategies",
	RunE:  runStrategyList,
}

var (
	createName        string
	createDeveloper   string
	createDescription string
	createEntryLogic  string
	createExitLogic   string
	createIndicators  []string
)

var strategyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new strategy",
	Long: `Create a strategy from flags. Indicators take the form name=code
and may be repeated.

Example:
  stratlab strategy create --name "MA Cross" --developer alice \
    --indicator "sma20=sma(close, 20)" --indicator "sma50=sma(close, 50)" \
    --entry "indicators.sma20 > indicators.sma50" \
    --exit "indicators.sma20 < indicators.sma50"`,
	RunE: runStrategyCreate,
}

var strategyValidateCmd = &cobra.Command{
	Use:   "validate <id>",
	Short: "Mark a strategy as validated",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrategyValidate,
}

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategyListCmd)
	strategyCmd.AddCommand(strategyCreateCmd)
	strategyCmd.AddCommand(strategyValidateCmd)

	strategyCreateCmd.Flags().StringVarP(&createName, "name", "n", "", "strategy name (required)")
	strategyCreateCmd.Flags().StringVar(&createDeveloper, "developer", "", "developer name (required)")
	strategyCreateCmd.Flags().StringVar(&createDescription, "description", "", "strategy description")
	strategyCreateCmd.Flags().StringVar(&createEntryLogic, "entry", "", "entry logic text")
	strategyCreateCmd.Flags().StringVar(&createExitLogic, "exit", "", "exit logic text")
	strategyCreateCmd.Flags().StringArrayVar(&createIndicators, "indicator", nil, "indicator as name=code (repeatable)")

	strategyCreateCmd.MarkFlagRequired("name")
	strategyCreateCmd.MarkFlagRequired("developer")
}

func runStrategyList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, _, closeStore := openStore(cfg)
	defer closeStore()

	if err := st.ListStrategies(context.Background()); err != nil {
		return err
	}

	snapshot := st.Snapshot()
	if len(snapshot.Strategies) == 0 {
		fmt.Println("No strategies.")
		return nil
	}

	for _, s := range snapshot.Strategies {
		status := "draft"
		if s.IsValid {
			status = "validated"
		}
		fmt.Printf("%s  %-24s  %-12s  %s  (%d indicators)\n",
			s.ID, s.Metadata.Name, s.Metadata.Developer, status, len(s.Indicators))
	}
	return nil
}

func runStrategyCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	indicators := make([]strategy.Indicator, 0, len(createIndicators))
	for _, spec := range createIndicators {
		name, code, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("bad indicator %q (want name=code)", spec)
		}
		indicators = append(indicators, strategy.Indicator{
			Name: strings.TrimSpace(name),
			Code: code,
		})
	}

	st, _, closeStore := openStore(cfg)
	defer closeStore()

	created, err := st.CreateStrategy(context.Background(), strategy.Strategy{
		Metadata: strategy.StrategyMetadata{
			Name:        createName,
			Developer:   createDeveloper,
			Description: createDescription,
		},
		Indicators: indicators,
		EntryLogic: createEntryLogic,
		ExitLogic:  createExitLogic,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created strategy %s (%s)\n", created.Metadata.Name, created.ID)
	return nil
}

func runStrategyValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, _, closeStore := openStore(cfg)
	defer closeStore()

	validated, err := st.ValidateStrategy(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Strategy %s (%s) is now validated\n", validated.Metadata.Name, validated.ID)
	return nil
}
