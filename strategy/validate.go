package strategy

import (
	"fmt"
	"strings"
)

// CheckDraft validates a strategy draft before creation. Name and developer
// are required, and indicator names must be unique because entry/exit logic
// references indicators by name (indicators.<name>).
func CheckDraft(draft Strategy) error {
	if strings.TrimSpace(draft.Metadata.Name) == "" {
		return fmt.Errorf("strategy name is required")
	}
	if strings.TrimSpace(draft.Metadata.Developer) == "" {
		return fmt.Errorf("strategy developer is required")
	}

	seen := make(map[string]bool, len(draft.Indicators))
	for _, ind := range draft.Indicators {
		name := strings.TrimSpace(ind.Name)
		if name == "" {
			return fmt.Errorf("indicator name is required")
		}
		if seen[name] {
			return fmt.Errorf("duplicate indicator name %q", name)
		}
		seen[name] = true
	}
	return nil
}

// Validate checks a backtest configuration before it is dispatched.
func (c BacktestConfig) Validate() error {
	if c.StrategyID == "" {
		return fmt.Errorf("strategyId is required")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("startDate and endDate are required")
	}
	if !c.StartDate.Before(c.EndDate) {
		return fmt.Errorf("startDate must be before endDate")
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initialCapital must be positive")
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.Timeframe == "" {
		return fmt.Errorf("timeframe is required")
	}

	modes := 0
	for _, on := range []bool{c.IsDemo, c.IsBacktest, c.IsLive} {
		if on {
			modes++
		}
	}
	if modes != 1 {
		return fmt.Errorf("exactly one of isDemo, isBacktest, isLive must be set")
	}
	return nil
}
