// Package backtest synthesizes backtest results. There is no pricing or
// execution engine behind it: output is structurally valid (ordering, counts,
// ranges, profit arithmetic) but intentionally randomized, standing in for a
// real simulator the platform does not ship yet.
package backtest

import (
	"fmt"
	"sort"
	"time"

	"stratlab/strategy"
)

const (
	minTrades = 10
	maxTrades = 19

	// The equity curve samples the window at 31 evenly spaced points
	// (start plus 30 steps). Consumers rely on the fixed length.
	equityPoints = 31

	refPriceMin = 10000
	refPriceMax = 50000
)

// Generator produces synthetic backtest results. A symbol listed in prices
// uses that value as its reference price; any other symbol gets a reference
// drawn uniformly from [10000, 50000).
type Generator struct {
	prices map[string]float64
}

// New creates a Generator with the given per-symbol reference prices.
// prices may be nil.
func New(prices map[string]float64) *Generator {
	return &Generator{prices: prices}
}

// Generate synthesizes a result for cfg, drawing all randomness from rng.
//
// Summary metrics are independent draws, not derived from the trade list or
// the equity curve. That decoupling matches the platform's current product
// behavior and is kept deliberately.
func (g *Generator) Generate(cfg strategy.BacktestConfig, rng RandomSource) (strategy.BacktestResult, error) {
	if !cfg.StartDate.Before(cfg.EndDate) {
		return strategy.BacktestResult{}, fmt.Errorf("backtest window is empty: start %s, end %s",
			cfg.StartDate.Format(time.RFC3339), cfg.EndDate.Format(time.RFC3339))
	}
	if cfg.InitialCapital <= 0 {
		return strategy.BacktestResult{}, fmt.Errorf("initial capital must be positive, got %v", cfg.InitialCapital)
	}

	ref, ok := g.prices[cfg.Symbol]
	if !ok {
		ref = refPriceMin + rng.Float64()*(refPriceMax-refPriceMin)
	}

	return strategy.BacktestResult{
		StrategyID:       cfg.StrategyID,
		TotalReturn:      rng.Float64() * 0.5,
		AnnualizedReturn: rng.Float64() * 0.3,
		MaxDrawdown:      rng.Float64() * 0.2,
		SharpeRatio:      0.5 + rng.Float64()*2.5,
		Trades:           makeTrades(cfg, rng, ref),
		EquityCurve:      makeEquityCurve(cfg, rng),
		RunDate:          time.Now().UTC(),
		Symbol:           cfg.Symbol,
	}, nil
}

func makeTrades(cfg strategy.BacktestConfig, rng RandomSource, refPrice float64) []strategy.BacktestTrade {
	count := minTrades + rng.Intn(maxTrades-minTrades+1)
	window := cfg.EndDate.Sub(cfg.StartDate)

	trades := make([]strategy.BacktestTrade, 0, count)
	for i := 0; i < count; i++ {
		// Entries land in the first 80% of the window so every trade
		// has room to exit before the window closes.
		entryDate := cfg.StartDate.Add(time.Duration(rng.Float64() * 0.8 * float64(window)))
		exitDate := entryDate.Add(time.Duration(rng.Float64() * float64(cfg.EndDate.Sub(entryDate))))

		direction := strategy.Long
		if rng.Intn(2) == 1 {
			direction = strategy.Short
		}

		entryPrice := refPrice * (1 + (rng.Float64()*0.4 - 0.2))
		exitPrice := entryPrice * (1 + (rng.Float64()*0.3 - 0.15))

		profit := exitPrice - entryPrice
		if direction == strategy.Short {
			profit = entryPrice - exitPrice
		}

		trades = append(trades, strategy.BacktestTrade{
			EntryDate:        entryDate,
			EntryPrice:       entryPrice,
			ExitDate:         exitDate,
			ExitPrice:        exitPrice,
			Profit:           profit,
			ProfitPercentage: profit / entryPrice,
			Direction:        direction,
		})
	}

	// Ascending entry date is a contract with consumers, not cosmetics.
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].EntryDate.Before(trades[j].EntryDate)
	})
	return trades
}

func makeEquityCurve(cfg strategy.BacktestConfig, rng RandomSource) []strategy.EquityPoint {
	step := cfg.EndDate.Sub(cfg.StartDate) / (equityPoints - 1)

	equity := cfg.InitialCapital
	curve := make([]strategy.EquityPoint, 0, equityPoints)
	for i := 0; i < equityPoints; i++ {
		// Point 0 is exactly the initial capital; compounding starts
		// at step 1.
		if i > 0 {
			trend := -1.0
			if rng.Float64() > 0.7 {
				trend = 1.0
			}
			equity *= 1 + trend*rng.Float64()*0.05
		}

		curve = append(curve, strategy.EquityPoint{
			Date:   cfg.StartDate.Add(time.Duration(i) * step),
			Equity: equity,
		})
	}
	return curve
}
