// Package strategy defines the domain model for user-authored trading
// strategies and their backtest results.
//
// JSON field names are part of the persistence contract: payloads written by
// earlier versions of the platform use these exact camelCase names, so the
// tags here must not change.
package strategy

import "time"

// Direction is the side of a trade.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// StrategyMetadata carries the descriptive fields of a strategy. CreatedAt
// and UpdatedAt are stamped by the store on creation, never by callers.
type StrategyMetadata struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Developer   string    `json:"developer"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Indicator is a named computational building block referenced by entry/exit
// logic. Code is opaque text; the platform stores it but never executes it.
type Indicator struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Code            string `json:"code"`
	IsSystemBuiltin bool   `json:"isSystemBuiltin"`
}

// Strategy is a user-authored trading rule set. ID is empty only on drafts;
// once the store assigns one it never changes. IsValid starts false and only
// ever transitions to true, via the store's validate operation.
type Strategy struct {
	ID         string           `json:"id,omitempty"`
	Metadata   StrategyMetadata `json:"metadata"`
	Indicators []Indicator      `json:"indicators"`
	EntryLogic string           `json:"entryLogic"`
	ExitLogic  string           `json:"exitLogic"`
	IsValid    bool             `json:"isValid"`
}

// Clone returns a deep copy of the strategy.
func (s Strategy) Clone() Strategy {
	out := s
	if s.Indicators != nil {
		out.Indicators = make([]Indicator, len(s.Indicators))
		copy(out.Indicators, s.Indicators)
	}
	return out
}

// BacktestConfig describes one backtest submission. Exactly one of the three
// mode flags is expected to be set; Validate enforces that at the API
// boundary.
type BacktestConfig struct {
	StrategyID     string    `json:"strategyId"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	InitialCapital float64   `json:"initialCapital"`
	Symbol         string    `json:"symbol"`
	Timeframe      string    `json:"timeframe"`
	IsDemo         bool      `json:"isDemo"`
	IsBacktest     bool      `json:"isBacktest"`
	IsLive         bool      `json:"isLive"`
}

// BacktestTrade is one simulated round-trip trade.
type BacktestTrade struct {
	EntryDate        time.Time `json:"entryDate"`
	EntryPrice       float64   `json:"entryPrice"`
	ExitDate         time.Time `json:"exitDate"`
	ExitPrice        float64   `json:"exitPrice"`
	Profit           float64   `json:"profit"`
	ProfitPercentage float64   `json:"profitPercentage"`
	Direction        Direction `json:"direction"`
}

// EquityPoint is one sample of the simulated portfolio value.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// BacktestResult holds everything one backtest run produced. Trades are
// sorted ascending by entry date and the equity curve ascending by date;
// both orderings are part of the contract with consumers.
type BacktestResult struct {
	StrategyID       string          `json:"strategyId"`
	TotalReturn      float64         `json:"totalReturn"`
	AnnualizedReturn float64         `json:"annualizedReturn"`
	MaxDrawdown      float64         `json:"maxDrawdown"`
	SharpeRatio      float64         `json:"sharpeRatio"`
	Trades           []BacktestTrade `json:"trades"`
	EquityCurve      []EquityPoint   `json:"equityCurve"`
	RunDate          time.Time       `json:"runDate,omitempty"`
	Symbol           string          `json:"symbol,omitempty"`
}
