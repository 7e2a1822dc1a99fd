// Package store is the single process-wide state container for strategies
// and backtest results. Every mutation goes through a named operation with an
// explicit pending/fulfilled/rejected lifecycle; fulfilled mutations write
// through to persistence before the operation returns.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stratlab/backtest"
	"stratlab/pkg/id"
	"stratlab/storage"
	"stratlab/strategy"
)

// Persisted keys. These names are a compatibility surface with data written
// by earlier versions of the platform and must not change.
const (
	keyStrategies      = "strategies"
	keyCurrentStrategy = "current_strategy"
	keyBacktestResults = "backtest_results"
)

// ErrNotFound is returned when an operation references a strategy id that is
// not in the persisted collection.
var ErrNotFound = errors.New("strategy not found")

// Status says whether an operation is currently in flight.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
)

// State is the store's observable state. Snapshot returns deep copies, so
// callers can hold one across operations without racing the store.
type State struct {
	Strategies      []strategy.Strategy      `json:"strategies"`
	CurrentStrategy *strategy.Strategy       `json:"currentStrategy"`
	BacktestResult  *strategy.BacktestResult `json:"backtestResult"`
	Status          Status                   `json:"status"`
	Err             string                   `json:"error,omitempty"`
}

// Store coordinates all strategy and backtest state. The persisted collection
// is the source of truth: async operations read it through storage, compute,
// then commit to in-memory state and persistence together.
type Store struct {
	mu  sync.Mutex
	kv  *storage.KV
	gen *backtest.Generator
	rng backtest.RandomSource
	log *slog.Logger

	state State
}

// New creates a Store hydrated from the persisted keys. A nil rng defaults to
// a crypto-seeded source; a nil logger defaults to slog.Default().
func New(kv *storage.KV, gen *backtest.Generator, rng backtest.RandomSource, log *slog.Logger) *Store {
	if rng == nil {
		rng = backtest.NewSource()
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Store{kv: kv, gen: gen, rng: rng, log: log}
	s.state = State{
		Strategies:      storage.Read(kv, keyStrategies, []strategy.Strategy{}),
		CurrentStrategy: storage.Read[*strategy.Strategy](kv, keyCurrentStrategy, nil),
		BacktestResult:  storage.Read[*strategy.BacktestResult](kv, keyBacktestResults, nil),
		Status:          StatusIdle,
	}
	s.log.Info("store hydrated", "strategies", len(s.state.Strategies))
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// run drives one async operation through its lifecycle: pending marks the
// store loading and clears the previous error; the body computes against
// persistence without holding the lock; fulfilled applies the commit under
// the lock, rejected records the error and leaves prior state intact.
func (s *Store) run(op string, body func() (func(st *State), error)) error {
	s.mu.Lock()
	s.state.Status = StatusLoading
	s.state.Err = ""
	s.mu.Unlock()

	apply, err := body()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = StatusIdle

	if err != nil {
		s.state.Err = err.Error()
		s.log.Warn("operation rejected", "op", op, "error", err)
		return err
	}

	if apply != nil {
		apply(&s.state)
	}
	s.log.Debug("operation fulfilled", "op", op)
	return nil
}

// ListStrategies refreshes the in-memory collection from persistence and
// mirrors it back.
func (s *Store) ListStrategies(ctx context.Context) error {
	return s.run("listStrategies", func() (func(*State), error) {
		strategies := storage.Read(s.kv, keyStrategies, []strategy.Strategy{})
		return func(st *State) {
			st.Strategies = strategies
			storage.Write(s.kv, keyStrategies, strategies)
		}, nil
	})
}

// CreateStrategy assigns the draft a fresh id, stamps its timestamps, marks
// it not yet validated, appends it to the collection, and selects it as the
// current strategy.
func (s *Store) CreateStrategy(ctx context.Context, draft strategy.Strategy) (strategy.Strategy, error) {
	var created strategy.Strategy

	err := s.run("createStrategy", func() (func(*State), error) {
		if err := strategy.CheckDraft(draft); err != nil {
			return nil, fmt.Errorf("create strategy: %w", err)
		}

		now := time.Now().UTC()
		created = draft.Clone()
		created.ID = id.NewAt(now)
		created.Metadata.CreatedAt = now
		created.Metadata.UpdatedAt = now
		created.IsValid = false

		strategies := storage.Read(s.kv, keyStrategies, []strategy.Strategy{})
		strategies = append(strategies, created)

		return func(st *State) {
			st.Strategies = strategies
			current := created.Clone()
			st.CurrentStrategy = &current
			storage.Write(s.kv, keyStrategies, strategies)
			storage.Write(s.kv, keyCurrentStrategy, &created)
		}, nil
	})

	return created, err
}

// ValidateStrategy marks the strategy valid. Validation is monotonic: it
// never flips a strategy back to invalid, and re-validating an already valid
// strategy is a no-op success.
func (s *Store) ValidateStrategy(ctx context.Context, strategyID string) (strategy.Strategy, error) {
	var validated strategy.Strategy

	err := s.run("validateStrategy", func() (func(*State), error) {
		strategies := storage.Read(s.kv, keyStrategies, []strategy.Strategy{})

		idx := -1
		for i := range strategies {
			if strategies[i].ID == strategyID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, fmt.Errorf("validate strategy %q: %w", strategyID, ErrNotFound)
		}

		strategies[idx].IsValid = true
		validated = strategies[idx].Clone()

		return func(st *State) {
			for i := range st.Strategies {
				if st.Strategies[i].ID == validated.ID {
					st.Strategies[i] = validated.Clone()
					break
				}
			}
			current := validated.Clone()
			st.CurrentStrategy = &current
			storage.Write(s.kv, keyStrategies, strategies)
			storage.Write(s.kv, keyCurrentStrategy, &validated)
		}, nil
	})

	return validated, err
}

// RunBacktest generates a result for cfg and stores it in the single result
// slot, replacing whatever run came before regardless of strategy. Concurrent
// runs are not de-duplicated; the last fulfilled write wins.
func (s *Store) RunBacktest(ctx context.Context, cfg strategy.BacktestConfig) (strategy.BacktestResult, error) {
	var result strategy.BacktestResult

	err := s.run("runBacktest", func() (func(*State), error) {
		strategies := storage.Read(s.kv, keyStrategies, []strategy.Strategy{})

		known := false
		for i := range strategies {
			if strategies[i].ID == cfg.StrategyID {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("run backtest for %q: %w", cfg.StrategyID, ErrNotFound)
		}

		var err error
		result, err = s.gen.Generate(cfg, s.rng)
		if err != nil {
			return nil, fmt.Errorf("run backtest: %w", err)
		}

		return func(st *State) {
			r := result
			st.BacktestResult = &r
			storage.Write(s.kv, keyBacktestResults, &result)
		}, nil
	})

	return result, err
}

// SelectCurrentStrategy sets (or clears, with nil) the current strategy. It
// is synchronous, always succeeds, and persists immediately.
func (s *Store) SelectCurrentStrategy(sel *strategy.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sel == nil {
		s.state.CurrentStrategy = nil
	} else {
		current := sel.Clone()
		s.state.CurrentStrategy = &current
	}
	storage.Write(s.kv, keyCurrentStrategy, s.state.CurrentStrategy)
}

// ClearBacktestResult empties the result slot. Synchronous, always succeeds,
// persists immediately.
func (s *Store) ClearBacktestResult() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.BacktestResult = nil
	storage.Write[*strategy.BacktestResult](s.kv, keyBacktestResults, nil)
}

func (st State) clone() State {
	out := st

	out.Strategies = make([]strategy.Strategy, len(st.Strategies))
	for i := range st.Strategies {
		out.Strategies[i] = st.Strategies[i].Clone()
	}

	if st.CurrentStrategy != nil {
		current := st.CurrentStrategy.Clone()
		out.CurrentStrategy = &current
	}

	if st.BacktestResult != nil {
		r := *st.BacktestResult
		r.Trades = append([]strategy.BacktestTrade(nil), st.BacktestResult.Trades...)
		r.EquityCurve = append([]strategy.EquityPoint(nil), st.BacktestResult.EquityCurve...)
		out.BacktestResult = &r
	}

	return out
}
