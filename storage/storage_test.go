package storage

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratlab/strategy"
)

func newTestKV(t *testing.T) (*KV, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	backend, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	return NewKV(backend, slog.Default()), path
}

func TestReadMissingKeyReturnsDefault(t *testing.T) {
	t.Parallel()

	kv, _ := newTestKV(t)

	got := Read(kv, "nope", []strategy.Strategy{})
	assert.Empty(t, got)

	assert.Equal(t, 42, Read(kv, "nope", 42))
}

func TestRoundTripStrategies(t *testing.T) {
	t.Parallel()

	kv, _ := newTestKV(t)

	created := time.Date(2023, 6, 1, 9, 30, 0, 0, time.UTC)
	strategies := []strategy.Strategy{
		{
			ID: "s1",
			Metadata: strategy.StrategyMetadata{
				Name:      "MA Cross",
				Developer: "alice",
				CreatedAt: created,
				UpdatedAt: created,
			},
			Indicators: []strategy.Indicator{
				{Name: "sma20", Code: "sma(close, 20)", IsSystemBuiltin: true},
			},
			EntryLogic: "indicators.sma20 > close",
			ExitLogic:  "indicators.sma20 < close",
			IsValid:    true,
		},
	}

	Write(kv, "strategies", strategies)

	got := Read(kv, "strategies", []strategy.Strategy{})
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	assert.True(t, got[0].Metadata.CreatedAt.Equal(created))
	assert.Equal(t, strategies[0].Indicators, got[0].Indicators)
	assert.True(t, got[0].IsValid)
}

func TestRoundTripBacktestResult(t *testing.T) {
	t.Parallel()

	kv, _ := newTestKV(t)

	run := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	result := &strategy.BacktestResult{
		StrategyID:       "s1",
		TotalReturn:      0.42,
		AnnualizedReturn: 0.12,
		MaxDrawdown:      0.08,
		SharpeRatio:      1.9,
		Trades: []strategy.BacktestTrade{
			{
				EntryDate:        run.AddDate(0, -3, 0),
				EntryPrice:       25000,
				ExitDate:         run.AddDate(0, -2, 0),
				ExitPrice:        27000,
				Profit:           2000,
				ProfitPercentage: 0.08,
				Direction:        strategy.Long,
			},
		},
		EquityCurve: []strategy.EquityPoint{
			{Date: run.AddDate(0, -3, 0), Equity: 10000},
			{Date: run.AddDate(0, -2, 0), Equity: 10500},
		},
		RunDate: run,
		Symbol:  "BTCUSDT",
	}

	Write(kv, "backtest_results", result)

	got := Read[*strategy.BacktestResult](kv, "backtest_results", nil)
	require.NotNil(t, got)
	assert.Equal(t, result.StrategyID, got.StrategyID)
	assert.InDelta(t, result.SharpeRatio, got.SharpeRatio, 1e-9)
	require.Len(t, got.Trades, 1)
	assert.True(t, got.Trades[0].EntryDate.Equal(result.Trades[0].EntryDate))
	assert.Equal(t, strategy.Long, got.Trades[0].Direction)
	require.Len(t, got.EquityCurve, 2)
	assert.True(t, got.RunDate.Equal(run))
}

func TestValueSurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.db")

	backend, err := OpenSQLite(path)
	require.NoError(t, err)
	kv := NewKV(backend, slog.Default())
	Write(kv, "current_strategy", &strategy.Strategy{ID: "s9"})
	require.NoError(t, kv.Close())

	backend, err = OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	kv = NewKV(backend, slog.Default())

	got := Read[*strategy.Strategy](kv, "current_strategy", nil)
	require.NotNil(t, got)
	assert.Equal(t, "s9", got.ID)
}

func TestCorruptPayloadFallsBackToDefault(t *testing.T) {
	t.Parallel()

	kv, _ := newTestKV(t)

	require.NoError(t, kv.backend.Put("strategies", []byte("{not json")))

	got := Read(kv, "strategies", []strategy.Strategy{{ID: "fallback"}})
	require.Len(t, got, 1)
	assert.Equal(t, "fallback", got[0].ID)
}

// failingBackend simulates an unreachable or erroring store.
type failingBackend struct {
	probe bool
}

func (f *failingBackend) Probe() bool { return f.probe }

func (f *failingBackend) Get(string) ([]byte, bool, error) {
	return nil, false, errors.New("boom")
}

func (f *failingBackend) Put(string, []byte) error {
	return errors.New("boom")
}

func (f *failingBackend) Close() error { return nil }

func TestFailuresNeverEscape(t *testing.T) {
	t.Parallel()

	unreachable := NewKV(&failingBackend{probe: false}, slog.Default())
	assert.Equal(t, "def", Read(unreachable, "k", "def"))
	Write(unreachable, "k", "v") // must not panic

	erroring := NewKV(&failingBackend{probe: true}, slog.Default())
	assert.Equal(t, "def", Read(erroring, "k", "def"))
	Write(erroring, "k", "v")
}

func TestOpenFallsBackToMemory(t *testing.T) {
	t.Parallel()

	// A directory path is not a usable SQLite file.
	kv := Open(t.TempDir(), slog.Default())
	t.Cleanup(func() { _ = kv.Close() })

	Write(kv, "k", "v")
	assert.Equal(t, "v", Read(kv, "k", ""))
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	buf := []byte(`"hello"`)
	require.NoError(t, m.Put("k", buf))
	buf[1] = 'X'

	got, found, err := m.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"hello"`, string(got))
}
