package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratlab/backtest"
	"stratlab/storage"
	"stratlab/store"
	"stratlab/strategy"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	kv := storage.NewKV(storage.NewMemory(), slog.Default())
	st := store.New(kv, backtest.New(nil), backtest.NewSeededSource(1), slog.Default())
	srv := httptest.NewServer(NewServer(st, []string{"http://localhost:5173"}, slog.Default()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func draftBody() strategy.Strategy {
	return strategy.Strategy{
		Metadata: strategy.StrategyMetadata{
			Name:      "MA Cross",
			Developer: "alice",
		},
		Indicators: []strategy.Indicator{{Name: "sma20", Code: "sma(close, 20)"}},
		EntryLogic: "indicators.sma20 > close",
		ExitLogic:  "indicators.sma20 < close",
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateValidateBacktestFlow(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/strategies", draftBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[strategy.Strategy](t, resp)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.IsValid)

	resp = postJSON(t, srv.URL+"/api/v1/strategies/"+created.ID+"/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validated := decode[strategy.Strategy](t, resp)
	assert.True(t, validated.IsValid)

	cfg := map[string]any{
		"strategyId":     created.ID,
		"startDate":      "2023-01-01T00:00:00Z",
		"endDate":        "2023-12-31T00:00:00Z",
		"initialCapital": 10000,
		"symbol":         "BTCUSDT",
		"timeframe":      "1D",
		"isBacktest":     true,
	}
	resp = postJSON(t, srv.URL+"/api/v1/backtests", cfg)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[strategy.BacktestResult](t, resp)

	assert.Equal(t, created.ID, result.StrategyID)
	assert.Len(t, result.EquityCurve, 31)
	assert.GreaterOrEqual(t, len(result.Trades), 10)
	assert.LessOrEqual(t, len(result.Trades), 19)

	// Result is retrievable, then clearable.
	resp, err := http.Get(srv.URL + "/api/v1/backtests/result")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/backtests/result", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/backtests/result")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateStrategyRejectsInvalidDraft(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	draft := draftBody()
	draft.Metadata.Developer = ""
	resp := postJSON(t, srv.URL+"/api/v1/strategies", draft)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidateUnknownStrategyReturns404(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/strategies/does-not-exist/validate", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	envelope := decode[map[string]map[string]string](t, resp)
	assert.Equal(t, "NOT_FOUND", envelope["error"]["code"])
}

func TestBacktestValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/strategies", draftBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[strategy.Strategy](t, resp)

	// Two mode flags set.
	cfg := map[string]any{
		"strategyId":     created.ID,
		"startDate":      "2023-01-01T00:00:00Z",
		"endDate":        "2023-12-31T00:00:00Z",
		"initialCapital": 10000,
		"symbol":         "BTCUSDT",
		"timeframe":      "1D",
		"isBacktest":     true,
		"isLive":         true,
	}
	resp = postJSON(t, srv.URL+"/api/v1/backtests", cfg)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown strategy id.
	cfg["isLive"] = false
	cfg["strategyId"] = "does-not-exist"
	resp = postJSON(t, srv.URL+"/api/v1/backtests", cfg)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSelectCurrentStrategy(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/strategies", draftBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[strategy.Strategy](t, resp)

	// Deselect with JSON null.
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/strategies/current",
		bytes.NewReader([]byte("null")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	state, err := http.Get(srv.URL + "/api/v1/state")
	require.NoError(t, err)
	snap := decode[store.State](t, state)
	assert.Nil(t, snap.CurrentStrategy)

	// Reselect.
	raw, err := json.Marshal(created)
	require.NoError(t, err)
	req, err = http.NewRequest(http.MethodPut, srv.URL+"/api/v1/strategies/current",
		bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	state, err = http.Get(srv.URL + "/api/v1/state")
	require.NoError(t, err)
	snap = decode[store.State](t, state)
	require.NotNil(t, snap.CurrentStrategy)
	assert.Equal(t, created.ID, snap.CurrentStrategy.ID)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/strategies", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173",
		resp.Header.Get("Access-Control-Allow-Origin"))
}
