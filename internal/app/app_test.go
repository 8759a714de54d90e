package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/stockscreen/internal/collector"
	"github.com/newthinker/stockscreen/internal/config"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/export"
	"github.com/newthinker/stockscreen/internal/indicator"
	"github.com/newthinker/stockscreen/internal/storage"
	"github.com/newthinker/stockscreen/internal/storage/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCollector struct {
	name     string
	universe []core.Instrument
	failing  map[string]bool
	fetched  []string
}

func (m *mockCollector) Name() string                    { return m.name }
func (m *mockCollector) SupportedMarkets() []core.Market { return []core.Market{core.MarketSH} }
func (m *mockCollector) Init(cfg collector.Config) error { return nil }
func (m *mockCollector) FetchUniverse(ctx context.Context) ([]core.Instrument, error) {
	return m.universe, nil
}
func (m *mockCollector) FetchHistory(ctx context.Context, code string, kind core.PeriodKind, start, end time.Time) (core.Series, error) {
	m.fetched = append(m.fetched, code+"/"+string(kind))
	if m.failing[code] {
		return core.Series{}, errors.New("vendor timeout")
	}
	bars := history(400)
	if kind == core.PeriodWeekly {
		bars = indicator.Weekly(bars)
	}
	return core.Series{Code: code, Kind: kind, Bars: bars}, nil
}

func history(n int) []core.Bar {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, n)
	for i := range bars {
		c := 10 + float64(i)*0.01
		bars[i] = core.Bar{
			Time:         start.AddDate(0, 0, i),
			Open:         c,
			High:         c + 0.1,
			Low:          c - 0.1,
			Close:        c,
			Volume:       int64(100_000 + i*100),
			TurnoverRate: 4,
		}
	}
	return bars
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage.DSN = storage.MemoryDSN
	cfg.Export.Path = t.TempDir()
	cfg.Collector.Provider = "mock"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func TestApp_New(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	stats := app.GetStats()
	if stats["running"].(bool) {
		t.Error("new app should not be running")
	}
	assert.Equal(t, []string{"eastmoney"}, stats["collectors"], "eastmoney is registered by default")
	assert.Equal(t, 10, stats["strategies"])
	assert.Equal(t, true, stats["export"])
	assert.Equal(t, 0, stats["cached_series"])
	assert.NotNil(t, app.Writer())
	assert.NotNil(t, app.Metrics())
}

func TestApp_NewInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Screen.Kinds = []string{"fortnight"}

	_, err := New(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))

	cfg = testConfig(t)
	cfg.Strategies = map[string]config.StrategyConfig{"no_such_strategy": {Enabled: true}}
	_, err = New(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, core.ErrUnknownStrategy))
}

func TestApp_DisabledStrategyAndNoExport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Type = ""
	cfg.Storage.CacheSize = 0
	cfg.Strategies = map[string]config.StrategyConfig{"ma_bull_stack": {Enabled: false}}
	app := newTestApp(t, cfg)

	stats := app.GetStats()
	assert.Equal(t, 9, stats["strategies"])
	assert.Equal(t, false, stats["export"])
	assert.NotContains(t, stats, "cached_series")
	assert.Nil(t, app.Writer())
}

func TestApp_Fetch(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	mc := &mockCollector{
		name:     "mock",
		universe: []core.Instrument{{Code: "600519", Name: "Moutai"}, {Code: "000001"}},
		failing:  map[string]bool{"000001": true},
	}
	app.RegisterCollector(mc)

	stats, err := app.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Instruments)
	assert.Equal(t, 2, stats.Series)
	assert.Equal(t, 2, stats.Failed)
	assert.False(t, stats.Cancelled)

	universe, err := app.Series().Universe(context.Background())
	require.NoError(t, err)
	assert.Len(t, universe, 2)

	daily, err := app.Series().Load(context.Background(), "600519", core.PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, 400, daily.Len())

	_, err = app.Series().Load(context.Background(), "000001", core.PeriodDaily)
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestApp_FetchConfiguredUniverse(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collector.Universe = []string{"600519"}
	app := newTestApp(t, cfg)
	mc := &mockCollector{name: "mock", universe: []core.Instrument{{Code: "000001"}}}
	app.RegisterCollector(mc)

	_, err := app.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"600519/day", "600519/week"}, mc.fetched)

	universe, err := app.Series().Universe(context.Background())
	require.NoError(t, err)
	require.Len(t, universe, 1)
	assert.Equal(t, core.MarketSH, universe[0].Market)
}

func TestApp_FetchUnknownCollector(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	_, err := app.Fetch(context.Background())
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestApp_FetchCancelled(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	app.RegisterCollector(&mockCollector{name: "mock", universe: []core.Instrument{{Code: "600519"}}})
	app.Gate().Cancel()

	stats, err := app.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Cancelled)
	assert.Equal(t, 0, stats.Series)
}

func TestApp_Screen(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, testConfig(t))
	app.RegisterCollector(&mockCollector{name: "mock", universe: []core.Instrument{{Code: "600519"}, {Code: "000001"}}})

	_, err := app.Fetch(ctx)
	require.NoError(t, err)

	reports, err := app.Screen(ctx, nil)
	require.NoError(t, err)
	require.Len(t, reports, 10)
	for _, rep := range reports {
		assert.Equal(t, 2, rep.Evaluated, rep.Strategy)
		assert.Equal(t, 0, rep.Skipped, rep.Strategy)
		assert.Equal(t, "2024-02-05", rep.Date, rep.Strategy)
	}

	files, err := app.Writer().List(ctx, "2024-02-05")
	require.NoError(t, err)
	assert.Len(t, files, 10, "one export per strategy, empty lists included")
	assert.Contains(t, files, export.Path("2024-02-05", core.PeriodDaily, "ma_bull_stack"))

	reports, err = app.Screen(ctx, []string{"ma_bull_stack"})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	// a steady uptrend stacks every average
	assert.Len(t, reports[0].Passed, 2)
	saved, err := app.Results().List(ctx, result.ListFilter{Strategy: "ma_bull_stack"})
	require.NoError(t, err)
	assert.Len(t, saved, 2, "repeated runs do not duplicate results")
}

func TestApp_ScreenTargetInstrument(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Screen.TargetInstrument = "999999"
	app := newTestApp(t, cfg)

	_, err := app.Screen(ctx, []string{"ma_bull_stack"})
	assert.True(t, errors.Is(err, core.ErrInstrumentNotFound))
}

func TestApp_Daily(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	app.RegisterCollector(&mockCollector{name: "mock", universe: []core.Instrument{{Code: "600519"}}})

	require.NoError(t, app.Daily(context.Background()))

	dates, err := app.Results().Dates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-05"}, dates)
}

func TestApp_OneJobAtATime(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	require.NoError(t, app.begin())
	_, err := app.Screen(context.Background(), nil)
	assert.Error(t, err)
	app.end()

	_, err = app.Screen(context.Background(), nil)
	assert.NoError(t, err)
}

func TestApp_WebhookNotifier(t *testing.T) {
	var (
		mu         sync.Mutex
		strategies []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		strategies = append(strategies, body["strategy"].(string))
		mu.Unlock()
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.Notifiers = map[string]config.NotifierConfig{
		"webhook":  {Enabled: true, Params: map[string]any{"url": server.URL}},
		"telegram": {Enabled: false},
	}
	app := newTestApp(t, cfg)
	assert.Equal(t, 1, app.GetStats()["notifiers"])

	_, err := app.Screen(context.Background(), []string{"ma_bull_stack", "zero_axis_double_bottom"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ma_bull_stack", "zero_axis_double_bottom"}, strategies)
}

func TestApp_NotifierMisconfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notifiers = map[string]config.NotifierConfig{"telegram": {Enabled: true}}

	_, err := New(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}
