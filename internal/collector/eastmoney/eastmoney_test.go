package eastmoney

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newthinker/stockscreen/internal/collector"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const klinesBody = `{"rc":0,"data":{"code":"600519","market":1,"klines":[
"2024-06-27,1450.00,1460.50,1465.00,1445.10,25000,3650000000.00,1.36,0.72,10.50,0.20",
"2024-06-28,1461.00,1469.00,1475.88,1458.00,31000,4550000000.00,1.22,0.58,8.50,0.25",
"garbage"
]}}`

func TestEastmoney_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Eastmoney)(nil)
}

func TestEastmoney_Name(t *testing.T) {
	e := New()
	if e.Name() != "eastmoney" {
		t.Errorf("expected 'eastmoney', got '%s'", e.Name())
	}
	assert.Len(t, e.SupportedMarkets(), 3)
}

func TestSecid(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"600519", "1.600519"}, // Shanghai = 1
		{"688981", "1.688981"},
		{"000001", "0.000001"}, // Shenzhen = 0
		{"300750", "0.300750"},
		{"830799", "0.830799"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, secid(tc.code), tc.code)
	}
	assert.Equal(t, core.MarketBJ, MarketOf("830799"))
}

func TestKlineType(t *testing.T) {
	tests := []struct {
		kind core.PeriodKind
		want string
	}{
		{core.PeriodMin1, "1"},
		{core.PeriodMin5, "5"},
		{core.PeriodMin60, "60"},
		{core.PeriodDaily, "101"},
		{core.PeriodWeekly, "102"},
	}
	for _, tc := range tests {
		got, err := klineType(tc.kind)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := klineType("year")
	assert.Error(t, err)
}

func TestParseKlines(t *testing.T) {
	bars, err := parseKlines([]byte(klinesBody), core.PeriodDaily)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	b := bars[1]
	assert.Equal(t, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), b.Time)
	assert.Equal(t, 1461.00, b.Open)
	assert.Equal(t, 1469.00, b.Close)
	assert.Equal(t, 1475.88, b.High)
	assert.Equal(t, 1458.00, b.Low)
	assert.Equal(t, int64(31000), b.Volume)
	assert.Equal(t, 0.25, b.TurnoverRate)

	intraday := `{"data":{"klines":["2024-06-28 10:30,1,2,3,0.5,100"]}}`
	bars, err = parseKlines([]byte(intraday), core.PeriodMin30)
	require.NoError(t, err)
	assert.Equal(t, 10, bars[0].Time.Hour())
	assert.Zero(t, bars[0].TurnoverRate)

	_, err = parseKlines([]byte(`{"data":null}`), core.PeriodDaily)
	assert.Error(t, err)
}

func TestParseKlines_SkipsMalformedRows(t *testing.T) {
	body := `{"data":{"klines":[
		"2024-06-25,10.0,10.5,10.8,9.9,1000,1,1,1,1,2.5",
		"2024-06-26,10.5,-,10.9,10.1,1200,1,1,1,1,2.6",
		"2024-06-27,10.6,10.7,10.9,,1100,1,1,1,1,2.1",
		"2024-06-28,10.7,10.8,11.0,10.5,x,1,1,1,1,2.2",
		"2024-07-01,10.8,10.9,11.1,10.6,1300,1,1,1,1,-",
		"2024-07-02,10.9,11.0,11.2,10.7,1400,1,1,1,1,3.0"
	]}}`

	bars, err := parseKlines([]byte(body), core.PeriodDaily)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2024-06-25", bars[0].Date())
	assert.Equal(t, "2024-07-02", bars[1].Date())
	for _, b := range bars {
		assert.Greater(t, b.Low, 0.0, "no zero price leaks from a bad field")
	}

	_, err = parseKlines([]byte(`{"data":{"klines":["2024-06-26,10.5,-,10.9,10.1,1200"]}}`), core.PeriodDaily)
	assert.Error(t, err, "only malformed rows")
}

func TestParseUniverse(t *testing.T) {
	body := `{"data":{"total":3,"diff":[
		{"f12":"600519","f13":1,"f14":"贵州茅台"},
		{"f12":"000001","f13":0,"f14":"平安银行"},
		{"f12":"","f13":0,"f14":""}
	]}}`

	got, total := parseUniverse([]byte(body))
	assert.Equal(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, core.Instrument{Code: "600519", Name: "贵州茅台", Market: core.MarketSH}, got[0])
	assert.Equal(t, core.MarketSZ, got[1].Market)
}

func TestFetchHistory_Server(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, historyPath, r.URL.Path)
		assert.Equal(t, "1.600519", r.URL.Query().Get("secid"))
		assert.Equal(t, "101", r.URL.Query().Get("klt"))
		assert.Equal(t, "20240101", r.URL.Query().Get("beg"))
		w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	e := New()
	require.NoError(t, e.Init(collector.Config{BaseURL: srv.URL}))

	s, err := e.FetchHistory(context.Background(), "600519", core.PeriodDaily,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "600519", s.Code)
	assert.Equal(t, core.PeriodDaily, s.Kind)
	assert.Len(t, s.Bars, 2)
}

func TestFetchHistory_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	e := New()
	require.NoError(t, e.Init(collector.Config{
		BaseURL: srv.URL,
		Extra:   map[string]any{"retry_delay": time.Millisecond},
	}))

	_, err := e.FetchHistory(context.Background(), "000001", core.PeriodDaily, time.Now().AddDate(0, -1, 0), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchHistory_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rc":0,"data":null}`))
	}))
	defer srv.Close()

	e := New()
	require.NoError(t, e.Init(collector.Config{BaseURL: srv.URL}))

	_, err := e.FetchHistory(context.Background(), "000001", core.PeriodDaily, time.Now(), time.Now())
	assert.True(t, errors.Is(err, core.ErrNoData), "got %v", err)
}

func TestFetchUniverse_Pages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, listPath, r.URL.Path)
		switch r.URL.Query().Get("pn") {
		case "1":
			w.Write([]byte(`{"data":{"total":2,"diff":[{"f12":"600519","f13":1,"f14":"A"}]}}`))
		case "2":
			w.Write([]byte(`{"data":{"total":2,"diff":[{"f12":"000001","f13":0,"f14":"B"}]}}`))
		default:
			t.Errorf("unexpected page %s", r.URL.RawQuery)
		}
	}))
	defer srv.Close()

	e := New()
	require.NoError(t, e.Init(collector.Config{BaseURL: srv.URL}))

	u, err := e.FetchUniverse(context.Background())
	require.NoError(t, err)
	require.Len(t, u, 2)
	assert.Equal(t, "000001", u[1].Code)
	assert.True(t, strings.HasPrefix(u[0].Code, "6"))
}
