// Package eastmoney implements the Eastmoney collector for A-shares.
package eastmoney

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/stockscreen/internal/collector"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	defaultListURL    = "https://82.push2.eastmoney.com"
	defaultHistoryURL = "https://push2his.eastmoney.com"

	listPath    = "/api/qt/clist/get"
	historyPath = "/api/qt/stock/kline/get"

	// main boards, ChiNext and STAR market
	universeFilter = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23"
	listPageSize   = 500

	maxRetries = 3
)

// Eastmoney implements the Eastmoney collector for A-shares
type Eastmoney struct {
	client     *http.Client
	listURL    string
	historyURL string
	delay      time.Duration
	retryDelay time.Duration
	logger     *zap.Logger
}

// New creates a new Eastmoney collector
func New(logger ...*zap.Logger) *Eastmoney {
	log := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		log = logger[0]
	}
	return &Eastmoney{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		listURL:    defaultListURL,
		historyURL: defaultHistoryURL,
		retryDelay: 500 * time.Millisecond,
		logger:     log,
	}
}

func (e *Eastmoney) Name() string {
	return "eastmoney"
}

func (e *Eastmoney) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketSH, core.MarketSZ, core.MarketBJ}
}

// Init applies cfg. A BaseURL replaces both vendor hosts.
func (e *Eastmoney) Init(cfg collector.Config) error {
	if cfg.Timeout > 0 {
		e.client.Timeout = cfg.Timeout
	}
	if cfg.BaseURL != "" {
		base := strings.TrimSuffix(cfg.BaseURL, "/")
		e.listURL, e.historyURL = base, base
	}
	e.delay = cfg.Delay
	if d, ok := cfg.Extra["retry_delay"].(time.Duration); ok {
		e.retryDelay = d
	}
	return nil
}

// secid converts 600519 to 1.600519 for the Eastmoney API.
// Shanghai = 1, Shenzhen and Beijing = 0
func secid(code string) string {
	if MarketOf(code) == core.MarketSH {
		return "1." + code
	}
	return "0." + code
}

// MarketOf infers the exchange from an A-share code.
func MarketOf(code string) core.Market {
	if code == "" {
		return core.MarketSZ
	}
	switch code[0] {
	case '5', '6', '9':
		return core.MarketSH
	case '4', '8':
		return core.MarketBJ
	}
	return core.MarketSZ
}

func klineType(kind core.PeriodKind) (string, error) {
	switch kind {
	case core.PeriodMin1:
		return "1", nil
	case core.PeriodMin5:
		return "5", nil
	case core.PeriodMin15:
		return "15", nil
	case core.PeriodMin30:
		return "30", nil
	case core.PeriodMin60:
		return "60", nil
	case core.PeriodDaily:
		return "101", nil
	case core.PeriodWeekly:
		return "102", nil
	}
	return "", fmt.Errorf("unsupported period kind %q", kind)
}

// FetchUniverse pages through the A-share list.
func (e *Eastmoney) FetchUniverse(ctx context.Context) ([]core.Instrument, error) {
	var out []core.Instrument
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s%s?pn=%d&pz=%d&po=0&np=1&fid=f12&fs=%s&fields=f12,f13,f14",
			e.listURL, listPath, page, listPageSize, universeFilter)

		body, err := e.get(ctx, url)
		if err != nil {
			return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching universe page %d: %w", page, err))
		}

		batch, total := parseUniverse(body)
		out = append(out, batch...)
		if len(batch) == 0 || len(out) >= total {
			break
		}
	}
	if len(out) == 0 {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("empty universe"))
	}
	return out, nil
}

func parseUniverse(body []byte) ([]core.Instrument, int) {
	total := int(gjson.GetBytes(body, "data.total").Int())
	diff := gjson.GetBytes(body, "data.diff")
	if !diff.Exists() {
		return nil, total
	}

	var out []core.Instrument
	// data.diff is an array on np=1 and an object keyed by row number otherwise
	diff.ForEach(func(_, v gjson.Result) bool {
		code := strings.TrimSpace(v.Get("f12").String())
		if code == "" {
			return true
		}
		market := MarketOf(code)
		if v.Get("f13").Exists() && v.Get("f13").Int() == 1 {
			market = core.MarketSH
		}
		out = append(out, core.Instrument{
			Code:   code,
			Name:   strings.TrimSpace(v.Get("f14").String()),
			Market: market,
		})
		return true
	})
	return out, total
}

// FetchHistory fetches forward-adjusted bars for code between start and end.
func (e *Eastmoney) FetchHistory(ctx context.Context, code string, kind core.PeriodKind, start, end time.Time) (core.Series, error) {
	klt, err := klineType(kind)
	if err != nil {
		return core.Series{}, core.WrapError(core.ErrCollectorFailed, err)
	}

	url := fmt.Sprintf("%s%s?secid=%s&klt=%s&fqt=1&beg=%s&end=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
		e.historyURL, historyPath, secid(code), klt,
		start.Format("20060102"),
		end.Format("20060102"))

	body, err := e.get(ctx, url)
	if err != nil {
		return core.Series{}, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching history %s: %w", code, err))
	}

	bars, err := parseKlines(body, kind)
	if err != nil {
		return core.Series{}, core.WrapError(core.ErrNoData, fmt.Errorf("%s: %w", code, err))
	}
	return core.Series{Code: code, Kind: kind, Bars: bars}, nil
}

// parseKlines reads data.klines rows of the form
// date,open,close,high,low,volume,amount,amplitude,change%,change,turnover
func parseKlines(body []byte, kind core.PeriodKind) ([]core.Bar, error) {
	klines := gjson.GetBytes(body, "data.klines")
	if !klines.Exists() || !klines.IsArray() {
		return nil, fmt.Errorf("no data.klines")
	}

	layout := core.DateLayout
	if kind.IsIntraday() {
		layout = "2006-01-02 15:04"
	}

	arr := klines.Array()
	out := make([]core.Bar, 0, len(arr))
	for _, v := range arr {
		parts := strings.Split(strings.TrimSpace(v.String()), ",")
		if len(parts) < 6 {
			continue
		}
		t, err := time.Parse(layout, parts[0])
		if err != nil {
			continue
		}
		prices, ok := parseFloats(parts[1:5])
		if !ok {
			continue
		}
		volume, err := strconv.ParseInt(parts[5], 10, 64)
		if err != nil {
			continue
		}

		b := core.Bar{
			Time:   t,
			Open:   prices[0],
			Close:  prices[1],
			High:   prices[2],
			Low:    prices[3],
			Volume: volume,
		}
		if len(parts) >= 11 {
			turnover, ok := parseFloats(parts[10:11])
			if !ok {
				continue
			}
			b.TurnoverRate = turnover[0]
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no klines")
	}
	return out, nil
}

// parseFloats parses every field or reports false. Vendor rows carry "-"
// for missing values.
func parseFloats(fields []string) ([]float64, bool) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func (e *Eastmoney) get(ctx context.Context, url string) ([]byte, error) {
	if e.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.delay):
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Debug("retrying eastmoney request",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.retryDelay * time.Duration(attempt)):
			}
		}

		body, retry, err := e.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, lastErr
}

func (e *Eastmoney) do(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Referer", "https://quote.eastmoney.com/")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
