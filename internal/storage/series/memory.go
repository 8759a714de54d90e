package series

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/stockscreen/internal/core"
)

type seriesKey struct {
	code string
	kind core.PeriodKind
}

// MemoryStore keeps bars in process.
type MemoryStore struct {
	mu          sync.RWMutex
	instruments map[string]core.Instrument
	bars        map[seriesKey]map[time.Time]core.Bar
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		instruments: make(map[string]core.Instrument),
		bars:        make(map[seriesKey]map[time.Time]core.Bar),
	}
}

func (m *MemoryStore) Universe(ctx context.Context) ([]core.Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Instrument, 0, len(m.instruments))
	for _, inst := range m.instruments {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryStore) SaveInstruments(ctx context.Context, instruments []core.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, inst := range instruments {
		m.instruments[inst.Code] = inst
	}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, code string, kind core.PeriodKind) (core.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.bars[seriesKey{code, kind}]
	if len(stored) == 0 {
		return core.Series{}, core.WrapError(core.ErrNoData, fmt.Errorf("%s %s", code, kind))
	}

	s := core.Series{Code: code, Kind: kind, Bars: make([]core.Bar, 0, len(stored))}
	for _, b := range stored {
		s.Bars = append(s.Bars, b)
	}
	sort.Slice(s.Bars, func(i, j int) bool { return s.Bars[i].Time.Before(s.Bars[j].Time) })
	return s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s core.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := seriesKey{s.Code, s.Kind}
	if m.bars[k] == nil {
		m.bars[k] = make(map[time.Time]core.Bar, len(s.Bars))
	}
	for _, b := range s.Bars {
		m.bars[k][b.Time.UTC()] = raw(b)
	}
	return nil
}

// raw strips the derived columns so both stores return the same bars.
func raw(b core.Bar) core.Bar {
	return core.Bar{
		Time:         b.Time.UTC(),
		Open:         b.Open,
		High:         b.High,
		Low:          b.Low,
		Close:        b.Close,
		Volume:       b.Volume,
		TurnoverRate: b.TurnoverRate,
	}
}
