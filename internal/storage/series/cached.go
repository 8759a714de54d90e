package series

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/newthinker/stockscreen/internal/core"
)

// CachedStore keeps recently loaded series in an LRU cache in front of
// another Store. Save invalidates the affected entry.
type CachedStore struct {
	Store
	cache *lru.Cache[seriesKey, core.Series]
}

// NewCachedStore wraps next with a cache of size entries.
func NewCachedStore(next Store, size int) (*CachedStore, error) {
	cache, err := lru.New[seriesKey, core.Series](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{Store: next, cache: cache}, nil
}

func (c *CachedStore) Load(ctx context.Context, code string, kind core.PeriodKind) (core.Series, error) {
	k := seriesKey{code, kind}
	if s, ok := c.cache.Get(k); ok {
		return copySeries(s), nil
	}

	s, err := c.Store.Load(ctx, code, kind)
	if err != nil {
		return s, err
	}
	c.cache.Add(k, copySeries(s))
	return s, nil
}

func (c *CachedStore) Save(ctx context.Context, s core.Series) error {
	c.cache.Remove(seriesKey{s.Code, s.Kind})
	return c.Store.Save(ctx, s)
}

// Len returns the number of cached series.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}

// callers enrich bars in place, so the cache never hands out its own slice
func copySeries(s core.Series) core.Series {
	out := s
	out.Bars = append([]core.Bar(nil), s.Bars...)
	return out
}
