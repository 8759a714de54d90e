package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/stockscreen/internal/core"
	"go.uber.org/zap"
)

// Engine manages the registered strategies
type Engine struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	params     map[string]map[string]any
	logger     *zap.Logger
}

// NewEngine creates a new strategy engine
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		strategies: make(map[string]Strategy),
		params:     make(map[string]map[string]any),
		logger:     l,
	}
}

// Register adds a strategy to the engine
func (e *Engine) Register(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[s.Name()] = s
}

// Configure initialises registered strategies from config. Disabled entries
// are removed from the engine; unknown names are an error.
func (e *Engine) Configure(cfgs map[string]Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for name, cfg := range cfgs {
		s, ok := e.strategies[name]
		if !ok {
			return core.WrapError(core.ErrUnknownStrategy, fmt.Errorf("%q", name))
		}
		if !cfg.Enabled {
			delete(e.strategies, name)
			delete(e.params, name)
			e.logger.Debug("strategy disabled", zap.String("strategy", name))
			continue
		}
		if err := s.Init(cfg); err != nil {
			return fmt.Errorf("init strategy %s: %w", name, err)
		}
		e.params[name] = cfg.Params
	}
	return nil
}

// Params returns the params a strategy was configured with.
func (e *Engine) Params(name string) map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params[name]
}

// Get retrieves a strategy by name
func (e *Engine) Get(name string) (Strategy, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.strategies[name]
	return s, ok
}

// GetAll returns all registered strategies ordered by name
func (e *Engine) GetAll() []Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]Strategy, 0, len(e.strategies))
	for _, s := range e.strategies {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Names returns the registered strategy names in order.
func (e *Engine) Names() []string {
	all := e.GetAll()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name()
	}
	return names
}

// Evaluate runs one strategy on one instrument. A panic inside the strategy
// is turned into an error so that only this instrument is affected.
func (e *Engine) Evaluate(name string, cfg FilterConfig, in Input) (d Decision, err error) {
	s, ok := e.Get(name)
	if !ok {
		return Decision{}, core.WrapError(core.ErrUnknownStrategy, fmt.Errorf("%q", name))
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("strategy panicked",
				zap.String("strategy", name),
				zap.String("code", in.Code),
				zap.Any("panic", r),
			)
			d = Decision{}
			err = core.WrapError(core.ErrStrategyFailed, fmt.Errorf("%s on %s: %v", name, in.Code, r))
		}
	}()

	return s.Evaluate(cfg, in), nil
}
