package orderbook

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

type EngineManagerConfig struct {
	// Symbols restricts the manager to a fixed instrument list. When empty an
	// engine is created on first use of a symbol.
	Symbols []string
}

// EngineManager holds one independent MatchingEngine per symbol.
type EngineManager struct {
	engines   sync.Map
	callbacks []func([]Trade)
	cfg       *EngineManagerConfig
	logger    *zap.Logger

	mu sync.Mutex // guards callbacks and engine creation
}

func NewEngineManager(cfg *EngineManagerConfig, logger *zap.Logger) *EngineManager {
	if cfg == nil {
		cfg = &EngineManagerConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &EngineManager{
		engines: sync.Map{},
		cfg:     cfg,
		logger:  logger,
	}
	for _, symbol := range cfg.Symbols {
		m.create(symbol)
	}
	return m
}

func (s *EngineManager) Submit(order *Order) ([]Trade, error) {
	if order == nil {
		return nil, ErrUndefinedOrderType
	}
	engine, err := s.Engine(order.Symbol)
	if err != nil {
		order.Status = StatusRejected
		return nil, err
	}
	return engine.Submit(order)
}

func (s *EngineManager) Amend(symbol, orderID string, newQty int64) error {
	engine, err := s.Engine(symbol)
	if err != nil {
		return err
	}
	return engine.Amend(orderID, newQty)
}

func (s *EngineManager) Cancel(symbol, orderID string) error {
	engine, err := s.Engine(symbol)
	if err != nil {
		return err
	}
	return engine.Cancel(orderID)
}

func (s *EngineManager) Snapshot(symbol string) (Snapshot, error) {
	engine, err := s.Engine(symbol)
	if err != nil {
		return Snapshot{}, err
	}
	return engine.Snapshot(), nil
}

func (s *EngineManager) Order(symbol, orderID string) (Order, bool) {
	engine, err := s.Engine(symbol)
	if err != nil {
		return Order{}, false
	}
	return engine.Order(orderID)
}

// RegisterTradeCallback applies cb to every current and future engine.
func (s *EngineManager) RegisterTradeCallback(cb func([]Trade)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callbacks = append(s.callbacks, cb)
	s.engines.Range(func(_, v any) bool {
		v.(*MatchingEngine).RegisterTradeCallback(cb)
		return true
	})
}

func (s *EngineManager) Symbols() []string {
	var symbols []string
	s.engines.Range(func(k, _ any) bool {
		symbols = append(symbols, k.(string))
		return true
	})
	sort.Strings(symbols)
	return symbols
}

// Engine returns the engine of symbol, creating it when the manager is not
// restricted to a fixed symbol list.
func (s *EngineManager) Engine(symbol string) (*MatchingEngine, error) {
	if val, ok := s.engines.Load(symbol); ok {
		return val.(*MatchingEngine), nil
	}
	if len(s.cfg.Symbols) > 0 || symbol == "" {
		return nil, fmt.Errorf("symbol %q: %w", symbol, ErrUnknownSymbol)
	}
	return s.create(symbol), nil
}

func (s *EngineManager) create(symbol string) *MatchingEngine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if val, ok := s.engines.Load(symbol); ok {
		return val.(*MatchingEngine)
	}

	engine := NewMatchingEngine(symbol, WithLogger(s.logger))
	for _, cb := range s.callbacks {
		engine.RegisterTradeCallback(cb)
	}
	s.engines.Store(symbol, engine)
	return engine
}
