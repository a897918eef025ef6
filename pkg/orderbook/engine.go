package orderbook

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MatchingEngine owns one OrderBook and applies every command to it under a
// single lock, so a sweep always completes before the next command starts.
type MatchingEngine struct {
	book *OrderBook

	logger    *zap.Logger
	callbacks []func([]Trade)

	mu sync.Mutex
}

type EngineOption func(*MatchingEngine)

func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *MatchingEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewMatchingEngine(symbol string, opts ...EngineOption) *MatchingEngine {
	e := &MatchingEngine{
		book:   NewOrderBook(symbol),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("symbol", symbol))
	return e
}

func (e *MatchingEngine) Symbol() string {
	return e.book.Symbol()
}

// RegisterTradeCallback adds fn to the callbacks run with the trades of every
// submission that matched. Callbacks run while the engine lock is held.
func (e *MatchingEngine) RegisterTradeCallback(fn func([]Trade)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callbacks = append(e.callbacks, fn)
}

// Submit matches order against the book and returns the trades in execution
// order. A rejected order leaves the book untouched.
func (e *MatchingEngine) Submit(order *Order) ([]Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validate(order); err != nil {
		if order != nil {
			order.Status = StatusRejected
			e.logger.Debug("order rejected", zap.String("order_id", order.ID), zap.Error(err))
		}
		return nil, err
	}

	var trades []Trade
	switch order.Type {
	case LIMIT:
		trades = e.handleLimit(order)
	case MARKET:
		trades = e.handleMarket(order)
	case IOC:
		trades = e.handleIOC(order)
	}

	if len(trades) > 0 {
		e.logger.Debug("order matched",
			zap.String("order_id", order.ID),
			zap.Int("trades", len(trades)),
			zap.Int64("remaining", order.Qty),
		)
		for _, cb := range e.callbacks {
			cb(trades)
		}
	}

	return trades, nil
}

func (e *MatchingEngine) validate(order *Order) error {
	if order == nil {
		return ErrUndefinedOrderType
	}
	if !order.Type.Valid() {
		return fmt.Errorf("order %s type %q: %w", order.ID, order.Type, ErrUndefinedOrderType)
	}
	if !order.Side.Valid() {
		return fmt.Errorf("order %s side %q: %w", order.ID, order.Side, ErrUndefinedOrderSide)
	}
	if order.Qty <= 0 {
		return fmt.Errorf("order %s: %w", order.ID, ErrNonPositiveQuantity)
	}
	if order.Type != MARKET && !order.Price.IsPositive() {
		return fmt.Errorf("order %s: %w", order.ID, ErrNonPositivePrice)
	}
	if order.Symbol != "" && order.Symbol != e.book.Symbol() {
		return fmt.Errorf("order %s symbol %q: %w", order.ID, order.Symbol, ErrUnknownSymbol)
	}
	if _, ok := e.book.ordersByID[order.ID]; ok {
		return fmt.Errorf("order %s: %w", order.ID, ErrDuplicateOrderID)
	}
	return nil
}

func (e *MatchingEngine) handleLimit(order *Order) []Trade {
	trades := e.sweep(order)
	if order.Qty == 0 {
		order.Status = StatusFilled
		return trades
	}

	// validated above, Insert cannot fail here
	if err := e.book.Insert(order); err != nil {
		e.logger.Error("rest limit order", zap.String("order_id", order.ID), zap.Error(err))
	}
	return trades
}

func (e *MatchingEngine) handleMarket(order *Order) []Trade {
	trades := e.sweep(order)
	e.finishImmediate(order)
	return trades
}

func (e *MatchingEngine) handleIOC(order *Order) []Trade {
	trades := e.sweep(order)
	e.finishImmediate(order)
	return trades
}

// finishImmediate settles an order that never rests; its remainder is dropped.
func (e *MatchingEngine) finishImmediate(order *Order) {
	if order.Qty == 0 {
		order.Status = StatusFilled
		return
	}
	order.Status = StatusDiscarded
}

// sweep matches order against the opposite side while it crosses, across as
// many resting orders and price levels as needed. Every trade executes at the
// resting order's price.
func (e *MatchingEngine) sweep(order *Order) []Trade {
	var trades []Trade

	for order.Qty > 0 {
		resting := e.book.Best(order.Side)
		if resting == nil || !order.crosses(resting.Price) {
			break
		}

		qty := min(order.Qty, resting.Qty)
		order.Qty -= qty
		order.FilledQty += qty
		e.book.fill(resting, qty)

		trades = append(trades, Trade{
			RestingOrderID:  resting.ID,
			IncomingOrderID: order.ID,
			Symbol:          e.book.Symbol(),
			Side:            order.Side,
			Price:           resting.Price,
			Qty:             qty,
			Timestamp:       order.Timestamp,
		})
	}

	if order.FilledQty > 0 && order.Qty > 0 {
		order.Status = StatusPartiallyFilled
	}
	return trades
}

func (e *MatchingEngine) Amend(id string, newQty int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.book.Amend(id, newQty); err != nil {
		e.logger.Debug("amend rejected", zap.String("order_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (e *MatchingEngine) Cancel(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.book.Cancel(id); err != nil {
		e.logger.Debug("cancel rejected", zap.String("order_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (e *MatchingEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Snapshot()
}

func (e *MatchingEngine) Depth(n int) (bids, asks []Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Depth(n)
}

// Order returns a copy of the resting order with id.
func (e *MatchingEngine) Order(id string) (Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Order(id)
}
