package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Level is the aggregated view of one price level.
type Level struct {
	Price  decimal.Decimal `json:"price"`
	Qty    int64           `json:"qty"`
	Orders int             `json:"orders"`
}

// Snapshot is a point-in-time copy of both sides in priority order.
type Snapshot struct {
	Symbol string  `json:"symbol"`
	Bids   []Order `json:"bids"`
	Asks   []Order `json:"asks"`
}

// OrderBook holds the resting LIMIT orders of one symbol. It is not safe for
// concurrent use; MatchingEngine serialises access to it.
type OrderBook struct {
	symbol string

	bids *bookSide
	asks *bookSide

	ordersByID map[string]*Order
	seq        uint64
}

func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol:     symbol,
		bids:       newBookSide(BUY),
		asks:       newBookSide(SELL),
		ordersByID: make(map[string]*Order),
	}
}

func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

func (ob *OrderBook) sideOf(side Side) *bookSide {
	if side == BUY {
		return ob.bids
	}
	return ob.asks
}

// Insert rests a LIMIT order on its side.
func (ob *OrderBook) Insert(order *Order) error {
	if order.Type != LIMIT {
		return fmt.Errorf("insert %s order %s: %w", order.Type, order.ID, ErrUndefinedOrderType)
	}
	if !order.Side.Valid() {
		return fmt.Errorf("insert order %s: %w", order.ID, ErrInvalidSide)
	}
	if order.Qty <= 0 {
		return fmt.Errorf("insert order %s: %w", order.ID, ErrNonPositiveQuantity)
	}
	if _, ok := ob.ordersByID[order.ID]; ok {
		return fmt.Errorf("insert order %s: %w", order.ID, ErrDuplicateOrderID)
	}

	ob.seq++
	order.seq = ob.seq
	if order.FilledQty > 0 {
		order.Status = StatusPartiallyFilled
	} else {
		order.Status = StatusResting
	}

	ob.sideOf(order.Side).push(order)
	ob.ordersByID[order.ID] = order
	return nil
}

// Best returns the best resting order an incoming order of side would trade
// against, or nil when that side is empty.
func (ob *OrderBook) Best(side Side) *Order {
	return ob.sideOf(side.Opposite()).best()
}

// fill takes qty off the front order of side. A filled order leaves the book.
func (ob *OrderBook) fill(resting *Order, qty int64) {
	resting.Qty -= qty
	resting.FilledQty += qty
	if resting.Qty > 0 {
		resting.Status = StatusPartiallyFilled
		return
	}

	resting.Status = StatusFilled
	ob.sideOf(resting.Side).popFront()
	delete(ob.ordersByID, resting.ID)
}

// Amend reduces the remaining quantity of a resting order in place. Time
// priority is kept.
func (ob *OrderBook) Amend(id string, newQty int64) error {
	order, ok := ob.ordersByID[id]
	if !ok {
		return fmt.Errorf("amend order %s: %w", id, ErrOrderNotFound)
	}
	if newQty >= order.Qty {
		return fmt.Errorf("amend order %s from %d to %d: %w", id, order.Qty, newQty, ErrQuantityNotReduced)
	}
	if newQty <= 0 {
		return fmt.Errorf("amend order %s to %d: %w", id, newQty, ErrNonPositiveQuantity)
	}

	order.Qty = newQty
	return nil
}

func (ob *OrderBook) Cancel(id string) error {
	order, ok := ob.ordersByID[id]
	if !ok {
		return fmt.Errorf("cancel order %s: %w", id, ErrOrderNotFound)
	}

	ob.sideOf(order.Side).remove(order)
	delete(ob.ordersByID, id)
	order.Status = StatusCancelled
	return nil
}

// Order returns a copy of the resting order with id.
func (ob *OrderBook) Order(id string) (Order, bool) {
	order, ok := ob.ordersByID[id]
	if !ok {
		return Order{}, false
	}
	return *order, true
}

func (ob *OrderBook) Len() int {
	return len(ob.ordersByID)
}

func (ob *OrderBook) Snapshot() Snapshot {
	return Snapshot{
		Symbol: ob.symbol,
		Bids:   ob.bids.orders(),
		Asks:   ob.asks.orders(),
	}
}

// Depth returns up to n aggregated levels per side; n <= 0 means all levels.
func (ob *OrderBook) Depth(n int) (bids, asks []Level) {
	return ob.bids.depth(n), ob.asks.depth(n)
}
