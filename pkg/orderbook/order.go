package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

func (s Side) Valid() bool {
	return s == BUY || s == SELL
}

// Opposite returns the side an incoming order of side s trades against.
func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

type OrderType string

const (
	LIMIT  OrderType = "LIMIT"
	MARKET OrderType = "MARKET"
	IOC    OrderType = "IOC" // immediate or cancel
)

func (t OrderType) Valid() bool {
	switch t {
	case LIMIT, MARKET, IOC:
		return true
	}
	return false
}

type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusResting         OrderStatus = "RESTING"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
	// StatusDiscarded marks a MARKET or IOC order whose remainder was dropped.
	StatusDiscarded OrderStatus = "DISCARDED"
)

// Order is the unit flowing through the engine. Qty is the remaining unfilled
// quantity; every other exported field is fixed at construction.
type Order struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Type      OrderType       `json:"type"`
	Price     decimal.Decimal `json:"price"`
	Qty       int64           `json:"qty"`
	FilledQty int64           `json:"filled_qty"`
	Timestamp time.Time       `json:"timestamp"`
	Status    OrderStatus     `json:"status"`

	// seq breaks ties between equal timestamps by arrival order.
	seq uint64
}

// NewOrder validates the fields required by typ and returns a new order.
// MARKET orders ignore price.
func NewOrder(typ OrderType, id, symbol string, side Side, qty int64, price decimal.Decimal, ts time.Time) (*Order, error) {
	if !typ.Valid() {
		return nil, ErrUndefinedOrderType
	}
	if qty <= 0 {
		return nil, ErrNonPositiveQuantity
	}
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if typ == MARKET {
		price = decimal.Zero
	} else if !price.IsPositive() {
		return nil, ErrNonPositivePrice
	}

	return &Order{
		ID:        id,
		Symbol:    symbol,
		Side:      side,
		Type:      typ,
		Price:     price,
		Qty:       qty,
		Timestamp: ts,
		Status:    StatusNew,
	}, nil
}

func NewLimitOrder(id, symbol string, side Side, qty int64, price decimal.Decimal, ts time.Time) (*Order, error) {
	return NewOrder(LIMIT, id, symbol, side, qty, price, ts)
}

func NewMarketOrder(id, symbol string, side Side, qty int64, ts time.Time) (*Order, error) {
	return NewOrder(MARKET, id, symbol, side, qty, decimal.Zero, ts)
}

func NewIOCOrder(id, symbol string, side Side, qty int64, price decimal.Decimal, ts time.Time) (*Order, error) {
	return NewOrder(IOC, id, symbol, side, qty, price, ts)
}

// LimitPrice reports the order's price limit. ok is false for MARKET orders.
func (o *Order) LimitPrice() (price decimal.Decimal, ok bool) {
	if o.Type == MARKET {
		return decimal.Zero, false
	}
	return o.Price, true
}

// crosses reports whether o is willing to trade against a resting order at price.
func (o *Order) crosses(price decimal.Decimal) bool {
	limit, ok := o.LimitPrice()
	if !ok {
		return true
	}
	if o.Side == BUY {
		return limit.GreaterThanOrEqual(price)
	}
	return limit.LessThanOrEqual(price)
}

// before reports whether o has time priority over other at the same price.
func (o *Order) before(other *Order) bool {
	if o.Timestamp.Equal(other.Timestamp) {
		return o.seq < other.seq
	}
	return o.Timestamp.Before(other.Timestamp)
}
