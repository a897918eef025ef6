package model

import (
	"fmt"
	"time"

	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

type OrderExecType string

const (
	ExecTypeNew      OrderExecType = "New"
	ExecTypeTrade    OrderExecType = "Trade"
	ExecTypeCanceled OrderExecType = "Canceled"
	ExecTypeReplaced OrderExecType = "Replaced"
	ExecTypeRejected OrderExecType = "Rejected"
	// ExecTypeExpired reports the dropped remainder of a MARKET or IOC order.
	ExecTypeExpired OrderExecType = "Expired"
)

// OrderEvent is one lifecycle transition of an order. It carries the order
// state after the transition, so the latest event of an order is its state.
type OrderEvent struct {
	EventID       string                `json:"event_id"`
	Seq           int                   `json:"seq"`
	OrderID       string                `json:"order_id"`
	RequestID     string                `json:"request_id"`
	OrigRequestID string                `json:"orig_request_id,omitempty"`
	Symbol        string                `json:"symbol"`
	Side          orderbook.Side        `json:"side"`
	Type          orderbook.OrderType   `json:"type"`
	ExecType      OrderExecType         `json:"exec_type"`
	Status        orderbook.OrderStatus `json:"status"`
	Price         decimal.Decimal       `json:"price"`
	Quantity      int64                 `json:"quantity"`
	CumQuantity   int64                 `json:"cum_quantity"`
	LeavesQty     int64                 `json:"leaves_qty"`
	LastQuantity  int64                 `json:"last_quantity,omitempty"`
	LastPrice     decimal.Decimal       `json:"last_price"`
	AvgPrice      decimal.Decimal       `json:"avg_price"`
	TradeID       string                `json:"trade_id,omitempty"`
	Text          string                `json:"text,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}

func NewEventID(orderID string, seq int) string {
	return fmt.Sprintf("%s-%d", orderID, seq)
}

// Next copies ev as the base of the following transition.
func (ev *OrderEvent) Next(execType OrderExecType, ts time.Time) *OrderEvent {
	next := *ev
	next.ExecType = execType
	next.LastQuantity = 0
	next.LastPrice = decimal.Zero
	next.TradeID = ""
	next.Text = ""
	next.Timestamp = ts
	return &next
}

// ApplyFill books qty at price against the order.
func (ev *OrderEvent) ApplyFill(tradeID string, qty int64, price decimal.Decimal) {
	notional := ev.AvgPrice.Mul(decimal.NewFromInt(ev.CumQuantity)).Add(price.Mul(decimal.NewFromInt(qty)))
	ev.CumQuantity += qty
	ev.AvgPrice = notional.Div(decimal.NewFromInt(ev.CumQuantity))
	ev.LeavesQty -= qty
	ev.LastQuantity = qty
	ev.LastPrice = price
	ev.TradeID = tradeID
	if ev.LeavesQty == 0 {
		ev.Status = orderbook.StatusFilled
	} else {
		ev.Status = orderbook.StatusPartiallyFilled
	}
}

// Open reports whether the order may still be amended or cancelled.
func (ev *OrderEvent) Open() bool {
	switch ev.Status {
	case orderbook.StatusResting, orderbook.StatusPartiallyFilled:
		return ev.LeavesQty > 0
	}
	return false
}
