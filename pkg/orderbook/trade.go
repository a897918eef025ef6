package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade records one match between a resting order and an incoming order.
type Trade struct {
	RestingOrderID  string          `json:"resting_order_id"`
	IncomingOrderID string          `json:"incoming_order_id"`
	Symbol          string          `json:"symbol"`
	Side            Side            `json:"side"` // aggressor side
	Price           decimal.Decimal `json:"price"`
	Qty             int64           `json:"qty"`
	Timestamp       time.Time       `json:"timestamp"`
}
