package model

import (
	"time"

	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

// TradeEvent is the published and persisted form of a trade.
type TradeEvent struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	TradeID         string          `gorm:"column:trade_id;uniqueIndex" json:"trade_id"`
	Symbol          string          `gorm:"column:symbol" json:"symbol"`
	RestingOrderID  string          `gorm:"column:resting_order_id" json:"resting_order_id"`
	IncomingOrderID string          `gorm:"column:incoming_order_id" json:"incoming_order_id"`
	Side            string          `gorm:"column:side" json:"side"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric" json:"price"`
	Quantity        int64           `gorm:"column:quantity" json:"quantity"`
	ExecutedAt      time.Time       `gorm:"column:executed_at" json:"executed_at"`
	CreatedAt       time.Time       `gorm:"column:created_at" json:"-"`
}

func (TradeEvent) TableName() string {
	return "trades"
}

func NewTradeEvent(tradeID string, t orderbook.Trade) *TradeEvent {
	return &TradeEvent{
		TradeID:         tradeID,
		Symbol:          t.Symbol,
		RestingOrderID:  t.RestingOrderID,
		IncomingOrderID: t.IncomingOrderID,
		Side:            string(t.Side),
		Price:           t.Price,
		Quantity:        t.Qty,
		ExecutedAt:      t.Timestamp,
	}
}
