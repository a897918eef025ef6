package model

import (
	"time"

	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

// AddOrder is a raw order submission before validation. OrderID is the
// caller's id and doubles as the first request id of the order.
type AddOrder struct {
	OrderID      string              `json:"order_id"`
	Symbol       string              `json:"symbol"`
	Side         orderbook.Side      `json:"side"`
	Type         orderbook.OrderType `json:"type"`
	Price        decimal.Decimal     `json:"price"`
	Quantity     decimal.Decimal     `json:"quantity"`
	TransactTime time.Time           `json:"transact_time"`
}

// AmendOrder reduces the remaining quantity of a resting order. The order is
// found by OrderID, or by OrigRequestID when OrderID is empty.
type AmendOrder struct {
	RequestID     string          `json:"request_id"`
	OrigRequestID string          `json:"orig_request_id"`
	OrderID       string          `json:"order_id"`
	Symbol        string          `json:"symbol"`
	NewQuantity   decimal.Decimal `json:"new_quantity"`
}

type CancelOrder struct {
	RequestID     string `json:"request_id"`
	OrigRequestID string `json:"orig_request_id"`
	OrderID       string `json:"order_id"`
	Symbol        string `json:"symbol"`
}

type CommandAction string

const (
	CommandSubmit CommandAction = "submit"
	CommandAmend  CommandAction = "amend"
	CommandCancel CommandAction = "cancel"
)

// Command is the wire form of an order command on the command topic.
type Command struct {
	Action CommandAction `json:"action"`
	Submit *AddOrder     `json:"submit,omitempty"`
	Amend  *AmendOrder   `json:"amend,omitempty"`
	Cancel *CancelOrder  `json:"cancel,omitempty"`
}

// Symbol returns the routing symbol of the command.
func (c *Command) Symbol() string {
	switch c.Action {
	case CommandSubmit:
		if c.Submit != nil {
			return c.Submit.Symbol
		}
	case CommandAmend:
		if c.Amend != nil {
			return c.Amend.Symbol
		}
	case CommandCancel:
		if c.Cancel != nil {
			return c.Cancel.Symbol
		}
	}
	return ""
}

// SetSymbol fills the symbol of an amend or cancel that addressed its order
// by id only.
func (c *Command) SetSymbol(symbol string) {
	switch {
	case c.Action == CommandAmend && c.Amend != nil:
		c.Amend.Symbol = symbol
	case c.Action == CommandCancel && c.Cancel != nil:
		c.Cancel.Symbol = symbol
	}
}

type SubmitResult struct {
	Order  orderbook.Order   `json:"order"`
	Trades []orderbook.Trade `json:"trades"`
}
