package fixgateway

import (
	"errors"
	"fmt"

	"github.com/joripage/matching-engine/pkg/matching/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/executionreport"
	"github.com/quickfixgo/fix44/ordercancelreject"
	"github.com/shopspring/decimal"
)

var ErrUnsupportedTimeInForce = errors.New("unsupported time in force")

var (
	ExecTypeMapping = map[model.OrderExecType]enum.ExecType{
		model.ExecTypeNew:      enum.ExecType_NEW,
		model.ExecTypeTrade:    enum.ExecType_TRADE,
		model.ExecTypeCanceled: enum.ExecType_CANCELED,
		model.ExecTypeReplaced: enum.ExecType_REPLACED,
		model.ExecTypeRejected: enum.ExecType_REJECTED,
		model.ExecTypeExpired:  enum.ExecType_EXPIRED,
	}

	OrderStatusMapping = map[orderbook.OrderStatus]enum.OrdStatus{
		orderbook.StatusNew:             enum.OrdStatus_NEW,
		orderbook.StatusResting:         enum.OrdStatus_NEW,
		orderbook.StatusPartiallyFilled: enum.OrdStatus_PARTIALLY_FILLED,
		orderbook.StatusFilled:          enum.OrdStatus_FILLED,
		orderbook.StatusCancelled:       enum.OrdStatus_CANCELED,
		orderbook.StatusRejected:        enum.OrdStatus_REJECTED,
		orderbook.StatusDiscarded:       enum.OrdStatus_EXPIRED,
	}

	SideMapping = map[orderbook.Side]enum.Side{
		orderbook.BUY:  enum.Side_BUY,
		orderbook.SELL: enum.Side_SELL,
	}

	fixSideMapping = map[enum.Side]orderbook.Side{
		enum.Side_BUY:  orderbook.BUY,
		enum.Side_SELL: orderbook.SELL,
	}
)

// toAddOrder maps a NewOrderSingle onto an order submission. ClOrdID becomes
// the order id. A LIMIT with TimeInForce IOC is an IOC order.
func toAddOrder(msg *NewOrderSingle) (*model.AddOrder, error) {
	req := &model.AddOrder{
		OrderID:      msg.ClOrdID,
		Symbol:       msg.Symbol,
		Side:         fixSideMapping[msg.Side],
		Price:        msg.Price,
		Quantity:     msg.OrderQty,
		TransactTime: msg.TransactTime,
	}

	switch msg.OrdType {
	case enum.OrdType_MARKET:
		req.Type = orderbook.MARKET
		req.Price = decimal.Zero
	case enum.OrdType_LIMIT:
		switch msg.TimeInForce {
		case "", enum.TimeInForce_DAY, enum.TimeInForce_GOOD_TILL_CANCEL:
			req.Type = orderbook.LIMIT
		case enum.TimeInForce_IMMEDIATE_OR_CANCEL:
			req.Type = orderbook.IOC
		default:
			return req, fmt.Errorf("time in force %q: %w", msg.TimeInForce, ErrUnsupportedTimeInForce)
		}
	default:
		return req, fmt.Errorf("ord type %q: %w", msg.OrdType, orderbook.ErrUndefinedOrderType)
	}
	return req, nil
}

func ordType(t orderbook.OrderType) (enum.OrdType, enum.TimeInForce) {
	switch t {
	case orderbook.MARKET:
		return enum.OrdType_MARKET, enum.TimeInForce_IMMEDIATE_OR_CANCEL
	case orderbook.IOC:
		return enum.OrdType_LIMIT, enum.TimeInForce_IMMEDIATE_OR_CANCEL
	}
	return enum.OrdType_LIMIT, enum.TimeInForce_GOOD_TILL_CANCEL
}

func orderEventToExecutionReport(ev *model.OrderEvent) executionreport.ExecutionReport {
	msg := executionreport.New(
		field.NewOrderID(ev.OrderID),
		field.NewExecID(ev.EventID),
		field.NewExecType(ExecTypeMapping[ev.ExecType]),
		field.NewOrdStatus(OrderStatusMapping[ev.Status]),
		field.NewSide(SideMapping[ev.Side]),
		field.NewLeavesQty(decimal.NewFromInt(ev.LeavesQty), 0),
		field.NewCumQty(decimal.NewFromInt(ev.CumQuantity), 0),
		field.NewAvgPx(ev.AvgPrice, 4),
	)

	typ, tif := ordType(ev.Type)
	msg.SetClOrdID(ev.RequestID)
	if ev.OrigRequestID != "" {
		msg.SetOrigClOrdID(ev.OrigRequestID)
	}
	msg.SetSymbol(ev.Symbol)
	msg.SetOrdType(typ)
	msg.SetTimeInForce(tif)
	msg.SetOrderQty(decimal.NewFromInt(ev.Quantity), 0)
	if ev.Type != orderbook.MARKET {
		msg.SetPrice(ev.Price, 4)
	}
	if ev.LastQuantity > 0 {
		msg.SetLastQty(decimal.NewFromInt(ev.LastQuantity), 0)
		msg.SetLastPx(ev.LastPrice, 4)
		msg.SetSecondaryExecID(ev.TradeID)
	}
	msg.SetTransactTime(ev.Timestamp)
	if ev.Text != "" {
		msg.SetText(ev.Text)
	}
	return msg
}

// rejectReport answers a NewOrderSingle the matching service refused.
func rejectReport(msg *NewOrderSingle, cause error) executionreport.ExecutionReport {
	report := executionreport.New(
		field.NewOrderID(msg.ClOrdID),
		field.NewExecID(msg.ClOrdID+"-rej"),
		field.NewExecType(enum.ExecType_REJECTED),
		field.NewOrdStatus(enum.OrdStatus_REJECTED),
		field.NewSide(msg.Side),
		field.NewLeavesQty(decimal.Zero, 0),
		field.NewCumQty(decimal.Zero, 0),
		field.NewAvgPx(decimal.Zero, 4),
	)
	report.SetClOrdID(msg.ClOrdID)
	report.SetSymbol(msg.Symbol)
	report.SetOrderQty(msg.OrderQty, 0)
	report.SetOrdRejReason(ordRejReason(cause))
	report.SetText(cause.Error())
	return report
}

func ordRejReason(err error) enum.OrdRejReason {
	switch {
	case errors.Is(err, orderbook.ErrUnknownSymbol):
		return enum.OrdRejReason_UNKNOWN_SYMBOL
	case errors.Is(err, orderbook.ErrDuplicateOrderID):
		return enum.OrdRejReason_DUPLICATE_ORDER
	case errors.Is(err, orderbook.ErrNonPositiveQuantity):
		return enum.OrdRejReason_INCORRECT_QUANTITY
	}
	return enum.OrdRejReason_OTHER
}

// cancelReject answers a cancel or replace request that did not apply.
func cancelReject(clOrdID, origClOrdID string, responseTo enum.CxlRejResponseTo, cause error) ordercancelreject.OrderCancelReject {
	msg := ordercancelreject.New(
		field.NewOrderID("NONE"),
		field.NewClOrdID(clOrdID),
		field.NewOrigClOrdID(origClOrdID),
		field.NewOrdStatus(enum.OrdStatus_REJECTED),
		field.NewCxlRejResponseTo(responseTo),
	)
	if errors.Is(cause, orderbook.ErrOrderNotFound) {
		msg.SetCxlRejReason(enum.CxlRejReason_UNKNOWN_ORDER)
	} else {
		msg.SetCxlRejReason(enum.CxlRejReason_OTHER)
	}
	msg.SetText(cause.Error())
	return msg
}
