package fixgateway

import (
	"errors"
	"testing"
	"time"

	"github.com/joripage/matching-engine/pkg/matching/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/quickfixgo/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAddOrder(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		ordType enum.OrdType
		tif     enum.TimeInForce
		want    orderbook.OrderType
		wantErr error
	}{
		{"limit", enum.OrdType_LIMIT, "", orderbook.LIMIT, nil},
		{"limit gtc", enum.OrdType_LIMIT, enum.TimeInForce_GOOD_TILL_CANCEL, orderbook.LIMIT, nil},
		{"limit ioc", enum.OrdType_LIMIT, enum.TimeInForce_IMMEDIATE_OR_CANCEL, orderbook.IOC, nil},
		{"market", enum.OrdType_MARKET, enum.TimeInForce_DAY, orderbook.MARKET, nil},
		{"limit fok", enum.OrdType_LIMIT, enum.TimeInForce_FILL_OR_KILL, "", ErrUnsupportedTimeInForce},
		{"stop", enum.OrdType_STOP, "", "", orderbook.ErrUndefinedOrderType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := toAddOrder(&NewOrderSingle{
				ClOrdID:      "C1",
				Symbol:       "AAA",
				OrdType:      tt.ordType,
				TimeInForce:  tt.tif,
				Side:         enum.Side_SELL,
				Price:        decimal.RequireFromString("10.5"),
				OrderQty:     decimal.NewFromInt(7),
				TransactTime: ts,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Type)
			assert.Equal(t, "C1", req.OrderID)
			assert.Equal(t, orderbook.SELL, req.Side)
			assert.True(t, req.Quantity.Equal(decimal.NewFromInt(7)))
			assert.Equal(t, ts, req.TransactTime)
			if tt.want == orderbook.MARKET {
				assert.True(t, req.Price.IsZero())
			}
		})
	}
}

func TestOrderEventToExecutionReport(t *testing.T) {
	ev := &model.OrderEvent{
		EventID:      "O1-3",
		OrderID:      "O1",
		RequestID:    "R2",
		Symbol:       "AAA",
		Side:         orderbook.BUY,
		Type:         orderbook.IOC,
		ExecType:     model.ExecTypeTrade,
		Status:       orderbook.StatusPartiallyFilled,
		Price:        decimal.NewFromInt(101),
		Quantity:     10,
		CumQuantity:  4,
		LeavesQty:    6,
		LastQuantity: 4,
		LastPrice:    decimal.NewFromInt(100),
		AvgPrice:     decimal.NewFromInt(100),
		TradeID:      "T1",
		Timestamp:    time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
	}

	msg := orderEventToExecutionReport(ev)

	execType, err := msg.GetExecType()
	require.Nil(t, err)
	assert.Equal(t, enum.ExecType_TRADE, execType)

	status, err := msg.GetOrdStatus()
	require.Nil(t, err)
	assert.Equal(t, enum.OrdStatus_PARTIALLY_FILLED, status)

	clOrdID, err := msg.GetClOrdID()
	require.Nil(t, err)
	assert.Equal(t, "R2", clOrdID)

	execID, err := msg.GetExecID()
	require.Nil(t, err)
	assert.Equal(t, "O1-3", execID)

	ordType, err := msg.GetOrdType()
	require.Nil(t, err)
	assert.Equal(t, enum.OrdType_LIMIT, ordType)

	tif, err := msg.GetTimeInForce()
	require.Nil(t, err)
	assert.Equal(t, enum.TimeInForce_IMMEDIATE_OR_CANCEL, tif)

	leaves, err := msg.GetLeavesQty()
	require.Nil(t, err)
	assert.True(t, leaves.Equal(decimal.NewFromInt(6)))

	lastQty, err := msg.GetLastQty()
	require.Nil(t, err)
	assert.True(t, lastQty.Equal(decimal.NewFromInt(4)))

	lastPx, err := msg.GetLastPx()
	require.Nil(t, err)
	assert.True(t, lastPx.Equal(decimal.NewFromInt(100)))

	assert.False(t, msg.HasOrigClOrdID())
}

func TestDiscardedReportsExpired(t *testing.T) {
	msg := orderEventToExecutionReport(&model.OrderEvent{
		EventID:  "M1-2",
		OrderID:  "M1",
		Side:     orderbook.SELL,
		Type:     orderbook.MARKET,
		ExecType: model.ExecTypeExpired,
		Status:   orderbook.StatusDiscarded,
		Quantity: 5,
	})

	status, err := msg.GetOrdStatus()
	require.Nil(t, err)
	assert.Equal(t, enum.OrdStatus_EXPIRED, status)
	assert.False(t, msg.HasPrice())
	assert.False(t, msg.HasLastQty())
}

func TestRejectReasons(t *testing.T) {
	report := rejectReport(&NewOrderSingle{ClOrdID: "C1", Side: enum.Side_BUY, OrderQty: decimal.NewFromInt(1)}, orderbook.ErrDuplicateOrderID)
	reason, err := report.GetOrdRejReason()
	require.Nil(t, err)
	assert.Equal(t, enum.OrdRejReason_DUPLICATE_ORDER, reason)

	assert.Equal(t, enum.OrdRejReason_OTHER, ordRejReason(errors.New("boom")))

	reject := cancelReject("C2", "C1", enum.CxlRejResponseTo_ORDER_CANCEL_REQUEST, orderbook.ErrOrderNotFound)
	cxlReason, err := reject.GetCxlRejReason()
	require.Nil(t, err)
	assert.Equal(t, enum.CxlRejReason_UNKNOWN_ORDER, cxlReason)
}
