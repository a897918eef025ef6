package model

import (
	"testing"
	"time"

	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyFill(t *testing.T) {
	ev := &OrderEvent{OrderID: "1", Status: orderbook.StatusResting, Quantity: 10, LeavesQty: 10}

	ev.ApplyFill("T1", 4, decimal.NewFromInt(10))
	assert.Equal(t, orderbook.StatusPartiallyFilled, ev.Status)
	assert.Equal(t, int64(6), ev.LeavesQty)
	assert.True(t, ev.AvgPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, ev.Open())

	ev.ApplyFill("T2", 6, decimal.NewFromInt(15))
	assert.Equal(t, orderbook.StatusFilled, ev.Status)
	assert.Equal(t, int64(10), ev.CumQuantity)
	assert.True(t, ev.AvgPrice.Equal(decimal.NewFromInt(13)), ev.AvgPrice.String())
	assert.False(t, ev.Open())
}

func TestNextResetsLastFill(t *testing.T) {
	ts := time.Now()
	ev := &OrderEvent{OrderID: "1", LastQuantity: 3, TradeID: "T1", Text: "x"}

	next := ev.Next(ExecTypeCanceled, ts)
	assert.Equal(t, ExecTypeCanceled, next.ExecType)
	assert.Zero(t, next.LastQuantity)
	assert.Empty(t, next.TradeID)
	assert.Empty(t, next.Text)
	assert.Equal(t, "T1", ev.TradeID)
}

func TestCommandSymbol(t *testing.T) {
	assert.Equal(t, "AAA", (&Command{Action: CommandSubmit, Submit: &AddOrder{Symbol: "AAA"}}).Symbol())
	assert.Equal(t, "BBB", (&Command{Action: CommandCancel, Cancel: &CancelOrder{Symbol: "BBB"}}).Symbol())
	assert.Empty(t, (&Command{Action: CommandAmend}).Symbol())
}
