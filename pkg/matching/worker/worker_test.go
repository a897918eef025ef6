package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/joripage/matching-engine/pkg/matching/model"
	"github.com/joripage/matching-engine/pkg/matching/repo"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTradeRepo struct {
	stored []*model.TradeEvent
	err    error
}

func (f *fakeTradeRepo) Create(ctx context.Context, record *model.TradeEvent) (*model.TradeEvent, error) {
	return f.BulkCreate(ctx, []*model.TradeEvent{record})
}

func (f *fakeTradeRepo) BulkCreate(_ context.Context, records []*model.TradeEvent) ([]*model.TradeEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.stored = append(f.stored, records...)
	return records, nil
}

func (f *fakeTradeRepo) ListByOrderID(context.Context, string) ([]*model.TradeEvent, error) {
	return f.stored, nil
}

func (f *fakeTradeRepo) ListBySymbol(context.Context, string, int) ([]*model.TradeEvent, error) {
	return f.stored, nil
}

type fakeRepo struct{ trade *fakeTradeRepo }

func (f fakeRepo) Trade() repo.ITrade { return f.trade }

func tradeMsg(t *testing.T, id string) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(&model.TradeEvent{TradeID: id, Symbol: "AAA", Price: decimal.NewFromInt(10), Quantity: 1})
	require.NoError(t, err)
	return &nats.Msg{Data: data}
}

func TestHandleMessagesStoresValid(t *testing.T) {
	trades := &fakeTradeRepo{}
	w := NewWorker(fakeRepo{trade: trades}, nil)

	w.handleMessages(context.Background(), []*nats.Msg{
		tradeMsg(t, "T1"),
		{Data: []byte("not json")},
		tradeMsg(t, "T2"),
	})

	require.Len(t, trades.stored, 2)
	assert.Equal(t, "T1", trades.stored[0].TradeID)
	assert.Equal(t, "T2", trades.stored[1].TradeID)
	assert.True(t, trades.stored[0].Price.Equal(decimal.NewFromInt(10)))
}

func TestHandleMessagesStoreFailure(t *testing.T) {
	trades := &fakeTradeRepo{err: errors.New("db down")}
	w := NewWorker(fakeRepo{trade: trades}, nil)

	w.handleMessages(context.Background(), []*nats.Msg{tradeMsg(t, "T1")})
	assert.Empty(t, trades.stored)
}
