package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineManagerIsolatesSymbols(t *testing.T) {
	m := NewEngineManager(nil, nil)

	var got []Trade
	m.RegisterTradeCallback(func(trades []Trade) { got = append(got, trades...) })

	a, err := NewLimitOrder("1", "AAA", SELL, 5, px("10"), t0)
	require.NoError(t, err)
	b, err := NewLimitOrder("2", "BBB", BUY, 5, px("10"), t0)
	require.NoError(t, err)

	_, err = m.Submit(a)
	require.NoError(t, err)
	trades, err := m.Submit(b)
	require.NoError(t, err)
	assert.Empty(t, trades, "orders on different symbols must not match")

	c, err := NewMarketOrder("3", "AAA", BUY, 5, t0)
	require.NoError(t, err)
	trades, err = m.Submit(c)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "AAA", trades[0].Symbol)
	assert.Len(t, got, 1)

	assert.Equal(t, []string{"AAA", "BBB"}, m.Symbols())
}

func TestEngineManagerFixedSymbols(t *testing.T) {
	m := NewEngineManager(&EngineManagerConfig{Symbols: []string{"AAA"}}, nil)

	o, err := NewLimitOrder("1", "ZZZ", BUY, 5, px("10"), t0)
	require.NoError(t, err)
	_, err = m.Submit(o)
	require.ErrorIs(t, err, ErrUnknownSymbol)
	assert.Equal(t, StatusRejected, o.Status)

	require.ErrorIs(t, m.Cancel("ZZZ", "1"), ErrUnknownSymbol)
	require.ErrorIs(t, m.Amend("AAA", "1", 1), ErrOrderNotFound)

	snap, err := m.Snapshot("AAA")
	require.NoError(t, err)
	assert.Equal(t, "AAA", snap.Symbol)
}
