package orderbook

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var t0 = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func px(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func at(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Millisecond)
}

func limit(t testing.TB, id string, side Side, qty int64, price string, n int) *Order {
	t.Helper()
	o, err := NewLimitOrder(id, "test", side, qty, px(price), at(n))
	if err != nil {
		t.Fatalf("new limit order %s: %v", id, err)
	}
	return o
}

func market(t testing.TB, id string, side Side, qty int64, n int) *Order {
	t.Helper()
	o, err := NewMarketOrder(id, "test", side, qty, at(n))
	if err != nil {
		t.Fatalf("new market order %s: %v", id, err)
	}
	return o
}

func ioc(t testing.TB, id string, side Side, qty int64, price string, n int) *Order {
	t.Helper()
	o, err := NewIOCOrder(id, "test", side, qty, px(price), at(n))
	if err != nil {
		t.Fatalf("new ioc order %s: %v", id, err)
	}
	return o
}

func submit(t testing.TB, e *MatchingEngine, o *Order) []Trade {
	t.Helper()
	trades, err := e.Submit(o)
	if err != nil {
		t.Fatalf("submit %s: %v", o.ID, err)
	}
	return trades
}

// checkBook verifies ordering and the no-cross rule on a snapshot.
func checkBook(t testing.TB, snap Snapshot) {
	t.Helper()
	for i := 1; i < len(snap.Bids); i++ {
		prev, cur := snap.Bids[i-1], snap.Bids[i]
		if prev.Price.LessThan(cur.Price) ||
			(prev.Price.Equal(cur.Price) && cur.Timestamp.Before(prev.Timestamp)) {
			t.Fatalf("bids out of order at %d: %+v before %+v", i, prev, cur)
		}
	}
	for i := 1; i < len(snap.Asks); i++ {
		prev, cur := snap.Asks[i-1], snap.Asks[i]
		if prev.Price.GreaterThan(cur.Price) ||
			(prev.Price.Equal(cur.Price) && cur.Timestamp.Before(prev.Timestamp)) {
			t.Fatalf("asks out of order at %d: %+v before %+v", i, prev, cur)
		}
	}
	if len(snap.Bids) > 0 && len(snap.Asks) > 0 && !snap.Bids[0].Price.LessThan(snap.Asks[0].Price) {
		t.Fatalf("crossed book: best bid %s, best ask %s", snap.Bids[0].Price, snap.Asks[0].Price)
	}
}
