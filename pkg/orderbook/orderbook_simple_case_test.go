package orderbook

import (
	"fmt"
	"sync"
	"testing"
)

func TestSimpleMatch(t *testing.T) {
	e := NewMatchingEngine("test")
	cb := func(results []Trade) {
		if len(results) != 1 {
			t.Fatalf("expected 1 match, got %d", len(results))
		}

		match := results[0]
		if match.IncomingOrderID != "B1" || match.RestingOrderID != "S1" {
			t.Errorf("incorrect order IDs in match: %+v", match)
		}
		if match.Qty != 10 || !match.Price.Equal(px("99")) {
			t.Errorf("incorrect qty/price: %+v", match)
		}
	}
	e.RegisterTradeCallback(cb)

	// SELL first, then BUY, should match at the resting price
	submit(t, e, limit(t, "S1", SELL, 10, "99", 1))
	submit(t, e, limit(t, "B1", BUY, 10, "100", 2))
}

func TestNoMatchDueToPrice(t *testing.T) {
	e := NewMatchingEngine("test")
	cb := func(results []Trade) {
		t.Fatalf("expected no match, got %d", len(results))
	}
	e.RegisterTradeCallback(cb)

	submit(t, e, limit(t, "S1", SELL, 10, "100", 1))
	submit(t, e, limit(t, "B1", BUY, 10, "98", 2))

	snap := e.Snapshot()
	if len(snap.Bids) != 1 || len(snap.Asks) != 1 {
		t.Fatalf("expected both orders resting, got %+v", snap)
	}
}

func TestPartialMatch(t *testing.T) {
	e := NewMatchingEngine("test")
	cb := func(results []Trade) {
		if len(results) != 1 {
			t.Fatalf("expected 1 match, got %d", len(results))
		}
		if results[0].Qty != 5 {
			t.Errorf("expected matched qty 5, got %d", results[0].Qty)
		}
	}
	e.RegisterTradeCallback(cb)

	submit(t, e, limit(t, "S1", SELL, 5, "100", 1))
	buy := limit(t, "B1", BUY, 10, "101", 2)
	submit(t, e, buy)

	rest, ok := e.Order("B1")
	if !ok || rest.Qty != 5 || rest.Status != StatusPartiallyFilled {
		t.Fatalf("expected B1 resting with 5, got %+v (found=%v)", rest, ok)
	}
}

func TestFIFOMatch(t *testing.T) {
	e := NewMatchingEngine("test")
	cb := func(results []Trade) {
		if len(results) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(results))
		}
		if results[0].RestingOrderID != "S1" || results[1].RestingOrderID != "S2" {
			t.Errorf("expected FIFO match order, got %+v", results)
		}
	}
	e.RegisterTradeCallback(cb)

	// two SELLs at the same price
	submit(t, e, limit(t, "S1", SELL, 5, "100", 1))
	submit(t, e, limit(t, "S2", SELL, 5, "100", 2))

	submit(t, e, limit(t, "B1", BUY, 10, "100", 3))
}

func TestFIFOMatchOutOfOrderTimestamp(t *testing.T) {
	e := NewMatchingEngine("test")

	// S2 arrives second but carries the earlier timestamp
	submit(t, e, limit(t, "S1", SELL, 5, "100", 5))
	submit(t, e, limit(t, "S2", SELL, 5, "100", 1))

	trades := submit(t, e, limit(t, "B1", BUY, 5, "100", 6))
	if len(trades) != 1 || trades[0].RestingOrderID != "S2" {
		t.Fatalf("expected S2 to match first, got %+v", trades)
	}
}

func TestMultiLevelMatch(t *testing.T) {
	e := NewMatchingEngine("test")
	cb := func(results []Trade) {
		if len(results) != 3 {
			t.Fatalf("expected 3 matches, got %d", len(results))
		}
		if !results[0].Price.Equal(px("101")) || !results[2].Price.Equal(px("103")) {
			t.Errorf("expected matching from best price, got %+v", results)
		}
	}
	e.RegisterTradeCallback(cb)

	// SELLs at three rising prices
	submit(t, e, limit(t, "S1", SELL, 5, "101", 1))
	submit(t, e, limit(t, "S2", SELL, 5, "102", 2))
	submit(t, e, limit(t, "S3", SELL, 5, "103", 3))

	submit(t, e, limit(t, "B1", BUY, 15, "103", 4))

	snap := e.Snapshot()
	if len(snap.Asks) != 0 || len(snap.Bids) != 0 {
		t.Fatalf("expected empty book, got %+v", snap)
	}
}

func TestEquivalentPricesShareLevel(t *testing.T) {
	e := NewMatchingEngine("test")

	submit(t, e, limit(t, "S1", SELL, 5, "100", 1))
	submit(t, e, limit(t, "S2", SELL, 5, "100.00", 2))

	_, asks := e.Depth(0)
	if len(asks) != 1 || asks[0].Qty != 10 || asks[0].Orders != 2 {
		t.Fatalf("expected one level of 10, got %+v", asks)
	}
}

func TestConcurrentSubmit(t *testing.T) {
	e := NewMatchingEngine("test")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			side, price := BUY, "99"
			if i%2 == 1 {
				side, price = SELL, "99"
			}
			o, err := NewLimitOrder(fmt.Sprintf("O%d", i), "test", side, 1, px(price), at(i))
			if err != nil {
				t.Errorf("new order: %v", err)
				return
			}
			if _, err := e.Submit(o); err != nil {
				t.Errorf("submit: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// 25 buys and 25 sells of 1 at the same price fully cancel out
	snap := e.Snapshot()
	if len(snap.Bids)+len(snap.Asks) != 0 {
		t.Fatalf("expected empty book, got %d bids %d asks", len(snap.Bids), len(snap.Asks))
	}
}

func BenchmarkSubmit(b *testing.B) {
	e := NewMatchingEngine("test")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		side := BUY
		if i%2 == 0 {
			side = SELL
		}
		price := px(fmt.Sprintf("%d", 95+i%10))
		o, _ := NewLimitOrder(fmt.Sprintf("O%d", i), "test", side, 10, price, at(i))
		_, _ = e.Submit(o)
	}
}
