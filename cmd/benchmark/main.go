package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

const (
	minPrice = 10000 // in ticks of 0.01
	maxPrice = 10200
	minQty   = 1
	maxQty   = 100
)

type flow struct {
	rnd    *rand.Rand
	symbol string
	next   int
	live   []string
}

func (f *flow) order(now time.Time) (*orderbook.Order, error) {
	f.next++
	id := fmt.Sprintf("%s-%07d", f.symbol, f.next)

	side := orderbook.BUY
	if f.rnd.Intn(2) == 0 {
		side = orderbook.SELL
	}
	price := decimal.New(int64(minPrice+f.rnd.Intn(maxPrice-minPrice+1)), -2)
	qty := int64(f.rnd.Intn(maxQty-minQty+1) + minQty)

	switch n := f.rnd.Intn(100); {
	case n < 5:
		return orderbook.NewMarketOrder(id, f.symbol, side, qty, now)
	case n < 15:
		return orderbook.NewIOCOrder(id, f.symbol, side, qty, price, now)
	}
	f.live = append(f.live, id)
	return orderbook.NewLimitOrder(id, f.symbol, side, qty, price, now)
}

func main() {
	var numOrders, numSymbols int
	flag.IntVar(&numOrders, "orders", 1_000_000, "orders per symbol")
	flag.IntVar(&numSymbols, "symbols", 4, "symbols, one goroutine each")
	flag.Parse()

	obm := orderbook.NewEngineManager(nil, nil)

	var totalMatched, totalQty, cancels, amends atomic.Int64
	obm.RegisterTradeCallback(func(trades []orderbook.Trade) {
		for _, t := range trades {
			totalMatched.Add(1)
			totalQty.Add(t.Qty)
		}
	})

	start := time.Now()
	var wg sync.WaitGroup
	for s := 0; s < numSymbols; s++ {
		wg.Add(1)
		go func(seed int64, symbol string) {
			defer wg.Done()
			f := &flow{rnd: rand.New(rand.NewSource(seed)), symbol: symbol}
			ts := time.Unix(0, 0)
			for i := 0; i < numOrders; i++ {
				ts = ts.Add(time.Microsecond)

				// one in ten steps touches a resting order instead
				if len(f.live) > 0 && f.rnd.Intn(10) == 0 {
					k := f.rnd.Intn(len(f.live))
					id := f.live[k]
					if f.rnd.Intn(2) == 0 {
						if obm.Cancel(symbol, id) == nil {
							cancels.Add(1)
						}
						f.live[k] = f.live[len(f.live)-1]
						f.live = f.live[:len(f.live)-1]
					} else if o, ok := obm.Order(symbol, id); ok && o.Qty > 1 {
						if obm.Amend(symbol, id, o.Qty/2) == nil {
							amends.Add(1)
						}
					}
					continue
				}

				order, err := f.order(ts)
				if err != nil {
					panic(err)
				}
				if _, err := obm.Submit(order); err != nil {
					panic(err)
				}
			}
		}(int64(s+1), fmt.Sprintf("SYM%d", s))
	}
	wg.Wait()
	elapsed := time.Since(start)

	resting := 0
	for _, symbol := range obm.Symbols() {
		snap, _ := obm.Snapshot(symbol)
		resting += len(snap.Bids) + len(snap.Asks)
	}

	total := numOrders * numSymbols
	fmt.Println("--------")
	fmt.Printf("Symbols          : %d\n", numSymbols)
	fmt.Printf("Commands         : %d\n", total)
	fmt.Printf("Trades           : %d\n", totalMatched.Load())
	fmt.Printf("Matched Qty      : %d\n", totalQty.Load())
	fmt.Printf("Cancels / Amends : %d / %d\n", cancels.Load(), amends.Load())
	fmt.Printf("Resting Orders   : %d\n", resting)
	fmt.Printf("Time Taken       : %s\n", elapsed)
	fmt.Printf("Throughput       : %.0f cmd/s\n", float64(total)/elapsed.Seconds())
}
