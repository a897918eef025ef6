package orderbook

import (
	"container/heap"
	"sort"

	"github.com/gammazero/deque"
	"github.com/shopspring/decimal"
)

type priceLevel struct {
	price  decimal.Decimal
	orders deque.Deque[*Order]
}

// bookSide holds the resting orders of one side: a heap of level prices over a
// map of per-price queues kept in time priority. Levels emptied by cancel stay
// in the heap until they reach the top and are pruned there.
type bookSide struct {
	side   Side
	levels map[string]*priceLevel
	prices *PriceHeap
	size   int
}

func newBookSide(side Side) *bookSide {
	less := func(i, j decimal.Decimal) bool { return i.LessThan(j) } // Min-heap
	if side == BUY {
		less = func(i, j decimal.Decimal) bool { return i.GreaterThan(j) } // Max-heap
	}

	return &bookSide{
		side:   side,
		levels: make(map[string]*priceLevel),
		prices: NewPriceHeap(less),
	}
}

// better reports whether price a has priority over price b on this side.
func (s *bookSide) better(a, b decimal.Decimal) bool {
	if s.side == BUY {
		return a.GreaterThan(b)
	}
	return a.LessThan(b)
}

func (s *bookSide) push(order *Order) {
	key := priceKey(order.Price)
	level := s.levels[key]
	if level == nil {
		level = &priceLevel{price: order.Price}
		s.levels[key] = level
	}
	if !s.prices.Contains(order.Price) {
		heap.Push(s.prices, order.Price)
	}

	n := level.orders.Len()
	if n == 0 || level.orders.Back().before(order) {
		level.orders.PushBack(order)
	} else {
		// out-of-order timestamp, keep the queue in time priority
		i := level.orders.Index(func(o *Order) bool { return order.before(o) })
		level.orders.Insert(i, order)
	}
	s.size++
}

// front returns the best non-empty level, pruning stale prices on the way.
func (s *bookSide) front() *priceLevel {
	for {
		price, ok := s.prices.Peek()
		if !ok {
			return nil
		}
		key := priceKey(price)
		level := s.levels[key]
		if level != nil && level.orders.Len() > 0 {
			return level
		}
		heap.Pop(s.prices)
		delete(s.levels, key)
	}
}

func (s *bookSide) best() *Order {
	level := s.front()
	if level == nil {
		return nil
	}
	return level.orders.Front()
}

func (s *bookSide) popFront() *Order {
	level := s.front()
	if level == nil {
		return nil
	}
	s.size--
	return level.orders.PopFront()
}

func (s *bookSide) remove(order *Order) bool {
	level := s.levels[priceKey(order.Price)]
	if level == nil {
		return false
	}
	i := level.orders.Index(func(o *Order) bool { return o == order })
	if i < 0 {
		return false
	}
	level.orders.Remove(i)
	s.size--
	return true
}

// orders returns copies of the resting orders in priority order.
func (s *bookSide) orders() []Order {
	levels := make([]*priceLevel, 0, len(s.levels))
	for _, level := range s.levels {
		if level.orders.Len() > 0 {
			levels = append(levels, level)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return s.better(levels[i].price, levels[j].price) })

	out := make([]Order, 0, s.size)
	for _, level := range levels {
		for i := 0; i < level.orders.Len(); i++ {
			out = append(out, *level.orders.At(i))
		}
	}
	return out
}

func (s *bookSide) depth(n int) []Level {
	levels := make([]Level, 0, len(s.levels))
	for _, level := range s.levels {
		if level.orders.Len() == 0 {
			continue
		}
		l := Level{Price: level.price, Orders: level.orders.Len()}
		for i := 0; i < level.orders.Len(); i++ {
			l.Qty += level.orders.At(i).Qty
		}
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return s.better(levels[i].Price, levels[j].Price) })

	if n > 0 && len(levels) > n {
		levels = levels[:n]
	}
	return levels
}
