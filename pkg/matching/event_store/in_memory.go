package eventstore

import (
	"sync"

	"github.com/joripage/matching-engine/pkg/matching/model"
)

type InMemoryEventStore struct {
	mu           sync.RWMutex
	orders       map[string][]*model.OrderEvent
	requestOrder map[string]string // RequestID -> OrderID
	requestChain map[string]string // RequestID -> OrigRequestID
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		orders:       make(map[string][]*model.OrderEvent),
		requestOrder: make(map[string]string),
		requestChain: make(map[string]string),
	}
}

func (s *InMemoryEventStore) AddEvent(ev *model.OrderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.Seq = len(s.orders[ev.OrderID]) + 1
	ev.EventID = model.NewEventID(ev.OrderID, ev.Seq)
	s.orders[ev.OrderID] = append(s.orders[ev.OrderID], ev)

	s.trackRequest(ev.OrderID, ev.RequestID, ev.OrigRequestID)
}

func (s *InMemoryEventStore) trackRequest(orderID, requestID, origRequestID string) {
	if requestID == "" {
		return
	}
	if _, ok := s.requestOrder[requestID]; !ok {
		s.requestOrder[requestID] = orderID
	}
	if origRequestID != "" && origRequestID != requestID {
		s.requestChain[requestID] = origRequestID
	}
}

// Events returns a copy of the events of orderID in order.
func (s *InMemoryEventStore) Events(orderID string) []*model.OrderEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.orders[orderID]
	out := make([]*model.OrderEvent, len(events))
	copy(out, events)
	return out
}

func (s *InMemoryEventStore) Latest(orderID string) (*model.OrderEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.orders[orderID]
	if len(events) == 0 {
		return nil, false
	}
	latest := *events[len(events)-1]
	return &latest, true
}

func (s *InMemoryEventStore) GetOrderID(requestID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.requestOrder[requestID]
}

// GetOrigRequestID returns the immediate OrigRequestID for a given RequestID
func (s *InMemoryEventStore) GetOrigRequestID(requestID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.requestChain[requestID]
}

// ReconstructChain walks backward to get full chain of request ids
func (s *InMemoryEventStore) ReconstructChain(requestID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []string
	seen := map[string]bool{}
	for curr := requestID; curr != "" && !seen[curr]; curr = s.requestChain[curr] {
		seen[curr] = true
		chain = append(chain, curr)
	}
	return chain
}
