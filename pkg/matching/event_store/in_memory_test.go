package eventstore

import (
	"testing"
	"time"

	"github.com/joripage/matching-engine/pkg/matching/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEventAssignsSequence(t *testing.T) {
	s := NewInMemoryEventStore()
	now := time.Now()

	s.AddEvent(&model.OrderEvent{OrderID: "O1", RequestID: "O1", ExecType: model.ExecTypeNew, Status: orderbook.StatusResting, LeavesQty: 10, Timestamp: now})
	s.AddEvent(&model.OrderEvent{OrderID: "O1", RequestID: "R2", OrigRequestID: "O1", ExecType: model.ExecTypeReplaced, Status: orderbook.StatusResting, LeavesQty: 5, Timestamp: now})

	events := s.Events("O1")
	require.Len(t, events, 2)
	assert.Equal(t, "O1-1", events[0].EventID)
	assert.Equal(t, 2, events[1].Seq)

	latest, ok := s.Latest("O1")
	require.True(t, ok)
	assert.Equal(t, int64(5), latest.LeavesQty)

	_, ok = s.Latest("missing")
	assert.False(t, ok)
}

func TestRequestChain(t *testing.T) {
	s := NewInMemoryEventStore()

	s.AddEvent(&model.OrderEvent{OrderID: "O1", RequestID: "C1"})
	s.AddEvent(&model.OrderEvent{OrderID: "O1", RequestID: "C2", OrigRequestID: "C1"})
	s.AddEvent(&model.OrderEvent{OrderID: "O1", RequestID: "C3", OrigRequestID: "C2"})

	assert.Equal(t, "O1", s.GetOrderID("C3"))
	assert.Equal(t, "C2", s.GetOrigRequestID("C3"))
	assert.Equal(t, []string{"C3", "C2", "C1"}, s.ReconstructChain("C3"))
	assert.Empty(t, s.GetOrderID("C9"))
}

func TestLatestReturnsCopy(t *testing.T) {
	s := NewInMemoryEventStore()
	s.AddEvent(&model.OrderEvent{OrderID: "O1", LeavesQty: 10})

	latest, _ := s.Latest("O1")
	latest.LeavesQty = 1

	again, _ := s.Latest("O1")
	assert.Equal(t, int64(10), again.LeavesQty)
}
