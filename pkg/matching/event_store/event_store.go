package eventstore

import "github.com/joripage/matching-engine/pkg/matching/model"

// EventStore keeps the lifecycle events of every order and the chain of
// request ids that touched it.
type EventStore interface {
	// AddEvent appends ev and assigns its sequence number and event id.
	AddEvent(ev *model.OrderEvent)
	Events(orderID string) []*model.OrderEvent
	Latest(orderID string) (*model.OrderEvent, bool)
	GetOrderID(requestID string) string
	GetOrigRequestID(requestID string) string
	ReconstructChain(requestID string) []string
}
