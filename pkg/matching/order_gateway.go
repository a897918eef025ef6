package matching

import (
	"context"

	"github.com/joripage/matching-engine/pkg/matching/model"
)

// OrderGateway is a client-facing transport. It receives every recorded
// lifecycle event except rejections, which are returned to the caller.
type OrderGateway interface {
	Start(ctx context.Context) error

	// matching to client
	OnOrderReport(ctx context.Context, ev *model.OrderEvent)
}
