package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/matching/model"
)

type ITrade interface {
	// Create inserts record; a trade id already stored is skipped.
	Create(ctx context.Context, record *model.TradeEvent) (*model.TradeEvent, error)
	BulkCreate(ctx context.Context, records []*model.TradeEvent) ([]*model.TradeEvent, error)
	ListByOrderID(ctx context.Context, orderID string) ([]*model.TradeEvent, error)
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]*model.TradeEvent, error)
}
