package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/matching/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TradeSQLRepo struct {
	db *gorm.DB
}

func NewTradeSQLRepo(db *gorm.DB) *TradeSQLRepo {
	return &TradeSQLRepo{
		db: db,
	}
}

func (s *TradeSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (r *TradeSQLRepo) Create(ctx context.Context, record *model.TradeEvent) (*model.TradeEvent, error) {
	err := r.dbWithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "trade_id"}}, DoNothing: true}).
		Create(record).Error
	return record, err
}

func (r *TradeSQLRepo) BulkCreate(ctx context.Context, records []*model.TradeEvent) ([]*model.TradeEvent, error) {
	if len(records) == 0 {
		return records, nil
	}
	err := r.dbWithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "trade_id"}}, DoNothing: true}).
		Create(records).Error
	return records, err
}

func (r *TradeSQLRepo) ListByOrderID(ctx context.Context, orderID string) ([]*model.TradeEvent, error) {
	var records []*model.TradeEvent
	err := r.dbWithContext(ctx).
		Where("resting_order_id = ? OR incoming_order_id = ?", orderID, orderID).
		Order("executed_at, id").
		Find(&records).Error
	return records, err
}

func (r *TradeSQLRepo) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*model.TradeEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []*model.TradeEvent
	err := r.dbWithContext(ctx).
		Where("symbol = ?", symbol).
		Order("executed_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
