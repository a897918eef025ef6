package repo

import (
	"context"
	"testing"
	"time"

	"github.com/joripage/matching-engine/pkg/matching/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB builds statements without a live database.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(pg.New(pg.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestTradeCreateSkipsDuplicates(t *testing.T) {
	db := dryRunDB(t)
	r := NewTradeSQLRepo(db)

	rec := &model.TradeEvent{
		TradeID:         "T1",
		Symbol:          "AAA",
		RestingOrderID:  "1",
		IncomingOrderID: "2",
		Side:            "SELL",
		Price:           decimal.RequireFromString("10.5"),
		Quantity:        4,
		ExecutedAt:      time.Now(),
	}
	var captured string
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture", func(tx *gorm.DB) {
		captured = tx.Statement.SQL.String()
	}))

	_, err := r.Create(context.Background(), rec)
	require.NoError(t, err)
	assert.Contains(t, captured, `INSERT INTO "trades"`)
	assert.Contains(t, captured, "ON CONFLICT")
	assert.Contains(t, captured, "DO NOTHING")
}

func TestTradeListByOrderIDQuery(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var records []*model.TradeEvent
		return tx.Where("resting_order_id = ? OR incoming_order_id = ?", "1", "1").Order("executed_at, id").Find(&records)
	})
	assert.Contains(t, sql, `FROM "trades"`)
	assert.Contains(t, sql, "resting_order_id = '1' OR incoming_order_id = '1'")
}

func TestBulkCreateEmpty(t *testing.T) {
	r := NewTradeSQLRepo(dryRunDB(t))
	out, err := r.BulkCreate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
