package mysql

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/papertrading/internal/execution/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// recordRepository 成交审计记录仓储实现
type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository 创建成交审计记录仓储实例
func NewRecordRepository(db *gorm.DB) domain.RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// SaveTransaction 写入成交流水，只增不改
func (r *recordRepository) SaveTransaction(ctx context.Context, transaction *domain.TradeTransaction) error {
	return r.getDB(ctx).WithContext(ctx).Create(transaction).Error
}

// SaveOrder 写入订单审计记录
func (r *recordRepository) SaveOrder(ctx context.Context, order *domain.TradeOrder) error {
	return r.getDB(ctx).WithContext(ctx).Create(order).Error
}

// ListTransactions 按持有人分页查询成交历史，按时间倒序
func (r *recordRepository) ListTransactions(ctx context.Context, ownerID, scope string, limit, offset int) ([]*domain.TradeTransaction, int64, error) {
	db := r.getDB(ctx).WithContext(ctx).Model(&domain.TradeTransaction{}).
		Where("owner_id = ? AND scope = ?", ownerID, scope)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []*domain.TradeTransaction
	err := db.Order("executed_at desc, id desc").
		Limit(limit).Offset(offset).
		Find(&transactions).Error
	return transactions, total, err
}

// SumBuyNotionalSince 统计持有人自 since 起已成交买入名义金额合计
func (r *recordRepository) SumBuyNotionalSince(ctx context.Context, ownerID, scope string, since time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.getDB(ctx).WithContext(ctx).
		Model(&domain.TradeTransaction{}).
		Select("SUM(total_amount)").
		Where("owner_id = ? AND scope = ? AND side = ? AND executed_at >= ?",
			ownerID, scope, domain.SideBuy, since).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
