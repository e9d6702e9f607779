package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/papertrading/internal/position/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// positionRepository 持仓仓储实现
type positionRepository struct {
	db *gorm.DB
}

// NewPositionRepository 创建持仓仓储实例
func NewPositionRepository(db *gorm.DB) domain.PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// Get 按 (owner, symbol, scope) 复合键获取持仓，不存在时返回 nil
func (r *positionRepository) Get(ctx context.Context, ownerID, symbol, scope string) (*domain.Position, error) {
	var position domain.Position
	err := r.getDB(ctx).WithContext(ctx).
		Where("owner_id = ? AND symbol = ? AND scope = ?", ownerID, symbol, scope).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &position, nil
}

// Save 保存持仓，更新路径带乐观锁
func (r *positionRepository) Save(ctx context.Context, position *domain.Position) error {
	db := r.getDB(ctx)
	if position.ID == 0 {
		return db.WithContext(ctx).Create(position).Error
	}

	currentVersion := position.Version
	result := db.WithContext(ctx).Model(&domain.Position{}).
		Where("id = ? AND version = ?", position.ID, currentVersion).
		Updates(map[string]any{
			"quantity":       position.Quantity,
			"average_cost":   position.AverageCost,
			"total_invested": position.TotalInvested,
			"version":        currentVersion + 1,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	position.Version = currentVersion + 1
	return nil
}

// Delete 物理删除持仓
// 复合唯一索引要求硬删除，软删除残留会阻止同键重建
func (r *positionRepository) Delete(ctx context.Context, position *domain.Position) error {
	return r.getDB(ctx).WithContext(ctx).Unscoped().Delete(position).Error
}

// ListByHolder 列出持有人在指定作用域下的全部持仓
func (r *positionRepository) ListByHolder(ctx context.Context, ownerID, scope string) ([]*domain.Position, error) {
	var positions []*domain.Position
	err := r.getDB(ctx).WithContext(ctx).
		Where("owner_id = ? AND scope = ?", ownerID, scope).
		Order("symbol asc").
		Find(&positions).Error
	return positions, err
}

// ListOpen 列出全体未平仓持仓
func (r *positionRepository) ListOpen(ctx context.Context) ([]*domain.Position, error) {
	var positions []*domain.Position
	err := r.getDB(ctx).WithContext(ctx).
		Where("quantity > 0").
		Order("id asc").
		Find(&positions).Error
	return positions, err
}
