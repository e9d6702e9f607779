package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/papertrading/internal/marketsim/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// instrumentRepository 标的仓储实现
type instrumentRepository struct {
	db *gorm.DB
}

// NewInstrumentRepository 创建标的仓储实例
func NewInstrumentRepository(db *gorm.DB) domain.InstrumentRepository {
	return &instrumentRepository{db: db}
}

func (r *instrumentRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// Save 保存或更新标的
func (r *instrumentRepository) Save(ctx context.Context, instrument *domain.Instrument) error {
	db := r.getDB(ctx)
	if instrument.ID == 0 {
		return db.WithContext(ctx).Create(instrument).Error
	}
	return db.WithContext(ctx).Save(instrument).Error
}

// Get 按代码获取标的，不存在时返回 nil
func (r *instrumentRepository) Get(ctx context.Context, symbol string) (*domain.Instrument, error) {
	var instrument domain.Instrument
	err := r.getDB(ctx).WithContext(ctx).Where("symbol = ?", symbol).First(&instrument).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &instrument, nil
}

// ListActive 列出所有活跃标的
func (r *instrumentRepository) ListActive(ctx context.Context) ([]*domain.Instrument, error) {
	var instruments []*domain.Instrument
	err := r.getDB(ctx).WithContext(ctx).
		Where("status = ?", domain.InstrumentStatusActive).
		Order("symbol asc").
		Find(&instruments).Error
	return instruments, err
}

// List 分页列出标的
func (r *instrumentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Instrument, int64, error) {
	db := r.getDB(ctx).WithContext(ctx).Model(&domain.Instrument{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var instruments []*domain.Instrument
	err := db.Order("symbol asc").Limit(limit).Offset(offset).Find(&instruments).Error
	return instruments, total, err
}

// priceHistoryRepository 价格历史仓储实现
type priceHistoryRepository struct {
	db *gorm.DB
}

// NewPriceHistoryRepository 创建价格历史仓储实例
func NewPriceHistoryRepository(db *gorm.DB) domain.PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

func (r *priceHistoryRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// Append 追加一条历史，并删除超出容量的最旧记录
func (r *priceHistoryRepository) Append(ctx context.Context, point *domain.PricePoint, cap int) error {
	db := r.getDB(ctx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(point).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&domain.PricePoint{}).
			Where("symbol = ?", point.Symbol).
			Count(&count).Error; err != nil {
			return err
		}
		if cap > 0 && count > int64(cap) {
			// 淘汰最旧的记录
			var victims []uint
			if err := tx.Model(&domain.PricePoint{}).
				Where("symbol = ?", point.Symbol).
				Order("recorded_at asc, id asc").
				Limit(int(count - int64(cap))).
				Pluck("id", &victims).Error; err != nil {
				return err
			}
			if len(victims) > 0 {
				if err := tx.Unscoped().Delete(&domain.PricePoint{}, victims).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Latest 获取最后一条历史记录
func (r *priceHistoryRepository) Latest(ctx context.Context, symbol string) (*domain.PricePoint, error) {
	var point domain.PricePoint
	err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("recorded_at desc, id desc").
		First(&point).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &point, nil
}

// ListAscending 按时间升序返回最近 limit 条历史
func (r *priceHistoryRepository) ListAscending(ctx context.Context, symbol string, limit int) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint
	err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("recorded_at desc, id desc").
		Limit(limit).
		Find(&points).Error
	if err != nil {
		return nil, err
	}
	// 查询按时间倒序取最近 limit 条，翻转成升序返回
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}
