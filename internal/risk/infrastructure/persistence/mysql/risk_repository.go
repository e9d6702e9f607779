package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wyfcoding/papertrading/internal/risk/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// ruleSetRepository 规则集仓储实现，表中至多一行
type ruleSetRepository struct {
	db *gorm.DB
}

// NewRuleSetRepository 创建规则集仓储实例
func NewRuleSetRepository(db *gorm.DB) domain.RuleSetRepository {
	return &ruleSetRepository{db: db}
}

func (r *ruleSetRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// Get 读取规则集，未配置时返回 nil
func (r *ruleSetRepository) Get(ctx context.Context) (*domain.RuleSet, error) {
	var rules domain.RuleSet
	err := r.getDB(ctx).WithContext(ctx).Order("id asc").First(&rules).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rules, nil
}

// Save 保存规则集；始终覆盖现有单行
func (r *ruleSetRepository) Save(ctx context.Context, rules *domain.RuleSet) error {
	db := r.getDB(ctx)
	if rules.ID == 0 {
		var existing domain.RuleSet
		err := db.WithContext(ctx).Order("id asc").First(&existing).Error
		if err == nil {
			rules.ID = existing.ID
			rules.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if rules.ID == 0 {
		return db.WithContext(ctx).Create(rules).Error
	}
	return db.WithContext(ctx).Save(rules).Error
}

// circuitBreakerRepository 熔断状态仓储实现
type circuitBreakerRepository struct {
	db *gorm.DB
}

// NewCircuitBreakerRepository 创建熔断状态仓储实例
func NewCircuitBreakerRepository(db *gorm.DB) domain.CircuitBreakerRepository {
	return &circuitBreakerRepository{db: db}
}

func (r *circuitBreakerRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// Create 写入生效记录，(symbol, is_active) 唯一索引冲突时返回 ErrBreakerActive
func (r *circuitBreakerRepository) Create(ctx context.Context, breaker *domain.CircuitBreakerState) error {
	err := r.getDB(ctx).WithContext(ctx).Create(breaker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
			return domain.ErrBreakerActive
		}
		return err
	}
	return nil
}

// GetActive 返回标的当前生效中的熔断记录，不存在时返回 nil
func (r *circuitBreakerRepository) GetActive(ctx context.Context, symbol string) (*domain.CircuitBreakerState, error) {
	var breaker domain.CircuitBreakerState
	err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ? AND is_active = ?", symbol, true).
		First(&breaker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &breaker, nil
}

// ListActive 列出所有生效中的熔断记录
func (r *circuitBreakerRepository) ListActive(ctx context.Context) ([]*domain.CircuitBreakerState, error) {
	var breakers []*domain.CircuitBreakerState
	err := r.getDB(ctx).WithContext(ctx).
		Where("is_active = ?", true).
		Order("triggered_at desc").
		Find(&breakers).Error
	return breakers, err
}

// DeactivateExpired 将到期记录的 is_active 置为 NULL，返回处理条数
// NULL 不参与唯一索引判重，使同标的可以再次触发
func (r *circuitBreakerRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.getDB(ctx).WithContext(ctx).
		Model(&domain.CircuitBreakerState{}).
		Where("is_active = ? AND resumes_at <= ?", true, now).
		Update("is_active", nil)
	return result.RowsAffected, result.Error
}
