package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrBreakerActive 同一标的已存在生效中的熔断记录
var ErrBreakerActive = errors.New("circuit breaker already active for symbol")

// CircuitBreakerState 单个标的的熔断状态
// 唯一性约束建立在 (symbol, is_active) 上：生效记录 is_active 为 true，
// 失效后置为 NULL，MySQL 允许多行 NULL，因此每个标的同一时刻至多一条生效记录
type CircuitBreakerState struct {
	gorm.Model
	Symbol        string          `gorm:"column:symbol;type:varchar(32);not null;uniqueIndex:idx_symbol_active" json:"symbol"`
	IsActive      *bool           `gorm:"column:is_active;uniqueIndex:idx_symbol_active" json:"is_active"`
	TriggeredAt   time.Time       `gorm:"column:triggered_at;not null" json:"triggered_at"`
	ResumesAt     time.Time       `gorm:"column:resumes_at;not null;index" json:"resumes_at"`
	ChangePercent decimal.Decimal `gorm:"column:change_percent;type:decimal(10,4);not null" json:"change_percent"`
	OldPrice      decimal.Decimal `gorm:"column:old_price;type:decimal(20,2);not null" json:"old_price"`
	NewPrice      decimal.Decimal `gorm:"column:new_price;type:decimal(20,2);not null" json:"new_price"`
}

// TableName 指定表名
func (CircuitBreakerState) TableName() string {
	return "risk_circuit_breakers"
}

// NewCircuitBreaker 基于价格跳变创建生效中的熔断记录
func NewCircuitBreaker(symbol string, oldPrice, newPrice, changePercent decimal.Decimal, now time.Time, coolOff time.Duration) *CircuitBreakerState {
	active := true
	return &CircuitBreakerState{
		Symbol:        symbol,
		IsActive:      &active,
		TriggeredAt:   now,
		ResumesAt:     now.Add(coolOff),
		ChangePercent: changePercent,
		OldPrice:      oldPrice,
		NewPrice:      newPrice,
	}
}

// ActiveAt 判断熔断在给定时刻是否仍然生效
func (b *CircuitBreakerState) ActiveAt(now time.Time) bool {
	return b != nil && b.IsActive != nil && *b.IsActive && now.Before(b.ResumesAt)
}

// CircuitBreakerRepository 熔断状态仓储接口
type CircuitBreakerRepository interface {
	// Create 写入新的生效记录；唯一索引冲突时返回 ErrBreakerActive
	Create(ctx context.Context, breaker *CircuitBreakerState) error
	// GetActive 返回标的当前生效中的熔断记录，不存在时返回 (nil, nil)
	GetActive(ctx context.Context, symbol string) (*CircuitBreakerState, error)
	ListActive(ctx context.Context) ([]*CircuitBreakerState, error)
	// DeactivateExpired 将 resumes_at <= now 的生效记录置为失效，返回处理条数
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
