// 包 domain 持仓服务的领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientShares 卖出数量超过当前持仓
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrVersionConflict 乐观锁版本冲突，调用方需携带最新状态重试
	ErrVersionConflict = errors.New("position version conflict")
)

// Position 持仓实体
// 一个持有人在一个作用域内对一个标的的持仓
// 不变式：TotalInvested == AverageCost × Quantity；数量为 0 的持仓删除而非落库
type Position struct {
	gorm.Model
	// 持有人用户 ID
	OwnerID string `gorm:"column:owner_id;type:varchar(32);not null;uniqueIndex:idx_owner_symbol_scope" json:"owner_id"`
	// 标的代码
	Symbol string `gorm:"column:symbol;type:varchar(32);not null;uniqueIndex:idx_owner_symbol_scope" json:"symbol"`
	// 作用域，空串为主账户，否则为比赛名称
	Scope string `gorm:"column:scope;type:varchar(64);not null;default:'';uniqueIndex:idx_owner_symbol_scope" json:"scope"`
	// 持有数量
	Quantity int64 `gorm:"column:quantity;not null" json:"quantity"`
	// 平均成本
	AverageCost decimal.Decimal `gorm:"column:average_cost;type:decimal(20,6);not null" json:"average_cost"`
	// 投入资金合计
	TotalInvested decimal.Decimal `gorm:"column:total_invested;type:decimal(20,2);not null" json:"total_invested"`
	// 乐观锁版本号
	Version int64 `gorm:"column:version;default:0;not null" json:"version"`
}

// TableName 指定表名
func (Position) TableName() string {
	return "positions"
}

// NewPosition 创建空持仓
func NewPosition(ownerID, symbol, scope string) *Position {
	return &Position{
		OwnerID:       ownerID,
		Symbol:        symbol,
		Scope:         scope,
		AverageCost:   decimal.Zero,
		TotalInvested: decimal.Zero,
	}
}

// ApplyBuy 买入后重算数量、投入与平均成本
func (p *Position) ApplyBuy(quantity int64, price decimal.Decimal) {
	notional := price.Mul(decimal.NewFromInt(quantity))
	p.Quantity += quantity
	p.TotalInvested = p.TotalInvested.Add(notional)
	p.AverageCost = p.TotalInvested.Div(decimal.NewFromInt(p.Quantity))
}

// ApplySell 卖出后缩减数量与投入
// 平均成本不因卖出改变，投入按剩余数量等比缩减；
// 数量不足时返回 ErrInsufficientShares
func (p *Position) ApplySell(quantity int64) error {
	if quantity > p.Quantity {
		return ErrInsufficientShares
	}
	p.Quantity -= quantity
	if p.Quantity == 0 {
		p.TotalInvested = decimal.Zero
		return nil
	}
	p.TotalInvested = p.AverageCost.Mul(decimal.NewFromInt(p.Quantity))
	return nil
}

// IsClosed 持仓是否已清空
func (p *Position) IsClosed() bool {
	return p.Quantity == 0
}

// MarketValue 按现价计的市值
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(p.Quantity))
}

// LossPercent 相对平均成本的亏损百分比，正值表示亏损
func (p *Position) LossPercent(currentPrice decimal.Decimal) decimal.Decimal {
	if !p.AverageCost.IsPositive() {
		return decimal.Zero
	}
	return p.AverageCost.Sub(currentPrice).Div(p.AverageCost).Mul(decimal.NewFromInt(100))
}

// PositionRepository 持仓仓储接口
type PositionRepository interface {
	// Get 按 (owner, symbol, scope) 复合键获取持仓，不存在时返回 (nil, nil)
	Get(ctx context.Context, ownerID, symbol, scope string) (*Position, error)
	// Save 带乐观锁保存，版本失配时返回 ErrVersionConflict
	Save(ctx context.Context, position *Position) error
	// Delete 删除持仓，数量归零时调用
	Delete(ctx context.Context, position *Position) error
	// ListByHolder 列出持有人在指定作用域下的全部持仓
	ListByHolder(ctx context.Context, ownerID, scope string) ([]*Position, error)
	// ListOpen 列出全体持有人的未平仓持仓，供止损巡检使用
	ListOpen(ctx context.Context) ([]*Position, error)
}
