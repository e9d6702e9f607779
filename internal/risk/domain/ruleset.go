// Package domain 风控模块的领域模型
// 包含交易规则集、熔断状态与规则校验管道
package domain

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultSectorCapKey 未单独配置板块时使用的兜底键
const DefaultSectorCapKey = "others"

// RuleSet 交易规则集（单例配置）
// 校验器只读，修改走管理接口；规则集在调用时显式注入校验器，
// 不存在规则集时校验器放行（fail-open，决策记录见 DESIGN.md）
type RuleSet struct {
	gorm.Model
	PerTradeLimit           decimal.Decimal `gorm:"column:per_trade_limit;type:decimal(20,2);not null" json:"per_trade_limit"`
	MinTradeAmount          decimal.Decimal `gorm:"column:min_trade_amount;type:decimal(20,2);not null" json:"min_trade_amount"`
	DailyTradeLimit         decimal.Decimal `gorm:"column:daily_trade_limit;type:decimal(20,2);not null" json:"daily_trade_limit"`
	MaxDailyLossPercent     decimal.Decimal `gorm:"column:max_daily_loss_percent;type:decimal(10,4);not null" json:"max_daily_loss_percent"`
	MaxPortfolioLossPercent decimal.Decimal `gorm:"column:max_portfolio_loss_percent;type:decimal(10,4);not null" json:"max_portfolio_loss_percent"`
	// MarketOpenTime / MarketCloseTime 为本地时间 "HH:MM"
	MarketOpenTime  string `gorm:"column:market_open_time;type:varchar(8);not null;default:'09:15'" json:"market_open_time"`
	MarketCloseTime string `gorm:"column:market_close_time;type:varchar(8);not null;default:'15:30'" json:"market_close_time"`
	// SectorCapsJSON 板块持仓占比上限，JSON 对象，百分比数值
	// 例如 {"Technology": 40, "others": 25}
	SectorCapsJSON        string          `gorm:"column:sector_caps;type:text" json:"sector_caps"`
	MaxPriceChangePercent decimal.Decimal `gorm:"column:max_price_change_percent;type:decimal(10,4);not null" json:"max_price_change_percent"`
	CoolOffMinutes        int             `gorm:"column:cool_off_minutes;not null;default:15" json:"cool_off_minutes"`
	CircuitBreakerEnabled bool            `gorm:"column:circuit_breaker_enabled;not null;default:true" json:"circuit_breaker_enabled"`
	StopLossEnabled       bool            `gorm:"column:stop_loss_enabled;not null;default:true" json:"stop_loss_enabled"`
	StopLossPercent       decimal.Decimal `gorm:"column:stop_loss_percent;type:decimal(10,4);not null" json:"stop_loss_percent"`
}

// TableName 指定表名
func (RuleSet) TableName() string {
	return "risk_rule_sets"
}

// SectorCap 返回指定板块的持仓占比上限（百分比）
// 未配置该板块时回退到 "others"，两者都缺失时返回 (zero, false) 表示不设限
func (r *RuleSet) SectorCap(sector string) (decimal.Decimal, bool) {
	if r.SectorCapsJSON == "" {
		return decimal.Zero, false
	}
	caps := map[string]float64{}
	if err := json.Unmarshal([]byte(r.SectorCapsJSON), &caps); err != nil {
		return decimal.Zero, false
	}
	if v, ok := caps[sector]; ok {
		return decimal.NewFromFloat(v), true
	}
	if v, ok := caps[DefaultSectorCapKey]; ok {
		return decimal.NewFromFloat(v), true
	}
	return decimal.Zero, false
}

// SetSectorCaps 序列化板块上限配置
func (r *RuleSet) SetSectorCaps(caps map[string]float64) error {
	data, err := json.Marshal(caps)
	if err != nil {
		return err
	}
	r.SectorCapsJSON = string(data)
	return nil
}

// RuleSetRepository 规则集仓储接口
// Get 在规则集不存在时返回 (nil, nil)
type RuleSetRepository interface {
	Get(ctx context.Context) (*RuleSet, error)
	Save(ctx context.Context, rules *RuleSet) error
}
