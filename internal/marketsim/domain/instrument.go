// Package domain 市场模拟服务的领域模型
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// PriceFloorRatio 价格下限 = 基准价 × 0.3
	PriceFloorRatio = 0.3
	// PriceCeilRatio 价格上限 = 基准价 × 3.0
	PriceCeilRatio = 3.0
	// HistoryMinMovePercent 价格变动超过 0.1% 才追加历史记录
	HistoryMinMovePercent = 0.1
	// DefaultHistoryCap 单个标的价格历史的默认容量上限
	DefaultHistoryCap = 500
)

// InstrumentStatus 标的状态
type InstrumentStatus string

const (
	InstrumentStatusActive   InstrumentStatus = "ACTIVE"
	InstrumentStatusInactive InstrumentStatus = "INACTIVE"
)

// Instrument 模拟市场中的交易标的实体
type Instrument struct {
	gorm.Model
	// Symbol 标的代码，全局唯一
	Symbol string `gorm:"column:symbol;type:varchar(20);uniqueIndex;not null" json:"symbol"`
	// Name 标的名称
	Name string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	// Sector 所属行业板块
	Sector string `gorm:"column:sector;type:varchar(50);index;not null" json:"sector"`
	// CurrentPrice 当前价格（两位小数）
	CurrentPrice decimal.Decimal `gorm:"column:current_price;type:decimal(20,8);not null" json:"current_price"`
	// PreviousClose 上一 tick 的价格
	PreviousClose decimal.Decimal `gorm:"column:previous_close;type:decimal(20,8);not null" json:"previous_close"`
	// DayHigh 当日最高价
	DayHigh decimal.Decimal `gorm:"column:day_high;type:decimal(20,8);not null" json:"day_high"`
	// DayLow 当日最低价
	DayLow decimal.Decimal `gorm:"column:day_low;type:decimal(20,8);not null" json:"day_low"`
	// DayDate 当日高低价所属的自然日
	DayDate time.Time `gorm:"column:day_date;not null" json:"day_date"`
	// BasePrice 基准价，价格被约束在 [0.3, 3.0] × BasePrice 区间内
	BasePrice decimal.Decimal `gorm:"column:base_price;type:decimal(20,8);not null" json:"base_price"`
	// Volatility 年化波动率
	Volatility float64 `gorm:"column:volatility;type:double;not null" json:"volatility"`
	// Drift 年化漂移率
	Drift float64 `gorm:"column:drift;type:double;not null" json:"drift"`
	// Beta 相对市场动量的敏感度
	Beta float64 `gorm:"column:beta;type:double;default:1;not null" json:"beta"`
	// Volume 累计成交量
	Volume int64 `gorm:"column:volume;type:bigint;default:0;not null" json:"volume"`
	// Status 标的状态
	Status InstrumentStatus `gorm:"column:status;type:varchar(20);default:'ACTIVE';index;not null" json:"status"`
}

func (i *Instrument) TableName() string {
	return "instruments"
}

// PriceBounds 返回该标的允许的价格区间 [floor, ceil]
func (i *Instrument) PriceBounds() (decimal.Decimal, decimal.Decimal) {
	floor := i.BasePrice.Mul(decimal.NewFromFloat(PriceFloorRatio))
	ceil := i.BasePrice.Mul(decimal.NewFromFloat(PriceCeilRatio))
	return floor, ceil
}

// ApplyPrice 用新的 tick 价格更新标的状态
// 跨自然日时当日高低价重新起算；价格必须已经过钳制和四舍五入，调用方保证其为正数
func (i *Instrument) ApplyPrice(price decimal.Decimal, now time.Time) {
	i.PreviousClose = i.CurrentPrice
	i.CurrentPrice = price

	y1, m1, d1 := i.DayDate.Local().Date()
	y2, m2, d2 := now.Local().Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		i.DayHigh = price
		i.DayLow = price
		i.DayDate = now
		return
	}
	if i.DayHigh.IsZero() || price.GreaterThan(i.DayHigh) {
		i.DayHigh = price
	}
	if i.DayLow.IsZero() || price.LessThan(i.DayLow) {
		i.DayLow = price
	}
}

// ShouldRecordHistory 判断新价格相对最后一条历史是否超过 0.1% 的最小变动
func ShouldRecordHistory(last, next decimal.Decimal) bool {
	if last.IsZero() {
		return true
	}
	changePct := next.Sub(last).Div(last).Abs().Mul(decimal.NewFromInt(100))
	return changePct.GreaterThan(decimal.NewFromFloat(HistoryMinMovePercent))
}

// PricePoint 有界价格历史中的一条记录，按时间升序，最新的在最后
type PricePoint struct {
	gorm.Model
	// Symbol 标的代码
	Symbol string `gorm:"column:symbol;type:varchar(20);index;not null" json:"symbol"`
	// Price 记录时的价格
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,8);not null" json:"price"`
	// RecordedAt 记录时间
	RecordedAt time.Time `gorm:"column:recorded_at;type:datetime(3);index;not null" json:"recorded_at"`
}

func (p *PricePoint) TableName() string {
	return "instrument_prices"
}

// InstrumentRepository 标的仓储接口
type InstrumentRepository interface {
	// Save 保存或更新标的
	Save(ctx context.Context, instrument *Instrument) error
	// Get 按代码获取标的
	Get(ctx context.Context, symbol string) (*Instrument, error)
	// ListActive 列出所有活跃标的
	ListActive(ctx context.Context) ([]*Instrument, error)
	// List 分页列出标的
	List(ctx context.Context, limit, offset int) ([]*Instrument, int64, error)
}

// PriceHistoryRepository 价格历史仓储接口
type PriceHistoryRepository interface {
	// Append 追加一条历史并裁剪超出容量的最旧记录
	Append(ctx context.Context, point *PricePoint, cap int) error
	// Latest 获取最后一条历史记录，无历史时返回 nil
	Latest(ctx context.Context, symbol string) (*PricePoint, error)
	// ListAscending 按时间升序返回最近 limit 条历史
	ListAscending(ctx context.Context, symbol string, limit int) ([]*PricePoint, error)
}

// TickPublisher 模拟行情发布接口
type TickPublisher interface {
	// PublishTick 发布一次 tick 的价格变动
	PublishTick(ctx context.Context, tick *PriceTickEvent) error
}

// TickObserver tick 观察者，熔断监控通过它感知价格变动
type TickObserver interface {
	// ObserveTick 处理一次价格变动，失败只记录不阻断批次
	ObserveTick(ctx context.Context, symbol string, oldPrice, newPrice decimal.Decimal) error
}
