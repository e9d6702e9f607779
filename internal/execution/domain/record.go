// 包 domain 订单执行服务的领域模型
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 交易方向
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// StatusExecuted 成交记录的终态，记录只增不改
const StatusExecuted = "EXECUTED"

// NoteStopLoss 止损自动卖出的触发来源，写入记录备注
const NoteStopLoss = "stop-loss"

// TradeCommand 交易指令
type TradeCommand struct {
	OwnerID  string `json:"owner_id"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity int64  `json:"quantity"`
	// Scope 空串为主账户，否则为比赛名称
	Scope string `json:"scope"`
	// Note 自动交易的触发来源说明
	Note string `json:"note"`
	// Forced 强制执行（止损等自动风险动作），跳过规则校验
	// 余额与持仓数量约束仍然生效
	Forced bool `json:"-"`
}

// TradeTransaction 成交流水，不可变审计记录
type TradeTransaction struct {
	gorm.Model
	TransactionID string          `gorm:"column:transaction_id;type:varchar(64);uniqueIndex;not null" json:"transaction_id"`
	OwnerID       string          `gorm:"column:owner_id;type:varchar(32);index:idx_owner_scope;not null" json:"owner_id"`
	Scope         string          `gorm:"column:scope;type:varchar(64);index:idx_owner_scope;not null;default:''" json:"scope"`
	Symbol        string          `gorm:"column:symbol;type:varchar(32);index;not null" json:"symbol"`
	Side          string          `gorm:"column:side;type:varchar(8);not null" json:"side"`
	Quantity      int64           `gorm:"column:quantity;not null" json:"quantity"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:decimal(20,2);not null" json:"total_amount"`
	Status        string          `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Note          string          `gorm:"column:note;type:varchar(64)" json:"note,omitempty"`
	ExecutedAt    time.Time       `gorm:"column:executed_at;not null;index" json:"executed_at"`
}

// TableName 指定表名
func (TradeTransaction) TableName() string {
	return "trade_transactions"
}

// TradeOrder 订单审计记录，与成交流水成对写入
type TradeOrder struct {
	gorm.Model
	OrderID       string          `gorm:"column:order_id;type:varchar(64);uniqueIndex;not null" json:"order_id"`
	TransactionID string          `gorm:"column:transaction_id;type:varchar(64);index;not null" json:"transaction_id"`
	OwnerID       string          `gorm:"column:owner_id;type:varchar(32);index;not null" json:"owner_id"`
	Scope         string          `gorm:"column:scope;type:varchar(64);not null;default:''" json:"scope"`
	Symbol        string          `gorm:"column:symbol;type:varchar(32);not null" json:"symbol"`
	Side          string          `gorm:"column:side;type:varchar(8);not null" json:"side"`
	Quantity      int64           `gorm:"column:quantity;not null" json:"quantity"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:decimal(20,2);not null" json:"total_amount"`
	Status        string          `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Note          string          `gorm:"column:note;type:varchar(64)" json:"note,omitempty"`
	ExecutedAt    time.Time       `gorm:"column:executed_at;not null" json:"executed_at"`
}

// TableName 指定表名
func (TradeOrder) TableName() string {
	return "trade_orders"
}

// RecordRepository 成交审计记录仓储接口
type RecordRepository interface {
	SaveTransaction(ctx context.Context, transaction *TradeTransaction) error
	SaveOrder(ctx context.Context, order *TradeOrder) error
	// ListTransactions 按持有人分页查询成交历史，按时间倒序
	ListTransactions(ctx context.Context, ownerID, scope string, limit, offset int) ([]*TradeTransaction, int64, error)
	// SumBuyNotionalSince 统计持有人自 since 起已成交买入名义金额合计
	SumBuyNotionalSince(ctx context.Context, ownerID, scope string, since time.Time) (decimal.Decimal, error)
}
