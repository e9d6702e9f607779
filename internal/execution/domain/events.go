package domain

import "github.com/shopspring/decimal"

// TradeExecutedTopic 成交事件主题
const TradeExecutedTopic = "trade.executed"

// TradeExecutedEvent 成交事件载荷
type TradeExecutedEvent struct {
	TransactionID string          `json:"transaction_id"`
	OwnerID       string          `json:"owner_id"`
	Scope         string          `json:"scope"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Quantity      int64           `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Note          string          `json:"note,omitempty"`
	ExecutedAt    int64           `json:"executed_at"`
}
