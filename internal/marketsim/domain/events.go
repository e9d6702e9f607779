package domain

const (
	// MarketPriceTopic 模拟行情发布的 Kafka 主题
	MarketPriceTopic = "market.price"
)

// PriceTickEvent 一次 tick 的价格变动事件
type PriceTickEvent struct {
	Symbol        string `json:"symbol"`
	OldPrice      string `json:"old_price"`
	NewPrice      string `json:"new_price"`
	ChangePercent string `json:"change_percent"`
	Timestamp     int64  `json:"timestamp"`
}
