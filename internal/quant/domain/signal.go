package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Recommendation 基于 RSI 阈值的交易建议
type Recommendation string

const (
	RecommendationBuy  Recommendation = "BUY"
	RecommendationSell Recommendation = "SELL"
	RecommendationHold Recommendation = "HOLD"
)

var (
	rsiOverbought = decimal.NewFromInt(70)
	rsiOversold   = decimal.NewFromInt(30)
)

// Recommend RSI > 70 视为超买给出 SELL，RSI < 30 视为超卖给出 BUY，否则 HOLD
func Recommend(rsi decimal.Decimal) Recommendation {
	switch {
	case rsi.GreaterThan(rsiOverbought):
		return RecommendationSell
	case rsi.LessThan(rsiOversold):
		return RecommendationBuy
	default:
		return RecommendationHold
	}
}

// IndicatorSnapshot 单个标的的指标快照
type IndicatorSnapshot struct {
	Symbol         string          `json:"symbol"`
	SMA20          decimal.Decimal `json:"sma20"`
	HasSMA         bool            `json:"has_sma"`
	RSI            decimal.Decimal `json:"rsi"`
	Recommendation Recommendation  `json:"recommendation"`
	ComputedAt     int64           `json:"computed_at"`
}

// SnapshotCache 指标快照读缓存接口
type SnapshotCache interface {
	Get(ctx context.Context, symbol string) (*IndicatorSnapshot, error)
	Set(ctx context.Context, snapshot *IndicatorSnapshot) error
}
