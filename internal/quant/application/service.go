// Package application 技术指标服务的用例逻辑
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketsim/domain"
	"github.com/wyfcoding/papertrading/internal/quant/domain"
	"github.com/wyfcoding/pkg/logging"
)

// historyLookback 计算指标时读取的最大历史条数
const historyLookback = 200

// IndicatorQueryService 指标查询服务
// 历史价格来自市场模拟模块的有界历史，快照结果写入读缓存
type IndicatorQueryService struct {
	history marketdomain.PriceHistoryRepository
	cache   domain.SnapshotCache
	ttl     time.Duration
}

// NewIndicatorQueryService 创建指标查询服务
// cache 允许为 nil，此时每次查询都重新计算
func NewIndicatorQueryService(history marketdomain.PriceHistoryRepository, cache domain.SnapshotCache, ttl time.Duration) *IndicatorQueryService {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &IndicatorQueryService{history: history, cache: cache, ttl: ttl}
}

// GetIndicators 返回标的的 SMA20 / RSI14 与交易建议
func (s *IndicatorQueryService) GetIndicators(ctx context.Context, symbol string) (*domain.IndicatorSnapshot, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, symbol); err == nil && cached != nil {
			if time.Since(time.UnixMilli(cached.ComputedAt)) < s.ttl {
				return cached, nil
			}
		}
	}

	points, err := s.history.ListAscending(ctx, symbol, historyLookback)
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	prices := make([]decimal.Decimal, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}

	rsi := domain.RSI(prices, domain.DefaultRSIPeriod)
	sma, hasSMA := domain.SMA(prices, domain.DefaultSMAPeriod)

	snapshot := &domain.IndicatorSnapshot{
		Symbol:         symbol,
		SMA20:          sma,
		HasSMA:         hasSMA,
		RSI:            rsi,
		Recommendation: domain.Recommend(rsi),
		ComputedAt:     time.Now().UnixMilli(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshot); err != nil {
			logging.Warn(ctx, "failed to cache indicator snapshot", "symbol", symbol, "error", err)
		}
	}
	return snapshot, nil
}
