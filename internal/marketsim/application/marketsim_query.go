package application

import (
	"context"

	"github.com/wyfcoding/papertrading/internal/marketsim/domain"
)

// MarketQueryService 处理标的与历史的只读查询
type MarketQueryService struct {
	instruments domain.InstrumentRepository
	history     domain.PriceHistoryRepository
}

// NewMarketQueryService 创建查询服务实例
func NewMarketQueryService(instruments domain.InstrumentRepository, history domain.PriceHistoryRepository) *MarketQueryService {
	return &MarketQueryService{instruments: instruments, history: history}
}

// GetInstrument 按代码获取标的
func (s *MarketQueryService) GetInstrument(ctx context.Context, symbol string) (*domain.Instrument, error) {
	return s.instruments.Get(ctx, symbol)
}

// ListInstruments 分页列出标的
func (s *MarketQueryService) ListInstruments(ctx context.Context, limit, offset int) ([]*domain.Instrument, int64, error) {
	return s.instruments.List(ctx, limit, offset)
}

// GetPriceHistory 按时间升序返回最近 limit 条价格历史
func (s *MarketQueryService) GetPriceHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricePoint, error) {
	return s.history.ListAscending(ctx, symbol, limit)
}
