// Package application 持仓服务的用例逻辑
// 持仓的变更统一经由订单执行模块完成，这里只提供查询
package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketsim/domain"
	"github.com/wyfcoding/papertrading/internal/position/domain"
)

// PositionView 带现价估值的持仓视图
type PositionView struct {
	*domain.Position
	CurrentPrice decimal.Decimal `json:"current_price"`
	MarketValue  decimal.Decimal `json:"market_value"`
	// UnrealizedPnL 浮动盈亏 = 市值 − 投入
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// PositionQueryService 持仓查询服务
type PositionQueryService struct {
	positions   domain.PositionRepository
	instruments marketdomain.InstrumentRepository
}

// NewPositionQueryService 创建持仓查询服务
func NewPositionQueryService(positions domain.PositionRepository, instruments marketdomain.InstrumentRepository) *PositionQueryService {
	return &PositionQueryService{positions: positions, instruments: instruments}
}

// ListHoldings 列出持有人的持仓并按现价估值
func (s *PositionQueryService) ListHoldings(ctx context.Context, ownerID, scope string) ([]*PositionView, error) {
	positions, err := s.positions.ListByHolder(ctx, ownerID, scope)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	views := make([]*PositionView, 0, len(positions))
	for _, p := range positions {
		view := &PositionView{Position: p}
		instrument, err := s.instruments.Get(ctx, p.Symbol)
		if err == nil && instrument != nil {
			view.CurrentPrice = instrument.CurrentPrice
			view.MarketValue = p.MarketValue(instrument.CurrentPrice)
			view.UnrealizedPnL = view.MarketValue.Sub(p.TotalInvested)
		}
		views = append(views, view)
	}
	return views, nil
}

// PortfolioValue 持有人全部持仓按现价计的总市值
func (s *PositionQueryService) PortfolioValue(ctx context.Context, ownerID, scope string) (decimal.Decimal, error) {
	views, err := s.ListHoldings(ctx, ownerID, scope)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, v := range views {
		total = total.Add(v.MarketValue)
	}
	return total, nil
}
