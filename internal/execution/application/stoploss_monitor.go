package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/papertrading/internal/execution/domain"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketsim/domain"
	positiondomain "github.com/wyfcoding/papertrading/internal/position/domain"
	riskdomain "github.com/wyfcoding/papertrading/internal/risk/domain"
	"github.com/wyfcoding/pkg/logging"
)

// RuleProvider 规则集读取接口，由风控模块实现
type RuleProvider interface {
	GetRuleSet(ctx context.Context) (*riskdomain.RuleSet, error)
}

// OrderExecutor 订单执行接口，止损巡检回调执行引擎的卖出路径
type OrderExecutor interface {
	ExecuteOrder(ctx context.Context, cmd domain.TradeCommand) (*TradeResult, error)
}

// StopLossMonitor 止损巡检
// 周期扫描全部未平仓持仓，亏损达到阈值的持仓强制全量卖出
type StopLossMonitor struct {
	positions   positiondomain.PositionRepository
	instruments marketdomain.InstrumentRepository
	rules       RuleProvider
	executor    OrderExecutor
}

// NewStopLossMonitor 创建止损巡检
func NewStopLossMonitor(
	positions positiondomain.PositionRepository,
	instruments marketdomain.InstrumentRepository,
	rules RuleProvider,
	executor OrderExecutor,
) *StopLossMonitor {
	return &StopLossMonitor{
		positions:   positions,
		instruments: instruments,
		rules:       rules,
		executor:    executor,
	}
}

// SweepStopLoss 执行一轮止损巡检，返回触发卖出的持仓数
// 单个持仓的失败只记录日志，巡检继续处理下一个
func (m *StopLossMonitor) SweepStopLoss(ctx context.Context) (int, error) {
	rules, err := m.rules.GetRuleSet(ctx)
	if err != nil {
		return 0, fmt.Errorf("load rule set: %w", err)
	}
	if rules == nil || !rules.StopLossEnabled {
		return 0, nil
	}

	positions, err := m.positions.ListOpen(ctx)
	if err != nil {
		return 0, fmt.Errorf("list open positions: %w", err)
	}

	triggered := 0
	for _, p := range positions {
		instrument, err := m.instruments.Get(ctx, p.Symbol)
		if err != nil || instrument == nil {
			logging.Warn(ctx, "skip stop-loss check, instrument unavailable",
				"symbol", p.Symbol, "error", err)
			continue
		}

		loss := p.LossPercent(instrument.CurrentPrice)
		if loss.LessThan(rules.StopLossPercent) {
			continue
		}

		// 自动风险动作绕过规则校验，余额与数量约束仍然生效
		_, err = m.executor.ExecuteOrder(ctx, domain.TradeCommand{
			OwnerID:  p.OwnerID,
			Symbol:   p.Symbol,
			Side:     domain.SideSell,
			Quantity: p.Quantity,
			Scope:    p.Scope,
			Note:     domain.NoteStopLoss,
			Forced:   true,
		})
		if err != nil {
			logging.Error(ctx, "stop-loss sell failed",
				"owner", p.OwnerID,
				"symbol", p.Symbol,
				"scope", p.Scope,
				"error", err)
			continue
		}

		triggered++
		logging.Warn(ctx, "stop-loss triggered",
			"owner", p.OwnerID,
			"symbol", p.Symbol,
			"scope", p.Scope,
			"quantity", p.Quantity,
			"loss_percent", loss.Round(2).String())
	}
	return triggered, nil
}
