// Package application 风控模块的用例逻辑
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/papertrading/internal/risk/domain"
	"github.com/wyfcoding/pkg/logging"
)

// RiskService 风控服务
// 提供交易校验、熔断触发与清理、规则集管理
type RiskService struct {
	rules    domain.RuleSetRepository
	breakers domain.CircuitBreakerRepository
	now      func() time.Time
}

// NewRiskService 创建风控服务
func NewRiskService(rules domain.RuleSetRepository, breakers domain.CircuitBreakerRepository) *RiskService {
	return &RiskService{
		rules:    rules,
		breakers: breakers,
		now:      time.Now,
	}
}

// ValidateTrade 执行规则校验管道
// 规则集与熔断状态在调用时加载并显式传入纯校验函数
func (s *RiskService) ValidateTrade(ctx context.Context, intent domain.TradeIntent, snap domain.HolderSnapshot) (domain.Decision, error) {
	rules, err := s.rules.Get(ctx)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("load rule set: %w", err)
	}
	if rules == nil {
		logging.Warn(ctx, "no rule set configured, trade validation is fail-open", "symbol", intent.Symbol)
	}

	breaker, err := s.breakers.GetActive(ctx, intent.Symbol)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("load circuit breaker state: %w", err)
	}

	return domain.Validate(intent, snap, breaker, rules, s.now()), nil
}

// ObserveTick 感知一次价格变动并按需触发熔断
// 实现市场模拟模块的 TickObserver 接口
func (s *RiskService) ObserveTick(ctx context.Context, symbol string, oldPrice, newPrice decimal.Decimal) error {
	rules, err := s.rules.Get(ctx)
	if err != nil {
		return fmt.Errorf("load rule set: %w", err)
	}
	if rules == nil || !rules.CircuitBreakerEnabled || !oldPrice.IsPositive() {
		return nil
	}

	changePercent := newPrice.Sub(oldPrice).Div(oldPrice).Mul(decimal.NewFromInt(100))
	if changePercent.Abs().LessThanOrEqual(rules.MaxPriceChangePercent) {
		return nil
	}

	now := s.now()
	breaker := domain.NewCircuitBreaker(symbol, oldPrice, newPrice, changePercent,
		now, time.Duration(rules.CoolOffMinutes)*time.Minute)
	if err := s.breakers.Create(ctx, breaker); err != nil {
		if errors.Is(err, domain.ErrBreakerActive) {
			// 并发触发只保留先到的一条生效记录
			return nil
		}
		return fmt.Errorf("create circuit breaker: %w", err)
	}

	logging.Warn(ctx, "circuit breaker triggered",
		"symbol", symbol,
		"change_percent", changePercent.Round(2).String(),
		"resumes_at", breaker.ResumesAt)
	return nil
}

// SweepBreakers 失效所有已到恢复时间的熔断记录，幂等
func (s *RiskService) SweepBreakers(ctx context.Context) (int64, error) {
	count, err := s.breakers.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("deactivate expired breakers: %w", err)
	}
	if count > 0 {
		logging.Info(ctx, "expired circuit breakers deactivated", "count", count)
	}
	return count, nil
}

// ListActiveBreakers 查询所有生效中的熔断记录
func (s *RiskService) ListActiveBreakers(ctx context.Context) ([]*domain.CircuitBreakerState, error) {
	return s.breakers.ListActive(ctx)
}

// GetRuleSet 查询当前规则集，未配置时返回 (nil, nil)
func (s *RiskService) GetRuleSet(ctx context.Context) (*domain.RuleSet, error) {
	return s.rules.Get(ctx)
}

// UpdateRuleSet 保存规则集配置
func (s *RiskService) UpdateRuleSet(ctx context.Context, rules *domain.RuleSet) error {
	if rules == nil {
		return errors.New("rule set is required")
	}
	if err := s.rules.Save(ctx, rules); err != nil {
		return fmt.Errorf("save rule set: %w", err)
	}
	logging.Info(ctx, "rule set updated",
		"per_trade_limit", rules.PerTradeLimit.String(),
		"circuit_breaker_enabled", rules.CircuitBreakerEnabled,
		"stop_loss_enabled", rules.StopLossEnabled)
	return nil
}
