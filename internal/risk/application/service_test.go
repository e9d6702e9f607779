package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/papertrading/internal/risk/domain"
)

type fakeRuleRepo struct {
	rules *domain.RuleSet
}

func (f *fakeRuleRepo) Get(ctx context.Context) (*domain.RuleSet, error) {
	return f.rules, nil
}

func (f *fakeRuleRepo) Save(ctx context.Context, rules *domain.RuleSet) error {
	f.rules = rules
	return nil
}

// fakeBreakerRepo 内存实现，复刻 (symbol, is_active) 唯一约束语义
type fakeBreakerRepo struct {
	records []*domain.CircuitBreakerState
}

func (f *fakeBreakerRepo) Create(ctx context.Context, breaker *domain.CircuitBreakerState) error {
	for _, b := range f.records {
		if b.Symbol == breaker.Symbol && b.IsActive != nil && *b.IsActive {
			return domain.ErrBreakerActive
		}
	}
	f.records = append(f.records, breaker)
	return nil
}

func (f *fakeBreakerRepo) GetActive(ctx context.Context, symbol string) (*domain.CircuitBreakerState, error) {
	for _, b := range f.records {
		if b.Symbol == symbol && b.IsActive != nil && *b.IsActive {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBreakerRepo) ListActive(ctx context.Context) ([]*domain.CircuitBreakerState, error) {
	var out []*domain.CircuitBreakerState
	for _, b := range f.records {
		if b.IsActive != nil && *b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBreakerRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	for _, b := range f.records {
		if b.IsActive != nil && *b.IsActive && !b.ResumesAt.After(now) {
			b.IsActive = nil
			count++
		}
	}
	return count, nil
}

func breakerTestRules() *domain.RuleSet {
	return &domain.RuleSet{
		PerTradeLimit:           decimal.NewFromInt(100000),
		MinTradeAmount:          decimal.NewFromInt(100),
		DailyTradeLimit:         decimal.NewFromInt(500000),
		MaxDailyLossPercent:     decimal.NewFromInt(50),
		MaxPortfolioLossPercent: decimal.NewFromInt(50),
		MarketOpenTime:          "00:00",
		MarketCloseTime:         "23:59",
		MaxPriceChangePercent:   decimal.NewFromInt(10),
		CoolOffMinutes:          15,
		CircuitBreakerEnabled:   true,
	}
}

func newBreakerService(rules *domain.RuleSet, now time.Time) (*RiskService, *fakeBreakerRepo) {
	breakers := &fakeBreakerRepo{}
	svc := NewRiskService(&fakeRuleRepo{rules: rules}, breakers)
	svc.now = func() time.Time { return now }
	return svc, breakers
}

func TestObserveTickTriggersBreakerOnLargeMove(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	svc, breakers := newBreakerService(breakerTestRules(), now)
	ctx := context.Background()

	// 100 -> 112 为 12% 变动，超过 10% 阈值
	require.NoError(t, svc.ObserveTick(ctx, "AAPL", decimal.NewFromInt(100), decimal.NewFromInt(112)))

	active, err := breakers.GetActive(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, now.Add(15*time.Minute), active.ResumesAt)
	assert.True(t, active.ChangePercent.Equal(decimal.NewFromInt(12)))

	// 恢复时间之前提交的交易被拒绝，原因指向熔断
	snap := domain.HolderSnapshot{
		Balance:           decimal.NewFromInt(100000),
		DailyStartBalance: decimal.NewFromInt(100000),
		StartingBalance:   decimal.NewFromInt(100000),
	}
	intent := domain.TradeIntent{
		Symbol: "AAPL", Sector: "Technology",
		Side: domain.TradeSideBuy, Quantity: 10, Price: decimal.NewFromInt(112),
	}
	decision, err := svc.ValidateTrade(ctx, intent, snap)
	require.NoError(t, err)
	assert.False(t, decision.Accepted)
	assert.Contains(t, decision.Reason, "circuit breaker")
}

func TestObserveTickDoubleTriggerKeepsOneActiveRecord(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	svc, breakers := newBreakerService(breakerTestRules(), now)
	ctx := context.Background()

	require.NoError(t, svc.ObserveTick(ctx, "AAPL", decimal.NewFromInt(100), decimal.NewFromInt(112)))
	require.NoError(t, svc.ObserveTick(ctx, "AAPL", decimal.NewFromInt(112), decimal.NewFromInt(98)))

	active, err := breakers.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestObserveTickIgnoresSmallMoveAndDisabledBreaker(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	ctx := context.Background()

	svc, breakers := newBreakerService(breakerTestRules(), now)
	require.NoError(t, svc.ObserveTick(ctx, "AAPL", decimal.NewFromInt(100), decimal.NewFromInt(105)))
	assert.Empty(t, breakers.records)

	disabled := breakerTestRules()
	disabled.CircuitBreakerEnabled = false
	svc, breakers = newBreakerService(disabled, now)
	require.NoError(t, svc.ObserveTick(ctx, "AAPL", decimal.NewFromInt(100), decimal.NewFromInt(150)))
	assert.Empty(t, breakers.records)
}

func TestSweepBreakersDeactivatesExpiredOnly(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	svc, breakers := newBreakerService(breakerTestRules(), now)
	ctx := context.Background()

	require.NoError(t, svc.ObserveTick(ctx, "AAPL", decimal.NewFromInt(100), decimal.NewFromInt(112)))
	require.NoError(t, svc.ObserveTick(ctx, "MSFT", decimal.NewFromInt(200), decimal.NewFromInt(240)))

	// 未到恢复时间，清理不生效
	count, err := svc.SweepBreakers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	svc.now = func() time.Time { return now.Add(16 * time.Minute) }
	count, err = svc.SweepBreakers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	active, err := breakers.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	// 幂等
	count, err = svc.SweepBreakers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// 清理后同标的可再次触发
	require.NoError(t, svc.ObserveTick(ctx, "AAPL", decimal.NewFromInt(112), decimal.NewFromInt(90)))
	again, err := breakers.GetActive(ctx, "AAPL")
	require.NoError(t, err)
	assert.NotNil(t, again)
}
