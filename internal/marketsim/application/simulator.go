// Package application 市场模拟服务的用例逻辑
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/papertrading/internal/marketsim/domain"
	"github.com/wyfcoding/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// secondsPerTradingYear 252 个交易日对应的秒数
const secondsPerTradingYear = 252 * 24 * 60 * 60

// volumeIncrementBound 每个 tick 成交量随机增量的上界
const volumeIncrementBound = 10000

// TickResult 单个标的一次 tick 的演化结果
type TickResult struct {
	Symbol        string          `json:"symbol"`
	OldPrice      decimal.Decimal `json:"old_price"`
	NewPrice      decimal.Decimal `json:"new_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// SimulatorConfig 模拟器配置
type SimulatorConfig struct {
	// TickInterval tick 周期，决定 GBM 的 Δt
	TickInterval time.Duration
	// MaxConcurrent 并行更新标的的 worker 上限
	MaxConcurrent int
	// HistoryCap 每个标的价格历史容量
	HistoryCap int
	// Seed 随机源种子，0 表示按当前时间取种
	Seed int64
}

// Simulator 按几何布朗运动推进所有活跃标的的价格
// 不同标的之间并行处理，同一标的在一次 tick 内只被一个 worker 触碰；
// SimulateTick 自身用互斥量串行化，防止两次 tick 重叠
type Simulator struct {
	instruments domain.InstrumentRepository
	history     domain.PriceHistoryRepository
	publisher   domain.TickPublisher
	observer    domain.TickObserver

	gbm        *domain.GeometricBrownianMotion
	dt         float64
	maxWorkers int
	historyCap int

	mu sync.Mutex
}

// NewSimulator 创建模拟器
// publisher 与 observer 允许为 nil（测试或未接入熔断时）
func NewSimulator(
	instruments domain.InstrumentRepository,
	history domain.PriceHistoryRepository,
	publisher domain.TickPublisher,
	observer domain.TickObserver,
	cfg SimulatorConfig,
) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	workers := cfg.MaxConcurrent
	if workers <= 0 {
		workers = 8
	}
	historyCap := cfg.HistoryCap
	if historyCap <= 0 {
		historyCap = domain.DefaultHistoryCap
	}
	return &Simulator{
		instruments: instruments,
		history:     history,
		publisher:   publisher,
		observer:    observer,
		gbm:         domain.NewGBM(seed),
		dt:          interval.Seconds() / secondsPerTradingYear,
		maxWorkers:  workers,
		historyCap:  historyCap,
	}
}

// tickDraw 一个标的在本次 tick 使用的随机量
// 随机量在并行阶段之前串行采样，保证同一种子下结果可复现
type tickDraw struct {
	z         float64
	volumeAdd int64
}

// SimulateTick 将所有活跃标的的价格推进一个 tick
// 单个标的更新失败只记录日志并跳过，不中断整个批次
func (s *Simulator) SimulateTick(ctx context.Context) ([]*TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	instruments, err := s.instruments.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active instruments: %w", err)
	}
	if len(instruments) == 0 {
		return nil, nil
	}

	momentum := domain.MarketMomentum(instruments)

	// 先串行采样全部随机量，再并行落库
	draws := make([]tickDraw, len(instruments))
	for i := range instruments {
		draws[i] = tickDraw{
			z:         s.gbm.NormFloat64(),
			volumeAdd: int64(100 + s.gbm.Intn(volumeIncrementBound)),
		}
	}

	results := make([]*TickResult, len(instruments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)
	for i, inst := range instruments {
		g.Go(func() error {
			result, err := s.advance(gctx, inst, momentum, draws[i])
			if err != nil {
				logging.Error(gctx, "failed to advance instrument price",
					"symbol", inst.Symbol,
					"error", err,
				)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*TickResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// advance 推进单个标的一个 tick
func (s *Simulator) advance(ctx context.Context, inst *domain.Instrument, momentum float64, draw tickDraw) (*TickResult, error) {
	oldPrice := inst.CurrentPrice
	price := oldPrice.InexactFloat64()
	if price <= 0 {
		return nil, fmt.Errorf("instrument %s has non-positive price %s", inst.Symbol, oldPrice)
	}

	volatility := domain.AdjustVolatility(inst.Volatility, inst.Volume)
	drift := inst.Drift + momentum*inst.Beta

	raw := price * domain.GBMFactor(drift, volatility, s.dt, draw.z)
	// 板块相关性把 30% 的动量增量混入价格
	momentumDelta := price * momentum * domain.SectorCorrelation(inst.Sector)
	raw += domain.SectorBlendWeight * momentumDelta

	floor, ceil := inst.PriceBounds()
	clamped := domain.ClampFloat(raw, floor.InexactFloat64(), ceil.InexactFloat64())
	if clamped <= 0 {
		// 不变量: 价格永远为正，0.01 是最后的兜底
		clamped = 0.01
	}
	newPrice := decimal.NewFromFloat(clamped).Round(2)

	inst.ApplyPrice(newPrice, time.Now())
	inst.Volume += draw.volumeAdd
	if err := s.instruments.Save(ctx, inst); err != nil {
		return nil, fmt.Errorf("save instrument: %w", err)
	}

	if err := s.recordHistory(ctx, inst.Symbol, newPrice); err != nil {
		logging.Warn(ctx, "failed to record price history", "symbol", inst.Symbol, "error", err)
	}

	changePct := decimal.Zero
	if !oldPrice.IsZero() {
		changePct = newPrice.Sub(oldPrice).Div(oldPrice).Mul(decimal.NewFromInt(100)).Round(4)
	}
	result := &TickResult{
		Symbol:        inst.Symbol,
		OldPrice:      oldPrice,
		NewPrice:      newPrice,
		ChangePercent: changePct,
	}

	if s.publisher != nil {
		event := &domain.PriceTickEvent{
			Symbol:        inst.Symbol,
			OldPrice:      oldPrice.String(),
			NewPrice:      newPrice.String(),
			ChangePercent: changePct.String(),
			Timestamp:     time.Now().UnixMilli(),
		}
		if err := s.publisher.PublishTick(ctx, event); err != nil {
			logging.Warn(ctx, "failed to publish tick", "symbol", inst.Symbol, "error", err)
		}
	}
	if s.observer != nil {
		if err := s.observer.ObserveTick(ctx, inst.Symbol, oldPrice, newPrice); err != nil {
			logging.Warn(ctx, "tick observer failed", "symbol", inst.Symbol, "error", err)
		}
	}
	return result, nil
}

// recordHistory 按 0.1% 最小变动规则追加历史
func (s *Simulator) recordHistory(ctx context.Context, symbol string, price decimal.Decimal) error {
	last, err := s.history.Latest(ctx, symbol)
	if err != nil {
		return err
	}
	lastPrice := decimal.Zero
	if last != nil {
		lastPrice = last.Price
	}
	if !domain.ShouldRecordHistory(lastPrice, price) {
		return nil
	}
	return s.history.Append(ctx, &domain.PricePoint{
		Symbol:     symbol,
		Price:      price,
		RecordedAt: time.Now(),
	}, s.historyCap)
}
