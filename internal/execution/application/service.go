// Package application 订单执行服务的用例逻辑
// 事务核心：校验通过后在单个事务内变更持仓与资金并写入审计记录
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	accountdomain "github.com/wyfcoding/papertrading/internal/account/domain"
	"github.com/wyfcoding/papertrading/internal/execution/domain"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketsim/domain"
	positiondomain "github.com/wyfcoding/papertrading/internal/position/domain"
	riskdomain "github.com/wyfcoding/papertrading/internal/risk/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue"
)

// TradeValidator 交易规则校验接口，由风控模块实现
type TradeValidator interface {
	ValidateTrade(ctx context.Context, intent riskdomain.TradeIntent, snap riskdomain.HolderSnapshot) (riskdomain.Decision, error)
}

// TxManager 事务执行接口，事务句柄通过 context 下传给各仓储
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TradeResult 成交结果
type TradeResult struct {
	Transaction *domain.TradeTransaction `json:"transaction"`
	// Position 成交后的持仓，清仓时为 nil
	Position *positiondomain.Position `json:"position,omitempty"`
	// RemainingBalance 成交后的可用余额
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// ExecutionService 订单执行服务
type ExecutionService struct {
	holders     accountdomain.HolderRepository
	positions   positiondomain.PositionRepository
	records     domain.RecordRepository
	instruments marketdomain.InstrumentRepository
	validator   TradeValidator
	publisher   messagequeue.EventPublisher
	tx          TxManager
	now         func() time.Time
}

// NewExecutionService 创建订单执行服务
// validator 与 publisher 允许为 nil
func NewExecutionService(
	holders accountdomain.HolderRepository,
	positions positiondomain.PositionRepository,
	records domain.RecordRepository,
	instruments marketdomain.InstrumentRepository,
	validator TradeValidator,
	publisher messagequeue.EventPublisher,
	tx TxManager,
) *ExecutionService {
	return &ExecutionService{
		holders:     holders,
		positions:   positions,
		records:     records,
		instruments: instruments,
		validator:   validator,
		publisher:   publisher,
		tx:          tx,
		now:         time.Now,
	}
}

// ExecuteOrder 执行一笔交易
// 校验拒绝返回 *domain.Rejection；余额或持仓不足返回对应哨兵错误；
// 乐观锁冲突原样返回 ErrVersionConflict，由调用方携带最新状态重试
func (s *ExecutionService) ExecuteOrder(ctx context.Context, cmd domain.TradeCommand) (*TradeResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	instrument, err := s.instruments.Get(ctx, cmd.Symbol)
	if err != nil {
		return nil, fmt.Errorf("load instrument: %w", err)
	}
	if instrument == nil {
		return nil, fmt.Errorf("instrument %s not found", cmd.Symbol)
	}
	price := instrument.CurrentPrice
	notional := price.Mul(decimal.NewFromInt(cmd.Quantity))

	holder, err := s.holders.GetHolder(ctx, cmd.OwnerID, cmd.Scope)
	if err != nil {
		return nil, fmt.Errorf("load balance holder: %w", err)
	}
	if holder == nil {
		return nil, accountdomain.ErrHolderNotFound
	}

	now := s.now()
	portfolioValue, sectorValue, err := s.portfolioSnapshot(ctx, cmd.OwnerID, cmd.Scope)
	if err != nil {
		return nil, fmt.Errorf("value portfolio: %w", err)
	}
	// 基线每个自然日只捕获一次，捕获后立即落库，
	// 后续校验拒绝或执行失败不回滚当日基线
	if holder.EnsureDailyBaseline(now, holder.CurrentBalance().Add(portfolioValue)) {
		if err := s.holders.SaveHolder(ctx, holder); err != nil {
			return nil, fmt.Errorf("persist daily baseline: %w", err)
		}
	}

	if !cmd.Forced && s.validator != nil {
		todayBuy, err := s.records.SumBuyNotionalSince(ctx, cmd.OwnerID, cmd.Scope, startOfDay(now))
		if err != nil {
			return nil, fmt.Errorf("sum today buy notional: %w", err)
		}
		intent := riskdomain.TradeIntent{
			Symbol:   cmd.Symbol,
			Sector:   instrument.Sector,
			Side:     riskdomain.TradeSide(cmd.Side),
			Quantity: cmd.Quantity,
			Price:    price,
		}
		snap := riskdomain.HolderSnapshot{
			Balance:           holder.CurrentBalance(),
			DailyStartBalance: holder.DailyBaseline(),
			StartingBalance:   holder.StartBalance(),
			PortfolioValue:    portfolioValue,
			TodayBuyNotional:  todayBuy,
			SectorValue:       sectorValue,
		}
		decision, err := s.validator.ValidateTrade(ctx, intent, snap)
		if err != nil {
			return nil, fmt.Errorf("validate trade: %w", err)
		}
		if !decision.Accepted {
			return nil, domain.NewRejection(decision.Reason)
		}
	}

	transaction := s.newTransaction(cmd, price, notional, now)
	var resultPosition *positiondomain.Position

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		position, err := s.positions.Get(txCtx, cmd.OwnerID, cmd.Symbol, cmd.Scope)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}

		switch cmd.Side {
		case domain.SideBuy:
			if err := holder.Debit(notional); err != nil {
				return err
			}
			if position == nil {
				position = positiondomain.NewPosition(cmd.OwnerID, cmd.Symbol, cmd.Scope)
			}
			position.ApplyBuy(cmd.Quantity, price)
			if err := s.positions.Save(txCtx, position); err != nil {
				return err
			}
			resultPosition = position

		case domain.SideSell:
			if position == nil {
				return positiondomain.ErrInsufficientShares
			}
			if err := position.ApplySell(cmd.Quantity); err != nil {
				return err
			}
			if err := holder.Credit(notional); err != nil {
				return err
			}
			if position.IsClosed() {
				if err := s.positions.Delete(txCtx, position); err != nil {
					return err
				}
				resultPosition = nil
			} else {
				if err := s.positions.Save(txCtx, position); err != nil {
					return err
				}
				resultPosition = position
			}
		}

		if err := s.holders.SaveHolder(txCtx, holder); err != nil {
			return err
		}
		if err := s.records.SaveTransaction(txCtx, transaction); err != nil {
			return err
		}
		if err := s.records.SaveOrder(txCtx, newOrderFrom(transaction)); err != nil {
			return err
		}

		if s.publisher != nil {
			event := domain.TradeExecutedEvent{
				TransactionID: transaction.TransactionID,
				OwnerID:       transaction.OwnerID,
				Scope:         transaction.Scope,
				Symbol:        transaction.Symbol,
				Side:          transaction.Side,
				Quantity:      transaction.Quantity,
				Price:         transaction.Price,
				TotalAmount:   transaction.TotalAmount,
				Note:          transaction.Note,
				ExecutedAt:    transaction.ExecutedAt.UnixMilli(),
			}
			return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx),
				domain.TradeExecutedTopic, transaction.TransactionID, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, "trade executed",
		"transaction_id", transaction.TransactionID,
		"owner", cmd.OwnerID,
		"symbol", cmd.Symbol,
		"side", cmd.Side,
		"quantity", cmd.Quantity,
		"price", price.String(),
		"note", cmd.Note)

	return &TradeResult{
		Transaction:      transaction,
		Position:         resultPosition,
		RemainingBalance: holder.CurrentBalance(),
	}, nil
}

// GetHistory 按持有人分页查询成交历史
func (s *ExecutionService) GetHistory(ctx context.Context, ownerID, scope string, limit, offset int) ([]*domain.TradeTransaction, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.records.ListTransactions(ctx, ownerID, scope, limit, offset)
}

// portfolioSnapshot 按现价汇总持有人的持仓市值与板块分布
func (s *ExecutionService) portfolioSnapshot(ctx context.Context, ownerID, scope string) (decimal.Decimal, map[string]decimal.Decimal, error) {
	positions, err := s.positions.ListByHolder(ctx, ownerID, scope)
	if err != nil {
		return decimal.Zero, nil, err
	}

	total := decimal.Zero
	sectors := make(map[string]decimal.Decimal)
	for _, p := range positions {
		instrument, err := s.instruments.Get(ctx, p.Symbol)
		if err != nil || instrument == nil {
			// 缺价标的按成本计入，避免低估市值
			total = total.Add(p.TotalInvested)
			continue
		}
		value := p.MarketValue(instrument.CurrentPrice)
		total = total.Add(value)
		sectors[instrument.Sector] = sectors[instrument.Sector].Add(value)
	}
	return total, sectors, nil
}

func (s *ExecutionService) newTransaction(cmd domain.TradeCommand, price, notional decimal.Decimal, now time.Time) *domain.TradeTransaction {
	return &domain.TradeTransaction{
		TransactionID: "TXN-" + uuid.NewString(),
		OwnerID:       cmd.OwnerID,
		Scope:         cmd.Scope,
		Symbol:        cmd.Symbol,
		Side:          cmd.Side,
		Quantity:      cmd.Quantity,
		Price:         price,
		TotalAmount:   notional,
		Status:        domain.StatusExecuted,
		Note:          cmd.Note,
		ExecutedAt:    now,
	}
}

func newOrderFrom(t *domain.TradeTransaction) *domain.TradeOrder {
	return &domain.TradeOrder{
		OrderID:       "ORD-" + uuid.NewString(),
		TransactionID: t.TransactionID,
		OwnerID:       t.OwnerID,
		Scope:         t.Scope,
		Symbol:        t.Symbol,
		Side:          t.Side,
		Quantity:      t.Quantity,
		Price:         t.Price,
		TotalAmount:   t.TotalAmount,
		Status:        t.Status,
		Note:          t.Note,
		ExecutedAt:    t.ExecutedAt,
	}
}

func validateCommand(cmd domain.TradeCommand) error {
	if cmd.OwnerID == "" {
		return errors.New("owner id is required")
	}
	if cmd.Symbol == "" {
		return errors.New("symbol is required")
	}
	if cmd.Quantity < 1 {
		return errors.New("quantity must be at least 1")
	}
	if cmd.Side != domain.SideBuy && cmd.Side != domain.SideSell {
		return fmt.Errorf("unsupported trade side %q", cmd.Side)
	}
	return nil
}

func startOfDay(now time.Time) time.Time {
	year, month, day := now.Local().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}
