// Package application 账户服务的用例逻辑
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/papertrading/internal/account/domain"
	"github.com/wyfcoding/pkg/logging"
)

// DefaultStartingBalance 默认开户资金
var DefaultStartingBalance = decimal.NewFromInt(100000)

// AccountService 账户服务
type AccountService struct {
	holders domain.HolderRepository
}

// NewAccountService 创建账户服务
func NewAccountService(holders domain.HolderRepository) *AccountService {
	return &AccountService{holders: holders}
}

// OpenAccount 开立主账户，幂等：已存在时返回现有账户
func (s *AccountService) OpenAccount(ctx context.Context, userID string, startingBalance decimal.Decimal) (*domain.Account, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if !startingBalance.IsPositive() {
		startingBalance = DefaultStartingBalance
	}

	existing, err := s.holders.GetHolder(ctx, userID, domain.ScopeMain)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if existing != nil {
		if account, ok := existing.(*domain.Account); ok {
			return account, nil
		}
	}

	account := domain.NewAccount(userID, startingBalance, time.Now())
	if err := s.holders.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	logging.Info(ctx, "paper trading account opened",
		"user_id", userID, "starting_balance", startingBalance.String())
	return account, nil
}

// JoinCompetition 加入比赛并创建参与账户，幂等
func (s *AccountService) JoinCompetition(ctx context.Context, userID, competition string, startingBalance decimal.Decimal) (*domain.CompetitionParticipant, error) {
	if userID == "" || competition == "" {
		return nil, errors.New("user id and competition are required")
	}
	if !startingBalance.IsPositive() {
		startingBalance = DefaultStartingBalance
	}

	existing, err := s.holders.GetHolder(ctx, userID, competition)
	if err != nil {
		return nil, fmt.Errorf("check existing participant: %w", err)
	}
	if existing != nil {
		if participant, ok := existing.(*domain.CompetitionParticipant); ok {
			return participant, nil
		}
	}

	participant := domain.NewParticipant(userID, competition, startingBalance, time.Now())
	if err := s.holders.CreateParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}
	logging.Info(ctx, "competition participant created",
		"user_id", userID, "competition", competition)
	return participant, nil
}

// GetHolder 查询持有人，scope 为空表示主账户
func (s *AccountService) GetHolder(ctx context.Context, ownerID, scope string) (domain.BalanceHolder, error) {
	holder, err := s.holders.GetHolder(ctx, ownerID, scope)
	if err != nil {
		return nil, err
	}
	if holder == nil {
		return nil, domain.ErrHolderNotFound
	}
	return holder, nil
}

// ListParticipants 按比赛列出参与账户，余额降序
func (s *AccountService) ListParticipants(ctx context.Context, competition string) ([]*domain.CompetitionParticipant, error) {
	return s.holders.ListParticipants(ctx, competition)
}
