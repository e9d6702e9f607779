// 包 domain 账户服务的领域模型
// 主账户与比赛参与账户通过 BalanceHolder 能力统一，
// 订单执行与规则校验只面向该抽象编写一次
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientBalance 余额不足以完成扣减
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrVersionConflict 乐观锁版本冲突，调用方需携带最新状态重试
	ErrVersionConflict = errors.New("balance holder version conflict")
	// ErrHolderNotFound 持有人不存在
	ErrHolderNotFound = errors.New("balance holder not found")
)

// ScopeMain 主账户作用域；非空字符串为比赛名称
const ScopeMain = ""

// BalanceHolder 资金持有能力
// 主账户与比赛参与账户的共同抽象，按请求作用域选择具体实现
type BalanceHolder interface {
	// Owner 持有人的用户 ID
	Owner() string
	// HolderScope 作用域，ScopeMain 表示主账户，否则为比赛名称
	HolderScope() string
	// CurrentBalance 当前可用余额
	CurrentBalance() decimal.Decimal
	// StartBalance 开户初始资金
	StartBalance() decimal.Decimal
	// DailyBaseline 当日起始总值基线
	DailyBaseline() decimal.Decimal
	// EnsureDailyBaseline 自然日变更时将基线归位为当前总值，返回是否发生变更
	EnsureDailyBaseline(now time.Time, totalValue decimal.Decimal) bool
	// Debit 扣减余额，不足时返回 ErrInsufficientBalance
	Debit(amount decimal.Decimal) error
	// Credit 增加余额
	Credit(amount decimal.Decimal) error
	// CurrentVersion 乐观锁版本号
	CurrentVersion() int64
}

// HolderState 资金持有人的公共字段，嵌入具体实体
type HolderState struct {
	// 可用余额
	Balance decimal.Decimal `gorm:"column:balance;type:decimal(20,2);default:0;not null" json:"balance"`
	// 当日起始总值基线，每个自然日捕获一次
	DailyStartBalance decimal.Decimal `gorm:"column:daily_start_balance;type:decimal(20,2);default:0;not null" json:"daily_start_balance"`
	// 基线捕获日期
	DailyStartDate time.Time `gorm:"column:daily_start_date;not null" json:"daily_start_date"`
	// 开户初始资金
	StartingBalance decimal.Decimal `gorm:"column:starting_balance;type:decimal(20,2);not null" json:"starting_balance"`
	// 乐观锁版本号
	Version int64 `gorm:"column:version;default:0;not null" json:"version"`
}

// CurrentBalance 当前可用余额
func (s *HolderState) CurrentBalance() decimal.Decimal { return s.Balance }

// StartBalance 开户初始资金
func (s *HolderState) StartBalance() decimal.Decimal { return s.StartingBalance }

// DailyBaseline 当日起始总值基线
func (s *HolderState) DailyBaseline() decimal.Decimal { return s.DailyStartBalance }

// CurrentVersion 乐观锁版本号
func (s *HolderState) CurrentVersion() int64 { return s.Version }

// Debit 扣减余额，不足时返回 ErrInsufficientBalance
func (s *HolderState) Debit(amount decimal.Decimal) error {
	if s.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	s.Balance = s.Balance.Sub(amount)
	return nil
}

// Credit 增加余额
func (s *HolderState) Credit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.New("credit amount must not be negative")
	}
	s.Balance = s.Balance.Add(amount)
	return nil
}

// EnsureDailyBaseline 自然日变更时将基线归位为当前总值
// 日期按本地时区的年月日比较，返回是否发生变更
func (s *HolderState) EnsureDailyBaseline(now time.Time, totalValue decimal.Decimal) bool {
	y1, m1, d1 := s.DailyStartDate.Local().Date()
	y2, m2, d2 := now.Local().Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return false
	}
	s.DailyStartBalance = totalValue
	s.DailyStartDate = now
	return true
}

// Account 主账户实体，每个用户一个模拟盘资金账户
type Account struct {
	gorm.Model
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(32);uniqueIndex;not null" json:"user_id"`
	HolderState
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}

// Owner 持有人的用户 ID
func (a *Account) Owner() string { return a.UserID }

// HolderScope 主账户作用域
func (a *Account) HolderScope() string { return ScopeMain }

// CompetitionParticipant 比赛参与账户实体
// 同一用户在每个比赛内持有独立的资金与持仓
type CompetitionParticipant struct {
	gorm.Model
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(32);not null;uniqueIndex:idx_user_competition" json:"user_id"`
	// 比赛名称
	Competition string `gorm:"column:competition;type:varchar(64);not null;uniqueIndex:idx_user_competition" json:"competition"`
	HolderState
}

// TableName 指定表名
func (CompetitionParticipant) TableName() string {
	return "competition_participants"
}

// Owner 持有人的用户 ID
func (p *CompetitionParticipant) Owner() string { return p.UserID }

// HolderScope 比赛名称作用域
func (p *CompetitionParticipant) HolderScope() string { return p.Competition }

// NewAccount 开立主账户
func NewAccount(userID string, startingBalance decimal.Decimal, now time.Time) *Account {
	return &Account{
		UserID: userID,
		HolderState: HolderState{
			Balance:           startingBalance,
			DailyStartBalance: startingBalance,
			DailyStartDate:    now,
			StartingBalance:   startingBalance,
		},
	}
}

// NewParticipant 创建比赛参与账户
func NewParticipant(userID, competition string, startingBalance decimal.Decimal, now time.Time) *CompetitionParticipant {
	return &CompetitionParticipant{
		UserID:      userID,
		Competition: competition,
		HolderState: HolderState{
			Balance:           startingBalance,
			DailyStartBalance: startingBalance,
			DailyStartDate:    now,
			StartingBalance:   startingBalance,
		},
	}
}

// HolderRepository 资金持有人仓储接口
// 按 (ownerID, scope) 选择主账户或比赛参与账户
type HolderRepository interface {
	// GetHolder 获取持有人，不存在时返回 (nil, nil)
	GetHolder(ctx context.Context, ownerID, scope string) (BalanceHolder, error)
	// SaveHolder 带乐观锁保存，版本失配时返回 ErrVersionConflict
	SaveHolder(ctx context.Context, holder BalanceHolder) error
	// CreateAccount 开立主账户
	CreateAccount(ctx context.Context, account *Account) error
	// CreateParticipant 创建比赛参与账户
	CreateParticipant(ctx context.Context, participant *CompetitionParticipant) error
	// ListParticipants 按比赛列出参与账户
	ListParticipants(ctx context.Context, competition string) ([]*CompetitionParticipant, error)
}
