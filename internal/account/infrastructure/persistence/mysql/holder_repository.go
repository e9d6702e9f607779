package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/papertrading/internal/account/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// holderRepository 资金持有人仓储实现
// 主账户与比赛参与账户共用一套带乐观锁的保存逻辑
type holderRepository struct {
	db *gorm.DB
}

// NewHolderRepository 创建资金持有人仓储实例
func NewHolderRepository(db *gorm.DB) domain.HolderRepository {
	return &holderRepository{db: db}
}

func (r *holderRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// WithTx 在单个数据库事务内执行 fn，事务句柄通过 context 下传
func (r *holderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

// GetHolder 按 (ownerID, scope) 获取持有人，不存在时返回 (nil, nil)
func (r *holderRepository) GetHolder(ctx context.Context, ownerID, scope string) (domain.BalanceHolder, error) {
	db := r.getDB(ctx).WithContext(ctx)

	if scope == domain.ScopeMain {
		var account domain.Account
		err := db.Where("user_id = ?", ownerID).First(&account).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &account, nil
	}

	var participant domain.CompetitionParticipant
	err := db.Where("user_id = ? AND competition = ?", ownerID, scope).First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

// SaveHolder 带乐观锁保存持有人状态
// 版本失配时返回 ErrVersionConflict，调用方需携带最新状态重试
func (r *holderRepository) SaveHolder(ctx context.Context, holder domain.BalanceHolder) error {
	switch h := holder.(type) {
	case *domain.Account:
		return r.saveWithVersion(ctx, &domain.Account{}, h.ID, &h.HolderState)
	case *domain.CompetitionParticipant:
		return r.saveWithVersion(ctx, &domain.CompetitionParticipant{}, h.ID, &h.HolderState)
	default:
		return fmt.Errorf("unsupported balance holder type %T", holder)
	}
}

func (r *holderRepository) saveWithVersion(ctx context.Context, model any, id uint, state *domain.HolderState) error {
	currentVersion := state.Version
	result := r.getDB(ctx).WithContext(ctx).Model(model).
		Where("id = ? AND version = ?", id, currentVersion).
		Updates(map[string]any{
			"balance":             state.Balance,
			"daily_start_balance": state.DailyStartBalance,
			"daily_start_date":    state.DailyStartDate,
			"version":             currentVersion + 1,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	state.Version = currentVersion + 1
	return nil
}

// CreateAccount 开立主账户
func (r *holderRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	return r.getDB(ctx).WithContext(ctx).Create(account).Error
}

// CreateParticipant 创建比赛参与账户
func (r *holderRepository) CreateParticipant(ctx context.Context, participant *domain.CompetitionParticipant) error {
	return r.getDB(ctx).WithContext(ctx).Create(participant).Error
}

// ListParticipants 按比赛列出参与账户
func (r *holderRepository) ListParticipants(ctx context.Context, competition string) ([]*domain.CompetitionParticipant, error) {
	var participants []*domain.CompetitionParticipant
	err := r.getDB(ctx).WithContext(ctx).
		Where("competition = ?", competition).
		Order("balance desc").
		Find(&participants).Error
	return participants, err
}
