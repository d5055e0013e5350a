package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Hermela440/game/internal/modules/wallet/domain"
)

// LedgerRepository implements domain.LedgerRepository on Postgres via GORM.
// Apply runs inside one transaction holding a row lock on the account, so
// the balance write and the entry append commit (or roll back) together.
type LedgerRepository struct {
	db         *gorm.DB
	maxBalance int64
}

// NewLedgerRepository creates a new DB-backed ledger repository
func NewLedgerRepository(db *gorm.DB, maxBalance int64) *LedgerRepository {
	return &LedgerRepository{db: db, maxBalance: maxBalance}
}

func (r *LedgerRepository) Apply(ctx context.Context, entry *domain.Entry) (int64, error) {
	var newBalance int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acct domain.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", entry.UserID).
			First(&acct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if !acct.IsActive() {
			return domain.ErrAccountInactive
		}

		before := acct.Balance
		after := before + entry.Amount
		if after < 0 {
			return domain.ErrInsufficientBalance
		}
		if after > r.maxBalance {
			return domain.ErrLimitExceeded
		}

		if err := tx.Model(&domain.Account{}).
			Where("user_id = ?", entry.UserID).
			Update("balance", after).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		entry.BalanceBefore = before
		entry.BalanceAfter = after
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}

		newBalance = after
		return nil
	})
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

func (r *LedgerRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	var acct domain.Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return acct.Balance, nil
}

func (r *LedgerRepository) EntriesByUser(ctx context.Context, userID int64, limit int) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepository) EntriesByGame(ctx context.Context, gameID int64) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	if err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}
