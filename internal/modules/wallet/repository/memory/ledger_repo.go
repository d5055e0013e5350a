// Package memory provides the in-memory ledger repository.
package memory

import (
	"context"
	"sync"

	"github.com/Hermela440/game/internal/modules/wallet/domain"
)

// LedgerRepository implements domain.LedgerRepository in memory.
// A single mutex covers both the balance map and the entry log so that
// Apply stays atomic with respect to readers.
type LedgerRepository struct {
	mu         sync.RWMutex
	accounts   map[int64]*domain.Account
	entries    []*domain.Entry
	maxBalance int64
}

// NewLedgerRepository creates an empty in-memory ledger
func NewLedgerRepository(maxBalance int64) *LedgerRepository {
	return &LedgerRepository{
		accounts:   make(map[int64]*domain.Account),
		entries:    make([]*domain.Entry, 0),
		maxBalance: maxBalance,
	}
}

// CreateAccount registers an account with a starting balance
func (r *LedgerRepository) CreateAccount(userID int64, balance int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[userID] = &domain.Account{
		UserID:  userID,
		Balance: balance,
		Status:  domain.AccountStatusActive,
	}
}

// SetStatus changes an account's status (for tests and admin tooling)
func (r *LedgerRepository) SetStatus(userID int64, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acct, ok := r.accounts[userID]; ok {
		acct.Status = status
	}
}

func (r *LedgerRepository) Apply(ctx context.Context, entry *domain.Entry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[entry.UserID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if !acct.IsActive() {
		return 0, domain.ErrAccountInactive
	}

	before := acct.Balance
	after := before + entry.Amount
	if after < 0 {
		return 0, domain.ErrInsufficientBalance
	}
	if after > r.maxBalance {
		return 0, domain.ErrLimitExceeded
	}

	acct.Balance = after
	entry.BalanceBefore = before
	entry.BalanceAfter = after
	r.entries = append(r.entries, entry)

	return after, nil
}

func (r *LedgerRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.accounts[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return acct.Balance, nil
}

func (r *LedgerRepository) EntriesByUser(ctx context.Context, userID int64, limit int) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Entry, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *LedgerRepository) EntriesByGame(ctx context.Context, gameID int64) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Entry, 0)
	for _, e := range r.entries {
		if e.GameID == gameID {
			out = append(out, e)
		}
	}
	return out, nil
}
