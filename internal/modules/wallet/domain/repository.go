package domain

import "context"

// LedgerRepository persists accounts and ledger entries.
//
// Apply is the atomic core of the wallet: it must read the balance, enforce
// the [0, MaxBalance] bounds, write the new balance and append the entry as
// one unit. A concurrent reader never observes a balance without its
// matching entry, and a failure leaves neither applied.
type LedgerRepository interface {
	// Apply atomically mutates the balance by entry.Amount (signed) and
	// appends the entry with BalanceBefore/After filled in. Returns the
	// new balance, or ErrNotFound / ErrAccountInactive /
	// ErrInsufficientBalance / ErrLimitExceeded.
	Apply(ctx context.Context, entry *Entry) (int64, error)

	// Balance returns the current balance for the account
	Balance(ctx context.Context, userID int64) (int64, error)

	// EntriesByUser lists a player's most recent entries, newest first
	EntriesByUser(ctx context.Context, userID int64, limit int) ([]*Entry, error)

	// EntriesByGame lists every entry recorded for a game, oldest first
	EntriesByGame(ctx context.Context, gameID int64) ([]*Entry, error)
}
