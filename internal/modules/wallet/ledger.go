// Package wallet implements the ledger: the authoritative balance-mutation
// protocol for every monetary effect in the system.
package wallet

import (
	"context"
	"fmt"

	"github.com/Hermela440/game/internal/modules/wallet/domain"
	"github.com/Hermela440/game/pkg/logger"
	"github.com/Hermela440/game/pkg/service"
)

// Ledger implements service.LedgerService on top of a LedgerRepository.
// Validation of balance bounds and the atomic balance+entry commit live in
// the repository; the four action kinds here are thin wrappers choosing
// sign and description.
type Ledger struct {
	repo domain.LedgerRepository
}

// NewLedger creates a new ledger service
func NewLedger(repo domain.LedgerRepository) *Ledger {
	return &Ledger{repo: repo}
}

// Apply records one signed balance mutation with its audit entry
func (l *Ledger) Apply(ctx context.Context, userID, gameID int64, action domain.ActionKind, amount int64, description string) (int64, error) {
	entry := domain.NewEntry(gameID, userID, action, amount, description)

	newBalance, err := l.repo.Apply(ctx, entry)
	if err != nil {
		logger.Warn(ctx).
			Err(err).
			Int64("user_id", userID).
			Int64("game_id", gameID).
			Str("action", string(action)).
			Int64("amount", amount).
			Msg("Ledger mutation rejected")
		return 0, err
	}

	logger.Debug(ctx).
		Int64("user_id", userID).
		Int64("game_id", gameID).
		Str("action", string(action)).
		Int64("amount", amount).
		Int64("balance", newBalance).
		Msg("Ledger mutation applied")

	return newBalance, nil
}

// Balance returns the player's current balance
func (l *Ledger) Balance(ctx context.Context, userID int64) (int64, error) {
	return l.repo.Balance(ctx, userID)
}

// Bet debits a wager
func (l *Ledger) Bet(ctx context.Context, userID, gameID int64, amount int64) (int64, error) {
	return l.Apply(ctx, userID, gameID, domain.ActionBet, -amount, fmt.Sprintf("Bet of %d", amount))
}

// Blind debits a forced bet posted before cards are seen
func (l *Ledger) Blind(ctx context.Context, userID, gameID int64, amount int64, kind string) (int64, error) {
	return l.Apply(ctx, userID, gameID, domain.ActionBlind, -amount, fmt.Sprintf("%s blind of %d", kind, amount))
}

// Win credits a payout
func (l *Ledger) Win(ctx context.Context, userID, gameID int64, amount int64, handDesc string) (int64, error) {
	return l.Apply(ctx, userID, gameID, domain.ActionWin, amount, fmt.Sprintf("Won %d with %s", amount, handDesc))
}

// Refund credits back a wager from a cancelled game
func (l *Ledger) Refund(ctx context.Context, userID, gameID int64, amount int64, reason string) (int64, error) {
	return l.Apply(ctx, userID, gameID, domain.ActionRefund, amount, fmt.Sprintf("Refund of %d: %s", amount, reason))
}

// DistributePot splits pot among winners. Each winner receives floor(pot/n)
// and the first pot%n winners in the supplied order receive one extra unit,
// so the total paid out equals pot exactly.
func (l *Ledger) DistributePot(ctx context.Context, gameID int64, pot int64, winners []service.Winner) ([]service.Payout, error) {
	if len(winners) == 0 {
		return nil, nil
	}

	n := int64(len(winners))
	share := pot / n
	remainder := pot % n

	payouts := make([]service.Payout, 0, len(winners))
	for i, w := range winners {
		amount := share
		if int64(i) < remainder {
			amount++
		}

		if _, err := l.Win(ctx, w.UserID, gameID, amount, w.HandDesc); err != nil {
			return payouts, fmt.Errorf("failed to pay winner %d: %w", w.UserID, err)
		}
		payouts = append(payouts, service.Payout{UserID: w.UserID, Amount: amount})
	}

	logger.Info(ctx).
		Int64("game_id", gameID).
		Int64("pot", pot).
		Int("winners", len(winners)).
		Msg("Pot distributed")

	return payouts, nil
}

// RefundAll refunds the supplied bets in order. Used only when a game is
// cancelled before resolution.
func (l *Ledger) RefundAll(ctx context.Context, gameID int64, bets []service.Payout, reason string) ([]service.Payout, error) {
	refunds := make([]service.Payout, 0, len(bets))
	for _, b := range bets {
		if b.Amount <= 0 {
			continue
		}
		if _, err := l.Refund(ctx, b.UserID, gameID, b.Amount, reason); err != nil {
			return refunds, fmt.Errorf("failed to refund player %d: %w", b.UserID, err)
		}
		refunds = append(refunds, service.Payout{UserID: b.UserID, Amount: b.Amount})
	}
	return refunds, nil
}

// History exposes ledger entries read-only for reporting
func (l *Ledger) History(ctx context.Context, userID int64, limit int) ([]*domain.Entry, error) {
	return l.repo.EntriesByUser(ctx, userID, limit)
}

// GameHistory lists every entry recorded for one game
func (l *Ledger) GameHistory(ctx context.Context, gameID int64) ([]*domain.Entry, error) {
	return l.repo.EntriesByGame(ctx, gameID)
}
