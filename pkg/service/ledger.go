package service

import "context"

// Winner identifies a pot winner and the hand that won it, in payout order.
type Winner struct {
	UserID   int64
	HandDesc string
}

// Payout records one balance credit made while settling or cancelling a game.
type Payout struct {
	UserID int64 `json:"user_id"`
	Amount int64 `json:"amount"`
}

// LedgerService is the engine-facing balance protocol. Every monetary effect
// of a game goes through it and leaves an immutable audit entry.
type LedgerService interface {
	// Balance returns the player's current balance.
	Balance(ctx context.Context, userID int64) (int64, error)

	// Bet debits a wager. Returns the new balance.
	Bet(ctx context.Context, userID, gameID int64, amount int64) (int64, error)

	// Blind debits a forced bet. kind is "small" or "big".
	Blind(ctx context.Context, userID, gameID int64, amount int64, kind string) (int64, error)

	// Win credits a payout described by the winning hand.
	Win(ctx context.Context, userID, gameID int64, amount int64, handDesc string) (int64, error)

	// Refund credits back a wager when a game is cancelled.
	Refund(ctx context.Context, userID, gameID int64, amount int64, reason string) (int64, error)

	// DistributePot splits pot among winners: floor(pot/n) each plus a
	// one-unit remainder to the earliest winners in the supplied order.
	// The amounts paid always total exactly pot.
	DistributePot(ctx context.Context, gameID int64, pot int64, winners []Winner) ([]Payout, error)

	// RefundAll refunds the supplied bets in order. Used only on cancellation.
	RefundAll(ctx context.Context, gameID int64, bets []Payout, reason string) ([]Payout, error)
}
