package service

import (
	"context"
	"time"
)

// CooldownService paces player actions. A cooldown is keyed by (game, player)
// and starting a new one always overwrites the previous expiry.
type CooldownService interface {
	// Start sets a cooldown with an explicit duration.
	Start(ctx context.Context, gameID, userID int64, d time.Duration) error

	// StartAction sets the per-action cooldown for the given action type,
	// falling back to the default duration for unknown actions.
	StartAction(ctx context.Context, gameID, userID int64, action string) error

	// StartPostGame sets the longer post-game cooldown.
	StartPostGame(ctx context.Context, gameID, userID int64) error

	// IsActive reports whether the player is still cooling down.
	IsActive(ctx context.Context, gameID, userID int64) (bool, error)

	// Remaining returns the time left on the cooldown, or zero when none.
	Remaining(ctx context.Context, gameID, userID int64) (time.Duration, error)

	// Clear removes the cooldown for one player.
	Clear(ctx context.Context, gameID, userID int64) error

	// ClearAll removes every cooldown recorded for the game.
	ClearAll(ctx context.Context, gameID int64) error
}
