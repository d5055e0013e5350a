package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the referenced game or player does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidMove is returned when a caller violates a betting rule.
	// State is unchanged; the wrapped reason is reported verbatim.
	ErrInvalidMove = errors.New("invalid move")

	// ErrIllegalTransition is returned when a lifecycle transition is
	// requested from a state that forbids it
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrOnCooldown is returned when a player acts before their cooldown
	// expires. The wrapped message reports the remaining time.
	ErrOnCooldown = errors.New("player on cooldown")

	// ErrGameCorrupted marks an internal invariant violation. The game is
	// forced into a terminal error state and needs operator intervention.
	ErrGameCorrupted = errors.New("game state corrupted")
)

// InvalidMovef wraps ErrInvalidMove with a formatted reason
func InvalidMovef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidMove, fmt.Sprintf(format, args...))
}

// IllegalTransitionf wraps ErrIllegalTransition with a formatted reason
func IllegalTransitionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIllegalTransition, fmt.Sprintf(format, args...))
}

// OnCooldownf wraps ErrOnCooldown with a formatted reason
func OnCooldownf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrOnCooldown, fmt.Sprintf(format, args...))
}
