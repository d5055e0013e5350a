package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the referenced match or player does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidMove is returned when a caller violates a match rule.
	// State is unchanged; the wrapped reason is reported verbatim.
	ErrInvalidMove = errors.New("invalid move")

	// ErrIllegalTransition is returned when a lifecycle transition is
	// requested from a state that forbids it
	ErrIllegalTransition = errors.New("illegal transition")
)

// InvalidMovef wraps ErrInvalidMove with a formatted reason
func InvalidMovef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidMove, fmt.Sprintf(format, args...))
}

// IllegalTransitionf wraps ErrIllegalTransition with a formatted reason
func IllegalTransitionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIllegalTransition, fmt.Sprintf(format, args...))
}
