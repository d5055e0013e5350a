package domain

import "errors"

var (
	// ErrNotFound is returned when the referenced account does not exist
	ErrNotFound = errors.New("account not found")

	// ErrAccountInactive is returned when the account is suspended or banned
	ErrAccountInactive = errors.New("account is not active")

	// ErrInsufficientBalance is returned when a debit would go negative.
	// It is a normal game-flow outcome, not a system fault.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrLimitExceeded is returned when a credit would exceed the balance ceiling
	ErrLimitExceeded = errors.New("balance limit exceeded")
)
