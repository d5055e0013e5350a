package cooldown

import (
	"context"
	"time"

	"github.com/Hermela440/game/pkg/logger"
)

// Default durations. Folding and checking cost less than moves that put
// money in the pot; the post-game cooldown applies to every participant
// when a hand ends, and to a player who leaves mid-hand.
const (
	DefaultCooldown  = 5 * time.Minute
	PostGameCooldown = 5 * time.Minute
)

func defaultActionCooldowns() map[string]time.Duration {
	return map[string]time.Duration{
		"bet":   30 * time.Second,
		"raise": 30 * time.Second,
		"call":  30 * time.Second,
		"check": 15 * time.Second,
		"fold":  15 * time.Second,
	}
}

// Scheduler implements service.CooldownService over a Store.
// IsActive lazily compares against the clock; no background sweeping.
type Scheduler struct {
	store    Store
	actions  map[string]time.Duration
	fallback time.Duration
	postGame time.Duration
	now      func() time.Time
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithActionCooldown overrides the duration for one action type
func WithActionCooldown(action string, d time.Duration) Option {
	return func(s *Scheduler) { s.actions[action] = d }
}

// WithPostGameCooldown overrides the post-game duration
func WithPostGameCooldown(d time.Duration) Option {
	return func(s *Scheduler) { s.postGame = d }
}

// WithClock overrides the time source (for tests)
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a scheduler with the default durations
func NewScheduler(store Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		actions:  defaultActionCooldowns(),
		fallback: DefaultCooldown,
		postGame: PostGameCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start sets a cooldown with an explicit duration, overwriting any prior one
func (s *Scheduler) Start(ctx context.Context, gameID, userID int64, d time.Duration) error {
	return s.store.Set(ctx, gameID, userID, s.now().Add(d))
}

// StartAction sets the per-action cooldown, falling back to the default
// duration for unrecognized action types
func (s *Scheduler) StartAction(ctx context.Context, gameID, userID int64, action string) error {
	d, ok := s.actions[action]
	if !ok {
		d = s.fallback
	}
	return s.Start(ctx, gameID, userID, d)
}

// StartPostGame sets the longer post-game cooldown
func (s *Scheduler) StartPostGame(ctx context.Context, gameID, userID int64) error {
	return s.Start(ctx, gameID, userID, s.postGame)
}

// IsActive reports whether the player is still cooling down
func (s *Scheduler) IsActive(ctx context.Context, gameID, userID int64) (bool, error) {
	expiry, ok, err := s.store.Get(ctx, gameID, userID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiry) {
		// Naturally elapsed; drop the stale record
		if err := s.store.Delete(ctx, gameID, userID); err != nil {
			logger.Warn(ctx).Err(err).
				Int64("game_id", gameID).
				Int64("user_id", userID).
				Msg("Failed to drop elapsed cooldown")
		}
		return false, nil
	}
	return true, nil
}

// Remaining returns the time left on the cooldown, zero when none
func (s *Scheduler) Remaining(ctx context.Context, gameID, userID int64) (time.Duration, error) {
	expiry, ok, err := s.store.Get(ctx, gameID, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	remaining := expiry.Sub(s.now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Clear removes the cooldown for one player
func (s *Scheduler) Clear(ctx context.Context, gameID, userID int64) error {
	return s.store.Delete(ctx, gameID, userID)
}

// ClearAll removes every cooldown recorded for the game
func (s *Scheduler) ClearAll(ctx context.Context, gameID int64) error {
	return s.store.DeleteGame(ctx, gameID)
}
