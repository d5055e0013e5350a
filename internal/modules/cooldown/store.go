// Package cooldown tracks when each player may act again, per game.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Store persists cooldown expiries keyed by (game, player). Set always
// overwrites; there is no stacking.
type Store interface {
	Set(ctx context.Context, gameID, userID int64, expiry time.Time) error
	Get(ctx context.Context, gameID, userID int64) (time.Time, bool, error)
	Delete(ctx context.Context, gameID, userID int64) error
	DeleteGame(ctx context.Context, gameID int64) error
}

// MemoryStore implements Store with process-local maps. This is the
// reference backend; cooldowns do not survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	cooldowns map[int64]map[int64]time.Time // gameID -> userID -> expiry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cooldowns: make(map[int64]map[int64]time.Time),
	}
}

func (s *MemoryStore) Set(ctx context.Context, gameID, userID int64, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cooldowns[gameID] == nil {
		s.cooldowns[gameID] = make(map[int64]time.Time)
	}
	s.cooldowns[gameID][userID] = expiry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, gameID, userID int64) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, ok := s.cooldowns[gameID]
	if !ok {
		return time.Time{}, false, nil
	}
	expiry, ok := game[userID]
	return expiry, ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, gameID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if game, ok := s.cooldowns[gameID]; ok {
		delete(game, userID)
	}
	return nil
}

func (s *MemoryStore) DeleteGame(ctx context.Context, gameID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cooldowns, gameID)
	return nil
}
