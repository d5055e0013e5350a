// Package memory provides the in-memory user repository.
package memory

import (
	"context"
	"sync"

	"github.com/Hermela440/game/internal/modules/user/domain"
)

// UserRepository implements domain.UserRepository in memory
type UserRepository struct {
	mu     sync.RWMutex
	byID   map[int64]*domain.User
	byName map[string]*domain.User
}

// NewUserRepository creates an empty in-memory store
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:   make(map[int64]*domain.User),
		byName: make(map[string]*domain.User),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.Username]; ok {
		return domain.ErrUsernameTaken
	}
	r.byID[user.UserID] = user
	r.byName[user.Username] = user
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byName[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}
