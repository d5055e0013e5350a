// Package memory provides the in-memory game archive.
package memory

import (
	"context"
	"sync"

	"github.com/Hermela440/game/internal/modules/poker/domain"
)

// GameRepository implements domain.GameRepository in memory
type GameRepository struct {
	mu      sync.RWMutex
	records []*domain.GameRecord
}

// NewGameRepository creates an empty in-memory archive
func NewGameRepository() *GameRepository {
	return &GameRepository{records: make([]*domain.GameRecord, 0)}
}

func (r *GameRepository) Archive(ctx context.Context, record *domain.GameRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *GameRepository) ListByRoom(ctx context.Context, roomID int64, limit int) ([]*domain.GameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.GameRecord, 0)
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].RoomID == roomID {
			out = append(out, r.records[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
