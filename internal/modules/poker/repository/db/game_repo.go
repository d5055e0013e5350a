// Package db provides the GORM-backed game archive.
package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/Hermela440/game/internal/modules/poker/domain"
)

// GameRepository implements domain.GameRepository on a SQL database
type GameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates the repository over an open connection
func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Archive(ctx context.Context, record *domain.GameRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *GameRepository) ListByRoom(ctx context.Context, roomID int64, limit int) ([]*domain.GameRecord, error) {
	records := make([]*domain.GameRecord, 0)
	query := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
