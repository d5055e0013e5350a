package domain

import (
	"context"
	"encoding/json"
	"time"
)

// GameRecord is the archived form of a finished game, persisted once the
// game reaches a terminal state and payouts are settled.
type GameRecord struct {
	GameID    int64      `json:"game_id" gorm:"primaryKey;column:game_id"`
	RoomID    int64      `json:"room_id" gorm:"column:room_id;index"`
	Status    GameStatus `json:"status" gorm:"column:status;not null"`
	Pot       int64      `json:"pot" gorm:"column:pot"`
	Players   string     `json:"players" gorm:"column:players;type:text"`
	Winners   string     `json:"winners" gorm:"column:winners;type:text"`
	StartedAt *time.Time `json:"started_at" gorm:"column:started_at"`
	EndedAt   *time.Time `json:"ended_at" gorm:"column:ended_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName maps GameRecord to the game_records table
func (GameRecord) TableName() string {
	return "game_records"
}

// NewGameRecord builds an archive record from a terminal game snapshot
func NewGameRecord(g *Game, snapshot *Snapshot) *GameRecord {
	players, _ := json.Marshal(g.Players)
	winners, _ := json.Marshal(snapshot.Winners)
	return &GameRecord{
		GameID:    g.GameID,
		RoomID:    g.RoomID,
		Status:    g.Status,
		Pot:       g.Contributed,
		Players:   string(players),
		Winners:   string(winners),
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
}

// GameRepository archives finished games
type GameRepository interface {
	Archive(ctx context.Context, record *GameRecord) error
	ListByRoom(ctx context.Context, roomID int64, limit int) ([]*GameRecord, error)
}
