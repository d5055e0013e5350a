package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Hermela440/game/internal/modules/poker/domain"
	"github.com/Hermela440/game/internal/modules/poker/machine"
	"github.com/Hermela440/game/pkg/logger"
	"github.com/Hermela440/game/pkg/service"
)

// Event is the envelope broadcast to a game channel after every state change
type Event struct {
	Type string           `json:"type"`
	Game *domain.Snapshot `json:"game"`
}

const (
	EventGameCreated   = "game_created"
	EventGameStarted   = "game_started"
	EventGameUpdate    = "game_update"
	EventGameCompleted = "game_completed"
	EventGameCancelled = "game_cancelled"
)

// PokerUseCase owns the live tables. One table per game; terminal games
// are archived and dropped from the live set.
type PokerUseCase struct {
	mu     sync.RWMutex
	tables map[int64]*machine.Table

	cfg       domain.GameConfig
	ledger    service.LedgerService
	cooldowns service.CooldownService
	games     domain.GameRepository
	gateway   service.GatewayService

	// Collapses concurrent snapshot reads of the same game
	sf singleflight.Group
}

// NewPokerUseCase wires the poker module. gateway may be nil when no
// transport is attached (tests, tools).
func NewPokerUseCase(
	cfg domain.GameConfig,
	ledger service.LedgerService,
	cooldowns service.CooldownService,
	games domain.GameRepository,
	gateway service.GatewayService,
) *PokerUseCase {
	return &PokerUseCase{
		tables:    make(map[int64]*machine.Table),
		cfg:       cfg,
		ledger:    ledger,
		cooldowns: cooldowns,
		games:     games,
		gateway:   gateway,
	}
}

// CreateGame opens a new waiting table in the room
func (uc *PokerUseCase) CreateGame(ctx context.Context, roomID int64) (*domain.Snapshot, error) {
	table := machine.NewTable(roomID, uc.cfg, uc.ledger, uc.cooldowns,
		rand.New(rand.NewSource(time.Now().UnixNano())))

	uc.mu.Lock()
	uc.tables[table.GameID()] = table
	uc.mu.Unlock()

	snapshot := table.Snapshot()
	logger.Info(ctx).
		Int64("game_id", snapshot.GameID).
		Int64("room_id", roomID).
		Msg("game created")
	uc.broadcast(ctx, snapshot, EventGameCreated)
	return snapshot, nil
}

// JoinGame seats the player at the table
func (uc *PokerUseCase) JoinGame(ctx context.Context, gameID, userID int64) (*domain.Snapshot, error) {
	table, err := uc.table(gameID)
	if err != nil {
		return nil, err
	}
	snapshot, err := table.Join(ctx, userID)
	if err != nil {
		return nil, err
	}
	uc.broadcast(ctx, snapshot, EventGameUpdate)
	return snapshot, nil
}

// LeaveGame removes the player; a mid-hand leave folds them and can end
// the hand.
func (uc *PokerUseCase) LeaveGame(ctx context.Context, gameID, userID int64) (*domain.Snapshot, error) {
	table, err := uc.table(gameID)
	if err != nil {
		return nil, err
	}
	snapshot, err := table.Leave(ctx, userID)
	if err != nil {
		return nil, err
	}
	uc.settleIfTerminal(ctx, table, snapshot)
	uc.broadcast(ctx, snapshot, uc.eventFor(snapshot))
	return snapshot, nil
}

// StartGame deals the hand and posts the blinds
func (uc *PokerUseCase) StartGame(ctx context.Context, gameID int64) (*domain.Snapshot, error) {
	table, err := uc.table(gameID)
	if err != nil {
		return nil, err
	}
	snapshot, err := table.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	uc.broadcast(ctx, snapshot, EventGameStarted)
	return snapshot, nil
}

// SubmitMove applies one betting action
func (uc *PokerUseCase) SubmitMove(ctx context.Context, gameID, userID int64, action string, amount int64) (*domain.Snapshot, error) {
	table, err := uc.table(gameID)
	if err != nil {
		return nil, err
	}
	snapshot, err := table.SubmitMove(ctx, userID, domain.MoveType(action), amount)
	if err != nil {
		return nil, err
	}
	uc.settleIfTerminal(ctx, table, snapshot)
	uc.broadcast(ctx, snapshot, uc.eventFor(snapshot))
	return snapshot, nil
}

// CancelGame aborts the game and refunds all posted bets
func (uc *PokerUseCase) CancelGame(ctx context.Context, gameID int64) (*domain.Snapshot, error) {
	table, err := uc.table(gameID)
	if err != nil {
		return nil, err
	}
	snapshot, err := table.Cancel(ctx)
	if err != nil {
		return nil, err
	}
	uc.settleIfTerminal(ctx, table, snapshot)
	uc.broadcast(ctx, snapshot, EventGameCancelled)
	return snapshot, nil
}

// GetGame returns the current snapshot. Concurrent reads of the same
// game share one snapshot.
func (uc *PokerUseCase) GetGame(ctx context.Context, gameID int64) (*domain.Snapshot, error) {
	v, err, _ := uc.sf.Do(fmt.Sprintf("game:%d", gameID), func() (interface{}, error) {
		table, err := uc.table(gameID)
		if err != nil {
			return nil, err
		}
		return table.Snapshot(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Snapshot), nil
}

// History lists archived games for a room, newest first
func (uc *PokerUseCase) History(ctx context.Context, roomID int64, limit int) ([]*domain.GameRecord, error) {
	return uc.games.ListByRoom(ctx, roomID, limit)
}

func (uc *PokerUseCase) table(gameID int64) (*machine.Table, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	table, ok := uc.tables[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %d", domain.ErrNotFound, gameID)
	}
	return table, nil
}

// settleIfTerminal archives a finished game and drops it from the live set
func (uc *PokerUseCase) settleIfTerminal(ctx context.Context, table *machine.Table, snapshot *domain.Snapshot) {
	switch snapshot.Status {
	case domain.StatusCompleted, domain.StatusCancelled:
	default:
		return
	}

	record := table.Record(snapshot)
	if err := uc.games.Archive(ctx, record); err != nil {
		logger.Error(ctx).Err(err).
			Int64("game_id", snapshot.GameID).
			Msg("archive failed, game kept in memory only")
	}

	uc.mu.Lock()
	delete(uc.tables, snapshot.GameID)
	uc.mu.Unlock()
}

func (uc *PokerUseCase) eventFor(snapshot *domain.Snapshot) string {
	switch snapshot.Status {
	case domain.StatusCompleted:
		return EventGameCompleted
	case domain.StatusCancelled:
		return EventGameCancelled
	default:
		return EventGameUpdate
	}
}

func (uc *PokerUseCase) broadcast(ctx context.Context, snapshot *domain.Snapshot, eventType string) {
	if uc.gateway == nil {
		return
	}
	channel := fmt.Sprintf("game:%d", snapshot.GameID)
	if err := uc.gateway.Broadcast(ctx, channel, Event{Type: eventType, Game: snapshot}); err != nil {
		logger.Warn(ctx).Err(err).
			Int64("game_id", snapshot.GameID).
			Str("event", eventType).
			Msg("broadcast failed")
	}
}
