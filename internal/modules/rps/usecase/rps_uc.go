package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Hermela440/game/internal/modules/rps/domain"
	"github.com/Hermela440/game/pkg/logger"
	"github.com/Hermela440/game/pkg/service"
)

// Event is the envelope broadcast to a match channel after every state change
type Event struct {
	Type  string           `json:"type"`
	Match *domain.Snapshot `json:"match"`
}

const (
	EventMatchCreated   = "match_created"
	EventMatchUpdate    = "match_update"
	EventMatchCompleted = "match_completed"
	EventMatchCancelled = "match_cancelled"
)

// RPSUseCase owns the live rock-paper-scissors matches. Mutations on
// one match serialize on the use case mutex; matches are short-lived
// enough that a single lock suffices.
type RPSUseCase struct {
	mu      sync.Mutex
	matches map[int64]*domain.Match

	ledger    service.LedgerService
	cooldowns service.CooldownService
	gateway   service.GatewayService
}

// NewRPSUseCase wires the module. gateway may be nil.
func NewRPSUseCase(ledger service.LedgerService, cooldowns service.CooldownService, gateway service.GatewayService) *RPSUseCase {
	return &RPSUseCase{
		matches:   make(map[int64]*domain.Match),
		ledger:    ledger,
		cooldowns: cooldowns,
		gateway:   gateway,
	}
}

// CreateMatch opens a match with a fixed ante
func (uc *RPSUseCase) CreateMatch(ctx context.Context, roomID, stake int64) (*domain.Snapshot, error) {
	if stake <= 0 {
		return nil, domain.InvalidMovef("stake must be positive, got %d", stake)
	}

	match := domain.NewMatch(roomID, stake)
	uc.mu.Lock()
	uc.matches[match.MatchID] = match
	uc.mu.Unlock()

	logger.Info(ctx).
		Int64("match_id", match.MatchID).
		Int64("room_id", roomID).
		Int64("stake", stake).
		Msg("match created")

	snapshot := match.NewSnapshot()
	uc.broadcast(ctx, snapshot, EventMatchCreated)
	return snapshot, nil
}

// JoinMatch antes the stake and seats the player. The debit happens at
// join time, so a cancelled match refunds everyone who is seated.
func (uc *RPSUseCase) JoinMatch(ctx context.Context, matchID, userID int64) (*domain.Snapshot, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	match, err := uc.match(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != domain.StatusWaiting {
		return nil, domain.IllegalTransitionf("cannot join a %s match", match.Status)
	}
	if match.HasPlayer(userID) {
		return nil, domain.InvalidMovef("player %d already joined", userID)
	}

	if _, err := uc.ledger.Bet(ctx, userID, match.MatchID, match.Stake); err != nil {
		return nil, err
	}
	match.Players = append(match.Players, userID)
	match.Pot += match.Stake
	match.Contributed += match.Stake

	logger.Info(ctx).
		Int64("match_id", matchID).
		Int64("user_id", userID).
		Int64("pot", match.Pot).
		Msg("player joined match")

	snapshot := match.NewSnapshot()
	uc.broadcast(ctx, snapshot, EventMatchUpdate)
	return snapshot, nil
}

// StartMatch closes joining and opens the throwing phase
func (uc *RPSUseCase) StartMatch(ctx context.Context, matchID int64) (*domain.Snapshot, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	match, err := uc.match(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != domain.StatusWaiting {
		return nil, domain.IllegalTransitionf("cannot start a %s match", match.Status)
	}
	if len(match.Players) < 2 {
		return nil, domain.InvalidMovef("need at least 2 players, have %d", len(match.Players))
	}

	match.Status = domain.StatusInProgress
	logger.Info(ctx).
		Int64("match_id", matchID).
		Int("players", len(match.Players)).
		Msg("match started")

	snapshot := match.NewSnapshot()
	uc.broadcast(ctx, snapshot, EventMatchUpdate)
	return snapshot, nil
}

// SubmitChoice records a player's throw. The match resolves as soon as
// the last throw lands.
func (uc *RPSUseCase) SubmitChoice(ctx context.Context, matchID, userID int64, choice domain.Choice) (*domain.Snapshot, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	match, err := uc.match(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != domain.StatusInProgress {
		return nil, domain.IllegalTransitionf("cannot throw in a %s match", match.Status)
	}
	if !match.HasPlayer(userID) {
		return nil, fmt.Errorf("%w: player %d not in match %d", domain.ErrNotFound, userID, matchID)
	}
	if !domain.ValidChoice(choice) {
		return nil, domain.InvalidMovef("unknown choice %q", choice)
	}
	if _, ok := match.Choices[userID]; ok {
		return nil, domain.InvalidMovef("player %d already threw", userID)
	}

	match.Choices[userID] = choice
	logger.Info(ctx).
		Int64("match_id", matchID).
		Int64("user_id", userID).
		Int("chosen", len(match.Choices)).
		Msg("choice recorded")

	if !match.AllChosen() {
		snapshot := match.NewSnapshot()
		uc.broadcast(ctx, snapshot, EventMatchUpdate)
		return snapshot, nil
	}
	return uc.resolve(ctx, match)
}

// resolve settles the pot to the dominating side, or splits it across
// everyone on a tie. Caller holds the mutex.
func (uc *RPSUseCase) resolve(ctx context.Context, match *domain.Match) (*domain.Snapshot, error) {
	winnerIDs := domain.ResolveWinners(match.Players, match.Choices)

	winners := make([]service.Winner, 0, len(winnerIDs))
	tie := len(winnerIDs) == len(match.Players)
	for _, id := range winnerIDs {
		desc := string(match.Choices[id])
		if tie {
			desc = "tie"
		}
		winners = append(winners, service.Winner{UserID: id, HandDesc: desc})
	}

	payouts, err := uc.ledger.DistributePot(ctx, match.MatchID, match.Pot, winners)
	if err != nil {
		return nil, fmt.Errorf("settling match %d: %w", match.MatchID, err)
	}
	var paid int64
	for _, p := range payouts {
		paid += p.Amount
	}
	match.Pot -= paid
	match.PaidOut += paid

	match.Status = domain.StatusCompleted
	now := time.Now()
	match.EndedAt = &now
	delete(uc.matches, match.MatchID)

	for _, p := range match.Players {
		if err := uc.cooldowns.StartPostGame(ctx, match.MatchID, p); err != nil {
			logger.Warn(ctx).Err(err).Int64("user_id", p).Msg("post-match cooldown failed")
		}
	}

	logger.Info(ctx).
		Int64("match_id", match.MatchID).
		Int("winners", len(winnerIDs)).
		Bool("tie", tie).
		Int64("paid_out", paid).
		Msg("match completed")

	snapshot := match.NewSnapshot()
	snapshot.Winners = winnerIDs
	uc.broadcast(ctx, snapshot, EventMatchCompleted)
	return snapshot, nil
}

// CancelMatch aborts an unresolved match and refunds every ante
func (uc *RPSUseCase) CancelMatch(ctx context.Context, matchID int64) (*domain.Snapshot, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	match, err := uc.match(matchID)
	if err != nil {
		return nil, err
	}
	if match.Terminal() {
		return nil, domain.IllegalTransitionf("cannot cancel a %s match", match.Status)
	}

	bets := make([]service.Payout, 0, len(match.Players))
	for _, p := range match.Players {
		bets = append(bets, service.Payout{UserID: p, Amount: match.Stake})
	}
	refunds, err := uc.ledger.RefundAll(ctx, match.MatchID, bets, "Match cancelled")
	if err != nil {
		return nil, fmt.Errorf("refunding match %d: %w", matchID, err)
	}
	var refunded int64
	for _, r := range refunds {
		refunded += r.Amount
	}
	match.Pot -= refunded
	match.PaidOut += refunded

	match.Status = domain.StatusCancelled
	now := time.Now()
	match.EndedAt = &now
	delete(uc.matches, match.MatchID)

	if err := uc.cooldowns.ClearAll(ctx, match.MatchID); err != nil {
		logger.Warn(ctx).Err(err).Int64("match_id", matchID).Msg("clear cooldowns on cancel failed")
	}

	logger.Info(ctx).
		Int64("match_id", matchID).
		Int64("refunded", refunded).
		Msg("match cancelled")

	snapshot := match.NewSnapshot()
	uc.broadcast(ctx, snapshot, EventMatchCancelled)
	return snapshot, nil
}

// GetMatch returns the current snapshot
func (uc *RPSUseCase) GetMatch(ctx context.Context, matchID int64) (*domain.Snapshot, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	match, err := uc.match(matchID)
	if err != nil {
		return nil, err
	}
	return match.NewSnapshot(), nil
}

func (uc *RPSUseCase) match(matchID int64) (*domain.Match, error) {
	match, ok := uc.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: match %d", domain.ErrNotFound, matchID)
	}
	return match, nil
}

func (uc *RPSUseCase) broadcast(ctx context.Context, snapshot *domain.Snapshot, eventType string) {
	if uc.gateway == nil {
		return
	}
	channel := fmt.Sprintf("match:%d", snapshot.MatchID)
	if err := uc.gateway.Broadcast(ctx, channel, Event{Type: eventType, Match: snapshot}); err != nil {
		logger.Warn(ctx).Err(err).
			Int64("match_id", snapshot.MatchID).
			Str("event", eventType).
			Msg("broadcast failed")
	}
}
