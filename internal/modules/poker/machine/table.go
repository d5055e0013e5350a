package machine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Hermela440/game/internal/modules/poker/domain"
	"github.com/Hermela440/game/pkg/logger"
	"github.com/Hermela440/game/pkg/service"
)

// Table drives one poker hand through its betting rounds. All entry
// points serialize on the table mutex, so moves against the same game
// are applied one at a time in arrival order.
type Table struct {
	mu        sync.Mutex
	game      *domain.Game
	ledger    service.LedgerService
	cooldowns service.CooldownService
	rnd       *rand.Rand
}

// NewTable creates a table around a fresh waiting game
func NewTable(roomID int64, cfg domain.GameConfig, ledger service.LedgerService, cooldowns service.CooldownService, rnd *rand.Rand) *Table {
	return &Table{
		game:      domain.NewGame(roomID, cfg),
		ledger:    ledger,
		cooldowns: cooldowns,
		rnd:       rnd,
	}
}

// GameID returns the immutable game identifier
func (t *Table) GameID() int64 {
	return t.game.GameID
}

// Snapshot returns the current broadcastable state
func (t *Table) Snapshot() *domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.game.NewSnapshot()
}

// Record builds the archive record for a terminal game
func (t *Table) Record(snapshot *domain.Snapshot) *domain.GameRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.NewGameRecord(t.game, snapshot)
}

// Terminal reports whether the game has finished
func (t *Table) Terminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.game.Terminal()
}

// Join seats a player in a waiting game. The player must be able to
// cover at least the minimum bet.
func (t *Table) Join(ctx context.Context, userID int64) (*domain.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g := t.game

	if g.Status != domain.StatusWaiting {
		return nil, domain.IllegalTransitionf("cannot join a %s game", g.Status)
	}
	if g.HasPlayer(userID) {
		return nil, domain.InvalidMovef("player %d already seated", userID)
	}
	if len(g.Players) >= g.Config.MaxPlayers {
		return nil, domain.InvalidMovef("table is full (%d players)", g.Config.MaxPlayers)
	}
	balance, err := t.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < g.Config.MinBet {
		return nil, domain.InvalidMovef("balance %d below minimum bet %d", balance, g.Config.MinBet)
	}

	g.Players = append(g.Players, userID)
	logger.Info(ctx).
		Int64("game_id", g.GameID).
		Int64("user_id", userID).
		Int("seated", len(g.Players)).
		Msg("player joined")
	return g.NewSnapshot(), nil
}

// Leave removes a player. Before the hand starts the seat is simply
// freed; mid-hand a leave counts as a fold and starts the post-game
// cooldown for the leaver.
func (t *Table) Leave(ctx context.Context, userID int64) (*domain.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g := t.game

	if !g.HasPlayer(userID) {
		return nil, fmt.Errorf("%w: player %d not in game %d", domain.ErrNotFound, userID, g.GameID)
	}

	switch g.Status {
	case domain.StatusWaiting, domain.StatusStarting:
		for i, p := range g.Players {
			if p == userID {
				g.Players = append(g.Players[:i], g.Players[i+1:]...)
				break
			}
		}
		if err := t.cooldowns.Clear(ctx, g.GameID, userID); err != nil {
			logger.Warn(ctx).Err(err).Int64("user_id", userID).Msg("clear cooldown on leave failed")
		}
		logger.Info(ctx).Int64("game_id", g.GameID).Int64("user_id", userID).Msg("player left before start")
		return g.NewSnapshot(), nil

	case domain.StatusInProgress:
		if g.PlayerStatus[userID] != domain.PlayerActive {
			return nil, domain.InvalidMovef("player %d is not active", userID)
		}
		g.PlayerStatus[userID] = domain.PlayerFolded
		delete(g.Acted, userID)
		if err := t.cooldowns.StartPostGame(ctx, g.GameID, userID); err != nil {
			logger.Warn(ctx).Err(err).Int64("user_id", userID).Msg("post-game cooldown failed")
		}
		logger.Info(ctx).Int64("game_id", g.GameID).Int64("user_id", userID).Msg("player left mid-hand, folded")

		snapshot, err := t.afterFold(ctx, userID)
		if err != nil {
			return nil, err
		}
		return snapshot, nil

	default:
		return nil, domain.IllegalTransitionf("cannot leave a %s game", g.Status)
	}
}

// Initialize deals a new hand: shuffles, deals two hole cards to every
// seated player and posts the blinds. A player still on cooldown blocks
// the start; a failed blind refuses the start and refunds any blind
// already posted.
func (t *Table) Initialize(ctx context.Context) (*domain.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g := t.game

	if g.Status != domain.StatusWaiting {
		return nil, domain.IllegalTransitionf("cannot initialize a %s game", g.Status)
	}
	if len(g.Players) < 2 {
		return nil, domain.InvalidMovef("need at least 2 players, have %d", len(g.Players))
	}

	for _, p := range g.Players {
		active, err := t.cooldowns.IsActive(ctx, g.GameID, p)
		if err != nil {
			return nil, fmt.Errorf("cooldown check for player %d: %w", p, err)
		}
		if active {
			remaining, err := t.cooldowns.Remaining(ctx, g.GameID, p)
			if err != nil {
				return nil, fmt.Errorf("cooldown remaining for player %d: %w", p, err)
			}
			return nil, domain.OnCooldownf("player %d must wait %s", p, remaining.Round(time.Second))
		}
	}

	g.Status = domain.StatusStarting
	g.Round = domain.RoundPreFlop
	g.Pot = 0
	g.Contributed = 0
	g.PaidOut = 0
	g.Community = g.Community[:0]
	g.Deck = domain.NewDeck(t.rnd)
	g.Acted = make(map[int64]bool, len(g.Players))
	for _, p := range g.Players {
		g.Bets[p] = 0
		g.PlayerStatus[p] = domain.PlayerActive
		hole, err := g.Deck.Draw(2)
		if err != nil {
			return nil, t.markCorrupted(ctx, fmt.Sprintf("dealing hole cards: %v", err))
		}
		g.HoleCards[p] = hole
	}

	smallBlind := g.Config.MinBet / 2
	bigBlind := g.Config.MinBet
	sbPlayer := g.Players[0]
	bbPlayer := g.Players[1]

	if _, err := t.ledger.Blind(ctx, sbPlayer, g.GameID, smallBlind, "small"); err != nil {
		t.revertStart()
		return nil, fmt.Errorf("small blind by player %d: %w", sbPlayer, err)
	}
	g.Bets[sbPlayer] = smallBlind
	g.Pot += smallBlind
	g.Contributed += smallBlind

	if _, err := t.ledger.Blind(ctx, bbPlayer, g.GameID, bigBlind, "big"); err != nil {
		if _, rerr := t.ledger.Refund(ctx, sbPlayer, g.GameID, smallBlind, "Big blind failed, game not started"); rerr != nil {
			return nil, t.markCorrupted(ctx, fmt.Sprintf("refunding small blind after failed big blind: %v", rerr))
		}
		g.Pot -= smallBlind
		g.PaidOut += smallBlind
		t.revertStart()
		return nil, fmt.Errorf("big blind by player %d: %w", bbPlayer, err)
	}
	g.Bets[bbPlayer] = bigBlind
	g.Pot += bigBlind
	g.Contributed += bigBlind

	g.Status = domain.StatusInProgress
	now := time.Now()
	g.StartedAt = &now
	g.CurrentPlayer = g.Players[2%len(g.Players)]

	if err := t.checkInvariant(ctx); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Int64("game_id", g.GameID).
		Int("players", len(g.Players)).
		Int64("small_blind", smallBlind).
		Int64("big_blind", bigBlind).
		Int64("first_to_act", g.CurrentPlayer).
		Msg("hand started")
	return g.NewSnapshot(), nil
}

// revertStart undoes the dealing done by a failed Initialize and puts
// the game back in the waiting state with its players seated.
func (t *Table) revertStart() {
	g := t.game
	g.Status = domain.StatusWaiting
	g.Deck = nil
	g.Acted = nil
	g.Pot = 0
	g.Contributed = 0
	g.PaidOut = 0
	for _, p := range g.Players {
		g.Bets[p] = 0
		delete(g.HoleCards, p)
		delete(g.PlayerStatus, p)
	}
}

// SubmitMove validates and applies one betting action for the player
// whose turn it is. On success the turn advances, and the round or the
// whole hand is resolved when the action closes it.
func (t *Table) SubmitMove(ctx context.Context, userID int64, action domain.MoveType, amount int64) (*domain.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g := t.game

	if g.Status == domain.StatusError {
		return nil, fmt.Errorf("%w: game %d", domain.ErrGameCorrupted, g.GameID)
	}
	if g.Status != domain.StatusInProgress {
		return nil, domain.IllegalTransitionf("cannot move in a %s game", g.Status)
	}
	if !g.HasPlayer(userID) {
		return nil, fmt.Errorf("%w: player %d not in game %d", domain.ErrNotFound, userID, g.GameID)
	}
	if g.PlayerStatus[userID] != domain.PlayerActive {
		return nil, domain.InvalidMovef("player %d has folded", userID)
	}
	if g.CurrentPlayer != userID {
		return nil, domain.InvalidMovef("not player %d's turn", userID)
	}
	if !domain.ValidMove(action) {
		return nil, domain.InvalidMovef("unknown action %q", action)
	}

	active, err := t.cooldowns.IsActive(ctx, g.GameID, userID)
	if err != nil {
		return nil, fmt.Errorf("cooldown check: %w", err)
	}
	if active {
		remaining, err := t.cooldowns.Remaining(ctx, g.GameID, userID)
		if err != nil {
			return nil, fmt.Errorf("cooldown remaining: %w", err)
		}
		return nil, domain.OnCooldownf("wait %s before acting again", remaining.Round(time.Second))
	}

	current := g.CurrentBet()
	myBet := g.Bets[userID]
	var debit int64

	switch action {
	case domain.MoveBet:
		if current > 0 {
			return nil, domain.InvalidMovef("a bet of %d is already outstanding, raise or call", current)
		}
		if amount < g.Config.MinBet {
			return nil, domain.InvalidMovef("bet %d below minimum %d", amount, g.Config.MinBet)
		}
		if amount > g.Config.MaxBet {
			return nil, domain.InvalidMovef("bet %d above maximum %d", amount, g.Config.MaxBet)
		}
		debit = amount
	case domain.MoveRaise:
		if current == 0 {
			return nil, domain.InvalidMovef("nothing to raise, bet instead")
		}
		if amount <= current {
			return nil, domain.InvalidMovef("raise to %d must exceed the current bet %d", amount, current)
		}
		if amount > g.Config.MaxBet {
			return nil, domain.InvalidMovef("raise %d above maximum %d", amount, g.Config.MaxBet)
		}
		debit = amount - myBet
	case domain.MoveCall:
		owed := current - myBet
		if owed <= 0 {
			return nil, domain.InvalidMovef("nothing to call, check instead")
		}
		debit = owed
	case domain.MoveCheck:
		if current > myBet {
			return nil, domain.InvalidMovef("cannot check facing a bet of %d, call or fold", current)
		}
	case domain.MoveFold:
	}

	if debit > 0 {
		if _, err := t.ledger.Bet(ctx, userID, g.GameID, debit); err != nil {
			return nil, err
		}
		g.Bets[userID] = myBet + debit
		g.Pot += debit
		g.Contributed += debit
	}
	if action == domain.MoveFold {
		g.PlayerStatus[userID] = domain.PlayerFolded
	}

	g.Acted[userID] = true
	g.LastAction = &domain.LastAction{
		UserID:    userID,
		Action:    action,
		Amount:    debit,
		Timestamp: time.Now(),
	}
	if err := t.cooldowns.StartAction(ctx, g.GameID, userID, string(action)); err != nil {
		logger.Warn(ctx).Err(err).Int64("user_id", userID).Msg("action cooldown failed")
	}

	logger.Info(ctx).
		Int64("game_id", g.GameID).
		Int64("user_id", userID).
		Str("action", string(action)).
		Int64("amount", debit).
		Int64("pot", g.Pot).
		Str("round", g.Round.Name()).
		Msg("move applied")

	if action == domain.MoveFold {
		return t.afterFold(ctx, userID)
	}
	return t.afterMove(ctx, userID)
}

// afterFold resolves the hand if only one player remains, otherwise
// continues the round as a normal move.
func (t *Table) afterFold(ctx context.Context, userID int64) (*domain.Snapshot, error) {
	g := t.game
	remaining := g.ActivePlayers()
	if len(remaining) == 1 {
		return t.resolveUncontested(ctx, remaining[0])
	}
	if g.CurrentPlayer == userID {
		return t.afterMove(ctx, userID)
	}
	// An out-of-turn fold can still close the round when the folder was
	// the only player yet to act.
	if t.roundComplete() {
		snapshot, err := t.advanceRound(ctx)
		if err != nil {
			return nil, err
		}
		if snapshot != nil {
			return snapshot, nil
		}
	}
	if err := t.checkInvariant(ctx); err != nil {
		return nil, err
	}
	return g.NewSnapshot(), nil
}

// afterMove advances the turn, and the round when every active player
// has acted on a level pot.
func (t *Table) afterMove(ctx context.Context, userID int64) (*domain.Snapshot, error) {
	g := t.game

	g.CurrentPlayer = g.NextActive(userID)
	if t.roundComplete() {
		snapshot, err := t.advanceRound(ctx)
		if err != nil {
			return nil, err
		}
		if snapshot != nil {
			return snapshot, nil
		}
	}
	if err := t.checkInvariant(ctx); err != nil {
		return nil, err
	}
	return g.NewSnapshot(), nil
}

// roundComplete reports whether every active player has acted this
// round and all active bets match the current bet.
func (t *Table) roundComplete() bool {
	g := t.game
	current := g.CurrentBet()
	for _, p := range g.Players {
		if g.PlayerStatus[p] != domain.PlayerActive {
			continue
		}
		if !g.Acted[p] || g.Bets[p] != current {
			return false
		}
	}
	return true
}

// advanceRound opens the next street or, past the river, runs the
// showdown. Returns a non-nil snapshot only when the hand ended.
func (t *Table) advanceRound(ctx context.Context) (*domain.Snapshot, error) {
	g := t.game

	g.Round++
	if g.Round >= domain.RoundShowdown {
		return t.resolveShowdown(ctx)
	}

	deal := g.Round.CardsToDeal()
	cards, err := g.Deck.Draw(deal)
	if err != nil {
		return nil, t.markCorrupted(ctx, fmt.Sprintf("dealing %s: %v", g.Round.Name(), err))
	}
	g.Community = append(g.Community, cards...)
	for _, p := range g.Players {
		g.Bets[p] = 0
	}
	g.Acted = make(map[int64]bool, len(g.Players))
	active := g.ActivePlayers()
	g.CurrentPlayer = active[0]

	logger.Info(ctx).
		Int64("game_id", g.GameID).
		Str("round", g.Round.Name()).
		Int("community", len(g.Community)).
		Int64("pot", g.Pot).
		Msg("round advanced")
	return nil, nil
}

// resolveShowdown evaluates the remaining hands, pays the winners and
// completes the game.
func (t *Table) resolveShowdown(ctx context.Context) (*domain.Snapshot, error) {
	g := t.game

	hands := make([]domain.PlayerHand, 0, len(g.Players))
	for _, p := range g.ActivePlayers() {
		hands = append(hands, domain.PlayerHand{UserID: p, Hole: g.HoleCards[p]})
	}
	results, err := domain.EvaluateMany(hands, g.Community)
	if err != nil {
		return nil, t.markCorrupted(ctx, fmt.Sprintf("showdown evaluation: %v", err))
	}

	winners := make([]service.Winner, 0, len(results))
	for _, r := range results {
		winners = append(winners, service.Winner{UserID: r.UserID, HandDesc: r.Value.Description()})
	}
	payouts, err := t.ledger.DistributePot(ctx, g.GameID, g.Pot, winners)
	if err != nil {
		return nil, t.markCorrupted(ctx, fmt.Sprintf("pot distribution: %v", err))
	}

	return t.finish(ctx, payouts, results)
}

// resolveUncontested pays the pot to the last player standing
func (t *Table) resolveUncontested(ctx context.Context, winner int64) (*domain.Snapshot, error) {
	g := t.game

	payouts, err := t.ledger.DistributePot(ctx, g.GameID, g.Pot, []service.Winner{
		{UserID: winner, HandDesc: "all opponents folded"},
	})
	if err != nil {
		return nil, t.markCorrupted(ctx, fmt.Sprintf("uncontested payout: %v", err))
	}
	return t.finish(ctx, payouts, nil)
}

// finish settles payouts into the invariant counters, completes the
// game and starts the post-game cooldowns.
func (t *Table) finish(ctx context.Context, payouts []service.Payout, results []domain.EvaluatedHand) (*domain.Snapshot, error) {
	g := t.game

	var paid int64
	for _, p := range payouts {
		paid += p.Amount
	}
	g.Pot -= paid
	g.PaidOut += paid

	g.Status = domain.StatusCompleted
	g.CurrentPlayer = 0
	now := time.Now()
	g.EndedAt = &now

	for _, p := range g.Players {
		if err := t.cooldowns.StartPostGame(ctx, g.GameID, p); err != nil {
			logger.Warn(ctx).Err(err).Int64("user_id", p).Msg("post-game cooldown failed")
		}
	}

	if g.Pot != 0 {
		return nil, t.markCorrupted(ctx, fmt.Sprintf("pot not emptied by settlement, %d left", g.Pot))
	}
	if err := t.checkInvariant(ctx); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Int64("game_id", g.GameID).
		Int64("paid_out", paid).
		Int("winners", len(payouts)).
		Msg("hand completed")

	snapshot := g.NewSnapshot()
	snapshot.Winners = payouts
	snapshot.HandResults = results
	return snapshot, nil
}

// Cancel aborts a game that has not started dealing, refunding every
// posted bet in seating order and clearing all cooldowns. A hand in
// progress cannot be cancelled; it must play out or be abandoned by
// folds.
func (t *Table) Cancel(ctx context.Context) (*domain.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g := t.game

	switch g.Status {
	case domain.StatusWaiting, domain.StatusStarting:
	default:
		return nil, domain.IllegalTransitionf("cannot cancel a %s game", g.Status)
	}

	bets := make([]service.Payout, 0, len(g.Players))
	for _, p := range g.Players {
		bets = append(bets, service.Payout{UserID: p, Amount: g.Bets[p]})
	}
	refunds, err := t.ledger.RefundAll(ctx, g.GameID, bets, "Game cancelled")
	if err != nil {
		return nil, t.markCorrupted(ctx, fmt.Sprintf("cancellation refunds: %v", err))
	}
	var refunded int64
	for _, r := range refunds {
		refunded += r.Amount
	}
	g.Pot -= refunded
	g.PaidOut += refunded
	for _, p := range g.Players {
		g.Bets[p] = 0
	}

	g.Status = domain.StatusCancelled
	g.CurrentPlayer = 0
	now := time.Now()
	g.EndedAt = &now

	if err := t.cooldowns.ClearAll(ctx, g.GameID); err != nil {
		logger.Warn(ctx).Err(err).Int64("game_id", g.GameID).Msg("clear cooldowns on cancel failed")
	}

	if g.Pot != 0 {
		return nil, t.markCorrupted(ctx, fmt.Sprintf("pot not emptied by cancellation, %d left", g.Pot))
	}
	if err := t.checkInvariant(ctx); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Int64("game_id", g.GameID).
		Int64("refunded", refunded).
		Msg("game cancelled")

	snapshot := g.NewSnapshot()
	snapshot.Refunds = refunds
	return snapshot, nil
}

// checkInvariant verifies the money conservation rule and corrupts the
// game if it fails.
func (t *Table) checkInvariant(ctx context.Context) error {
	g := t.game
	if g.Pot < 0 || g.Pot != g.Contributed-g.PaidOut {
		return t.markCorrupted(ctx, fmt.Sprintf(
			"pot %d, contributed %d, paid out %d", g.Pot, g.Contributed, g.PaidOut))
	}
	return nil
}

// markCorrupted forces the game into the terminal error state
func (t *Table) markCorrupted(ctx context.Context, reason string) error {
	g := t.game
	g.Status = domain.StatusError
	g.CurrentPlayer = 0
	logger.Error(ctx).
		Int64("game_id", g.GameID).
		Str("reason", reason).
		Msg("game corrupted, frozen in error state")
	return fmt.Errorf("%w: %s", domain.ErrGameCorrupted, reason)
}
