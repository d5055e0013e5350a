package machine

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hermela440/game/internal/modules/cooldown"
	"github.com/Hermela440/game/internal/modules/poker/domain"
	"github.com/Hermela440/game/internal/modules/wallet"
	walletdomain "github.com/Hermela440/game/internal/modules/wallet/domain"
	"github.com/Hermela440/game/internal/modules/wallet/repository/memory"
)

const testMaxBalance = 100_000_000

var testConfig = domain.GameConfig{MinBet: 10, MaxBet: 10000, MaxPlayers: 9}

// zeroCooldowns returns a scheduler whose cooldowns expire immediately,
// so multi-move tests are not paced.
func zeroCooldowns() *cooldown.Scheduler {
	opts := []cooldown.Option{cooldown.WithPostGameCooldown(0)}
	for _, action := range []string{"bet", "raise", "call", "check", "fold"} {
		opts = append(opts, cooldown.WithActionCooldown(action, 0))
	}
	return cooldown.NewScheduler(cooldown.NewMemoryStore(), opts...)
}

type fixture struct {
	table  *Table
	repo   *memory.LedgerRepository
	ledger *wallet.Ledger
}

func newFixture(t *testing.T, seed int64, balances map[int64]int64) *fixture {
	t.Helper()
	repo := memory.NewLedgerRepository(testMaxBalance)
	for userID, balance := range balances {
		repo.CreateAccount(userID, balance)
	}
	ledger := wallet.NewLedger(repo)
	table := NewTable(1, testConfig, ledger, zeroCooldowns(), rand.New(rand.NewSource(seed)))
	return &fixture{table: table, repo: repo, ledger: ledger}
}

func (f *fixture) join(t *testing.T, players ...int64) {
	t.Helper()
	for _, p := range players {
		_, err := f.table.Join(context.Background(), p)
		require.NoError(t, err)
	}
}

func (f *fixture) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func (f *fixture) totalBalances(t *testing.T, players ...int64) int64 {
	t.Helper()
	var sum int64
	for _, p := range players {
		sum += f.balance(t, p)
	}
	return sum
}

func TestJoinValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500, 3: 5, 4: 500})

	_, err := f.table.Join(ctx, 1)
	require.NoError(t, err)

	_, err = f.table.Join(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	// Below the minimum bet
	_, err = f.table.Join(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	// Unknown account
	_, err = f.table.Join(ctx, 99)
	assert.ErrorIs(t, err, walletdomain.ErrNotFound)

	f.join(t, 2)
	_, err = f.table.Initialize(ctx)
	require.NoError(t, err)

	// No seating once the hand is underway
	_, err = f.table.Join(ctx, 4)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestInitializeRequiresTwoPlayers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500})
	f.join(t, 1)

	_, err := f.table.Initialize(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)
}

func TestInitializePostsBlinds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500, 3: 500})
	f.join(t, 1, 2, 3)

	snapshot, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, snapshot.Status)
	assert.Equal(t, int64(15), snapshot.Pot)
	assert.Equal(t, int64(5), snapshot.Bets[1])
	assert.Equal(t, int64(10), snapshot.Bets[2])
	assert.Equal(t, int64(3), snapshot.CurrentPlayer)
	assert.Equal(t, "Pre-Flop", snapshot.Round)
	assert.Empty(t, snapshot.Community)

	assert.Equal(t, int64(495), f.balance(t, 1))
	assert.Equal(t, int64(490), f.balance(t, 2))
	assert.Equal(t, int64(500), f.balance(t, 3))
}

func TestInitializeBlindFailureRefusesStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)

	// Big blind cannot pay: suspend the account after seating
	f.repo.SetStatus(2, walletdomain.AccountStatusSuspended)

	_, err := f.table.Initialize(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, walletdomain.ErrAccountInactive)

	// Small blind refunded, game back to waiting with both seats kept
	assert.Equal(t, int64(500), f.balance(t, 1))
	snapshot := f.table.Snapshot()
	assert.Equal(t, domain.StatusWaiting, snapshot.Status)
	assert.Equal(t, int64(0), snapshot.Pot)
	assert.Len(t, snapshot.Players, 2)

	// Recovered account can start the next attempt
	f.repo.SetStatus(2, walletdomain.AccountStatusActive)
	snapshot, err = f.table.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, snapshot.Status)
}

func TestCallThenCheckAdvancesToFlop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	// Heads-up: small blind acts first pre-flop
	snapshot, err := f.table.SubmitMove(ctx, 1, domain.MoveCall, 0)
	require.NoError(t, err)
	assert.Equal(t, "Pre-Flop", snapshot.Round)
	assert.Equal(t, int64(20), snapshot.Pot)
	assert.Equal(t, int64(2), snapshot.CurrentPlayer)

	// Big blind checks behind, closing the round
	snapshot, err = f.table.SubmitMove(ctx, 2, domain.MoveCheck, 0)
	require.NoError(t, err)
	assert.Equal(t, "Flop", snapshot.Round)
	assert.Len(t, snapshot.Community, 3)
	assert.Equal(t, int64(20), snapshot.Pot)
	assert.Equal(t, int64(0), snapshot.Bets[1])
	assert.Equal(t, int64(0), snapshot.Bets[2])
	assert.Equal(t, int64(1), snapshot.CurrentPlayer)
}

func TestTurnEnforcement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	before := f.table.Snapshot()
	_, err = f.table.SubmitMove(ctx, 2, domain.MoveCheck, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	after := f.table.Snapshot()
	assert.Equal(t, before.Pot, after.Pot)
	assert.Equal(t, before.CurrentPlayer, after.CurrentPlayer)
	assert.Equal(t, before.Bets, after.Bets)
}

func TestMoveValidationRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	// Blinds are outstanding: a fresh bet is not available
	_, err = f.table.SubmitMove(ctx, 1, domain.MoveBet, 50)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	// Cannot check facing the big blind
	_, err = f.table.SubmitMove(ctx, 1, domain.MoveCheck, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	// A raise must exceed the current bet
	_, err = f.table.SubmitMove(ctx, 1, domain.MoveRaise, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	// Raise to 30: small blind already has 5 in, so the debit is 25
	snapshot, err := f.table.SubmitMove(ctx, 1, domain.MoveRaise, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(30), snapshot.Bets[1])
	assert.Equal(t, int64(45), snapshot.Pot)
	assert.Equal(t, int64(470), f.balance(t, 1))

	// Nothing to call once matched
	snapshot, err = f.table.SubmitMove(ctx, 2, domain.MoveCall, 0)
	require.NoError(t, err)
	assert.Equal(t, "Flop", snapshot.Round)

	_, err = f.table.SubmitMove(ctx, 1, domain.MoveCall, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	// Unknown action name
	_, err = f.table.SubmitMove(ctx, 1, domain.MoveType("jump"), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)
}

func TestInsufficientBalanceLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 30, 2: 500})
	f.join(t, 1, 2)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	before := f.table.Snapshot()
	// Player 1 has 25 left after the small blind; raising to 100 needs 95
	_, err = f.table.SubmitMove(ctx, 1, domain.MoveRaise, 100)
	assert.ErrorIs(t, err, walletdomain.ErrInsufficientBalance)

	after := f.table.Snapshot()
	assert.Equal(t, before.Pot, after.Pot)
	assert.Equal(t, before.Bets, after.Bets)
	assert.Equal(t, before.CurrentPlayer, after.CurrentPlayer)
	assert.Equal(t, int64(25), f.balance(t, 1))
}

func TestFoldAwardsUncontestedPot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	snapshot, err := f.table.SubmitMove(ctx, 1, domain.MoveFold, 0)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, snapshot.Status)
	assert.Equal(t, int64(0), snapshot.Pot)
	require.Len(t, snapshot.Winners, 1)
	assert.Equal(t, int64(2), snapshot.Winners[0].UserID)
	assert.Equal(t, int64(15), snapshot.Winners[0].Amount)

	assert.Equal(t, int64(495), f.balance(t, 1))
	assert.Equal(t, int64(505), f.balance(t, 2))
}

func TestFullHandToShowdownConservesChips(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 42, map[int64]int64{1: 500, 2: 500, 3: 500})
	f.join(t, 1, 2, 3)
	initial := f.totalBalances(t, 1, 2, 3)

	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	// Pre-flop: 3 calls, 1 calls, 2 checks
	_, err = f.table.SubmitMove(ctx, 3, domain.MoveCall, 0)
	require.NoError(t, err)
	_, err = f.table.SubmitMove(ctx, 1, domain.MoveCall, 0)
	require.NoError(t, err)
	snapshot, err := f.table.SubmitMove(ctx, 2, domain.MoveCheck, 0)
	require.NoError(t, err)
	require.Equal(t, "Flop", snapshot.Round)
	require.Equal(t, int64(30), snapshot.Pot)

	// Flop, turn, river: everyone checks through
	for _, round := range []string{"Turn", "River", ""} {
		for _, p := range []int64{1, 2, 3} {
			snapshot, err = f.table.SubmitMove(ctx, p, domain.MoveCheck, 0)
			require.NoError(t, err)
		}
		if round != "" {
			require.Equal(t, round, snapshot.Round)
			require.Len(t, snapshot.Community, map[string]int{"Turn": 4, "River": 5}[round])
		}
	}

	assert.Equal(t, domain.StatusCompleted, snapshot.Status)
	assert.Equal(t, int64(0), snapshot.Pot)
	assert.NotEmpty(t, snapshot.Winners)
	assert.NotEmpty(t, snapshot.HandResults)

	var paid int64
	for _, w := range snapshot.Winners {
		paid += w.Amount
	}
	assert.Equal(t, int64(30), paid)
	assert.Equal(t, initial, f.totalBalances(t, 1, 2, 3))
}

func TestCooldownPacesRepeatMoves(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewLedgerRepository(testMaxBalance)
	repo.CreateAccount(1, 500)
	repo.CreateAccount(2, 500)
	ledger := wallet.NewLedger(repo)

	now := time.Now()
	clock := &now
	scheduler := cooldown.NewScheduler(cooldown.NewMemoryStore(),
		cooldown.WithClock(func() time.Time { return *clock }))
	table := NewTable(1, testConfig, ledger, scheduler, rand.New(rand.NewSource(1)))

	_, err := table.Join(ctx, 1)
	require.NoError(t, err)
	_, err = table.Join(ctx, 2)
	require.NoError(t, err)
	_, err = table.Initialize(ctx)
	require.NoError(t, err)

	// Call starts a 30s cooldown for player 1
	_, err = table.SubmitMove(ctx, 1, domain.MoveCall, 0)
	require.NoError(t, err)
	_, err = table.SubmitMove(ctx, 2, domain.MoveCheck, 0)
	require.NoError(t, err)

	// Flop, player 1 first to act but still cooling down
	_, err = table.SubmitMove(ctx, 1, domain.MoveBet, 20)
	assert.ErrorIs(t, err, domain.ErrOnCooldown)

	later := now.Add(31 * time.Second)
	clock = &later
	snapshot, err := table.SubmitMove(ctx, 1, domain.MoveBet, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(40), snapshot.Pot)
}

func TestPostGameCooldownBlocksNextHand(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewLedgerRepository(testMaxBalance)
	repo.CreateAccount(1, 500)
	repo.CreateAccount(2, 500)
	ledger := wallet.NewLedger(repo)

	now := time.Now()
	clock := &now
	scheduler := cooldown.NewScheduler(cooldown.NewMemoryStore(),
		cooldown.WithClock(func() time.Time { return *clock }))
	table := NewTable(1, testConfig, ledger, scheduler, rand.New(rand.NewSource(1)))

	_, err := table.Join(ctx, 1)
	require.NoError(t, err)
	_, err = table.Join(ctx, 2)
	require.NoError(t, err)
	_, err = table.Initialize(ctx)
	require.NoError(t, err)

	snapshot, err := table.SubmitMove(ctx, 1, domain.MoveFold, 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, snapshot.Status)

	// Both participants carry the post-game cooldown
	for _, p := range []int64{1, 2} {
		active, err := scheduler.IsActive(ctx, table.GameID(), p)
		require.NoError(t, err)
		assert.True(t, active, "player %d", p)
	}
}

func TestCancelInProgressRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	// Play the pre-flop round out so the per-round bet table has been
	// zeroed: the full pot lives only in the aggregate at this point.
	_, err = f.table.SubmitMove(ctx, 1, domain.MoveCall, 0)
	require.NoError(t, err)
	snapshot, err := f.table.SubmitMove(ctx, 2, domain.MoveCheck, 0)
	require.NoError(t, err)
	require.Equal(t, "Flop", snapshot.Round)
	require.Equal(t, int64(20), snapshot.Pot)

	_, err = f.table.Cancel(ctx)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	// Rejection leaves the hand untouched and fully playable
	after := f.table.Snapshot()
	assert.Equal(t, domain.StatusInProgress, after.Status)
	assert.Equal(t, int64(20), after.Pot)
	assert.Equal(t, int64(490), f.balance(t, 1))
	assert.Equal(t, int64(490), f.balance(t, 2))

	for after.Status == domain.StatusInProgress {
		after, err = f.table.SubmitMove(ctx, after.CurrentPlayer, domain.MoveCheck, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StatusCompleted, after.Status)
	assert.Equal(t, int64(1000), f.totalBalances(t, 1, 2))
}

func TestCancelWaitingGameIsClean(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)

	snapshot, err := f.table.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, snapshot.Status)
	assert.Equal(t, int64(500), f.balance(t, 1))
	assert.Equal(t, int64(500), f.balance(t, 2))

	// Terminal: no further transitions
	_, err = f.table.Cancel(ctx)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	_, err = f.table.Initialize(ctx)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestLeaveBeforeStartFreesSeat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)

	snapshot, err := f.table.Leave(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, snapshot.Players)

	_, err = f.table.Leave(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLeaveMidHandFoldsPlayer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500, 3: 500})
	f.join(t, 1, 2, 3)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	// Player 3 is first to act and leaves instead
	snapshot, err := f.table.Leave(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, snapshot.Status)
	assert.Equal(t, domain.PlayerFolded, snapshot.PlayerStatus[3])
	assert.Equal(t, int64(1), snapshot.CurrentPlayer)

	// The hand plays on between the remaining two
	_, err = f.table.SubmitMove(ctx, 1, domain.MoveCall, 0)
	require.NoError(t, err)
	snapshot, err = f.table.SubmitMove(ctx, 2, domain.MoveCheck, 0)
	require.NoError(t, err)
	assert.Equal(t, "Flop", snapshot.Round)
}

func TestLeaveOfLastOpponentEndsHand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	snapshot, err := f.table.Leave(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, snapshot.Status)
	require.Len(t, snapshot.Winners, 1)
	assert.Equal(t, int64(1), snapshot.Winners[0].UserID)
	assert.Equal(t, int64(510), f.balance(t, 1))
	assert.Equal(t, int64(490), f.balance(t, 2))
}

func TestBetLimits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 50000, 2: 50000})
	f.join(t, 1, 2)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	_, err = f.table.SubmitMove(ctx, 1, domain.MoveCall, 0)
	require.NoError(t, err)
	_, err = f.table.SubmitMove(ctx, 2, domain.MoveCheck, 0)
	require.NoError(t, err)

	// On the flop with no outstanding bet
	_, err = f.table.SubmitMove(ctx, 1, domain.MoveBet, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	_, err = f.table.SubmitMove(ctx, 1, domain.MoveBet, 10001)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	snapshot, err := f.table.SubmitMove(ctx, 1, domain.MoveBet, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(30), snapshot.Pot)
}

func TestSnapshotHidesHoleCards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, map[int64]int64{1: 500, 2: 500})
	f.join(t, 1, 2)
	_, err := f.table.Initialize(ctx)
	require.NoError(t, err)

	snapshot := f.table.Snapshot()
	out, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hole")
}
