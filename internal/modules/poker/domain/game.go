package domain

import (
	"time"

	walletdomain "github.com/Hermela440/game/internal/modules/wallet/domain"
	"github.com/Hermela440/game/pkg/service"
)

// GameStatus is the lifecycle state of one poker hand
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusStarting   GameStatus = "starting"
	StatusInProgress GameStatus = "in_progress"
	StatusCompleted  GameStatus = "completed"
	StatusCancelled  GameStatus = "cancelled"

	// StatusError is terminal: an internal invariant was violated and
	// money accounting can no longer be trusted for this game.
	StatusError GameStatus = "error"
)

// Round is the betting round index
type Round int

const (
	RoundPreFlop Round = iota
	RoundFlop
	RoundTurn
	RoundRiver
	RoundShowdown
)

var roundNames = map[Round]string{
	RoundPreFlop:  "Pre-Flop",
	RoundFlop:     "Flop",
	RoundTurn:     "Turn",
	RoundRiver:    "River",
	RoundShowdown: "Showdown",
}

// Name returns the display name of the round
func (r Round) Name() string {
	return roundNames[r]
}

// CardsToDeal returns how many community cards open the round
func (r Round) CardsToDeal() int {
	switch r {
	case RoundFlop:
		return 3
	case RoundTurn, RoundRiver:
		return 1
	default:
		return 0
	}
}

// MoveType is a betting action
type MoveType string

const (
	MoveBet   MoveType = "bet"
	MoveRaise MoveType = "raise"
	MoveCall  MoveType = "call"
	MoveCheck MoveType = "check"
	MoveFold  MoveType = "fold"
)

// ValidMove reports whether the action name is recognized
func ValidMove(m MoveType) bool {
	switch m {
	case MoveBet, MoveRaise, MoveCall, MoveCheck, MoveFold:
		return true
	}
	return false
}

// PlayerStatus is a participant's standing within the current hand
type PlayerStatus string

const (
	PlayerActive PlayerStatus = "active"
	PlayerFolded PlayerStatus = "folded"
)

// LastAction is a snapshot of the most recent applied move
type LastAction struct {
	UserID    int64     `json:"user_id"`
	Action    MoveType  `json:"action"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// GameConfig is immutable after creation
type GameConfig struct {
	MinBet     int64 `json:"min_bet"`
	MaxBet     int64 `json:"max_bet"`
	MaxPlayers int   `json:"max_players"`
}

// Game is one poker hand instance. Players is the seating order; Bets,
// Status and HoleCards are parallel tables keyed by player id and must
// never be partially updated relative to Players.
//
// Money invariant: Pot == Contributed - PaidOut at every instant.
type Game struct {
	GameID int64
	RoomID int64
	Config GameConfig

	Status        GameStatus
	Players       []int64
	CurrentPlayer int64 // 0 when no player is acting
	Round         Round

	Pot         int64
	Contributed int64
	PaidOut     int64

	Bets         map[int64]int64
	PlayerStatus map[int64]PlayerStatus
	// Acted tracks who has acted in the current betting round. A round
	// closes only when every active player has acted on a level pot.
	Acted      map[int64]bool
	HoleCards  map[int64][]Card
	Community  []Card
	Deck       *Deck
	LastAction *LastAction

	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
}

// NewGame creates a game in the waiting state
func NewGame(roomID int64, cfg GameConfig) *Game {
	return &Game{
		GameID:       walletdomain.NewID(),
		RoomID:       roomID,
		Config:       cfg,
		Status:       StatusWaiting,
		Players:      make([]int64, 0, cfg.MaxPlayers),
		Bets:         make(map[int64]int64),
		PlayerStatus: make(map[int64]PlayerStatus),
		Acted:        make(map[int64]bool),
		HoleCards:    make(map[int64][]Card),
		Community:    make([]Card, 0, 5),
		CreatedAt:    time.Now(),
	}
}

// HasPlayer reports whether the player is seated
func (g *Game) HasPlayer(userID int64) bool {
	for _, p := range g.Players {
		if p == userID {
			return true
		}
	}
	return false
}

// ActivePlayers returns the non-folded players in seating order
func (g *Game) ActivePlayers() []int64 {
	active := make([]int64, 0, len(g.Players))
	for _, p := range g.Players {
		if g.PlayerStatus[p] == PlayerActive {
			active = append(active, p)
		}
	}
	return active
}

// CurrentBet is the highest contribution posted this round
func (g *Game) CurrentBet() int64 {
	var max int64
	for _, amount := range g.Bets {
		if amount > max {
			max = amount
		}
	}
	return max
}

// NextActive returns the next active player after userID in seating
// order, wrapping around. Returns 0 when none remain.
func (g *Game) NextActive(userID int64) int64 {
	n := len(g.Players)
	start := 0
	for i, p := range g.Players {
		if p == userID {
			start = i
			break
		}
	}
	for off := 1; off <= n; off++ {
		candidate := g.Players[(start+off)%n]
		if g.PlayerStatus[candidate] == PlayerActive {
			return candidate
		}
	}
	return 0
}

// Terminal reports whether the game can no longer transition
func (g *Game) Terminal() bool {
	switch g.Status {
	case StatusCompleted, StatusCancelled, StatusError:
		return true
	}
	return false
}

// Snapshot is the state handed back to the transport layer after each
// successful engine call, for broadcast to connected clients.
type Snapshot struct {
	GameID        int64                  `json:"game_id"`
	RoomID        int64                  `json:"room_id"`
	Status        GameStatus             `json:"status"`
	Round         string                 `json:"round"`
	Pot           int64                  `json:"pot"`
	CurrentPlayer int64                  `json:"current_player,omitempty"`
	Players       []int64                `json:"players"`
	Bets          map[int64]int64        `json:"bets"`
	PlayerStatus  map[int64]PlayerStatus `json:"player_status"`
	Community     []Card                 `json:"community_cards"`
	LastAction    *LastAction            `json:"last_action,omitempty"`
	Winners       []service.Payout       `json:"winners,omitempty"`
	HandResults   []EvaluatedHand        `json:"hand_results,omitempty"`
	Refunds       []service.Payout       `json:"refunds,omitempty"`
}

// NewSnapshot copies the broadcastable state of the game. Hole cards and
// the deck never appear in a snapshot.
func (g *Game) NewSnapshot() *Snapshot {
	bets := make(map[int64]int64, len(g.Bets))
	for k, v := range g.Bets {
		bets[k] = v
	}
	status := make(map[int64]PlayerStatus, len(g.PlayerStatus))
	for k, v := range g.PlayerStatus {
		status[k] = v
	}
	players := make([]int64, len(g.Players))
	copy(players, g.Players)
	community := make([]Card, len(g.Community))
	copy(community, g.Community)

	return &Snapshot{
		GameID:        g.GameID,
		RoomID:        g.RoomID,
		Status:        g.Status,
		Round:         g.Round.Name(),
		Pot:           g.Pot,
		CurrentPlayer: g.CurrentPlayer,
		Players:       players,
		Bets:          bets,
		PlayerStatus:  status,
		Community:     community,
		LastAction:    g.LastAction,
	}
}
