package domain

import (
	"time"

	walletdomain "github.com/Hermela440/game/internal/modules/wallet/domain"
)

// Choice is one rock-paper-scissors throw
type Choice string

const (
	ChoiceRock     Choice = "rock"
	ChoicePaper    Choice = "paper"
	ChoiceScissors Choice = "scissors"
)

// ValidChoice reports whether the throw is recognized
func ValidChoice(c Choice) bool {
	switch c {
	case ChoiceRock, ChoicePaper, ChoiceScissors:
		return true
	}
	return false
}

// Beats reports whether c defeats other
func (c Choice) Beats(other Choice) bool {
	switch c {
	case ChoiceRock:
		return other == ChoiceScissors
	case ChoicePaper:
		return other == ChoiceRock
	case ChoiceScissors:
		return other == ChoicePaper
	}
	return false
}

// MatchStatus is the lifecycle state of one match
type MatchStatus string

const (
	StatusWaiting    MatchStatus = "waiting"
	StatusInProgress MatchStatus = "in_progress"
	StatusCompleted  MatchStatus = "completed"
	StatusCancelled  MatchStatus = "cancelled"
)

// Match is one multi-player rock-paper-scissors round. Every player
// antes the same stake on joining; the pot goes to the dominating side.
//
// Money invariant: Pot == Contributed - PaidOut at every instant.
type Match struct {
	MatchID int64
	RoomID  int64
	Stake   int64

	Status  MatchStatus
	Players []int64
	Choices map[int64]Choice

	Pot         int64
	Contributed int64
	PaidOut     int64

	CreatedAt time.Time
	EndedAt   *time.Time
}

// NewMatch creates a match in the waiting state
func NewMatch(roomID, stake int64) *Match {
	return &Match{
		MatchID:   walletdomain.NewID(),
		RoomID:    roomID,
		Stake:     stake,
		Status:    StatusWaiting,
		Players:   make([]int64, 0, 4),
		Choices:   make(map[int64]Choice),
		CreatedAt: time.Now(),
	}
}

// HasPlayer reports whether the player has joined
func (m *Match) HasPlayer(userID int64) bool {
	for _, p := range m.Players {
		if p == userID {
			return true
		}
	}
	return false
}

// AllChosen reports whether every player has thrown
func (m *Match) AllChosen() bool {
	return len(m.Choices) == len(m.Players)
}

// Terminal reports whether the match can no longer transition
func (m *Match) Terminal() bool {
	return m.Status == StatusCompleted || m.Status == StatusCancelled
}

// ResolveWinners applies the multi-player rule: when exactly two
// distinct throws are present the dominating side wins; with one or all
// three throws present nobody dominates and every player ties. Winners
// keep the supplied player order.
func ResolveWinners(players []int64, choices map[int64]Choice) []int64 {
	distinct := make(map[Choice]bool, 3)
	for _, c := range choices {
		distinct[c] = true
	}

	if len(distinct) != 2 {
		winners := make([]int64, len(players))
		copy(winners, players)
		return winners
	}

	var a, b Choice
	for c := range distinct {
		if a == "" {
			a = c
		} else {
			b = c
		}
	}
	winning := a
	if b.Beats(a) {
		winning = b
	}

	winners := make([]int64, 0, len(players))
	for _, p := range players {
		if choices[p] == winning {
			winners = append(winners, p)
		}
	}
	return winners
}

// Snapshot is the broadcastable state of a match. Choices are revealed
// only once the match completes.
type Snapshot struct {
	MatchID int64            `json:"match_id"`
	RoomID  int64            `json:"room_id"`
	Stake   int64            `json:"stake"`
	Status  MatchStatus      `json:"status"`
	Players []int64          `json:"players"`
	Chosen  []int64          `json:"chosen"`
	Pot     int64            `json:"pot"`
	Choices map[int64]Choice `json:"choices,omitempty"`
	Winners []int64          `json:"winners,omitempty"`
}

// NewSnapshot copies the visible state. Chosen lists who has thrown
// without revealing what.
func (m *Match) NewSnapshot() *Snapshot {
	players := make([]int64, len(m.Players))
	copy(players, m.Players)

	chosen := make([]int64, 0, len(m.Choices))
	for _, p := range m.Players {
		if _, ok := m.Choices[p]; ok {
			chosen = append(chosen, p)
		}
	}

	s := &Snapshot{
		MatchID: m.MatchID,
		RoomID:  m.RoomID,
		Stake:   m.Stake,
		Status:  m.Status,
		Players: players,
		Chosen:  chosen,
		Pot:     m.Pot,
	}
	if m.Status == StatusCompleted {
		revealed := make(map[int64]Choice, len(m.Choices))
		for k, v := range m.Choices {
			revealed[k] = v
		}
		s.Choices = revealed
	}
	return s
}
