package domain

import (
	"fmt"
	"sort"
)

// HandRank is the primary strength class of a poker hand
type HandRank int

const (
	HighCard HandRank = iota + 1
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var handRankNames = map[HandRank]string{
	HighCard:      "High Card",
	Pair:          "Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
	RoyalFlush:    "Royal Flush",
}

// String returns the human-readable class name
func (r HandRank) String() string {
	return handRankNames[r]
}

// HandValue is a totally ordered hand strength: the rank class plus the
// kickers that break ties within the class. Two values compare
// lexicographically, class first.
type HandValue struct {
	Rank    HandRank `json:"rank"`
	Kickers []Rank   `json:"kickers"`
}

// Compare returns -1, 0 or 1 ordering v against other
func (v HandValue) Compare(other HandValue) int {
	if v.Rank != other.Rank {
		if v.Rank < other.Rank {
			return -1
		}
		return 1
	}
	for i := 0; i < len(v.Kickers) && i < len(other.Kickers); i++ {
		if v.Kickers[i] != other.Kickers[i] {
			if v.Kickers[i] < other.Kickers[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Description returns the class name, e.g. "Two Pair"
func (v HandValue) Description() string {
	return v.Rank.String()
}

// Evaluate computes the strongest hand value available from 5 to 7 cards.
// Deterministic, order-independent, no side effects.
func Evaluate(cards []Card) (HandValue, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return HandValue{}, fmt.Errorf("evaluate needs 5 to 7 cards, got %d", len(cards))
	}

	best := HandValue{}
	first := true
	n := len(cards)
	// Best five-card hand over every 5-card subset
	for i := 0; i < n-4; i++ {
		for j := i + 1; j < n-3; j++ {
			for k := j + 1; k < n-2; k++ {
				for l := k + 1; l < n-1; l++ {
					for m := l + 1; m < n; m++ {
						v := evaluateFive([5]Card{cards[i], cards[j], cards[k], cards[l], cards[m]})
						if first || v.Compare(best) > 0 {
							best = v
							first = false
						}
					}
				}
			}
		}
	}
	return best, nil
}

// evaluateFive classifies exactly five cards. Straights are ace-high only:
// the wheel (A-2-3-4-5) does not count as a straight here.
func evaluateFive(cards [5]Card) HandValue {
	ranks := make([]Rank, 5)
	for i, c := range cards {
		ranks[i] = c.Rank
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })

	isFlush := true
	for i := 1; i < 5; i++ {
		if cards[i].Suit != cards[0].Suit {
			isFlush = false
			break
		}
	}

	counts := make(map[Rank]int, 5)
	for _, r := range ranks {
		counts[r]++
	}

	isStraight := len(counts) == 5 && ranks[0]-ranks[4] == 4

	if isFlush && isStraight {
		if ranks[0] == Ace {
			return HandValue{Rank: RoyalFlush, Kickers: []Rank{Ace}}
		}
		return HandValue{Rank: StraightFlush, Kickers: []Rank{ranks[0]}}
	}

	// Group ranks by count descending, then rank descending
	type group struct {
		rank  Rank
		count int
	}
	groups := make([]group, 0, len(counts))
	for r, c := range counts {
		groups = append(groups, group{rank: r, count: c})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	kickers := func(limit int) []Rank {
		out := make([]Rank, 0, limit)
		for _, g := range groups {
			out = append(out, g.rank)
			if len(out) == limit {
				break
			}
		}
		return out
	}

	switch {
	case groups[0].count == 4:
		return HandValue{Rank: FourOfAKind, Kickers: kickers(2)}
	case groups[0].count == 3 && groups[1].count == 2:
		return HandValue{Rank: FullHouse, Kickers: kickers(2)}
	case isFlush:
		return HandValue{Rank: Flush, Kickers: ranks}
	case isStraight:
		return HandValue{Rank: Straight, Kickers: []Rank{ranks[0]}}
	case groups[0].count == 3:
		return HandValue{Rank: ThreeOfAKind, Kickers: kickers(3)}
	case groups[0].count == 2 && groups[1].count == 2:
		return HandValue{Rank: TwoPair, Kickers: kickers(3)}
	case groups[0].count == 2:
		return HandValue{Rank: Pair, Kickers: kickers(4)}
	default:
		return HandValue{Rank: HighCard, Kickers: ranks}
	}
}

// PlayerHand pairs a player with their hole cards, in table order
type PlayerHand struct {
	UserID int64
	Hole   []Card
}

// EvaluatedHand is one showdown result
type EvaluatedHand struct {
	UserID int64     `json:"user_id"`
	Value  HandValue `json:"value"`
}

// EvaluateMany evaluates every player's best hand against the shared
// community cards and returns all players whose value ties the maximum,
// preserving the supplied order. Equal values mean a split pot.
func EvaluateMany(players []PlayerHand, community []Card) ([]EvaluatedHand, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("no hands to evaluate")
	}

	evaluated := make([]EvaluatedHand, 0, len(players))
	for _, p := range players {
		all := make([]Card, 0, len(p.Hole)+len(community))
		all = append(all, p.Hole...)
		all = append(all, community...)

		v, err := Evaluate(all)
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", p.UserID, err)
		}
		evaluated = append(evaluated, EvaluatedHand{UserID: p.UserID, Value: v})
	}

	best := evaluated[0].Value
	for _, e := range evaluated[1:] {
		if e.Value.Compare(best) > 0 {
			best = e.Value
		}
	}

	winners := make([]EvaluatedHand, 0, 1)
	for _, e := range evaluated {
		if e.Value.Compare(best) == 0 {
			winners = append(winners, e)
		}
	}
	return winners, nil
}
