package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cards(specs ...Card) []Card {
	return specs
}

func c(r Rank, s Suit) Card {
	return Card{Suit: s, Rank: r}
}

func evaluate(t *testing.T, cc []Card) HandValue {
	t.Helper()
	v, err := Evaluate(cc)
	require.NoError(t, err)
	return v
}

func TestEvaluateClassDetection(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		rank  HandRank
	}{
		{
			name:  "royal flush",
			cards: cards(c(Ace, SuitSpades), c(King, SuitSpades), c(Queen, SuitSpades), c(Jack, SuitSpades), c(Ten, SuitSpades)),
			rank:  RoyalFlush,
		},
		{
			name:  "straight flush",
			cards: cards(c(Nine, SuitHearts), c(Eight, SuitHearts), c(Seven, SuitHearts), c(Six, SuitHearts), c(Five, SuitHearts)),
			rank:  StraightFlush,
		},
		{
			name:  "four of a kind",
			cards: cards(c(Nine, SuitHearts), c(Nine, SuitSpades), c(Nine, SuitDiamonds), c(Nine, SuitClubs), c(Two, SuitHearts)),
			rank:  FourOfAKind,
		},
		{
			name:  "full house",
			cards: cards(c(Ten, SuitHearts), c(Ten, SuitSpades), c(Ten, SuitDiamonds), c(Four, SuitClubs), c(Four, SuitHearts)),
			rank:  FullHouse,
		},
		{
			name:  "flush",
			cards: cards(c(Ace, SuitClubs), c(Jack, SuitClubs), c(Eight, SuitClubs), c(Six, SuitClubs), c(Three, SuitClubs)),
			rank:  Flush,
		},
		{
			name:  "straight",
			cards: cards(c(Ten, SuitHearts), c(Nine, SuitSpades), c(Eight, SuitDiamonds), c(Seven, SuitClubs), c(Six, SuitHearts)),
			rank:  Straight,
		},
		{
			name:  "ace high straight",
			cards: cards(c(Ace, SuitHearts), c(King, SuitSpades), c(Queen, SuitDiamonds), c(Jack, SuitClubs), c(Ten, SuitHearts)),
			rank:  Straight,
		},
		{
			name:  "three of a kind",
			cards: cards(c(Seven, SuitHearts), c(Seven, SuitSpades), c(Seven, SuitDiamonds), c(King, SuitClubs), c(Two, SuitHearts)),
			rank:  ThreeOfAKind,
		},
		{
			name:  "two pair",
			cards: cards(c(Jack, SuitHearts), c(Jack, SuitSpades), c(Four, SuitDiamonds), c(Four, SuitClubs), c(Nine, SuitHearts)),
			rank:  TwoPair,
		},
		{
			name:  "pair",
			cards: cards(c(Queen, SuitHearts), c(Queen, SuitSpades), c(Nine, SuitDiamonds), c(Six, SuitClubs), c(Two, SuitHearts)),
			rank:  Pair,
		},
		{
			name:  "high card",
			cards: cards(c(Ace, SuitHearts), c(Jack, SuitSpades), c(Nine, SuitDiamonds), c(Six, SuitClubs), c(Two, SuitHearts)),
			rank:  HighCard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := evaluate(t, tt.cards)
			assert.Equal(t, tt.rank, v.Rank)
			assert.Equal(t, tt.rank.String(), v.Description())
		})
	}
}

func TestWheelIsNotAStraight(t *testing.T) {
	v := evaluate(t, cards(c(Ace, SuitHearts), c(Five, SuitSpades), c(Four, SuitDiamonds), c(Three, SuitClubs), c(Two, SuitHearts)))
	assert.Equal(t, HighCard, v.Rank)
	assert.Equal(t, Ace, v.Kickers[0])
}

func TestEvaluateArityBounds(t *testing.T) {
	_, err := Evaluate(cards(c(Ace, SuitHearts), c(King, SuitSpades), c(Queen, SuitDiamonds), c(Jack, SuitClubs)))
	assert.Error(t, err)

	deck := NewDeck(rand.New(rand.NewSource(1)))
	eight, err := deck.Draw(8)
	require.NoError(t, err)
	_, err = Evaluate(eight)
	assert.Error(t, err)
}

func TestEvaluatePicksBestOfSeven(t *testing.T) {
	// Flush hides inside seven cards; pair alone would undersell the hand
	seven := cards(
		c(Ace, SuitClubs), c(Jack, SuitClubs), c(Eight, SuitClubs), c(Six, SuitClubs), c(Three, SuitClubs),
		c(Ace, SuitHearts), c(Ace, SuitSpades),
	)
	v := evaluate(t, seven)
	assert.Equal(t, Flush, v.Rank)
}

func TestEvaluateOrderIndependent(t *testing.T) {
	base := cards(
		c(King, SuitHearts), c(King, SuitSpades), c(Nine, SuitDiamonds),
		c(Six, SuitClubs), c(Two, SuitHearts), c(Queen, SuitClubs), c(Four, SuitDiamonds),
	)
	want := evaluate(t, base)

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]Card, len(base))
		copy(shuffled, base)
		rnd.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, 0, want.Compare(evaluate(t, shuffled)))
	}
}

func TestKickersBreakTies(t *testing.T) {
	kings := evaluate(t, cards(c(King, SuitHearts), c(King, SuitSpades), c(Nine, SuitDiamonds), c(Six, SuitClubs), c(Two, SuitHearts)))
	queens := evaluate(t, cards(c(Queen, SuitHearts), c(Queen, SuitSpades), c(Ace, SuitDiamonds), c(Six, SuitClubs), c(Two, SuitHearts)))
	assert.Equal(t, 1, kings.Compare(queens))
	assert.Equal(t, -1, queens.Compare(kings))

	// Same pair, higher kicker wins
	aceKicker := evaluate(t, cards(c(King, SuitHearts), c(King, SuitSpades), c(Ace, SuitDiamonds), c(Six, SuitClubs), c(Two, SuitHearts)))
	assert.Equal(t, 1, aceKicker.Compare(kings))

	// Full house ranks on the triple first
	tensFull := evaluate(t, cards(c(Ten, SuitHearts), c(Ten, SuitSpades), c(Ten, SuitDiamonds), c(Four, SuitClubs), c(Four, SuitHearts)))
	ninesFull := evaluate(t, cards(c(Nine, SuitHearts), c(Nine, SuitSpades), c(Nine, SuitDiamonds), c(Ace, SuitClubs), c(Ace, SuitHearts)))
	assert.Equal(t, 1, tensFull.Compare(ninesFull))
}

func TestCompareTransitive(t *testing.T) {
	low := evaluate(t, cards(c(Ace, SuitHearts), c(Jack, SuitSpades), c(Nine, SuitDiamonds), c(Six, SuitClubs), c(Two, SuitHearts)))
	mid := evaluate(t, cards(c(Queen, SuitHearts), c(Queen, SuitSpades), c(Nine, SuitDiamonds), c(Six, SuitClubs), c(Two, SuitHearts)))
	high := evaluate(t, cards(c(Jack, SuitHearts), c(Jack, SuitSpades), c(Four, SuitDiamonds), c(Four, SuitClubs), c(Nine, SuitHearts)))

	assert.Equal(t, -1, low.Compare(mid))
	assert.Equal(t, -1, mid.Compare(high))
	assert.Equal(t, -1, low.Compare(high))
	assert.Equal(t, 0, low.Compare(low))
}

func TestEvaluateManySingleWinner(t *testing.T) {
	community := cards(c(King, SuitHearts), c(Nine, SuitDiamonds), c(Six, SuitClubs), c(Two, SuitHearts), c(Queen, SuitDiamonds))
	players := []PlayerHand{
		{UserID: 1, Hole: cards(c(King, SuitSpades), c(Three, SuitDiamonds))},
		{UserID: 2, Hole: cards(c(Queen, SuitSpades), c(Three, SuitClubs))},
	}

	winners, err := EvaluateMany(players, community)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, int64(1), winners[0].UserID)
	assert.Equal(t, Pair, winners[0].Value.Rank)
}

func TestEvaluateManySplitPot(t *testing.T) {
	// The board plays for everyone
	community := cards(c(Ace, SuitSpades), c(King, SuitSpades), c(Queen, SuitSpades), c(Jack, SuitSpades), c(Ten, SuitSpades))
	players := []PlayerHand{
		{UserID: 3, Hole: cards(c(Two, SuitHearts), c(Three, SuitHearts))},
		{UserID: 1, Hole: cards(c(Four, SuitDiamonds), c(Five, SuitDiamonds))},
		{UserID: 2, Hole: cards(c(Six, SuitClubs), c(Seven, SuitClubs))},
	}

	winners, err := EvaluateMany(players, community)
	require.NoError(t, err)
	require.Len(t, winners, 3)
	// Supplied order preserved for remainder distribution downstream
	assert.Equal(t, int64(3), winners[0].UserID)
	assert.Equal(t, int64(1), winners[1].UserID)
	assert.Equal(t, int64(2), winners[2].UserID)
	assert.Equal(t, RoyalFlush, winners[0].Value.Rank)
}

func TestEvaluateManyEmpty(t *testing.T) {
	_, err := EvaluateMany(nil, nil)
	assert.Error(t, err)
}

func TestDeckDealsUniqueCards(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(3)))
	assert.Equal(t, 52, deck.Remaining())

	seen := make(map[Card]bool, 52)
	drawn, err := deck.Draw(52)
	require.NoError(t, err)
	for _, card := range drawn {
		assert.False(t, seen[card], "duplicate %s", card)
		seen[card] = true
	}

	_, err = deck.Draw(1)
	assert.Error(t, err)
}
