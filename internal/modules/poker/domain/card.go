package domain

import (
	"fmt"
	"math/rand"
)

// Suit is one of the four card suits
type Suit string

const (
	SuitSpades   Suit = "♠"
	SuitHearts   Suit = "♥"
	SuitDiamonds Suit = "♦"
	SuitClubs    Suit = "♣"
)

// Suits lists all suits in deck order
var Suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Rank is a card rank, 2 through ace-high 14
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String renders the rank in short form (2..10, J, Q, K, A)
func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// Card is a playing card
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// String renders the card as rank+suit, e.g. "A♠"
func (c Card) String() string {
	return c.Rank.String() + string(c.Suit)
}

// Deck is a consumable shuffled deck. Cards are drawn once and never
// re-dealt within a hand.
type Deck struct {
	cards []Card
}

// NewDeck builds a full 52-card deck shuffled by the supplied source
func NewDeck(rnd *rand.Rand) *Deck {
	cards := make([]Card, 0, 52)
	for _, suit := range Suits {
		for r := Two; r <= Ace; r++ {
			cards = append(cards, Card{Suit: suit, Rank: r})
		}
	}
	rnd.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// Draw removes and returns the top n cards
func (d *Deck) Draw(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("deck exhausted: want %d cards, %d left", n, len(d.cards))
	}
	drawn := d.cards[:n]
	d.cards = d.cards[n:]
	return drawn, nil
}

// Remaining reports how many cards are left
func (d *Deck) Remaining() int {
	return len(d.cards)
}
