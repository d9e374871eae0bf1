package blackjack

import (
	"errors"
	"fmt"
)

var ErrEmptyDeck = errors.New("blackjack: draw from empty deck")

// Shuffler supplies the random permutation used for a shoe. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Deck is an ordered, consumable sequence of cards. Take removes the head.
type Deck struct {
	cards []Card
}

// NewDeck builds a deck that deals cards in the given order.
func NewDeck(cards ...Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Take removes and returns the head card.
func (d *Deck) Take() (Card, error) {
	if len(d.cards) == 0 {
		return 0, ErrEmptyDeck
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

func (d *Deck) Len() int { return len(d.cards) }

// Shoe returns the ordered cards of `decks` standard decks: each rank appears 4*decks times.
func Shoe(decks int) []Card {
	out := make([]Card, 0, 13*4*decks)
	for i := 0; i < decks*4; i++ {
		for r := Ace; r <= King; r++ {
			out = append(out, r)
		}
	}
	return out
}

// RandomDeck shuffles a shoe of the given size with rng.
func RandomDeck(decks int, rng Shuffler) (*Deck, error) {
	if decks <= 0 {
		return nil, fmt.Errorf("blackjack: shoe needs at least one deck, got %d", decks)
	}
	cards := Shoe(decks)
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &Deck{cards: cards}, nil
}
