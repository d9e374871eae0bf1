package blackjack

import "strconv"

// Card is a rank from 1 to 13: 1 is an ace, 11/12/13 are jack, queen, king.
// Suits never affect scoring so they are not tracked.
type Card int

const (
	Ace   Card = 1
	Ten   Card = 10
	Jack  Card = 11
	Queen Card = 12
	King  Card = 13
)

// Scoring constants.
const (
	Limit          = 21
	AceLow         = 1
	AceHigh        = 11
	DealerStandsOn = 17
)

func (c Card) IsAce() bool { return c == Ace }

func (c Card) Valid() bool { return c >= Ace && c <= King }

func (c Card) String() string {
	switch c {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	if !c.Valid() {
		return "?"
	}
	return strconv.Itoa(int(c))
}

// CardMinScore is the lowest value a card can contribute: ace 1, face cards 10.
func CardMinScore(c Card) int {
	if c > Ten {
		return 10
	}
	return int(c)
}
