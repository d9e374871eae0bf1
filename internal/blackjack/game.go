package blackjack

import (
	"errors"
	"fmt"
)

var ErrRoundFinished = errors.New("blackjack: round already finished")

// Outcome is how a round was decided.
type Outcome string

const (
	OutcomeNone       Outcome = ""
	OutcomePlayerBust Outcome = "player_bust"
	OutcomeDealerBust Outcome = "dealer_bust"
	OutcomePlayerWins Outcome = "player_wins"
	OutcomeDealerWins Outcome = "dealer_wins"
)

// PlayerWon reports whether the outcome favours the player.
func (o Outcome) PlayerWon() bool {
	return o == OutcomeDealerBust || o == OutcomePlayerWins
}

// Game is a single round: one deck, the player's and dealer's hands, and a finished flag.
type Game struct {
	Deck   *Deck
	Player *Hand
	Dealer *Hand

	outcome  Outcome
	finished bool
}

// NewGame deals one dealer card and then two player cards from deck.
func NewGame(deck *Deck) (*Game, error) {
	g := &Game{Deck: deck, Player: &Hand{}, Dealer: &Hand{}}
	for _, h := range []*Hand{g.Dealer, g.Player, g.Player} {
		if _, err := h.Draw(deck); err != nil {
			return nil, fmt.Errorf("deal: %w", err)
		}
	}
	return g, nil
}

func (g *Game) PlayerDraw() (Card, error) { return g.Player.Draw(g.Deck) }

func (g *Game) DealerDraw() (Card, error) { return g.Dealer.Draw(g.Deck) }

// CompareScores decides a round where neither side is bust. Ties go to the dealer.
func (g *Game) CompareScores() Outcome {
	player, _ := g.Player.BestScore()
	dealer, _ := g.Dealer.BestScore()
	if player > dealer {
		g.outcome = OutcomePlayerWins
	} else {
		g.outcome = OutcomeDealerWins
	}
	return g.outcome
}

// SetOutcome records a bust outcome.
func (g *Game) SetOutcome(o Outcome) { g.outcome = o }

func (g *Game) Outcome() Outcome { return g.outcome }

// Finish marks the round decided. It may only happen once.
func (g *Game) Finish() error {
	if g.finished {
		return ErrRoundFinished
	}
	g.finished = true
	return nil
}

func (g *Game) Finished() bool { return g.finished }
