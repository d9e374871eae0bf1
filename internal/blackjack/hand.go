package blackjack

// Hand holds one side's drawn cards. Cards are only ever appended during a round.
type Hand struct {
	cards []Card
}

// Draw takes the head card from deck and appends it.
func (h *Hand) Draw(deck *Deck) (Card, error) {
	c, err := deck.Take()
	if err != nil {
		return 0, err
	}
	h.cards = append(h.cards, c)
	return c, nil
}

func (h *Hand) Cards() []Card {
	out := make([]Card, len(h.cards))
	copy(out, h.cards)
	return out
}

func (h *Hand) Len() int { return len(h.cards) }

// First returns the first card dealt, the dealer's showing card.
func (h *Hand) First() Card {
	if len(h.cards) == 0 {
		return 0
	}
	return h.cards[0]
}

func (h *Hand) Last() Card {
	if len(h.cards) == 0 {
		return 0
	}
	return h.cards[len(h.cards)-1]
}

func (h *Hand) MinScore() int { return MinScore(h.cards) }

// BestScore is the best total not above 21; ok is false when every ace assignment busts.
func (h *Hand) BestScore() (int, bool) { return BestScoreAtMost(h.cards, Limit) }

// Bust reports whether the minimum score exceeds 21. This is the authoritative bust signal.
func (h *Hand) Bust() bool { return h.MinScore() > Limit }

// Soft reports whether an ace is currently counted high.
func (h *Hand) Soft() bool {
	best, ok := h.BestScore()
	return ok && best != h.MinScore()
}

// Score is the value to announce: the best score, or the minimum once bust.
func (h *Hand) Score() int {
	if best, ok := h.BestScore(); ok {
		return best
	}
	return h.MinScore()
}
