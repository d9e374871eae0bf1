package blackjack

// Action is a player move.
type Action string

const (
	Hit   Action = "hit"
	Stand Action = "stand"
)

// Advise gives a simplified basic-strategy move for the player's hand against the
// dealer's showing card.
func Advise(player *Hand, dealerUp Card) Action {
	score, ok := player.BestScore()
	if !ok {
		return Stand
	}
	if player.Soft() {
		if score <= 17 {
			return Hit
		}
		return Stand
	}
	switch {
	case score <= 11:
		return Hit
	case score >= 17:
		return Stand
	}
	up := CardMinScore(dealerUp)
	if !dealerUp.IsAce() && up >= 2 && up <= 6 {
		return Stand
	}
	return Hit
}
