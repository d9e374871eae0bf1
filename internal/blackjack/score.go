package blackjack

// BestScoreAtMost returns the highest total not above limit reachable by counting each
// ace independently as AceLow or AceHigh. ok is false when no assignment fits.
func BestScoreAtMost(cards []Card, limit int) (score int, ok bool) {
	if limit < 0 {
		return 0, false
	}
	if len(cards) == 0 {
		return 0, true
	}

	head, tail := cards[0], cards[1:]
	if head.IsAce() {
		low, lowOK := BestScoreAtMost(tail, limit-AceLow)
		high, highOK := BestScoreAtMost(tail, limit-AceHigh)
		switch {
		case !lowOK && !highOK:
			return 0, false
		case !highOK:
			return AceLow + low, true
		case !lowOK:
			return AceHigh + high, true
		}
		return max(AceLow+low, AceHigh+high), true
	}

	v := CardMinScore(head)
	if v > limit {
		return 0, false
	}
	rest, ok := BestScoreAtMost(tail, limit-v)
	if !ok {
		return 0, false
	}
	return v + rest, true
}

// MinScore sums the minimum value of every card.
func MinScore(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += CardMinScore(c)
	}
	return total
}
