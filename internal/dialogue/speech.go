package dialogue

import (
	"fmt"
	"strings"

	"yuzu/dealer/internal/blackjack"
	"yuzu/dealer/internal/intent"
)

type cardName struct{ one, many string }

var cardNames = map[blackjack.Card]cardName{
	1:  {"an ace", "aces"},
	2:  {"a two", "twos"},
	3:  {"a three", "threes"},
	4:  {"a four", "fours"},
	5:  {"a five", "fives"},
	6:  {"a six", "sixes"},
	7:  {"a seven", "sevens"},
	8:  {"an eight", "eights"},
	9:  {"a nine", "nines"},
	10: {"a ten", "tens"},
	11: {"a jack", "jacks"},
	12: {"a queen", "queens"},
	13: {"a king", "kings"},
}

func pronounceOne(c blackjack.Card) string {
	if n, ok := cardNames[c]; ok {
		return n.one
	}
	return "an unknown card"
}

// pronounceTwo says "two tens" for a pair, "a ten and an ace" otherwise.
func pronounceTwo(a, b blackjack.Card) string {
	if a == b {
		return "two " + cardNames[a].many
	}
	return pronounceOne(a) + " and " + pronounceOne(b)
}

// pronounceAll lists any number of cards: "a two, a five and a king".
func pronounceAll(cards []blackjack.Card) string {
	switch len(cards) {
	case 0:
		return "no cards"
	case 1:
		return pronounceOne(cards[0])
	case 2:
		return pronounceTwo(cards[0], cards[1])
	}
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = pronounceOne(c)
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

// tense picks the present form during play and the past form once the round is finished.
func tense(g *blackjack.Game, present, past string) string {
	if g != nil && g.Finished() {
		return past
	}
	return present
}

const (
	sayWelcome       = "Welcome to the blackjack table! Do you know the rules?"
	sayWelcomeBack   = "Welcome back! Do you want me to skip the rules?"
	sayRulesReprompt = "Sorry, I didn't catch that. Do you know the rules? Please say yes or no."
	sayPlayReprompt  = "Sorry, I didn't understand. Say hit to take a card, or stand to stop."
	sayPlayHelp      = "It's your turn. You can say hit to take another card, or stand to keep your hand. You can also ask for your score, your cards, or my advice."
	sayNotHeard      = "I didn't hear you."
	sayAskPlayAgain  = "Do you want to play again?"
	sayAgainReprompt = "Sorry, I didn't catch that. Do you want to play again? Please say yes or no."
	sayGoodbye       = "Thanks for playing!"
	sayRoundAborted  = "Sorry, something went wrong with the cards. Let's start over."
	sayNoCardsYet    = "We haven't dealt any cards yet."
	sayRules         = "Here is how it works. We both get cards, and the goal is to get closer to 21 than me without going over. " +
		"Number cards count their value, jacks, queens and kings count ten, and an ace counts one or eleven, whichever helps you more. " +
		"On your turn, say hit to take another card, or stand to stop. If you go over 21 you are bust and lose. " +
		"Then I play: I keep drawing until I have at least 17. If I go bust, you win, otherwise the higher score wins, and I win a tie. " +
		"I will tell you your score as we go. Let's play!"
)

var explanations = map[intent.Intent]string{
	intent.ExplainBust:   "You are bust when your cards add up to more than 21, even with every ace counted as one. A bust hand loses right away.",
	intent.ExplainSoft:   "A soft hand has an ace counted as eleven. It can't go bust on the next card, because the ace can drop back to one.",
	intent.ExplainAce:    "An ace counts as one or eleven, whichever is better for the hand. Jacks, queens and kings count ten.",
	intent.ExplainDealer: "I have to keep drawing cards until my score is 17 or more, then I must stop.",
	intent.ExplainGoal:   "The goal is to get closer to 21 than me without going over. If we tie, I win.",
}

func sayDeal(g *blackjack.Game, explaining bool) string {
	p := g.Player.Cards()
	s := fmt.Sprintf("I have %s, you have %s.", pronounceOne(g.Dealer.First()), pronounceTwo(p[0], p[1]))
	if explaining {
		s += " " + playerScoreNote(g.Player)
	}
	return s
}

func sayPlayerDrew(g *blackjack.Game, explaining bool) string {
	s := fmt.Sprintf("You drew %s.", pronounceOne(g.Player.Last()))
	if explaining && !g.Player.Bust() {
		s += " " + playerScoreNote(g.Player)
	}
	return s
}

func playerScoreNote(h *blackjack.Hand) string {
	score := h.Score()
	if h.Soft() {
		return fmt.Sprintf("That's a soft %d: your ace counts as eleven, or one if you need it.", score)
	}
	if score == blackjack.Limit {
		return "That's 21!"
	}
	return fmt.Sprintf("That gives you %d.", score)
}

func sayDealerIntro(g *blackjack.Game) string {
	return fmt.Sprintf("My turn. I had %s.", pronounceOne(g.Dealer.First()))
}

func sayDealerDrew(g *blackjack.Game, explaining bool) string {
	s := fmt.Sprintf("I draw %s.", pronounceOne(g.Dealer.Last()))
	if !explaining || g.Dealer.Bust() {
		return s
	}
	score := g.Dealer.Score()
	if score < blackjack.DealerStandsOn {
		return s + fmt.Sprintf(" That gives me %d, so I have to draw again.", score)
	}
	return s + fmt.Sprintf(" That gives me %d, so I stop here.", score)
}

func sayPlayerBust(g *blackjack.Game) string {
	return fmt.Sprintf("Your score is %d, you are bust.", g.Player.MinScore())
}

func sayDealerBust(g *blackjack.Game) string {
	return fmt.Sprintf("My score is %d, I am bust. You win!", g.Dealer.MinScore())
}

func sayCompareScores(g *blackjack.Game, o blackjack.Outcome) string {
	player, _ := g.Player.BestScore()
	dealer, _ := g.Dealer.BestScore()
	winner := "I win!"
	if o.PlayerWon() {
		winner = "You win!"
	}
	return fmt.Sprintf("Your score is %d, my score is %d. %s", player, dealer, winner)
}

func sayScore(g *blackjack.Game) string {
	if g == nil {
		return sayNoCardsYet
	}
	s := fmt.Sprintf("Your score %s %d", tense(g, "is", "was"), g.Player.Score())
	if g.Player.Bust() {
		s += ", which " + tense(g, "is", "was") + " bust"
	}
	return s + fmt.Sprintf(", and mine %s %d.", tense(g, "is", "was"), g.Dealer.Score())
}

func sayCards(g *blackjack.Game) string {
	if g == nil {
		return sayNoCardsYet
	}
	return fmt.Sprintf("You %s %s, and I %s %s.",
		tense(g, "have", "had"), pronounceAll(g.Player.Cards()),
		tense(g, "have", "had"), pronounceAll(g.Dealer.Cards()))
}

func sayStrategy(g *blackjack.Game, explaining bool) string {
	if g == nil {
		return sayNoCardsYet
	}
	action := blackjack.Advise(g.Player, g.Dealer.First())
	s := fmt.Sprintf("I would %s.", action)
	if !explaining {
		return s
	}
	score := g.Player.Score()
	switch {
	case g.Player.Soft():
		s += fmt.Sprintf(" You have a soft %d, so another card can't bust you.", score)
	case score <= 11:
		s += fmt.Sprintf(" With %d, no single card can bust you.", score)
	case score >= blackjack.DealerStandsOn:
		s += fmt.Sprintf(" %d is a strong hand.", score)
	case action == blackjack.Stand:
		s += fmt.Sprintf(" I'm showing %s, so I'm likely to bust.", pronounceOne(g.Dealer.First()))
	default:
		s += fmt.Sprintf(" I'm showing %s, so %d probably won't be enough.", pronounceOne(g.Dealer.First()), score)
	}
	return s
}
