package dialogue

import "yuzu/dealer/internal/blackjack"

// Snapshot is a read-only view of a machine, safe to serialise.
type Snapshot struct {
	State       string `json:"state"`
	Resume      string `json:"resume,omitempty"`
	Listening   bool   `json:"listening"`
	Explaining  bool   `json:"explaining"`
	Rounds      int    `json:"rounds"`
	Player      []int  `json:"player,omitempty"`
	Dealer      []int  `json:"dealer,omitempty"`
	PlayerScore int    `json:"player_score,omitempty"`
	DealerScore int    `json:"dealer_score,omitempty"`
	Finished    bool   `json:"finished"`
	Outcome     string `json:"outcome,omitempty"`
}

func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		State:      m.state.Path(),
		Resume:     m.history.Path(),
		Listening:  m.state.Listening(),
		Explaining: m.explaining,
		Rounds:     m.rounds,
	}
	if g := m.game; g != nil {
		s.Player = ranks(g.Player.Cards())
		s.Dealer = ranks(g.Dealer.Cards())
		s.PlayerScore = g.Player.Score()
		s.DealerScore = g.Dealer.Score()
		s.Finished = g.Finished()
		s.Outcome = string(g.Outcome())
	}
	return s
}

func ranks(cards []blackjack.Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = int(c)
	}
	return out
}
