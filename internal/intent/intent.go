package intent

import "strings"

// Intent is a classified label for what the player said.
type Intent string

const (
	Hit      Intent = "HIT"
	Stand    Intent = "STAND"
	Strategy Intent = "STRATEGY"
	Yes      Intent = "YES"
	No       Intent = "NO"

	// Common queries, valid in every listening phase.
	Score         Intent = "SCORE"
	Cards         Intent = "CARDS"
	ExplainBust   Intent = "EXPLAIN_BUST"
	ExplainSoft   Intent = "EXPLAIN_SOFT"
	ExplainAce    Intent = "EXPLAIN_ACE"
	ExplainDealer Intent = "EXPLAIN_DEALER"
	ExplainGoal   Intent = "EXPLAIN_GOAL"

	NotRecognized Intent = "NOT_RECOGNIZED"
)

// Parse maps a recognizer label such as "hit" or "explain_bust" onto an Intent.
func Parse(label string) (Intent, bool) {
	in := Intent(strings.ToUpper(strings.TrimSpace(label)))
	if _, ok := known[in]; ok {
		return in, true
	}
	return NotRecognized, false
}

var known = map[Intent]struct{}{
	Hit: {}, Stand: {}, Strategy: {}, Yes: {}, No: {},
	Score: {}, Cards: {}, ExplainBust: {}, ExplainSoft: {}, ExplainAce: {}, ExplainDealer: {}, ExplainGoal: {},
}

// Set is the group of intents accepted in one conversational phase.
type Set map[Intent]struct{}

func NewSet(in ...Intent) Set {
	s := make(Set, len(in))
	for _, i := range in {
		s[i] = struct{}{}
	}
	return s
}

func (s Set) Has(i Intent) bool {
	_, ok := s[i]
	return ok
}

// With returns a new set holding the members of s and other.
func (s Set) With(other Set) Set {
	out := make(Set, len(s)+len(other))
	for i := range s {
		out[i] = struct{}{}
	}
	for i := range other {
		out[i] = struct{}{}
	}
	return out
}

var (
	Common     = NewSet(Score, Cards, ExplainBust, ExplainSoft, ExplainAce, ExplainDealer, ExplainGoal)
	PlayerTurn = NewSet(Hit, Stand, Strategy).With(Common)
	YesNo      = NewSet(Yes, No).With(Common)
)

// IsCommon reports whether i is a query answered without leaving the current phase.
func IsCommon(i Intent) bool { return Common.Has(i) }
