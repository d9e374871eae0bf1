package intent

import "strings"

// Recognition is what the speech input collaborator reports for one listen request.
// Intent is the recognizer's top label when intent classification is on; otherwise only
// Utterance is filled.
type Recognition struct {
	Utterance  string  `json:"utterance"`
	Intent     string  `json:"intent,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Router maps recognitions to intents, filtered by the set valid in the current phase.
type Router struct {
	phrases       map[string]Intent
	minConfidence float64
}

// NewRouter builds a router. Labels scored below minConfidence are not trusted.
func NewRouter(minConfidence float64) *Router {
	r := &Router{phrases: make(map[string]Intent), minConfidence: minConfidence}
	for in, list := range defaultPhrases {
		for _, p := range list {
			r.phrases[normalize(p)] = in
		}
	}
	return r
}

// Classify returns the intent for rec if it is in allowed, else NotRecognized.
func (r *Router) Classify(rec Recognition, allowed Set) Intent {
	in := r.lookup(rec)
	if in == NotRecognized || !allowed.Has(in) {
		return NotRecognized
	}
	return in
}

func (r *Router) lookup(rec Recognition) Intent {
	if rec.Intent != "" {
		if rec.Confidence > 0 && rec.Confidence < r.minConfidence {
			return NotRecognized
		}
		if in, ok := Parse(rec.Intent); ok {
			return in
		}
	}
	if in, ok := r.phrases[normalize(rec.Utterance)]; ok {
		return in
	}
	return NotRecognized
}

// normalize lower-cases, drops punctuation and collapses whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', ';', ':', '"':
			return -1
		case '’':
			return '\''
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

var defaultPhrases = map[Intent][]string{
	Hit:      {"hit", "hit me", "another card", "another", "card", "one more", "one more card", "draw"},
	Stand:    {"stand", "stay", "hold", "i'll stand", "i stand", "no more", "that's enough", "enough"},
	Strategy: {"strategy", "what should i do", "help me", "advice", "give me advice", "what would you do"},
	Yes:      {"yes", "yeah", "yep", "sure", "of course", "ok", "okay", "yes please", "i do"},
	No:       {"no", "nope", "no thanks", "no thank you", "not really", "i don't"},

	Score:         {"score", "my score", "what's my score", "what is my score", "what's the score", "points"},
	Cards:         {"cards", "my cards", "what are my cards", "what cards do i have", "what do i have"},
	ExplainBust:   {"bust", "what is bust", "what's bust", "what does bust mean"},
	ExplainSoft:   {"soft hand", "what is a soft hand", "what's a soft hand", "soft"},
	ExplainAce:    {"ace", "what is an ace worth", "how much is an ace", "aces"},
	ExplainDealer: {"dealer", "when do you stop", "what are the dealer rules", "dealer rules"},
	ExplainGoal:   {"rules", "what are the rules", "how do i win", "goal", "what is the goal"},
}
