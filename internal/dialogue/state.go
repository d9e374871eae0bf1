package dialogue

import "yuzu/dealer/internal/intent"

// State is a node of the dialogue state tree. Only leaves are ever active.
type State int

const (
	None State = iota

	Prepare
	WaitToStart
	Game

	// Game region.
	Intro
	RulesListen
	RulesNotUnderstood
	Rules
	Deal
	PlayerPlaying
	PlayerNotUnderstood
	ExplainPlayingInput
	PlayerHit
	DealerSpeaking
	NotHeard
	DealerPlayingIntro
	DealerPlaying
	PlayerBust
	DealerBust
	CompareScores
	FinishGame
	AskPlayAgain
	AskPlayAgainAsk
	AskPlayAgainListen
	AskPlayAgainNotUnderstood
	Done
)

var stateNames = map[State]string{
	None:                      "",
	Prepare:                   "Prepare",
	WaitToStart:               "WaitToStart",
	Game:                      "Game",
	Intro:                     "Intro",
	RulesListen:               "RulesListen",
	RulesNotUnderstood:        "RulesNotUnderstood",
	Rules:                     "Rules",
	Deal:                      "Deal",
	PlayerPlaying:             "PlayerPlaying",
	PlayerNotUnderstood:       "PlayerNotUnderstood",
	ExplainPlayingInput:       "ExplainPlayingInput",
	PlayerHit:                 "PlayerHit",
	DealerSpeaking:            "DealerSpeaking",
	NotHeard:                  "NotHeard",
	DealerPlayingIntro:        "DealerPlayingIntro",
	DealerPlaying:             "DealerPlaying",
	PlayerBust:                "PlayerBust",
	DealerBust:                "DealerBust",
	CompareScores:             "CompareScores",
	FinishGame:                "FinishGame",
	AskPlayAgain:              "AskPlayAgain",
	AskPlayAgainAsk:           "Ask",
	AskPlayAgainListen:        "Listen",
	AskPlayAgainNotUnderstood: "NotUnderstood",
	Done:                      "Done",
}

func (s State) String() string { return stateNames[s] }

// Parent returns the enclosing compound state, or None at the top level.
func (s State) Parent() State {
	switch s {
	case None, Prepare, WaitToStart, Game:
		return None
	case AskPlayAgainAsk, AskPlayAgainListen, AskPlayAgainNotUnderstood:
		return AskPlayAgain
	}
	return Game
}

// In reports whether s is region or nested anywhere below it.
func (s State) In(region State) bool {
	for cur := s; cur != None; cur = cur.Parent() {
		if cur == region {
			return true
		}
	}
	return false
}

// Path is the dotted position in the tree, e.g. "Game.AskPlayAgain.Listen".
func (s State) Path() string {
	if s == None {
		return ""
	}
	if p := s.Parent(); p != None {
		return p.Path() + "." + s.String()
	}
	return s.String()
}

// allowedIntents is the intent set for listening leaves. ok is false for every other state.
func allowedIntents(s State) (intent.Set, bool) {
	switch s {
	case PlayerPlaying:
		return intent.PlayerTurn, true
	case RulesListen, AskPlayAgainListen:
		return intent.YesNo, true
	}
	return nil, false
}

// Listening reports whether the state has an outstanding listen request.
func (s State) Listening() bool {
	_, ok := allowedIntents(s)
	return ok
}
