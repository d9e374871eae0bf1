package dialogue

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"yuzu/dealer/internal/blackjack"
	"yuzu/dealer/internal/intent"
)

// Options configures a Machine.
type Options struct {
	Router *intent.Router
	// NewDeck supplies a fresh shoe for every deal.
	NewDeck func() (*blackjack.Deck, error)
	// Listen is the template for every Listen effect.
	Listen Listen
}

// Machine is the dialogue protocol for one session. It is not safe for concurrent use:
// the driver delivers one event at a time and runs each to completion.
type Machine struct {
	opts Options

	state   State
	history State // last listening leaf visited in the Game region
	answer  string

	game       *blackjack.Game
	explaining bool
	visits     int
	rounds     int

	out []Effect
}

func New(opts Options) *Machine {
	if opts.Router == nil {
		opts.Router = intent.NewRouter(0)
	}
	if opts.NewDeck == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		opts.NewDeck = func() (*blackjack.Deck, error) { return blackjack.RandomDeck(1, rng) }
	}
	return &Machine{opts: opts}
}

// Start enters Prepare and returns its effects. Call it once before Send.
func (m *Machine) Start() []Effect {
	m.out = nil
	_ = m.goTo(Prepare)
	return m.flush()
}

// Send delivers one event and returns the effects it produced, in order.
// The only error is an invariant violation; the round is aborted and the machine is
// back in WaitToStart when it is returned.
func (m *Machine) Send(ev Event) ([]Effect, error) {
	m.out = nil
	if err := m.dispatch(ev); err != nil {
		at := m.state.Path()
		m.abort()
		return m.flush(), fmt.Errorf("dialogue: round aborted in %s: %w", at, err)
	}
	return m.flush(), nil
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Explaining() bool { return m.explaining }

// Game returns the current round, or nil before the first deal.
func (m *Machine) Game() *blackjack.Game { return m.game }

func (m *Machine) dispatch(ev Event) error {
	if ev.Type == EventRecognised {
		allowed, ok := allowedIntents(m.state)
		if !ok {
			log.Printf("[dm] recognition dropped in %s", m.state.Path())
			return nil
		}
		in := m.opts.Router.Classify(ev.Recognition, allowed)
		metricIntents.WithLabelValues(string(in)).Inc()
		return m.onIntent(in)
	}

	handled, err := m.onLeaf(ev.Type)
	if handled || err != nil {
		return err
	}
	if m.state.In(Game) {
		return m.onGame(ev.Type)
	}
	return nil
}

// onLeaf handles an event in the active leaf. handled is false when the leaf has no
// transition for it and the enclosing region should try.
func (m *Machine) onLeaf(t EventType) (handled bool, err error) {
	switch m.state {
	case Prepare:
		if t == EventReady {
			return true, m.goTo(WaitToStart)
		}
	case WaitToStart:
		if t == EventClick {
			return true, m.goTo(Intro)
		}
	case PlayerPlaying:
		if t == EventNoInput {
			metricReprompts.WithLabelValues("no_input").Inc()
			return true, m.goTo(ExplainPlayingInput)
		}
	}
	if t != EventSpeakComplete {
		return false, nil
	}
	next, ok := m.afterSpeech()
	if !ok {
		return false, nil
	}
	return true, m.goTo(next)
}

// afterSpeech picks the successor of a speaking leaf once its utterance is complete.
// Guards are evaluated in declaration order.
func (m *Machine) afterSpeech() (State, bool) {
	switch m.state {
	case Intro, RulesNotUnderstood:
		return RulesListen, true
	case Rules:
		return Deal, true
	case Deal, ExplainPlayingInput, PlayerNotUnderstood:
		return PlayerPlaying, true
	case PlayerHit:
		if m.game.Player.Bust() {
			return PlayerBust, true
		}
		return PlayerPlaying, true
	case DealerPlayingIntro:
		return DealerPlaying, true
	case DealerPlaying:
		if m.game.Dealer.Bust() {
			return DealerBust, true
		}
		if best, ok := m.game.Dealer.BestScore(); ok && best >= blackjack.DealerStandsOn {
			return CompareScores, true
		}
		return DealerPlaying, true
	case PlayerBust, DealerBust, CompareScores:
		return FinishGame, true
	case AskPlayAgainAsk, AskPlayAgainNotUnderstood:
		return AskPlayAgainListen, true
	case DealerSpeaking, NotHeard:
		return m.resume(), true
	}
	return None, false
}

// onGame handles events at the Game region level.
func (m *Machine) onGame(t EventType) error {
	if t == EventNoInput && m.state.Listening() {
		metricReprompts.WithLabelValues("no_input").Inc()
		return m.goTo(NotHeard)
	}
	return nil
}

func (m *Machine) onIntent(in intent.Intent) error {
	switch m.state {
	case RulesListen:
		switch in {
		case intent.Yes:
			return m.goTo(Deal)
		case intent.No:
			return m.goTo(Rules)
		case intent.NotRecognized:
			return m.reprompt(RulesNotUnderstood)
		}
	case PlayerPlaying:
		switch in {
		case intent.Hit:
			return m.goTo(PlayerHit)
		case intent.Stand:
			return m.goTo(DealerPlayingIntro)
		case intent.NotRecognized:
			return m.reprompt(PlayerNotUnderstood)
		}
	case AskPlayAgainListen:
		switch in {
		case intent.Yes:
			return m.goTo(Deal)
		case intent.No:
			return m.goTo(Done)
		case intent.NotRecognized:
			return m.reprompt(AskPlayAgainNotUnderstood)
		}
	}

	// Same-level events on the Game region: answer, then resume.
	switch {
	case in == intent.Strategy:
		return m.answerWith(sayStrategy(m.game, m.explaining))
	case in == intent.Score:
		return m.answerWith(sayScore(m.game))
	case in == intent.Cards:
		return m.answerWith(sayCards(m.game))
	case intent.IsCommon(in):
		return m.answerWith(explanations[in])
	}
	return nil
}

func (m *Machine) reprompt(s State) error {
	metricReprompts.WithLabelValues("not_recognized").Inc()
	return m.goTo(s)
}

func (m *Machine) answerWith(text string) error {
	m.answer = text
	return m.goTo(DealerSpeaking)
}

// resume is the history target of the Game region.
func (m *Machine) resume() State {
	if m.history == None {
		return Intro
	}
	return m.history
}

func (m *Machine) goTo(s State) error {
	metricStateTransitions.WithLabelValues(m.state.Path(), s.Path()).Inc()
	m.state = s
	if s.In(Game) && s.Listening() {
		m.history = s
	}
	return m.enter(s)
}

// enter runs the entry actions of s. Transient states continue to their successor.
func (m *Machine) enter(s State) error {
	switch s {
	case Prepare:
		m.emit(PrepareSpeech{})

	case Intro:
		m.visits++
		if m.visits > 1 {
			m.say(sayWelcomeBack)
		} else {
			m.say(sayWelcome)
		}

	case RulesListen, PlayerPlaying, AskPlayAgainListen:
		m.emit(m.opts.Listen)

	case RulesNotUnderstood:
		m.say(sayRulesReprompt)

	case Rules:
		m.explaining = true
		m.say(sayRules)

	case Deal:
		deck, err := m.opts.NewDeck()
		if err != nil {
			return err
		}
		g, err := blackjack.NewGame(deck)
		if err != nil {
			return err
		}
		m.game = g
		m.rounds++
		m.say(sayDeal(g, m.explaining))

	case PlayerNotUnderstood:
		m.say(sayPlayReprompt)

	case ExplainPlayingInput:
		m.say(sayPlayHelp)

	case PlayerHit:
		if _, err := m.game.PlayerDraw(); err != nil {
			return err
		}
		m.say(sayPlayerDrew(m.game, m.explaining))

	case DealerSpeaking:
		m.say(m.answer)

	case NotHeard:
		m.say(sayNotHeard)

	case DealerPlayingIntro:
		m.say(sayDealerIntro(m.game))

	case DealerPlaying:
		if _, err := m.game.DealerDraw(); err != nil {
			return err
		}
		m.say(sayDealerDrew(m.game, m.explaining))

	case PlayerBust:
		m.game.SetOutcome(blackjack.OutcomePlayerBust)
		m.say(sayPlayerBust(m.game))

	case DealerBust:
		m.game.SetOutcome(blackjack.OutcomeDealerBust)
		m.say(sayDealerBust(m.game))

	case CompareScores:
		m.say(sayCompareScores(m.game, m.game.CompareScores()))

	case FinishGame:
		if err := m.game.Finish(); err != nil {
			return err
		}
		metricRounds.WithLabelValues(string(m.game.Outcome())).Inc()
		log.Printf("[dm] round %d finished outcome=%s player=%v dealer=%v",
			m.rounds, m.game.Outcome(), m.game.Player.Cards(), m.game.Dealer.Cards())
		return m.goTo(AskPlayAgainAsk)

	case AskPlayAgainAsk:
		m.say(sayAskPlayAgain)

	case AskPlayAgainNotUnderstood:
		m.say(sayAgainReprompt)

	case Done:
		m.history = None
		m.say(sayGoodbye)
		return m.goTo(WaitToStart)
	}
	return nil
}

// abort discards the round after an invariant violation and waits for a new start.
func (m *Machine) abort() {
	metricRoundsAborted.Inc()
	m.game = nil
	m.history = None
	m.out = nil
	metricStateTransitions.WithLabelValues(m.state.Path(), WaitToStart.Path()).Inc()
	m.state = WaitToStart
	m.say(sayRoundAborted)
}

func (m *Machine) say(text string) { m.emit(Speak{Text: text}) }

func (m *Machine) emit(e Effect) { m.out = append(m.out, e) }

func (m *Machine) flush() []Effect {
	out := m.out
	m.out = nil
	return out
}
