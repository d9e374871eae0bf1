package loop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"yuzu/dealer/internal/blackjack"
	"yuzu/dealer/internal/config"
	"yuzu/dealer/internal/dialogue"
	"yuzu/dealer/internal/floor"
	"yuzu/dealer/internal/intent"
	"yuzu/dealer/internal/store"
	"yuzu/dealer/internal/workerws"
)

var ErrUnknownSession = errors.New("unknown session")

// Outbox delivers commands to a session's speech worker.
type Outbox interface {
	SendJSON(ctx context.Context, sessionID string, v any) error
}

type Options struct {
	Locale      string
	Voice       string
	SendTimeout time.Duration
	// NewMachine builds the dialogue for a session.
	NewMachine func() *dialogue.Machine
}

// Dispatcher drives one dialogue machine per session from worker signals and turns
// its effects into worker commands.
type Dispatcher struct {
	out   Outbox
	store *store.Store
	opts  Options

	mu       sync.Mutex
	sessions map[string]*sessState
}

type sessState struct {
	mu  sync.Mutex
	fsm *floor.Manager
	dm  *dialogue.Machine
	seq int64
}

func New(out Outbox, st *store.Store, opts Options) *Dispatcher {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 5 * time.Second
	}
	if opts.NewMachine == nil {
		opts.NewMachine = func() *dialogue.Machine { return dialogue.New(dialogue.Options{}) }
	}
	return &Dispatcher{out: out, store: st, opts: opts, sessions: make(map[string]*sessState)}
}

// MachineFactory builds dialogue machines from configuration. Each machine gets its
// own shuffler; a non-zero seed makes the sequence of shoes reproducible.
func MachineFactory(cfg config.Config) func() *dialogue.Machine {
	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var n atomic.Int64
	router := intent.NewRouter(cfg.Speech.MinConfidence)
	listen := dialogue.Listen{
		IntentClassification: cfg.Speech.IntentClassification,
		NoInputTimeout:       cfg.Speech.NoInputTimeout,
		CompleteTimeout:      cfg.Speech.CompleteTimeout,
	}
	decks := cfg.Game.Decks
	return func() *dialogue.Machine {
		rng := rand.New(rand.NewSource(seed + n.Add(1) - 1))
		return dialogue.New(dialogue.Options{
			Router:  router,
			Listen:  listen,
			NewDeck: func() (*blackjack.Deck, error) { return blackjack.RandomDeck(decks, rng) },
		})
	}
}

// Open starts the dialogue for a session. Opening an open session is a no-op.
func (d *Dispatcher) Open(ctx context.Context, sessionID string) {
	d.mu.Lock()
	s, ok := d.sessions[sessionID]
	if !ok {
		s = &sessState{}
		d.sessions[sessionID] = s
	}
	d.mu.Unlock()
	if ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.restart(ctx, sessionID, s)
}

func (d *Dispatcher) Close(sessionID string) {
	d.mu.Lock()
	delete(d.sessions, sessionID)
	d.mu.Unlock()
}

func (d *Dispatcher) state(sessionID string) *sessState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions[sessionID]
}

// Snapshot reports where a session's dialogue is.
func (d *Dispatcher) Snapshot(sessionID string) (dialogue.Snapshot, error) {
	s := d.state(sessionID)
	if s == nil {
		return dialogue.Snapshot{}, ErrUnknownSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dm.Snapshot(), nil
}

// OnMessage processes a worker message and may send commands to the worker.
func (d *Dispatcher) OnMessage(sessionID string, msg workerws.Message) {
	if err := d.Deliver(context.Background(), sessionID, msg); err != nil {
		log.Printf("[loop] session=%s %s: %v", sessionID, msg.Type, err)
	}
}

// Deliver feeds one worker message to the session's dialogue and runs it to
// completion. Signals the floor does not accept are dropped. An aborted round is
// reported as an error after its effects were sent.
func (d *Dispatcher) Deliver(ctx context.Context, sessionID string, msg workerws.Message) error {
	s := d.state(sessionID)
	if s == nil {
		return ErrUnknownSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ev dialogue.Event
	switch msg.Type {
	case workerws.TypeHello:
		log.Printf("[loop] session=%s worker hello, restarting dialogue", sessionID)
		d.restart(ctx, sessionID, s)
		return nil
	case workerws.TypeReady:
		d.store.SetWorkerReady(sessionID, true)
		ev = dialogue.Ready()
	case workerws.TypeClick:
		ev = dialogue.Click()
	case workerws.TypeSpeakComplete:
		if dec := s.fsm.OnSpeechComplete(msg.UtteranceID); !dec.Accept {
			return d.drop(sessionID, msg, dec.Reason)
		}
		ev = dialogue.SpeakComplete()
	case workerws.TypeRecognised:
		if dec := s.fsm.OnRecognition(msg.CommandID); !dec.Accept {
			return d.drop(sessionID, msg, dec.Reason)
		}
		rec := intent.Recognition{
			Utterance:  msg.String("utterance"),
			Intent:     msg.String("intent"),
			Confidence: msg.Float("confidence"),
		}
		d.store.AppendEvent(sessionID, "player_said", map[string]any{"utterance": rec.Utterance, "intent": rec.Intent})
		ev = dialogue.Recognised(rec)
	case workerws.TypeNoInput:
		if dec := s.fsm.OnRecognition(msg.CommandID); !dec.Accept {
			return d.drop(sessionID, msg, dec.Reason)
		}
		ev = dialogue.NoInput()
	default:
		return d.drop(sessionID, msg, "unknown_type")
	}

	from := s.dm.State()
	effs, err := s.dm.Send(ev)
	if err != nil {
		s.fsm.Reset()
		d.store.AppendEvent(sessionID, "round_aborted", map[string]any{"error": err.Error()})
	}
	if to := s.dm.State(); to != from {
		d.store.AppendEvent(sessionID, "state", map[string]any{"from": from.Path(), "to": to.Path()})
	}
	d.execute(ctx, sessionID, s, effs)
	return err
}

func (d *Dispatcher) drop(sessionID string, msg workerws.Message, reason string) error {
	metricSignalsDropped.WithLabelValues(reason).Inc()
	d.store.AppendEvent(sessionID, "signal_dropped", map[string]any{"type": msg.Type, "reason": reason})
	log.Printf("[loop] session=%s dropped %s: %s", sessionID, msg.Type, reason)
	return nil
}

func (d *Dispatcher) restart(ctx context.Context, sessionID string, s *sessState) {
	s.fsm = floor.New()
	s.dm = d.opts.NewMachine()
	d.store.SetWorkerReady(sessionID, false)
	d.execute(ctx, sessionID, s, s.dm.Start())
}

func (d *Dispatcher) execute(ctx context.Context, sessionID string, s *sessState, effs []dialogue.Effect) {
	for _, e := range effs {
		out := workerws.Message{SessionID: sessionID}
		switch e := e.(type) {
		case dialogue.PrepareSpeech:
			out.Type = workerws.TypePrepare
			out.Payload = map[string]any{"locale": d.opts.Locale, "voice": d.opts.Voice}
		case dialogue.Speak:
			out.Type = workerws.TypeSpeak
			out.UtteranceID = uuid.New().String()
			out.Payload = map[string]any{"text": e.Text}
			s.fsm.OnSpeak(out.UtteranceID)
			d.store.AppendEvent(sessionID, "dealer_said", map[string]any{"text": e.Text, "utterance_id": out.UtteranceID})
		case dialogue.Listen:
			out.Type = workerws.TypeListen
			out.CommandID = uuid.New().String()
			out.Payload = map[string]any{
				"intent_classification": e.IntentClassification,
				"noinput_timeout_ms":    e.NoInputTimeout.Milliseconds(),
				"complete_timeout_ms":   e.CompleteTimeout.Milliseconds(),
			}
			s.fsm.OnListen(out.CommandID)
		default:
			log.Printf("[loop] session=%s unknown effect %T", sessionID, e)
			continue
		}
		s.seq++
		out.Seq = s.seq
		out.TsMs = time.Now().UnixMilli()
		if err := d.send(ctx, sessionID, out); err != nil {
			log.Printf("[loop] session=%s send %s: %v", sessionID, out.Type, err)
			d.store.AppendEvent(sessionID, "command_send_failed", map[string]any{"type": out.Type, "error": err.Error()})
			continue
		}
		metricCommandsSent.WithLabelValues(out.Type).Inc()
	}
}

func (d *Dispatcher) send(ctx context.Context, sessionID string, msg workerws.Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()
	if err := d.out.SendJSON(ctx, sessionID, msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}
