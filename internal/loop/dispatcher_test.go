package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"yuzu/dealer/internal/blackjack"
	"yuzu/dealer/internal/config"
	"yuzu/dealer/internal/dialogue"
	"yuzu/dealer/internal/intent"
	"yuzu/dealer/internal/store"
	"yuzu/dealer/internal/workerws"
)

type fakeOutbox struct {
	mu   sync.Mutex
	sent []workerws.Message
	err  error
}

func (f *fakeOutbox) SendJSON(ctx context.Context, sessionID string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, v.(workerws.Message))
	return nil
}

// take returns and forgets everything sent so far.
func (f *fakeOutbox) take() []workerws.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sent
	f.sent = nil
	return out
}

func newTestDispatcher(cards ...blackjack.Card) (*Dispatcher, *fakeOutbox, *store.Store) {
	out := &fakeOutbox{}
	st := store.New()
	d := New(out, st, Options{
		Locale: "en-US",
		Voice:  "en-US-DavisNeural",
		NewMachine: func() *dialogue.Machine {
			return dialogue.New(dialogue.Options{
				Router:  intent.NewRouter(0.5),
				Listen:  dialogue.Listen{NoInputTimeout: 5 * time.Second},
				NewDeck: func() (*blackjack.Deck, error) { return blackjack.NewDeck(cards...), nil },
			})
		},
	})
	return d, out, st
}

func deliver(t *testing.T, d *Dispatcher, msg workerws.Message) {
	t.Helper()
	if err := d.Deliver(context.Background(), "s1", msg); err != nil {
		t.Fatalf("deliver %s: %v", msg.Type, err)
	}
}

func only(t *testing.T, msgs []workerws.Message, typ string) workerws.Message {
	t.Helper()
	if len(msgs) != 1 || msgs[0].Type != typ {
		t.Fatalf("expected a single %s command, got %+v", typ, msgs)
	}
	return msgs[0]
}

func expectState(t *testing.T, d *Dispatcher, want string) {
	t.Helper()
	snap, err := d.Snapshot("s1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.State != want {
		t.Fatalf("expected %s, got %s", want, snap.State)
	}
}

func TestConversationOverWorkerProtocol(t *testing.T) {
	d, out, st := newTestDispatcher(10, 10, 8)
	d.Open(context.Background(), "s1")

	prep := only(t, out.take(), workerws.TypePrepare)
	if prep.String("locale") != "en-US" || prep.Seq != 1 {
		t.Fatalf("unexpected prepare %+v", prep)
	}

	deliver(t, d, workerws.Message{Type: workerws.TypeReady})
	if !st.GetWorkerState("s1").Ready {
		t.Fatalf("worker should be marked ready")
	}
	deliver(t, d, workerws.Message{Type: workerws.TypeClick})
	welcome := only(t, out.take(), workerws.TypeSpeak)
	if welcome.UtteranceID == "" || welcome.String("text") == "" {
		t.Fatalf("speak needs an utterance id and text: %+v", welcome)
	}

	// A completion for some other utterance is ignored.
	deliver(t, d, workerws.Message{Type: workerws.TypeSpeakComplete, UtteranceID: "bogus"})
	expectState(t, d, "Game.Intro")

	deliver(t, d, workerws.Message{Type: workerws.TypeSpeakComplete, UtteranceID: welcome.UtteranceID})
	listen := only(t, out.take(), workerws.TypeListen)
	if listen.CommandID == "" || listen.Payload["noinput_timeout_ms"] != int64(5000) {
		t.Fatalf("unexpected listen %+v", listen)
	}
	expectState(t, d, "Game.RulesListen")

	deliver(t, d, workerws.Message{Type: workerws.TypeRecognised, CommandID: "stale", Payload: map[string]any{"utterance": "yes"}})
	expectState(t, d, "Game.RulesListen")

	deliver(t, d, workerws.Message{Type: workerws.TypeRecognised, CommandID: listen.CommandID, Payload: map[string]any{"utterance": "yes"}})
	deal := only(t, out.take(), workerws.TypeSpeak)
	if deal.String("text") != "I have a ten, you have a ten and an eight." {
		t.Fatalf("unexpected deal %q", deal.String("text"))
	}
	expectState(t, d, "Game.Deal")

	var dropped, transitions int
	for _, e := range st.ListEvents("s1") {
		switch e.Type {
		case "signal_dropped":
			dropped++
		case "state":
			transitions++
		}
	}
	if dropped != 2 {
		t.Fatalf("expected 2 dropped signals, got %d", dropped)
	}
	if transitions == 0 {
		t.Fatalf("expected state events")
	}
}

func TestRecognitionWithoutListenIsDropped(t *testing.T) {
	d, out, _ := newTestDispatcher()
	d.Open(context.Background(), "s1")
	out.take()
	deliver(t, d, workerws.Message{Type: workerws.TypeNoInput})
	deliver(t, d, workerws.Message{Type: "mystery"})
	if msgs := out.take(); len(msgs) != 0 {
		t.Fatalf("expected nothing sent, got %+v", msgs)
	}
	expectState(t, d, "Prepare")
}

func TestAbortedRoundIsReported(t *testing.T) {
	d, out, st := newTestDispatcher(10, 9)
	ctx := context.Background()
	d.Open(ctx, "s1")
	deliver(t, d, workerws.Message{Type: workerws.TypeReady})
	deliver(t, d, workerws.Message{Type: workerws.TypeClick})
	welcome := only(t, out.take(), workerws.TypeSpeak)
	deliver(t, d, workerws.Message{Type: workerws.TypeSpeakComplete, UtteranceID: welcome.UtteranceID})
	listen := only(t, out.take(), workerws.TypeListen)

	err := d.Deliver(ctx, "s1", workerws.Message{Type: workerws.TypeRecognised, CommandID: listen.CommandID, Payload: map[string]any{"utterance": "yes"}})
	if !errors.Is(err, blackjack.ErrEmptyDeck) {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
	only(t, out.take(), workerws.TypeSpeak)
	expectState(t, d, "WaitToStart")

	found := false
	for _, e := range st.ListEvents("s1") {
		if e.Type == "round_aborted" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a round_aborted event")
	}
}

func TestHelloRestartsDialogue(t *testing.T) {
	d, out, _ := newTestDispatcher()
	ctx := context.Background()
	d.Open(ctx, "s1")
	deliver(t, d, workerws.Message{Type: workerws.TypeReady})
	deliver(t, d, workerws.Message{Type: workerws.TypeClick})
	out.take()

	deliver(t, d, workerws.Message{Type: workerws.TypeHello})
	only(t, out.take(), workerws.TypePrepare)
	expectState(t, d, "Prepare")

	// Opening again keeps the running dialogue.
	d.Open(ctx, "s1")
	if msgs := out.take(); len(msgs) != 0 {
		t.Fatalf("reopen should not send, got %+v", msgs)
	}
}

func TestSendFailureIsRecorded(t *testing.T) {
	d, out, st := newTestDispatcher()
	out.err = workerws.ErrNoWorker
	d.Open(context.Background(), "s1")
	evts := st.ListEvents("s1")
	if len(evts) == 0 || evts[len(evts)-1].Type != "command_send_failed" {
		t.Fatalf("expected command_send_failed, got %+v", evts)
	}
}

func TestUnknownSession(t *testing.T) {
	d, _, _ := newTestDispatcher()
	if err := d.Deliver(context.Background(), "nope", workerws.Message{Type: workerws.TypeClick}); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
	d.Open(context.Background(), "s1")
	d.Close("s1")
	if _, err := d.Snapshot("s1"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("closed session should be unknown, got %v", err)
	}
}

func TestMachineFactorySeeded(t *testing.T) {
	var cfg config.Config
	cfg.Game.Decks = 1
	cfg.Game.Seed = 42
	cfg.Speech.MinConfidence = 0.5
	a := MachineFactory(cfg)()
	b := MachineFactory(cfg)()
	for _, m := range []*dialogue.Machine{a, b} {
		m.Start()
		m.Send(dialogue.Ready())
		m.Send(dialogue.Click())
		m.Send(dialogue.SpeakComplete())
		if _, err := m.Send(dialogue.Recognised(intent.Recognition{Utterance: "yes"})); err != nil {
			t.Fatalf("deal: %v", err)
		}
	}
	if a.Snapshot().Dealer[0] != b.Snapshot().Dealer[0] || a.Game().Player.Len() != 2 {
		t.Fatalf("same seed should deal the same first hand")
	}
	pa, pb := a.Snapshot().Player, b.Snapshot().Player
	if pa[0] != pb[0] || pa[1] != pb[1] {
		t.Fatalf("same seed should deal the same first hand: %v vs %v", pa, pb)
	}
}
