package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"

	"yuzu/dealer/internal/blackjack"
	"yuzu/dealer/internal/config"
	"yuzu/dealer/internal/dialogue"
	"yuzu/dealer/internal/loop"
	"yuzu/dealer/internal/store"
	"yuzu/dealer/internal/workerws"
)

const sessionID = "console"

// queue is an in-process worker: commands are buffered and played back by main.
type queue struct {
	mu   sync.Mutex
	msgs []workerws.Message
}

func (q *queue) SendJSON(ctx context.Context, sid string, v any) error {
	msg, ok := v.(workerws.Message)
	if !ok {
		return fmt.Errorf("unexpected command %T", v)
	}
	q.mu.Lock()
	q.msgs = append(q.msgs, msg)
	q.mu.Unlock()
	return nil
}

func (q *queue) pop() (workerws.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.msgs) == 0 {
		return workerws.Message{}, false
	}
	m := q.msgs[0]
	q.msgs = q.msgs[1:]
	return m, true
}

func main() {
	debug := flag.Bool("debug", false, "print dispatcher logs")
	decks := flag.Int("decks", 0, "decks in the shoe (overrides BLACKJACK_DECKS)")
	seed := flag.Int64("seed", 0, "shuffle seed (overrides BLACKJACK_SEED)")
	flag.Parse()

	if *debug {
		pterm.EnableDebugMessages()
	} else {
		log.SetOutput(io.Discard)
	}
	_ = godotenv.Load()
	cfg := config.Load()
	if *decks > 0 {
		cfg.Game.Decks = *decks
	}
	if *seed != 0 {
		cfg.Game.Seed = *seed
	}

	q := &queue{}
	st := store.New()
	disp := loop.New(q, st, loop.Options{
		Locale:     cfg.Speech.Locale,
		Voice:      cfg.Speech.Voice,
		NewMachine: loop.MachineFactory(cfg),
	})

	pterm.DefaultHeader.WithFullWidth().Println("Blackjack")
	pterm.Info.Println("Press Enter to sit down. Answer by typing; an empty answer counts as silence. Type quit to leave.")

	ctx := context.Background()
	disp.Open(ctx, sessionID)
	for {
		listen := drain(ctx, disp, q)
		printTable(disp)

		prompt := "Press Enter to play"
		if listen != "" {
			prompt = "You"
		}
		line, err := pterm.DefaultInteractiveTextInput.WithDefaultText(prompt).Show()
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "quit") {
			pterm.Info.Println("Bye.")
			return
		}

		msg := workerws.Message{Type: workerws.TypeClick}
		switch {
		case listen == "":
		case line == "":
			msg = workerws.Message{Type: workerws.TypeNoInput, CommandID: listen}
		default:
			msg = workerws.Message{Type: workerws.TypeRecognised, CommandID: listen, Payload: map[string]any{"utterance": line}}
		}
		deliver(ctx, disp, msg)
	}
}

// drain plays back every queued command and returns the open listen's command ID.
func drain(ctx context.Context, disp *loop.Dispatcher, q *queue) string {
	listen := ""
	for {
		msg, ok := q.pop()
		if !ok {
			return listen
		}
		switch msg.Type {
		case workerws.TypePrepare:
			pterm.Debug.Printfln("speech prepared (%s, %s)", msg.String("locale"), msg.String("voice"))
			deliver(ctx, disp, workerws.Message{Type: workerws.TypeReady})
		case workerws.TypeSpeak:
			pterm.Println(pterm.LightCyan("Dealer: ") + msg.String("text"))
			listen = ""
			deliver(ctx, disp, workerws.Message{Type: workerws.TypeSpeakComplete, UtteranceID: msg.UtteranceID})
		case workerws.TypeListen:
			listen = msg.CommandID
		}
	}
}

func deliver(ctx context.Context, disp *loop.Dispatcher, msg workerws.Message) {
	msg.SessionID = sessionID
	if err := disp.Deliver(ctx, sessionID, msg); err != nil {
		pterm.Warning.Println(err)
	}
}

func printTable(disp *loop.Dispatcher) {
	snap, err := disp.Snapshot(sessionID)
	if err != nil || len(snap.Player) == 0 {
		return
	}
	pterm.DefaultBox.WithTitle(pterm.LightYellow(snap.State)).Println(table(snap))
}

func table(s dialogue.Snapshot) string {
	out := fmt.Sprintf("You:    %s (%d)\nDealer: %s (%d)", cards(s.Player), s.PlayerScore, cards(s.Dealer), s.DealerScore)
	if s.Finished {
		out += "\n" + pterm.LightGreen(s.Outcome)
	}
	return out
}

func cards(ranks []int) string {
	names := make([]string, len(ranks))
	for i, r := range ranks {
		names[i] = blackjack.Card(r).String()
	}
	return strings.Join(names, " ")
}
