package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear relevant envs
	for _, k := range []string{"PORT", "GRPC_PORT", "LOG_LEVEL", "SPEECH_LOCALE", "ASR_NOINPUT_TIMEOUT_MS", "BLACKJACK_DECKS", "WORKER_TOKEN_SKEW_SECS"} {
		t.Setenv(k, "")
	}

	c := Load()

	if c.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", c.Server.Port)
	}
	if c.Server.GRPCPort != "9090" {
		t.Fatalf("expected default grpc port 9090, got %q", c.Server.GRPCPort)
	}
	if c.Speech.Locale != "en-US" {
		t.Fatalf("expected default locale en-US, got %q", c.Speech.Locale)
	}
	if c.Speech.NoInputTimeout != 5*time.Second {
		t.Fatalf("expected 5s no-input timeout, got %s", c.Speech.NoInputTimeout)
	}
	if c.Game.Decks != 1 {
		t.Fatalf("expected one deck, got %d", c.Game.Decks)
	}
	if c.Worker.TokenSkewSecs != 30 {
		t.Fatalf("expected skew 30, got %d", c.Worker.TokenSkewSecs)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("BLACKJACK_DECKS", "6")
	t.Setenv("ASR_NOINPUT_TIMEOUT_MS", "2500")
	t.Setenv("SPEECH_INTENT_CLASSIFICATION", "true")
	t.Setenv("PUBLIC_URL", "wss://dealer.example/")

	c := Load()

	if c.Server.Port != "9999" {
		t.Fatalf("expected port from env, got %q", c.Server.Port)
	}
	if c.Game.Decks != 6 {
		t.Fatalf("expected 6 decks, got %d", c.Game.Decks)
	}
	if c.Speech.NoInputTimeout != 2500*time.Millisecond {
		t.Fatalf("unexpected no-input timeout %s", c.Speech.NoInputTimeout)
	}
	if !c.Speech.IntentClassification {
		t.Fatalf("expected intent classification enabled")
	}
	if c.Server.PublicURL != "wss://dealer.example" {
		t.Fatalf("trailing slash should be trimmed, got %q", c.Server.PublicURL)
	}
}
