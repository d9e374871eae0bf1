package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port      string
		GRPCPort  string
		LogLevel  string
		PublicURL string
	}
	Speech struct {
		Locale               string
		Voice                string
		NoInputTimeout       time.Duration
		CompleteTimeout      time.Duration
		IntentClassification bool
		MinConfidence        float64
	}
	Game struct {
		Decks int
		Seed  int64 // 0 seeds from the clock
	}
	Worker struct {
		Cmd           string
		TokenSecret   string
		TokenSkewSecs int
		TokenTTLMin   int
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.public_url", "ws://localhost:8080")

	v.SetDefault("speech.locale", "en-US")
	v.SetDefault("speech.voice", "en-US-DavisNeural")
	v.SetDefault("speech.noinput_timeout_ms", 5000)
	v.SetDefault("speech.complete_timeout_ms", 0)
	v.SetDefault("speech.intent_classification", false)
	v.SetDefault("speech.min_confidence", 0.5)

	v.SetDefault("game.decks", 1)
	v.SetDefault("game.seed", 0)

	v.SetDefault("worker.token_skew_secs", 30)
	v.SetDefault("worker.token_ttl_min", 720)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.grpc_port", "GRPC_PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")
	v.BindEnv("server.public_url", "PUBLIC_URL")

	v.BindEnv("speech.locale", "SPEECH_LOCALE")
	v.BindEnv("speech.voice", "SPEECH_VOICE")
	v.BindEnv("speech.noinput_timeout_ms", "ASR_NOINPUT_TIMEOUT_MS")
	v.BindEnv("speech.complete_timeout_ms", "ASR_COMPLETE_TIMEOUT_MS")
	v.BindEnv("speech.intent_classification", "SPEECH_INTENT_CLASSIFICATION")
	v.BindEnv("speech.min_confidence", "SPEECH_MIN_CONFIDENCE")

	v.BindEnv("game.decks", "BLACKJACK_DECKS")
	v.BindEnv("game.seed", "BLACKJACK_SEED")

	v.BindEnv("worker.cmd", "WORKER_CMD")
	v.BindEnv("worker.token_secret", "WORKER_TOKEN_SECRET")
	v.BindEnv("worker.token_skew_secs", "WORKER_TOKEN_SKEW_SECS")
	v.BindEnv("worker.token_ttl_min", "WORKER_TOKEN_TTL_MIN")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.GRPCPort = toString(v.Get("server.grpc_port"))
	c.Server.LogLevel = v.GetString("server.log_level")
	c.Server.PublicURL = strings.TrimRight(v.GetString("server.public_url"), "/")

	c.Speech.Locale = v.GetString("speech.locale")
	c.Speech.Voice = v.GetString("speech.voice")
	c.Speech.NoInputTimeout = time.Duration(v.GetInt("speech.noinput_timeout_ms")) * time.Millisecond
	c.Speech.CompleteTimeout = time.Duration(v.GetInt("speech.complete_timeout_ms")) * time.Millisecond
	c.Speech.IntentClassification = v.GetBool("speech.intent_classification")
	c.Speech.MinConfidence = v.GetFloat64("speech.min_confidence")

	c.Game.Decks = v.GetInt("game.decks")
	c.Game.Seed = v.GetInt64("game.seed")

	c.Worker.Cmd = v.GetString("worker.cmd")
	c.Worker.TokenSecret = v.GetString("worker.token_secret")
	c.Worker.TokenSkewSecs = v.GetInt("worker.token_skew_secs")
	c.Worker.TokenTTLMin = v.GetInt("worker.token_ttl_min")

	log.Printf("config loaded: port=%s grpc_port=%s locale=%s decks=%d", c.Server.Port, c.Server.GRPCPort, c.Speech.Locale, c.Game.Decks)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
