package health

import (
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"yuzu/dealer/internal/config"
)

// MaxDecks bounds the shoe size a dealer will play with.
const MaxDecks = 8

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		s += fmt.Sprintf("  %s %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Error != "" {
			s += fmt.Sprintf(" - %s", c.Error)
		}
		s += "\n"
	}
	return s
}

// CheckAll runs all readiness checks and returns combined status
func CheckAll(cfg config.Config) HealthStatus {
	checks := []CheckResult{
		run("shoe", func() error { return checkShoe(cfg) }),
		run("worker_auth", func() error { return checkWorkerAuth(cfg) }),
		run("worker_cmd", func() error { return checkWorkerCmd(cfg) }),
		run("public_url", func() error { return checkPublicURL(cfg) }),
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
		}
	}

	return HealthStatus{
		OK:        allOK,
		Checks:    checks,
		CheckedAt: time.Now().UTC(),
	}
}

func run(name string, check func() error) CheckResult {
	start := time.Now()
	result := CheckResult{Name: name}
	if err := check(); err != nil {
		result.Error = err.Error()
	} else {
		result.OK = true
	}
	result.Latency = time.Since(start)
	return result
}

func checkShoe(cfg config.Config) error {
	if cfg.Game.Decks < 1 || cfg.Game.Decks > MaxDecks {
		return fmt.Errorf("BLACKJACK_DECKS must be between 1 and %d, got %d", MaxDecks, cfg.Game.Decks)
	}
	return nil
}

func checkWorkerAuth(cfg config.Config) error {
	if cfg.Worker.TokenSecret == "" {
		return fmt.Errorf("WORKER_TOKEN_SECRET not set")
	}
	return nil
}

// A missing worker command is fine: workers may attach on their own with a token.
func checkWorkerCmd(cfg config.Config) error {
	parts := strings.Fields(cfg.Worker.Cmd)
	if len(parts) == 0 {
		return nil
	}
	if _, err := exec.LookPath(parts[0]); err != nil {
		return fmt.Errorf("worker command %q: %v", parts[0], err)
	}
	return nil
}

func checkPublicURL(cfg config.Config) error {
	u, err := url.Parse(cfg.Server.PublicURL)
	if err != nil {
		return fmt.Errorf("PUBLIC_URL: %v", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("PUBLIC_URL must use ws or wss, got %q", u.Scheme)
	}
	return nil
}
