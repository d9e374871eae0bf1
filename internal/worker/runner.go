package worker

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"yuzu/dealer/internal/config"
)

var (
	ErrNoCommand      = errors.New("worker command not configured")
	ErrAlreadyRunning = errors.New("worker already running for session")
	ErrNotRunning     = errors.New("worker not running for session")
)

// Runner starts and stops speech worker processes, one per session.
type Runner interface {
	Start(sessionID string, env map[string]string) error
	Stop(sessionID string) error
	IsRunning(sessionID string) bool
}

// ExitCallback is invoked when a session's worker process exits (naturally or killed).
type ExitCallback func(sessionID string, err error)
type LogCallback func(sessionID string, stream string, line string)
type StartCallback func(sessionID string, pid int)

type LocalRunner struct {
	workerCmd string
	onExit    ExitCallback
	onLog     LogCallback
	onStart   StartCallback

	mu    sync.Mutex
	procs map[string]*proc
}

type proc struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLocalRunner(workerCmd string, onExit ExitCallback, onLog LogCallback, onStart StartCallback) *LocalRunner {
	return &LocalRunner{
		workerCmd: workerCmd,
		onExit:    onExit,
		onLog:     onLog,
		onStart:   onStart,
		procs:     make(map[string]*proc),
	}
}

// Env is the environment a worker needs to find its way back to the session.
func Env(cfg config.Config, sessionID, wsURL, token string) map[string]string {
	return map[string]string{
		"DEALER_SESSION_ID":      sessionID,
		"DEALER_WS_URL":          wsURL,
		"DEALER_WORKER_TOKEN":    token,
		"SPEECH_LOCALE":          cfg.Speech.Locale,
		"SPEECH_VOICE":           cfg.Speech.Voice,
		"ASR_NOINPUT_TIMEOUT_MS": strconv.FormatInt(cfg.Speech.NoInputTimeout.Milliseconds(), 10),
	}
}

func (r *LocalRunner) IsRunning(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[sessionID]
	return ok
}

func (r *LocalRunner) Start(sessionID string, env map[string]string) error {
	if strings.TrimSpace(r.workerCmd) == "" {
		return ErrNoCommand
	}

	parts := strings.Fields(r.workerCmd)
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	p := &proc{cmd: cmd, cancel: cancel, done: make(chan struct{})}

	// Reserve slot to prevent TOCTOU duplicate starts
	r.mu.Lock()
	if _, exists := r.procs[sessionID]; exists {
		r.mu.Unlock()
		cancel()
		return ErrAlreadyRunning
	}
	r.procs[sessionID] = p
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		delete(r.procs, sessionID)
		r.mu.Unlock()
		cancel()
	}

	cmd.Env = append(os.Environ(), envToList(env)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		release()
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		release()
		return err
	}
	if err := cmd.Start(); err != nil {
		release()
		return err
	}

	if r.onStart != nil {
		r.onStart(sessionID, cmd.Process.Pid)
	}

	var streams sync.WaitGroup
	streams.Add(2)
	go r.stream(sessionID, "stdout", stdout, &streams)
	go r.stream(sessionID, "stderr", stderr, &streams)

	// Wait and cleanup
	go func() {
		streams.Wait()
		err := cmd.Wait()
		r.mu.Lock()
		delete(r.procs, sessionID)
		r.mu.Unlock()
		cancel()
		close(p.done)
		if r.onExit != nil {
			r.onExit(sessionID, err)
		}
	}()

	return nil
}

func (r *LocalRunner) Stop(sessionID string) error {
	r.mu.Lock()
	p, ok := r.procs[sessionID]
	r.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}
	// request context cancel, then force kill after grace
	p.cancel()
	select {
	case <-p.done:
	case <-time.After(3 * time.Second):
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
	}
	return nil
}

func envToList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func (r *LocalRunner) stream(sessionID, stream string, rdr io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(rdr)
	for scanner.Scan() {
		line := scanner.Text()
		log.Printf("[worker] session=%s %s: %s", sessionID, stream, line)
		if r.onLog != nil {
			r.onLog(sessionID, stream, line)
		}
	}
}
