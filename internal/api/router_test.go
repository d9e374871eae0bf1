package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yuzu/dealer/internal/auth"
	"yuzu/dealer/internal/config"
	"yuzu/dealer/internal/loop"
	"yuzu/dealer/internal/store"
	"yuzu/dealer/internal/worker"
	"yuzu/dealer/internal/workerws"
)

type mockRunner struct{ started map[string]map[string]string }

func (m *mockRunner) Start(sessionID string, env map[string]string) error {
	if m.started == nil {
		return worker.ErrNoCommand
	}
	m.started[sessionID] = env
	return nil
}
func (m *mockRunner) Stop(sessionID string) error      { return nil }
func (m *mockRunner) IsRunning(sessionID string) bool { return m.started[sessionID] != nil }

type mockWorkers struct{ closed []string }

func (m *mockWorkers) Close(sessionID, reason string) { m.closed = append(m.closed, sessionID) }

type discardOutbox struct{}

func (discardOutbox) SendJSON(ctx context.Context, sessionID string, v any) error { return nil }

func testConfig() config.Config {
	var cfg config.Config
	cfg.Server.PublicURL = "ws://dealer.test"
	cfg.Game.Decks = 1
	cfg.Worker.TokenSecret = "s3cret"
	cfg.Worker.TokenTTLMin = 10
	return cfg
}

type fixture struct {
	srv     *httptest.Server
	st      *store.Store
	disp    *loop.Dispatcher
	runner  *mockRunner
	workers *mockWorkers
}

func newFixture(t *testing.T, cfg config.Config, runner *mockRunner) *fixture {
	t.Helper()
	st := store.New()
	disp := loop.New(discardOutbox{}, st, loop.Options{NewMachine: loop.MachineFactory(cfg)})
	workers := &mockWorkers{}
	srv := httptest.NewServer(NewRouter(NewHandlers(cfg, st, disp, workers, runner)))
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, st: st, disp: disp, runner: runner, workers: workers}
}

func (f *fixture) post(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func (f *fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestStartEndUnknownSession404(t *testing.T) {
	f := newFixture(t, testConfig(), &mockRunner{})
	for _, p := range []string{"/sessions/unknown/start", "/sessions/unknown/end", "/sessions/unknown/click"} {
		if code := f.post(t, p, nil); code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, code)
		}
	}
	if code := f.post(t, "/sessions/a/b/c", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for a deep path, got %d", code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t, testConfig(), &mockRunner{})

	var created struct {
		SessionID   string `json:"session_id"`
		WorkerWSURL string `json:"worker_ws_url"`
	}
	if code := f.post(t, "/sessions", &created); code != http.StatusOK {
		t.Fatalf("create: %d", code)
	}
	id := created.SessionID
	if created.WorkerWSURL != "ws://dealer.test/ws/worker?session_id="+id {
		t.Fatalf("unexpected worker url %q", created.WorkerWSURL)
	}

	var started map[string]any
	if code := f.post(t, "/sessions/"+id+"/start", &started); code != http.StatusOK {
		t.Fatalf("start: %d", code)
	}
	if started["running"] != false {
		t.Fatalf("no worker command means no local worker, got %v", started)
	}

	// The worker reports it is ready, then the player presses start.
	if err := f.disp.Deliver(context.Background(), id, workerws.Message{Type: workerws.TypeReady}); err != nil {
		t.Fatalf("ready: %v", err)
	}
	var snap struct {
		State string `json:"state"`
	}
	if code := f.post(t, "/sessions/"+id+"/click", &snap); code != http.StatusOK {
		t.Fatalf("click: %d", code)
	}
	if snap.State != "Game.Intro" {
		t.Fatalf("expected Game.Intro, got %q", snap.State)
	}

	var state struct {
		Session struct {
			Status string `json:"status"`
		} `json:"session"`
		Dialogue struct {
			State string `json:"state"`
		} `json:"dialogue"`
	}
	if code := f.get(t, "/sessions/"+id+"/state", &state); code != http.StatusOK {
		t.Fatalf("state: %d", code)
	}
	if state.Session.Status != "running" || state.Dialogue.State != "Game.Intro" {
		t.Fatalf("unexpected state %+v", state)
	}

	if code := f.post(t, "/sessions/"+id+"/end", nil); code != http.StatusOK {
		t.Fatalf("end: %d", code)
	}
	if len(f.workers.closed) != 1 || f.workers.closed[0] != id {
		t.Fatalf("end should drop the worker connection, got %v", f.workers.closed)
	}

	var events struct {
		Events []struct {
			Type string `json:"type"`
		} `json:"events"`
	}
	f.get(t, "/sessions/"+id+"/events", &events)
	if len(events.Events) == 0 || events.Events[0].Type != "session_created" {
		t.Fatalf("unexpected events %+v", events.Events)
	}
}

func TestStartLaunchesConfiguredWorker(t *testing.T) {
	f := newFixture(t, testConfig(), &mockRunner{started: map[string]map[string]string{}})
	var created struct {
		SessionID string `json:"session_id"`
	}
	f.post(t, "/sessions", &created)
	if code := f.post(t, "/sessions/"+created.SessionID+"/start", nil); code != http.StatusOK {
		t.Fatalf("start: %d", code)
	}
	env := f.runner.started[created.SessionID]
	if env == nil {
		t.Fatalf("worker was not started")
	}
	if _, err := auth.Verify("s3cret", env["DEALER_WORKER_TOKEN"], created.SessionID, time.Now(), 0); err != nil {
		t.Fatalf("worker got an unusable token: %v", err)
	}
	if !f.st.IsWorkerRunning(created.SessionID) {
		t.Fatalf("worker should be marked running")
	}
}

func TestMintWorkerToken(t *testing.T) {
	f := newFixture(t, testConfig(), &mockRunner{})
	var created struct {
		SessionID string `json:"session_id"`
	}
	f.post(t, "/sessions", &created)

	var out struct {
		Token string `json:"token"`
	}
	if code := f.post(t, "/sessions/"+created.SessionID+"/worker-token", &out); code != http.StatusOK {
		t.Fatalf("mint: %d", code)
	}
	if _, err := auth.Verify("s3cret", out.Token, created.SessionID, time.Now(), 0); err != nil {
		t.Fatalf("verify minted token: %v", err)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, testConfig(), &mockRunner{})
	if code := f.get(t, "/sessions/x/start", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", code)
	}
	if code := f.get(t, "/sessions", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", code)
	}
}

func TestReadiness(t *testing.T) {
	cfg := testConfig()
	if code := newFixture(t, cfg, &mockRunner{}).get(t, "/readyz", nil); code != http.StatusOK {
		t.Fatalf("expected ready, got %d", code)
	}
	cfg.Worker.TokenSecret = ""
	if code := newFixture(t, cfg, &mockRunner{}).get(t, "/readyz", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
}
