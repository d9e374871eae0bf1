package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"yuzu/dealer/internal/auth"
	"yuzu/dealer/internal/config"
	"yuzu/dealer/internal/dialogue"
	"yuzu/dealer/internal/health"
	"yuzu/dealer/internal/store"
	"yuzu/dealer/internal/types"
	"yuzu/dealer/internal/worker"
	"yuzu/dealer/internal/workerws"
)

// Conversations runs the dialogue of each session.
type Conversations interface {
	Open(ctx context.Context, sessionID string)
	Close(sessionID string)
	Deliver(ctx context.Context, sessionID string, msg workerws.Message) error
	Snapshot(sessionID string) (dialogue.Snapshot, error)
}

// Workers lets the API drop a session's worker connection.
type Workers interface {
	Close(sessionID, reason string)
}

type Handlers struct {
	cfg     config.Config
	store   *store.Store
	conv    Conversations
	workers Workers
	runner  worker.Runner
}

func NewHandlers(cfg config.Config, st *store.Store, conv Conversations, workers Workers, r worker.Runner) *Handlers {
	return &Handlers{cfg: cfg, store: st, conv: conv, workers: workers, runner: r}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) workerURL(id string) string {
	return h.cfg.Server.PublicURL + "/ws/worker?session_id=" + url.QueryEscape(id)
}

func (h *Handlers) mintToken(id string) (string, time.Time, error) {
	exp := time.Now().Add(time.Duration(h.cfg.Worker.TokenTTLMin) * time.Minute).Truncate(time.Second)
	tok, err := auth.Sign(h.cfg.Worker.TokenSecret, auth.Claims{SessionID: id, Expires: exp})
	return tok, exp, err
}

func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	status := health.CheckAll(h.cfg)
	code := http.StatusOK
	if !status.OK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	sess := &types.Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Status:    types.StatusCreated,
		Locale:    h.cfg.Speech.Locale,
		Voice:     h.cfg.Speech.Voice,
	}
	if err := h.store.CreateSession(sess); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.store.AppendEvent(id, "session_created", map[string]any{"locale": sess.Locale})
	h.conv.Open(r.Context(), id)

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    id,
		"worker_ws_url": h.workerURL(id),
	})
}

// HandleStartSession launches a local worker when one is configured. Without a worker
// command the worker is expected to attach by itself.
func (h *Handlers) HandleStartSession(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	h.conv.Open(r.Context(), id)
	h.store.SetStatus(id, types.StatusRunning)

	if h.store.IsWorkerRunning(id) {
		h.store.AppendEvent(id, "worker_start_requested", map[string]any{"noop": true})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": true})
		return
	}
	h.store.AppendEvent(id, "worker_start_requested", nil)

	tok, _, err := h.mintToken(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	err = h.runner.Start(id, worker.Env(h.cfg, id, h.workerURL(id), tok))
	if errors.Is(err, worker.ErrNoCommand) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": false, "worker_ws_url": h.workerURL(id)})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.store.SetWorkerRunning(id, true)
	h.store.AppendEvent(id, "worker_started", nil)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": true})
}

// HandleClick is the start signal of a round, for drivers without a worker-side button.
func (h *Handlers) HandleClick(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	err := h.conv.Deliver(r.Context(), id, workerws.Message{Type: workerws.TypeClick, SessionID: id})
	if err != nil {
		log.Printf("[api] session=%s click: %v", id, err)
	}
	snap, err := h.conv.Snapshot(id)
	if err != nil {
		http.Error(w, "session not started", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleEndSession(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	h.conv.Close(id)
	h.workers.Close(id, "session ended")
	h.store.SetStatus(id, types.StatusEnded)

	if !h.runner.IsRunning(id) {
		h.store.AppendEvent(id, "worker_stop_requested", map[string]any{"noop": true})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": false})
		return
	}
	h.store.AppendEvent(id, "worker_stop_requested", nil)
	_ = h.runner.Stop(id)
	h.store.SetWorkerRunning(id, false)
	h.store.AppendEvent(id, "worker_stopped", nil)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": false})
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"events":     h.store.ListEvents(id),
	})
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.store.GetSession(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	out := map[string]any{
		"session": sess,
		"worker":  h.store.GetWorkerState(id),
	}
	if snap, err := h.conv.Snapshot(id); err == nil {
		out["dialogue"] = snap
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HandleMintWorkerToken(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	tok, exp, err := h.mintToken(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.store.AppendEvent(id, "worker_token_minted", map[string]any{"expires_at": exp.UTC()})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":         tok,
		"expires_at":    exp.UTC(),
		"worker_ws_url": h.workerURL(id),
	})
}
