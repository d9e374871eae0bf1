package workerws

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"yuzu/dealer/internal/auth"
	"yuzu/dealer/internal/config"
	"yuzu/dealer/internal/store"

	ws "nhooyr.io/websocket"
)

type Server struct {
	Cfg   config.Config
	Store *store.Store
	Reg   *Registry
	// OnMessage receives every well-formed worker message, in arrival order.
	OnMessage func(sessionID string, msg Message)
}

func NewServer(cfg config.Config, st *store.Store, reg *Registry, onMessage func(string, Message)) *Server {
	return &Server{Cfg: cfg, Store: st, Reg: reg, OnMessage: onMessage}
}

func (s *Server) HandleWorkerWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	if s.Store.GetSession(sessionID) == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	token := strings.TrimPrefix(authz, "Bearer ")
	skew := time.Duration(s.Cfg.Worker.TokenSkewSecs) * time.Second
	if _, err := auth.Verify(s.Cfg.Worker.TokenSecret, token, sessionID, time.Now(), skew); err != nil {
		log.Printf("[ws] session=%s rejected worker: %v", sessionID, err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[ws] accept: %v", err)
		return
	}
	if s.Reg.Replace(sessionID, c) {
		s.Store.AppendEvent(sessionID, "worker_replaced", nil)
	}
	s.Store.SetWorkerConnected(sessionID, true)
	s.Store.AppendEvent(sessionID, "worker_connected", nil)

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Store.AppendEvent(sessionID, "worker_msg_invalid", map[string]any{"error": err.Error()})
			continue
		}
		if msg.SessionID != "" && msg.SessionID != sessionID {
			s.Store.AppendEvent(sessionID, "worker_msg_invalid", map[string]any{"error": "session mismatch"})
			continue
		}
		msg.SessionID = sessionID
		if s.OnMessage != nil {
			s.OnMessage(sessionID, msg)
		}
	}
	_ = c.Close(ws.StatusNormalClosure, "done")
	s.Reg.Remove(sessionID, c)
	if s.Reg.Get(sessionID) == nil {
		s.Store.SetWorkerConnected(sessionID, false)
	}
	s.Store.AppendEvent(sessionID, "worker_disconnected", nil)
}
