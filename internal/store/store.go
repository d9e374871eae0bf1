package store

import (
	"errors"
	"sync"
	"time"

	"yuzu/dealer/internal/types"
)

var ErrSessionExists = errors.New("session already exists")

// MaxEvents caps the event log kept per session.
const MaxEvents = 200

type Store struct {
	mu            sync.RWMutex
	sessions      map[string]*types.Session
	events        map[string][]types.Event
	workerRunning map[string]bool
	workerState   map[string]WorkerState
}

func New() *Store {
	return &Store{
		sessions:      make(map[string]*types.Session),
		events:        make(map[string][]types.Event),
		workerRunning: make(map[string]bool),
		workerState:   make(map[string]WorkerState),
	}
}

// WorkerState is what the speech worker has told us about itself for a session.
type WorkerState struct {
	Connected bool `json:"connected"`
	Ready     bool `json:"ready"` // recognizer and synthesizer prepared
}

func (s *Store) CreateSession(sess *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return ErrSessionExists
	}
	s.sessions[sess.ID] = sess
	s.events[sess.ID] = []types.Event{}
	return nil
}

// GetSession returns a copy of the session, or nil.
func (s *Store) GetSession(id string) *types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	cp := *sess
	return &cp
}

func (s *Store) SetStatus(id, status string) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.Status = status
	}
	s.mu.Unlock()
}

func (s *Store) AppendEvent(sessionID, typ string, payload map[string]any) types.Event {
	evt := types.Event{Type: typ, Ts: time.Now().UTC(), Payload: payload}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[sessionID] = append(s.events[sessionID], evt)
	if l := len(s.events[sessionID]); l > MaxEvents {
		// Keep space for a single truncation warning so the total stays at MaxEvents
		keep := MaxEvents - 1
		dropped := l - keep
		s.events[sessionID] = append([]types.Event(nil), s.events[sessionID][l-keep:]...)
		warn := types.Event{Type: "events_truncated", Ts: time.Now().UTC(), Payload: map[string]any{"session_id": sessionID, "dropped": dropped, "kept": keep}}
		s.events[sessionID] = append(s.events[sessionID], warn)
	}
	return evt
}

func (s *Store) ListEvents(sessionID string) []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.events[sessionID]
	out := make([]types.Event, len(src))
	copy(out, src)
	return out
}

func (s *Store) SetWorkerRunning(sessionID string, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workerRunning[sessionID] = running
}

func (s *Store) IsWorkerRunning(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workerRunning[sessionID]
}

func (s *Store) SetWorkerPID(sessionID string, pid int) {
	s.mu.Lock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.WorkerPID = pid
	}
	s.mu.Unlock()
}

func (s *Store) SetWorkerExit(sessionID string, code int, at time.Time) {
	s.mu.Lock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.WorkerLastExitCode = code
		sess.WorkerLastExitAt = &at
	}
	s.mu.Unlock()
}

func (s *Store) ListSessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}

func (s *Store) SetWorkerConnected(sessionID string, connected bool) {
	s.mu.Lock()
	st := s.workerState[sessionID]
	st.Connected = connected
	if !connected {
		st.Ready = false
	}
	s.workerState[sessionID] = st
	s.mu.Unlock()
}

func (s *Store) SetWorkerReady(sessionID string, ready bool) {
	s.mu.Lock()
	st := s.workerState[sessionID]
	st.Ready = ready
	s.workerState[sessionID] = st
	s.mu.Unlock()
}

func (s *Store) GetWorkerState(sessionID string) WorkerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workerState[sessionID]
}
