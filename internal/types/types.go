package types

import "time"

type Event struct {
	Type    string         `json:"type"`
	Ts      time.Time      `json:"timestamp"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Session statuses.
const (
	StatusCreated = "created"
	StatusRunning = "running"
	StatusEnded   = "ended"
)

type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	Locale    string    `json:"locale"`
	Voice     string    `json:"voice"`

	WorkerPID          int        `json:"worker_pid,omitempty"`
	WorkerLastExitCode int        `json:"worker_last_exit_code,omitempty"`
	WorkerLastExitAt   *time.Time `json:"worker_last_exit_at,omitempty"`
}
