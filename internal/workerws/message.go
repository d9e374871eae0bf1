package workerws

// Message is the envelope exchanged with the speech worker in both directions.
type Message struct {
	Type        string         `json:"type"`
	TsMs        int64          `json:"ts_ms"`
	SessionID   string         `json:"session_id"`
	Seq         int64          `json:"seq"`
	CommandID   string         `json:"command_id,omitempty"`
	UtteranceID string         `json:"utterance_id,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Worker to server.
const (
	TypeHello         = "worker_hello"
	TypeReady         = "asrtts_ready"
	TypeSpeakComplete = "speak_complete"
	TypeRecognised    = "recognised"
	TypeNoInput       = "no_input"
	TypeClick         = "click"
)

// Server to worker.
const (
	TypePrepare = "prepare"
	TypeSpeak   = "speak"
	TypeListen  = "listen"
)

// String returns a payload field, or "" when it is missing or not a string.
func (m Message) String(key string) string {
	if m.Payload == nil {
		return ""
	}
	s, _ := m.Payload[key].(string)
	return s
}

// Float returns a numeric payload field. JSON numbers decode as float64.
func (m Message) Float(key string) float64 {
	if m.Payload == nil {
		return 0
	}
	f, _ := m.Payload[key].(float64)
	return f
}
