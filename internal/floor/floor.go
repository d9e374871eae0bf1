package floor

// Decision says whether a worker signal should reach the dialogue machine.
type Decision struct {
	Accept bool
	Reason string // e.g., "stale_listen"
}

func accept() Decision { return Decision{Accept: true} }

func reject(reason string) Decision { return Decision{Reason: reason} }

// Manager tracks who holds the conversational floor for one session: utterances the
// worker is still speaking, and the single listen command it may answer.
type Manager struct {
	pending  []string // utterance IDs in the order they were sent
	listenID string
}

func New() *Manager { return &Manager{} }

// OnSpeak records an utterance handed to the worker. Speaking closes any open listen.
func (m *Manager) OnSpeak(utteranceID string) {
	m.pending = append(m.pending, utteranceID)
	m.listenID = ""
}

// OnListen opens a listen window; a later listen supersedes an earlier one.
func (m *Manager) OnListen(commandID string) {
	m.listenID = commandID
}

// OnSpeechComplete accepts completions in the order utterances were sent. An empty
// ID matches the oldest pending utterance.
func (m *Manager) OnSpeechComplete(utteranceID string) Decision {
	if len(m.pending) == 0 {
		return reject("no_pending_speech")
	}
	if utteranceID != "" && utteranceID != m.pending[0] {
		return reject("out_of_order")
	}
	m.pending = m.pending[1:]
	return accept()
}

// OnRecognition gates recognition results and no-input timeouts. The listen window
// closes on the first accepted signal.
func (m *Manager) OnRecognition(commandID string) Decision {
	if m.listenID == "" {
		return reject("not_listening")
	}
	if commandID != "" && commandID != m.listenID {
		return reject("stale_listen")
	}
	m.listenID = ""
	return accept()
}

func (m *Manager) Reset() {
	m.pending = nil
	m.listenID = ""
}

func (m *Manager) Speaking() bool { return len(m.pending) > 0 }

func (m *Manager) Listening() bool { return m.listenID != "" }
