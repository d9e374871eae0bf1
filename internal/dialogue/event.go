package dialogue

import (
	"time"

	"yuzu/dealer/internal/intent"
)

// EventType names a signal delivered to the machine by its driver.
type EventType string

const (
	EventReady         EventType = "ASRTTS_READY"
	EventClick         EventType = "CLICK"
	EventSpeakComplete EventType = "SPEAK_COMPLETE"
	EventRecognised    EventType = "RECOGNISED"
	EventNoInput       EventType = "ASR_NOINPUT"
)

// Event is one external signal. Recognition is only set for EventRecognised.
type Event struct {
	Type        EventType
	Recognition intent.Recognition
}

func Ready() Event         { return Event{Type: EventReady} }
func Click() Event         { return Event{Type: EventClick} }
func SpeakComplete() Event { return Event{Type: EventSpeakComplete} }
func NoInput() Event       { return Event{Type: EventNoInput} }

func Recognised(rec intent.Recognition) Event {
	return Event{Type: EventRecognised, Recognition: rec}
}

// Effect is a command for the speech collaborator, returned from Send and executed by the driver.
type Effect interface {
	isEffect()
}

// PrepareSpeech asks the collaborator to initialise recognition and synthesis.
type PrepareSpeech struct{}

// Speak hands text to the speech output collaborator. It answers with SPEAK_COMPLETE.
type Speak struct {
	Text string
}

// Listen opens one recognition request. It answers with RECOGNISED or ASR_NOINPUT.
type Listen struct {
	IntentClassification bool
	NoInputTimeout       time.Duration
	CompleteTimeout      time.Duration
}

func (PrepareSpeech) isEffect() {}
func (Speak) isEffect()         {}
func (Listen) isEffect()        {}
