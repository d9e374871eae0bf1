package floor

import "testing"

func TestSpeechCompletesInOrder(t *testing.T) {
	f := New()
	f.OnSpeak("u1")
	f.OnSpeak("u2")
	if d := f.OnSpeechComplete("u2"); d.Accept || d.Reason != "out_of_order" {
		t.Fatalf("expected out_of_order, got %+v", d)
	}
	if d := f.OnSpeechComplete("u1"); !d.Accept {
		t.Fatalf("expected u1 accepted, got %+v", d)
	}
	if d := f.OnSpeechComplete(""); !d.Accept {
		t.Fatalf("empty id should match the oldest utterance, got %+v", d)
	}
	if f.Speaking() {
		t.Fatalf("should not be speaking after both completions")
	}
}

func TestCompletionWithoutSpeechRejected(t *testing.T) {
	f := New()
	if d := f.OnSpeechComplete("u1"); d.Accept || d.Reason != "no_pending_speech" {
		t.Fatalf("expected no_pending_speech, got %+v", d)
	}
}

func TestRecognitionNeedsOpenListen(t *testing.T) {
	f := New()
	if d := f.OnRecognition("c1"); d.Reason != "not_listening" {
		t.Fatalf("expected not_listening, got %+v", d)
	}
	f.OnListen("c1")
	f.OnListen("c2")
	if d := f.OnRecognition("c1"); d.Reason != "stale_listen" {
		t.Fatalf("expected stale_listen, got %+v", d)
	}
	if d := f.OnRecognition("c2"); !d.Accept {
		t.Fatalf("expected c2 accepted, got %+v", d)
	}
	if d := f.OnRecognition("c2"); d.Reason != "not_listening" {
		t.Fatalf("a listen window accepts one signal, got %+v", d)
	}
}

func TestSpeakClosesListen(t *testing.T) {
	f := New()
	f.OnListen("c1")
	f.OnSpeak("u1")
	if f.Listening() {
		t.Fatalf("speaking should close the listen window")
	}
	f.Reset()
	if f.Speaking() || f.Listening() {
		t.Fatalf("reset should clear the floor")
	}
}
