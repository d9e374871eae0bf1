package intent

import "testing"

func TestClassifyUtterance(t *testing.T) {
	r := NewRouter(0.5)
	tests := []struct {
		utterance string
		allowed   Set
		want      Intent
	}{
		{"Hit", PlayerTurn, Hit},
		{"hit me!", PlayerTurn, Hit},
		{"  Stand. ", PlayerTurn, Stand},
		{"What's my score?", PlayerTurn, Score},
		{"yes", PlayerTurn, NotRecognized},
		{"Yeah", YesNo, Yes},
		{"no thanks", YesNo, No},
		{"hit", YesNo, NotRecognized},
		{"what is a soft hand", YesNo, ExplainSoft},
		{"banana", PlayerTurn, NotRecognized},
		{"", PlayerTurn, NotRecognized},
	}
	for _, tt := range tests {
		if got := r.Classify(Recognition{Utterance: tt.utterance}, tt.allowed); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.utterance, got, tt.want)
		}
	}
}

func TestClassifyIntentLabel(t *testing.T) {
	r := NewRouter(0.5)
	if got := r.Classify(Recognition{Utterance: "gimme one", Intent: "hit", Confidence: 0.9}, PlayerTurn); got != Hit {
		t.Fatalf("expected HIT from label, got %s", got)
	}
	if got := r.Classify(Recognition{Intent: "STRATEGY"}, PlayerTurn); got != Strategy {
		t.Fatalf("label without confidence should be trusted, got %s", got)
	}
	if got := r.Classify(Recognition{Utterance: "gimme one", Intent: "hit", Confidence: 0.2}, PlayerTurn); got != NotRecognized {
		t.Fatalf("low confidence label should not be trusted, got %s", got)
	}
	// unknown labels fall back to the utterance text
	if got := r.Classify(Recognition{Utterance: "stand", Intent: "None", Confidence: 0.9}, PlayerTurn); got != Stand {
		t.Fatalf("expected fallback to utterance, got %s", got)
	}
}

func TestCommonIntentsInEveryListeningSet(t *testing.T) {
	for in := range Common {
		if !PlayerTurn.Has(in) || !YesNo.Has(in) {
			t.Fatalf("%s should be valid in every listening phase", in)
		}
		if !IsCommon(in) {
			t.Fatalf("%s should be common", in)
		}
	}
	if IsCommon(Hit) {
		t.Fatalf("HIT is not a common intent")
	}
}
