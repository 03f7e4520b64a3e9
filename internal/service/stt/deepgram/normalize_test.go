package deepgram

import (
	"encoding/json"
	"testing"
)

func TestNormalizeResult(t *testing.T) {
	payload := `{
		"type": "Results",
		"is_final": true,
		"start": 0.0,
		"channel": {
			"alternatives": [{
				"transcript": "good morning everyone",
				"confidence": 0.97,
				"words": [
					{"word": "good", "punctuated_word": "Good", "start": 0.1, "end": 0.3, "speaker": 0},
					{"word": "morning", "punctuated_word": "morning", "start": 0.35, "end": 0.7, "speaker": 0},
					{"word": "everyone", "punctuated_word": "everyone", "start": 0.75, "end": 1.2, "speaker": 1}
				]
			}]
		}
	}`

	var msg resultMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ev, ok := normalizeResult(&msg)
	if !ok {
		t.Fatal("expected a normalized event")
	}
	if ev.Text != "good morning everyone" {
		t.Errorf("Text = %q", ev.Text)
	}
	if !ev.IsFinal {
		t.Error("expected final")
	}
	// Zero-based speakers shifted to positive tags; majority is tag 1.
	if ev.SpeakerTag != 1 {
		t.Errorf("SpeakerTag = %d, want 1", ev.SpeakerTag)
	}
	if ev.Words[0].Word != "Good" {
		t.Errorf("expected punctuated word, got %q", ev.Words[0].Word)
	}
	if ev.StartTime != 0.1 || ev.EndTime != 1.2 {
		t.Errorf("timing = (%v, %v), want (0.1, 1.2)", ev.StartTime, ev.EndTime)
	}
}

func TestNormalizeResult_IgnoresNonResults(t *testing.T) {
	if _, ok := normalizeResult(&resultMessage{Type: "Metadata"}); ok {
		t.Error("metadata message must not normalize")
	}

	msg := resultMessage{Type: "Results"}
	if _, ok := normalizeResult(&msg); ok {
		t.Error("message without alternatives must not normalize")
	}
}

func TestFactory_Availability(t *testing.T) {
	if NewFactory(Config{}).Available(t.Context()) {
		t.Error("expected unavailable without API key")
	}
	if !NewFactory(Config{APIKey: "dg-key"}).Available(t.Context()) {
		t.Error("expected available with API key")
	}
}
