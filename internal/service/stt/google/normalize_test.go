package google

import (
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/protobuf/types/known/durationpb"
)

func TestNormalizeResponse(t *testing.T) {
	resp := &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{
			{
				IsFinal: true,
				Alternatives: []*speechpb.SpeechRecognitionAlternative{
					{
						Transcript: "hello world",
						Confidence: 0.92,
						Words: []*speechpb.WordInfo{
							{
								Word:       "hello",
								SpeakerTag: 2,
								StartTime:  durationpb.New(500 * time.Millisecond),
								EndTime:    durationpb.New(900 * time.Millisecond),
							},
							{
								Word:       "world",
								SpeakerTag: 2,
								StartTime:  durationpb.New(time.Second),
								EndTime:    durationpb.New(1400 * time.Millisecond),
							},
						},
					},
				},
			},
			{
				// No alternatives: skipped.
				IsFinal: false,
			},
		},
	}

	events := normalizeResponse(resp)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	ev := events[0]
	if ev.Text != "hello world" {
		t.Errorf("Text = %q", ev.Text)
	}
	if !ev.IsFinal {
		t.Error("expected final event")
	}
	if ev.SpeakerTag != 2 {
		t.Errorf("SpeakerTag = %d, want 2", ev.SpeakerTag)
	}
	if ev.StartTime != 0.5 || ev.EndTime != 1.4 {
		t.Errorf("timing = (%v, %v), want (0.5, 1.4)", ev.StartTime, ev.EndTime)
	}
	if len(ev.Words) != 2 || ev.Words[1].Word != "world" {
		t.Errorf("unexpected words: %v", ev.Words)
	}
}

func TestNormalizeWords_MissingTiming(t *testing.T) {
	words := normalizeWords([]*speechpb.WordInfo{{Word: "hi", SpeakerTag: 1}})
	if len(words) != 1 {
		t.Fatalf("expected 1 word, got %d", len(words))
	}
	if words[0].StartOffset != 0 || words[0].EndOffset != 0 {
		t.Errorf("expected zero offsets without timing, got %v", words[0])
	}
}

func TestFactory_Availability(t *testing.T) {
	f := NewFactory()
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	if f.Available(t.Context()) {
		t.Error("expected unavailable without credentials")
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/creds.json")
	if !f.Available(t.Context()) {
		t.Error("expected available with credentials path set")
	}
}
