package ws

import (
	"errors"
	"testing"

	"meeting-transcription-service/internal/models"
)

type fakeSender struct {
	got  []any
	fail bool
}

func (f *fakeSender) send(v any) error {
	if f.fail {
		return errors.New("broken pipe")
	}
	f.got = append(f.got, v)
	return nil
}

func TestHub_BroadcastReachesOnlyMeetingObservers(t *testing.T) {
	h := NewHub()
	a := &fakeSender{}
	b := &fakeSender{}
	other := &fakeSender{}
	h.Join("m1", a)
	h.Join("m1", b)
	h.Join("m2", other)

	ev := models.TranscriptEvent{Text: "hello", SpeakerTag: 1, IsFinal: true, Confidence: 0.9}
	h.Transcript("m1", ev, "Alice")

	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("m1 observers got %d/%d messages, want 1/1", len(a.got), len(b.got))
	}
	if len(other.got) != 0 {
		t.Errorf("m2 observer received a m1 broadcast")
	}

	msg, ok := a.got[0].(transcriptMessage)
	if !ok {
		t.Fatalf("unexpected message type %T", a.got[0])
	}
	if msg.Type != "transcript" || msg.Transcript != "hello" || msg.SpeakerName != "Alice" {
		t.Errorf("transcript message = %+v", msg)
	}
}

func TestHub_FailedObserverDoesNotBlockOthers(t *testing.T) {
	h := NewHub()
	broken := &fakeSender{fail: true}
	healthy := &fakeSender{}
	h.Join("m1", broken)
	h.Join("m1", healthy)

	h.SessionError("m1", "provider unavailable")

	if len(healthy.got) != 1 {
		t.Fatalf("healthy observer got %d messages, want 1", len(healthy.got))
	}
	if msg := healthy.got[0].(errorMessage); msg.Message != "provider unavailable" {
		t.Errorf("error message = %+v", msg)
	}
}

func TestHub_LeaveRemovesFromAllRooms(t *testing.T) {
	h := NewHub()
	c := &fakeSender{}
	h.Join("m1", c)
	h.Join("m2", c)
	h.Leave(c)

	h.StreamRestarted("m1")
	h.StreamRestarted("m2")
	if len(c.got) != 0 {
		t.Errorf("left observer still received %d messages", len(c.got))
	}
}

func TestHub_EnrollmentAndMappingMessages(t *testing.T) {
	h := NewHub()
	c := &fakeSender{}
	h.Join("m1", c)

	mapping := models.SpeakerMapping{MeetingID: "m1", SpeakerTag: 2, SpeakerName: "Sarah"}
	h.SpeakerEnrolled("m1", mapping, models.NameResult{
		Name:       "Sarah",
		Confidence: models.NameConfidenceMedium,
		Method:     models.NameMethodPhonetic,
	})
	h.MappingUpdated(mapping)
	h.MappingRemoved("m1", 2)

	if len(c.got) != 3 {
		t.Fatalf("got %d messages, want 3", len(c.got))
	}
	enrolled := c.got[0].(speakerEnrolledMessage)
	if enrolled.Type != "speakerEnrolled" || enrolled.Method != "phonetic" || enrolled.Confidence != "medium" {
		t.Errorf("speakerEnrolled = %+v", enrolled)
	}
	updated := c.got[1].(mappingUpdatedMessage)
	if updated.Type != "speakerMappingUpdated" || updated.SpeakerName != "Sarah" {
		t.Errorf("speakerMappingUpdated = %+v", updated)
	}
	removed := c.got[2].(mappingRemovedMessage)
	if removed.Type != "speakerMappingRemoved" || removed.SpeakerTag != 2 {
		t.Errorf("speakerMappingRemoved = %+v", removed)
	}
}
