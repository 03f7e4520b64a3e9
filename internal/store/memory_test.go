package store

import (
	"context"
	"errors"
	"testing"

	"meeting-transcription-service/internal/models"
)

func TestMemorySegments_OrderedByStart(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySegments()

	segs := []models.TranscriptSegment{
		{MeetingID: "m1", SpeakerTag: 1, Text: "later", StartTime: 5, EndTime: 6},
		{MeetingID: "m1", SpeakerTag: 2, Text: "earlier", StartTime: 1, EndTime: 2},
	}
	for _, seg := range segs {
		if err := s.Save(ctx, seg); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.FindByMeeting(ctx, "m1")
	if err != nil {
		t.Fatalf("FindByMeeting: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if got[0].Text != "earlier" || got[1].Text != "later" {
		t.Errorf("segments not ordered by start time: %v", got)
	}
	if got[0].ID == "" {
		t.Error("expected Save to assign an ID")
	}
}

func TestMemorySegments_ReplaceForMeeting(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySegments()

	_ = s.Save(ctx, models.TranscriptSegment{MeetingID: "m1", Text: "old", StartTime: 0, EndTime: 1})
	_ = s.Save(ctx, models.TranscriptSegment{MeetingID: "m2", Text: "other", StartTime: 0, EndTime: 1})

	err := s.ReplaceForMeeting(ctx, "m1", []models.TranscriptSegment{
		{Text: "new", StartTime: 0, EndTime: 2},
	})
	if err != nil {
		t.Fatalf("ReplaceForMeeting: %v", err)
	}

	got, _ := s.FindByMeeting(ctx, "m1")
	if len(got) != 1 || got[0].Text != "new" {
		t.Errorf("expected replaced segments, got %v", got)
	}
	if got[0].MeetingID != "m1" {
		t.Errorf("expected meeting ID stamped on replaced segment, got %q", got[0].MeetingID)
	}

	// Other meetings untouched.
	other, _ := s.FindByMeeting(ctx, "m2")
	if len(other) != 1 || other[0].Text != "other" {
		t.Errorf("expected m2 untouched, got %v", other)
	}
}

func TestMemoryMappings_UpsertLastWriterWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryMappings()

	_ = s.Upsert(ctx, models.SpeakerMapping{MeetingID: "m1", SpeakerTag: 1, SpeakerName: "Alice"})
	_ = s.Upsert(ctx, models.SpeakerMapping{MeetingID: "m1", SpeakerTag: 2, SpeakerName: "Bob"})
	_ = s.Upsert(ctx, models.SpeakerMapping{MeetingID: "m1", SpeakerTag: 1, SpeakerName: "Alicia"})

	got, err := s.FindByMeeting(ctx, "m1")
	if err != nil {
		t.Fatalf("FindByMeeting: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 mappings, got %d", len(got))
	}
	if got[0].SpeakerName != "Alicia" {
		t.Errorf("expected last writer to win, got %q", got[0].SpeakerName)
	}
	if got[0].EnrolledAt.IsZero() {
		t.Error("expected EnrolledAt to be set")
	}
}

func TestMemoryMappings_DeleteByTag(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryMappings()

	if err := s.DeleteByTag(ctx, "m1", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_ = s.Upsert(ctx, models.SpeakerMapping{MeetingID: "m1", SpeakerTag: 1, SpeakerName: "Alice"})
	if err := s.DeleteByTag(ctx, "m1", 1); err != nil {
		t.Fatalf("DeleteByTag: %v", err)
	}
	got, _ := s.FindByMeeting(ctx, "m1")
	if len(got) != 0 {
		t.Errorf("expected no mappings after delete, got %v", got)
	}
}
