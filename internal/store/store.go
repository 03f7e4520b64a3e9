// Package store defines the persistence collaborator interfaces
// consumed by the transcription pipeline. Persistence mechanics live
// elsewhere; this package only fixes the contracts and ships an
// in-memory implementation for wiring and tests.
package store

import (
	"context"
	"errors"

	"meeting-transcription-service/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Meeting status values set by the post-processing pipeline.
const (
	MeetingStatusRecording  = "recording"
	MeetingStatusProcessing = "processing"
	MeetingStatusCompleted  = "completed"
	MeetingStatusFailed     = "failed"
)

// SegmentStore persists final transcript segments.
type SegmentStore interface {
	// FindByMeeting returns a meeting's segments ordered by start time.
	FindByMeeting(ctx context.Context, meetingID string) ([]models.TranscriptSegment, error)

	// Save appends one segment.
	Save(ctx context.Context, seg models.TranscriptSegment) error

	// ReplaceForMeeting atomically replaces all of a meeting's
	// segments (delete-then-insert).
	ReplaceForMeeting(ctx context.Context, meetingID string, segs []models.TranscriptSegment) error

	// DeleteByMeeting removes all of a meeting's segments.
	DeleteByMeeting(ctx context.Context, meetingID string) error
}

// SpeakerMappingStore persists speaker tag to name mappings.
// (MeetingID, SpeakerTag) is unique; Upsert is last-writer-wins.
type SpeakerMappingStore interface {
	FindByMeeting(ctx context.Context, meetingID string) ([]models.SpeakerMapping, error)
	Upsert(ctx context.Context, m models.SpeakerMapping) error
	DeleteByTag(ctx context.Context, meetingID string, speakerTag int) error
}

// MeetingStatusUpdater updates a meeting's processing status.
type MeetingStatusUpdater interface {
	UpdateStatus(ctx context.Context, meetingID, status string) error
}
