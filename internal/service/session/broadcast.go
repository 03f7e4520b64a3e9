package session

import "meeting-transcription-service/internal/models"

// Broadcaster delivers live events to meeting-room observers.
// Delivery is at-most-once and best-effort: slow observers may miss
// updates, never persisted state.
type Broadcaster interface {
	// Transcript delivers an interim or final transcript event with
	// the resolved display name for its dominant speaker.
	Transcript(meetingID string, ev models.TranscriptEvent, speakerName string)

	// SpeakerEnrolled announces a mapping created by name extraction.
	SpeakerEnrolled(meetingID string, mapping models.SpeakerMapping, result models.NameResult)

	// StreamRestarted announces a transparent provider restart.
	StreamRestarted(meetingID string)

	// SessionError surfaces a non-fatal session-level error.
	SessionError(meetingID string, message string)
}

// NopBroadcaster discards all events.
type NopBroadcaster struct{}

func (NopBroadcaster) Transcript(string, models.TranscriptEvent, string)                  {}
func (NopBroadcaster) SpeakerEnrolled(string, models.SpeakerMapping, models.NameResult)   {}
func (NopBroadcaster) StreamRestarted(string)                                             {}
func (NopBroadcaster) SessionError(string, string)                                        {}
