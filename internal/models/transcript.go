// Package models defines the data structures shared across the
// transcription pipeline.
package models

import "time"

// Word is a single recognized word with speaker attribution and timing.
// Offsets are seconds from the start of the provider stream.
type Word struct {
	Word        string  `json:"word"`
	SpeakerTag  int     `json:"speakerTag"`
	StartOffset float64 `json:"startTime"`
	EndOffset   float64 `json:"endTime"`
}

// TranscriptEvent is the canonical, provider-independent recognition
// result. It is transient: interim events are broadcast and discarded,
// final events become persisted TranscriptSegments.
type TranscriptEvent struct {
	Text       string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"isFinal"`
	// SpeakerTag is the dominant speaker for the utterance: the tag
	// holding the majority of word-level votes, ties broken by the
	// lower tag id.
	SpeakerTag int     `json:"speakerTag"`
	Words      []Word  `json:"words,omitempty"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
}

// TranscriptSegment is a persisted final utterance for a meeting.
type TranscriptSegment struct {
	ID          string    `json:"id,omitempty"`
	MeetingID   string    `json:"meetingId"`
	SpeakerTag  int       `json:"speakerTag"`
	SpeakerName string    `json:"speakerName,omitempty"`
	Text        string    `json:"text"`
	Confidence  float64   `json:"confidence"`
	StartTime   float64   `json:"startTime"`
	EndTime     float64   `json:"endTime"`
	IsFinal     bool      `json:"isFinal"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// SpeakerMapping associates a session-local speaker tag with a human
// name. (MeetingID, SpeakerTag) is unique.
type SpeakerMapping struct {
	MeetingID   string    `json:"meetingId"`
	SpeakerTag  int       `json:"speakerTag"`
	SpeakerName string    `json:"speakerName"`
	EnrolledAt  time.Time `json:"enrolledAt"`
}

// DiarizationSpan is a "who spoke when" interval returned by the
// external diarization engine. Never persisted.
type DiarizationSpan struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Name extraction confidence levels.
const (
	NameConfidenceHigh   = "high"
	NameConfidenceMedium = "medium"
	NameConfidenceLow    = "low"
)

// Name extraction methods.
const (
	NameMethodSpelled  = "spelled"
	NameMethodNATO     = "nato"
	NameMethodPhonetic = "phonetic"
)

// NameResult is the outcome of extracting a speaker name from an
// enrollment utterance.
type NameResult struct {
	Name       string `json:"name"`
	Confidence string `json:"confidence"`
	Method     string `json:"method"`
}
