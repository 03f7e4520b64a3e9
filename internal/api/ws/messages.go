package ws

import "meeting-transcription-service/internal/models"

// clientMessage is the JSON envelope for all text frames from the
// client. Audio arrives as binary frames, never inside the envelope.
type clientMessage struct {
	Type        string `json:"type"`
	MeetingID   string `json:"meetingId,omitempty"`
	UserID      string `json:"userId,omitempty"`
	SpeakerTag  int    `json:"speakerTag,omitempty"`
	SpeakerName string `json:"speakerName,omitempty"`
}

// Client message types.
const (
	msgStartTranscription   = "startTranscription"
	msgStartEnrollment      = "startEnrollment"
	msgStopTranscription    = "stopTranscription"
	msgStopEnrollment       = "stopEnrollment"
	msgEnrollSpeaker        = "enrollSpeaker"
	msgRemoveSpeakerMapping = "removeSpeakerMapping"
	msgGetSpeakerMappings   = "getSpeakerMappings"
	msgGetTranscript        = "getTranscript"
)

type statusMessage struct {
	Type                   string `json:"type"`
	SpeechServiceAvailable bool   `json:"speechServiceAvailable"`
	Provider               string `json:"provider,omitempty"`
}

type sessionStartedMessage struct {
	Type            string                  `json:"type"`
	SessionID       string                  `json:"sessionId"`
	Provider        string                  `json:"provider"`
	SpeakerMappings []models.SpeakerMapping `json:"speakerMappings"`
}

type transcriptMessage struct {
	Type        string        `json:"type"`
	Transcript  string        `json:"transcript"`
	SpeakerTag  int           `json:"speakerTag"`
	SpeakerName string        `json:"speakerName,omitempty"`
	IsFinal     bool          `json:"isFinal"`
	Confidence  float64       `json:"confidence"`
	StartTime   float64       `json:"startTime"`
	EndTime     float64       `json:"endTime"`
	Words       []models.Word `json:"words,omitempty"`
}

type speakerEnrolledMessage struct {
	Type        string `json:"type"`
	SpeakerTag  int    `json:"speakerTag"`
	SpeakerName string `json:"speakerName"`
	Confidence  string `json:"confidence"`
	Method      string `json:"method"`
}

type mappingUpdatedMessage struct {
	Type        string `json:"type"`
	MeetingID   string `json:"meetingId"`
	SpeakerTag  int    `json:"speakerTag"`
	SpeakerName string `json:"speakerName"`
}

type mappingRemovedMessage struct {
	Type       string `json:"type"`
	MeetingID  string `json:"meetingId"`
	SpeakerTag int    `json:"speakerTag"`
}

type mappingsMessage struct {
	Type      string                  `json:"type"`
	MeetingID string                  `json:"meetingId"`
	Mappings  []models.SpeakerMapping `json:"speakerMappings"`
}

type stoppedMessage struct {
	Type           string                     `json:"type"`
	FullTranscript []models.TranscriptSegment `json:"fullTranscript"`
}

type transcriptHistoryMessage struct {
	Type      string                     `json:"type"`
	MeetingID string                     `json:"meetingId"`
	Segments  []models.TranscriptSegment `json:"segments"`
}

type streamRestartedMessage struct {
	Type string `json:"type"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
