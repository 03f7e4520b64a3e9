package ws

import (
	"sync"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/observability/logging"
	"meeting-transcription-service/internal/observability/metrics"
)

// sender is the minimal connection surface the hub needs. The real
// implementation is the per-socket writer in server.go.
type sender interface {
	send(v any) error
}

// Hub fans live session events out to every connection observing a
// meeting. Delivery is at-most-once: a failed write drops that one
// message for that one observer and never blocks the session.
//
// Hub implements session.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[sender]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[sender]struct{})}
}

// Join subscribes a connection to a meeting's events.
func (h *Hub) Join(meetingID string, c sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[meetingID]
	if !ok {
		room = make(map[sender]struct{})
		h.rooms[meetingID] = room
	}
	room[c] = struct{}{}
}

// Leave removes a connection from every meeting it observes.
func (h *Hub) Leave(c sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for meetingID, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, meetingID)
		}
	}
}

// broadcast sends one message to every observer of a meeting.
func (h *Hub) broadcast(meetingID string, v any) {
	h.mu.RLock()
	observers := make([]sender, 0, len(h.rooms[meetingID]))
	for c := range h.rooms[meetingID] {
		observers = append(observers, c)
	}
	h.mu.RUnlock()

	for _, c := range observers {
		if err := c.send(v); err != nil {
			metrics.DefaultMetrics.BroadcastsDropped.Inc()
			logger := logging.WithMeeting(meetingID)
			logger.Debug().Err(err).Msg("broadcast dropped")
		}
	}
}

// Transcript delivers a live transcript event to the meeting room.
func (h *Hub) Transcript(meetingID string, ev models.TranscriptEvent, speakerName string) {
	h.broadcast(meetingID, transcriptMessage{
		Type:        "transcript",
		Transcript:  ev.Text,
		SpeakerTag:  ev.SpeakerTag,
		SpeakerName: speakerName,
		IsFinal:     ev.IsFinal,
		Confidence:  ev.Confidence,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		Words:       ev.Words,
	})
}

// SpeakerEnrolled announces a mapping created by name extraction.
func (h *Hub) SpeakerEnrolled(meetingID string, mapping models.SpeakerMapping, result models.NameResult) {
	h.broadcast(meetingID, speakerEnrolledMessage{
		Type:        "speakerEnrolled",
		SpeakerTag:  mapping.SpeakerTag,
		SpeakerName: mapping.SpeakerName,
		Confidence:  result.Confidence,
		Method:      result.Method,
	})
}

// StreamRestarted announces a transparent provider restart.
func (h *Hub) StreamRestarted(meetingID string) {
	h.broadcast(meetingID, streamRestartedMessage{Type: "streamRestarted"})
}

// SessionError surfaces a non-fatal session error to the room.
func (h *Hub) SessionError(meetingID string, message string) {
	h.broadcast(meetingID, errorMessage{Type: "error", Message: message})
}

// MappingUpdated announces a manual speaker rename.
func (h *Hub) MappingUpdated(mapping models.SpeakerMapping) {
	h.broadcast(mapping.MeetingID, mappingUpdatedMessage{
		Type:        "speakerMappingUpdated",
		MeetingID:   mapping.MeetingID,
		SpeakerTag:  mapping.SpeakerTag,
		SpeakerName: mapping.SpeakerName,
	})
}

// MappingRemoved announces a mapping deletion.
func (h *Hub) MappingRemoved(meetingID string, speakerTag int) {
	h.broadcast(meetingID, mappingRemovedMessage{
		Type:       "speakerMappingRemoved",
		MeetingID:  meetingID,
		SpeakerTag: speakerTag,
	})
}
