// Package ws exposes the per-connection bidirectional channel clients
// use to stream microphone audio and receive live transcript events.
// Text frames carry a JSON envelope keyed by "type"; binary frames
// carry raw PCM16 mono 16kHz audio for the connection's session.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/observability/logging"
	"meeting-transcription-service/internal/observability/metrics"
	"meeting-transcription-service/internal/service/namex"
	"meeting-transcription-service/internal/service/postprocess"
	"meeting-transcription-service/internal/service/session"
	"meeting-transcription-service/internal/service/stt"
	"meeting-transcription-service/internal/store"
)

// PostProcessor runs the post-recording pipeline for a meeting. May
// be nil on a Server, which disables post-processing entirely.
type PostProcessor interface {
	Run(ctx context.Context, job postprocess.Job) error
}

// Server upgrades HTTP requests to websocket connections and routes
// client messages into the session layer.
type Server struct {
	registry  *session.Registry
	segments  store.SegmentStore
	mappings  store.SpeakerMappingStore
	hub       *Hub
	post      PostProcessor
	streamCfg stt.StreamConfig
	workDir   string
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

// NewServer wires the websocket endpoint. hub must be the same Hub
// instance registered as the session registry's broadcaster.
func NewServer(
	registry *session.Registry,
	segments store.SegmentStore,
	mappings store.SpeakerMappingStore,
	hub *Hub,
	post PostProcessor,
	streamCfg stt.StreamConfig,
	workDir string,
) *Server {
	return &Server{
		registry:  registry,
		segments:  segments,
		mappings:  mappings,
		hub:       hub,
		post:      post,
		streamCfg: streamCfg,
		workDir:   workDir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: logging.WithComponent("ws"),
	}
}

// wsConn serializes writes onto one websocket connection.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// connState tracks the single session a connection may own.
type connState struct {
	sessionID string
	meetingID string
	mode      session.Mode
}

// ServeHTTP handles one websocket client for the connection lifetime.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := &wsConn{ws: raw}
	state := &connState{}

	defer func() {
		s.teardown(conn, state)
		raw.Close()
	}()

	available, provider := s.registry.ProviderStatus(r.Context())
	_ = conn.send(statusMessage{
		Type:                   "status",
		SpeechServiceAvailable: available,
		Provider:               provider,
	})

	for {
		msgType, payload, err := raw.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.handleAudio(state, payload)
		case websocket.TextMessage:
			var msg clientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				_ = conn.send(errorMessage{Type: "error", Message: "malformed message"})
				continue
			}
			s.dispatch(r.Context(), conn, state, msg)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, conn *wsConn, state *connState, msg clientMessage) {
	switch msg.Type {
	case msgStartTranscription:
		s.handleStart(ctx, conn, state, msg, session.ModeTranscription)
	case msgStartEnrollment:
		s.handleStart(ctx, conn, state, msg, session.ModeEnrollment)
	case msgStopTranscription, msgStopEnrollment:
		s.handleStop(ctx, conn, state)
	case msgEnrollSpeaker:
		s.handleEnrollSpeaker(ctx, conn, msg)
	case msgRemoveSpeakerMapping:
		s.handleRemoveMapping(ctx, conn, msg)
	case msgGetSpeakerMappings:
		s.handleGetMappings(ctx, conn, msg)
	case msgGetTranscript:
		s.handleGetTranscript(ctx, conn, msg)
	default:
		_ = conn.send(errorMessage{Type: "error", Message: "unknown message type: " + msg.Type})
	}
}

func (s *Server) handleStart(ctx context.Context, conn *wsConn, state *connState, msg clientMessage, mode session.Mode) {
	if state.sessionID != "" {
		_ = conn.send(errorMessage{Type: "error", Message: "a session is already active on this connection"})
		return
	}
	if msg.MeetingID == "" {
		_ = conn.send(errorMessage{Type: "error", Message: "meetingId is required"})
		return
	}

	sess, err := s.registry.Start(ctx, msg.MeetingID, msg.UserID, mode)
	if err != nil {
		_ = conn.send(errorMessage{Type: "error", Message: err.Error()})
		return
	}
	state.sessionID = sess.ID
	state.meetingID = msg.MeetingID
	state.mode = mode
	s.hub.Join(msg.MeetingID, conn)

	mappings, err := s.mappings.FindByMeeting(ctx, msg.MeetingID)
	if err != nil {
		mappings = nil
	}
	if mappings == nil {
		mappings = []models.SpeakerMapping{}
	}

	started := "transcriptionStarted"
	if mode == session.ModeEnrollment {
		started = "enrollmentStarted"
	}
	_ = conn.send(sessionStartedMessage{
		Type:            started,
		SessionID:       sess.ID,
		Provider:        sess.Provider(),
		SpeakerMappings: mappings,
	})
}

// handleAudio routes a binary frame into the connection's session.
// Frames without a session or during a restart are dropped silently;
// the session layer accounts for accepted and rejected frames.
func (s *Server) handleAudio(state *connState, frame []byte) {
	if state.sessionID == "" {
		metrics.DefaultMetrics.AudioFramesRejected.Inc()
		return
	}
	s.registry.Feed(state.sessionID, frame)
}

func (s *Server) handleStop(ctx context.Context, conn *wsConn, state *connState) {
	if state.sessionID == "" {
		_ = conn.send(errorMessage{Type: "error", Message: "no active session"})
		return
	}

	sess, err := s.registry.Stop(state.sessionID)
	meetingID := state.meetingID
	mode := state.mode
	state.sessionID = ""
	state.meetingID = ""
	if err != nil {
		_ = conn.send(errorMessage{Type: "error", Message: err.Error()})
		return
	}

	segments, err := s.segments.FindByMeeting(ctx, meetingID)
	if err != nil {
		segments = nil
	}
	if segments == nil {
		segments = []models.TranscriptSegment{}
	}
	_ = conn.send(stoppedMessage{Type: "transcriptionStopped", FullTranscript: segments})

	if mode == session.ModeTranscription && s.post != nil && sess.RecordingPath() != "" {
		job := postprocess.Job{
			MeetingID:     meetingID,
			RecordingPath: sess.RecordingPath(),
			WorkDir:       s.workDir,
			StreamConfig:  s.streamCfg,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
			defer cancel()
			if err := s.post.Run(ctx, job); err != nil {
				logger := logging.WithMeeting(job.MeetingID)
				logger.Error().Err(err).Msg("post-processing failed")
			}
		}()
	}
}

func (s *Server) handleEnrollSpeaker(ctx context.Context, conn *wsConn, msg clientMessage) {
	if msg.MeetingID == "" || msg.SpeakerTag <= 0 {
		_ = conn.send(errorMessage{Type: "error", Message: "meetingId and speakerTag are required"})
		return
	}
	if !namex.IsValidName(msg.SpeakerName) {
		_ = conn.send(errorMessage{Type: "error", Message: "invalid speaker name"})
		return
	}

	mapping := models.SpeakerMapping{
		MeetingID:   msg.MeetingID,
		SpeakerTag:  msg.SpeakerTag,
		SpeakerName: msg.SpeakerName,
		EnrolledAt:  time.Now().UTC(),
	}
	if err := s.mappings.Upsert(ctx, mapping); err != nil {
		_ = conn.send(errorMessage{Type: "error", Message: "failed to save speaker mapping"})
		return
	}
	s.registry.InvalidateNames(msg.MeetingID)
	s.hub.MappingUpdated(mapping)
}

func (s *Server) handleRemoveMapping(ctx context.Context, conn *wsConn, msg clientMessage) {
	if msg.MeetingID == "" || msg.SpeakerTag <= 0 {
		_ = conn.send(errorMessage{Type: "error", Message: "meetingId and speakerTag are required"})
		return
	}
	if err := s.mappings.DeleteByTag(ctx, msg.MeetingID, msg.SpeakerTag); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = conn.send(errorMessage{Type: "error", Message: "speaker mapping not found"})
		} else {
			_ = conn.send(errorMessage{Type: "error", Message: "failed to remove speaker mapping"})
		}
		return
	}
	s.registry.InvalidateNames(msg.MeetingID)
	s.hub.MappingRemoved(msg.MeetingID, msg.SpeakerTag)
}

func (s *Server) handleGetMappings(ctx context.Context, conn *wsConn, msg clientMessage) {
	if msg.MeetingID == "" {
		_ = conn.send(errorMessage{Type: "error", Message: "meetingId is required"})
		return
	}
	s.hub.Join(msg.MeetingID, conn)
	mappings, err := s.mappings.FindByMeeting(ctx, msg.MeetingID)
	if err != nil {
		_ = conn.send(errorMessage{Type: "error", Message: "failed to load speaker mappings"})
		return
	}
	if mappings == nil {
		mappings = []models.SpeakerMapping{}
	}
	_ = conn.send(mappingsMessage{Type: "speakerMappings", MeetingID: msg.MeetingID, Mappings: mappings})
}

func (s *Server) handleGetTranscript(ctx context.Context, conn *wsConn, msg clientMessage) {
	if msg.MeetingID == "" {
		_ = conn.send(errorMessage{Type: "error", Message: "meetingId is required"})
		return
	}
	s.hub.Join(msg.MeetingID, conn)
	segments, err := s.segments.FindByMeeting(ctx, msg.MeetingID)
	if err != nil {
		_ = conn.send(errorMessage{Type: "error", Message: "failed to load transcript"})
		return
	}
	if segments == nil {
		segments = []models.TranscriptSegment{}
	}
	_ = conn.send(transcriptHistoryMessage{Type: "transcriptHistory", MeetingID: msg.MeetingID, Segments: segments})
}

// teardown is the sole cleanup path for a disconnecting client. It
// stops any session the connection owns and leaves all rooms.
func (s *Server) teardown(conn *wsConn, state *connState) {
	s.hub.Leave(conn)
	if state.sessionID == "" {
		return
	}
	if _, err := s.registry.Stop(state.sessionID); err == nil {
		s.log.Info().Str("sessionId", state.sessionID).Msg("Session stopped on disconnect")
	}
	state.sessionID = ""
}
