// Package session owns per-connection stream sessions: the state
// machine, the registry routing audio in and events out, and the live
// aggregator that persists finalized segments.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/observability/metrics"
	"meeting-transcription-service/internal/service/stt"
)

// Mode selects what a session does with final transcripts.
type Mode int

const (
	// ModeTranscription persists every final event as a segment.
	ModeTranscription Mode = iota
	// ModeEnrollment runs the name extractor on final events instead
	// of persisting them.
	ModeEnrollment
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeTranscription:
		return "transcription"
	case ModeEnrollment:
		return "enrollment"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", m)
	}
}

// State represents the lifecycle state of a stream session.
type State int

const (
	// StateIdle - session created, stream not yet opened.
	StateIdle State = iota
	// StateConnecting - provider stream is being opened.
	StateConnecting
	// StateStreaming - audio frames are accepted.
	StateStreaming
	// StateRestarting - provider stream is being replaced; frames
	// are rejected until the replacement opens.
	StateRestarting
	// StateClosed - terminal. Feed is a no-op returning false.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateStreaming:
		return "STREAMING"
	case StateRestarting:
		return "RESTARTING"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Session is one client's stream session. Exclusively owned by the
// Registry; there is exactly one logical audio writer per session.
type Session struct {
	ID        string
	MeetingID string
	UserID    string
	Mode      Mode

	mu        sync.RWMutex
	state     State
	stream    *stt.Stream
	recorder  FrameRecorder
	startedAt time.Time

	agg *aggregator
	log zerolog.Logger
}

// FrameRecorder receives a copy of every accepted audio frame, feeding
// the recording used by the post-processing diarization pass.
type FrameRecorder interface {
	WriteFrame(frame []byte) error
	Close() error
	Path() string
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Provider returns the provider identifier serving this session.
func (s *Session) Provider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stream == nil {
		return ""
	}
	return s.stream.Provider()
}

// RestartCount returns how many transparent restarts have happened.
func (s *Session) RestartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stream == nil {
		return 0
	}
	return s.stream.RestartCount()
}

// StartedAt returns the stream start timestamp.
func (s *Session) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// RecordingPath returns the path of the session's audio recording, or
// "" when no recorder is attached.
func (s *Session) RecordingPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.recorder == nil {
		return ""
	}
	return s.recorder.Path()
}

// Feed routes one audio frame into the provider stream. Returns false
// when the session is closed, restarting, or the stream is unwritable;
// it never raises.
func (s *Session) Feed(frame []byte) bool {
	s.mu.RLock()
	state := s.state
	stream := s.stream
	recorder := s.recorder
	s.mu.RUnlock()

	if state != StateStreaming || stream == nil {
		metrics.DefaultMetrics.AudioFramesRejected.Inc()
		return false
	}

	if !stream.Feed(context.Background(), frame) {
		metrics.DefaultMetrics.AudioFramesRejected.Inc()
		return false
	}

	if recorder != nil {
		if err := recorder.WriteFrame(frame); err != nil {
			s.log.Warn().Err(err).Msg("Failed to record audio frame")
		}
	}

	metrics.DefaultMetrics.AudioFramesReceived.Inc()
	metrics.DefaultMetrics.AudioBytesReceived.Add(float64(len(frame)))
	return true
}

// setState transitions the session state. Closed is terminal.
func (s *Session) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = next
}

// close tears down the stream and recorder and marks the session
// terminal. Idempotent.
func (s *Session) close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	stream := s.stream
	recorder := s.recorder
	startedAt := s.startedAt
	s.mu.Unlock()

	if stream != nil {
		_ = stream.Close()
	}
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to close recorder")
		}
	}
	if !startedAt.IsZero() {
		metrics.DefaultMetrics.SessionDuration.Observe(time.Since(startedAt).Seconds())
	}
	s.log.Info().Msg("Session closed")
}

// --- stt.Events implementation ---

// OnTranscript forwards a normalized event to the aggregator.
func (s *Session) OnTranscript(ev models.TranscriptEvent) {
	s.agg.handleEvent(ev)
}

// OnRestarting marks the session restarting; Feed rejects frames.
func (s *Session) OnRestarting() {
	s.setState(StateRestarting)
	s.log.Info().Msg("Session entering restart")
}

// OnRestarted marks the session streaming again and notifies
// observers of the transparent restart.
func (s *Session) OnRestarted(count int) {
	s.setState(StateStreaming)
	metrics.DefaultMetrics.StreamRestarts.Inc()
	s.log.Info().Int("restartCount", count).Msg("Session resumed after restart")
	s.agg.broadcaster.StreamRestarted(s.MeetingID)
}

// OnStreamError surfaces a non-fatal provider error to observers.
// The session stays open for an explicit stop.
func (s *Session) OnStreamError(err error) {
	metrics.DefaultMetrics.STTErrors.WithLabelValues(s.Provider(), "hard").Inc()
	s.log.Error().Err(err).Msg("Non-fatal provider error")
	s.agg.broadcaster.SessionError(s.MeetingID, err.Error())
}
