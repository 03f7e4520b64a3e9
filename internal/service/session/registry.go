package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meeting-transcription-service/internal/observability/metrics"
	"meeting-transcription-service/internal/service/stt"
	"meeting-transcription-service/internal/store"
)

// ErrNoProviderAvailable is returned when no configured speech
// provider reports available at session start.
var ErrNoProviderAvailable = errors.New("no speech provider available: check provider configuration")

// ErrSessionNotFound is returned for operations on unknown sessions.
var ErrSessionNotFound = errors.New("session not found")

// RecorderFactory opens a frame recorder for a new session. May be
// nil, in which case sessions are not recorded and the post-recording
// diarization pass is skipped.
type RecorderFactory func(sessionID string) (FrameRecorder, error)

// Registry owns all active stream sessions, keyed by an opaque id.
// Sessions are fully independent of one another; no component retains
// long-lived references into another session's internals.
type Registry struct {
	factories   []stt.Factory
	streamCfg   stt.StreamConfig
	restart     time.Duration
	segments    store.SegmentStore
	mappings    store.SpeakerMappingStore
	broadcaster Broadcaster
	publisher   SegmentPublisher
	newRecorder RecorderFactory
	log         zerolog.Logger

	sessions syncMap
}

// syncMap is a typed concurrency-safe session map.
type syncMap struct {
	mu sync.RWMutex
	m  map[string]*Session
}

// NewRegistry creates a session registry. Factories are tried in
// preference order at session start.
func NewRegistry(
	factories []stt.Factory,
	streamCfg stt.StreamConfig,
	restartAfter time.Duration,
	segments store.SegmentStore,
	mappings store.SpeakerMappingStore,
	broadcaster Broadcaster,
	publisher SegmentPublisher,
	newRecorder RecorderFactory,
	log zerolog.Logger,
) *Registry {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &Registry{
		factories:   factories,
		streamCfg:   streamCfg,
		restart:     restartAfter,
		segments:    segments,
		mappings:    mappings,
		broadcaster: broadcaster,
		publisher:   publisher,
		newRecorder: newRecorder,
		log:         log,
		sessions:    syncMap{m: make(map[string]*Session)},
	}
}

// SelectProvider returns the first configured provider reporting
// available, in preference order.
func (r *Registry) SelectProvider(ctx context.Context) (stt.Factory, error) {
	for _, f := range r.factories {
		if f.Available(ctx) {
			return f, nil
		}
	}
	return nil, ErrNoProviderAvailable
}

// ProviderStatus reports whether any provider is available and which
// one would be chosen.
func (r *Registry) ProviderStatus(ctx context.Context) (available bool, provider string) {
	f, err := r.SelectProvider(ctx)
	if err != nil {
		return false, ""
	}
	return true, f.Name()
}

// Start creates a session, opens the provider stream and begins
// accepting audio. Fails with ErrNoProviderAvailable when neither
// provider is configured, or with the provider's open error.
func (r *Registry) Start(ctx context.Context, meetingID, userID string, mode Mode) (*Session, error) {
	factory, err := r.SelectProvider(ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := r.log.With().
		Str("sessionId", id).
		Str("meetingId", meetingID).
		Str("mode", mode.String()).
		Logger()

	s := &Session{
		ID:        id,
		MeetingID: meetingID,
		UserID:    userID,
		Mode:      mode,
		state:     StateIdle,
		log:       log,
	}
	s.agg = newAggregator(meetingID, mode, r.segments, r.mappings, r.broadcaster, r.publisher, log)

	if r.newRecorder != nil {
		rec, err := r.newRecorder(id)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to open session recorder, continuing without recording")
		} else {
			s.recorder = rec
		}
	}

	s.setState(StateConnecting)
	stream := stt.NewStream(factory, r.streamCfg, s, r.restart, log)

	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()

	if err := stream.Open(ctx); err != nil {
		s.close()
		return nil, err
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()
	s.setState(StateStreaming)

	r.sessions.mu.Lock()
	r.sessions.m[id] = s
	r.sessions.mu.Unlock()

	metrics.DefaultMetrics.SessionsTotal.WithLabelValues(mode.String(), factory.Name()).Inc()
	metrics.DefaultMetrics.SessionsActive.Inc()
	log.Info().Str("sttProvider", factory.Name()).Msg("Session started")
	return s, nil
}

// Get returns an active session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.sessions.mu.RLock()
	defer r.sessions.mu.RUnlock()
	s, ok := r.sessions.m[id]
	return s, ok
}

// Feed routes one audio frame into a session. Unknown or closed
// sessions return false.
func (r *Registry) Feed(id string, frame []byte) bool {
	s, ok := r.Get(id)
	if !ok {
		return false
	}
	return s.Feed(frame)
}

// Stop closes a session and removes it from the registry. This is the
// sole cleanup path; client disconnect must call it too.
func (r *Registry) Stop(id string) (*Session, error) {
	r.sessions.mu.Lock()
	s, ok := r.sessions.m[id]
	if ok {
		delete(r.sessions.m, id)
	}
	r.sessions.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	s.close()
	metrics.DefaultMetrics.SessionsActive.Dec()
	return s, nil
}

// InvalidateNames clears the mapping cache of every session attached
// to a meeting, so manual renames are picked up on the next resolve.
func (r *Registry) InvalidateNames(meetingID string) {
	r.sessions.mu.RLock()
	defer r.sessions.mu.RUnlock()
	for _, s := range r.sessions.m {
		if s.MeetingID == meetingID {
			s.agg.invalidate()
		}
	}
}

// CloseAll stops every session, used at shutdown.
func (r *Registry) CloseAll() {
	r.sessions.mu.Lock()
	all := make([]*Session, 0, len(r.sessions.m))
	for _, s := range r.sessions.m {
		all = append(all, s)
	}
	r.sessions.m = make(map[string]*Session)
	r.sessions.mu.Unlock()

	for _, s := range all {
		s.close()
		metrics.DefaultMetrics.SessionsActive.Dec()
	}
}
