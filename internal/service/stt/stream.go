package stt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"meeting-transcription-service/internal/models"
)

// DefaultRestartAfter is the safety margin before the provider's hard
// per-stream duration limit (~5 minutes) at which the stream is
// transparently restarted.
const DefaultRestartAfter = 288 * time.Second

// ErrStreamClosed is returned by Open on a closed stream.
var ErrStreamClosed = errors.New("stt: stream closed")

// Events receives notifications from a managed Stream. Callbacks are
// never invoked with the stream's internal lock held.
type Events interface {
	// OnTranscript delivers a normalized recognition result. Event
	// times are rebased so they stay monotonic across restarts.
	OnTranscript(ev models.TranscriptEvent)

	// OnRestarting signals that the stream is being replaced; Feed is
	// rejected until OnRestarted.
	OnRestarting()

	// OnRestarted signals the replacement stream is open.
	OnRestarted(restartCount int)

	// OnStreamError surfaces a non-fatal provider error. The session
	// stays open; the caller decides whether to stop it.
	OnStreamError(err error)
}

// Stream wraps a provider Adapter with transparent restart before the
// provider's per-stream duration limit. During a restart the active
// gate is cleared so Feed rejects frames, preventing interleaving of
// pre- and post-restart audio. Feed never errors: it returns false
// once the underlying stream is closed or unwritable.
type Stream struct {
	factory      Factory
	cfg          StreamConfig
	events       Events
	restartAfter time.Duration
	log          zerolog.Logger

	mu        sync.Mutex
	baseCtx   context.Context
	adapter   Adapter
	cancel    context.CancelFunc
	gen       int
	active    bool
	closed    bool
	restarts  int
	timer     *time.Timer
	openedAt  time.Time
	timeBase  float64
}

// NewStream creates a managed stream. Open must be called before Feed.
func NewStream(factory Factory, cfg StreamConfig, events Events, restartAfter time.Duration, log zerolog.Logger) *Stream {
	if restartAfter <= 0 {
		restartAfter = DefaultRestartAfter
	}
	return &Stream{
		factory:      factory,
		cfg:          cfg,
		events:       events,
		restartAfter: restartAfter,
		log:          log.With().Str("sttProvider", factory.Name()).Logger(),
	}
}

// genCallback tags adapter callbacks with the stream generation they
// belong to, so a replaced adapter's late callbacks are dropped.
type genCallback struct {
	s   *Stream
	gen int
}

func (c *genCallback) OnResult(ev models.TranscriptEvent) { c.s.deliver(c.gen, ev) }
func (c *genCallback) OnError(err error)                  { c.s.handleError(c.gen, err) }

// Open opens the initial provider stream. Fails if the provider is
// unreachable or misconfigured.
func (s *Stream) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	s.baseCtx = ctx
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	adapter, cancel, err := s.openAdapter(gen)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.adapter = adapter
	s.cancel = cancel
	s.active = true
	s.openedAt = time.Now()
	s.timeBase = 0
	s.timer = time.AfterFunc(s.restartAfter, s.Restart)
	s.mu.Unlock()

	s.log.Info().Msg("Provider stream opened")
	return nil
}

// Feed sends one audio frame. Returns false once the stream is closed,
// restarting or unwritable; it never raises.
func (s *Stream) Feed(ctx context.Context, frame []byte) bool {
	s.mu.Lock()
	if s.closed || !s.active || s.adapter == nil {
		s.mu.Unlock()
		return false
	}
	adapter := s.adapter
	gen := s.gen
	s.mu.Unlock()

	if err := adapter.SendAudio(ctx, frame); err != nil {
		if IsDurationLimit(err) {
			s.log.Warn().Err(err).Msg("Stream duration limit hit on write, restarting")
			go s.Restart()
		} else {
			s.handleError(gen, err)
		}
		return false
	}
	return true
}

// Active reports whether Feed currently accepts frames.
func (s *Stream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && !s.closed
}

// RestartCount returns how many transparent restarts have happened.
func (s *Stream) RestartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

// Provider returns the provider identifier backing this stream.
func (s *Stream) Provider() string { return s.factory.Name() }

// Restart replaces the provider stream. Invisible to callers except
// for the OnRestarting/OnRestarted notifications; frames fed while the
// replacement opens are rejected. Serialized per stream.
func (s *Stream) Restart() {
	s.mu.Lock()
	if s.closed || !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	old := s.adapter
	oldCancel := s.cancel
	s.adapter = nil
	s.cancel = nil
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.events.OnRestarting()
	s.log.Info().Int("generation", gen).Msg("Restarting provider stream")

	if old != nil {
		_ = old.Close()
	}
	if oldCancel != nil {
		oldCancel()
	}

	adapter, cancel, err := s.openAdapter(gen)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if adapter != nil {
			_ = adapter.Close()
			cancel()
		}
		return
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("Failed to open replacement stream")
		s.events.OnStreamError(err)
		return
	}
	s.adapter = adapter
	s.cancel = cancel
	s.active = true
	s.restarts++
	s.timeBase = time.Since(s.openedAt).Seconds()
	s.timer = time.AfterFunc(s.restartAfter, s.Restart)
	count := s.restarts
	s.mu.Unlock()

	s.log.Info().Int("restartCount", count).Msg("Provider stream restarted")
	s.events.OnRestarted(count)
}

// Close tears down the stream. Idempotent; Feed returns false forever
// after.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.active = false
	if s.timer != nil {
		s.timer.Stop()
	}
	adapter := s.adapter
	cancel := s.cancel
	s.adapter = nil
	s.cancel = nil
	s.mu.Unlock()

	var err error
	if adapter != nil {
		err = adapter.Close()
	}
	if cancel != nil {
		cancel()
	}
	s.log.Info().Msg("Provider stream closed")
	return err
}

// openAdapter creates and starts a fresh adapter for one generation.
// The adapter's context outlives this call and is cancelled on the
// next restart or on Close.
func (s *Stream) openAdapter(gen int) (Adapter, context.CancelFunc, error) {
	s.mu.Lock()
	base := s.baseCtx
	s.mu.Unlock()
	if base == nil {
		base = context.Background()
	}

	ctx, cancel := context.WithCancel(base)
	adapter, err := s.factory.NewAdapter(ctx, s.cfg)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if err := adapter.Start(ctx, &genCallback{s: s, gen: gen}); err != nil {
		_ = adapter.Close()
		cancel()
		return nil, nil, err
	}
	return adapter, cancel, nil
}

// deliver forwards a result to the session unless it belongs to a
// replaced generation. Times are rebased so they stay monotonic
// across restarts.
func (s *Stream) deliver(gen int, ev models.TranscriptEvent) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	base := s.timeBase
	s.mu.Unlock()

	if base > 0 {
		ev.StartTime += base
		ev.EndTime += base
		for i := range ev.Words {
			ev.Words[i].StartOffset += base
			ev.Words[i].EndOffset += base
		}
	}
	s.events.OnTranscript(ev)
}

// handleError classifies a provider error: duration/timeout conditions
// restart transparently, everything else surfaces as a non-fatal
// session error.
func (s *Stream) handleError(gen int, err error) {
	s.mu.Lock()
	stale := s.closed || gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}

	if IsDurationLimit(err) {
		s.log.Warn().Err(err).Msg("Stream duration limit reached, restarting")
		go s.Restart()
		return
	}

	s.log.Error().Err(err).Msg("Provider stream error")
	s.events.OnStreamError(err)
}
