package stt_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/service/stt"
	"meeting-transcription-service/internal/service/stt/mock"
)

// recorder collects stream notifications for assertions.
type recorder struct {
	mu         sync.Mutex
	events     []models.TranscriptEvent
	restarting int
	restarted  int
	errs       []error
	order      []string
}

func (r *recorder) OnTranscript(ev models.TranscriptEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.order = append(r.order, "transcript")
}

func (r *recorder) OnRestarting() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restarting++
	r.order = append(r.order, "restarting")
}

func (r *recorder) OnRestarted(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restarted = count
	r.order = append(r.order, "restarted")
}

func (r *recorder) OnStreamError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.order = append(r.order, "error")
}

// blockingFactory wraps a mock factory and blocks NewAdapter until
// released, exposing the window in which the stream is restarting.
type blockingFactory struct {
	*mock.Factory
	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

func (f *blockingFactory) NewAdapter(ctx context.Context, cfg stt.StreamConfig) (stt.Adapter, error) {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.gate, f.entered = nil, nil
	f.mu.Unlock()
	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	return f.Factory.NewAdapter(ctx, cfg)
}

func (f *blockingFactory) blockNext() (release func(), entered chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	f.entered = make(chan struct{})
	return func() { close(gate) }, f.entered
}

func newTestStream(t *testing.T, factory stt.Factory, rec *recorder) *stt.Stream {
	t.Helper()
	s := stt.NewStream(factory, stt.StreamConfig{SampleRateHz: 16000}, rec, time.Hour, zerolog.Nop())
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStream_FeedDeliversFrames(t *testing.T) {
	factory := mock.NewFactory("mock", true)
	rec := &recorder{}
	s := newTestStream(t, factory, rec)

	if !s.Feed(context.Background(), []byte{1, 2, 3}) {
		t.Fatal("Feed returned false on open stream")
	}
	frames := factory.Adapter(0).Frames()
	if len(frames) != 1 || len(frames[0]) != 3 {
		t.Errorf("expected one 3-byte frame, got %v", frames)
	}
}

func TestStream_FeedAfterCloseReturnsFalse(t *testing.T) {
	factory := mock.NewFactory("mock", true)
	rec := &recorder{}
	s := newTestStream(t, factory, rec)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.Feed(context.Background(), []byte{1}) {
		t.Error("Feed returned true after Close")
	}
	if !factory.Adapter(0).Closed() {
		t.Error("expected underlying adapter closed")
	}
}

func TestStream_RestartRejectsFramesUntilReplacementOpens(t *testing.T) {
	factory := &blockingFactory{Factory: mock.NewFactory("mock", true)}
	rec := &recorder{}
	s := newTestStream(t, factory, rec)

	release, entered := factory.blockNext()
	done := make(chan struct{})
	go func() {
		s.Restart()
		close(done)
	}()
	<-entered

	// Replacement stream not open yet: frames must be rejected.
	if s.Active() {
		t.Error("expected stream inactive during restart")
	}
	if s.Feed(context.Background(), []byte{9}) {
		t.Error("Feed accepted a frame during restart")
	}

	release()
	<-done

	// Replacement open: frames accepted again.
	if !s.Active() {
		t.Error("expected stream active after restart")
	}
	if !s.Feed(context.Background(), []byte{7}) {
		t.Error("Feed rejected a frame after restart completed")
	}
	if got := factory.Adapter(1).Frames(); len(got) != 1 {
		t.Errorf("expected replacement adapter to receive 1 frame, got %d", len(got))
	}
	if len(factory.Adapter(0).Frames()) != 0 {
		t.Error("pre-restart adapter received post-restart frames")
	}
	if s.RestartCount() != 1 {
		t.Errorf("RestartCount = %d, want 1", s.RestartCount())
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.restarting != 1 || rec.restarted != 1 {
		t.Errorf("restarting=%d restarted=%d, want 1/1", rec.restarting, rec.restarted)
	}
}

func TestStream_DurationErrorTriggersRestart(t *testing.T) {
	factory := mock.NewFactory("mock", true)
	rec := &recorder{}
	s := newTestStream(t, factory, rec)

	factory.Adapter(0).EmitError(errors.New("exceeded maximum allowed stream duration"))

	deadline := time.After(2 * time.Second)
	for s.RestartCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("restart did not happen after duration-limit error")
		case <-time.After(5 * time.Millisecond):
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errs) != 0 {
		t.Errorf("duration-limit error must not surface as session error, got %v", rec.errs)
	}
}

func TestStream_HardErrorSurfacesNonFatally(t *testing.T) {
	factory := mock.NewFactory("mock", true)
	rec := &recorder{}
	s := newTestStream(t, factory, rec)

	factory.Adapter(0).EmitError(errors.New("permission denied"))

	rec.mu.Lock()
	nErrs := len(rec.errs)
	rec.mu.Unlock()
	if nErrs != 1 {
		t.Fatalf("expected 1 surfaced error, got %d", nErrs)
	}

	// Session-level error is non-fatal: the stream still accepts audio.
	if !s.Feed(context.Background(), []byte{1}) {
		t.Error("Feed rejected a frame after non-fatal error")
	}
}

func TestStream_StaleAdapterResultsDropped(t *testing.T) {
	factory := mock.NewFactory("mock", true)
	rec := &recorder{}
	s := newTestStream(t, factory, rec)

	old := factory.Adapter(0)
	s.Restart()

	// Results from the replaced adapter must not reach the session.
	old.EmitResult(models.TranscriptEvent{Text: "stale", IsFinal: true})
	factory.Adapter(1).EmitResult(models.TranscriptEvent{Text: "fresh", IsFinal: true})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 1 || rec.events[0].Text != "fresh" {
		t.Errorf("expected only the fresh event, got %v", rec.events)
	}
}

func TestIsDurationLimit(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Exceeded maximum allowed stream duration of 305 seconds"), true},
		{errors.New("deadline timeout while reading"), true},
		{errors.New("request timed out"), true},
		{errors.New("permission denied"), false},
		{errors.New("invalid credentials"), false},
	}
	for _, tt := range tests {
		if got := stt.IsDurationLimit(tt.err); got != tt.want {
			t.Errorf("IsDurationLimit(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
