// Package mock provides a scripted STT adapter for testing without
// cloud credentials. Tests drive results and errors explicitly through
// EmitResult/EmitError, making callback timing deterministic.
package mock

import (
	"context"
	"errors"
	"sync"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/service/stt"
)

// Adapter implements stt.Adapter with test-controlled behavior.
type Adapter struct {
	mu       sync.Mutex
	cb       stt.Callback
	started  bool
	closed   bool
	frames   [][]byte
	sendErr  error
	startErr error
}

// New creates a mock adapter.
func New() *Adapter {
	return &Adapter{}
}

// Start begins a mock transcription session.
func (a *Adapter) Start(_ context.Context, cb stt.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.startErr != nil {
		return a.startErr
	}
	a.cb = cb
	a.started = true
	return nil
}

// SendAudio records the frame, or returns the configured error.
func (a *Adapter) SendAudio(_ context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.New("mock: send on closed adapter")
	}
	if a.sendErr != nil {
		return a.sendErr
	}
	frame := make([]byte, len(audio))
	copy(frame, audio)
	a.frames = append(a.frames, frame)
	return nil
}

// Close ends the mock session.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// EmitResult pushes a result through the registered callback.
func (a *Adapter) EmitResult(ev models.TranscriptEvent) {
	a.mu.Lock()
	cb := a.cb
	a.mu.Unlock()
	if cb != nil {
		cb.OnResult(ev)
	}
}

// EmitError pushes an error through the registered callback.
func (a *Adapter) EmitError(err error) {
	a.mu.Lock()
	cb := a.cb
	a.mu.Unlock()
	if cb != nil {
		cb.OnError(err)
	}
}

// FailSends makes subsequent SendAudio calls return err.
func (a *Adapter) FailSends(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sendErr = err
}

// Frames returns a copy of all frames received so far.
func (a *Adapter) Frames() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]byte, len(a.frames))
	copy(out, a.frames)
	return out
}

// Closed reports whether Close was called.
func (a *Adapter) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Factory implements stt.Factory, handing out mock adapters and
// remembering every adapter it created.
type Factory struct {
	mu        sync.Mutex
	name      string
	available bool
	newErr    error
	adapters  []*Adapter
}

// NewFactory creates a mock factory reporting the given availability.
func NewFactory(name string, available bool) *Factory {
	return &Factory{name: name, available: available}
}

// Name returns the configured provider name.
func (f *Factory) Name() string { return f.name }

// Available reports the configured availability.
func (f *Factory) Available(_ context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

// SetAvailable flips availability.
func (f *Factory) SetAvailable(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = v
}

// FailNext makes the next NewAdapter call return err.
func (f *Factory) FailNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newErr = err
}

// NewAdapter creates and remembers a mock adapter.
func (f *Factory) NewAdapter(_ context.Context, _ stt.StreamConfig) (stt.Adapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newErr != nil {
		err := f.newErr
		f.newErr = nil
		return nil, err
	}
	a := New()
	f.adapters = append(f.adapters, a)
	return a, nil
}

// Adapter returns the i-th adapter created, or nil.
func (f *Factory) Adapter(i int) *Adapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.adapters) {
		return nil
	}
	return f.adapters[i]
}

// Created returns how many adapters the factory has handed out.
func (f *Factory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adapters)
}
