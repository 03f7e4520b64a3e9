// Package stt defines the interface for Speech-to-Text providers and
// the managed stream that wraps them.
package stt

import (
	"context"

	"meeting-transcription-service/internal/models"
)

// Callback receives canonical transcript events from an STT provider.
type Callback interface {
	// OnResult is called for every normalized recognition result,
	// interim and final.
	OnResult(ev models.TranscriptEvent)

	// OnError is called when an error occurs during transcription.
	OnError(err error)
}

// StreamConfig holds provider-independent stream parameters.
// Audio is always PCM16 mono.
type StreamConfig struct {
	SampleRateHz    int
	LanguageCode    string
	MaxSpeakerCount int
	InterimResults  bool
}

// Adapter defines the interface for a single provider stream.
// An Adapter is single-use: after Close it cannot be restarted.
type Adapter interface {
	// Start begins a streaming transcription session.
	Start(ctx context.Context, cb Callback) error

	// SendAudio sends one audio frame to the STT provider.
	SendAudio(ctx context.Context, audio []byte) error

	// Close ends the session and releases resources.
	Close() error
}

// Factory creates provider streams and reports provider availability.
// Providers are selected once at session start by a fixed preference
// order; business logic never branches on the provider afterwards.
type Factory interface {
	// Name returns the provider identifier ("google", "deepgram").
	Name() string

	// Available reports whether the provider is configured and
	// reachable enough to attempt a stream.
	Available(ctx context.Context) bool

	// NewAdapter creates a fresh single-use stream adapter.
	NewAdapter(ctx context.Context, cfg StreamConfig) (Adapter, error)
}
