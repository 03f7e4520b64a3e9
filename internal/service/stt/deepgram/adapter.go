// Package deepgram provides a Deepgram live-streaming STT adapter over
// the provider's websocket API.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"meeting-transcription-service/internal/service/stt"
)

// ProviderName is the identifier used in provider preference lists.
const ProviderName = "deepgram"

const (
	defaultURL        = "wss://api.deepgram.com/v1/listen"
	keepAliveInterval = 5 * time.Second
	dialTimeout       = 10 * time.Second
)

// Config holds Deepgram connection settings.
type Config struct {
	APIKey string
	URL    string
	Model  string
}

// Factory creates Deepgram live-streaming adapters.
type Factory struct {
	cfg Config
}

// NewFactory creates a Deepgram STT factory.
func NewFactory(cfg Config) *Factory {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Factory{cfg: cfg}
}

// Name returns the provider identifier.
func (f *Factory) Name() string { return ProviderName }

// Available reports whether an API key is configured.
func (f *Factory) Available(_ context.Context) bool {
	return f.cfg.APIKey != ""
}

// NewAdapter creates a fresh single-use streaming adapter.
func (f *Factory) NewAdapter(_ context.Context, cfg stt.StreamConfig) (stt.Adapter, error) {
	if f.cfg.APIKey == "" {
		return nil, fmt.Errorf("deepgram: API key not configured")
	}
	return &Adapter{provider: f.cfg, cfg: cfg}, nil
}

// Adapter implements stt.Adapter against Deepgram's live websocket.
type Adapter struct {
	provider Config
	cfg      stt.StreamConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

// Start dials the live endpoint and spawns the reader and keep-alive
// loops.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	u, err := url.Parse(a.provider.URL)
	if err != nil {
		return fmt.Errorf("deepgram: bad url: %w", err)
	}

	sampleRate := a.cfg.SampleRateHz
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	language := a.cfg.LanguageCode
	if language == "" {
		language = "en-US"
	}

	q := u.Query()
	q.Set("model", a.provider.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("channels", "1")
	q.Set("language", language)
	q.Set("interim_results", strconv.FormatBool(a.cfg.InterimResults))
	q.Set("diarize", "true")
	q.Set("punctuate", "true")
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Token "+a.provider.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return fmt.Errorf("deepgram: dial: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.done = make(chan struct{})
	done := a.done
	a.mu.Unlock()

	go a.listen(conn, cb)
	go a.keepAlive(conn, done)
	return nil
}

// SendAudio sends one PCM16 frame as a binary websocket message.
func (a *Adapter) SendAudio(_ context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.conn == nil {
		return stt.ErrStreamClosed
	}
	return a.conn.WriteMessage(websocket.BinaryMessage, audio)
}

// Close asks Deepgram to flush the stream and tears the socket down.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	conn := a.conn
	if a.done != nil {
		close(a.done)
	}
	a.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
	return conn.Close()
}

// keepAlive sends periodic KeepAlive messages so Deepgram does not
// time out the stream during silence.
func (a *Adapter) keepAlive(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			a.mu.Lock()
			closed := a.closed
			if !closed {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"KeepAlive"}`))
			}
			a.mu.Unlock()
			if closed {
				return
			}
		}
	}
}

// listen receives transcription messages and forwards normalized
// events. Exits on the first read error, reporting it unless the
// adapter was closed deliberately.
func (a *Adapter) listen(conn *websocket.Conn, cb stt.Callback) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if !closed {
				cb.OnError(err)
			}
			return
		}

		var msg resultMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if ev, ok := normalizeResult(&msg); ok {
			cb.OnResult(ev)
		}
	}
}
