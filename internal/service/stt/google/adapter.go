// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"os"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"meeting-transcription-service/internal/service/stt"
)

// ProviderName is the identifier used in provider preference lists.
const ProviderName = "google"

// Factory creates Google streaming adapters.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type Factory struct{}

// NewFactory creates a Google STT factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Name returns the provider identifier.
func (f *Factory) Name() string { return ProviderName }

// Available reports whether Google credentials are configured.
func (f *Factory) Available(_ context.Context) bool {
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("GOOGLE_CLOUD_PROJECT") != ""
}

// NewAdapter creates a fresh single-use streaming adapter.
func (f *Factory) NewAdapter(ctx context.Context, cfg stt.StreamConfig) (stt.Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Adapter implements stt.Adapter using Google Cloud Speech-to-Text
// streaming recognition with speaker diarization enabled.
type Adapter struct {
	client *speech.Client
	cfg    stt.StreamConfig

	mu     sync.Mutex
	stream speechpb.Speech_StreamingRecognizeClient
	closed bool
}

// Start begins a streaming recognition session, sends the initial
// config and spawns the response listener.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	stream, err := a.client.StreamingRecognize(ctx)
	if err != nil {
		return err
	}

	maxSpeakers := int32(a.cfg.MaxSpeakerCount)
	if maxSpeakers <= 0 {
		maxSpeakers = 6
	}
	sampleRate := int32(a.cfg.SampleRateHz)
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	language := a.cfg.LanguageCode
	if language == "" {
		language = "en-US"
	}

	// Streaming config is the mandatory first message.
	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:              speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz:       sampleRate,
					AudioChannelCount:     1,
					LanguageCode:          language,
					EnableWordTimeOffsets: true,
					DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
						EnableSpeakerDiarization: true,
						MinSpeakerCount:          1,
						MaxSpeakerCount:          maxSpeakers,
					},
				},
				InterimResults: a.cfg.InterimResults,
			},
		},
	})
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.stream = stream
	a.mu.Unlock()

	go a.listen(stream, cb)
	return nil
}

// SendAudio sends one audio frame to Google Speech-to-Text.
func (a *Adapter) SendAudio(_ context.Context, audio []byte) error {
	a.mu.Lock()
	stream := a.stream
	closed := a.closed
	a.mu.Unlock()
	if closed || stream == nil {
		return stt.ErrStreamClosed
	}
	return stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

// Close ends the streaming session.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	stream := a.stream
	a.mu.Unlock()

	var err error
	if stream != nil {
		err = stream.CloseSend()
	}
	if cerr := a.client.Close(); err == nil {
		err = cerr
	}
	return err
}

// listen receives responses from Google and forwards normalized
// events. Exits on the first receive error, reporting it unless the
// adapter was closed deliberately.
func (a *Adapter) listen(stream speechpb.Speech_StreamingRecognizeClient, cb stt.Callback) {
	for {
		resp, err := stream.Recv()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if !closed {
				cb.OnError(err)
			}
			return
		}
		if resp.Error != nil {
			cb.OnError(streamErr(resp.Error))
			continue
		}
		for _, ev := range normalizeResponse(resp) {
			cb.OnResult(ev)
		}
	}
}
