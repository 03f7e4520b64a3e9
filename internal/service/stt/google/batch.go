package google

import (
	"context"
	"fmt"
	"os"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/service/stt"
)

// BatchTranscribe runs whole-file recognition on a 16kHz mono PCM WAV
// recording with speaker diarization enabled, returning final events
// in temporal order. Used by the post-processing pipeline when a
// meeting has no live segments to reconcile.
func BatchTranscribe(ctx context.Context, path string, cfg stt.StreamConfig) ([]models.TranscriptEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	defer client.Close()

	sampleRate := int32(cfg.SampleRateHz)
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	language := cfg.LanguageCode
	if language == "" {
		language = "en-US"
	}
	maxSpeakers := int32(cfg.MaxSpeakerCount)
	if maxSpeakers <= 0 {
		maxSpeakers = 6
	}

	op, err := client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
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
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("batch recognize: %w", err)
	}

	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch recognize wait: %w", err)
	}

	events := make([]models.TranscriptEvent, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}
		events = append(events, stt.Normalize(
			alt.Transcript,
			float64(alt.Confidence),
			true,
			normalizeWords(alt.Words),
		))
	}
	return events, nil
}
