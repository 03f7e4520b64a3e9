package google

import (
	"fmt"

	"cloud.google.com/go/speech/apiv1/speechpb"
	rpcstatus "google.golang.org/genproto/googleapis/rpc/status"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/service/stt"
)

// normalizeResponse converts a provider-native streaming response into
// canonical transcript events, one per recognized result.
func normalizeResponse(resp *speechpb.StreamingRecognizeResponse) []models.TranscriptEvent {
	events := make([]models.TranscriptEvent, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		events = append(events, stt.Normalize(
			alt.Transcript,
			float64(alt.Confidence),
			r.IsFinal,
			normalizeWords(alt.Words),
		))
	}
	return events
}

// normalizeWords converts Google word info into canonical words.
// Offsets are seconds from the start of the provider stream.
func normalizeWords(words []*speechpb.WordInfo) []models.Word {
	if len(words) == 0 {
		return nil
	}
	out := make([]models.Word, 0, len(words))
	for _, w := range words {
		word := models.Word{
			Word:       w.Word,
			SpeakerTag: int(w.SpeakerTag),
		}
		if w.StartTime != nil {
			word.StartOffset = w.StartTime.AsDuration().Seconds()
		}
		if w.EndTime != nil {
			word.EndOffset = w.EndTime.AsDuration().Seconds()
		}
		out = append(out, word)
	}
	return out
}

// streamErr wraps an in-band status from the streaming response.
func streamErr(s *rpcstatus.Status) error {
	return fmt.Errorf("google stt: %s (code %d)", s.GetMessage(), s.GetCode())
}
