package deepgram

import (
	"strings"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/service/stt"
)

// resultMessage is the subset of Deepgram's live result payload the
// normalizer consumes.
type resultMessage struct {
	Type    string  `json:"type"`
	IsFinal bool    `json:"is_final"`
	Start   float64 `json:"start"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
			Words      []struct {
				Word           string  `json:"word"`
				PunctuatedWord string  `json:"punctuated_word"`
				Start          float64 `json:"start"`
				End            float64 `json:"end"`
				Speaker        int     `json:"speaker"`
			} `json:"words"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// normalizeResult converts a provider-native result into a canonical
// transcript event. Deepgram speaker indexes are zero-based; canonical
// speaker tags are positive, so they are shifted by one.
func normalizeResult(msg *resultMessage) (models.TranscriptEvent, bool) {
	if msg.Type != "Results" || len(msg.Channel.Alternatives) == 0 {
		return models.TranscriptEvent{}, false
	}
	alt := msg.Channel.Alternatives[0]
	if strings.TrimSpace(alt.Transcript) == "" {
		return models.TranscriptEvent{}, false
	}

	words := make([]models.Word, 0, len(alt.Words))
	for _, w := range alt.Words {
		text := w.PunctuatedWord
		if text == "" {
			text = w.Word
		}
		words = append(words, models.Word{
			Word:        text,
			SpeakerTag:  w.Speaker + 1,
			StartOffset: w.Start,
			EndOffset:   w.End,
		})
	}

	return stt.Normalize(alt.Transcript, alt.Confidence, msg.IsFinal, words), true
}
