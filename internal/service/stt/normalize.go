package stt

import "meeting-transcription-service/internal/models"

// DominantSpeaker computes the dominant speaker for an utterance: the
// tag with the highest word count (majority vote over word-level
// tags), ties broken by the lower tag id. Words without a positive
// tag carry no vote. Returns 1 when no word casts a vote so speaker
// tags stay positive.
func DominantSpeaker(words []models.Word) int {
	votes := make(map[int]int)
	for _, w := range words {
		if w.SpeakerTag > 0 {
			votes[w.SpeakerTag]++
		}
	}
	if len(votes) == 0 {
		return 1
	}
	best, bestCount := 0, 0
	for tag, count := range votes {
		if count > bestCount || (count == bestCount && tag < best) {
			best, bestCount = tag, count
		}
	}
	return best
}

// SegmentTiming derives segment start and end from word-level timing:
// start is the first word's start, end the last word's end. Without
// word timing both default to 0.
func SegmentTiming(words []models.Word) (start, end float64) {
	if len(words) == 0 {
		return 0, 0
	}
	return words[0].StartOffset, words[len(words)-1].EndOffset
}

// Normalize assembles a canonical transcript event from normalized
// words and the recognized alternative's text and confidence.
// A missing confidence defaults to 0.
func Normalize(text string, confidence float64, isFinal bool, words []models.Word) models.TranscriptEvent {
	start, end := SegmentTiming(words)
	return models.TranscriptEvent{
		Text:       text,
		Confidence: confidence,
		IsFinal:    isFinal,
		SpeakerTag: DominantSpeaker(words),
		Words:      words,
		StartTime:  start,
		EndTime:    end,
	}
}
