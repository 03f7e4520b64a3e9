package events

import (
	"context"
	"testing"

	"meeting-transcription-service/internal/config"
	"meeting-transcription-service/internal/models"
)

func TestLogOnlyMode(t *testing.T) {
	p := New(config.KafkaConfig{
		Enabled:    false,
		TopicFinal: "meeting.transcript.final",
		TopicBatch: "meeting.transcript.reconciled",
	})

	seg := models.TranscriptSegment{MeetingID: "m1", SpeakerTag: 1, Text: "hello", IsFinal: true}
	if err := p.PublishFinal(context.Background(), "m1", seg); err != nil {
		t.Errorf("PublishFinal in log-only mode: %v", err)
	}
	if err := p.PublishReconciled(context.Background(), "m1", []models.TranscriptSegment{seg}); err != nil {
		t.Errorf("PublishReconciled in log-only mode: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestEnabledWithoutBrokersFallsBack(t *testing.T) {
	p := New(config.KafkaConfig{Enabled: true})
	if p.enabled {
		t.Error("publisher must stay disabled without brokers")
	}
}
