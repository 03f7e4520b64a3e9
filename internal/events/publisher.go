// Package events mirrors transcript activity onto Kafka so downstream
// consumers (search indexing, analytics) see the same segments the
// store does. Publishing is best effort and never blocks a session.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"meeting-transcription-service/internal/config"
	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/observability/logging"
	"meeting-transcription-service/internal/observability/metrics"
)

// Publisher writes transcript events to two Kafka topics: one for
// final live segments as they are persisted and one for the full
// reconciled transcript after post-processing. When Kafka is disabled
// it degrades to log-only mode.
type Publisher struct {
	writerFinal *kafka.Writer
	writerBatch *kafka.Writer
	topicFinal  string
	topicBatch  string
	principal   string
	enabled     bool
}

// New builds a Publisher from the Kafka section of the service
// configuration. A disabled or broker-less config yields a log-only
// publisher that is safe to use everywhere.
func New(cfg config.KafkaConfig) *Publisher {
	log := logging.WithComponent("events")

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			topicFinal: cfg.TopicFinal,
			topicBatch: cfg.TopicBatch,
			principal:  cfg.Principal,
		}
	}

	// Longer dial timeout to survive slow DNS in cluster environments.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{Dial: dialer.DialFunc}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic_final", cfg.TopicFinal).
		Str("topic_batch", cfg.TopicBatch).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerFinal: newWriter(cfg.TopicFinal),
		writerBatch: newWriter(cfg.TopicBatch),
		topicFinal:  cfg.TopicFinal,
		topicBatch:  cfg.TopicBatch,
		principal:   cfg.Principal,
		enabled:     true,
	}
}

// segmentEvent is the wire shape for a single mirrored segment.
type segmentEvent struct {
	MeetingID string                   `json:"meetingId"`
	Segment   models.TranscriptSegment `json:"segment"`
	EmittedAt time.Time                `json:"emittedAt"`
}

// transcriptEvent is the wire shape for a reconciled transcript.
type transcriptEvent struct {
	MeetingID string                     `json:"meetingId"`
	Segments  []models.TranscriptSegment `json:"segments"`
	EmittedAt time.Time                  `json:"emittedAt"`
}

// PublishFinal mirrors one persisted live segment, keyed by meeting so
// a meeting's segments stay ordered within a partition.
func (p *Publisher) PublishFinal(ctx context.Context, meetingID string, seg models.TranscriptSegment) error {
	return p.publish(ctx, p.writerFinal, p.topicFinal, meetingID, segmentEvent{
		MeetingID: meetingID,
		Segment:   seg,
		EmittedAt: time.Now().UTC(),
	})
}

// PublishReconciled emits the full post-processed transcript.
func (p *Publisher) PublishReconciled(ctx context.Context, meetingID string, segments []models.TranscriptSegment) error {
	return p.publish(ctx, p.writerBatch, p.topicBatch, meetingID, transcriptEvent{
		MeetingID: meetingID,
		Segments:  segments,
		EmittedAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, key string, event any) error {
	log := logging.WithMeeting(key)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if !p.enabled || writer == nil {
		log.Debug().Str("topic", topic).RawJSON("payload", payload).Msg("event (log-only)")
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		metrics.DefaultMetrics.KafkaPublishErrors.WithLabelValues(topic).Inc()
		log.Error().Err(err).Str("topic", topic).Msg("Kafka publish failed")
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	metrics.DefaultMetrics.KafkaPublishTotal.WithLabelValues(topic).Inc()
	return nil
}

// Close flushes and closes both writers.
func (p *Publisher) Close() error {
	var err error
	for _, w := range []*kafka.Writer{p.writerFinal, p.writerBatch} {
		if w == nil {
			continue
		}
		if e := w.Close(); e != nil {
			err = e
		}
	}
	return err
}
