// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meeting_transcription"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   *prometheus.CounterVec
	SessionsActive  prometheus.Gauge
	SessionDuration prometheus.Histogram
	StreamRestarts  prometheus.Counter

	// Transcript metrics
	TranscriptsInterim prometheus.Counter
	TranscriptsFinal   prometheus.Counter
	SegmentsPersisted  prometheus.Counter

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter
	AudioFramesRejected prometheus.Counter

	// Enrollment metrics
	NamesExtracted *prometheus.CounterVec
	NamesRejected  prometheus.Counter

	// STT metrics
	STTErrors *prometheus.CounterVec

	// Diarization reconciliation metrics
	ReconcileRuns     *prometheus.CounterVec
	ReconcileDuration prometheus.Histogram
	SegmentsMerged    prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal  *prometheus.CounterVec
	KafkaPublishErrors *prometheus.CounterVec

	// Broadcast metrics
	BroadcastsDropped prometheus.Counter
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of stream sessions started",
		}, []string{"mode", "provider"}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active stream sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of stream sessions in seconds",
			Buckets:   []float64{1, 5, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		StreamRestarts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_restarts_total",
			Help:      "Total number of transparent provider stream restarts",
		}),

		TranscriptsInterim: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_interim_total",
			Help:      "Total number of interim transcript events received",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total number of final transcript events received",
		}),
		SegmentsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_persisted_total",
			Help:      "Total number of transcript segments persisted",
		}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received",
		}),
		AudioFramesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_rejected_total",
			Help:      "Total audio frames rejected (stream restarting or closed)",
		}),

		NamesExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "names_extracted_total",
			Help:      "Total speaker names extracted during enrollment",
		}, []string{"method", "confidence"}),
		NamesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "names_rejected_total",
			Help:      "Total extracted names rejected by validation",
		}),

		STTErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total STT provider errors",
		}, []string{"provider", "kind"}),

		ReconcileRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Total diarization reconciliation runs",
		}, []string{"outcome"}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of diarization reconciliation runs in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		SegmentsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_merged_total",
			Help:      "Total adjacent same-speaker segments merged during reconciliation",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total events published to Kafka",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total Kafka publish errors",
		}, []string{"topic"}),

		BroadcastsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_dropped_total",
			Help:      "Total broadcast messages dropped due to slow observers",
		}),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
