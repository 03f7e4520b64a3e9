// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Port string

	// STT provider preference order. The first provider reporting
	// available at session start wins.
	ProviderOrder []string

	Google   GoogleConfig
	Deepgram DeepgramConfig

	// StreamRestartAfter is the safety margin before the provider's
	// hard per-stream duration limit at which the stream is restarted.
	StreamRestartAfter time.Duration

	Diarization DiarizationConfig
	Kafka       KafkaConfig

	// RecordingsDir is where per-meeting audio recordings are written
	// for the post-recording diarization pass.
	RecordingsDir string
}

// GoogleConfig holds Google Cloud Speech-to-Text settings.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS.
type GoogleConfig struct {
	LanguageCode    string
	SampleRateHz    int
	MaxSpeakerCount int
}

// DeepgramConfig holds Deepgram live-streaming settings.
type DeepgramConfig struct {
	APIKey string
	URL    string
	Model  string
}

// DiarizationConfig holds the external diarization engine settings.
type DiarizationConfig struct {
	BaseURL string
	Timeout time.Duration
}

// KafkaConfig holds the optional transcript event mirror settings.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicFinal   string
	TopicBatch   string
	Principal    string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          envOrDefault("HTTP_PORT", "8080"),
		ProviderOrder: splitList(envOrDefault("STT_PROVIDERS", "google,deepgram")),
		Google: GoogleConfig{
			LanguageCode:    envOrDefault("GOOGLE_STT_LANGUAGE", "en-US"),
			SampleRateHz:    envInt("GOOGLE_STT_SAMPLE_RATE", 16000),
			MaxSpeakerCount: envInt("GOOGLE_STT_MAX_SPEAKERS", 6),
		},
		Deepgram: DeepgramConfig{
			APIKey: os.Getenv("DEEPGRAM_API_KEY"),
			URL:    envOrDefault("DEEPGRAM_URL", "wss://api.deepgram.com/v1/listen"),
			Model:  envOrDefault("DEEPGRAM_MODEL", "nova-2"),
		},
		StreamRestartAfter: envDuration("STREAM_RESTART_AFTER", 288*time.Second),
		Diarization: DiarizationConfig{
			BaseURL: envOrDefault("DIARIZATION_URL", "http://localhost:8388"),
			Timeout: envDuration("DIARIZATION_TIMEOUT", 300*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:    envBool("KAFKA_ENABLED", false),
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			TopicFinal: envOrDefault("KAFKA_TOPIC_FINAL", "meeting.transcript.final"),
			TopicBatch: envOrDefault("KAFKA_TOPIC_BATCH", "meeting.transcript.reconciled"),
			Principal:  envOrDefault("KAFKA_PRINCIPAL", "svc-meeting-transcription"),
		},
		RecordingsDir: envOrDefault("RECORDINGS_DIR", os.TempDir()),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
