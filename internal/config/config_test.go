package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if len(cfg.ProviderOrder) != 2 || cfg.ProviderOrder[0] != "google" || cfg.ProviderOrder[1] != "deepgram" {
		t.Errorf("expected provider order [google deepgram], got %v", cfg.ProviderOrder)
	}
	if cfg.Google.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Google.SampleRateHz)
	}
	if cfg.StreamRestartAfter != 288*time.Second {
		t.Errorf("expected default restart margin 288s, got %v", cfg.StreamRestartAfter)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected kafka disabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STT_PROVIDERS", "deepgram")
	t.Setenv("STREAM_RESTART_AFTER", "60s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if len(cfg.ProviderOrder) != 1 || cfg.ProviderOrder[0] != "deepgram" {
		t.Errorf("expected provider order [deepgram], got %v", cfg.ProviderOrder)
	}
	if cfg.StreamRestartAfter != time.Minute {
		t.Errorf("expected restart margin 60s, got %v", cfg.StreamRestartAfter)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestSplitList_Empty(t *testing.T) {
	if got := splitList(""); got != nil {
		t.Errorf("expected nil for empty list, got %v", got)
	}
	if got := splitList(" , ,"); len(got) != 0 {
		t.Errorf("expected no entries, got %v", got)
	}
}
