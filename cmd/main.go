package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"meeting-transcription-service/internal/api/ws"
	"meeting-transcription-service/internal/app"
	"meeting-transcription-service/internal/config"
	"meeting-transcription-service/internal/events"
	"meeting-transcription-service/internal/media"
	"meeting-transcription-service/internal/observability/metrics"
	"meeting-transcription-service/internal/service/diarize"
	"meeting-transcription-service/internal/service/postprocess"
	"meeting-transcription-service/internal/service/session"
	"meeting-transcription-service/internal/service/stt"
	"meeting-transcription-service/internal/service/stt/deepgram"
	"meeting-transcription-service/internal/service/stt/google"
	"meeting-transcription-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)
	log := application.Logger

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application start failed")
	}

	// Transcript event mirror (log-only when Kafka is disabled).
	publisher := events.New(cfg.Kafka)
	defer publisher.Close()

	segments := store.NewMemorySegments()
	mappings := store.NewMemoryMappings()
	status := store.NewMemoryStatus()

	factories := buildFactories(cfg)
	if len(factories) == 0 {
		log.Fatal().Strs("providers", cfg.ProviderOrder).Msg("No speech providers configured")
	}

	streamCfg := stt.StreamConfig{
		SampleRateHz:    cfg.Google.SampleRateHz,
		LanguageCode:    cfg.Google.LanguageCode,
		MaxSpeakerCount: cfg.Google.MaxSpeakerCount,
		InterimResults:  true,
	}

	hub := ws.NewHub()

	newRecorder := func(sessionID string) (session.FrameRecorder, error) {
		path := filepath.Join(cfg.RecordingsDir, sessionID+".wav")
		return media.NewWAVWriter(path, cfg.Google.SampleRateHz)
	}

	registry := session.NewRegistry(
		factories,
		streamCfg,
		cfg.StreamRestartAfter,
		segments,
		mappings,
		hub,
		publisher,
		newRecorder,
		log,
	)
	defer registry.CloseAll()

	diarizer := diarize.NewClient(diarize.ClientConfig{
		BaseURL: cfg.Diarization.BaseURL,
		Timeout: cfg.Diarization.Timeout,
	})
	pipeline := postprocess.New(
		media.FFmpeg{},
		diarizer,
		google.BatchTranscribe,
		segments,
		status,
		nil,
		publisher,
	)

	wsServer := ws.NewServer(registry, segments, mappings, hub, pipeline, streamCfg, cfg.RecordingsDir)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsServer)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		available, provider := registry.ProviderStatus(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if !available {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":                 "ok",
			"speechServiceAvailable": available,
			"provider":               provider,
			"diarizationAvailable":   diarizer.Health(r.Context()),
		})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Meeting transcription service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	registry.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	application.Shutdown()
}

// buildFactories assembles provider factories in configured
// preference order, skipping unknown names.
func buildFactories(cfg *config.Config) []stt.Factory {
	var factories []stt.Factory
	for _, name := range cfg.ProviderOrder {
		switch name {
		case "google":
			factories = append(factories, google.NewFactory())
		case "deepgram":
			factories = append(factories, deepgram.NewFactory(deepgram.Config{
				APIKey: cfg.Deepgram.APIKey,
				URL:    cfg.Deepgram.URL,
				Model:  cfg.Deepgram.Model,
			}))
		}
	}
	return factories
}
