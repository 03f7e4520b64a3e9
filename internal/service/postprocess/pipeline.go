// Package postprocess runs the per-meeting pipeline after a recording
// stops: convert the raw capture to 16kHz mono WAV, run speaker
// diarization on it, reassign segment speaker tags from the diarized
// spans, merge adjacent same-speaker segments, persist the reconciled
// transcript atomically and mark the meeting completed.
//
// Diarization is best effort. When the diarization service is down or
// errors, the pipeline keeps the live provider tags and still completes
// the meeting. Persistence failure is fatal for the job and the meeting
// is marked failed.
package postprocess

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/observability/logging"
	"meeting-transcription-service/internal/observability/metrics"
	"meeting-transcription-service/internal/service/diarize"
	"meeting-transcription-service/internal/service/stt"
	"meeting-transcription-service/internal/store"
)

// Diarizer produces speaker spans for a recording on disk.
type Diarizer interface {
	Diarize(ctx context.Context, filePath string) ([]models.DiarizationSpan, error)
}

// Converter converts a raw capture into the 16kHz mono WAV the
// diarization and batch transcription backends expect.
type Converter interface {
	ConvertTo16kMonoWAV(ctx context.Context, inputPath, outDir string) (string, error)
}

// BatchTranscriber transcribes a whole recording file. Used as a
// fallback when a meeting produced no live segments.
type BatchTranscriber func(ctx context.Context, path string, cfg stt.StreamConfig) ([]models.TranscriptEvent, error)

// Summarizer generates a meeting summary from the reconciled
// transcript. Failures are isolated from the pipeline result.
type Summarizer interface {
	Summarize(ctx context.Context, meetingID string, segments []models.TranscriptSegment) error
}

// NopSummarizer does nothing.
type NopSummarizer struct{}

func (NopSummarizer) Summarize(context.Context, string, []models.TranscriptSegment) error {
	return nil
}

// TranscriptPublisher mirrors the reconciled transcript onto an event
// bus. Optional; publish failures never fail the job.
type TranscriptPublisher interface {
	PublishReconciled(ctx context.Context, meetingID string, segments []models.TranscriptSegment) error
}

// Job describes one meeting to post-process.
type Job struct {
	MeetingID     string
	RecordingPath string
	WorkDir       string
	StreamConfig  stt.StreamConfig
}

// Pipeline wires the post-recording collaborators.
type Pipeline struct {
	converter  Converter
	diarizer   Diarizer
	batch      BatchTranscriber
	segments   store.SegmentStore
	status     store.MeetingStatusUpdater
	summarizer Summarizer
	publisher  TranscriptPublisher
	log        zerolog.Logger
}

// New builds a Pipeline. batch, summarizer and publisher may be nil; a
// nil batch disables the whole-file fallback and a nil summarizer is
// replaced by NopSummarizer.
func New(converter Converter, diarizer Diarizer, batch BatchTranscriber, segments store.SegmentStore, status store.MeetingStatusUpdater, summarizer Summarizer, publisher TranscriptPublisher) *Pipeline {
	if summarizer == nil {
		summarizer = NopSummarizer{}
	}
	return &Pipeline{
		converter:  converter,
		diarizer:   diarizer,
		batch:      batch,
		segments:   segments,
		status:     status,
		summarizer: summarizer,
		publisher:  publisher,
		log:        logging.WithComponent("postprocess"),
	}
}

// Run executes the pipeline for one meeting. It returns an error only
// for failures that left the meeting in a failed state; a skipped
// diarization pass is not an error.
func (p *Pipeline) Run(ctx context.Context, job Job) error {
	log := p.log.With().Str("meeting_id", job.MeetingID).Logger()
	start := time.Now()

	if err := p.status.UpdateStatus(ctx, job.MeetingID, store.MeetingStatusProcessing); err != nil {
		log.Error().Err(err).Msg("failed to mark meeting processing")
	}

	segments, err := p.process(ctx, job, log)
	metrics.DefaultMetrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DefaultMetrics.ReconcileRuns.WithLabelValues("failed").Inc()
		if serr := p.status.UpdateStatus(ctx, job.MeetingID, store.MeetingStatusFailed); serr != nil {
			log.Error().Err(serr).Msg("failed to mark meeting failed")
		}
		return err
	}

	if err := p.status.UpdateStatus(ctx, job.MeetingID, store.MeetingStatusCompleted); err != nil {
		log.Error().Err(err).Msg("failed to mark meeting completed")
	}

	if p.publisher != nil {
		if err := p.publisher.PublishReconciled(ctx, job.MeetingID, segments); err != nil {
			log.Warn().Err(err).Msg("reconciled transcript publish failed")
		}
	}

	if err := p.summarizer.Summarize(ctx, job.MeetingID, segments); err != nil {
		log.Warn().Err(err).Msg("summary generation failed")
	}
	return nil
}

// process performs conversion, diarization and reconciliation and
// returns the meeting's final segments.
func (p *Pipeline) process(ctx context.Context, job Job, log zerolog.Logger) ([]models.TranscriptSegment, error) {
	segments, err := p.segments.FindByMeeting(ctx, job.MeetingID)
	if err != nil {
		return nil, fmt.Errorf("load segments: %w", err)
	}

	wavPath := job.RecordingPath
	if p.converter != nil && job.RecordingPath != "" {
		converted, err := p.converter.ConvertTo16kMonoWAV(ctx, job.RecordingPath, job.WorkDir)
		if err != nil {
			log.Warn().Err(err).Msg("recording conversion failed, skipping diarization")
			metrics.DefaultMetrics.ReconcileRuns.WithLabelValues("skipped").Inc()
			return segments, nil
		}
		wavPath = converted
	}
	if wavPath == "" {
		log.Info().Msg("no recording available, keeping live speaker tags")
		metrics.DefaultMetrics.ReconcileRuns.WithLabelValues("skipped").Inc()
		return segments, nil
	}

	if len(segments) == 0 && p.batch != nil {
		log.Info().Msg("no live segments, falling back to whole-file transcription")
		return p.batchFallback(ctx, job, wavPath, log)
	}

	spans, err := p.diarizer.Diarize(ctx, wavPath)
	if err != nil {
		log.Warn().Err(err).Msg("diarization failed, keeping live speaker tags")
		metrics.DefaultMetrics.ReconcileRuns.WithLabelValues("skipped").Inc()
		return segments, nil
	}

	before := len(segments)
	reconciled := diarize.Reconcile(segments, spans)
	if merged := before - len(reconciled); merged > 0 {
		metrics.DefaultMetrics.SegmentsMerged.Add(float64(merged))
	}

	if err := p.segments.ReplaceForMeeting(ctx, job.MeetingID, reconciled); err != nil {
		return nil, fmt.Errorf("persist reconciled transcript: %w", err)
	}

	metrics.DefaultMetrics.ReconcileRuns.WithLabelValues("reconciled").Inc()
	log.Info().
		Int("segments_before", before).
		Int("segments_after", len(reconciled)).
		Int("speakers", len(diarize.TagsForLabels(spans))).
		Msg("transcript reconciled")
	return reconciled, nil
}

// batchFallback transcribes the whole recording, groups the resulting
// events into segments by provider speaker tag and persists them with
// the same adjacency merge applied to live transcripts.
func (p *Pipeline) batchFallback(ctx context.Context, job Job, wavPath string, log zerolog.Logger) ([]models.TranscriptSegment, error) {
	events, err := p.batch(ctx, wavPath, job.StreamConfig)
	if err != nil {
		return nil, fmt.Errorf("batch transcription: %w", err)
	}

	segments := segmentsFromEvents(job.MeetingID, events)
	segments = diarize.Merge(segments)

	if err := p.segments.ReplaceForMeeting(ctx, job.MeetingID, segments); err != nil {
		return nil, fmt.Errorf("persist batch transcript: %w", err)
	}

	metrics.DefaultMetrics.ReconcileRuns.WithLabelValues("batch").Inc()
	log.Info().Int("segments", len(segments)).Msg("batch transcript persisted")
	return segments, nil
}

// segmentsFromEvents converts final transcript events into persisted
// segments ordered by start time.
func segmentsFromEvents(meetingID string, events []models.TranscriptEvent) []models.TranscriptSegment {
	segments := make([]models.TranscriptSegment, 0, len(events))
	now := time.Now()
	for _, ev := range events {
		if !ev.IsFinal || ev.Text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			MeetingID:  meetingID,
			SpeakerTag: ev.SpeakerTag,
			Text:       ev.Text,
			Confidence: ev.Confidence,
			StartTime:  ev.StartTime,
			EndTime:    ev.EndTime,
			IsFinal:    true,
			CreatedAt:  now,
		})
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartTime < segments[j].StartTime
	})
	return segments
}
