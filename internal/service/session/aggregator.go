package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"meeting-transcription-service/internal/models"
	"meeting-transcription-service/internal/observability/metrics"
	"meeting-transcription-service/internal/service/namex"
	"meeting-transcription-service/internal/store"
)

// aggregator consumes canonical transcript events for one session.
// In transcription mode every final event with non-empty text becomes
// a persisted segment exactly as received; merging of consecutive
// same-speaker text is deferred entirely to the batch reconciler.
// In enrollment mode final events feed the name extractor instead.
type aggregator struct {
	meetingID   string
	mode        Mode
	segments    store.SegmentStore
	mappings    store.SpeakerMappingStore
	broadcaster Broadcaster
	publisher   SegmentPublisher
	log         zerolog.Logger

	mu        sync.Mutex
	nameCache map[int]string
	cacheWarm bool
}

// SegmentPublisher mirrors persisted segments onto an event bus.
// Optional; failures are logged and never block the session.
type SegmentPublisher interface {
	PublishFinal(ctx context.Context, meetingID string, seg models.TranscriptSegment) error
}

func newAggregator(
	meetingID string,
	mode Mode,
	segments store.SegmentStore,
	mappings store.SpeakerMappingStore,
	broadcaster Broadcaster,
	publisher SegmentPublisher,
	log zerolog.Logger,
) *aggregator {
	return &aggregator{
		meetingID:   meetingID,
		mode:        mode,
		segments:    segments,
		mappings:    mappings,
		broadcaster: broadcaster,
		publisher:   publisher,
		log:         log,
		nameCache:   make(map[int]string),
	}
}

// handleEvent routes one canonical event. Interim events are broadcast
// for live feedback only and never persisted; each one supersedes the
// previous interim for this session on the client side.
func (a *aggregator) handleEvent(ev models.TranscriptEvent) {
	if !ev.IsFinal {
		metrics.DefaultMetrics.TranscriptsInterim.Inc()
		a.broadcaster.Transcript(a.meetingID, ev, a.resolveName(ev.SpeakerTag))
		return
	}

	metrics.DefaultMetrics.TranscriptsFinal.Inc()

	switch a.mode {
	case ModeEnrollment:
		a.handleEnrollmentFinal(ev)
	default:
		a.handleTranscriptionFinal(ev)
	}
}

// handleTranscriptionFinal persists a final event verbatim and
// broadcasts it with the resolved speaker name.
func (a *aggregator) handleTranscriptionFinal(ev models.TranscriptEvent) {
	if strings.TrimSpace(ev.Text) == "" {
		return
	}

	seg := models.TranscriptSegment{
		MeetingID:   a.meetingID,
		SpeakerTag:  ev.SpeakerTag,
		SpeakerName: a.resolveName(ev.SpeakerTag),
		Text:        ev.Text,
		Confidence:  ev.Confidence,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		IsFinal:     true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.segments.Save(ctx, seg); err != nil {
		a.log.Error().Err(err).Msg("Failed to persist transcript segment")
	} else {
		metrics.DefaultMetrics.SegmentsPersisted.Inc()
	}

	if a.publisher != nil {
		if err := a.publisher.PublishFinal(ctx, a.meetingID, seg); err != nil {
			a.log.Warn().Err(err).Msg("Failed to mirror segment to event bus")
		}
	}

	a.broadcaster.Transcript(a.meetingID, ev, seg.SpeakerName)
}

// handleEnrollmentFinal runs the name extractor for speaker tags that
// do not have a mapping yet. An extracted name failing validation is
// dropped without a user-facing error.
func (a *aggregator) handleEnrollmentFinal(ev models.TranscriptEvent) {
	a.broadcaster.Transcript(a.meetingID, ev, a.resolveName(ev.SpeakerTag))

	if a.resolveName(ev.SpeakerTag) != "" {
		return // already enrolled
	}

	result, ok := namex.Extract(ev.Text)
	if !ok {
		return
	}
	if !namex.IsValidName(result.Name) {
		metrics.DefaultMetrics.NamesRejected.Inc()
		a.log.Debug().
			Str("candidate", result.Name).
			Msg("Extracted name failed validation, dropping enrollment attempt")
		return
	}

	mapping := models.SpeakerMapping{
		MeetingID:   a.meetingID,
		SpeakerTag:  ev.SpeakerTag,
		SpeakerName: result.Name,
		EnrolledAt:  time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.mappings.Upsert(ctx, mapping); err != nil {
		a.log.Error().Err(err).Msg("Failed to persist speaker mapping")
		return
	}

	a.cacheName(ev.SpeakerTag, result.Name)
	metrics.DefaultMetrics.NamesExtracted.WithLabelValues(result.Method, result.Confidence).Inc()
	a.log.Info().
		Int("speakerTag", ev.SpeakerTag).
		Str("method", result.Method).
		Str("confidence", result.Confidence).
		Msg("Speaker enrolled")
	a.broadcaster.SpeakerEnrolled(a.meetingID, mapping, result)
}

// resolveName returns the display name for a speaker tag through the
// per-session read-through cache.
func (a *aggregator) resolveName(tag int) string {
	a.mu.Lock()
	if !a.cacheWarm {
		a.mu.Unlock()
		a.warmCache()
		a.mu.Lock()
	}
	name := a.nameCache[tag]
	a.mu.Unlock()
	return name
}

// cacheName records a freshly enrolled or renamed speaker.
func (a *aggregator) cacheName(tag int, name string) {
	a.mu.Lock()
	a.nameCache[tag] = name
	a.mu.Unlock()
}

// invalidate clears the cache so renames from other connections are
// picked up on the next resolve.
func (a *aggregator) invalidate() {
	a.mu.Lock()
	a.nameCache = make(map[int]string)
	a.cacheWarm = false
	a.mu.Unlock()
}

func (a *aggregator) warmCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	found, err := a.mappings.FindByMeeting(ctx, a.meetingID)
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to load speaker mappings")
		return
	}
	a.mu.Lock()
	for _, m := range found {
		a.nameCache[m.SpeakerTag] = m.SpeakerName
	}
	a.cacheWarm = true
	a.mu.Unlock()
}
