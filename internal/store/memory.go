package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"meeting-transcription-service/internal/models"
)

// MemorySegments is an in-memory SegmentStore. Safe for concurrent use.
type MemorySegments struct {
	mu       sync.RWMutex
	segments map[string][]models.TranscriptSegment
}

// NewMemorySegments creates an empty in-memory segment store.
func NewMemorySegments() *MemorySegments {
	return &MemorySegments{segments: make(map[string][]models.TranscriptSegment)}
}

// FindByMeeting returns segments ordered by start time.
func (m *MemorySegments) FindByMeeting(_ context.Context, meetingID string) ([]models.TranscriptSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	segs := make([]models.TranscriptSegment, len(m.segments[meetingID]))
	copy(segs, m.segments[meetingID])
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].StartTime < segs[j].StartTime
	})
	return segs, nil
}

// Save appends one segment, assigning an ID if empty.
func (m *MemorySegments) Save(_ context.Context, seg models.TranscriptSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now().UTC()
	}
	m.segments[seg.MeetingID] = append(m.segments[seg.MeetingID], seg)
	return nil
}

// ReplaceForMeeting atomically replaces a meeting's segments.
func (m *MemorySegments) ReplaceForMeeting(_ context.Context, meetingID string, segs []models.TranscriptSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	replaced := make([]models.TranscriptSegment, 0, len(segs))
	now := time.Now().UTC()
	for _, s := range segs {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.MeetingID = meetingID
		replaced = append(replaced, s)
	}
	m.segments[meetingID] = replaced
	return nil
}

// DeleteByMeeting removes all of a meeting's segments.
func (m *MemorySegments) DeleteByMeeting(_ context.Context, meetingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.segments, meetingID)
	return nil
}

// MemoryMappings is an in-memory SpeakerMappingStore.
type MemoryMappings struct {
	mu       sync.RWMutex
	mappings map[string]map[int]models.SpeakerMapping
}

// NewMemoryMappings creates an empty in-memory speaker mapping store.
func NewMemoryMappings() *MemoryMappings {
	return &MemoryMappings{mappings: make(map[string]map[int]models.SpeakerMapping)}
}

// FindByMeeting returns a meeting's speaker mappings ordered by tag.
func (m *MemoryMappings) FindByMeeting(_ context.Context, meetingID string) ([]models.SpeakerMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byTag := m.mappings[meetingID]
	out := make([]models.SpeakerMapping, 0, len(byTag))
	for _, mp := range byTag {
		out = append(out, mp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SpeakerTag < out[j].SpeakerTag
	})
	return out, nil
}

// Upsert creates or overwrites the mapping for (meetingID, tag).
// Last writer wins.
func (m *MemoryMappings) Upsert(_ context.Context, mapping models.SpeakerMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mapping.EnrolledAt.IsZero() {
		mapping.EnrolledAt = time.Now().UTC()
	}
	byTag := m.mappings[mapping.MeetingID]
	if byTag == nil {
		byTag = make(map[int]models.SpeakerMapping)
		m.mappings[mapping.MeetingID] = byTag
	}
	byTag[mapping.SpeakerTag] = mapping
	return nil
}

// DeleteByTag removes one mapping.
func (m *MemoryMappings) DeleteByTag(_ context.Context, meetingID string, speakerTag int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byTag, ok := m.mappings[meetingID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := byTag[speakerTag]; !ok {
		return ErrNotFound
	}
	delete(byTag, speakerTag)
	return nil
}

// MemoryStatus is an in-memory MeetingStatusUpdater.
type MemoryStatus struct {
	mu       sync.RWMutex
	statuses map[string]string
}

// NewMemoryStatus creates an empty in-memory status updater.
func NewMemoryStatus() *MemoryStatus {
	return &MemoryStatus{statuses: make(map[string]string)}
}

// UpdateStatus records a meeting's processing status.
func (m *MemoryStatus) UpdateStatus(_ context.Context, meetingID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[meetingID] = status
	return nil
}

// Status returns the last recorded status for a meeting.
func (m *MemoryStatus) Status(meetingID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statuses[meetingID]
}
