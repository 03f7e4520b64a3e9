package diarize

import (
	"sort"
	"strings"

	"meeting-transcription-service/internal/models"
)

// TagsForLabels assigns deterministic speaker tags to the distinct
// labels of a span set: labels sorted lexicographically, tag =
// sorted index + 1. Independent of label text.
func TagsForLabels(spans []models.DiarizationSpan) map[string]int {
	distinct := make(map[string]struct{})
	for _, s := range spans {
		distinct[s.Speaker] = struct{}{}
	}
	labels := make([]string, 0, len(distinct))
	for l := range distinct {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	tags := make(map[string]int, len(labels))
	for i, l := range labels {
		tags[l] = i + 1
	}
	return tags
}

// Reassign relabels each segment with the tag of the first span (in
// original temporal order) whose interval contains the segment's
// midpoint. Segments matching no span default to tag 1. Resolved
// display names are cleared: they belong to the session-local tag
// space, not the reassigned one.
func Reassign(segments []models.TranscriptSegment, spans []models.DiarizationSpan) []models.TranscriptSegment {
	tags := TagsForLabels(spans)

	out := make([]models.TranscriptSegment, len(segments))
	for i, seg := range segments {
		mid := (seg.StartTime + seg.EndTime) / 2
		tag := 1
		for _, span := range spans {
			if mid >= span.Start && mid <= span.End {
				tag = tags[span.Speaker]
				break
			}
		}
		seg.SpeakerTag = tag
		seg.SpeakerName = ""
		out[i] = seg
	}
	return out
}

// Merge collapses temporally adjacent segments sharing a speaker tag,
// preserving original order: text joined with a single space, end time
// extended, confidence = min of the pair. Idempotent: output never has
// two adjacent segments with the same tag.
func Merge(segments []models.TranscriptSegment) []models.TranscriptSegment {
	if len(segments) == 0 {
		return nil
	}

	out := make([]models.TranscriptSegment, 0, len(segments))
	current := segments[0]
	for _, seg := range segments[1:] {
		if seg.SpeakerTag == current.SpeakerTag {
			current.Text = strings.TrimSpace(current.Text) + " " + strings.TrimSpace(seg.Text)
			if seg.EndTime > current.EndTime {
				current.EndTime = seg.EndTime
			}
			if seg.Confidence < current.Confidence {
				current.Confidence = seg.Confidence
			}
			continue
		}
		out = append(out, current)
		current = seg
	}
	return append(out, current)
}

// Reconcile runs reassignment then merge over a meeting's segments.
func Reconcile(segments []models.TranscriptSegment, spans []models.DiarizationSpan) []models.TranscriptSegment {
	return Merge(Reassign(segments, spans))
}
