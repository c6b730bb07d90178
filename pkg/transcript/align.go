package transcript

import (
	"strings"

	"github.com/otherjamesbrown/mint-cli/pkg/capability"
)

const (
	// GenericSpeaker labels all segments when diarization returned no turns.
	GenericSpeaker = "Speaker_1"

	// UnknownSpeaker labels a segment that overlaps no diarization turn.
	UnknownSpeaker = "Unknown"

	// DefaultMergeGapSeconds is the maximum silence between consecutive
	// same-speaker segments that still merges them.
	DefaultMergeGapSeconds = 2.0
)

// Align merges ASR segments with diarization turns by temporal overlap.
//
// Each segment is assigned the speaker whose turn overlaps it the most, with
// ties broken by first-seen order in the turn list. An empty turn set assigns
// GenericSpeaker to every segment. Align never fails: it always produces one
// output segment per input segment, preserving order and timing.
func Align(asr *capability.TranscribeResult, turns []capability.SpeakerTurn) *Transcript {
	result := &Transcript{
		Segments: make([]Segment, 0, len(asr.Segments)),
		Speakers: make([]string, 0),
		FullText: asr.FullText,
		Language: asr.Language,
	}

	speakerSeen := make(map[string]bool)
	addSpeaker := func(id string) {
		if !speakerSeen[id] {
			speakerSeen[id] = true
			result.Speakers = append(result.Speakers, id)
		}
	}

	for _, seg := range asr.Segments {
		speaker := GenericSpeaker
		if len(turns) > 0 {
			speaker = bestSpeaker(seg, turns)
		}
		addSpeaker(speaker)

		result.Segments = append(result.Segments, Segment{
			Text:       strings.TrimSpace(seg.Text),
			Start:      seg.Start,
			End:        seg.End,
			SpeakerID:  speaker,
			Confidence: seg.Confidence,
		})

		if seg.End > result.DurationSeconds {
			result.DurationSeconds = seg.End
		}
	}

	return result
}

// bestSpeaker picks the turn with maximum temporal overlap. The strict >
// keeps the first-seen turn on ties.
func bestSpeaker(seg capability.ASRSegment, turns []capability.SpeakerTurn) string {
	best := UnknownSpeaker
	maxOverlap := 0.0

	for _, turn := range turns {
		overlapStart := max64(seg.Start, turn.Start)
		overlapEnd := min64(seg.End, turn.End)
		overlap := overlapEnd - overlapStart
		if overlap > maxOverlap {
			maxOverlap = overlap
			best = turn.SpeakerID
		}
	}

	return best
}

// MergeSegments collapses consecutive segments that share a speaker when the
// gap between them is at most gapSeconds. Merged text is joined with a single
// space; the merged end time is the later segment's end time; confidence is
// the lower of the two. Merging is idempotent for a fixed gap threshold.
func MergeSegments(segments []Segment, gapSeconds float64) []Segment {
	if len(segments) == 0 {
		return segments
	}

	merged := make([]Segment, 0, len(segments))
	current := segments[0]

	for _, next := range segments[1:] {
		gap := next.Start - current.End
		if next.SpeakerID == current.SpeakerID && gap <= gapSeconds {
			current.Text = current.Text + " " + next.Text
			current.End = next.End
			if next.Confidence < current.Confidence {
				current.Confidence = next.Confidence
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	return merged
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
