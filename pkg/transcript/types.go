// Package transcript provides speaker alignment and parsing for meeting
// transcripts. Transcripts come either from the ASR/diarization capabilities
// or from already-written transcript files (VTT, TXT).
package transcript

import "time"

// Segment is a contiguous span of transcribed speech attributed to a speaker.
type Segment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	SpeakerID  string  `json:"speaker_id"`
	Confidence float64 `json:"confidence"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is a fully aligned meeting transcript.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Speakers []string  `json:"speakers"`
	FullText string    `json:"full_text"`
	Language string    `json:"language"`

	// DurationSeconds is the end time of the last segment.
	DurationSeconds float64 `json:"duration_seconds"`
}

// Meeting bundles a transcript with its source metadata for the pipeline.
type Meeting struct {
	Filename   string      `json:"filename"`
	Title      string      `json:"title"`
	Date       time.Time   `json:"date"`
	Transcript *Transcript `json:"transcript"`
	AudioPath  string      `json:"audio_path,omitempty"`
}

// SpeakingTime returns the total speaking seconds per speaker.
func (t *Transcript) SpeakingTime() map[string]float64 {
	times := make(map[string]float64)
	for _, seg := range t.Segments {
		times[seg.SpeakerID] += seg.Duration()
	}
	return times
}
