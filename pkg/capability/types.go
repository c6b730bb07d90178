// Package capability defines the external model capabilities the pipeline
// consumes, and an HTTP client implementation backed by a model sidecar.
//
// The core pipeline never talks to a model directly; it only sees these
// interfaces. Each capability is a blocking, retry-free call: a failure is
// surfaced to the caller, which decides per stage whether to degrade or abort.
package capability

import (
	"context"
	"time"
)

// ASRSegment is a single transcribed span with timing.
type ASRSegment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// TranscribeResult is the output of speech-to-text.
type TranscribeResult struct {
	Segments []ASRSegment `json:"segments"`
	FullText string       `json:"full_text"`
	Language string       `json:"language"`
}

// SpeakerTurn is a diarization interval attributing time to a speaker.
type SpeakerTurn struct {
	SpeakerID string  `json:"speaker_id"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// Entity is a named-entity span from token classification.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// Transcriber converts audio to timed text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*TranscribeResult, error)
}

// Diarizer assigns speaker identities to time intervals. May return an
// empty slice when diarization is unavailable; callers must degrade.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]SpeakerTurn, error)
}

// Embedder produces a fixed-length semantic vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ActionClassifier scores a combined feature vector as P(is_action).
type ActionClassifier interface {
	Score(ctx context.Context, vector []float64) (float64, error)
}

// EntityExtractor extracts entities via token classification, with
// per-span confidence.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
}

// GenericEntityExtractor extracts entities without confidence scores.
// Callers assign a fixed confidence to its spans.
type GenericEntityExtractor interface {
	ExtractEntitiesGeneric(ctx context.Context, text string) ([]Entity, error)
}

// DateParser parses free-form date text. Returns nil (no error) when the
// text does not contain a parseable date.
type DateParser interface {
	ParseDate(ctx context.Context, text string, preferFuture bool) (*time.Time, error)
}

// SentenceSegmenter splits text into sentences using a linguistic model.
// Optional: callers fall back to regex splitting when unavailable.
type SentenceSegmenter interface {
	SplitSentences(ctx context.Context, text string) ([]string, error)
}

// Summarizer produces an abstractive summary for a prompt + text pair.
type Summarizer interface {
	Summarize(ctx context.Context, text, prompt string) (string, error)
}
