// Package detect scores transcript sentences for action-item intent by
// combining a semantic embedding with hand-built linguistic features and
// asking the classifier capability for a probability.
package detect

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/otherjamesbrown/mint-cli/pkg/capability"
	mterrors "github.com/otherjamesbrown/mint-cli/pkg/errors"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
	"github.com/otherjamesbrown/mint-cli/pkg/normalize"
)

const (
	// scoreThreshold marks a sentence as action-like at all.
	scoreThreshold = 0.5
	// acceptThreshold is the stricter bar a candidate must clear to be kept.
	acceptThreshold = 0.6
	// minSentenceLength skips fragments too short to carry an action.
	minSentenceLength = 10
)

var imperativeVerbs = []string{
	"schedule", "send", "create", "update", "review", "complete", "finish",
	"prepare", "organize", "contact", "call", "email", "follow up",
	"implement", "develop", "design", "test", "deploy", "launch",
	"analyze", "research", "investigate", "document", "write",
	"submit", "approve", "sign", "deliver", "present", "share",
}

var modalPhrases = []string{
	"need to", "should", "must", "have to", "will", "going to",
	"plan to", "intend to", "responsible for", "assigned to",
	"action item", "todo", "to do", "next step", "follow up",
}

var timeIndicators = []string{
	"by", "before", "after", "until", "deadline", "due",
	"next week", "next month", "tomorrow", "today", "asap",
	"end of week", "end of month", "q1", "q2", "q3", "q4",
}

var (
	startsCapitalized = regexp.MustCompile(`^[A-Z][a-z]*\s+`)
	modalPattern      = regexp.MustCompile(`\b(will|should|must|need|have to)\b`)
	personPattern     = regexp.MustCompile(`\b(i|we|you|he|she|they|someone|team)\b`)
	deadlinePattern   = regexp.MustCompile(`\b(by|before|until|deadline|due)\b`)
)

// Features holds the linguistic signal extracted from one sentence. The
// vector order is fixed; the classifier was fitted against it.
type Features struct {
	ImperativeCount int
	ModalCount      int
	TimeCount       int
	StartsWithVerb  bool
	HasModal        bool
	HasPerson       bool
	WordCount       int
	HasDeadline     bool
}

// Vector flattens the features into the classifier's expected layout.
func (f Features) Vector() []float64 {
	return []float64{
		float64(f.ImperativeCount),
		float64(f.ModalCount),
		float64(f.TimeCount),
		boolFeature(f.StartsWithVerb),
		boolFeature(f.HasModal),
		boolFeature(f.HasPerson),
		float64(f.WordCount),
		boolFeature(f.HasDeadline),
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ExtractFeatures computes the linguistic features for one sentence.
func ExtractFeatures(text string) Features {
	lower := strings.ToLower(text)

	var f Features
	for _, verb := range imperativeVerbs {
		if strings.Contains(lower, verb) {
			f.ImperativeCount++
		}
	}
	for _, phrase := range modalPhrases {
		if strings.Contains(lower, phrase) {
			f.ModalCount++
		}
	}
	for _, indicator := range timeIndicators {
		if strings.Contains(lower, indicator) {
			f.TimeCount++
		}
	}

	f.StartsWithVerb = startsCapitalized.MatchString(text)
	f.HasModal = modalPattern.MatchString(lower)
	f.HasPerson = personPattern.MatchString(lower)
	f.WordCount = len(strings.Fields(text))
	f.HasDeadline = deadlinePattern.MatchString(lower)
	return f
}

// Candidate is a sentence the classifier considers an action item.
type Candidate struct {
	Text       string
	SpeakerID  string
	StartTime  float64
	EndTime    float64
	Confidence float64
	Features   Features
}

// Detector runs detection over normalized segments. Embedder and classifier
// are required; their failure aborts the run rather than silently dropping
// actions.
type Detector struct {
	embedder   capability.Embedder
	classifier capability.ActionClassifier
	logger     logging.Logger
}

// NewDetector builds a Detector over the given capabilities.
func NewDetector(embedder capability.Embedder, classifier capability.ActionClassifier, logger logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Detector{embedder: embedder, classifier: classifier, logger: logger}
}

// Score classifies one sentence and returns its action probability with the
// extracted features.
func (d *Detector) Score(ctx context.Context, text string) (float64, Features, error) {
	features := ExtractFeatures(text)

	embedding, err := d.embedder.Embed(ctx, text)
	if err != nil {
		return 0, features, mterrors.NewStageError("detect", text, err)
	}

	vector := append(embedding, features.Vector()...)
	probability, err := d.classifier.Score(ctx, vector)
	if err != nil {
		return 0, features, mterrors.NewStageError("detect", text, err)
	}
	return probability, features, nil
}

// DetectActions scans every sentence of every segment and returns the
// candidates that clear both thresholds, ordered by descending confidence.
// Sentences shorter than ten characters after trimming are skipped.
func (d *Detector) DetectActions(ctx context.Context, segments []normalize.NormalizedSegment) ([]Candidate, error) {
	var candidates []Candidate

	for _, segment := range segments {
		sentences := segment.Sentences
		if len(sentences) == 0 {
			sentences = []string{segment.Text}
		}
		for _, sentence := range sentences {
			sentence = strings.TrimSpace(sentence)
			if len(sentence) < minSentenceLength {
				continue
			}

			probability, features, err := d.Score(ctx, sentence)
			if err != nil {
				return nil, err
			}
			if probability <= scoreThreshold || probability <= acceptThreshold {
				continue
			}

			candidates = append(candidates, Candidate{
				Text:       sentence,
				SpeakerID:  segment.Segment.SpeakerID,
				StartTime:  segment.Segment.Start,
				EndTime:    segment.Segment.End,
				Confidence: probability,
				Features:   features,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	d.logger.Debug("action detection finished",
		logging.F("segments", len(segments)),
		logging.F("candidates", len(candidates)))
	return candidates, nil
}
