// Package normalize cleans raw transcript text before action detection:
// filler words out, contractions expanded, dates standardized, punctuation
// and whitespace tidied, then sentence segmentation.
package normalize

import (
	"context"
	"regexp"
	"strings"

	"github.com/otherjamesbrown/mint-cli/pkg/capability"
	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
	"github.com/otherjamesbrown/mint-cli/pkg/transcript"
)

// fillerWords are dropped wherever a whitespace token matches one exactly
// (case-insensitive, trailing punctuation ignored). Two-word fillers are
// matched greedily before single words.
var fillerWords = map[string]struct{}{
	"um": {}, "uh": {}, "er": {}, "ah": {}, "like": {},
	"you know": {}, "i mean": {}, "sort of": {}, "kind of": {},
	"basically": {}, "actually": {}, "literally": {}, "obviously": {},
	"well": {}, "so": {}, "right": {}, "okay": {}, "alright": {},
	"yeah": {}, "yes": {}, "no": {},
}

// contractions are expanded in order, so specific forms run before the
// generic suffix rules that would otherwise shadow them.
var contractions = []struct {
	from string
	to   string
}{
	{"won't", "will not"},
	{"can't", "cannot"},
	{"n't", " not"},
	{"'re", " are"},
	{"'ve", " have"},
	{"'ll", " will"},
	{"'d", " would"},
	{"'m", " am"},
	{"let's", "let us"},
	{"that's", "that is"},
	{"there's", "there is"},
	{"here's", "here is"},
	{"what's", "what is"},
	{"where's", "where is"},
	{"how's", "how is"},
	{"it's", "it is"},
	{"he's", "he is"},
	{"she's", "she is"},
}

var contractionPatterns = buildContractionPatterns()

func buildContractionPatterns() []struct {
	pattern *regexp.Regexp
	to      string
} {
	patterns := make([]struct {
		pattern *regexp.Regexp
		to      string
	}, 0, len(contractions))
	for _, c := range contractions {
		patterns = append(patterns, struct {
			pattern *regexp.Regexp
			to      string
		}{regexp.MustCompile(`(?i)` + regexp.QuoteMeta(c.from)), c.to})
	}
	return patterns
}

var (
	whitespaceRun    = regexp.MustCompile(`\s+`)
	repeatedPeriods  = regexp.MustCompile(`\.{2,}`)
	repeatedBangs    = regexp.MustCompile(`!{2,}`)
	repeatedQueries  = regexp.MustCompile(`\?{2,}`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.!?,:;])`)
	missingSpace     = regexp.MustCompile(`([.!?])\s*([A-Z])`)
	sentenceBoundary = regexp.MustCompile(`[.!?]+`)
	trailingPunct    = ".,!?;:"
)

// NormalizedSegment pairs a transcript segment with its cleaned text and
// sentence split. Text holds the normalized form; the embedded segment keeps
// the original timing and speaker.
type NormalizedSegment struct {
	Segment   transcript.Segment
	Text      string
	Sentences []string
}

// Normalizer runs the cleaning steps. The date parser and sentence segmenter
// capabilities are optional; without them dates are left as written and
// sentence splitting falls back to punctuation rules.
type Normalizer struct {
	dates     capability.DateParser
	sentences capability.SentenceSegmenter
	logger    logging.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDateParser enables date standardization via the given capability.
func WithDateParser(p capability.DateParser) Option {
	return func(n *Normalizer) { n.dates = p }
}

// WithSentenceSegmenter enables model-backed sentence splitting.
func WithSentenceSegmenter(s capability.SentenceSegmenter) Option {
	return func(n *Normalizer) { n.sentences = s }
}

// WithLogger sets the normalizer logger.
func WithLogger(l logging.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// New builds a Normalizer with the given options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// RemoveFillers drops filler tokens from text. Tokens are compared
// case-insensitively with trailing punctuation stripped; the original casing
// of kept tokens is preserved. Idempotent.
func RemoveFillers(text string) string {
	words := strings.Fields(text)
	kept := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		if i+1 < len(words) {
			pair := strings.ToLower(words[i]) + " " + tokenKey(words[i+1])
			if _, ok := fillerWords[pair]; ok {
				i++
				continue
			}
		}
		if _, ok := fillerWords[tokenKey(words[i])]; ok {
			continue
		}
		kept = append(kept, words[i])
	}
	return strings.Join(kept, " ")
}

func tokenKey(word string) string {
	return strings.TrimRight(strings.ToLower(word), trailingPunct)
}

// ExpandContractions rewrites contracted forms to their full words.
// Idempotent: expansions contain no apostrophes, so a second pass is a no-op.
func ExpandContractions(text string) string {
	for _, c := range contractionPatterns {
		text = c.pattern.ReplaceAllString(text, c.to)
	}
	return text
}

// StandardizeDates rewrites absolute date mentions to YYYY-MM-DD using the
// date-parsing capability. Mentions the capability cannot parse are left
// unchanged, as is everything when no capability is configured.
func (n *Normalizer) StandardizeDates(ctx context.Context, text string) string {
	if n.dates == nil {
		return text
	}
	for _, pattern := range deadline.AbsoluteDatePatterns {
		text = pattern.ReplaceAllStringFunc(text, func(match string) string {
			parsed, err := n.dates.ParseDate(ctx, match, false)
			if err != nil || parsed == nil {
				if err != nil {
					n.logger.Debug("date standardization skipped",
						logging.F("mention", match), logging.Err(err))
				}
				return match
			}
			return parsed.Format("2006-01-02")
		})
	}
	return text
}

// CleanText collapses whitespace and repeated terminal punctuation and fixes
// spacing around punctuation.
func CleanText(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = repeatedPeriods.ReplaceAllString(text, ".")
	text = repeatedBangs.ReplaceAllString(text, "!")
	text = repeatedQueries.ReplaceAllString(text, "?")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = missingSpace.ReplaceAllString(text, "$1 $2")
	return strings.TrimSpace(text)
}

// SplitSentences segments text into sentences, preferring the model-backed
// capability and falling back to punctuation splitting on any failure.
func (n *Normalizer) SplitSentences(ctx context.Context, text string) []string {
	if n.sentences != nil {
		sentences, err := n.sentences.SplitSentences(ctx, text)
		if err == nil {
			return trimNonEmpty(sentences)
		}
		n.logger.Debug("sentence capability failed, using punctuation split", logging.Err(err))
	}
	return trimNonEmpty(sentenceBoundary.Split(text, -1))
}

func trimNonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NormalizeText runs the full cleaning sequence over one piece of text and
// returns the cleaned form plus its sentences.
func (n *Normalizer) NormalizeText(ctx context.Context, text string) (string, []string) {
	text = RemoveFillers(text)
	text = ExpandContractions(text)
	text = n.StandardizeDates(ctx, text)
	text = CleanText(text)
	return text, n.SplitSentences(ctx, text)
}

// NormalizeSegments cleans every transcript segment, dropping segments whose
// text normalizes to nothing.
func (n *Normalizer) NormalizeSegments(ctx context.Context, segments []transcript.Segment) []NormalizedSegment {
	out := make([]NormalizedSegment, 0, len(segments))
	for _, segment := range segments {
		text, sentences := n.NormalizeText(ctx, segment.Text)
		if text == "" {
			continue
		}
		out = append(out, NormalizedSegment{
			Segment:   segment,
			Text:      text,
			Sentences: sentences,
		})
	}
	return out
}
