package normalize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/mint-cli/pkg/transcript"
)

func TestRemoveFillers(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"um I will send it", "I will send it"},
		{"I will, you know, send the report", "I will, send the report"},
		{"Basically we need to ship", "we need to ship"},
		{"the design is sort of done", "the design is done"},
		{"okay, let us start", "let us start"},
		{"report", "report"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, RemoveFillers(tc.input))
		})
	}
}

func TestRemoveFillersIdempotent(t *testing.T) {
	input := "um so basically I will, you know, handle it"
	once := RemoveFillers(input)
	assert.Equal(t, once, RemoveFillers(once))
}

func TestExpandContractions(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"I won't do it", "I will not do it"},
		{"we can't ship yet", "we cannot ship yet"},
		{"she doesn't know", "she does not know"},
		{"they're ready", "they are ready"},
		{"I've finished", "I have finished"},
		{"he'll review it", "he will review it"},
		{"we'd prefer Friday", "we would prefer Friday"},
		{"I'm on it", "I am on it"},
		{"let's start", "let us start"},
		{"it's done", "it is done"},
		{"Don't forget", "Do not forget"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ExpandContractions(tc.input))
		})
	}
}

func TestExpandContractionsIdempotent(t *testing.T) {
	once := ExpandContractions("I won't, she doesn't, let's go")
	assert.Equal(t, once, ExpandContractions(once))
}

func TestCleanText(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"whitespace run", "a   b\t c", "a b c"},
		{"repeated periods", "done... next", "done. next"},
		{"repeated bangs", "ship it!!!", "ship it!"},
		{"space before punct", "done , next .", "done, next."},
		{"missing space after period", "Done.Next step", "Done. Next step"},
		{"trim", "  padded  ", "padded"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanText(tc.input))
		})
	}
}

type stubDateParser struct {
	result *time.Time
	err    error
}

func (s *stubDateParser) ParseDate(ctx context.Context, text string, preferFuture bool) (*time.Time, error) {
	return s.result, s.err
}

type stubSegmenter struct {
	result []string
	err    error
}

func (s *stubSegmenter) SplitSentences(ctx context.Context, text string) ([]string, error) {
	return s.result, s.err
}

func TestStandardizeDates(t *testing.T) {
	parsed := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	n := New(WithDateParser(&stubDateParser{result: &parsed}))

	got := n.StandardizeDates(context.Background(), "due 03/15/2026 at latest")
	assert.Equal(t, "due 2026-03-15 at latest", got)

	got = n.StandardizeDates(context.Background(), "due March 15, 2026 at latest")
	assert.Equal(t, "due 2026-03-15 at latest", got)
}

func TestStandardizeDatesUnparseableLeftAlone(t *testing.T) {
	n := New(WithDateParser(&stubDateParser{err: assert.AnError}))
	got := n.StandardizeDates(context.Background(), "due 03/15/2026 at latest")
	assert.Equal(t, "due 03/15/2026 at latest", got)
}

func TestStandardizeDatesWithoutCapability(t *testing.T) {
	n := New()
	got := n.StandardizeDates(context.Background(), "due 03/15/2026")
	assert.Equal(t, "due 03/15/2026", got)
}

func TestSplitSentencesFallback(t *testing.T) {
	n := New()
	got := n.SplitSentences(context.Background(), "First thing. Second thing! Third?")
	assert.Equal(t, []string{"First thing", "Second thing", "Third"}, got)
}

func TestSplitSentencesCapability(t *testing.T) {
	n := New(WithSentenceSegmenter(&stubSegmenter{result: []string{"One.", " Two. ", ""}}))
	got := n.SplitSentences(context.Background(), "One. Two.")
	assert.Equal(t, []string{"One.", "Two."}, got)
}

func TestSplitSentencesCapabilityErrorFallsBack(t *testing.T) {
	n := New(WithSentenceSegmenter(&stubSegmenter{err: assert.AnError}))
	got := n.SplitSentences(context.Background(), "One thing. Another thing.")
	assert.Equal(t, []string{"One thing", "Another thing"}, got)
}

func TestNormalizeSegments(t *testing.T) {
	n := New()
	segments := []transcript.Segment{
		{Text: "um so I'll send the report... by Friday", SpeakerID: "Alice", Start: 0, End: 4},
		{Text: "um uh", SpeakerID: "Bob", Start: 4, End: 5},
	}

	got := n.NormalizeSegments(context.Background(), segments)
	require.Len(t, got, 1)
	assert.Equal(t, "I will send the report. by Friday", got[0].Text)
	assert.Equal(t, "Alice", got[0].Segment.SpeakerID)
	assert.Equal(t, []string{"I will send the report", "by Friday"}, got[0].Sentences)
}
