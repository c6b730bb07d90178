package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/mint-cli/pkg/assign"
	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
	"github.com/otherjamesbrown/mint-cli/pkg/detect"
	mterrors "github.com/otherjamesbrown/mint-cli/pkg/errors"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

type memStore struct {
	mu       sync.Mutex
	meetings []*tracker.Meeting
	actions  []*tracker.Action
}

func (s *memStore) CreateMeeting(ctx context.Context, m *tracker.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = int64(len(s.meetings) + 1)
	s.meetings = append(s.meetings, m)
	return nil
}

func (s *memStore) CreateAction(ctx context.Context, a *tracker.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = int64(len(s.actions) + 1)
	s.actions = append(s.actions, a)
	return nil
}

type stubEmbedder struct{ err error }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float64{0.5}, nil
}

// keywordClassifier scores sentences containing "will" as actions.
type keywordClassifier struct{}

func (keywordClassifier) Score(ctx context.Context, vector []float64) (float64, error) {
	// Feature tail layout puts has_modal at index len-4 (counting from the
	// embedding prefix of length 1).
	if vector[1+4] == 1 { // has_modal
		return 0.9, nil
	}
	return 0.1, nil
}

const sampleVTT = `WEBVTT

1 "Alice" (100)
00:00:01.000 --> 00:00:04.000
Sarah will send the quarterly report by tomorrow

2 "Bob" (101)
00:00:04.500 --> 00:00:07.000
The weather was nice at the offsite
`

func writeVTT(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "standup.vtt")
	require.NoError(t, os.WriteFile(path, []byte(sampleVTT), 0o644))
	return path
}

func testPipeline(store Store) *Pipeline {
	detector := detect.NewDetector(&stubEmbedder{}, keywordClassifier{}, nil)
	return New(Deps{
		Detector: detector,
		Assigner: assign.NewExtractor(),
		Store:    store,
	}, DefaultConfig())
}

func TestProcessTranscriptFile(t *testing.T) {
	store := &memStore{}
	p := testPipeline(store)

	result, err := p.Process(context.Background(), Request{Path: writeVTT(t)})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, store.meetings, 1)
	meeting := store.meetings[0]
	assert.Equal(t, "standup.vtt", meeting.Filename)
	assert.Equal(t, "standup", meeting.Title)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, meeting.Participants)

	require.Len(t, store.actions, 1)
	action := store.actions[0]
	assert.Contains(t, action.Text, "Sarah will send the quarterly report")
	assert.Equal(t, "Alice", action.Speaker)
	assert.Equal(t, tracker.StatusOpen, action.Status)
	assert.Equal(t, []string{"Sarah"}, action.Assignees)
	require.NotNil(t, action.Deadline)
	assert.Equal(t, deadline.UrgencyHigh, action.Urgency)
	require.NotNil(t, action.MeetingID)
	assert.Equal(t, meeting.ID, *action.MeetingID)
}

func TestProcessUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	p := testPipeline(&memStore{})
	_, err := p.Process(context.Background(), Request{Path: path})
	require.Error(t, err)
	assert.True(t, mterrors.IsValidation(err))
}

func TestProcessNoInput(t *testing.T) {
	p := testPipeline(&memStore{})
	_, err := p.Process(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, mterrors.IsValidation(err))
}

func TestProcessDetectorFailureAborts(t *testing.T) {
	detector := detect.NewDetector(&stubEmbedder{err: mterrors.ErrCapabilityUnavailable}, keywordClassifier{}, nil)
	p := New(Deps{Detector: detector, Store: &memStore{}}, DefaultConfig())

	_, err := p.Process(context.Background(), Request{Path: writeVTT(t)})
	require.Error(t, err)
	assert.True(t, mterrors.IsCapabilityUnavailable(err))
}

func TestProcessDryRunSkipsPersistence(t *testing.T) {
	store := &memStore{}
	detector := detect.NewDetector(&stubEmbedder{}, keywordClassifier{}, nil)
	cfg := DefaultConfig()
	cfg.Persist = false
	p := New(Deps{Detector: detector, Store: store}, cfg)

	result, err := p.Process(context.Background(), Request{Path: writeVTT(t)})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Actions)
	assert.Empty(t, store.meetings)
	assert.Empty(t, store.actions)
}

func TestProcessAudioWithoutTranscriber(t *testing.T) {
	p := testPipeline(&memStore{})
	_, err := p.Process(context.Background(), Request{AudioPath: "meeting.wav"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "transcription") || mterrors.IsCapabilityUnavailable(err))
}
