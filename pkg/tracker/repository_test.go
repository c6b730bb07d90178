package tracker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
	mterrors "github.com/otherjamesbrown/mint-cli/pkg/errors"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
)

func TestStatusValid(t *testing.T) {
	for _, status := range []Status{StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled} {
		assert.True(t, status.Valid(), string(status))
	}
	assert.False(t, Status("done").Valid())
	assert.False(t, Status("").Valid())
}

func TestUpdateStatusRejectsEmpty(t *testing.T) {
	// Rejected before any query runs, so no database is needed.
	repo := NewRepository(nil, logging.NewNopLogger())
	err := repo.UpdateStatus(context.Background(), 1, Status(""), "", "")
	require.Error(t, err)
	assert.True(t, mterrors.IsValidation(err))
}

func TestOrEmpty(t *testing.T) {
	assert.Equal(t, []string{}, orEmpty(nil))
	assert.Equal(t, []string{"a"}, orEmpty([]string{"a"}))
}

// testRepository connects to the database named by DATABASE_URL, applying the
// schema first. Tests using it are skipped when no database is available.
func testRepository(t *testing.T) *Repository {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err, "Failed to connect to database")
	t.Cleanup(pool.Close)

	require.NoError(t, InitSchema(context.Background(), pool))
	return NewRepository(pool, logging.NewNopLogger())
}

func TestActionLifecycleIntegration(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	meeting := &Meeting{
		Filename:     "standup-" + time.Now().Format("20060102150405.000") + ".vtt",
		Title:        "Weekly standup",
		Participants: []string{"Alice", "Bob"},
		SpeakingTime: map[string]float64{"Alice": 120.5, "Bob": 88},
	}
	require.NoError(t, repo.CreateMeeting(ctx, meeting))
	require.NotZero(t, meeting.ID)

	// Duplicate filename is a conflict.
	dup := &Meeting{Filename: meeting.Filename}
	err := repo.CreateMeeting(ctx, dup)
	require.Error(t, err)
	assert.True(t, mterrors.IsConflict(err))

	loaded, err := repo.GetMeetingByFilename(ctx, meeting.Filename)
	require.NoError(t, err)
	assert.Equal(t, meeting.ID, loaded.ID)
	assert.Equal(t, 120.5, loaded.SpeakingTime["Alice"])

	due := time.Now().Add(48 * time.Hour)
	action := &Action{
		MeetingFile: meeting.Filename,
		MeetingID:   &meeting.ID,
		Text:        "Alice will send the report",
		Assignees:   []string{"Alice"},
		Deadline:    &due,
		Confidence:  0.87,
		Speaker:     "Alice",
	}
	require.NoError(t, repo.CreateAction(ctx, action))
	require.NotZero(t, action.ID)
	assert.Equal(t, deadline.UrgencyHigh, action.Urgency)

	listed, err := repo.ActionsByMeeting(ctx, meeting.Filename)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, StatusOpen, listed[0].Status)
	assert.Equal(t, meeting.Title, listed[0].MeetingTitle)

	require.NoError(t, repo.MarkCompleted(ctx, action.ID, "alice", "done early"))

	// Completing again still succeeds and appends history.
	require.NoError(t, repo.MarkCompleted(ctx, action.ID, "alice", "done again"))

	listed, err = repo.ActionsByMeeting(ctx, meeting.Filename)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, StatusCompleted, listed[0].Status)
	require.NotNil(t, listed[0].CompletedAt)

	err = repo.MarkCompleted(ctx, -1, "", "")
	require.Error(t, err)
	assert.True(t, mterrors.IsNotFound(err))

	err = repo.UpdateStatus(ctx, action.ID, Status(""), "", "")
	require.Error(t, err)
	assert.True(t, mterrors.IsValidation(err))

	stats, err := repo.GetStatistics(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalActions, int64(1))
	assert.GreaterOrEqual(t, stats.ByStatus[StatusCompleted], int64(1))

	// Custom statuses outside the built-in set are storable and recorded
	// in the history like any other transition.
	require.NoError(t, repo.UpdateStatus(ctx, action.ID, Status("deferred"), "bob", "waiting on vendor"))
	listed, err = repo.ActionsByMeeting(ctx, meeting.Filename)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, Status("deferred"), listed[0].Status)
}

func TestCleanupIntegration(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	action := &Action{
		MeetingFile: "cleanup-" + time.Now().Format("20060102150405.000") + ".vtt",
		Text:        "Bob will archive the minutes",
	}
	require.NoError(t, repo.CreateAction(ctx, action))
	require.NoError(t, repo.MarkCompleted(ctx, action.ID, "bob", ""))

	// A negative window falls back to the default retention, which leaves
	// a freshly completed action in place.
	result, err := repo.Cleanup(ctx, -1)
	require.NoError(t, err)
	listed, err := repo.ActionsByMeeting(ctx, action.MeetingFile)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// Zero means "everything completed, right now", history included.
	result, err = repo.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.DeletedActions, int64(1))
	assert.GreaterOrEqual(t, result.DeletedHistory, int64(1))

	listed, err = repo.ActionsByMeeting(ctx, action.MeetingFile)
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Nothing left to delete is still a success.
	result, err = repo.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, result.DeletedActions)
	assert.Zero(t, result.DeletedHistory)
}

func TestOverdueClampIntegration(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	past := time.Now().Add(-24 * time.Hour)
	action := &Action{
		MeetingFile: "overdue-" + time.Now().Format("20060102150405.000") + ".vtt",
		Text:        "Someone should have finished this",
		Deadline:    &past,
	}
	require.NoError(t, repo.CreateAction(ctx, action))

	overdue, err := repo.GetOverdueActions(ctx)
	require.NoError(t, err)

	var found bool
	for _, a := range overdue {
		if a.ID == action.ID {
			found = true
			assert.Equal(t, deadline.UrgencyOverdue, a.Urgency)
		}
	}
	assert.True(t, found, "expected action in overdue listing")
}
