// Package tracker persists meetings and their action items in Postgres and
// answers the lifecycle queries: listing, completion, overdue scans,
// statistics and retention cleanup.
package tracker

import (
	"time"

	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
)

// Status is the lifecycle state of an action item.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the built-in statuses. Storage accepts
// arbitrary non-empty statuses; this only identifies the well-known ones.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Meeting is one processed meeting with its extracted summary fields.
type Meeting struct {
	ID              int64
	Filename        string
	Title           string
	Date            time.Time
	DurationSeconds float64
	Participants    []string
	Summary         string
	AgendaItems     []string
	Decisions       []string
	Risks           []string
	NextSteps       []string
	TranscriptPath  string
	AudioPath       string
	CreatedAt       time.Time

	// SpeakingTime maps participant name to seconds spoken. Populated on
	// create and on read from the participants table.
	SpeakingTime map[string]float64
}

// Action is one tracked action item.
type Action struct {
	ID           int64
	MeetingFile  string
	MeetingID    *int64
	MeetingTitle string
	MeetingDate  *time.Time
	Text         string
	Assignees    []string
	Deadline     *time.Time
	Urgency      deadline.Urgency
	Status       Status
	Confidence   float64
	Speaker      string
	StartTime    float64
	EndTime      float64
	CreatedAt    time.Time
	CompletedAt  *time.Time
	Notes        string
}

// HistoryEntry records one status transition of an action.
type HistoryEntry struct {
	ID        int64
	ActionID  int64
	OldStatus Status
	NewStatus Status
	ChangedBy string
	Reason    string
	ChangedAt time.Time
}

// Filter narrows action listings. Zero values match everything.
type Filter struct {
	Status  Status
	Urgency deadline.Urgency
}

// Statistics summarizes the tracked backlog.
type Statistics struct {
	TotalActions   int64
	ByStatus       map[Status]int64
	OpenByUrgency  map[deadline.Urgency]int64
	OverdueCount   int64
	RecentMeetings int64
}

// CleanupResult reports what a retention sweep removed.
type CleanupResult struct {
	DeletedActions int64
	DeletedHistory int64
}
