package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
	mterrors "github.com/otherjamesbrown/mint-cli/pkg/errors"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
)

// DefaultRetentionDays is how long completed actions and history rows are
// kept when no explicit retention is given.
const DefaultRetentionDays = 90

const uniqueViolation = "23505"

// Repository provides database operations for meetings and action items.
type Repository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
	now    func() time.Time
}

// NewRepository creates a new tracker repository.
func NewRepository(pool *pgxpool.Pool, logger logging.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger.With(logging.F("component", "tracker_repository")),
		now:    time.Now,
	}
}

// CreateMeeting inserts a meeting with its participant rows and fills in the
// generated ID and timestamps. A duplicate filename maps to a conflict error.
func (r *Repository) CreateMeeting(ctx context.Context, m *Meeting) error {
	agendaJSON, err := json.Marshal(orEmpty(m.AgendaItems))
	if err != nil {
		return fmt.Errorf("failed to marshal agenda_items: %w", err)
	}
	decisionsJSON, err := json.Marshal(orEmpty(m.Decisions))
	if err != nil {
		return fmt.Errorf("failed to marshal decisions: %w", err)
	}
	risksJSON, err := json.Marshal(orEmpty(m.Risks))
	if err != nil {
		return fmt.Errorf("failed to marshal risks: %w", err)
	}
	nextStepsJSON, err := json.Marshal(orEmpty(m.NextSteps))
	if err != nil {
		return fmt.Errorf("failed to marshal next_steps: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	date := m.Date
	if date.IsZero() {
		date = r.now()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO meetings (
			filename, title, date, duration_seconds, participants, summary,
			agenda_items, decisions, risks, next_steps,
			transcript_path, audio_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, date, created_at
	`,
		m.Filename,
		m.Title,
		date,
		m.DurationSeconds,
		orEmpty(m.Participants),
		m.Summary,
		agendaJSON,
		decisionsJSON,
		risksJSON,
		nextStepsJSON,
		m.TranscriptPath,
		m.AudioPath,
	).Scan(&m.ID, &m.Date, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("meeting %q: %w", m.Filename, mterrors.ErrConflict)
		}
		return fmt.Errorf("failed to insert meeting: %w", err)
	}

	for _, participant := range m.Participants {
		_, err = tx.Exec(ctx, `
			INSERT INTO participants (meeting_id, speaker_name, speaking_time)
			VALUES ($1, $2, $3)
		`, m.ID, participant, m.SpeakingTime[participant])
		if err != nil {
			return fmt.Errorf("failed to insert participant %q: %w", participant, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit meeting: %w", err)
	}

	r.logger.Debug("meeting created",
		logging.F("meeting_id", m.ID),
		logging.F("filename", m.Filename),
		logging.F("participants", len(m.Participants)),
	)
	return nil
}

// GetMeetingByFilename loads one meeting with its speaking-time breakdown.
func (r *Repository) GetMeetingByFilename(ctx context.Context, filename string) (*Meeting, error) {
	var m Meeting
	var agendaJSON, decisionsJSON, risksJSON, nextStepsJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, filename, title, date, duration_seconds, participants, summary,
		       agenda_items, decisions, risks, next_steps,
		       transcript_path, audio_path, created_at
		FROM meetings
		WHERE filename = $1
	`, filename).Scan(
		&m.ID, &m.Filename, &m.Title, &m.Date, &m.DurationSeconds,
		&m.Participants, &m.Summary,
		&agendaJSON, &decisionsJSON, &risksJSON, &nextStepsJSON,
		&m.TranscriptPath, &m.AudioPath, &m.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("meeting %q: %w", filename, mterrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query meeting: %w", err)
	}

	fields := []struct {
		raw []byte
		dst *[]string
	}{
		{agendaJSON, &m.AgendaItems},
		{decisionsJSON, &m.Decisions},
		{risksJSON, &m.Risks},
		{nextStepsJSON, &m.NextSteps},
	}
	for _, field := range fields {
		if err := json.Unmarshal(field.raw, field.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meeting field: %w", err)
		}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT speaker_name, speaking_time
		FROM participants
		WHERE meeting_id = $1
	`, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	m.SpeakingTime = make(map[string]float64)
	for rows.Next() {
		var (
			name    string
			seconds float64
		)
		if err := rows.Scan(&name, &seconds); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		m.SpeakingTime[name] = seconds
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read participants: %w", err)
	}
	return &m, nil
}

// CreateAction inserts one action item and fills in its ID and created_at.
func (r *Repository) CreateAction(ctx context.Context, a *Action) error {
	if a.Status == "" {
		a.Status = StatusOpen
	}
	if a.Urgency == "" {
		a.Urgency = deadline.ClassifyUrgency(a.Deadline, r.now())
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO actions (
			meeting_file, meeting_id, action_text, assignees,
			deadline, deadline_urgency, status, confidence,
			speaker, start_time, end_time, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`,
		a.MeetingFile,
		a.MeetingID,
		a.Text,
		orEmpty(a.Assignees),
		a.Deadline,
		string(a.Urgency),
		string(a.Status),
		a.Confidence,
		a.Speaker,
		a.StartTime,
		a.EndTime,
		a.Notes,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	return nil
}

const actionColumns = `
	a.id, a.meeting_file, a.meeting_id, a.action_text, a.assignees,
	a.deadline, a.deadline_urgency, a.status, a.confidence,
	a.speaker, a.start_time, a.end_time, a.created_at, a.completed_at, a.notes,
	COALESCE(m.title, ''), m.date
`

// ListActions returns actions newest first, optionally narrowed by status
// and urgency. Urgency for open actions is recomputed against the clock so a
// stored tier never goes stale.
func (r *Repository) ListActions(ctx context.Context, filter Filter) ([]Action, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM actions a
		LEFT JOIN meetings m ON a.meeting_id = m.id
		WHERE 1=1
	`
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if filter.Urgency != "" {
		args = append(args, string(filter.Urgency))
		query += fmt.Sprintf(" AND a.deadline_urgency = $%d", len(args))
	}
	query += " ORDER BY a.created_at DESC"

	return r.queryActions(ctx, query, args...)
}

// ActionsByMeeting returns a meeting's actions in transcript order.
func (r *Repository) ActionsByMeeting(ctx context.Context, meetingFile string) ([]Action, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM actions a
		LEFT JOIN meetings m ON a.meeting_id = m.id
		WHERE a.meeting_file = $1
		ORDER BY a.start_time ASC
	`
	return r.queryActions(ctx, query, meetingFile)
}

// GetOverdueActions returns open actions whose deadline has passed, soonest
// deadline first.
func (r *Repository) GetOverdueActions(ctx context.Context) ([]Action, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM actions a
		LEFT JOIN meetings m ON a.meeting_id = m.id
		WHERE a.status = 'open' AND a.deadline IS NOT NULL AND a.deadline < $1
		ORDER BY a.deadline ASC
	`
	return r.queryActions(ctx, query, r.now())
}

func (r *Repository) queryActions(ctx context.Context, query string, args ...any) ([]Action, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	now := r.now()
	var actions []Action
	for rows.Next() {
		var (
			a       Action
			urgency string
			status  string
		)
		err := rows.Scan(
			&a.ID, &a.MeetingFile, &a.MeetingID, &a.Text, &a.Assignees,
			&a.Deadline, &urgency, &status, &a.Confidence,
			&a.Speaker, &a.StartTime, &a.EndTime, &a.CreatedAt, &a.CompletedAt, &a.Notes,
			&a.MeetingTitle, &a.MeetingDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		a.Urgency = deadline.Urgency(urgency)
		a.Status = Status(status)
		if a.Status == StatusOpen && a.Deadline != nil {
			a.Urgency = deadline.ClassifyUrgency(a.Deadline, now)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read actions: %w", err)
	}
	return actions, nil
}

// MarkCompleted sets an action to completed, stamps completed_at and appends
// a history row. Completing an already-completed action appends another
// history row and succeeds.
func (r *Repository) MarkCompleted(ctx context.Context, actionID int64, completedBy, notes string) error {
	return r.transition(ctx, actionID, StatusCompleted, completedBy, "Marked as completed", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE actions
			SET status = $1, completed_at = $2, notes = $3
			WHERE id = $4
		`, string(StatusCompleted), r.now(), notes, actionID)
		return err
	})
}

// UpdateStatus moves an action to a new status with a history row. Any
// non-empty status is storable, not just the built-in constants, so callers
// can track workflow states of their own (deferred, blocked, ...).
func (r *Repository) UpdateStatus(ctx context.Context, actionID int64, newStatus Status, changedBy, reason string) error {
	if newStatus == "" {
		return fmt.Errorf("empty status: %w", mterrors.ErrValidation)
	}
	return r.transition(ctx, actionID, newStatus, changedBy, reason, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `UPDATE actions SET status = $1 WHERE id = $2`, string(newStatus), actionID)
		return err
	})
}

// transition applies an update plus its history row in one transaction.
func (r *Repository) transition(ctx context.Context, actionID int64, newStatus Status, changedBy, reason string, update func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var oldStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM actions WHERE id = $1 FOR UPDATE`, actionID).Scan(&oldStatus)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("action %d: %w", actionID, mterrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query action status: %w", err)
	}

	if err := update(tx); err != nil {
		return fmt.Errorf("failed to update action: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO action_history (action_id, old_status, new_status, changed_by, change_reason)
		VALUES ($1, $2, $3, $4, $5)
	`, actionID, oldStatus, string(newStatus), changedBy, reason)
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status change: %w", err)
	}

	r.logger.Debug("action status changed",
		logging.F("action_id", actionID),
		logging.F("old_status", oldStatus),
		logging.F("new_status", string(newStatus)),
	)
	return nil
}

// GetStatistics summarizes the backlog.
func (r *Repository) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		ByStatus:      make(map[Status]int64),
		OpenByUrgency: make(map[deadline.Urgency]int64),
	}

	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM actions`).Scan(&stats.TotalActions)
	if err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM actions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT deadline_urgency, COUNT(*)
		FROM actions
		WHERE status = 'open'
		GROUP BY deadline_urgency
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by urgency: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			urgency string
			count   int64
		)
		if err := rows.Scan(&urgency, &count); err != nil {
			return nil, fmt.Errorf("failed to scan urgency count: %w", err)
		}
		stats.OpenByUrgency[deadline.Urgency(urgency)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read urgency counts: %w", err)
	}

	now := r.now()
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM actions
		WHERE status = 'open' AND deadline IS NOT NULL AND deadline < $1
	`, now).Scan(&stats.OverdueCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue actions: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM meetings
		WHERE date >= $1
	`, now.AddDate(0, 0, -7)).Scan(&stats.RecentMeetings)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent meetings: %w", err)
	}

	return stats, nil
}

// Cleanup deletes completed actions finished more than daysOld days ago and
// history rows of the same age. Zero deletes every completed action and all
// history; a negative value uses the default retention window.
func (r *Repository) Cleanup(ctx context.Context, daysOld int) (*CleanupResult, error) {
	if daysOld < 0 {
		daysOld = DefaultRetentionDays
	}
	cutoff := r.now().AddDate(0, 0, -daysOld)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	actionsTag, err := tx.Exec(ctx, `
		DELETE FROM actions
		WHERE status = 'completed' AND completed_at < $1
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete old actions: %w", err)
	}

	historyTag, err := tx.Exec(ctx, `
		DELETE FROM action_history
		WHERE changed_at < $1
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete old history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cleanup: %w", err)
	}

	result := &CleanupResult{
		DeletedActions: actionsTag.RowsAffected(),
		DeletedHistory: historyTag.RowsAffected(),
	}
	r.logger.Info("retention cleanup finished",
		logging.F("days_old", daysOld),
		logging.F("deleted_actions", result.DeletedActions),
		logging.F("deleted_history", result.DeletedHistory),
	)
	return result, nil
}

// orEmpty keeps text[] columns NOT NULL even from nil slices.
func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
