// Package reporting provides read-only reporting queries over the action
// tracking database. It is intended for dashboards and exports that aggregate
// across meetings and does not mutate any state.
package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/otherjamesbrown/mint-cli/pkg/logging"
)

// Client provides read-only reporting queries.
type Client struct {
	db     *sql.DB
	logger logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient opens a read-only reporting connection. The pool is kept small
// since reporting queries are infrequent compared to pipeline writes.
func NewClient(connStr string, opts ...Option) (*Client, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	c := &Client{
		db:     db,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logging.F("component", "reporting"))

	return c, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// ActionRow is a reporting view of an action joined with its meeting.
type ActionRow struct {
	ID           int64      `json:"id"`
	Description  string     `json:"description"`
	Assignees    []string   `json:"assignees,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Urgency      string     `json:"urgency"`
	Status       string     `json:"status"`
	Confidence   float64    `json:"confidence"`
	MeetingTitle string     `json:"meeting_title,omitempty"`
	MeetingDate  *time.Time `json:"meeting_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ActionReportOptions contains filters for the action report.
type ActionReportOptions struct {
	Status   string
	Urgency  string
	Assignee string
	Since    *time.Time
	Limit    int
}

// ActionReport lists actions joined with their source meetings, newest first.
func (c *Client) ActionReport(ctx context.Context, opts ActionReportOptions) ([]ActionRow, error) {
	query := `
		SELECT a.id, a.description, a.assignees, a.deadline, a.urgency,
		       a.status, a.confidence, m.title, m.date, a.created_at
		FROM actions a
		LEFT JOIN meetings m ON a.meeting_id = m.id
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 0

	if opts.Status != "" {
		argCount++
		query += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, opts.Status)
	}

	if opts.Urgency != "" {
		argCount++
		query += fmt.Sprintf(" AND a.urgency = $%d", argCount)
		args = append(args, opts.Urgency)
	}

	if opts.Assignee != "" {
		argCount++
		query += fmt.Sprintf(" AND $%d = ANY(a.assignees)", argCount)
		args = append(args, opts.Assignee)
	}

	if opts.Since != nil {
		argCount++
		query += fmt.Sprintf(" AND a.created_at >= $%d", argCount)
		args = append(args, *opts.Since)
	}

	query += " ORDER BY a.created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	var report []ActionRow
	for rows.Next() {
		var row ActionRow
		var deadline, meetingDate sql.NullTime
		var meetingTitle sql.NullString

		err := rows.Scan(
			&row.ID,
			&row.Description,
			pq.Array(&row.Assignees),
			&deadline,
			&row.Urgency,
			&row.Status,
			&row.Confidence,
			&meetingTitle,
			&meetingDate,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row.MeetingTitle = meetingTitle.String
		if deadline.Valid {
			row.Deadline = &deadline.Time
		}
		if meetingDate.Valid {
			row.MeetingDate = &meetingDate.Time
		}

		report = append(report, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return report, nil
}

// AssigneeLoad summarizes how many open actions each assignee carries.
type AssigneeLoad struct {
	Assignee     string `json:"assignee"`
	OpenActions  int64  `json:"open_actions"`
	OverdueCount int64  `json:"overdue_count"`
}

// AssigneeWorkload reports open action counts per assignee, busiest first.
func (c *Client) AssigneeWorkload(ctx context.Context) ([]AssigneeLoad, error) {
	query := `
		SELECT assignee,
		       COUNT(*) AS open_actions,
		       COUNT(*) FILTER (WHERE deadline IS NOT NULL AND deadline < NOW()) AS overdue_count
		FROM actions, unnest(assignees) AS assignee
		WHERE status IN ('open', 'in_progress')
		GROUP BY assignee
		ORDER BY open_actions DESC, assignee
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying workload: %w", err)
	}
	defer rows.Close()

	var loads []AssigneeLoad
	for rows.Next() {
		var load AssigneeLoad
		if err := rows.Scan(&load.Assignee, &load.OpenActions, &load.OverdueCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		loads = append(loads, load)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return loads, nil
}

// MeetingSummaryRow aggregates per-meeting action outcomes.
type MeetingSummaryRow struct {
	MeetingID      int64      `json:"meeting_id"`
	Title          string     `json:"title"`
	Date           *time.Time `json:"date,omitempty"`
	TotalActions   int64      `json:"total_actions"`
	CompletedCount int64      `json:"completed_count"`
	OpenCount      int64      `json:"open_count"`
}

// MeetingActivity reports action totals for the most recent meetings.
func (c *Client) MeetingActivity(ctx context.Context, limit int) ([]MeetingSummaryRow, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT m.id, m.title, m.date,
		       COUNT(a.id) AS total_actions,
		       COUNT(a.id) FILTER (WHERE a.status = 'completed') AS completed_count,
		       COUNT(a.id) FILTER (WHERE a.status IN ('open', 'in_progress')) AS open_count
		FROM meetings m
		LEFT JOIN actions a ON a.meeting_id = m.id
		GROUP BY m.id
		ORDER BY m.created_at DESC
		LIMIT $1
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying meeting activity: %w", err)
	}
	defer rows.Close()

	var summaries []MeetingSummaryRow
	for rows.Next() {
		var row MeetingSummaryRow
		var date sql.NullTime

		err := rows.Scan(
			&row.MeetingID,
			&row.Title,
			&date,
			&row.TotalActions,
			&row.CompletedCount,
			&row.OpenCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if date.Valid {
			row.Date = &date.Time
		}

		summaries = append(summaries, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return summaries, nil
}

// CompletionTrend is a weekly completion bucket.
type CompletionTrend struct {
	WeekStart time.Time `json:"week_start"`
	Completed int64     `json:"completed"`
	Created   int64     `json:"created"`
}

// CompletionTrends reports weekly created vs completed action counts over the
// given number of weeks.
func (c *Client) CompletionTrends(ctx context.Context, weeks int) ([]CompletionTrend, error) {
	if weeks <= 0 {
		weeks = 8
	}

	query := `
		SELECT date_trunc('week', created_at) AS week_start,
		       COUNT(*) AS created,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed
		FROM actions
		WHERE created_at >= NOW() - ($1 * INTERVAL '1 week')
		GROUP BY week_start
		ORDER BY week_start
	`

	rows, err := c.db.QueryContext(ctx, query, weeks)
	if err != nil {
		return nil, fmt.Errorf("querying completion trends: %w", err)
	}
	defer rows.Close()

	var trends []CompletionTrend
	for rows.Next() {
		var t CompletionTrend
		if err := rows.Scan(&t.WeekStart, &t.Created, &t.Completed); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		trends = append(trends, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return trends, nil
}
