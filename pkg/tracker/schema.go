package tracker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements create the tracker tables and indexes. Statements are
// idempotent so InitSchema can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS meetings (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		participants TEXT[] NOT NULL DEFAULT '{}',
		summary TEXT NOT NULL DEFAULT '',
		agenda_items JSONB NOT NULL DEFAULT '[]',
		decisions JSONB NOT NULL DEFAULT '[]',
		risks JSONB NOT NULL DEFAULT '[]',
		next_steps JSONB NOT NULL DEFAULT '[]',
		transcript_path TEXT NOT NULL DEFAULT '',
		audio_path TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS participants (
		id BIGSERIAL PRIMARY KEY,
		meeting_id BIGINT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		speaker_name TEXT NOT NULL,
		speaking_time DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS actions (
		id BIGSERIAL PRIMARY KEY,
		meeting_file TEXT NOT NULL,
		meeting_id BIGINT REFERENCES meetings(id) ON DELETE SET NULL,
		action_text TEXT NOT NULL,
		assignees TEXT[] NOT NULL DEFAULT '{}',
		deadline TIMESTAMPTZ,
		deadline_urgency TEXT NOT NULL DEFAULT 'low',
		status TEXT NOT NULL DEFAULT 'open',
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		speaker TEXT NOT NULL DEFAULT '',
		start_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		end_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ,
		notes TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS action_history (
		id BIGSERIAL PRIMARY KEY,
		action_id BIGINT NOT NULL REFERENCES actions(id) ON DELETE CASCADE,
		old_status TEXT NOT NULL,
		new_status TEXT NOT NULL,
		changed_by TEXT NOT NULL DEFAULT '',
		change_reason TEXT NOT NULL DEFAULT '',
		changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_actions_meeting_file ON actions(meeting_file)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_meeting_id ON actions(meeting_id)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_status ON actions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_deadline ON actions(deadline)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_date ON meetings(date)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_meeting_id ON participants(meeting_id)`,
}

// InitSchema creates all tracker tables and indexes if they do not exist.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
