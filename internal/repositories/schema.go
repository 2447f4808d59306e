package repositories

import (
	"context"
	"database/sql"
)

// Enum columns hold symbolic names, never numeric codes.
const tasksSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id                          TEXT PRIMARY KEY,
	title                       TEXT NOT NULL,
	description                 TEXT NOT NULL DEFAULT '',
	priority                    TEXT NOT NULL CHECK (priority IN ('low','medium','high')),
	status                      TEXT NOT NULL CHECK (status IN ('pending','in_progress','completed')),
	acceptance_status           TEXT NOT NULL CHECK (acceptance_status IN ('pending','accepted','rejected','extension_requested')),
	edit_request_status         TEXT NOT NULL CHECK (edit_request_status IN ('none','pending','approved','rejected')),
	start_date                  TIMESTAMPTZ,
	deadline                    TIMESTAMPTZ NOT NULL,
	original_deadline           TIMESTAMPTZ NOT NULL,
	requested_deadline          TIMESTAMPTZ,
	extension_reason            TEXT,
	estimated_time_to_complete  TEXT,
	acceptance_timestamp        TIMESTAMPTZ,
	rejection_reason            TEXT,
	edit_request_reason         TEXT,
	edit_request_details        TEXT,
	assigned_user_id            BIGINT NOT NULL,
	created_by_id               BIGINT NOT NULL,
	team_id                     BIGINT NOT NULL,
	comments                    JSONB NOT NULL DEFAULT '[]'::jsonb,
	is_overdue                  BOOLEAN NOT NULL DEFAULT FALSE,
	is_at_risk                  BOOLEAN NOT NULL DEFAULT FALSE,
	version                     BIGINT NOT NULL,
	created_at                  TIMESTAMPTZ NOT NULL,
	updated_at                  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_assigned_user ON tasks(assigned_user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_created_by ON tasks(created_by_id);
CREATE INDEX IF NOT EXISTS idx_tasks_team ON tasks(team_id);
`

// EnsureSchema creates the tasks table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, tasksSchema)
	return err
}
