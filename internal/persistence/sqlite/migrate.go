package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type migration struct {
	Version     string
	Description string
	SQL         string
}

// migrations apply in declaration order. Versions are monotonic and
// never reused.
var migrations = []migration{
	{
		Version:     "001",
		Description: "speakers and action log",
		SQL: `
CREATE TABLE IF NOT EXISTS speakers (
	id                 TEXT PRIMARY KEY,
	full_name          TEXT NOT NULL,
	email              TEXT NOT NULL,
	affiliation        TEXT NOT NULL DEFAULT '',
	country            TEXT NOT NULL DEFAULT '',
	expertise          TEXT NOT NULL DEFAULT '',
	ranking            TEXT NOT NULL DEFAULT 'medium',
	host               TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	access_token       TEXT NOT NULL UNIQUE,
	invitation_sent_at TEXT,
	response_deadline  TEXT,
	assigned_date_id   TEXT,
	talk_title         TEXT NOT NULL DEFAULT '',
	talk_abstract      TEXT NOT NULL DEFAULT '',
	proposed_by_id     TEXT NOT NULL DEFAULT '',
	proposed_by_name   TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS speaker_actions (
	speaker_id   TEXT NOT NULL REFERENCES speakers(id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	label        TEXT NOT NULL DEFAULT '',
	timestamp    TEXT NOT NULL,
	completed    INTEGER NOT NULL DEFAULT 0,
	completed_at TEXT,
	actor        TEXT NOT NULL DEFAULT '',
	outcome      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (speaker_id, position)
);
`,
	},
	{
		Version:     "002",
		Description: "available dates with exclusive locking",
		SQL: `
CREATE TABLE IF NOT EXISTS available_dates (
	id            TEXT PRIMARY KEY,
	calendar_date TEXT NOT NULL,
	host          TEXT NOT NULL DEFAULT '',
	notes         TEXT NOT NULL DEFAULT '',
	available     INTEGER NOT NULL DEFAULT 1,
	lock_state    TEXT NOT NULL DEFAULT 'unset'
	              CHECK (lock_state IN ('unset', 'speaker', 'deleted')),
	locked_by     TEXT NOT NULL DEFAULT '',
	talk_title    TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_available_dates_active_day
	ON available_dates(calendar_date)
	WHERE lock_state != 'deleted';
`,
	},
	{
		Version:     "003",
		Description: "visit agendas and meetings",
		SQL: `
CREATE TABLE IF NOT EXISTS agendas (
	id           TEXT PRIMARY KEY,
	speaker_id   TEXT NOT NULL UNIQUE REFERENCES speakers(id) ON DELETE CASCADE,
	host         TEXT NOT NULL DEFAULT '',
	seminar_date TEXT NOT NULL,
	start_date   TEXT NOT NULL,
	end_date     TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS agenda_meetings (
	agenda_id  TEXT NOT NULL REFERENCES agendas(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	title      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	date       TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time   TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	attendees  TEXT NOT NULL DEFAULT '[]',
	locked     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (agenda_id, position)
);
`,
	},
	{
		Version:     "004",
		Description: "accounts, sessions and signup invites",
		SQL: `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('organizer', 'senior_fellow')),
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token      TEXT NOT NULL UNIQUE,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL,
	revoked_at TEXT
);

CREATE TABLE IF NOT EXISTS signup_invites (
	token      TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	role       TEXT NOT NULL CHECK (role IN ('organizer', 'senior_fellow')),
	created_by TEXT NOT NULL DEFAULT '',
	expires_at TEXT NOT NULL,
	claimed_at TEXT,
	claimed_by TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`,
	},
}

// Migrate applies all pending migrations in order. Each migration runs
// in its own transaction and is recorded in schema_migrations.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version     TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at  TEXT NOT NULL
);
`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(ctx, pool, m.Version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return fmt.Errorf("migration %s failed: %w", m.Version, err)
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
				m.Version, m.Description, time.Now().UTC().Format(time.RFC3339),
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func migrationApplied(ctx context.Context, pool *ConnectionPool, version string) (bool, error) {
	var count int
	err := pool.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", version, err)
	}
	return count > 0, nil
}
