package db

import (
	"fmt"
	"strings"
)

// schema is the full database schema. {{TIME}} is replaced with the
// dialect's timestamp type.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL,
    first_name    TEXT NOT NULL DEFAULT '',
    last_name     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    {{TIME}} NOT NULL,
    deleted_at    {{TIME}}
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    category        TEXT NOT NULL,
    serial_number_1 TEXT NOT NULL,
    serial_number_2 TEXT,
    serial_number_3 TEXT,
    owner_id        TEXT REFERENCES users(id),
    location        TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'assigned', 'in_repair', 'retired')),
    version         INTEGER NOT NULL DEFAULT 1,
    created_at      {{TIME}} NOT NULL,
    updated_at      {{TIME}} NOT NULL,
    deleted_at      {{TIME}}
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at {{TIME}} NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    id          TEXT PRIMARY KEY,
    token_hash  TEXT NOT NULL UNIQUE,
    user_id     TEXT NOT NULL REFERENCES users(id),
    issued_at   {{TIME}} NOT NULL,
    expires_at  {{TIME}} NOT NULL,
    revoked_at  {{TIME}},
    replaced_by TEXT
);

CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist and
// applies pending migrations.
func EnsureSchema(d *DB) error {
	timeType := "DATETIME"
	if d.Driver == DriverPostgres {
		timeType = "TIMESTAMPTZ"
	}

	for _, stmt := range splitStatements(strings.ReplaceAll(schema, "{{TIME}}", timeType)) {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	for i, m := range migrations {
		if _, err := d.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

// splitStatements splits a script on ";" so drivers that refuse
// multi-statement Exec calls still work.
func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
