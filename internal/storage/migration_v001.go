package storage

import (
	"context"
	"database/sql"
)

// migrateV001 creates the sources table read by the dashboard. Timestamps are
// stored as ISO-8601 text, matching databases produced by other tools.
func migrateV001(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			endpoint_name TEXT NOT NULL DEFAULT '',
			client_name   TEXT NOT NULL DEFAULT '',
			state         TEXT NOT NULL DEFAULT '',
			reason        TEXT NOT NULL DEFAULT '',
			state_begin   TEXT NOT NULL,
			state_end     TEXT NOT NULL,
			duration_min  REAL NOT NULL DEFAULT 0,
			shift_day     TEXT NOT NULL DEFAULT '',
			shift_name    TEXT NOT NULL DEFAULT '',
			operator      TEXT NOT NULL DEFAULT '',
			color         TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sources_reason      ON sources(reason)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_state_begin ON sources(state_begin)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
