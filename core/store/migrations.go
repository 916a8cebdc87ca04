package store

import (
	"context"
	"fmt"

	"vigia-incidents/core/utils"
)

// Statements are written to run on both sqlite and postgres; every entry
// must stay idempotent because the full list executes on every startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		description TEXT NOT NULL,
		contact TEXT,
		user_issuer_id TEXT NOT NULL DEFAULT '',
		user_issuer_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id TEXT PRIMARY KEY,
		incident_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_uri TEXT NOT NULL,
		content_type TEXT NOT NULL,
		user_attacher_id TEXT NOT NULL DEFAULT '',
		user_attacher_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_attachments_incident ON attachments(incident_id);`,
}

func ApplyMigrations(ctx context.Context, db *DB, logger *utils.Logger) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration #%d failed: %w", i+1, err)
		}
	}
	if logger != nil {
		logger.Printf("migrations applied")
	}
	return nil
}
