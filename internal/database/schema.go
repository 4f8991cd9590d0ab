package database

import (
	"context"
	"fmt"
)

// schema is applied on every Connect; every statement is idempotent.
// seq breaks created_at ties so newest-first ordering is total.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS participants (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		seq        BIGINT GENERATED ALWAYS AS IDENTITY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		phone      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS participants_email_key ON participants (email)`,
	`CREATE INDEX IF NOT EXISTS participants_created_at_idx ON participants (created_at DESC, seq DESC)`,
}

// EmailUniqueIndex is the name of the constraint that enforces one
// participant per email.
const EmailUniqueIndex = "participants_email_key"

// EnsureSchema creates the participants table and its indexes if missing.
func EnsureSchema(ctx context.Context, db Querier) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
