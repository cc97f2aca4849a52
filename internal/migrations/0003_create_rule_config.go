package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0003, Down0003)
}

func Up0003(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE rule_config (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	marathon_id UUID NOT NULL REFERENCES marathon(id) ON DELETE CASCADE,
	rule_key TEXT NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT false,
	severity TEXT NOT NULL DEFAULT 'error',
	params JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	UNIQUE (marathon_id, rule_key)
);
`)

	return err
}

func Down0003(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE rule_config;`)
	return err
}
