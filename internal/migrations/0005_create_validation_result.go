package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0005, Down0005)
}

func Up0005(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE validation_result (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	participant_id UUID NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
	file_name TEXT,
	rule_key TEXT NOT NULL,
	severity TEXT NOT NULL CHECK (severity IN ('error', 'warning')),
	outcome TEXT NOT NULL CHECK (outcome IN ('passed', 'failed', 'skipped')),
	message TEXT NOT NULL,
	overruled BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);

CREATE INDEX validation_result_participant_idx ON validation_result (participant_id);

CREATE TABLE submission_error (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	submission_key TEXT NOT NULL,
	code TEXT NOT NULL,
	message TEXT NOT NULL,
	severity TEXT NOT NULL,
	description TEXT NOT NULL,
	context JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);

CREATE INDEX submission_error_key_idx ON submission_error (submission_key);
`)

	return err
}

func Down0005(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
DROP TABLE submission_error;
DROP TABLE validation_result;
`)
	return err
}
