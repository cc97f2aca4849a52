package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0004, Down0004)
}

func Up0004(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE submission (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	key TEXT NOT NULL UNIQUE,
	participant_id UUID NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
	marathon_id UUID NOT NULL REFERENCES marathon(id) ON DELETE CASCADE,
	topic_id UUID REFERENCES topic(id) ON DELETE SET NULL,
	status TEXT NOT NULL DEFAULT 'initialized'
		CHECK (status IN ('initialized', 'processing', 'completed', 'failed', 'verified')),
	exif JSONB,
	size BIGINT,
	mime_type TEXT,
	thumbnail_key TEXT,
	preview_key TEXT,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);

CREATE INDEX submission_participant_status_idx ON submission (participant_id, status);
`)

	return err
}

func Down0004(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE submission;`)
	return err
}
