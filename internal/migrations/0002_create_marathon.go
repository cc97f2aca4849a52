package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0002, Down0002)
}

func Up0002(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE marathon (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	domain TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);

CREATE TABLE competition_class (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	marathon_id UUID NOT NULL REFERENCES marathon(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	number_of_photos INTEGER NOT NULL CHECK (number_of_photos > 0),
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);

CREATE TABLE participant (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	marathon_id UUID NOT NULL REFERENCES marathon(id) ON DELETE CASCADE,
	competition_class_id UUID REFERENCES competition_class(id) ON DELETE SET NULL,
	reference TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	UNIQUE (marathon_id, reference)
);

CREATE TABLE topic (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	marathon_id UUID NOT NULL REFERENCES marathon(id) ON DELETE CASCADE,
	order_index INTEGER NOT NULL,
	name TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	UNIQUE (marathon_id, order_index)
);
`)

	return err
}

func Down0002(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
DROP TABLE topic;
DROP TABLE participant;
DROP TABLE competition_class;
DROP TABLE marathon;
`)
	return err
}
