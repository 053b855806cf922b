package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"neurosync/internal/errors"
)

// schema holds the DDL for the result store. Series data is kept as JSON
// arrays: the store is a structured-array container, opaque to the core.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		recording_id TEXT NOT NULL,
		band_low_hz DOUBLE PRECISION NOT NULL,
		band_high_hz DOUBLE PRECISION NOT NULL,
		band_order INTEGER NOT NULL,
		window_start_ms DOUBLE PRECISION NOT NULL,
		window_end_ms DOUBLE PRECISION NOT NULL,
		roi JSONB NOT NULL DEFAULT '[]',
		seed_channel TEXT NOT NULL DEFAULT '',
		bootstrap_reps INTEGER NOT NULL,
		seed BIGINT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		fingerprint TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS plv_results (
		run_id TEXT PRIMARY KEY REFERENCES analysis_runs(id) ON DELETE CASCADE,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs(created_at DESC)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.DatabaseError("schema migration failed", err)
		}
	}
	return nil
}
