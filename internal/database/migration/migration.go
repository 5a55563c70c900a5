// Package migration creates the bridge API schema on first start.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id              TEXT        PRIMARY KEY,
  name            TEXT        NOT NULL,
  type            TEXT        NOT NULL,
  contract_number TEXT        NOT NULL DEFAULT '',
  owner_id        TEXT        NOT NULL,
  folder_id       TEXT,
  size            TEXT        NOT NULL DEFAULT '',
  last_modified   TIMESTAMPTZ NOT NULL DEFAULT now(),
  current_version INTEGER     NOT NULL CHECK (current_version >= 1),
  versions        JSONB       NOT NULL DEFAULT '[]'::jsonb,
  tags            JSONB       NOT NULL DEFAULT '[]'::jsonb,
  attachments     JSONB       NOT NULL DEFAULT '[]'::jsonb,
  is_starred      BOOLEAN     NOT NULL DEFAULT false,
  is_trashed      BOOLEAN     NOT NULL DEFAULT false
);`,
	},
	{
		Name: "create_index_documents_folder_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_folder_id ON documents (folder_id);`,
	},
	{
		Name: "create_index_documents_last_modified",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_last_modified ON documents (last_modified DESC);`,
	},
	{
		Name: "create_index_documents_active",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_active ON documents (id) WHERE NOT is_trashed;`,
	},
}

const sentinelQuery = "SELECT to_regclass('public.documents') IS NOT NULL"

// EnsureMigrated creates the documents table and its indexes unless the table
// already exists.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	start := time.Now()
	logger = logger.With().Str("component", "database").Logger()

	var exists bool
	if err := db.QueryRowContext(ctx, sentinelQuery).Scan(&exists); err != nil {
		logger.Error().Err(err).
			Str("event", "db_migration_failed").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.Info().
			Str("event", "db_migration_skip").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	logger.Info().Str("event", "db_migration_start").Int("steps", len(steps)).Msg("migrating schema")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.Error().Err(err).
				Str("event", "db_migration_failed").
				Str("migration_step", step.Name).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Msg("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.Debug().
			Str("event", "db_migration_step").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Msg("migration step applied")
	}

	logger.Info().
		Str("event", "db_migration_success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("schema migrated")
	return nil
}
