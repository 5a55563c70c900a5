package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SchemaVersion is the version Init brings the database to. Upgrades are
// additive: a step only creates what is missing and never drops data.
const SchemaVersion = 2

type migrationStep struct {
	Version int
	Name    string
	SQL     []string
}

var steps = []migrationStep{
	{
		Version: 1,
		Name:    "create_documents_folders_audit_logs",
		SQL: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				id TEXT PRIMARY KEY,
				data TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS folders (
				id TEXT PRIMARY KEY,
				data TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS audit_logs (
				id TEXT PRIMARY KEY,
				data TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
		},
	},
	{
		Version: 2,
		Name:    "create_users_and_settings",
		SQL: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				data TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
		},
	},
}

// migrate applies every step above the stored user_version, each in its own
// transaction together with the version bump.
func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, step := range steps {
		if step.Version <= current {
			continue
		}
		if err := s.applyStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyStep(ctx context.Context, step migrationStep) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %s: begin: %w", step.Name, err)
	}
	defer tx.Rollback()

	for _, stmt := range step.SQL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %s: %w", step.Name, err)
		}
	}
	// PRAGMA does not take bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", step.Version)); err != nil {
		return fmt.Errorf("migration %s: set version: %w", step.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %s: commit: %w", step.Name, err)
	}
	return nil
}

// Version returns the schema version stored in the database.
func (s *Store) Version(ctx context.Context) (int, error) {
	db, err := s.db(ctx)
	if err != nil {
		return 0, err
	}
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Setting reads a single key outside the record collections, such as the
// persisted session reference. The bool is false when the key is absent.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	db, err := s.db(ctx)
	if err != nil {
		return "", false, err
	}
	var value string
	err = db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, true, nil
}

// PutSetting writes a single key, replacing any previous value.
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	query := `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a key; a missing key is not an error.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}
