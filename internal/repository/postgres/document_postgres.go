package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"documind/internal/model"
	"documind/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// List-valued fields are stored as JSONB.
type DocumentPostgres struct {
	db *sql.DB
}

func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, name, type, contract_number, owner_id, folder_id, size, last_modified,
		current_version, versions, tags, attachments, is_starred, is_trashed`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (model.Document, error) {
	var (
		d                           model.Document
		folderID                    sql.NullString
		versions, tags, attachments []byte
	)
	if err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Type,
		&d.ContractNumber,
		&d.OwnerID,
		&folderID,
		&d.Size,
		&d.LastModified,
		&d.CurrentVersion,
		&versions,
		&tags,
		&attachments,
		&d.IsStarred,
		&d.IsTrashed,
	); err != nil {
		return model.Document{}, err
	}
	if folderID.Valid {
		d.FolderID = model.String(folderID.String)
	}
	if err := json.Unmarshal(versions, &d.Versions); err != nil {
		return model.Document{}, fmt.Errorf("decode versions of %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(tags, &d.Tags); err != nil {
		return model.Document{}, fmt.Errorf("decode tags of %s: %w", d.ID, err)
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &d.Attachments); err != nil {
			return model.Document{}, fmt.Errorf("decode attachments of %s: %w", d.ID, err)
		}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}

// ListActive returns non-trashed documents, newest first.
func (r *DocumentPostgres) ListActive(ctx context.Context) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + `
		FROM documents
		WHERE is_trashed = false
		ORDER BY last_modified DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// InsertIfAbsent writes doc with ON CONFLICT DO NOTHING so a replayed upload
// keeps the first stored row.
func (r *DocumentPostgres) InsertIfAbsent(ctx context.Context, doc model.Document) (bool, error) {
	const q = `
		INSERT INTO documents (id, name, type, contract_number, owner_id, folder_id, size,
			last_modified, current_version, versions, tags, attachments, is_starred, is_trashed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`
	versions, err := json.Marshal(nonNil(doc.Versions))
	if err != nil {
		return false, fmt.Errorf("encode versions: %w", err)
	}
	tags, err := json.Marshal(nonNil(doc.Tags))
	if err != nil {
		return false, fmt.Errorf("encode tags: %w", err)
	}
	attachments, err := json.Marshal(nonNil(doc.Attachments))
	if err != nil {
		return false, fmt.Errorf("encode attachments: %w", err)
	}

	var folderID sql.NullString
	if doc.FolderID != nil {
		folderID = sql.NullString{String: *doc.FolderID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, q,
		doc.ID,
		doc.Name,
		doc.Type,
		doc.ContractNumber,
		doc.OwnerID,
		folderID,
		doc.Size,
		doc.LastModified,
		doc.CurrentVersion,
		versions,
		tags,
		attachments,
		doc.IsStarred,
		doc.IsTrashed,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateStatus leaves a flag untouched when its patch field is nil.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, patch model.StatusPatch) (model.Document, error) {
	q := `
		UPDATE documents
		SET is_starred = COALESCE($2, is_starred),
		    is_trashed = COALESCE($3, is_trashed)
		WHERE id = $1
		RETURNING ` + documentColumns

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id, nullBool(patch.IsStarred), nullBool(patch.IsTrashed)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, repository.ErrNotFound
	}
	return d, err
}

func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (model.Document, error) {
	q := `SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1`

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, repository.ErrNotFound
	}
	return d, err
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
