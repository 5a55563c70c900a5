package repository

import (
	"context"
	"errors"

	"documind/internal/model"
)

// ErrNotFound is returned when no document row matches the given id.
var ErrNotFound = errors.New("document not found")

// DocumentRepository defines data access for bridge documents.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// ListActive returns every document that is not trashed, most recently
	// modified first.
	ListActive(ctx context.Context) ([]model.Document, error)

	// InsertIfAbsent stores doc unless a row with the same id exists. It
	// reports whether a row was written.
	InsertIfAbsent(ctx context.Context, doc model.Document) (bool, error)

	// UpdateStatus applies the set flags of patch and returns the stored row.
	UpdateStatus(ctx context.Context, id string, patch model.StatusPatch) (model.Document, error)

	FindByID(ctx context.Context, id string) (model.Document, error)
}
