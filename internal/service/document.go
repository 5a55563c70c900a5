package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"documind/internal/model"
	"documind/internal/repository"
	"documind/internal/storage"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("document not found")
	ErrEmptyPatch      = errors.New("status patch sets no field")
	ErrInvalidDocument = errors.New("invalid document")
	ErrReaderNil       = errors.New("reader is nil")
)

// Part is one binary file attached to a registered document.
type Part struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// RegisterResult reports the stored document and whether this call created it.
type RegisterResult struct {
	Document model.Document
	Created  bool
}

// DocumentService defines the bridge API use cases.
type DocumentService interface {
	// List returns every non-trashed document.
	List(ctx context.Context) ([]model.Document, error)

	// Register stores parts in object storage, then inserts the metadata
	// unless the id is already known. Uploaded objects are removed when the
	// insert fails or the document already existed, so a replayed upload
	// leaves exactly one record and one set of objects.
	Register(ctx context.Context, doc model.Document, parts []Part) (RegisterResult, error)

	// UpdateStatus applies the set flags of patch.
	UpdateStatus(ctx context.Context, id string, patch model.StatusPatch) (model.Document, error)
}

type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
}

func NewDocumentService(store storage.Storage, repo repository.DocumentRepository) DocumentService {
	return &documentService{store: store, repo: repo}
}

func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	return s.repo.ListActive(ctx)
}

func (s *documentService) Register(ctx context.Context, doc model.Document, parts []Part) (RegisterResult, error) {
	if doc.ID == "" {
		return RegisterResult{}, ErrIDRequired
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if err := doc.Validate(); err != nil {
		return RegisterResult{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	keys := make([]string, 0, len(parts))
	for i, p := range parts {
		if p.Content == nil {
			return RegisterResult{}, s.rollback(ctx, keys, ErrReaderNil)
		}
		key, err := storage.ObjectKey(doc.ID, i, p.Filename)
		if err != nil {
			return RegisterResult{}, s.rollback(ctx, keys, err)
		}
		size := p.Size
		if size <= 0 {
			size = -1
		}
		info, err := s.store.Put(ctx, key, p.Content, storage.PutObjectOptions{
			Size:        size,
			ContentType: p.ContentType,
			Metadata: map[string]string{
				"original-filename": p.Filename,
				"document-id":       doc.ID,
			},
		})
		if err != nil {
			return RegisterResult{}, s.rollback(ctx, keys, fmt.Errorf("upload to storage: %w", err))
		}
		keys = append(keys, info.Key)
	}
	if len(keys) > 0 {
		doc.Attachments = append(append([]string{}, doc.Attachments...), keys...)
	}

	inserted, err := s.repo.InsertIfAbsent(ctx, doc)
	if err != nil {
		return RegisterResult{}, s.rollback(ctx, keys, fmt.Errorf("db save failed: %w", err))
	}
	if inserted {
		return RegisterResult{Document: doc, Created: true}, nil
	}

	if err := s.rollback(ctx, keys, nil); err != nil {
		return RegisterResult{}, err
	}
	existing, err := s.repo.FindByID(ctx, doc.ID)
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{Document: existing}, nil
}

// rollback deletes keys and returns cause joined with any delete failures.
func (s *documentService) rollback(ctx context.Context, keys []string, cause error) error {
	errs := []error{cause}
	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("rollback delete %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

func (s *documentService) UpdateStatus(ctx context.Context, id string, patch model.StatusPatch) (model.Document, error) {
	if id == "" {
		return model.Document{}, ErrIDRequired
	}
	if patch.Empty() {
		return model.Document{}, ErrEmptyPatch
	}
	doc, err := s.repo.UpdateStatus(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Document{}, ErrNotFound
	}
	return doc, err
}
