package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"documind/internal/localstore"
	"documind/internal/model"
	"documind/internal/remote"
	docsync "documind/internal/sync"
)

// MutationKind selects what Apply does.
type MutationKind string

const (
	MutationStar         MutationKind = "star"
	MutationTrash        MutationKind = "trash"
	MutationRename       MutationKind = "rename"
	MutationRenameFolder MutationKind = "rename-folder"
	MutationCreate       MutationKind = "create"
)

// Mutation is one user-issued change. Which fields are read depends on Kind:
// Star and Trash use DocID, Rename uses DocID and Name, RenameFolder uses
// FolderID and Name, Create uses Upload.
type Mutation struct {
	Kind     MutationKind
	DocID    string
	FolderID string
	Name     string
	Upload   *UploadRequest
}

// UploadFile is one file handed to Upload.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// UploadRequest creates one document per file. Name and ContractNumber
// apply to every created document; an empty Name keeps each file's name.
type UploadRequest struct {
	Files          []UploadFile
	FolderID       *string
	Name           string
	ContractNumber string
}

// Result carries what a mutation produced.
type Result struct {
	Documents []model.Document
	Folder    *model.Folder
}

// remoteStep is the best-effort mirror run after the local write commits.
type remoteStep func(ctx context.Context) error

// Apply runs a mutation: compute the new value, swap it into a fresh copy of
// the collection, save it locally, then mirror it remotely. The local save
// must succeed; the remote mirror never rolls it back. A failed remote create
// is returned wrapping sync.ErrRemoteWrite together with the result.
func (c *Controller) Apply(ctx context.Context, m Mutation) (Result, error) {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return Result{}, ErrNotReady
	}

	var (
		res    Result
		mirror remoteStep
		err    error
	)
	switch m.Kind {
	case MutationStar:
		res, mirror, err = c.updateDocumentLocked(ctx, m.DocID, func(d *model.Document) (*model.StatusPatch, error) {
			d.IsStarred = !d.IsStarred
			return &model.StatusPatch{IsStarred: model.Bool(d.IsStarred)}, nil
		})
	case MutationTrash:
		res, mirror, err = c.updateDocumentLocked(ctx, m.DocID, func(d *model.Document) (*model.StatusPatch, error) {
			d.IsTrashed = true
			return &model.StatusPatch{IsTrashed: model.Bool(true)}, nil
		})
	case MutationRename:
		name := strings.TrimSpace(m.Name)
		res, mirror, err = c.updateDocumentLocked(ctx, m.DocID, func(d *model.Document) (*model.StatusPatch, error) {
			if name == "" {
				return nil, fmt.Errorf("%w: document name is empty", ErrInvalidInput)
			}
			d.Name = name
			// the bridge API has no rename endpoint
			return nil, nil
		})
	case MutationRenameFolder:
		res, err = c.renameFolderLocked(ctx, m.FolderID, m.Name)
	case MutationCreate:
		res, mirror, err = c.createLocked(ctx, m.Upload)
	default:
		err = fmt.Errorf("%w: unknown mutation %q", ErrInvalidInput, m.Kind)
	}
	c.mu.Unlock()

	if err != nil {
		return Result{}, err
	}
	if mirror != nil {
		if merr := mirror(ctx); merr != nil {
			return res, merr
		}
	}
	return res, nil
}

func (c *Controller) updateDocumentLocked(
	ctx context.Context,
	id string,
	change func(d *model.Document) (*model.StatusPatch, error),
) (Result, remoteStep, error) {
	idx := c.documentIndexLocked(id)
	if idx < 0 {
		return Result{}, nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	updated := c.docs[idx].Clone()
	patch, err := change(&updated)
	if err != nil {
		return Result{}, nil, err
	}

	docs := make([]model.Document, len(c.docs))
	copy(docs, c.docs)
	docs[idx] = updated

	if err := localstore.Save(ctx, c.store, localstore.Documents, updated); err != nil {
		return Result{}, nil, err
	}
	c.docs = docs

	res := Result{Documents: []model.Document{updated.Clone()}}
	if patch == nil || c.engine == nil {
		return res, nil, nil
	}
	p := *patch
	return res, func(ctx context.Context) error {
		c.engine.PushStatus(ctx, id, p)
		return nil
	}, nil
}

func (c *Controller) renameFolderLocked(ctx context.Context, id, name string) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, fmt.Errorf("%w: folder name is empty", ErrInvalidInput)
	}
	idx := -1
	for i, f := range c.folders {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Result{}, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}

	updated := c.folders[idx]
	updated.Name = name
	if err := localstore.Save(ctx, c.store, localstore.Folders, updated); err != nil {
		return Result{}, err
	}

	folders := make([]model.Folder, len(c.folders))
	copy(folders, c.folders)
	folders[idx] = updated
	c.folders = folders

	return Result{Folder: cloneFolder(updated)}, nil
}

func (c *Controller) createLocked(ctx context.Context, req *UploadRequest) (Result, remoteStep, error) {
	if req == nil || len(req.Files) == 0 {
		return Result{}, nil, fmt.Errorf("%w: no files to upload", ErrInvalidInput)
	}
	if req.FolderID != nil && !c.hasFolderLocked(*req.FolderID) {
		return Result{}, nil, fmt.Errorf("folder %s: %w", *req.FolderID, ErrNotFound)
	}

	ownerID, author := "unknown", "User"
	if c.current != nil {
		ownerID, author = c.current.ID, c.current.Name
	}
	now := c.now().UTC()

	created := make([]model.Document, 0, len(req.Files))
	logs := make([]model.AuditLog, 0, len(req.Files))
	for _, f := range req.Files {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = f.Name
		}
		doc := model.Document{
			ID:             "new-" + c.newID(),
			Name:           name,
			ContractNumber: req.ContractNumber,
			Type:           model.FileTypeFromName(f.Name),
			OwnerID:        ownerID,
			LastModified:   now,
			Size:           model.FormatMegabytes(f.Size),
			CurrentVersion: 1,
			Versions: []model.DocumentVersion{{
				ID:            "v1-" + c.newID(),
				VersionNumber: 1,
				UpdatedAt:     now,
				Author:        author,
				ChangeNote:    "Initial upload",
				Size:          model.FormatKilobytes(f.Size),
			}},
			Tags: []string{},
		}
		if req.FolderID != nil {
			doc.FolderID = model.String(*req.FolderID)
		}
		created = append(created, doc)
		logs = append(logs, model.AuditLog{
			ID:        "log-" + c.newID(),
			DocID:     doc.ID,
			DocName:   doc.Name,
			Action:    model.AuditCreated,
			User:      author,
			Timestamp: now,
		})
	}

	if err := localstore.SaveAll(ctx, c.store, localstore.Documents, created); err != nil {
		return Result{}, nil, err
	}
	if err := localstore.SaveAll(ctx, c.store, localstore.AuditLogs, logs); err != nil {
		return Result{}, nil, err
	}

	docs := make([]model.Document, 0, len(created)+len(c.docs))
	docs = append(docs, created...)
	c.docs = append(docs, c.docs...)

	allLogs := make([]model.AuditLog, 0, len(logs)+len(c.logs))
	allLogs = append(allLogs, logs...)
	c.logs = append(allLogs, c.logs...)

	res := Result{Documents: cloneDocuments(created)}
	if c.engine == nil {
		return res, nil, nil
	}

	files := req.Files
	pushed := cloneDocuments(created)
	return res, func(ctx context.Context) error {
		var errs []error
		for i, d := range pushed {
			f := files[i]
			parts := []remote.File{{Name: f.Name, ContentType: f.ContentType, Content: f.Content}}
			err := c.engine.PushCreate(ctx, d, parts)
			if errors.Is(err, docsync.ErrOffline) {
				c.logger.Info().Str("doc_id", d.ID).Msg("offline, upload kept local only")
				continue
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("document %s: %w", d.ID, err))
			}
		}
		return errors.Join(errs...)
	}, nil
}

// ToggleStar flips the starred flag of a document.
func (c *Controller) ToggleStar(ctx context.Context, id string) (model.Document, error) {
	return c.applyOne(ctx, Mutation{Kind: MutationStar, DocID: id})
}

// MoveToTrash soft-deletes a document.
func (c *Controller) MoveToTrash(ctx context.Context, id string) (model.Document, error) {
	return c.applyOne(ctx, Mutation{Kind: MutationTrash, DocID: id})
}

// RenameDocument changes a document's name locally.
func (c *Controller) RenameDocument(ctx context.Context, id, name string) (model.Document, error) {
	return c.applyOne(ctx, Mutation{Kind: MutationRename, DocID: id, Name: name})
}

func (c *Controller) RenameFolder(ctx context.Context, id, name string) (model.Folder, error) {
	res, err := c.Apply(ctx, Mutation{Kind: MutationRenameFolder, FolderID: id, Name: name})
	if err != nil {
		return model.Folder{}, err
	}
	return *res.Folder, nil
}

// Upload creates one document per file. When some remote creates fail the
// documents are still returned, together with an error wrapping
// sync.ErrRemoteWrite.
func (c *Controller) Upload(ctx context.Context, req UploadRequest) ([]model.Document, error) {
	res, err := c.Apply(ctx, Mutation{Kind: MutationCreate, Upload: &req})
	return res.Documents, err
}

func (c *Controller) applyOne(ctx context.Context, m Mutation) (model.Document, error) {
	res, err := c.Apply(ctx, m)
	if err != nil {
		return model.Document{}, err
	}
	return res.Documents[0], nil
}
