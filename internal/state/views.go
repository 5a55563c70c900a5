package state

import (
	"fmt"
	"sort"
	"strings"

	"documind/internal/model"
)

// View selects a listing derivation.
type View string

const (
	ViewAll     View = "all"
	ViewStarred View = "starred"
	ViewTrash   View = "trash"
)

// Filter narrows Documents. FolderID only applies to ViewAll; Query matches
// name, contract number and tags case-insensitively.
type Filter struct {
	View     View
	FolderID string
	Query    string
}

func (f Filter) matches(d model.Document) bool {
	switch f.View {
	case ViewStarred:
		if !d.IsStarred || d.IsTrashed {
			return false
		}
	case ViewTrash:
		if !d.IsTrashed {
			return false
		}
	default:
		if d.IsTrashed {
			return false
		}
		if f.FolderID != "" && !d.InFolder(f.FolderID) {
			return false
		}
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.Name), q) ||
		strings.Contains(strings.ToLower(d.ContractNumber), q) {
		return true
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Documents lists the documents selected by f in session order.
func (c *Controller) Documents(f Filter) ([]model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil, ErrNotReady
	}

	out := make([]model.Document, 0, len(c.docs))
	for _, d := range c.docs {
		if f.matches(d) {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

// Document looks up any document by id, trashed ones included.
func (c *Controller) Document(id string) (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return model.Document{}, ErrNotReady
	}
	idx := c.documentIndexLocked(id)
	if idx < 0 {
		return model.Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return c.docs[idx].Clone(), nil
}

func (c *Controller) Folders() ([]model.Folder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil, ErrNotReady
	}
	out := make([]model.Folder, 0, len(c.folders))
	for _, f := range c.folders {
		out = append(out, *cloneFolder(f))
	}
	return out, nil
}

// AuditLogs returns the audit trail, newest first.
func (c *Controller) AuditLogs() ([]model.AuditLog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil, ErrNotReady
	}
	return append([]model.AuditLog{}, c.logs...), nil
}

// Users returns every account without credential material.
func (c *Controller) Users() ([]model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil, ErrNotReady
	}
	out := make([]model.User, 0, len(c.users))
	for _, u := range c.users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (c *Controller) documentIndexLocked(id string) int {
	for i, d := range c.docs {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) hasFolderLocked(id string) bool {
	for _, f := range c.folders {
		if f.ID == id {
			return true
		}
	}
	return false
}

func cloneFolder(f model.Folder) *model.Folder {
	out := f
	if f.ParentID != nil {
		p := *f.ParentID
		out.ParentID = &p
	}
	return &out
}

func cloneDocuments(docs []model.Document) []model.Document {
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Clone())
	}
	return out
}

// The store returns records unordered; loaded collections are put in a
// stable display order.

func sortDocuments(docs []model.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].LastModified.Equal(docs[j].LastModified) {
			return docs[i].LastModified.After(docs[j].LastModified)
		}
		return docs[i].ID < docs[j].ID
	})
}

func sortFolders(folders []model.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		if !folders[i].CreatedAt.Equal(folders[j].CreatedAt) {
			return folders[i].CreatedAt.Before(folders[j].CreatedAt)
		}
		return folders[i].ID < folders[j].ID
	})
}

func sortLogs(logs []model.AuditLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].Timestamp.Equal(logs[j].Timestamp) {
			return logs[i].Timestamp.After(logs[j].Timestamp)
		}
		return logs[i].ID < logs[j].ID
	})
}
