package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileType classifies a document's content.
type FileType string

const (
	FileTypePDF  FileType = "PDF"
	FileTypeDOCX FileType = "DOCX"
	FileTypeXLSX FileType = "XLSX"
	FileTypeIMG  FileType = "IMG"
	FileTypeTXT  FileType = "TXT"
)

// FileTypeFromName derives the content type from a file name's extension.
// Unknown extensions fall back to DOCX.
func FileTypeFromName(name string) FileType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FileTypePDF
	case ".xlsx", ".xls", ".csv":
		return FileTypeXLSX
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return FileTypeIMG
	case ".txt", ".md":
		return FileTypeTXT
	default:
		return FileTypeDOCX
	}
}

var (
	ErrMissingID       = errors.New("document id is required")
	ErrVersionMismatch = errors.New("current version does not match version history")
	ErrDuplicateVer    = errors.New("duplicate version number")
)

// DocumentVersion is one immutable entry of a document's history.
type DocumentVersion struct {
	ID            string    `json:"id"`
	VersionNumber int       `json:"versionNumber"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Author        string    `json:"author"`
	ChangeNote    string    `json:"changeNote"`
	Size          string    `json:"size"`
}

// Document is the unit of storage shared by the local store, the sync engine
// and the remote bridge API. Field names follow the remote wire format.
type Document struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Type           FileType          `json:"type"`
	OwnerID        string            `json:"ownerId"`
	FolderID       *string           `json:"folderId"`
	LastModified   time.Time         `json:"lastModified"`
	Size           string            `json:"size"`
	CurrentVersion int               `json:"currentVersion"`
	Versions       []DocumentVersion `json:"versions"`
	Tags           []string          `json:"tags"`
	IsStarred      bool              `json:"isStarred"`
	IsTrashed      bool              `json:"isTrashed"`
	ContractNumber string            `json:"contractNumber,omitempty"`
	// Attachments holds object storage keys of uploaded binary parts.
	Attachments []string `json:"attachments,omitempty"`
}

// Identity returns the key the document is stored under.
func (d Document) Identity() string { return d.ID }

// Validate checks identity and the version history invariant: CurrentVersion
// equals the number of versions and no version number repeats.
func (d Document) Validate() error {
	if d.ID == "" {
		return ErrMissingID
	}
	if d.CurrentVersion != len(d.Versions) {
		return fmt.Errorf("%w: current=%d versions=%d", ErrVersionMismatch, d.CurrentVersion, len(d.Versions))
	}
	seen := make(map[int]struct{}, len(d.Versions))
	for _, v := range d.Versions {
		if v.VersionNumber < 1 {
			return fmt.Errorf("%w: version number %d", ErrVersionMismatch, v.VersionNumber)
		}
		if _, ok := seen[v.VersionNumber]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateVer, v.VersionNumber)
		}
		seen[v.VersionNumber] = struct{}{}
	}
	return nil
}

// LatestVersion returns the version with the highest version number.
func (d Document) LatestVersion() (DocumentVersion, bool) {
	var (
		latest DocumentVersion
		found  bool
	)
	for _, v := range d.Versions {
		if !found || v.VersionNumber > latest.VersionNumber {
			latest = v
			found = true
		}
	}
	return latest, found
}

// InFolder reports whether the document is filed under folderID.
func (d Document) InFolder(folderID string) bool {
	return d.FolderID != nil && *d.FolderID == folderID
}

// Clone returns a deep copy that shares no slices or pointers with d.
func (d Document) Clone() Document {
	out := d
	if d.FolderID != nil {
		id := *d.FolderID
		out.FolderID = &id
	}
	if d.Versions != nil {
		out.Versions = append([]DocumentVersion(nil), d.Versions...)
	}
	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	if d.Attachments != nil {
		out.Attachments = append([]string(nil), d.Attachments...)
	}
	return out
}

// StatusPatch carries the subset of status flags to change. Nil fields are
// left untouched by the receiver.
type StatusPatch struct {
	IsStarred *bool `json:"isStarred,omitempty"`
	IsTrashed *bool `json:"isTrashed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p StatusPatch) Empty() bool {
	return p.IsStarred == nil && p.IsTrashed == nil
}

// Bool returns a pointer to b, for building patches.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s, for optional references such as FolderID.
func String(s string) *string { return &s }

// FormatMegabytes renders a byte count the way document sizes are displayed.
func FormatMegabytes(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/1024/1024)
}

// FormatKilobytes renders a byte count the way version sizes are displayed.
func FormatKilobytes(n int64) string {
	return fmt.Sprintf("%.0f KB", float64(n)/1024)
}
