// Package storage keeps the binary parts of uploaded documents in an
// S3-compatible object store. Objects are streamed, never staged on disk.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strconv"
	"strings"
)

var ErrInvalidKey = errors.New("invalid object key")

// PutObjectOptions describe one upload. Size is -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is what the store reports back after a Put.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// Storage is the object store used by the bridge API.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// Ping verifies the bucket is reachable.
	Ping(ctx context.Context) error
}

// ObjectKey places a file part under its document:
// documents/<docID>/<index>-<base name>.
func ObjectKey(docID string, index int, filename string) (string, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" || strings.ContainsAny(docID, "/\\") {
		return "", ErrInvalidKey
	}
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "part"
	}
	return path.Join("documents", docID, strconv.Itoa(index)+"-"+base), nil
}
