// Package remote is the HTTP client for the document bridge API, the remote
// source of truth. It performs no retries and keeps no queue.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"documind/internal/model"
)

var (
	// ErrUnavailable means the request never got a response.
	ErrUnavailable = errors.New("bridge API unavailable")
	// ErrMalformedResponse means the response body could not be decoded.
	ErrMalformedResponse = errors.New("malformed bridge API response")
)

// StatusError is returned when the bridge API answers with a non-2xx status.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: bridge API returned status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: bridge API returned status %d: %s", e.Op, e.Code, e.Body)
}

// File is one binary part attached to an upload.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

const (
	documentsPath = "/api/documents"
	healthzPath   = "/healthz"
	maxErrorBody  = 4 << 10
)

// Gateway talks to the bridge API under a base URL.
type Gateway struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

type Option func(*Gateway)

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithTimeout bounds every request made by the default client.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.client.Timeout = d }
}

// New returns a gateway for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   15 * time.Second,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) endpoint(parts ...string) (string, error) {
	u, err := url.JoinPath(g.baseURL, parts...)
	if err != nil {
		return "", fmt.Errorf("build bridge API url: %w", err)
	}
	return u, nil
}

// FetchDocuments lists the non-trashed documents known to the bridge API.
func (g *Gateway) FetchDocuments(ctx context.Context) ([]model.Document, error) {
	u, err := g.endpoint(documentsPath)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus("list documents", resp); err != nil {
		return nil, err
	}

	var docs []model.Document
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// GetDocuments is FetchDocuments that never fails: any problem is logged and
// an empty list is returned.
func (g *Gateway) GetDocuments(ctx context.Context) []model.Document {
	docs, err := g.FetchDocuments(ctx)
	if err == nil {
		return docs
	}

	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		g.logger.Warn().Str("path", documentsPath).Msg("bridge API not configured")
	} else {
		g.logger.Error().Err(err).Msg("fetch remote documents failed")
	}
	return []model.Document{}
}

// UploadDocument registers a new document with its binary parts. The caller
// decides what to do with a failure; the local copy is never touched here.
func (g *Gateway) UploadDocument(ctx context.Context, doc model.Document, files []File) error {
	u, err := g.endpoint(documentsPath)
	if err != nil {
		return err
	}

	body, contentType, err := encodeUpload(doc, files)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := g.client.Do(req)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		g.logger.Error().Err(err).Str("doc_id", doc.ID).Msg("upload document failed")
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus("upload document", resp); err != nil {
		g.logger.Error().Err(err).Str("doc_id", doc.ID).Msg("upload document failed")
		return err
	}
	return nil
}

func encodeUpload(doc model.Document, files []File) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	folderID := ""
	if doc.FolderID != nil {
		folderID = *doc.FolderID
	}
	tags, err := json.Marshal(nonNil(doc.Tags))
	if err != nil {
		return nil, "", fmt.Errorf("encode tags: %w", err)
	}
	versions, err := json.Marshal(doc.Versions)
	if err != nil {
		return nil, "", fmt.Errorf("encode versions: %w", err)
	}

	fields := []struct{ key, value string }{
		{"id", doc.ID},
		{"name", doc.Name},
		{"contractNumber", doc.ContractNumber},
		{"ownerId", doc.OwnerID},
		{"folderId", folderID},
		{"size", doc.Size},
		{"type", string(doc.Type)},
		{"lastModified", doc.LastModified.UTC().Format(time.RFC3339Nano)},
		{"tags", string(tags)},
		{"versions", string(versions)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.key, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.key, err)
		}
	}

	for _, f := range files {
		part, err := w.CreatePart(filePartHeader(f))
		if err != nil {
			return nil, "", fmt.Errorf("create file part %s: %w", f.Name, err)
		}
		if f.Content == nil {
			continue
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("copy file part %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

func filePartHeader(f File) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	return h
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// PatchDocumentStatus sends a partial status update and reports any failure.
func (g *Gateway) PatchDocumentStatus(ctx context.Context, id string, patch model.StatusPatch) error {
	u, err := g.endpoint(documentsPath, id)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode status patch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	return checkStatus("update document status", resp)
}

// UpdateDocumentStatus is PatchDocumentStatus with failures logged and dropped.
func (g *Gateway) UpdateDocumentStatus(ctx context.Context, id string, patch model.StatusPatch) {
	if err := g.PatchDocumentStatus(ctx, id, patch); err != nil {
		g.logger.Warn().Err(err).Str("doc_id", id).Msg("update remote document status failed")
	}
}

// Ping checks that the bridge API answers its liveness probe.
func (g *Gateway) Ping(ctx context.Context) error {
	u, err := g.endpoint(healthzPath)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return checkStatus("ping", resp)
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
