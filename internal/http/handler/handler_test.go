package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	"documind/internal/http/middleware"
	"documind/internal/model"
	"documind/internal/remote"
	"documind/internal/service"
	serviceMocks "documind/internal/service/mocks"
	storeMocks "documind/internal/storage/mocks"
)

var stamp = time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)

func sampleDoc(id string) model.Document {
	return model.Document{
		ID:             id,
		Name:           "lease.pdf",
		Type:           model.FileTypePDF,
		OwnerID:        "u-admin",
		LastModified:   stamp,
		Size:           "0.0 MB",
		CurrentVersion: 1,
		Versions:       []model.DocumentVersion{{ID: "v1-" + id, VersionNumber: 1, UpdatedAt: stamp, Author: "System Admin"}},
		Tags:           []string{},
	}
}

func decodeError(t *testing.T, r io.Reader) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	objects := new(storeMocks.MockStorage)
	app := fiber.New()
	app.Use(middleware.RequestID())
	app.Get("/health", HealthCheck(db, objects))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing()
		objects.On("Ping", mock.Anything).Return(nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("database down", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		body := decodeError(t, resp.Body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("object storage down", func(t *testing.T) {
		dbMock.ExpectPing()
		objects.On("Ping", mock.Anything).Return(errors.New("bucket gone")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "object storage unavailable", decodeError(t, resp.Body).Error.Message)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.Document{sampleDoc("d1")}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var docs []model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "d1", docs[0].ID)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.Document{}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "[]", strings.TrimSpace(string(raw)))
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp.Body).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestRegisterDocument(t *testing.T) {
	validFields := map[string]string{
		"id":           "new-1",
		"name":         "lease.pdf",
		"ownerId":      "u-admin",
		"folderId":     "f2",
		"size":         "0.0 MB",
		"lastModified": stamp.Format(time.RFC3339Nano),
		"tags":         `["lease"]`,
		"versions":     `[{"id":"v1-1","versionNumber":1,"updatedAt":"2024-03-20T08:00:00Z","author":"System Admin","changeNote":"Initial upload","size":"1 KB"}]`,
	}

	t.Run("created", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New()
		app.Post("/api/documents", RegisterDocument(mockSvc))

		mockSvc.On("Register", mock.Anything, mock.MatchedBy(func(d model.Document) bool {
			return d.ID == "new-1" && d.Type == model.FileTypePDF && d.CurrentVersion == 1 &&
				d.FolderID != nil && *d.FolderID == "f2" && d.LastModified.Equal(stamp) &&
				len(d.Tags) == 1
		}), mock.MatchedBy(func(parts []service.Part) bool {
			if len(parts) != 1 || parts[0].Filename != "lease.pdf" {
				return false
			}
			b, _ := io.ReadAll(parts[0].Content)
			return string(b) == "%PDF"
		})).Return(service.RegisterResult{Document: sampleDoc("new-1"), Created: true}, nil).Once()

		body, ct := multipartBody(t, validFields, map[string]string{"lease.pdf": "%PDF"})
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", ct)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("replay still answers created", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New()
		app.Post("/api/documents", RegisterDocument(mockSvc))

		mockSvc.On("Register", mock.Anything, mock.Anything, mock.Anything).
			Return(service.RegisterResult{Document: sampleDoc("new-1")}, nil).Once()

		body, ct := multipartBody(t, validFields, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", ct)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("bad input", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New()
		app.Post("/api/documents", RegisterDocument(mockSvc))

		tests := []struct {
			name   string
			mutate func(map[string]string)
			code   string
		}{
			{name: "missing id", mutate: func(f map[string]string) { delete(f, "id") }, code: "INVALID_DOCUMENT"},
			{name: "bad versions", mutate: func(f map[string]string) { f["versions"] = "{" }, code: "INVALID_DOCUMENT"},
			{name: "no versions", mutate: func(f map[string]string) { f["versions"] = "[]" }, code: "INVALID_DOCUMENT"},
			{name: "bad tags", mutate: func(f map[string]string) { f["tags"] = "lease" }, code: "INVALID_DOCUMENT"},
			{name: "bad timestamp", mutate: func(f map[string]string) { f["lastModified"] = "yesterday" }, code: "INVALID_DOCUMENT"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fields := map[string]string{}
				for k, v := range validFields {
					fields[k] = v
				}
				tt.mutate(fields)

				body, ct := multipartBody(t, fields, nil)
				req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
				req.Header.Set("Content-Type", ct)

				resp, err := app.Test(req)
				require.NoError(t, err)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Equal(t, tt.code, decodeError(t, resp.Body).Error.Code)
			})
		}

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/documents", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_FORM", decodeError(t, resp.Body).Error.Code)
		mockSvc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New()
		app.Post("/api/documents", RegisterDocument(mockSvc))

		mockSvc.On("Register", mock.Anything, mock.Anything, mock.Anything).
			Return(service.RegisterResult{}, errors.New("db save failed")).Once()

		body, ct := multipartBody(t, validFields, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", ct)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestPatchDocumentStatus(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Patch("/api/documents/:id", PatchDocumentStatus(mockSvc))

	patchReq := func(id, body string) *http.Request {
		req := httptest.NewRequest(http.MethodPatch, "/api/documents/"+id, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("updated", func(t *testing.T) {
		updated := sampleDoc("d1")
		updated.IsTrashed = true
		mockSvc.On("UpdateStatus", mock.Anything, "d1", model.StatusPatch{IsTrashed: model.Bool(true)}).
			Return(updated, nil).Once()

		resp, err := app.Test(patchReq("d1", `{"isTrashed":true}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.True(t, got.IsTrashed)
	})

	t.Run("unknown id", func(t *testing.T) {
		mockSvc.On("UpdateStatus", mock.Anything, "missing", mock.Anything).
			Return(model.Document{}, service.ErrNotFound).Once()

		resp, err := app.Test(patchReq("missing", `{"isStarred":false}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		resp, err := app.Test(patchReq("d1", `{}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "EMPTY_PATCH", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		resp, err := app.Test(patchReq("d1", `{"isStarred":`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp.Body).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("secret detail") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp.Body)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "secret")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body).Error.Code)
}

func TestRegisterRoutes_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := middleware.NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	mockSvc := new(serviceMocks.MockDocumentService)
	mockSvc.On("List", mock.Anything).Return([]model.Document{}, nil)

	app := fiber.New()
	app.Use(prom.Handler())
	RegisterRoutes(app, Deps{Docs: mockSvc, Gatherer: reg})

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `documind_http_requests_total{method="GET",path="/api/documents",status="200"} 1`)
}

// The client gateway and these handlers must agree on the wire format.
func TestGatewayRoundTrip(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, Deps{Docs: mockSvc})

	srv := httptest.NewServer(adaptor.FiberApp(app))
	defer srv.Close()
	gw := remote.New(srv.URL)
	ctx := context.Background()

	doc := sampleDoc("new-7")
	doc.FolderID = model.String("f1")
	doc.Tags = []string{"scan"}

	mockSvc.On("Register", mock.Anything, mock.MatchedBy(func(d model.Document) bool {
		return d.ID == doc.ID && d.Name == doc.Name && d.OwnerID == doc.OwnerID &&
			*d.FolderID == "f1" && d.LastModified.Equal(doc.LastModified) &&
			d.CurrentVersion == 1 && d.Versions[0].Author == "System Admin" &&
			len(d.Tags) == 1 && d.Tags[0] == "scan"
	}), mock.MatchedBy(func(parts []service.Part) bool {
		return len(parts) == 1 && parts[0].Filename == "lease.pdf" && parts[0].ContentType == "application/pdf"
	})).Return(service.RegisterResult{Document: doc, Created: true}, nil).Once()
	mockSvc.On("List", mock.Anything).Return([]model.Document{doc}, nil).Once()
	mockSvc.On("UpdateStatus", mock.Anything, "new-7", model.StatusPatch{IsStarred: model.Bool(true)}).
		Return(doc, nil).Once()
	mockSvc.On("UpdateStatus", mock.Anything, "ghost", mock.Anything).
		Return(model.Document{}, service.ErrNotFound).Once()

	require.NoError(t, gw.UploadDocument(ctx, doc, []remote.File{{
		Name: "lease.pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF"),
	}}))

	docs, err := gw.FetchDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)
	assert.NoError(t, docs[0].Validate())

	require.NoError(t, gw.PatchDocumentStatus(ctx, "new-7", model.StatusPatch{IsStarred: model.Bool(true)}))

	err = gw.PatchDocumentStatus(ctx, "ghost", model.StatusPatch{IsTrashed: model.Bool(true)})
	var se *remote.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)

	require.NoError(t, gw.Ping(ctx))
	mockSvc.AssertExpectations(t)
}

func TestSwaggerUI_DocJSONUsesRequestHost(t *testing.T) {
	spec := &swag.Spec{
		Version:         "1.0",
		Title:           "DocuMind Bridge API",
		SwaggerTemplate: `{"host":"{{.Host}}","schemes":{{ marshal .Schemes }}}`,
	}
	app := fiber.New()
	app.Get("/swagger/*", SwaggerUI(spec))

	fetch := func(host, proto string) map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
		req.Host = host
		if proto != "" {
			req.Header.Set("X-Forwarded-Proto", proto)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var doc map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		return doc
	}

	a := fetch("a.example:8080", "")
	assert.Equal(t, "a.example:8080", a["host"])
	assert.Equal(t, []any{"http"}, a["schemes"])

	b := fetch("b.example", "https, http")
	assert.Equal(t, "b.example", b["host"])
	assert.Equal(t, []any{"https"}, b["schemes"])

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
			resp, err := app.Test(req)
			if assert.NoError(t, err) {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, spec.Host)
	assert.Empty(t, spec.Schemes)
}
