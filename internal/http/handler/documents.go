package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"documind/internal/model"
	"documind/internal/service"
)

// ListDocuments godoc
// @Summary  List active documents
// @Tags     documents
// @Produce  json
// @Success  200 {array}  model.Document
// @Failure  500 {object} errorPayload
// @Router   /api/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(docs)
	}
}

// RegisterDocument godoc
// @Summary     Register a document created offline-first by a client
// @Description Idempotent on id: replaying an upload returns the stored record.
// @Tags        documents
// @Accept      multipart/form-data
// @Produce     json
// @Param       id             formData string true  "Document id"
// @Param       name           formData string true  "Display name"
// @Param       ownerId        formData string true  "Owner user id"
// @Param       versions       formData string true  "JSON array of versions"
// @Param       tags           formData string false "JSON array of tags"
// @Param       folderId       formData string false "Folder id"
// @Param       contractNumber formData string false "Contract number"
// @Param       files          formData file   false "Binary parts"
// @Success     201 {object} model.Document
// @Failure     400 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Router      /api/documents [post]
func RegisterDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "multipart form required")
		}

		doc, err := documentFromForm(form)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DOCUMENT", err.Error())
		}

		parts, closers, err := partsFromForm(form)
		defer func() {
			for _, cl := range closers {
				_ = cl.Close()
			}
		}()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}

		res, err := svc.Register(c.UserContext(), doc, parts)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidDocument), errors.Is(err, service.ErrIDRequired):
				return writeError(c, fiber.StatusBadRequest, "INVALID_DOCUMENT", "invalid document")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(res.Document)
	}
}

// PatchDocumentStatus godoc
// @Summary  Update the starred and trashed flags of a document
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    id    path string            true "Document id"
// @Param    patch body model.StatusPatch true "Flags to change"
// @Success  200 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /api/documents/{id} [patch]
func PatchDocumentStatus(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var patch model.StatusPatch
		if err := json.Unmarshal(c.Body(), &patch); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
		}
		if patch.Empty() {
			return writeError(c, fiber.StatusBadRequest, "EMPTY_PATCH", "isStarred or isTrashed is required")
		}

		doc, err := svc.UpdateStatus(c.UserContext(), id, patch)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			case errors.Is(err, service.ErrIDRequired), errors.Is(err, service.ErrEmptyPatch):
				return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "bad request")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(doc)
	}
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func documentFromForm(form *multipart.Form) (model.Document, error) {
	doc := model.Document{
		ID:             formValue(form, "id"),
		Name:           formValue(form, "name"),
		ContractNumber: formValue(form, "contractNumber"),
		OwnerID:        formValue(form, "ownerId"),
		Size:           formValue(form, "size"),
		Type:           model.FileType(formValue(form, "type")),
		Tags:           []string{},
	}
	if doc.ID == "" || doc.Name == "" || doc.OwnerID == "" {
		return model.Document{}, errors.New("id, name and ownerId are required")
	}
	if doc.Type == "" {
		doc.Type = model.FileTypeFromName(doc.Name)
	}
	if f := formValue(form, "folderId"); f != "" {
		doc.FolderID = model.String(f)
	}

	doc.LastModified = time.Now().UTC()
	if lm := formValue(form, "lastModified"); lm != "" {
		t, err := time.Parse(time.RFC3339Nano, lm)
		if err != nil {
			return model.Document{}, errors.New("lastModified must be RFC 3339")
		}
		doc.LastModified = t.UTC()
	}

	if raw := formValue(form, "tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc.Tags); err != nil {
			return model.Document{}, errors.New("tags must be a JSON array")
		}
	}
	if err := json.Unmarshal([]byte(formValue(form, "versions")), &doc.Versions); err != nil || len(doc.Versions) == 0 {
		return model.Document{}, errors.New("versions must be a non-empty JSON array")
	}
	doc.CurrentVersion = len(doc.Versions)
	return doc, nil
}

func partsFromForm(form *multipart.Form) ([]service.Part, []io.Closer, error) {
	headers := form.File["files"]
	parts := make([]service.Part, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, f)

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		parts = append(parts, service.Part{
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Content:     f,
		})
	}
	return parts, closers, nil
}
