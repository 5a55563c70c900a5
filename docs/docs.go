// Package docs registers the bridge API OpenAPI document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/documents": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List active documents",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Document"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "post": {
                "description": "Idempotent on id: replaying an upload returns the stored record.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Register a document created offline-first by a client",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "formData", "required": true},
                    {"type": "string", "description": "Display name", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "description": "Owner user id", "name": "ownerId", "in": "formData", "required": true},
                    {"type": "string", "description": "JSON array of versions", "name": "versions", "in": "formData", "required": true},
                    {"type": "string", "description": "JSON array of tags", "name": "tags", "in": "formData"},
                    {"type": "string", "description": "Folder id", "name": "folderId", "in": "formData"},
                    {"type": "string", "description": "Contract number", "name": "contractNumber", "in": "formData"},
                    {"type": "file", "description": "Binary parts", "name": "files", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/documents/{id}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Update the starred and trashed flags of a document",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true},
                    {"description": "Flags to change", "name": "patch", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.StatusPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Pings the database and, when configured, the object store.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Dependency health",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "model.DocumentVersion": {
            "type": "object",
            "properties": {
                "author": {"type": "string"},
                "changeNote": {"type": "string"},
                "id": {"type": "string"},
                "size": {"type": "string"},
                "updatedAt": {"type": "string"},
                "versionNumber": {"type": "integer"}
            }
        },
        "model.Document": {
            "type": "object",
            "properties": {
                "attachments": {"type": "array", "items": {"type": "string"}},
                "contractNumber": {"type": "string"},
                "currentVersion": {"type": "integer"},
                "folderId": {"type": "string"},
                "id": {"type": "string"},
                "isStarred": {"type": "boolean"},
                "isTrashed": {"type": "boolean"},
                "lastModified": {"type": "string"},
                "name": {"type": "string"},
                "ownerId": {"type": "string"},
                "size": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "type": {"type": "string", "enum": ["PDF", "DOCX", "XLSX", "IMG", "TXT"]},
                "versions": {"type": "array", "items": {"$ref": "#/definitions/model.DocumentVersion"}}
            }
        },
        "model.StatusPatch": {
            "type": "object",
            "properties": {
                "isStarred": {"type": "boolean"},
                "isTrashed": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "DocuMind Bridge API",
	Description:      "Remote source of truth for offline-first DocuMind clients.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
