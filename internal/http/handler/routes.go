package handler

import (
	"database/sql"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	"documind/internal/http/middleware"
	"documind/internal/service"
	"documind/internal/storage"
)

// Deps are the collaborators the bridge API routes need. Gatherer and Spec
// are optional; without them /metrics and /swagger are not mounted.
type Deps struct {
	DB       *sql.DB
	Objects  storage.Storage
	Docs     service.DocumentService
	Gatherer prometheus.Gatherer
	Spec     *swag.Spec
}

// RegisterRoutes attaches every bridge API route to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB, d.Objects))
	app.Get("/healthz", LivenessProbe())

	if d.Gatherer != nil {
		app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Get("/documents", ListDocuments(d.Docs))
	api.Post("/documents", RegisterDocument(d.Docs))
	api.Patch("/documents/:id", PatchDocumentStatus(d.Docs))

	if d.Spec != nil {
		app.Get("/swagger/*", SwaggerUI(d.Spec))
	}
}

// SwaggerUI serves the API docs. doc.json is rendered from a per-request
// copy of spec carrying the host and scheme the caller used; spec itself is
// never written.
func SwaggerUI(spec *swag.Spec) fiber.Handler {
	ui := swagger.HandlerDefault
	return func(c *fiber.Ctx) error {
		if c.Params("*") != "doc.json" {
			return ui(c)
		}

		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		doc := *spec
		doc.Host = c.Get(fiber.HeaderHost)
		doc.Schemes = []string{scheme}

		c.Type("json")
		return c.SendString(doc.ReadDoc())
	}
}
