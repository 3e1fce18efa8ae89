package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ingestion *IngestionHandler
	JWTSecret string
}

// Router registra las rutas operativas de la API. Todas protegidas: estos
// endpoints disparan escrituras en clientes y facturas.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	ing := api.Group("/ingestion")
	ing.Post("/attachments/:id/process", deps.Ingestion.ProcessAttachment)
	ing.Post("/sweep", deps.Ingestion.Sweep)
}
