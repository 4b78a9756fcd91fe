package http

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *ProductHandler) {
	products := app.Group("/products")

	products.Post("", h.Create)
	products.Get("", h.List)
	products.Get("/:id", h.Get)
	products.Put("/:id", h.Update)
	products.Delete("/:id", h.Delete)

	app.Get("/reconciliation-failures", h.ListReconciliationFailures)
}
