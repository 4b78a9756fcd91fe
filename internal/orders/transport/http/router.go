package http

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *OrderHandler) {
	orders := app.Group("/orders")

	orders.Post("", h.Create)
	orders.Get("", h.List)
	orders.Get("/:id", h.Get)
	orders.Put("/:id", h.Update)
	orders.Delete("/:id", h.Delete)
}
