package http

import (
	"errors"
	"strconv"

	"github.com/PedroFabrino/nameko-devex/internal/orders/domain"
	"github.com/PedroFabrino/nameko-devex/internal/orders/repository"
	"github.com/PedroFabrino/nameko-devex/internal/orders/service"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	"github.com/PedroFabrino/nameko-devex/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service  service.OrderService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewOrderHandler(service service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

type orderLineInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Price     int64 `json:"price" validate:"gte=0"`
	Quantity  int32 `json:"quantity" validate:"required,gte=1"`
}

type createOrderRequest struct {
	Lines []orderLineInput `json:"lines" validate:"required,min=1,dive"`
}

type lineUpdateInput struct {
	ID       int64 `json:"id" validate:"required,gt=0"`
	Price    int64 `json:"price" validate:"gte=0"`
	Quantity int32 `json:"quantity" validate:"required,gte=1"`
}

type updateOrderRequest struct {
	Lines []lineUpdateInput `json:"lines" validate:"required,min=1,dive"`
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	ctx := c.UserContext()

	req := new(createOrderRequest)
	if err := c.BodyParser(req); err != nil {
		mylogger.Warn(ctx, h.logger, "body parsing failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		mylogger.Warn(ctx, h.logger, "create order validation failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	lines := make([]domain.NewOrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, domain.NewOrderLine{
			ProductID: line.ProductID,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}

	order, err := h.service.Create(ctx, lines)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrder) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		mylogger.Error(ctx, h.logger, "create order failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create order",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	order, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "order not found",
			})
		}

		mylogger.Error(ctx, h.logger, "get order failed", zap.Int64("order_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get order",
		})
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	orders, err := h.service.List(ctx)
	if err != nil {
		mylogger.Error(ctx, h.logger, "list orders failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list orders",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orders": orders,
	})
}

func (h *OrderHandler) Update(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	req := new(updateOrderRequest)
	if err := c.BodyParser(req); err != nil {
		mylogger.Warn(ctx, h.logger, "body parsing failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		mylogger.Warn(ctx, h.logger, "update order validation failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	updates := make([]domain.LineUpdate, 0, len(req.Lines))
	for _, line := range req.Lines {
		updates = append(updates, domain.LineUpdate{
			LineID:   line.ID,
			Price:    line.Price,
			Quantity: line.Quantity,
		})
	}

	order, err := h.service.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, repository.ErrOrderLineNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		mylogger.Error(ctx, h.logger, "update order failed", zap.Int64("order_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update order",
		})
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	if err := h.service.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "order not found",
			})
		}

		mylogger.Error(ctx, h.logger, "delete order failed", zap.Int64("order_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete order",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}

	return id, nil
}
