package http

import (
	"errors"
	"strconv"

	"github.com/PedroFabrino/nameko-devex/internal/products/domain"
	"github.com/PedroFabrino/nameko-devex/internal/products/repository"
	"github.com/PedroFabrino/nameko-devex/internal/products/service"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	"github.com/PedroFabrino/nameko-devex/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type ProductHandler struct {
	service   service.ProductService
	reconRepo repository.ReconciliationRepository
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewProductHandler(
	service service.ProductService,
	reconRepo repository.ReconciliationRepository,
	logger *zap.Logger,
) *ProductHandler {
	return &ProductHandler{
		service:   service,
		reconRepo: reconRepo,
		validate:  validator.New(),
		logger:    logger,
	}
}

type createProductRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=255"`
	Description   string `json:"description"`
	Price         int64  `json:"price" validate:"gte=0"`
	StockQuantity int64  `json:"stock_quantity" validate:"gte=0"`
}

type updateProductRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string `json:"description"`
	Price         *int64  `json:"price" validate:"omitempty,gte=0"`
	StockQuantity *int64  `json:"stock_quantity" validate:"omitempty,gte=0"`
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	ctx := c.UserContext()

	req := new(createProductRequest)
	if err := c.BodyParser(req); err != nil {
		mylogger.Warn(ctx, h.logger, "body parsing failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		mylogger.Warn(ctx, h.logger, "create product validation failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	product := &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}

	if _, err := h.service.Create(ctx, product); err != nil {
		mylogger.Error(ctx, h.logger, "create product failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create product",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	product, err := h.service.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}

		mylogger.Error(ctx, h.logger, "get product failed", zap.Int64("product_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get product",
		})
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	limit := int64(c.QueryInt("limit", defaultListLimit))
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	offset := int64(c.QueryInt("offset", 0))
	if offset < 0 {
		offset = 0
	}

	search := c.Query("search")

	products, total, err := h.service.List(ctx, limit, offset, search)
	if err != nil {
		mylogger.Error(ctx, h.logger, "list products failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list products",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"products": products,
		"total":    total,
	})
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	req := new(updateProductRequest)
	if err := c.BodyParser(req); err != nil {
		mylogger.Warn(ctx, h.logger, "body parsing failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		mylogger.Warn(ctx, h.logger, "update product validation failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	input := &domain.UpdateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}

	if err := h.service.Update(ctx, id, input); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}

		mylogger.Error(ctx, h.logger, "update product failed", zap.Int64("product_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update product",
		})
	}

	product, err := h.service.FindByID(ctx, id)
	if err != nil {
		mylogger.Error(ctx, h.logger, "get product after update failed", zap.Int64("product_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get product",
		})
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	if err := h.service.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}

		mylogger.Error(ctx, h.logger, "delete product failed", zap.Int64("product_id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete product",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) ListReconciliationFailures(c *fiber.Ctx) error {
	ctx := c.UserContext()

	limit := int64(c.QueryInt("limit", defaultListLimit))
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	failures, err := h.reconRepo.ListFailures(ctx, limit)
	if err != nil {
		mylogger.Error(ctx, h.logger, "list reconciliation failures failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list reconciliation failures",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"failures": failures,
	})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}

	return id, nil
}
