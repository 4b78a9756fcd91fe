package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/PedroFabrino/nameko-devex/internal/products/domain"
	"github.com/PedroFabrino/nameko-devex/internal/products/repository"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ProductService interface {
	Create(ctx context.Context, product *domain.Product) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	Update(ctx context.Context, id int64, input *domain.UpdateProductInput) error
	Delete(ctx context.Context, id int64) error
	DecrementStock(ctx context.Context, id, quantity int64) error
}

type productService struct {
	productRepo repository.ProductRepository
	pool        *pgxpool.Pool
	logger      *zap.Logger
}

func NewProductService(
	productRepo repository.ProductRepository,
	pool *pgxpool.Pool,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		pool:        pool,
		logger:      logger,
	}
}

func (s *productService) Create(ctx context.Context, product *domain.Product) (int64, error) {
	id, err := s.productRepo.Create(ctx, product)
	if err != nil {
		mylogger.Error(ctx, s.logger, "create product error", zap.Error(err))
		return 0, fmt.Errorf("error creating product: %w", err)
	}

	return id, nil
}

func (s *productService) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	res, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return nil, err
		}

		s.logger.Error("error getting product", zap.Error(err))
		return nil, fmt.Errorf("error getting product by id: %w", err)
	}

	return res, nil
}

func (s *productService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	list, total, err := s.productRepo.List(ctx, limit, offset, search)
	if err != nil {
		s.logger.Error("list error", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing products: %w", err)
	}

	return list, total, nil
}

func (s *productService) Update(ctx context.Context, id int64, input *domain.UpdateProductInput) error {
	err := s.productRepo.Update(ctx, id, input)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return err
		}

		s.logger.Error("error updating product", zap.Error(err))
		return err
	}

	return nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	err := s.productRepo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return err
		}

		s.logger.Error("error deleting product", zap.Error(err))
		return err
	}

	return nil
}

// DecrementStock applies a single unconditional-of-origin decrement in its
// own transaction. The event-driven path goes through StockReconciler
// instead, which adds the per-order idempotency marker.
func (s *productService) DecrementStock(ctx context.Context, id, quantity int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Warn(ctx, s.logger, "Failed to begin transaction", zap.Error(err))
		return err
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(cleanupCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(cleanupCtx, s.logger, "Error rolling back transaction", zap.Error(err))
		}
	}()

	if err := s.productRepo.DecrementStock(ctx, tx, id, quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			s.logger.Warn("insufficient stock",
				zap.Int64("product_id", id),
				zap.Int64("quantity", quantity),
			)
			return err
		}
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return err
		}

		s.logger.Error("error decrementing stock", zap.Error(err))
		return err
	}

	return tx.Commit(ctx)
}
