package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PedroFabrino/nameko-devex/internal/products/domain"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	Update(ctx context.Context, id int64, input *domain.UpdateProductInput) error
	DeleteByID(ctx context.Context, id int64) error
	DecrementStock(ctx context.Context, tx pgx.Tx, id, quantity int64) error
}

type productRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewProductRepository(pool *pgxpool.Pool, logger *zap.Logger) ProductRepository {
	return &productRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/product_repo"),
	}
}

// DecrementStock commits only when the current stock covers the quantity, so
// stock_quantity never drops below zero. The conditional update takes a row
// lock: concurrent decrements of one product serialize, different products
// proceed in parallel.
func (r *productRepo) DecrementStock(ctx context.Context, tx pgx.Tx, id, quantity int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DecrementStock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
		attribute.Int64("quantity", quantity),
	)

	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1
			AND stock_quantity >= $2
	`

	commandTag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error decrementing stock",
			zap.Int64("id", id),
			zap.Int64("quantity", quantity),
			zap.Error(err),
		)

		return fmt.Errorf("error decrementing stock for product %d: %w", id, err)
	}

	if commandTag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`,
			id,
		).Scan(&exists); err != nil {
			span.RecordError(err)

			return fmt.Errorf("error checking product %d: %w", id, err)
		}

		if !exists {
			return ErrProductNotFound
		}

		return ErrInsufficientStock
	}

	return nil
}

func (r *productRepo) Create(ctx context.Context, product *domain.Product) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("name", product.Name),
	)

	query := `
		INSERT INTO products (name, description, price, stock_quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at;
	`

	err := r.pool.QueryRow(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.StockQuantity,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error creating product",
			zap.Error(err),
		)

		return 0, fmt.Errorf("error creating product: %w", err)
	}

	return product.ID, nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `
		SELECT id, name, description, price, stock_quantity, created_at, updated_at
		FROM products
		WHERE id = $1;
	`

	var res domain.Product
	if err := r.pool.QueryRow(ctx, query, id).
		Scan(&res.ID, &res.Name, &res.Description, &res.Price,
			&res.StockQuantity, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error getting product by id",
			zap.Int64("id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("error getting product: %w", err)
	}

	return &res, nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("limit", limit),
		attribute.Int64("offset", offset),
		attribute.String("search", search),
	)

	var products []domain.Product
	var totalCount int64

	baseQuery := `SELECT id, name, description, price, stock_quantity, created_at, updated_at
		FROM products`
	countQuery := `SELECT COUNT(*) FROM products`

	var args []interface{}
	argId := 1

	if search != "" {
		filter := fmt.Sprintf(" WHERE name ILIKE $%d", argId)
		baseQuery += filter
		countQuery += filter

		args = append(args, "%"+search+"%")
		argId++
	}

	baseQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argId, argId+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, baseQuery, args...)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error listing products",
			zap.Error(err),
		)

		return nil, 0, fmt.Errorf("error selecting products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.StockQuantity,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			span.RecordError(err)

			return nil, 0, fmt.Errorf("error scanning rows: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)

		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	var countArgs []interface{}
	if search != "" {
		countArgs = append(countArgs, args[0])
	}

	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		span.RecordError(err)

		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, totalCount, nil
}

func (r *productRepo) Update(ctx context.Context, id int64, input *domain.UpdateProductInput) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `UPDATE products SET `
	var args []interface{}
	argId := 1

	var updates []string

	if input.Name != nil {
		updates = append(updates, fmt.Sprintf("name = $%d", argId))
		args = append(args, *input.Name)
		argId++
	}

	if input.Description != nil {
		updates = append(updates, fmt.Sprintf("description = $%d", argId))
		args = append(args, *input.Description)
		argId++
	}

	if input.Price != nil {
		updates = append(updates, fmt.Sprintf("price = $%d", argId))
		args = append(args, *input.Price)
		argId++
	}

	if input.StockQuantity != nil {
		updates = append(updates, fmt.Sprintf("stock_quantity = $%d", argId))
		args = append(args, *input.StockQuantity)
		argId++
	}

	if len(updates) == 0 {
		return nil
	}

	updates = append(updates, "updated_at = NOW()")

	query += strings.Join(updates, ", ")
	query += fmt.Sprintf(" WHERE id = $%d", argId)
	args = append(args, id)

	commandTag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update product",
			zap.Int64("id", id),
			zap.Error(err),
		)

		return fmt.Errorf("error updating product: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepo) DeleteByID(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `
		DELETE FROM products
		WHERE id = $1
	`

	commandTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error deleting product by id",
			zap.Int64("id", id),
			zap.Error(err),
		)

		return fmt.Errorf("error deleting product by id: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}
