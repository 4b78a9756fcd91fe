package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/PedroFabrino/nameko-devex/internal/orders/domain"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateLine(ctx context.Context, tx pgx.Tx, orderID int64, update domain.LineUpdate) error
	TouchOrder(ctx context.Context, tx pgx.Tx, orderID int64) error
	DeleteOrder(ctx context.Context, id int64) error
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("order_repository"),
	}
}

func (r *orderRepo) CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int("lines_count", len(order.Lines)),
	)

	queryOrder := `
		INSERT INTO orders (created_at, updated_at)
		VALUES (NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRow(ctx, queryOrder).Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert order: %w", err)
	}

	queryLine := `
		INSERT INTO order_lines (order_id, product_id, price, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID

		if err := tx.QueryRow(
			ctx,
			queryLine,
			line.OrderID,
			line.ProductID,
			line.Price,
			line.Quantity,
		).Scan(&line.ID); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert order line",
				zap.Int64("product_id", line.ProductID),
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	return nil
}

func (r *orderRepo) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", id),
	)

	queryOrder := `
		SELECT id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order domain.Order
	if err := r.pool.QueryRow(ctx, queryOrder, id).Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order",
			zap.Int64("order_id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	lines, err := r.linesOfOrder(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

func (r *orderRepo) linesOfOrder(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, price, quantity
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order_lines",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Price,
			&line.Quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}

		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func (r *orderRepo) ListOrders(ctx context.Context) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListOrders")
	defer span.End()

	queryOrders := `
		SELECT id, created_at, updated_at
		FROM orders
	`

	rows, err := r.pool.Query(ctx, queryOrders)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query orders",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	for i := range orders {
		lines, err := r.linesOfOrder(ctx, orders[i].ID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		orders[i].Lines = lines
	}

	span.SetAttributes(
		attribute.Int("result_count", len(orders)),
	)

	return orders, nil
}

func (r *orderRepo) UpdateLine(ctx context.Context, tx pgx.Tx, orderID int64, update domain.LineUpdate) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.UpdateLine")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.Int64("line_id", update.LineID),
	)

	query := `
		UPDATE order_lines
		SET price = $1, quantity = $2
		WHERE id = $3 AND order_id = $4
	`

	commandTag, err := tx.Exec(ctx, query, update.Price, update.Quantity, update.LineID, orderID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update order line",
			zap.Int64("line_id", update.LineID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to update order line: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		mylogger.Warn(
			ctx,
			r.logger,
			"Order line not found",
			zap.Int64("order_id", orderID),
			zap.Int64("line_id", update.LineID),
		)

		return ErrOrderLineNotFound
	}

	return nil
}

func (r *orderRepo) TouchOrder(ctx context.Context, tx pgx.Tx, orderID int64) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.TouchOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	query := `
		UPDATE orders
		SET updated_at = NOW()
		WHERE id = $1
	`

	commandTag, err := tx.Exec(ctx, query, orderID)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to update order: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *orderRepo) DeleteOrder(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.DeleteOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", id),
	)

	// Lines go with the order via ON DELETE CASCADE.
	query := `
		DELETE FROM orders
		WHERE id = $1
	`

	commandTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to delete order",
			zap.Int64("order_id", id),
			zap.Error(err),
		)

		return fmt.Errorf("failed to delete order: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}
