package repository

import (
	"context"
	"fmt"

	"github.com/PedroFabrino/nameko-devex/internal/products/domain"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ReconciliationRepository holds the decrement markers that make duplicate
// event deliveries no-ops, plus the failure records for lines that could not
// be applied.
type ReconciliationRepository interface {
	// MarkDecrementApplied inserts the (order, product) marker and reports
	// whether this call inserted it. false means the decrement was already
	// applied by an earlier delivery.
	MarkDecrementApplied(ctx context.Context, tx pgx.Tx, orderID, productID int64) (bool, error)
	DecrementApplied(ctx context.Context, orderID, productID int64) (bool, error)
	RecordFailure(ctx context.Context, failure *domain.ReconciliationFailure) error
	ListFailures(ctx context.Context, limit int64) ([]domain.ReconciliationFailure, error)
}

type reconciliationRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewReconciliationRepository(pool *pgxpool.Pool, logger *zap.Logger) ReconciliationRepository {
	return &reconciliationRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/reconciliation_repo"),
	}
}

// MarkDecrementApplied relies on the composite primary key: of two racing
// transactions inserting the same key, one blocks until the other commits
// and then observes the conflict, so exactly one caller gets true.
func (r *reconciliationRepo) MarkDecrementApplied(ctx context.Context, tx pgx.Tx, orderID, productID int64) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ReconciliationRepository.MarkDecrementApplied")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.Int64("product_id", productID),
	)

	query := `
		INSERT INTO stock_decrements (order_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (order_id, product_id) DO NOTHING
	`

	commandTag, err := tx.Exec(ctx, query, orderID, productID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert decrement marker",
			zap.Int64("order_id", orderID),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)

		return false, fmt.Errorf("failed to insert decrement marker: %w", err)
	}

	return commandTag.RowsAffected() == 1, nil
}

func (r *reconciliationRepo) DecrementApplied(ctx context.Context, orderID, productID int64) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ReconciliationRepository.DecrementApplied")
	defer span.End()

	query := `
		SELECT EXISTS (
			SELECT 1 FROM stock_decrements
			WHERE order_id = $1 AND product_id = $2
		)
	`

	var applied bool
	if err := r.pool.QueryRow(ctx, query, orderID, productID).Scan(&applied); err != nil {
		span.RecordError(err)

		return false, fmt.Errorf("failed to query decrement marker: %w", err)
	}

	return applied, nil
}

func (r *reconciliationRepo) RecordFailure(ctx context.Context, failure *domain.ReconciliationFailure) error {
	ctx, span := r.tracer.Start(ctx, "ReconciliationRepository.RecordFailure")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", failure.OrderID),
		attribute.Int64("product_id", failure.ProductID),
		attribute.String("reason", failure.Reason),
	)

	query := `
		INSERT INTO reconciliation_failures (order_id, product_id, quantity, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		failure.OrderID,
		failure.ProductID,
		failure.Quantity,
		failure.Reason,
	).Scan(&failure.ID, &failure.CreatedAt); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to record reconciliation failure",
			zap.Int64("order_id", failure.OrderID),
			zap.Int64("product_id", failure.ProductID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to record reconciliation failure: %w", err)
	}

	return nil
}

func (r *reconciliationRepo) ListFailures(ctx context.Context, limit int64) ([]domain.ReconciliationFailure, error) {
	ctx, span := r.tracer.Start(ctx, "ReconciliationRepository.ListFailures")
	defer span.End()

	query := `
		SELECT id, order_id, product_id, quantity, reason, created_at
		FROM reconciliation_failures
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query reconciliation failures: %w", err)
	}
	defer rows.Close()

	var failures []domain.ReconciliationFailure
	for rows.Next() {
		var f domain.ReconciliationFailure
		if err := rows.Scan(
			&f.ID,
			&f.OrderID,
			&f.ProductID,
			&f.Quantity,
			&f.Reason,
			&f.CreatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("failed to scan reconciliation failure: %w", err)
		}

		failures = append(failures, f)
	}

	span.SetAttributes(
		attribute.Int("result_count", len(failures)),
	)

	return failures, rows.Err()
}
