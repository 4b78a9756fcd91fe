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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// StockReconciler applies the stock effects of created orders. Deliveries
// are at-least-once and possibly concurrent, so every line is guarded by a
// (order_id, product_id) marker written in the same transaction as the
// decrement: the two commit atomically and a redelivered line is a no-op.
type StockReconciler struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	productRepo repository.ProductRepository
	reconRepo   repository.ReconciliationRepository
	tracer      trace.Tracer
}

func NewStockReconciler(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	productRepo repository.ProductRepository,
	reconRepo repository.ReconciliationRepository,
) *StockReconciler {
	return &StockReconciler{
		pool:        pool,
		logger:      logger,
		productRepo: productRepo,
		reconRepo:   reconRepo,
		tracer:      otel.Tracer("stock_reconciler"),
	}
}

// HandleOrderCreated processes every line of the event independently. A line
// that fails on a missing product or insufficient stock is recorded for
// operators and does not block its siblings; only infrastructure errors are
// returned, which makes the channel redeliver the event.
func (r *StockReconciler) HandleOrderCreated(ctx context.Context, event *domain.OrderCreatedEvent) error {
	ctx, span := r.tracer.Start(ctx, "StockReconciler.HandleOrderCreated")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", event.OrderID),
		attribute.Int("lines_count", len(event.Lines)),
	)

	var infraErrs []error

	for _, line := range event.Lines {
		err := r.applyLine(ctx, event.OrderID, line)
		if err == nil {
			continue
		}

		if errors.Is(err, repository.ErrProductNotFound) || errors.Is(err, repository.ErrInsufficientStock) {
			mylogger.Warn(
				ctx,
				r.logger,
				"Stock decrement rejected",
				zap.Int64("order_id", event.OrderID),
				zap.Int64("product_id", line.ProductID),
				zap.Int32("quantity", line.Quantity),
				zap.String("reason", err.Error()),
			)

			failure := &domain.ReconciliationFailure{
				OrderID:   event.OrderID,
				ProductID: line.ProductID,
				Quantity:  int64(line.Quantity),
				Reason:    err.Error(),
			}
			if recordErr := r.reconRepo.RecordFailure(ctx, failure); recordErr != nil {
				infraErrs = append(infraErrs, recordErr)
			}

			continue
		}

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to apply stock decrement",
			zap.Int64("order_id", event.OrderID),
			zap.Int64("product_id", line.ProductID),
			zap.Error(err),
		)

		infraErrs = append(infraErrs, err)
	}

	if len(infraErrs) > 0 {
		return fmt.Errorf("order %d: %w", event.OrderID, errors.Join(infraErrs...))
	}

	return nil
}

func (r *StockReconciler) applyLine(ctx context.Context, orderID int64, line domain.OrderLineEvent) error {
	ctx, span := r.tracer.Start(ctx, "StockReconciler.applyLine")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.Int64("product_id", line.ProductID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(cleanupCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				r.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	inserted, err := r.reconRepo.MarkDecrementApplied(ctx, tx, orderID, line.ProductID)
	if err != nil {
		return err
	}

	if !inserted {
		mylogger.Debug(
			ctx,
			r.logger,
			"Decrement already applied, skipping",
			zap.Int64("order_id", orderID),
			zap.Int64("product_id", line.ProductID),
		)

		return nil
	}

	if err := r.productRepo.DecrementStock(ctx, tx, line.ProductID, int64(line.Quantity)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		r.logger,
		"Stock decremented",
		zap.Int64("order_id", orderID),
		zap.Int64("product_id", line.ProductID),
		zap.Int32("quantity", line.Quantity),
	)

	return nil
}
