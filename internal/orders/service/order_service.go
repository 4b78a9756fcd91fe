package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PedroFabrino/nameko-devex/internal/orders/domain"
	"github.com/PedroFabrino/nameko-devex/internal/orders/repository"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	outboxDomain "github.com/PedroFabrino/nameko-devex/pkg/outbox/domain"
	"github.com/PedroFabrino/nameko-devex/pkg/outbox/worker"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrInvalidOrder marks create requests whose lines violate the quantity or
// price constraints.
var ErrInvalidOrder = errors.New("invalid order")

const orderEventsTopic = "order_events"

type OrderService interface {
	Create(ctx context.Context, lines []domain.NewOrderLine) (*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Update(ctx context.Context, id int64, updates []domain.LineUpdate) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
}

type orderService struct {
	pool       *pgxpool.Pool
	logger     *zap.Logger
	orderRepo  repository.OrderRepository
	outboxRepo worker.OutboxRepository
	tracer     trace.Tracer
}

func NewOrderService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	orderRepo repository.OrderRepository,
	outboxRepo worker.OutboxRepository,
) OrderService {
	return &orderService{
		pool:       pool,
		logger:     logger,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		tracer:     otel.Tracer("order_service"),
	}
}

func validateLines(lines []domain.NewOrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", ErrInvalidOrder)
	}

	for i, line := range lines {
		if line.ProductID <= 0 {
			return fmt.Errorf("%w: line %d: product_id must be positive", ErrInvalidOrder, i)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("%w: line %d: quantity must be at least 1", ErrInvalidOrder, i)
		}
		if line.Price < 0 {
			return fmt.Errorf("%w: line %d: price must not be negative", ErrInvalidOrder, i)
		}
	}

	return nil
}

// Create persists the order and its lines in one transaction, together with
// the order_created outbox record. The event is therefore only published
// after the commit, and a broker outage can never roll the order back.
func (s *orderService) Create(ctx context.Context, lines []domain.NewOrderLine) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int("lines_count", len(lines)),
	)

	if err := validateLines(lines); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Rejected invalid order",
			zap.Error(err),
		)

		return nil, err
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		orderLines = append(orderLines, domain.OrderLine{
			ProductID: line.ProductID,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(cleanupCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	order := &domain.Order{Lines: orderLines}

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to create order",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	event := domain.NewOrderCreatedEvent(order)

	envelope := map[string]any{
		"type":    "order_created",
		"payload": event,
	}

	payloadBytes, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Order",
		AggregateID:   fmt.Sprintf("%d", order.ID),
		EventType:     "order_created",
		Payload:       payloadBytes,
		Topic:         orderEventsTopic,
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to save outbox event",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to commit transaction",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order created",
		zap.Int64("order_id", order.ID),
		zap.Int("lines_count", len(order.Lines)),
	)

	return order, nil
}

func (s *orderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			s.logger.Warn("order not found", zap.Int64("order_id", id))
			return nil, err
		}

		s.logger.Error("error getting order", zap.Error(err))
		return nil, fmt.Errorf("error getting order by id: %w", err)
	}

	return order, nil
}

func (s *orderService) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		s.logger.Error("list error", zap.Error(err))
		return nil, fmt.Errorf("error listing orders: %w", err)
	}

	return orders, nil
}

// Update overwrites price and quantity on the matched lines. Stock already
// decremented for the original quantities is left untouched.
func (s *orderService) Update(ctx context.Context, id int64, updates []domain.LineUpdate) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", id),
		attribute.Int("updates_count", len(updates)),
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(cleanupCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	if err := s.orderRepo.TouchOrder(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			mylogger.Warn(
				ctx,
				s.logger,
				"Order not found",
				zap.Int64("order_id", id),
			)

			return nil, err
		}

		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	for _, update := range updates {
		if err := s.orderRepo.UpdateLine(ctx, tx, id, update); err != nil {
			if errors.Is(err, repository.ErrOrderLineNotFound) {
				return nil, err
			}

			return nil, fmt.Errorf("failed to update order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to commit transaction",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.orderRepo.GetOrder(ctx, id)
}

func (s *orderService) Delete(ctx context.Context, id int64) error {
	err := s.orderRepo.DeleteOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			s.logger.Warn("order not found", zap.Int64("order_id", id))
			return err
		}

		s.logger.Error("error deleting order", zap.Error(err))
		return err
	}

	return nil
}
