// Package worker publishes committed outbox records to Kafka. Events are
// written to the outbox table inside the same transaction as the state they
// describe, so a record can only ever be published after its transaction has
// committed. Delivery is at-least-once: a crash between SendMessage and
// MarkEventPublished republishes the event on the next tick.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	"github.com/PedroFabrino/nameko-devex/pkg/outbox/domain"
	"github.com/PedroFabrino/nameko-devex/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OutboxRepository interface {
	SaveOutboxEvent(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error
	GetUnpublishedEvents(ctx context.Context, tx pgx.Tx, batchSize int) ([]*domain.OutboxEvent, error)
	MarkEventPublished(ctx context.Context, tx pgx.Tx, eventID int64) error
	MarkEventFailed(ctx context.Context, tx pgx.Tx, eventID int64, errMsg string) error
}

type KafkaProducer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
}

type OutboxProcessor struct {
	pool          *pgxpool.Pool
	repo          OutboxRepository
	kafkaProducer KafkaProducer
	logger        *zap.Logger
	breaker       *gobreaker.CircuitBreaker
	batchSize     int
	interval      time.Duration
	tracer        trace.Tracer
}

func NewOutboxProcessor(
	pool *pgxpool.Pool,
	repo OutboxRepository,
	producer KafkaProducer,
	logger *zap.Logger,
) *OutboxProcessor {
	settings := gobreaker.Settings{
		Name:    "OutboxKafkaProducer",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &OutboxProcessor{
		pool:          pool,
		repo:          repo,
		kafkaProducer: producer,
		logger:        logger,
		breaker:       gobreaker.NewCircuitBreaker(settings),
		batchSize:     50,
		interval:      500 * time.Millisecond,
		tracer:        otel.Tracer("outbox-worker"),
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	mylogger.Info(ctx, p.logger, "Starting outbox processor")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, p.logger, "Outbox processor stopping")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				mylogger.Error(
					ctx,
					p.logger,
					"Error processing outbox batch",
					zap.Error(err),
				)
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "OutboxProcessor.processBatch")
	defer span.End()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(cleanupCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Error(
				cleanupCtx,
				p.logger,
				"Outbox worker failed to rollback transaction",
				zap.Error(err),
			)
		}
	}()

	events, err := p.repo.GetUnpublishedEvents(ctx, tx, p.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	mylogger.Debug(
		ctx,
		p.logger,
		"Processing outbox events",
		zap.Int("count", len(events)),
	)

	for _, event := range events {
		var payloadMap map[string]any
		if err := json.Unmarshal(event.Payload, &payloadMap); err != nil {
			mylogger.Error(
				ctx,
				p.logger,
				"outbox worker unmarshal event payload failed",
				zap.Int64("id", event.Id),
				zap.Error(err),
			)

			_ = p.repo.MarkEventFailed(ctx, tx, event.Id, err.Error())
			continue
		}

		payloadMap["event_id"] = event.Id

		_, err := utils.ExecuteWithBreaker(p.breaker, func() (struct{}, error) {
			return struct{}{}, p.kafkaProducer.ProduceMessage(ctx, event.Topic, payloadMap)
		})
		if err != nil {
			mylogger.Error(
				ctx,
				p.logger,
				"outbox worker produce message failed",
				zap.Int64("id", event.Id),
				zap.Error(err),
			)
			if dbErr := p.repo.MarkEventFailed(ctx, tx, event.Id, err.Error()); dbErr != nil {
				mylogger.Error(
					ctx,
					p.logger,
					"outbox worker mark event failed failed",
					zap.Int64("id", event.Id),
					zap.Error(dbErr),
				)
			}

			continue
		}

		if dbErr := p.repo.MarkEventPublished(ctx, tx, event.Id); dbErr != nil {
			mylogger.Error(
				ctx,
				p.logger,
				"outbox worker mark event published failed",
				zap.Int64("id", event.Id),
				zap.Error(dbErr),
			)

			return dbErr
		}

		mylogger.Debug(
			ctx,
			p.logger,
			"outbox worker event published successfully",
			zap.Int64("id", event.Id),
		)
	}

	return tx.Commit(ctx)
}
