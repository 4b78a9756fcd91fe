package tests

import (
	"context"
	"time"

	productskafka "github.com/PedroFabrino/nameko-devex/internal/products/transport/kafka"
	"go.uber.org/zap"
)

const orderEventsTopic = "order_events"

func (s *IntegrationTestSuite) startConsumer() context.CancelFunc {
	consumer := productskafka.NewConsumer(s.Reconciler, zap.NewNop())

	consumerCtx, cancel := context.WithCancel(s.Ctx)
	go consumer.Start(consumerCtx, s.KafkaBrokers)

	return cancel
}

func (s *IntegrationTestSuite) TestConsumeOrderCreated_DecrementsStock() {
	product := s.createProduct("Streamed Vinyl", 9999, 5)

	cancel := s.startConsumer()
	defer cancel()

	envelope := map[string]any{
		"type": "order_created",
		"payload": map[string]any{
			"order_id": 41,
			"lines": []map[string]any{
				{"product_id": product.ID, "quantity": 2},
			},
		},
	}
	s.Require().NoError(s.TestProducer.ProduceMessage(s.Ctx, orderEventsTopic, envelope))

	s.Require().Eventually(func() bool {
		return s.stockOf(product.ID) == 3
	}, 30*time.Second, 200*time.Millisecond)

	applied, err := s.ReconRepo.DecrementApplied(s.Ctx, 41, product.ID)
	s.Require().NoError(err)
	s.Require().True(applied)
}

func (s *IntegrationTestSuite) TestConsumeOrderCreated_UnknownTypeSkipped() {
	product := s.createProduct("Ignored Vinyl", 9999, 5)

	cancel := s.startConsumer()
	defer cancel()

	unknown := map[string]any{
		"type": "order_cancelled",
		"payload": map[string]any{
			"order_id": 42,
			"lines": []map[string]any{
				{"product_id": product.ID, "quantity": 2},
			},
		},
	}
	s.Require().NoError(s.TestProducer.ProduceMessage(s.Ctx, orderEventsTopic, unknown))

	known := map[string]any{
		"type": "order_created",
		"payload": map[string]any{
			"order_id": 43,
			"lines": []map[string]any{
				{"product_id": product.ID, "quantity": 1},
			},
		},
	}
	s.Require().NoError(s.TestProducer.ProduceMessage(s.Ctx, orderEventsTopic, known))

	// Only the order_created event takes effect; the unknown type is acked
	// and dropped, so stock settles at 4 and stays there.
	s.Require().Eventually(func() bool {
		return s.stockOf(product.ID) == 4
	}, 30*time.Second, 200*time.Millisecond)

	time.Sleep(2 * time.Second)
	s.Require().Equal(int64(4), s.stockOf(product.ID))
}
