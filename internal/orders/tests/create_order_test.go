package tests

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/PedroFabrino/nameko-devex/internal/orders/domain"
	"github.com/PedroFabrino/nameko-devex/internal/orders/service"
)

func (s *IntegrationTestSuite) TestCreateOrder_Success() {
	order := s.createOrder(
		domain.NewOrderLine{ProductID: 1, Price: 9999, Quantity: 2},
		domain.NewOrderLine{ProductID: 2, Price: 5350, Quantity: 1},
	)

	s.Require().Len(order.Lines, 2)
	for _, line := range order.Lines {
		s.Require().NotZero(line.ID)
		s.Require().Equal(order.ID, line.OrderID)
	}

	var lineCount int
	err := s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM order_lines WHERE order_id = $1`,
		order.ID,
	).Scan(&lineCount)
	s.Require().NoError(err)
	s.Require().Equal(2, lineCount)
}

func (s *IntegrationTestSuite) TestCreateOrder_OutboxRowCommitted() {
	order := s.createOrder()

	var payload []byte
	err := s.DbPool.QueryRow(
		s.Ctx,
		`SELECT payload FROM outbox WHERE aggregate_id = $1 AND event_type = 'order_created'`,
		fmt.Sprintf("%d", order.ID),
	).Scan(&payload)
	s.Require().NoError(err)

	var envelope struct {
		Type    string `json:"type"`
		Payload struct {
			OrderID int64 `json:"order_id"`
			Lines   []struct {
				ProductID int64 `json:"product_id"`
				Quantity  int32 `json:"quantity"`
			} `json:"lines"`
		} `json:"payload"`
	}
	s.Require().NoError(json.Unmarshal(payload, &envelope))
	s.Require().Equal("order_created", envelope.Type)
	s.Require().Equal(order.ID, envelope.Payload.OrderID)
	s.Require().Len(envelope.Payload.Lines, 1)
	s.Require().Equal(int64(1), envelope.Payload.Lines[0].ProductID)
	s.Require().Equal(int32(1), envelope.Payload.Lines[0].Quantity)
}

func (s *IntegrationTestSuite) TestCreateOrder_EventPublished() {
	order := s.createOrder()

	publishedAtQuery := `
		SELECT published_at
		FROM outbox
		WHERE aggregate_id = $1 AND event_type = 'order_created'
	`

	s.Require().Eventually(func() bool {
		var publishedAt *time.Time

		err := s.DbPool.QueryRow(s.Ctx, publishedAtQuery, fmt.Sprintf("%d", order.ID)).
			Scan(&publishedAt)
		if err != nil || publishedAt == nil {
			return false
		}

		return true
	}, 10*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestCreateOrder_EmptyLines_Failed() {
	order, err := s.OrderService.Create(s.Ctx, nil)
	s.Require().Error(err)
	s.Require().ErrorIs(err, service.ErrInvalidOrder)
	s.Require().Nil(order)
}

func (s *IntegrationTestSuite) TestCreateOrder_InvalidQuantity_Failed() {
	order, err := s.OrderService.Create(s.Ctx, []domain.NewOrderLine{
		{ProductID: 1, Price: 100, Quantity: 0},
	})
	s.Require().Error(err)
	s.Require().ErrorIs(err, service.ErrInvalidOrder)
	s.Require().Nil(order)

	var outboxCount int
	err = s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM outbox`).Scan(&outboxCount)
	s.Require().NoError(err)
	s.Require().Zero(outboxCount)
}

func (s *IntegrationTestSuite) TestCreateOrder_NegativePrice_Failed() {
	order, err := s.OrderService.Create(s.Ctx, []domain.NewOrderLine{
		{ProductID: 1, Price: -1, Quantity: 1},
	})
	s.Require().Error(err)
	s.Require().ErrorIs(err, service.ErrInvalidOrder)
	s.Require().Nil(order)
}
