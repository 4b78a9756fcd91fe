package tests

import (
	"github.com/PedroFabrino/nameko-devex/internal/orders/domain"
	"github.com/PedroFabrino/nameko-devex/internal/orders/repository"
)

func (s *IntegrationTestSuite) TestGetOrder_Success() {
	created := s.createOrder(
		domain.NewOrderLine{ProductID: 7, Price: 1200, Quantity: 3},
	)

	order, err := s.OrderService.Get(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal(created.ID, order.ID)
	s.Require().Len(order.Lines, 1)
	s.Require().Equal(int64(7), order.Lines[0].ProductID)
	s.Require().Equal(int64(1200), order.Lines[0].Price)
	s.Require().Equal(int32(3), order.Lines[0].Quantity)
}

func (s *IntegrationTestSuite) TestGetOrder_NotFound() {
	order, err := s.OrderService.Get(s.Ctx, 999999)
	s.Require().Error(err)
	s.Require().ErrorIs(err, repository.ErrOrderNotFound)
	s.Require().Nil(order)
}

func (s *IntegrationTestSuite) TestListOrders_Success() {
	first := s.createOrder()
	second := s.createOrder(
		domain.NewOrderLine{ProductID: 2, Price: 700, Quantity: 5},
	)

	orders, err := s.OrderService.List(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 2)

	ids := []int64{orders[0].ID, orders[1].ID}
	s.Require().Contains(ids, first.ID)
	s.Require().Contains(ids, second.ID)
}

func (s *IntegrationTestSuite) TestListOrders_Empty() {
	orders, err := s.OrderService.List(s.Ctx)
	s.Require().NoError(err)
	s.Require().Empty(orders)
}

func (s *IntegrationTestSuite) TestUpdateOrder_Success() {
	created := s.createOrder(
		domain.NewOrderLine{ProductID: 1, Price: 100, Quantity: 1},
	)

	updated, err := s.OrderService.Update(s.Ctx, created.ID, []domain.LineUpdate{
		{LineID: created.Lines[0].ID, Price: 250, Quantity: 4},
	})
	s.Require().NoError(err)
	s.Require().Equal(created.ID, updated.ID)
	s.Require().Len(updated.Lines, 1)
	s.Require().Equal(int64(250), updated.Lines[0].Price)
	s.Require().Equal(int32(4), updated.Lines[0].Quantity)
	s.Require().True(updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))
}

func (s *IntegrationTestSuite) TestUpdateOrder_NoNewEvent() {
	created := s.createOrder()

	var before int
	err := s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM outbox`).Scan(&before)
	s.Require().NoError(err)

	_, err = s.OrderService.Update(s.Ctx, created.ID, []domain.LineUpdate{
		{LineID: created.Lines[0].ID, Price: 999, Quantity: 2},
	})
	s.Require().NoError(err)

	var after int
	err = s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM outbox`).Scan(&after)
	s.Require().NoError(err)
	s.Require().Equal(before, after)
}

func (s *IntegrationTestSuite) TestUpdateOrder_OrderNotFound() {
	updated, err := s.OrderService.Update(s.Ctx, 999999, []domain.LineUpdate{
		{LineID: 1, Price: 100, Quantity: 1},
	})
	s.Require().Error(err)
	s.Require().ErrorIs(err, repository.ErrOrderNotFound)
	s.Require().Nil(updated)
}

func (s *IntegrationTestSuite) TestUpdateOrder_LineNotFound() {
	created := s.createOrder()

	updated, err := s.OrderService.Update(s.Ctx, created.ID, []domain.LineUpdate{
		{LineID: 999999, Price: 100, Quantity: 1},
	})
	s.Require().Error(err)
	s.Require().ErrorIs(err, repository.ErrOrderLineNotFound)
	s.Require().Nil(updated)
}

func (s *IntegrationTestSuite) TestDeleteOrder_Success() {
	created := s.createOrder()

	s.Require().NoError(s.OrderService.Delete(s.Ctx, created.ID))

	_, err := s.OrderService.Get(s.Ctx, created.ID)
	s.Require().ErrorIs(err, repository.ErrOrderNotFound)

	var lineCount int
	err = s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM order_lines WHERE order_id = $1`,
		created.ID,
	).Scan(&lineCount)
	s.Require().NoError(err)
	s.Require().Zero(lineCount)
}

func (s *IntegrationTestSuite) TestDeleteOrder_NotFound() {
	err := s.OrderService.Delete(s.Ctx, 999999)
	s.Require().Error(err)
	s.Require().ErrorIs(err, repository.ErrOrderNotFound)
}
