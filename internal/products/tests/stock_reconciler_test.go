package tests

import (
	"sync"

	"github.com/PedroFabrino/nameko-devex/internal/products/domain"
	"github.com/PedroFabrino/nameko-devex/internal/products/repository"
)

func (s *IntegrationTestSuite) TestHandleOrderCreated_DecrementsStock() {
	product := s.createProduct("Reconciled Vinyl", 9999, 10)

	event := &domain.OrderCreatedEvent{
		OrderID: 1,
		Lines: []domain.OrderLineEvent{
			{ProductID: product.ID, Quantity: 3},
		},
	}

	s.Require().NoError(s.Reconciler.HandleOrderCreated(s.Ctx, event))
	s.Require().Equal(int64(7), s.stockOf(product.ID))

	applied, err := s.ReconRepo.DecrementApplied(s.Ctx, 1, product.ID)
	s.Require().NoError(err)
	s.Require().True(applied)
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_DuplicateDelivery_Idempotent() {
	product := s.createProduct("Once Only Vinyl", 9999, 10)

	event := &domain.OrderCreatedEvent{
		OrderID: 2,
		Lines: []domain.OrderLineEvent{
			{ProductID: product.ID, Quantity: 4},
		},
	}

	s.Require().NoError(s.Reconciler.HandleOrderCreated(s.Ctx, event))
	s.Require().NoError(s.Reconciler.HandleOrderCreated(s.Ctx, event))
	s.Require().NoError(s.Reconciler.HandleOrderCreated(s.Ctx, event))

	s.Require().Equal(int64(6), s.stockOf(product.ID))
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_ConcurrentDuplicates_Idempotent() {
	product := s.createProduct("Raced Vinyl", 9999, 10)

	event := &domain.OrderCreatedEvent{
		OrderID: 3,
		Lines: []domain.OrderLineEvent{
			{ProductID: product.ID, Quantity: 2},
		},
	}

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Reconciler.HandleOrderCreated(s.Ctx, event)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		s.Require().NoError(err)
	}

	s.Require().Equal(int64(8), s.stockOf(product.ID))
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_ConcurrentOrders_AllApplied() {
	product := s.createProduct("Contended Vinyl", 9999, 100)

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			event := &domain.OrderCreatedEvent{
				OrderID: int64(100 + i),
				Lines: []domain.OrderLineEvent{
					{ProductID: product.ID, Quantity: 5},
				},
			}
			errs[i] = s.Reconciler.HandleOrderCreated(s.Ctx, event)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		s.Require().NoError(err)
	}

	s.Require().Equal(int64(0), s.stockOf(product.ID))
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_InsufficientStock_RecordsFailure() {
	product := s.createProduct("Scarce Vinyl", 9999, 1)

	event := &domain.OrderCreatedEvent{
		OrderID: 4,
		Lines: []domain.OrderLineEvent{
			{ProductID: product.ID, Quantity: 5},
		},
	}

	s.Require().NoError(s.Reconciler.HandleOrderCreated(s.Ctx, event))

	s.Require().Equal(int64(1), s.stockOf(product.ID))

	failures, err := s.ReconRepo.ListFailures(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(failures, 1)
	s.Require().Equal(int64(4), failures[0].OrderID)
	s.Require().Equal(product.ID, failures[0].ProductID)
	s.Require().Equal(int64(5), failures[0].Quantity)
	s.Require().Equal(repository.ErrInsufficientStock.Error(), failures[0].Reason)

	// The rejected line leaves no marker, so a later delivery may retry it.
	applied, err := s.ReconRepo.DecrementApplied(s.Ctx, 4, product.ID)
	s.Require().NoError(err)
	s.Require().False(applied)
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_UnknownProduct_RecordsFailure() {
	event := &domain.OrderCreatedEvent{
		OrderID: 5,
		Lines: []domain.OrderLineEvent{
			{ProductID: 424242, Quantity: 1},
		},
	}

	s.Require().NoError(s.Reconciler.HandleOrderCreated(s.Ctx, event))

	failures, err := s.ReconRepo.ListFailures(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(failures, 1)
	s.Require().Equal(repository.ErrProductNotFound.Error(), failures[0].Reason)
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_PartialFailure_SiblingsApplied() {
	inStock := s.createProduct("Available Vinyl", 9999, 5)

	event := &domain.OrderCreatedEvent{
		OrderID: 6,
		Lines: []domain.OrderLineEvent{
			{ProductID: inStock.ID, Quantity: 2},
			{ProductID: 424242, Quantity: 1},
		},
	}

	s.Require().NoError(s.Reconciler.HandleOrderCreated(s.Ctx, event))

	s.Require().Equal(int64(3), s.stockOf(inStock.ID))

	applied, err := s.ReconRepo.DecrementApplied(s.Ctx, 6, inStock.ID)
	s.Require().NoError(err)
	s.Require().True(applied)

	failures, err := s.ReconRepo.ListFailures(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(failures, 1)
	s.Require().Equal(int64(424242), failures[0].ProductID)
}

func (s *IntegrationTestSuite) TestDecrementStock_Insufficient_Failed() {
	product := s.createProduct("Thin Vinyl", 100, 2)

	err := s.ProductService.DecrementStock(s.Ctx, product.ID, 3)
	s.Require().Error(err)
	s.Require().ErrorIs(err, repository.ErrInsufficientStock)
	s.Require().Equal(int64(2), s.stockOf(product.ID))
}

func (s *IntegrationTestSuite) TestDecrementStock_ExactStock_Success() {
	product := s.createProduct("Exact Vinyl", 100, 2)

	s.Require().NoError(s.ProductService.DecrementStock(s.Ctx, product.ID, 2))
	s.Require().Equal(int64(0), s.stockOf(product.ID))
}
