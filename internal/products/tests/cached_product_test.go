package tests

import (
	"fmt"

	"github.com/PedroFabrino/nameko-devex/internal/products/domain"
	"github.com/PedroFabrino/nameko-devex/internal/products/repository"
)

func (s *IntegrationTestSuite) TestCachedFindByID_PopulatesCache() {
	created := s.createProduct("Cached Vinyl", 9999, 5)
	key := fmt.Sprintf("product:%d", created.ID)

	exists, err := s.RedisClient.Exists(s.Ctx, key).Result()
	s.Require().NoError(err)
	s.Require().Zero(exists)

	found, err := s.CachedProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal(created.ID, found.ID)

	exists, err = s.RedisClient.Exists(s.Ctx, key).Result()
	s.Require().NoError(err)
	s.Require().Equal(int64(1), exists)
}

func (s *IntegrationTestSuite) TestCachedFindByID_ServesStaleUntilInvalidated() {
	created := s.createProduct("Stale Vinyl", 100, 5)

	_, err := s.CachedProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)

	// Update through the uncached service leaves the cache entry behind.
	newPrice := int64(777)
	s.Require().NoError(s.ProductService.Update(s.Ctx, created.ID, &domain.UpdateProductInput{
		Price: &newPrice,
	}))

	cached, err := s.CachedProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal(int64(100), cached.Price)
}

func (s *IntegrationTestSuite) TestCachedUpdate_InvalidatesCache() {
	created := s.createProduct("Refreshed Vinyl", 100, 5)

	_, err := s.CachedProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)

	newPrice := int64(777)
	s.Require().NoError(s.CachedProductService.Update(s.Ctx, created.ID, &domain.UpdateProductInput{
		Price: &newPrice,
	}))

	found, err := s.CachedProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal(int64(777), found.Price)
}

func (s *IntegrationTestSuite) TestCachedDelete_InvalidatesCache() {
	created := s.createProduct("Gone Vinyl", 100, 5)

	_, err := s.CachedProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.CachedProductService.Delete(s.Ctx, created.ID))

	_, err = s.CachedProductService.FindByID(s.Ctx, created.ID)
	s.Require().ErrorIs(err, repository.ErrProductNotFound)
}

func (s *IntegrationTestSuite) TestCachedDecrementStock_InvalidatesCache() {
	created := s.createProduct("Depleting Vinyl", 100, 5)

	_, err := s.CachedProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.CachedProductService.DecrementStock(s.Ctx, created.ID, 2))

	found, err := s.CachedProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal(int64(3), found.StockQuantity)
}
