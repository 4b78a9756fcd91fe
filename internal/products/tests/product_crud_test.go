package tests

import (
	"github.com/PedroFabrino/nameko-devex/internal/products/domain"
	"github.com/PedroFabrino/nameko-devex/internal/products/repository"
)

func (s *IntegrationTestSuite) TestCreateProduct_Success() {
	product := s.createProduct("A Great Chaos Vinyl", 9999, 5)

	var dbName string
	var dbPrice, dbStock int64

	err := s.DbPool.QueryRow(
		s.Ctx,
		`SELECT name, price, stock_quantity FROM products WHERE id = $1`,
		product.ID,
	).Scan(&dbName, &dbPrice, &dbStock)
	s.Require().NoError(err)
	s.Require().Equal(product.Name, dbName)
	s.Require().Equal(product.Price, dbPrice)
	s.Require().Equal(product.StockQuantity, dbStock)
}

func (s *IntegrationTestSuite) TestCreateProductUnique_Failed() {
	s.createProduct("Unique Vinyl", 9999, 5)

	dup := &domain.Product{
		Name:          "Unique Vinyl",
		Price:         100,
		StockQuantity: 1,
	}
	id, err := s.ProductService.Create(s.Ctx, dup)
	s.Require().Error(err)
	s.Require().Zero(id)
}

func (s *IntegrationTestSuite) TestFindByID_Success() {
	created := s.createProduct("Find Me", 500, 3)

	found, err := s.ProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal(created.ID, found.ID)
	s.Require().Equal(created.Name, found.Name)
	s.Require().Equal(int64(3), found.StockQuantity)
}

func (s *IntegrationTestSuite) TestFindByID_NotFound() {
	found, err := s.ProductService.FindByID(s.Ctx, 999999)
	s.Require().Error(err)
	s.Require().ErrorIs(err, repository.ErrProductNotFound)
	s.Require().Nil(found)
}

func (s *IntegrationTestSuite) TestListProducts_Pagination() {
	s.createProduct("Vinyl One", 100, 1)
	s.createProduct("Vinyl Two", 200, 2)
	s.createProduct("Cassette", 300, 3)

	products, total, err := s.ProductService.List(s.Ctx, 2, 0, "")
	s.Require().NoError(err)
	s.Require().Len(products, 2)
	s.Require().Equal(int64(3), total)

	products, total, err = s.ProductService.List(s.Ctx, 2, 2, "")
	s.Require().NoError(err)
	s.Require().Len(products, 1)
	s.Require().Equal(int64(3), total)
}

func (s *IntegrationTestSuite) TestListProducts_Search() {
	s.createProduct("Vinyl One", 100, 1)
	s.createProduct("Vinyl Two", 200, 2)
	s.createProduct("Cassette", 300, 3)

	products, total, err := s.ProductService.List(s.Ctx, 10, 0, "vinyl")
	s.Require().NoError(err)
	s.Require().Len(products, 2)
	s.Require().Equal(int64(2), total)
}

func (s *IntegrationTestSuite) TestUpdateProduct_Partial() {
	created := s.createProduct("Before", 100, 10)

	newName := "After"
	newPrice := int64(250)
	err := s.ProductService.Update(s.Ctx, created.ID, &domain.UpdateProductInput{
		Name:  &newName,
		Price: &newPrice,
	})
	s.Require().NoError(err)

	updated, err := s.ProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal("After", updated.Name)
	s.Require().Equal(int64(250), updated.Price)
	s.Require().Equal(int64(10), updated.StockQuantity)
}

func (s *IntegrationTestSuite) TestUpdateProduct_NotFound() {
	name := "Nope"
	err := s.ProductService.Update(s.Ctx, 999999, &domain.UpdateProductInput{Name: &name})
	s.Require().Error(err)
	s.Require().ErrorIs(err, repository.ErrProductNotFound)
}

func (s *IntegrationTestSuite) TestDeleteProduct_Success() {
	created := s.createProduct("Doomed", 100, 1)

	s.Require().NoError(s.ProductService.Delete(s.Ctx, created.ID))

	_, err := s.ProductService.FindByID(s.Ctx, created.ID)
	s.Require().ErrorIs(err, repository.ErrProductNotFound)
}

func (s *IntegrationTestSuite) TestDeleteProduct_NotFound() {
	err := s.ProductService.Delete(s.Ctx, 999999)
	s.Require().Error(err)
	s.Require().ErrorIs(err, repository.ErrProductNotFound)
}
