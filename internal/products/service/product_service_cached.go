package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PedroFabrino/nameko-devex/internal/products/domain"
	"github.com/redis/go-redis/v9"
)

type cachedProductService struct {
	next        ProductService
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedProductService(next ProductService, redisClient *redis.Client) ProductService {
	return &cachedProductService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    time.Minute * 10,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (s *cachedProductService) Create(ctx context.Context, product *domain.Product) (int64, error) {
	return s.next.Create(ctx, product)
}

func (s *cachedProductService) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := cacheKey(id)

	val, err := s.redisClient.Get(ctx, key).Result()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal([]byte(val), &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		s.redisClient.Set(ctx, key, data, s.cacheTTL)
	}

	return product, nil
}

func (s *cachedProductService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	return s.next.List(ctx, limit, offset, search)
}

func (s *cachedProductService) Update(ctx context.Context, id int64, input *domain.UpdateProductInput) error {
	if err := s.next.Update(ctx, id, input); err != nil {
		return err
	}

	s.redisClient.Del(ctx, cacheKey(id))
	return nil
}

func (s *cachedProductService) Delete(ctx context.Context, id int64) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}

	s.redisClient.Del(ctx, cacheKey(id))
	return nil
}

func (s *cachedProductService) DecrementStock(ctx context.Context, id, quantity int64) error {
	if err := s.next.DecrementStock(ctx, id, quantity); err != nil {
		return err
	}

	s.redisClient.Del(ctx, cacheKey(id))
	return nil
}
