package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ProductCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewProductCache(client *redis.Client) *ProductCache {
	return &ProductCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (r *ProductCache) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &p, nil
}

func (r *ProductCache) Set(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(p.ID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *ProductCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s", id)
}
