package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func setupTestRedis(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewProductCache(client), mr
}

func TestProductCache_SetGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	p := &models.Product{ID: uuid.New(), Name: "tea", Price: decimal.NewFromInt(50000), Stock: 3}
	require.NoError(t, c.Set(ctx, p))

	ttl := mr.TTL(cacheKey(p.ID))
	assert.True(t, ttl >= 15*time.Minute)
	assert.True(t, ttl < 20*time.Minute)

	got, err := c.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.Price.Equal(got.Price))
	assert.Equal(t, 3, got.Stock)
}

func TestProductCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	got, err := c.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestProductCache_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	id := uuid.New()
	require.NoError(t, mr.Set(cacheKey(id), "{broken"))

	_, err := c.Get(context.Background(), id)
	require.ErrorContains(t, err, "unmarshal product failed")
}

func TestProductCache_Delete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	p := &models.Product{ID: uuid.New(), Name: "tea"}
	require.NoError(t, c.Set(ctx, p))
	require.NoError(t, c.Delete(ctx, p.ID))
	assert.False(t, mr.Exists(cacheKey(p.ID)))

	assert.NoError(t, c.Delete(ctx, uuid.New()))
}
