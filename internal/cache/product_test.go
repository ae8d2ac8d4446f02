package cache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/testhelper"
	"github.com/Alturino/storefront/product/pkg/response"
)

func TestProductCache(t *testing.T) {
	c := testhelper.Context()
	redisClient, redisTeardown := testhelper.RunRedis(t, c)
	defer redisTeardown()

	productCache := NewProductCache(redisClient)
	newProduct := func(stock int32) response.Product {
		return response.Product{
			ID:            uuid.New(),
			Name:          "Notebook",
			Price:         decimal.RequireFromString("5.00"),
			StockQuantity: stock,
			Category:      "stationery",
		}
	}

	t.Run("miss on unknown product", func(t *testing.T) {
		_, hit, err := productCache.Get(c, uuid.New())
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("set then get", func(t *testing.T) {
		product := newProduct(10)
		require.NoError(t, productCache.Set(c, product))

		cached, hit, err := productCache.Get(c, product.ID)
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, product.StockQuantity, cached.StockQuantity)
		assert.Equal(t, "5.00", cached.Price.StringFixed(2))

		ttl, err := redisClient.TTL(c, productKey(product.ID)).Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)
	})

	t.Run("invalidate drops every given product", func(t *testing.T) {
		first, second, kept := newProduct(1), newProduct(2), newProduct(3)
		for _, product := range []response.Product{first, second, kept} {
			require.NoError(t, productCache.Set(c, product))
		}

		productCache.Invalidate(c, first.ID, second.ID)

		for _, id := range []uuid.UUID{first.ID, second.ID} {
			_, hit, err := productCache.Get(c, id)
			require.NoError(t, err)
			assert.False(t, hit)
		}
		_, hit, err := productCache.Get(c, kept.ID)
		require.NoError(t, err)
		assert.True(t, hit)
	})

	t.Run("undecodable entry is a miss with an error", func(t *testing.T) {
		id := uuid.New()
		require.NoError(t, redisClient.Set(c, productKey(id), "not json", 0).Err())

		_, hit, err := productCache.Get(c, id)
		assert.Error(t, err)
		assert.False(t, hit)
	})
}
