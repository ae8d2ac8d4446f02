package service

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/Alturino/storefront/internal/cache"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/testhelper"
	"github.com/Alturino/storefront/product/pkg/request"
)

func TestProductService(t *testing.T) {
	c := testhelper.Context()
	pool, pgTeardown := testhelper.RunPostgres(t, c)
	defer pgTeardown()
	redisClient, redisTeardown := testhelper.RunRedis(t, c)
	defer redisTeardown()

	queries := repository.New(pool)
	productService := NewProductService(pool, queries, cache.NewProductCache(redisClient))

	book, err := productService.InsertProduct(c, request.Product{
		Name:          "Go in Action",
		Description:   "a book",
		Price:         decimal.RequireFromString("5.00"),
		StockQuantity: 10,
		Category:      "books",
	})
	require.NoError(t, err)
	lamp, err := productService.InsertProduct(c, request.Product{
		Name:          "Desk Lamp",
		Price:         decimal.RequireFromString("19.99"),
		StockQuantity: 3,
		Category:      "home",
	})
	require.NoError(t, err)

	t.Run("find products filters by category", func(t *testing.T) {
		tests := []struct {
			category string
			want     int
		}{
			{category: "", want: 2},
			{category: "books", want: 1},
			{category: "garden", want: 0},
		}
		for _, test := range tests {
			products, err := productService.FindProducts(c, request.FindProducts{Category: test.category})
			require.NoError(t, err)
			assert.Len(t, products, test.want, "category=%s", test.category)
		}
	})

	t.Run("find product by id reads through the cache", func(t *testing.T) {
		cacheKey := fmt.Sprintf(constants.CacheKeyProduct, book.ID.String())

		product, err := productService.FindProductById(c, book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Go in Action", product.Name)
		assert.Equal(t, "5.00", product.Price.StringFixed(2))

		exists, err := redisClient.Exists(c, cacheKey).Result()
		require.NoError(t, err)
		assert.EqualValues(t, 1, exists)

		cached, err := productService.FindProductById(c, book.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, cached.ID)
		assert.Equal(t, product.StockQuantity, cached.StockQuantity)
	})

	t.Run("find missing product fails", func(t *testing.T) {
		_, err := productService.FindProductById(c, uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
	})

	t.Run("update product invalidates the cache", func(t *testing.T) {
		updated, err := productService.UpdateProduct(c, book.ID, request.Product{
			Name:          "Go in Action 2nd",
			Price:         decimal.RequireFromString("6.50"),
			StockQuantity: 12,
			Category:      "books",
		})
		require.NoError(t, err)
		assert.Equal(t, "6.50", updated.Price.StringFixed(2))

		product, err := productService.FindProductById(c, book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Go in Action 2nd", product.Name)
		assert.EqualValues(t, 12, product.StockQuantity)

		_, err = productService.UpdateProduct(c, uuid.New(), request.Product{Name: "ghost"})
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
	})

	t.Run("export products writes one row per product", func(t *testing.T) {
		file, err := productService.ExportProducts(c, request.FindProducts{})
		require.NoError(t, err)

		var buffer bytes.Buffer
		require.NoError(t, file.Write(&buffer))
		opened, err := xlsx.OpenReaderAt(bytes.NewReader(buffer.Bytes()), int64(buffer.Len()))
		require.NoError(t, err)
		require.Len(t, opened.Sheets, 1)
		assert.Equal(t, 3, opened.Sheets[0].MaxRow)
		assert.Equal(t, "Name", opened.Sheets[0].Rows[0].Cells[1].String())
	})

	t.Run("delete product referenced by an order detail fails", func(t *testing.T) {
		user, err := queries.InsertUser(c, repository.InsertUserParams{
			Name:        "alice1",
			Email:       "a@x.com",
			Password:    "hash",
			Address:     "1 Main St",
			PhoneNumber: "555-1234",
		})
		require.NoError(t, err)
		order, err := queries.InsertOrder(c, repository.InsertOrderParams{
			UserID:          user.ID,
			TotalPrice:      repository.NumericFromDecimal(decimal.RequireFromString("6.50")),
			ShippingAddress: user.Address,
		})
		require.NoError(t, err)
		_, err = queries.InsertOrderDetail(c, repository.InsertOrderDetailParams{
			OrderID:   order.ID,
			ProductID: book.ID,
			Quantity:  1,
			Price:     repository.NumericFromDecimal(decimal.RequireFromString("6.50")),
		})
		require.NoError(t, err)

		err = productService.DeleteProduct(c, book.ID)
		assert.ErrorIs(t, err, inErrors.ErrProductReferenced)
		assert.ErrorIs(t, err, inErrors.ErrConflict)

		_, err = productService.FindProductById(c, book.ID)
		assert.NoError(t, err)
	})

	t.Run("delete unreferenced product", func(t *testing.T) {
		require.NoError(t, productService.DeleteProduct(c, lamp.ID))

		_, err := productService.FindProductById(c, lamp.ID)
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)

		err = productService.DeleteProduct(c, lamp.ID)
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
	})
}
