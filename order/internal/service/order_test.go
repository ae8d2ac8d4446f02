package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/cache"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/testhelper"
	"github.com/Alturino/storefront/order/pkg/request"
)

type fixture struct {
	identity auth.Identity
	product  repository.Product
	order    repository.Order
	detail   repository.OrderDetail
}

// newFixture seeds a user owning one order of 2 units at 5.00 each, with
// stock units left for the product.
func newFixture(t *testing.T, c context.Context, queries *repository.Queries, stock int32) fixture {
	t.Helper()
	suffix := uuid.NewString()[:8]

	user, err := queries.InsertUser(c, repository.InsertUserParams{
		Name:        "bob" + suffix,
		Email:       fmt.Sprintf("bob+%s@example.com", suffix),
		Password:    "hashed",
		Address:     "2 Side Street",
		PhoneNumber: "555-1234",
	})
	require.NoError(t, err)
	product, err := queries.InsertProduct(c, repository.InsertProductParams{
		Name:          "Pen " + suffix,
		Price:         repository.NumericFromDecimal(decimal.RequireFromString("5.00")),
		StockQuantity: stock,
		Category:      "stationery",
	})
	require.NoError(t, err)
	order, err := queries.InsertOrder(c, repository.InsertOrderParams{
		UserID:          user.ID,
		TotalPrice:      repository.NumericFromDecimal(decimal.RequireFromString("10.00")),
		ShippingAddress: user.Address,
	})
	require.NoError(t, err)
	detail, err := queries.InsertOrderDetail(c, repository.InsertOrderDetailParams{
		OrderID:   order.ID,
		ProductID: product.ID,
		Quantity:  2,
		Price:     repository.NumericFromDecimal(decimal.RequireFromString("10.00")),
	})
	require.NoError(t, err)

	return fixture{
		identity: auth.Identity{UserID: user.ID, Email: user.Email},
		product:  product,
		order:    order,
		detail:   detail,
	}
}

func TestRescale(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		current int32
		updated int32
		want    string
	}{
		{name: "double", price: "10.00", current: 2, updated: 4, want: "20.00"},
		{name: "halve", price: "10.00", current: 2, updated: 1, want: "5.00"},
		{name: "empty", price: "10.00", current: 2, updated: 0, want: "0.00"},
		{name: "rounds to cents", price: "10.00", current: 3, updated: 1, want: "3.33"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Rescale(decimal.RequireFromString(test.price), test.current, test.updated)
			assert.Equal(t, test.want, got.StringFixed(2))
		})
	}
}

func TestOrderService(t *testing.T) {
	c := testhelper.Context()
	pool, pgTeardown := testhelper.RunPostgres(t, c)
	defer pgTeardown()
	redisClient, redisTeardown := testhelper.RunRedis(t, c)
	defer redisTeardown()

	queries := repository.New(pool)
	productCache := cache.NewProductCache(redisClient)
	orderService := NewOrderService(pool, queries, productCache)

	orderState := func(t *testing.T, f fixture) (total string, quantity int32, price string, stock int32) {
		t.Helper()
		order, err := orderService.FindOrderById(c, f.identity, f.order.ID)
		require.NoError(t, err)
		product, err := queries.FindProductById(c, f.product.ID)
		require.NoError(t, err)
		total = order.TotalPrice.StringFixed(2)
		for _, detail := range order.OrderDetails {
			if detail.ID == f.detail.ID {
				quantity, price = detail.Quantity, detail.Price.StringFixed(2)
			}
		}
		return total, quantity, price, product.StockQuantity
	}

	t.Run("find orders is scoped to the owner", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		other := newFixture(t, c, queries, 10)

		orders, err := orderService.FindOrders(c, f.identity)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, f.order.ID, orders[0].ID)

		order, err := orderService.FindOrderById(c, f.identity, f.order.ID)
		require.NoError(t, err)
		require.Len(t, order.OrderDetails, 1)

		_, err = orderService.FindOrderById(c, f.identity, other.order.ID)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)
	})

	t.Run("create order prices lines at the current price", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)

		order, err := orderService.CreateOrder(c, f.identity, request.CreateOrder{
			TotalPrice:      decimal.RequireFromString("15.00"),
			ShippingAddress: "3 Market Road",
			OrderDetails: []request.OrderDetail{
				{ProductID: f.product.ID, Quantity: 3},
				{ProductID: uuid.New(), Quantity: 1},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "15.00", order.TotalPrice.StringFixed(2))
		assert.Equal(t, "3 Market Road", order.ShippingAddress)
		require.Len(t, order.OrderDetails, 1)
		assert.Equal(t, "15.00", order.OrderDetails[0].Price.StringFixed(2))
	})

	t.Run("update order detail quantity", func(t *testing.T) {
		tests := []struct {
			name      string
			stock     int32
			delta     int32
			wantErr   error
			wantTotal string
			wantQty   int32
			wantPrice string
			wantStock int32
		}{
			{
				name:      "increase",
				stock:     10,
				delta:     2,
				wantTotal: "20.00",
				wantQty:   4,
				wantPrice: "20.00",
				wantStock: 8,
			},
			{
				name:      "decrease",
				stock:     10,
				delta:     -1,
				wantTotal: "5.00",
				wantQty:   1,
				wantPrice: "5.00",
				wantStock: 11,
			},
			{
				name:      "negative result leaves everything unchanged",
				stock:     10,
				delta:     -3,
				wantErr:   inErrors.ErrNegativeQuantity,
				wantTotal: "10.00",
				wantQty:   2,
				wantPrice: "10.00",
				wantStock: 10,
			},
			{
				name:      "quantity overflow is rejected",
				stock:     10,
				delta:     math.MaxInt32,
				wantErr:   inErrors.ErrInvalidQuantity,
				wantTotal: "10.00",
				wantQty:   2,
				wantPrice: "10.00",
				wantStock: 10,
			},
			{
				name:      "increase beyond stock",
				stock:     1,
				delta:     2,
				wantErr:   inErrors.ErrInsufficientStock,
				wantTotal: "10.00",
				wantQty:   2,
				wantPrice: "10.00",
				wantStock: 1,
			},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				f := newFixture(t, c, queries, test.stock)

				err := orderService.UpdateOrderDetailQuantity(c, f.identity, f.order.ID, f.detail.ID, test.delta)
				if test.wantErr != nil {
					assert.ErrorIs(t, err, test.wantErr)
				} else {
					require.NoError(t, err)
				}

				total, quantity, price, stock := orderState(t, f)
				assert.Equal(t, test.wantTotal, total)
				assert.Equal(t, test.wantQty, quantity)
				assert.Equal(t, test.wantPrice, price)
				assert.Equal(t, test.wantStock, stock)
			})
		}
	})

	t.Run("update order detail drops the cached product", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		require.NoError(t, productCache.Set(c, f.product.Response()))

		require.NoError(t, orderService.UpdateOrderDetailQuantity(c, f.identity, f.order.ID, f.detail.ID, 2))

		_, hit, err := productCache.Get(c, f.product.ID)
		require.NoError(t, err)
		assert.False(t, hit)
		_, _, _, stock := orderState(t, f)
		assert.EqualValues(t, 8, stock)
	})

	t.Run("update order detail of a zero quantity line conflicts", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		_, err := queries.UpdateOrderDetail(c, repository.UpdateOrderDetailParams{
			ID:       f.detail.ID,
			Quantity: 0,
			Price:    repository.NumericFromDecimal(decimal.Zero),
		})
		require.NoError(t, err)

		err = orderService.UpdateOrderDetailQuantity(c, f.identity, f.order.ID, f.detail.ID, 1)
		assert.ErrorIs(t, err, inErrors.ErrDivisionByZero)
		assert.ErrorIs(t, err, inErrors.ErrConflict)
	})

	t.Run("update order detail not owned", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		other := newFixture(t, c, queries, 10)

		err := orderService.UpdateOrderDetailQuantity(c, other.identity, f.order.ID, f.detail.ID, 1)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)

		err = orderService.UpdateOrderDetailQuantity(c, f.identity, f.order.ID, other.detail.ID, 1)
		assert.ErrorIs(t, err, inErrors.ErrOrderDetailNotFound)
	})

	t.Run("remove order detail quantity", func(t *testing.T) {
		tests := []struct {
			name      string
			amount    int32
			wantErr   error
			wantTotal string
			wantQty   int32
			wantPrice string
		}{
			{name: "partial", amount: 1, wantTotal: "5.00", wantQty: 1, wantPrice: "5.00"},
			{name: "all of it", amount: 2, wantTotal: "0.00", wantQty: 0, wantPrice: ""},
			{name: "zero", amount: 0, wantErr: inErrors.ErrInvalidAmount, wantTotal: "10.00", wantQty: 2, wantPrice: "10.00"},
			{name: "too many", amount: 3, wantErr: inErrors.ErrInvalidAmount, wantTotal: "10.00", wantQty: 2, wantPrice: "10.00"},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				f := newFixture(t, c, queries, 10)

				err := orderService.RemoveOrderDetailQuantity(c, f.identity, f.order.ID, f.detail.ID, test.amount)
				if test.wantErr != nil {
					assert.ErrorIs(t, err, test.wantErr)
				} else {
					require.NoError(t, err)
				}

				total, quantity, price, stock := orderState(t, f)
				assert.Equal(t, test.wantTotal, total)
				assert.Equal(t, test.wantQty, quantity)
				assert.Equal(t, test.wantPrice, price)
				assert.EqualValues(t, 10, stock)
			})
		}
	})

	t.Run("delete order", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		other := newFixture(t, c, queries, 10)

		err := orderService.DeleteOrder(c, other.identity, f.order.ID)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)

		require.NoError(t, orderService.DeleteOrder(c, f.identity, f.order.ID))
		_, err = orderService.FindOrderById(c, f.identity, f.order.ID)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)

		err = orderService.DeleteOrder(c, f.identity, f.order.ID)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)
	})
}
