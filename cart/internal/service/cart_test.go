package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/cache"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/notification"
	"github.com/Alturino/storefront/internal/payment"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/testhelper"
)

type gatewayMock struct{ mock.Mock }

func (m *gatewayMock) Charge(c context.Context, charge payment.Charge) (payment.Receipt, error) {
	args := m.Called(c, charge)
	return args.Get(0).(payment.Receipt), args.Error(1)
}

type fixture struct {
	identity auth.Identity
	cart     repository.Cart
	product  repository.Product
}

func newFixture(t *testing.T, c context.Context, queries *repository.Queries, stock int32) fixture {
	t.Helper()
	suffix := uuid.NewString()[:8]

	user, err := queries.InsertUser(c, repository.InsertUserParams{
		Name:        "alice" + suffix,
		Email:       fmt.Sprintf("alice+%s@example.com", suffix),
		Password:    "hashed",
		Address:     "1 Main Street",
		PhoneNumber: "+33 6 12 34 56 78",
	})
	require.NoError(t, err)
	cart, err := queries.InsertCart(c, user.ID)
	require.NoError(t, err)
	product, err := queries.InsertProduct(c, repository.InsertProductParams{
		Name:          "Notebook " + suffix,
		Price:         repository.NumericFromDecimal(decimal.RequireFromString("5.00")),
		StockQuantity: stock,
		Category:      "stationery",
	})
	require.NoError(t, err)

	return fixture{
		identity: auth.Identity{UserID: user.ID, Email: user.Email},
		cart:     cart,
		product:  product,
	}
}

func stockOf(t *testing.T, c context.Context, queries *repository.Queries, productID uuid.UUID) int32 {
	t.Helper()
	product, err := queries.FindProductById(c, productID)
	require.NoError(t, err)
	return product.StockQuantity
}

func newServices(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	redisClient *redis.Client,
	gateway payment.Gateway,
) (*CartService, *CheckoutService) {
	events := NewCartEvents(redisClient)
	carts := NewCartService(pool, queries, events, cache.NewProductCache(redisClient))
	checkout := NewCheckoutService(pool, queries, carts, events, gateway, notification.Noop{}, "eur")
	return carts, checkout
}

func TestCartService(t *testing.T) {
	c := testhelper.Context()
	pool, pgTeardown := testhelper.RunPostgres(t, c)
	defer pgTeardown()
	redisClient, redisTeardown := testhelper.RunRedis(t, c)
	defer redisTeardown()

	queries := repository.New(pool)
	events := NewCartEvents(redisClient)
	productCache := cache.NewProductCache(redisClient)
	cartService, checkoutService := newServices(pool, queries, redisClient, payment.NewSimulator())

	t.Run("add update and checkout", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)

		cart, err := cartService.AddItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 2})
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, "10.00", cart.CartTotalPrice.StringFixed(2))
		assert.EqualValues(t, 8, stockOf(t, c, queries, f.product.ID))

		cart, err = cartService.UpdateItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, "5.00", cart.CartTotalPrice.StringFixed(2))
		assert.EqualValues(t, 1, cart.Items[0].Quantity)
		assert.EqualValues(t, 9, stockOf(t, c, queries, f.product.ID))

		checkout, err := checkoutService.Checkout(c, f.identity, f.cart.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.SimulatedTransactionID, checkout.TransactionID)
		assert.Equal(t, "5.00", checkout.Order.TotalPrice.StringFixed(2))
		assert.Equal(t, "1 Main Street", checkout.Order.ShippingAddress)
		require.Len(t, checkout.Order.OrderDetails, 1)
		assert.EqualValues(t, 1, checkout.Order.OrderDetails[0].Quantity)
		assert.Equal(t, "5.00", checkout.Order.OrderDetails[0].Price.StringFixed(2))

		cart, err = cartService.ShowCart(c, f.identity)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.Equal(t, "0.00", cart.CartTotalPrice.StringFixed(2))
		assert.Equal(t, f.cart.ID, cart.ID)
		assert.EqualValues(t, 9, stockOf(t, c, queries, f.product.ID))
	})

	t.Run("adding the same product twice merges the item", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)

		_, err := cartService.AddItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 1})
		require.NoError(t, err)
		cart, err := cartService.AddItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 3})
		require.NoError(t, err)

		require.Len(t, cart.Items, 1)
		assert.EqualValues(t, 4, cart.Items[0].Quantity)
		assert.Equal(t, "20.00", cart.CartTotalPrice.StringFixed(2))
		assert.EqualValues(t, 6, stockOf(t, c, queries, f.product.ID))
	})

	t.Run("add item rejects invalid input", func(t *testing.T) {
		f := newFixture(t, c, queries, 3)

		tests := []struct {
			name    string
			param   request.CartItem
			wantErr error
		}{
			{
				name:    "zero quantity",
				param:   request.CartItem{ProductID: f.product.ID, Quantity: 0},
				wantErr: inErrors.ErrInvalidQuantity,
			},
			{
				name:    "negative quantity",
				param:   request.CartItem{ProductID: f.product.ID, Quantity: -1},
				wantErr: inErrors.ErrInvalidQuantity,
			},
			{
				name:    "more than stock",
				param:   request.CartItem{ProductID: f.product.ID, Quantity: 4},
				wantErr: inErrors.ErrInsufficientStock,
			},
			{
				name:    "missing product",
				param:   request.CartItem{ProductID: uuid.New(), Quantity: 1},
				wantErr: inErrors.ErrInsufficientStock,
			},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				_, err := cartService.AddItem(c, f.identity, test.param)
				assert.ErrorIs(t, err, test.wantErr)
			})
		}

		cart, err := cartService.ShowCart(c, f.identity)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.Equal(t, "0.00", cart.CartTotalPrice.StringFixed(2))
		assert.EqualValues(t, 3, stockOf(t, c, queries, f.product.ID))
	})

	t.Run("update item", func(t *testing.T) {
		f := newFixture(t, c, queries, 5)
		_, err := cartService.AddItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 2})
		require.NoError(t, err)

		tests := []struct {
			name    string
			param   request.CartItem
			wantErr error
		}{
			{
				name:    "zero quantity",
				param:   request.CartItem{ProductID: f.product.ID, Quantity: 0},
				wantErr: inErrors.ErrInvalidQuantity,
			},
			{
				name:    "product not in cart",
				param:   request.CartItem{ProductID: uuid.New(), Quantity: 1},
				wantErr: inErrors.ErrItemNotFound,
			},
			{
				name:    "increase beyond stock",
				param:   request.CartItem{ProductID: f.product.ID, Quantity: 6},
				wantErr: inErrors.ErrInsufficientStock,
			},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				_, err := cartService.UpdateItem(c, f.identity, test.param)
				assert.ErrorIs(t, err, test.wantErr)
			})
		}
		assert.EqualValues(t, 3, stockOf(t, c, queries, f.product.ID))

		cart, err := cartService.UpdateItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 5})
		require.NoError(t, err)
		assert.Equal(t, "25.00", cart.CartTotalPrice.StringFixed(2))
		assert.EqualValues(t, 0, stockOf(t, c, queries, f.product.ID))

		_, err = cartService.UpdateItem(
			c,
			auth.Identity{UserID: uuid.New()},
			request.CartItem{ProductID: f.product.ID, Quantity: 1},
		)
		assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
	})

	t.Run("remove item restores stock", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		cart, err := cartService.AddItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 4})
		require.NoError(t, err)
		assert.EqualValues(t, 6, stockOf(t, c, queries, f.product.ID))

		err = cartService.RemoveItem(c, f.identity, uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrItemNotFound)

		other := newFixture(t, c, queries, 1)
		err = cartService.RemoveItem(c, other.identity, cart.Items[0].ID)
		assert.ErrorIs(t, err, inErrors.ErrItemNotFound)

		require.NoError(t, cartService.RemoveItem(c, f.identity, cart.Items[0].ID))
		assert.EqualValues(t, 10, stockOf(t, c, queries, f.product.ID))

		cart, err = cartService.ShowCart(c, f.identity)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.Equal(t, "0.00", cart.CartTotalPrice.StringFixed(2))
	})

	t.Run("show cart without a cart fails", func(t *testing.T) {
		_, err := cartService.ShowCart(c, auth.Identity{UserID: uuid.New()})
		assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
	})

	t.Run("recompute total follows current prices", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		_, err := cartService.AddItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 2})
		require.NoError(t, err)

		_, err = queries.UpdateProduct(c, repository.UpdateProductParams{
			ID:            f.product.ID,
			Name:          f.product.Name,
			Price:         repository.NumericFromDecimal(decimal.RequireFromString("7.50")),
			StockQuantity: 8,
			Category:      f.product.Category,
		})
		require.NoError(t, err)

		for range 2 {
			cart, err := cartService.RecomputeTotal(c, f.cart.ID)
			require.NoError(t, err)
			assert.Equal(t, "15.00", cart.CartTotalPrice.StringFixed(2))
		}

		_, err = cartService.RecomputeTotal(c, uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
	})

	t.Run("stock changes drop the cached product", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		item := request.CartItem{ProductID: f.product.ID, Quantity: 2}

		tests := []struct {
			name      string
			mutate    func(t *testing.T)
			wantStock int32
		}{
			{
				name: "add item",
				mutate: func(t *testing.T) {
					_, err := cartService.AddItem(c, f.identity, item)
					require.NoError(t, err)
				},
				wantStock: 8,
			},
			{
				name: "update item",
				mutate: func(t *testing.T) {
					_, err := cartService.UpdateItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 5})
					require.NoError(t, err)
				},
				wantStock: 5,
			},
			{
				name: "remove item",
				mutate: func(t *testing.T) {
					cart, err := cartService.ShowCart(c, f.identity)
					require.NoError(t, err)
					require.Len(t, cart.Items, 1)
					require.NoError(t, cartService.RemoveItem(c, f.identity, cart.Items[0].ID))
				},
				wantStock: 10,
			},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				product, err := queries.FindProductById(c, f.product.ID)
				require.NoError(t, err)
				require.NoError(t, productCache.Set(c, product.Response()))

				test.mutate(t)

				_, hit, err := productCache.Get(c, f.product.ID)
				require.NoError(t, err)
				assert.False(t, hit)
				assert.Equal(t, test.wantStock, stockOf(t, c, queries, f.product.ID))
			})
		}
	})

	t.Run("mutations publish cart events", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		pubsub := events.Subscribe(c, f.identity.UserID)
		defer pubsub.Close()
		_, err := pubsub.Receive(c)
		require.NoError(t, err)

		_, err = cartService.AddItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 1})
		require.NoError(t, err)

		select {
		case msg := <-pubsub.Channel():
			assert.Equal(t, constants.CartEventUpdated, msg.Payload)
		case <-time.After(5 * time.Second):
			t.Fatal("no cart event received")
		}
	})
}

func TestCheckoutService(t *testing.T) {
	c := testhelper.Context()
	pool, pgTeardown := testhelper.RunPostgres(t, c)
	defer pgTeardown()
	redisClient, redisTeardown := testhelper.RunRedis(t, c)
	defer redisTeardown()

	queries := repository.New(pool)
	cartService, checkoutService := newServices(pool, queries, redisClient, payment.NewSimulator())

	t.Run("checkout of someone else's cart is forbidden and changes nothing", func(t *testing.T) {
		owner := newFixture(t, c, queries, 10)
		intruder := newFixture(t, c, queries, 10)
		_, err := cartService.AddItem(c, owner.identity, request.CartItem{ProductID: owner.product.ID, Quantity: 2})
		require.NoError(t, err)

		tests := []struct {
			name   string
			cartID uuid.UUID
		}{
			{name: "other user's cart", cartID: owner.cart.ID},
			{name: "unknown cart", cartID: uuid.New()},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				_, err := checkoutService.Checkout(c, intruder.identity, test.cartID)
				assert.ErrorIs(t, err, inErrors.ErrNotOwner)
				assert.ErrorIs(t, err, inErrors.ErrForbidden)

				cart, err := cartService.ShowCart(c, owner.identity)
				require.NoError(t, err)
				require.Len(t, cart.Items, 1)
				assert.EqualValues(t, 2, cart.Items[0].Quantity)
				assert.Equal(t, "10.00", cart.CartTotalPrice.StringFixed(2))
				assert.EqualValues(t, 8, stockOf(t, c, queries, owner.product.ID))

				for _, identity := range []auth.Identity{owner.identity, intruder.identity} {
					orders, err := queries.FindOrdersByUserId(c, identity.UserID)
					require.NoError(t, err)
					assert.Empty(t, orders)
				}
			})
		}
	})

	t.Run("empty cart checkout creates an empty order", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)

		checkout, err := checkoutService.Checkout(c, f.identity, f.cart.ID)
		require.NoError(t, err)
		assert.Equal(t, "0.00", checkout.Order.TotalPrice.StringFixed(2))
		assert.Empty(t, checkout.Order.OrderDetails)
	})

	t.Run("failed payment keeps the cart", func(t *testing.T) {
		f := newFixture(t, c, queries, 10)
		_, err := cartService.AddItem(c, f.identity, request.CartItem{ProductID: f.product.ID, Quantity: 3})
		require.NoError(t, err)

		gateway := &gatewayMock{}
		gateway.On("Charge", mock.Anything, mock.MatchedBy(func(charge payment.Charge) bool {
			return charge.CartID == f.cart.ID && charge.Amount.StringFixed(2) == "15.00"
		})).Return(payment.Receipt{}, fmt.Errorf("card declined"))
		_, failingCheckout := newServices(pool, queries, redisClient, gateway)

		_, err = failingCheckout.Checkout(c, f.identity, f.cart.ID)
		assert.ErrorIs(t, err, inErrors.ErrPaymentFailed)
		gateway.AssertExpectations(t)

		cart, err := cartService.ShowCart(c, f.identity)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, "15.00", cart.CartTotalPrice.StringFixed(2))
		assert.EqualValues(t, 7, stockOf(t, c, queries, f.product.ID))

		orders, err := queries.FindOrdersByUserId(c, f.identity.UserID)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}
