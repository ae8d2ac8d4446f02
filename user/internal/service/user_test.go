package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/testhelper"
	"github.com/Alturino/storefront/user/pkg/request"
)

type (
	setupFunc    func(context.Context) (*UserService, *repository.Queries)
	teardownFunc func()
)

func setup(t *testing.T, teardowns *[]testhelper.TeardownFunc) setupFunc {
	return func(c context.Context) (*UserService, *repository.Queries) {
		pool, pgTeardown := testhelper.RunPostgres(t, c)
		cache, redisTeardown := testhelper.RunRedis(t, c)
		*teardowns = append(*teardowns, pgTeardown, redisTeardown)

		queries := repository.New(pool)
		userService := NewUserService(pool, queries, auth.NewLoginLimiter(cache), config.Application{
			SecretKey: "test-secret-key",
			TokenTTL:  30 * time.Minute,
		})
		return userService, queries
	}
}

func teardown(teardowns []testhelper.TeardownFunc) teardownFunc {
	return func() {
		for _, f := range teardowns {
			f()
		}
	}
}

func alice() request.Register {
	return request.Register{
		Name:        "alice1",
		Email:       "a@x.com",
		Password:    "secret",
		Address:     "1 Main St",
		PhoneNumber: "555-1234",
	}
}

func TestUserService(t *testing.T) {
	c := testhelper.Context()
	teardowns := []testhelper.TeardownFunc{}
	userService, queries := setup(t, &teardowns)(c)
	defer teardown(teardowns)()

	registered, err := userService.Register(c, alice())
	require.NoError(t, err)
	assert.Equal(t, "alice1", registered.User.Name)

	t.Run("register creates an empty cart", func(t *testing.T) {
		cart, err := queries.FindCartByUserId(c, registered.User.ID)
		require.NoError(t, err)
		assert.Equal(t, registered.CartID, cart.ID)
		assert.Equal(t, "0.00", repository.DecimalFromNumeric(cart.TotalPrice).StringFixed(2))
	})

	t.Run("register stores a bcrypt hash", func(t *testing.T) {
		user, err := queries.FindUserByEmail(c, "a@x.com")
		require.NoError(t, err)
		assert.NotEqual(t, "secret", user.Password)
		assert.NotEmpty(t, user.Password)
	})

	t.Run("register with duplicate email fails", func(t *testing.T) {
		_, err := userService.Register(c, alice())
		assert.ErrorIs(t, err, inErrors.ErrEmailExists)
		assert.Equal(t, "User already exists.", inErrors.Message(err))
	})

	t.Run("login with valid credentials issues a token", func(t *testing.T) {
		login, identity, err := userService.Login(c, request.Login{Email: "a@x.com", Password: "secret"})
		require.NoError(t, err)
		assert.NotEmpty(t, login.Token)
		assert.Equal(t, registered.User.ID, identity.UserID)

		verified, err := auth.VerifyToken(c, "test-secret-key", login.Token)
		require.NoError(t, err)
		assert.Equal(t, identity.TokenID, verified.TokenID)
	})

	t.Run("login with wrong password or unknown email fails", func(t *testing.T) {
		tests := []request.Login{
			{Email: "a@x.com", Password: "wrong"},
			{Email: "nobody@x.com", Password: "secret"},
		}
		for _, test := range tests {
			_, _, err := userService.Login(c, test)
			assert.ErrorIs(t, err, inErrors.ErrAuthenticationFailed)
			assert.ErrorIs(t, err, inErrors.ErrUnauthorized)
		}
	})

	t.Run("login is limited after repeated failures", func(t *testing.T) {
		for range auth.MaxLoginAttempts {
			_, _, _ = userService.Login(c, request.Login{Email: "limited@x.com", Password: "wrong"})
		}
		_, _, err := userService.Login(c, request.Login{Email: "limited@x.com", Password: "wrong"})
		assert.ErrorIs(t, err, inErrors.ErrTooManyAttempts)
	})

	owner := auth.Identity{UserID: registered.User.ID}
	stranger := auth.Identity{UserID: uuid.New()}

	t.Run("other users are forbidden", func(t *testing.T) {
		_, err := userService.FindUserById(c, stranger, registered.User.ID)
		assert.ErrorIs(t, err, inErrors.ErrForbidden)

		_, err = userService.UpdateUser(c, stranger, registered.User.ID, request.UpdateUser(alice()))
		assert.ErrorIs(t, err, inErrors.ErrForbidden)

		err = userService.DeleteUser(c, stranger, registered.User.ID)
		assert.ErrorIs(t, err, inErrors.ErrForbidden)
	})

	t.Run("owner updates the account and the new password works", func(t *testing.T) {
		update := request.UpdateUser(alice())
		update.Address = "2 Side St"
		update.Password = "changed"
		user, err := userService.UpdateUser(c, owner, registered.User.ID, update)
		require.NoError(t, err)
		assert.Equal(t, "2 Side St", user.Address)

		_, _, err = userService.Login(c, request.Login{Email: "a@x.com", Password: "changed"})
		assert.NoError(t, err)
	})

	t.Run("owner deletes the account", func(t *testing.T) {
		require.NoError(t, userService.DeleteUser(c, owner, registered.User.ID))

		_, err := userService.FindUserById(c, owner, registered.User.ID)
		assert.ErrorIs(t, err, inErrors.ErrUserNotFound)

		err = userService.DeleteUser(c, owner, registered.User.ID)
		assert.ErrorIs(t, err, inErrors.ErrUserNotFound)
	})
}
