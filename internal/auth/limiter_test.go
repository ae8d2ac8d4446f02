package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/testhelper"
)

func TestLoginLimiter(t *testing.T) {
	c := testhelper.Context()
	cache, teardown := testhelper.RunRedis(t, c)
	defer teardown()

	limiter := NewLoginLimiter(cache)
	email := "Alice1@Example.com"

	for range MaxLoginAttempts {
		require.NoError(t, limiter.Allow(c, email))
		require.NoError(t, limiter.Fail(c, email))
	}
	err := limiter.Allow(c, "alice1@example.com")
	assert.ErrorIs(t, err, inErrors.ErrTooManyAttempts)
	assert.ErrorIs(t, err, inErrors.ErrTooManyRequests)

	ttl, err := cache.TTL(c, loginAttemptKey(email)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, LoginAttemptWindow)
	assert.Positive(t, ttl)

	require.NoError(t, limiter.Reset(c, email))
	assert.NoError(t, limiter.Allow(c, email))
	assert.NoError(t, limiter.Allow(c, "bob@example.com"))
}

func TestDenylist(t *testing.T) {
	c := testhelper.Context()
	cache, teardown := testhelper.RunRedis(t, c)
	defer teardown()

	denylist := NewDenylist(cache)
	identity := Identity{
		UserID:    uuid.New(),
		TokenID:   uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Minute),
	}

	revoked, err := denylist.IsRevoked(c, identity.TokenID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, denylist.Revoke(c, identity))
	revoked, err = denylist.IsRevoked(c, identity.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	expired := Identity{UserID: uuid.New(), TokenID: uuid.NewString(), ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, denylist.Revoke(c, expired))
	revoked, err = denylist.IsRevoked(c, expired.TokenID)
	require.NoError(t, err)
	assert.False(t, revoked)
}
