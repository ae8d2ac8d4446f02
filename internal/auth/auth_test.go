package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

const testSecret = "test-secret-key"

func TestAuthorize(t *testing.T) {
	owner := uuid.New()
	tests := []struct {
		name      string
		requester Identity
		ownerID   uuid.UUID
		wantErr   error
	}{
		{
			name:      "owner is authorized",
			requester: Identity{UserID: owner},
			ownerID:   owner,
		},
		{
			name:      "other user is forbidden",
			requester: Identity{UserID: uuid.New()},
			ownerID:   owner,
			wantErr:   inErrors.ErrNotOwner,
		},
		{
			name:      "anonymous requester is forbidden",
			requester: Identity{},
			ownerID:   owner,
			wantErr:   inErrors.ErrForbidden,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Authorize(test.requester, test.ownerID)
			if test.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, test.wantErr)
		})
	}
}

func TestIdentityFromContext(t *testing.T) {
	_, err := IdentityFromContext(context.Background())
	assert.ErrorIs(t, err, inErrors.ErrEmptyAuth)

	want := Identity{UserID: uuid.New(), Email: "alice1@example.com"}
	got, err := IdentityFromContext(WithIdentity(context.Background(), want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestIssueAndVerifyToken(t *testing.T) {
	c := context.Background()
	userID := uuid.New()

	token, issued, err := IssueToken(c, testSecret, 30*time.Minute, userID, "alice1@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, issued.TokenID)

	verified, err := VerifyToken(c, testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, userID, verified.UserID)
	assert.Equal(t, "alice1@example.com", verified.Email)
	assert.Equal(t, issued.TokenID, verified.TokenID)
	assert.WithinDuration(t, issued.ExpiresAt, verified.ExpiresAt, time.Second)
}

func TestVerifyTokenRejects(t *testing.T) {
	c := context.Background()
	userID := uuid.New()

	wrongKey, _, err := IssueToken(c, "another-secret", time.Minute, userID, "bob@example.com")
	require.NoError(t, err)

	expired, _, err := IssueToken(c, testSecret, -time.Minute, userID, "bob@example.com")
	require.NoError(t, err)

	wrongAudience, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{"somebody-else"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "signed with another key", token: wrongKey},
		{name: "expired", token: expired},
		{name: "wrong audience", token: wrongAudience},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := VerifyToken(c, testSecret, test.token)
			assert.ErrorIs(t, err, inErrors.ErrTokenInvalid)
			assert.ErrorIs(t, err, inErrors.ErrUnauthorized)
		})
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewSessionStore(testSecret, "storefront-session", 30*time.Minute, false)
	identity := Identity{
		UserID:    uuid.New(),
		Email:     "alice1@example.com",
		TokenID:   uuid.NewString(),
		ExpiresAt: time.Now().Add(30 * time.Minute).Truncate(time.Second),
	}

	recorder := httptest.NewRecorder()
	err := store.Save(recorder, httptest.NewRequest(http.MethodPost, "/users/login", nil), identity)
	require.NoError(t, err)
	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)

	r := httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.AddCookie(cookies[0])
	loaded, err := store.Load(r)
	require.NoError(t, err)
	assert.Equal(t, identity.UserID, loaded.UserID)
	assert.Equal(t, identity.Email, loaded.Email)
	assert.Equal(t, identity.TokenID, loaded.TokenID)
	assert.True(t, identity.ExpiresAt.Equal(loaded.ExpiresAt))

	cleared := httptest.NewRecorder()
	require.NoError(t, store.Clear(cleared, r))
	clearedCookies := cleared.Result().Cookies()
	require.Len(t, clearedCookies, 1)
	assert.Negative(t, clearedCookies[0].MaxAge)
}

func TestSessionStoreLoadWithoutCookie(t *testing.T) {
	store := NewSessionStore(testSecret, "storefront-session", time.Minute, false)
	_, err := store.Load(httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.ErrorIs(t, err, inErrors.ErrEmptyAuth)
}
