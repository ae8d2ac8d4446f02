package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

// Identity is the authenticated requester, resolved from a bearer token or
// from the session cookie.
type Identity struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	TokenID   string    `json:"tokenId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type identityKey struct{}

func WithIdentity(c context.Context, identity Identity) context.Context {
	return context.WithValue(c, identityKey{}, identity)
}

func IdentityFromContext(c context.Context) (Identity, error) {
	identity, ok := c.Value(identityKey{}).(Identity)
	if !ok || identity.UserID == uuid.Nil {
		return Identity{}, inErrors.ErrEmptyAuth
	}
	return identity, nil
}

// Authorize fails with errors.ErrNotOwner unless requester owns the resource
// of ownerID.
func Authorize(requester Identity, ownerID uuid.UUID) error {
	if requester.UserID == uuid.Nil || requester.UserID != ownerID {
		return fmt.Errorf(
			"requester=%s is not owner=%s with error=%w",
			requester.UserID,
			ownerID,
			inErrors.ErrNotOwner,
		)
	}
	return nil
}
