package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

const (
	sessionKeyEmail     = "email"
	sessionKeyTokenID   = "tokenId"
	sessionKeyExpiresAt = "expiresAt"
)

// SessionStore persists an Identity in a signed cookie.
type SessionStore struct {
	store sessions.Store
	name  string
}

func NewSessionStore(secretKey string, name string, ttl time.Duration, secure bool) *SessionStore {
	store := sessions.NewCookieStore([]byte(secretKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store, name: name}
}

func (s *SessionStore) Save(w http.ResponseWriter, r *http.Request, identity Identity) error {
	session, err := s.store.Get(r, s.name)
	if err != nil && session == nil {
		return fmt.Errorf("failed getting session with error=%w", err)
	}
	session.Values[constants.SessionKeyUserID] = identity.UserID.String()
	session.Values[sessionKeyEmail] = identity.Email
	session.Values[sessionKeyTokenID] = identity.TokenID
	session.Values[sessionKeyExpiresAt] = identity.ExpiresAt.Unix()
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed saving session with error=%w", err)
	}
	return nil
}

func (s *SessionStore) Load(r *http.Request) (Identity, error) {
	session, err := s.store.Get(r, s.name)
	if err != nil || session == nil || session.IsNew {
		return Identity{}, inErrors.ErrEmptyAuth
	}
	rawUserID, _ := session.Values[constants.SessionKeyUserID].(string)
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return Identity{}, fmt.Errorf("failed parsing session user=%s with error=%w", rawUserID, inErrors.ErrEmptySubject)
	}
	identity := Identity{UserID: userID}
	identity.Email, _ = session.Values[sessionKeyEmail].(string)
	identity.TokenID, _ = session.Values[sessionKeyTokenID].(string)
	if expiresAt, ok := session.Values[sessionKeyExpiresAt].(int64); ok {
		identity.ExpiresAt = time.Unix(expiresAt, 0)
	}
	if !identity.ExpiresAt.IsZero() && time.Now().After(identity.ExpiresAt) {
		return Identity{}, fmt.Errorf("session expired with error=%w", inErrors.ErrTokenInvalid)
	}
	return identity, nil
}

func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := s.store.Get(r, s.name)
	if session == nil {
		return fmt.Errorf("failed getting session with error=%w", err)
	}
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed clearing session with error=%w", err)
	}
	return nil
}
