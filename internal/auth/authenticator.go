package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Authenticator resolves the requester from the Authorization bearer token,
// falling back to the session cookie.
type Authenticator struct {
	secretKey string
	sessions  *SessionStore
	denylist  *Denylist
}

func NewAuthenticator(secretKey string, sessions *SessionStore, denylist *Denylist) *Authenticator {
	return &Authenticator{secretKey: secretKey, sessions: sessions, denylist: denylist}
}

func (a *Authenticator) Authenticate(r *http.Request) (Identity, error) {
	c, span := otel.Tracer.Start(r.Context(), "Authenticator Authenticate")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Authenticator Authenticate").Logger()

	var identity Identity
	var err error
	authorization := r.Header.Get(inHttp.KeyHeaderAuthorization)
	if authorization != "" {
		logger = logger.With().Str(log.KeyProcess, "verifying bearer token").Logger()
		logger.Trace().Msg("verifying bearer token")
		scheme, token, found := strings.Cut(authorization, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
			err = fmt.Errorf("malformed authorization header with error=%w", inErrors.ErrTokenInvalid)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Identity{}, err
		}
		identity, err = VerifyToken(c, a.secretKey, token)
		if err != nil {
			return Identity{}, err
		}
		logger.Trace().Msg("verified bearer token")
	} else {
		logger = logger.With().Str(log.KeyProcess, "loading session").Logger()
		logger.Trace().Msg("loading session")
		identity, err = a.sessions.Load(r)
		if err != nil {
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Identity{}, err
		}
		logger.Trace().Msg("loaded session")
	}
	logger = logger.With().
		Str(log.KeyUserID, identity.UserID.String()).
		Str(log.KeyTokenID, identity.TokenID).
		Logger()

	if identity.TokenID != "" {
		revoked, err := a.denylist.IsRevoked(c, identity.TokenID)
		if err != nil {
			return Identity{}, err
		}
		if revoked {
			err = fmt.Errorf("token=%s with error=%w", identity.TokenID, inErrors.ErrTokenRevoked)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Identity{}, err
		}
	}
	logger.Info().Msg("authenticated requester")

	return identity, nil
}

// Logout revokes the token of identity and drops the session cookie.
func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request, identity Identity) error {
	c, span := otel.Tracer.Start(r.Context(), "Authenticator Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Authenticator Logout").
		Str(log.KeyUserID, identity.UserID.String()).
		Logger()

	err := a.denylist.Revoke(c, identity)
	if err != nil {
		otel.RecordError(err, span)
		return err
	}

	err = a.sessions.Clear(w, r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("logged out")

	return nil
}

func (a *Authenticator) StartSession(w http.ResponseWriter, r *http.Request, identity Identity) error {
	return a.sessions.Save(w, r, identity)
}
