package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Auth rejects requests without a valid bearer token or session and attaches
// the resolved identity to the request context.
func Auth(authenticator *auth.Authenticator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware Auth")
			defer span.End()

			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware Auth").Logger()

			identity, err := authenticator.Authenticate(r.WithContext(c))
			if err != nil {
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteErrorResponse(c, w, err)
				return
			}

			logger = logger.With().Str(log.KeyUserID, identity.UserID.String()).Logger()
			c = auth.WithIdentity(logger.WithContext(c), identity)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
