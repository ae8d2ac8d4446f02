package middleware

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// RecoverPanic turns a panicking handler into a 500 with the failed envelope.
// The panic value is logged, never sent to the client.
func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "middleware RecoverPanic")
		defer span.End()

		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			err := fmt.Errorf("%w: recovered panic=%v", inErrors.ErrInternal, recovered)
			otel.RecordError(err, span)
			zerolog.Ctx(c).Error().
				Err(err).
				Str(log.KeyTag, "middleware RecoverPanic").
				Str(log.KeyRequestMethod, r.Method).
				Str(log.KeyRequestURL, r.URL.Path).
				Stack().
				Msg("recovered from panic")
			inHttp.WriteErrorResponse(c, w, err)
		}()

		next.ServeHTTP(w, r.WithContext(c))
	})
}
