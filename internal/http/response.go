package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WriteJsonResponse").Logger()

	w.Header().Set(KeyHeaderContentType, ValueHeaderApplicationJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"]; ok {
		w.WriteHeader(v.(int))
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}

func WriteNoContent(c context.Context, w http.ResponseWriter) {
	_, span := otel.Tracer.Start(c, "WriteNoContent")
	defer span.End()

	w.WriteHeader(http.StatusNoContent)
}

// WriteErrorResponse writes the failed envelope with the status matching the
// kind of err.
func WriteErrorResponse(c context.Context, w http.ResponseWriter, err error) {
	WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "failed",
		"statusCode": StatusCode(err),
		"message":    inErrors.Message(err),
	})
}

func StatusCode(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrValidation), errors.Is(err, inErrors.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, inErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
