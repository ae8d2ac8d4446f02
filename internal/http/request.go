package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/validate"
)

// DecodeAndValidate decodes the json body of r into dst and validates it.
// Both failures unwrap to errors.ErrValidation.
func DecodeAndValidate(c context.Context, r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf(
			"failed decoding request body with error=%w",
			inErrors.New(inErrors.ErrValidation, err.Error()),
		)
	}
	if err := validate.New().StructCtx(c, dst); err != nil {
		return fmt.Errorf(
			"failed validating request body with error=%w",
			inErrors.New(inErrors.ErrValidation, err.Error()),
		)
	}
	return nil
}

// PathUUID parses the path variable name of r as a uuid and wraps notFound
// when it is malformed.
func PathUUID(r *http.Request, name string, notFound error) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed parsing %s=%s with error=%w", name, raw, notFound)
	}
	return id, nil
}
