package controller

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/user/internal/service"
	"github.com/Alturino/storefront/user/pkg/request"
)

type UserController struct {
	service       *service.UserService
	authenticator *auth.Authenticator
}

func AttachUserController(
	c context.Context,
	router *mux.Router,
	authenticate mux.MiddlewareFunc,
	service *service.UserService,
	authenticator *auth.Authenticator,
) {
	controller := UserController{service: service, authenticator: authenticator}

	router.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
	router.Handle("/logout", authenticate(http.HandlerFunc(controller.Logout))).Methods(http.MethodGet)

	users := router.PathPrefix("/users").Subrouter()
	users.Use(authenticate)
	users.HandleFunc("/{userId}", controller.FindUserById).Methods(http.MethodGet)
	users.HandleFunc("/{userId}", controller.UpdateUser).Methods(http.MethodPut)
	users.HandleFunc("/{userId}", controller.DeleteUser).Methods(http.MethodDelete)
}

func (u UserController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Register")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Register").Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.Register{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Object(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "registering user").Logger()
	logger.Info().Msg("registering user")
	registered, err := u.service.Register(logger.WithContext(c), reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("registered user")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "User registered successfully",
		"data":       map[string]interface{}{"user": registered.User, "cart_id": registered.CartID},
	})
}

func (u UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Login")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Login").Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.Login{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Object(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "login").Logger()
	logger.Info().Msg("login")
	login, identity, err := u.service.Login(logger.WithContext(c), reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("logged in")

	logger = logger.With().Str(log.KeyProcess, "starting session").Logger()
	logger.Info().Msg("starting session")
	if err = u.authenticator.StartSession(w, r.WithContext(c), identity); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("started session")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "Login successful",
		"data":       map[string]interface{}{"token": login.Token, "expires_at": login.ExpiresAt, "user": login.User},
	})
}

func (u UserController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Logout")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Logout").Logger()

	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "logging out").Logger()
	logger.Info().Msg("logging out")
	if err = u.authenticator.Logout(w, r.WithContext(c), identity); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("logged out")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "Logout successful",
	})
}

func (u UserController) FindUserById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController FindUserById")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController FindUserById").Logger()

	identity, userID, err := u.requesterAndUserID(r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user")
	user, err := u.service.FindUserById(c, identity, userID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found user")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found user",
		"data":       map[string]interface{}{"user": user},
	})
}

func (u UserController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController UpdateUser")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController UpdateUser").Logger()

	identity, userID, err := u.requesterAndUserID(r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.UpdateUser{}
	if err = inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Object(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "updating user").Logger()
	logger.Info().Msg("updating user")
	user, err := u.service.UpdateUser(logger.WithContext(c), identity, userID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated user")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "User updated successfully",
		"data":       map[string]interface{}{"user": user},
	})
}

func (u UserController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController DeleteUser")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController DeleteUser").Logger()

	identity, userID, err := u.requesterAndUserID(r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "deleting user").Logger()
	logger.Info().Msg("deleting user")
	if err = u.service.DeleteUser(c, identity, userID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("deleted user")

	inHttp.WriteNoContent(c, w)
}

func (u UserController) requesterAndUserID(r *http.Request) (auth.Identity, uuid.UUID, error) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		return auth.Identity{}, uuid.Nil, err
	}
	userID, err := inHttp.PathUUID(r, "userId", inErrors.ErrUserNotFound)
	if err != nil {
		return auth.Identity{}, uuid.Nil, err
	}
	return identity, userID, nil
}
