package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/user/internal/controller"
	"github.com/Alturino/storefront/user/internal/service"
)

func AttachUser(
	c context.Context,
	router *mux.Router,
	authenticate mux.MiddlewareFunc,
	pool *pgxpool.Pool,
	limiter *auth.LoginLimiter,
	authenticator *auth.Authenticator,
	cfg config.Application,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppUserService).
		Str(log.KeyTag, "main AttachUser").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing userService").Logger()
	logger.Info().Msg("initializing userService")
	userService := service.NewUserService(pool, repository.New(pool), limiter, cfg)
	logger.Info().Msg("initialized userService")

	logger = logger.With().Str(log.KeyProcess, "attaching userController").Logger()
	logger.Info().Msg("attaching userController")
	controller.AttachUserController(logger.WithContext(c), router, authenticate, userService, authenticator)
	logger.Info().Msg("attached userController")
}
