package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/cache"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/order/internal/controller"
	"github.com/Alturino/storefront/order/internal/service"
)

func AttachOrder(
	c context.Context,
	router *mux.Router,
	authenticate mux.MiddlewareFunc,
	pool *pgxpool.Pool,
	productCache *cache.ProductCache,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppOrderService).
		Str(log.KeyTag, "main AttachOrder").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing orderService").Logger()
	logger.Info().Msg("initializing orderService")
	orderService := service.NewOrderService(pool, repository.New(pool), productCache)
	logger.Info().Msg("initialized orderService")

	logger = logger.With().Str(log.KeyProcess, "attaching orderController").Logger()
	logger.Info().Msg("attaching orderController")
	controller.AttachOrderController(logger.WithContext(c), router, authenticate, orderService)
	logger.Info().Msg("attached orderController")
}
