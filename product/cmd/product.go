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
	"github.com/Alturino/storefront/product/internal/controller"
	"github.com/Alturino/storefront/product/internal/service"
)

func AttachProduct(
	c context.Context,
	router *mux.Router,
	authenticate mux.MiddlewareFunc,
	pool *pgxpool.Pool,
	productCache *cache.ProductCache,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppProductService).
		Str(log.KeyTag, "main AttachProduct").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing productService").Logger()
	logger.Info().Msg("initializing productService")
	productService := service.NewProductService(pool, repository.New(pool), productCache)
	logger.Info().Msg("initialized productService")

	logger = logger.With().Str(log.KeyProcess, "attaching productController").Logger()
	logger.Info().Msg("attaching productController")
	controller.AttachProductController(logger.WithContext(c), router, authenticate, productService)
	logger.Info().Msg("attached productController")
}
